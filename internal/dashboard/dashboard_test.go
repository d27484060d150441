package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDownsample(t *testing.T) {
	data := []float64{1, 3, 5, 7, 9, 11}

	assert.Equal(t, []float64{2, 6, 10}, Downsample(data, 3))
	assert.Equal(t, data, Downsample(data, 6))
	assert.Equal(t, data, Downsample(data, 0))
	assert.Equal(t, []float64{6}, Downsample(data, 1))
}

func TestPlotData_PadsShortSeries(t *testing.T) {
	assert.Equal(t, []float64{0, 0}, plotData(nil, 40))
	assert.Equal(t, []float64{0.5, 0}, plotData([]float64{0.5}, 40))
	assert.Len(t, plotData(make([]float64, 100), 10), 10)
}

func TestETA(t *testing.T) {
	assert.Equal(t, 30*time.Second, eta(10*time.Second, 10, 40))
	assert.Zero(t, eta(10*time.Second, 0, 40))
	assert.Zero(t, eta(10*time.Second, 40, 40))
}

func TestStatusRows(t *testing.T) {
	rows := statusRows(Progress{Epoch: 3, Loss: 0.25, Accuracy: 0.5}, 10)
	assert.Equal(t, []string{"Epoch: 3 / 10", "Loss: 0.250000", "Accuracy: 50.00%"}, rows)

	rows = statusRows(Progress{Epoch: 1, Loss: 1, Accuracy: -1}, 10)
	assert.Len(t, rows, 2)
}
