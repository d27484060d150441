// Package dashboard renders a live terminal view of a training run:
// loss and accuracy curves, run status, timing and an event log.
package dashboard

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
)

// Settings describes the run shown in the hyperparameter panel.
type Settings struct {
	Topology     string
	Loss         string
	Epochs       int
	LearningRate float64
	Batches      int
	BatchSize    int
}

// Progress is one epoch's worth of training state.
type Progress struct {
	Epoch    int
	Loss     float64
	Accuracy float64 // fraction in [0, 1], negative when not measured
	Started  time.Time
}

// Dashboard owns the terminal while open.
type Dashboard struct {
	settings Settings
	grid     *ui.Grid

	lossPlot     *widgets.Plot
	accuracyPlot *widgets.Plot
	gauge        *widgets.Gauge
	statusList   *widgets.List
	systemList   *widgets.List
	logParagraph *widgets.Paragraph

	losses     []float64
	accuracies []float64
	mu         sync.Mutex
}

// New takes over the terminal and lays out the panels.
func New(s Settings) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	d := &Dashboard{settings: s}

	d.lossPlot = widgets.NewPlot()
	d.lossPlot.Title = "Training Loss"
	d.lossPlot.Data = [][]float64{{0, 0}}
	d.lossPlot.LineColors[0] = ui.ColorRed

	d.accuracyPlot = widgets.NewPlot()
	d.accuracyPlot.Title = "Accuracy (%)"
	d.accuracyPlot.Data = [][]float64{{0, 0}}
	d.accuracyPlot.LineColors[0] = ui.ColorGreen

	d.gauge = widgets.NewGauge()
	d.gauge.Title = "Run Progress"
	d.gauge.BarColor = ui.ColorBlue

	d.statusList = widgets.NewList()
	d.statusList.Title = "Training Status"
	d.systemList = widgets.NewList()
	d.systemList.Title = "System & Timing"

	params := widgets.NewList()
	params.Title = "Hyperparameters"
	params.Rows = settingsRows(s)

	d.logParagraph = widgets.NewParagraph()
	d.logParagraph.Title = "Event Log"

	d.grid = ui.NewGrid()
	w, h := ui.TerminalDimensions()
	d.grid.SetRect(0, 0, w, h)
	d.grid.Set(
		ui.NewRow(0.4, ui.NewCol(0.5, d.lossPlot), ui.NewCol(0.5, d.accuracyPlot)),
		ui.NewRow(0.3, ui.NewCol(0.34, d.statusList), ui.NewCol(0.33, d.systemList), ui.NewCol(0.33, params)),
		ui.NewRow(0.3, ui.NewCol(1.0, ui.NewRow(0.4, d.gauge), ui.NewRow(0.6, d.logParagraph))),
	)
	ui.Render(d.grid)
	return d, nil
}

// Update records p and redraws.
func (d *Dashboard) Update(p Progress) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.losses = append(d.losses, p.Loss)
	if p.Accuracy >= 0 {
		d.accuracies = append(d.accuracies, 100*p.Accuracy)
	}

	d.statusList.Rows = statusRows(p, d.settings.Epochs)
	d.systemList.Rows = systemRows(p.Started, p.Epoch, d.settings.Epochs)
	if d.settings.Epochs > 0 {
		d.gauge.Percent = min(100, p.Epoch*100/d.settings.Epochs)
	}
	d.lossPlot.Data[0] = plotData(d.losses, d.lossPlot.Inner.Dx())
	d.accuracyPlot.Data[0] = plotData(d.accuracies, d.accuracyPlot.Inner.Dx())

	ui.Render(d.grid)
}

// Log replaces the event log text.
func (d *Dashboard) Log(message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logParagraph.Text = message
	ui.Render(d.grid)
}

// Quit returns a channel closed when the user presses q or Ctrl-C.
func (d *Dashboard) Quit() <-chan struct{} {
	done := make(chan struct{})
	events := ui.PollEvents()
	go func() {
		defer close(done)
		for e := range events {
			if e.ID == "q" || e.ID == "<C-c>" {
				return
			}
		}
	}()
	return done
}

// Close restores the terminal.
func (d *Dashboard) Close() {
	ui.Close()
}

func settingsRows(s Settings) []string {
	return []string{
		fmt.Sprintf("Topology: %s", s.Topology),
		fmt.Sprintf("Loss: %s", s.Loss),
		fmt.Sprintf("Epochs: %d", s.Epochs),
		fmt.Sprintf("Learn Rate: %.4f", s.LearningRate),
		fmt.Sprintf("Shards: %d", s.Batches),
		fmt.Sprintf("Batch Size: %d", s.BatchSize),
	}
}

func statusRows(p Progress, epochs int) []string {
	rows := []string{
		fmt.Sprintf("Epoch: %d / %d", p.Epoch, epochs),
		fmt.Sprintf("Loss: %.6f", p.Loss),
	}
	if p.Accuracy >= 0 {
		rows = append(rows, fmt.Sprintf("Accuracy: %.2f%%", 100*p.Accuracy))
	}
	return rows
}

func systemRows(started time.Time, epoch, epochs int) []string {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	elapsed := time.Since(started).Round(time.Second)
	return []string{
		fmt.Sprintf("Elapsed: %v", elapsed),
		fmt.Sprintf("ETA: %v", eta(elapsed, epoch, epochs)),
		"---",
		fmt.Sprintf("Heap Alloc: %d MiB", mem.Alloc/1024/1024),
		fmt.Sprintf("Goroutines: %d", runtime.NumGoroutine()),
	}
}

// eta extrapolates the remaining time from the average epoch duration.
func eta(elapsed time.Duration, epoch, epochs int) time.Duration {
	if epoch <= 0 || epoch >= epochs {
		return 0
	}
	per := elapsed / time.Duration(epoch)
	return (per * time.Duration(epochs-epoch)).Round(time.Second)
}

// plotData downsamples data to width and pads it to the two points the
// plot widget needs.
func plotData(data []float64, width int) []float64 {
	out := Downsample(data, width)
	for len(out) < 2 {
		out = append(out, 0)
	}
	return out
}

// Downsample averages data into width contiguous bins. Data that already
// fits is returned unchanged.
func Downsample(data []float64, width int) []float64 {
	if width <= 0 || len(data) <= width {
		return data
	}

	out := make([]float64, width)
	bin := float64(len(data)) / float64(width)
	for i := range out {
		start := int(float64(i) * bin)
		end := min(int(float64(i+1)*bin), len(data))
		if end <= start {
			if i > 0 {
				out[i] = out[i-1]
			}
			continue
		}

		var sum float64
		for _, v := range data[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}
