package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CSVOptions controls how LoadCSV interprets a file.
type CSVOptions struct {
	HasHeader   bool    // Skip the first record.
	LabelColumn int     // Column holding the integer class label.
	NumClasses  int     // Width of the one-hot target.
	Scale       float64 // Multiplier applied to every feature (0 means 1).
	Delimiter   rune    // Field delimiter (0 means ',').
	MaxRows     int     // Stop after this many examples (0 means all).
}

// MNISTOptions returns the options for the label-first, 0..255 pixel CSV
// layout produced by the usual MNIST converters.
func MNISTOptions() CSVOptions {
	return CSVOptions{
		HasHeader:   true,
		LabelColumn: 0,
		NumClasses:  10,
		Scale:       1.0 / 255.0,
	}
}

// LoadCSV loads a labeled CSV file.
//
// Every non-label column becomes a feature (scaled by opts.Scale); the label
// is one-hot encoded into a target of width opts.NumClasses. Empty rows,
// rows with unparsable fields, rows with an out-of-range label and rows whose
// width differs from the first accepted row are skipped.
//
// Returns an error only if the file cannot be opened or read.
func LoadCSV(path string, opts CSVOptions, cfg Config) (*Dataset, error) {
	//nolint:gosec // G304: dataset path is supplied by the caller
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	ds, err := ReadCSV(file, opts, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ds, nil
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(r io.Reader, opts CSVOptions, cfg Config) (*Dataset, error) {
	if opts.NumClasses <= 0 {
		return nil, fmt.Errorf("NumClasses must be positive, got %d", opts.NumClasses)
	}
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	ds := &Dataset{Config: cfg}
	width := -1
	first := true

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if first && opts.HasHeader {
			first = false
			continue
		}
		first = false

		ex, ok := parseRecord(record, opts, scale)
		if !ok {
			continue
		}
		if width < 0 {
			width = len(ex.Input)
		} else if len(ex.Input) != width {
			continue
		}

		ds.Examples = append(ds.Examples, ex)
		if opts.MaxRows > 0 && len(ds.Examples) >= opts.MaxRows {
			break
		}
	}

	return ds, nil
}

func parseRecord(record []string, opts CSVOptions, scale float64) (Example, bool) {
	if len(record) < 2 || opts.LabelColumn < 0 || opts.LabelColumn >= len(record) {
		return Example{}, false
	}

	label, err := strconv.Atoi(strings.TrimSpace(record[opts.LabelColumn]))
	if err != nil {
		return Example{}, false
	}
	target, err := OneHot(label, opts.NumClasses)
	if err != nil {
		return Example{}, false
	}

	input := make([]float64, 0, len(record)-1)
	for i, field := range record {
		if i == opts.LabelColumn {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return Example{}, false
		}
		input = append(input, v*scale)
	}

	return Example{Input: input, Target: target}, true
}
