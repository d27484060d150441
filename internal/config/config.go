// Package config loads the YAML run configuration used by the ffnet CLI:
// network topology, loss, training schedule, datasets and checkpointing.
//
// Example file:
//
//	seed: 42
//	loss: bce
//	epochs: 10000
//	report_every: 1000
//	training:
//	  learning_rate: 0.01
//	  batches: 1
//	layers:
//	  - {kind: dense, size: 2, activation: relu}
//	  - {kind: dense, size: 10, activation: tanh}
//	  - {kind: dense, size: 1, activation: sigmoid}
//	dataset:
//	  path: xor.csv
//	  label_column: 2
//	  num_classes: 2
//	checkpoint: xor.born
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/born-ml/ffnet/internal/dataset"
	"github.com/born-ml/ffnet/internal/nn"
	"gopkg.in/yaml.v3"
)

// Layer kinds accepted in the layers list.
const (
	KindLinear        = "linear"
	KindDense         = "dense"
	KindActivation    = "activation"
	KindNormalization = "normalization"
	KindGating        = "gating"
)

// Defaults applied by Load.
const (
	DefaultEpochs      = 100
	DefaultReportEvery = 10
)

// Config is a complete training run.
type Config struct {
	Seed        uint64         `yaml:"seed"`
	Loss        string         `yaml:"loss"`
	Epochs      int            `yaml:"epochs"`
	ReportEvery int            `yaml:"report_every"`
	Training    TrainingConfig `yaml:"training"`
	Layers      []LayerConfig  `yaml:"layers"`
	Dataset     *DatasetConfig `yaml:"dataset"`
	Eval        *DatasetConfig `yaml:"eval"`
	Checkpoint  string         `yaml:"checkpoint"`
}

// TrainingConfig mirrors dataset.Config.
type TrainingConfig struct {
	LearningRate float64 `yaml:"learning_rate"`
	Batches      int     `yaml:"batches"`
	BatchSize    int     `yaml:"batch_size"`
}

// LayerConfig declares one layer.
type LayerConfig struct {
	Kind       string `yaml:"kind"`
	Size       int    `yaml:"size"`
	Activation string `yaml:"activation"`
}

// DatasetConfig locates a labeled CSV file.
type DatasetConfig struct {
	Path        string  `yaml:"path"`
	HasHeader   bool    `yaml:"has_header"`
	LabelColumn int     `yaml:"label_column"`
	NumClasses  int     `yaml:"num_classes"`
	Scale       float64 `yaml:"scale"`
	Delimiter   string  `yaml:"delimiter"`
	MaxRows     int     `yaml:"max_rows"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	//nolint:gosec // G304: configuration path is supplied by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML, applies defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := dataset.DefaultConfig()
	if c.Training.LearningRate == 0 {
		c.Training.LearningRate = def.LearningRate
	}
	if c.Training.Batches == 0 {
		c.Training.Batches = def.Batches
	}
	if c.Epochs == 0 {
		c.Epochs = DefaultEpochs
	}
	if c.ReportEvery == 0 {
		c.ReportEvery = DefaultReportEvery
	}
	if c.Loss == "" {
		c.Loss = nn.MSE
	}
	for i := range c.Layers {
		c.Layers[i].Kind = strings.ToLower(strings.TrimSpace(c.Layers[i].Kind))
	}
}

// Validate reports the first structural problem in c.
func (c *Config) Validate() error {
	if len(c.Layers) == 0 {
		return errors.New("config: at least one layer is required")
	}
	for i, l := range c.Layers {
		switch l.Kind {
		case KindLinear, KindDense, KindActivation, KindNormalization, KindGating:
		default:
			return fmt.Errorf("config: layer %d: unknown kind %q", i, l.Kind)
		}
		if l.Size <= 0 {
			return fmt.Errorf("config: layer %d: size must be positive, got %d", i, l.Size)
		}
	}
	if c.Epochs < 0 {
		return fmt.Errorf("config: epochs must not be negative, got %d", c.Epochs)
	}
	if c.ReportEvery < 0 {
		return fmt.Errorf("config: report_every must not be negative, got %d", c.ReportEvery)
	}
	if c.Training.LearningRate < 0 {
		return fmt.Errorf("config: learning_rate must not be negative, got %g", c.Training.LearningRate)
	}
	if c.Training.Batches < 0 || c.Training.BatchSize < 0 {
		return errors.New("config: batches and batch_size must not be negative")
	}
	for name, d := range map[string]*DatasetConfig{"dataset": c.Dataset, "eval": c.Eval} {
		if d == nil {
			continue
		}
		if err := d.validate(); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	return nil
}

// TrainingConfig returns the dataset configuration record.
func (c *Config) TrainingConfig() dataset.Config {
	return dataset.Config{
		LearningRate: c.Training.LearningRate,
		Batches:      c.Training.Batches,
		BatchSize:    c.Training.BatchSize,
	}
}

// NewLayers instantiates the declared layers.
func (c *Config) NewLayers() []nn.Layer {
	layers := make([]nn.Layer, 0, len(c.Layers))
	for _, l := range c.Layers {
		layers = append(layers, l.New())
	}
	return layers
}

// BuildNetwork returns a built network for the declared topology.
func (c *Config) BuildNetwork() (*nn.Network, error) {
	return nn.NewSequential(c.Loss, c.Seed, c.NewLayers()...)
}

// New instantiates the layer. The kind must have been validated.
func (l LayerConfig) New() nn.Layer {
	switch l.Kind {
	case KindLinear:
		return nn.NewLinear(l.Size)
	case KindActivation:
		return nn.NewActivation(l.Size, l.Activation)
	case KindNormalization:
		return nn.NewNormalization(l.Size)
	case KindGating:
		return nn.NewGating(l.Size)
	default:
		return nn.NewDense(l.Size, l.Activation)
	}
}

func (d *DatasetConfig) validate() error {
	if d.Path == "" {
		return errors.New("path is required")
	}
	if d.NumClasses <= 0 {
		return fmt.Errorf("num_classes must be positive, got %d", d.NumClasses)
	}
	if d.LabelColumn < 0 {
		return fmt.Errorf("label_column must not be negative, got %d", d.LabelColumn)
	}
	if utf8.RuneCountInString(d.Delimiter) > 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", d.Delimiter)
	}
	return nil
}

// CSVOptions converts d to loader options.
func (d *DatasetConfig) CSVOptions() dataset.CSVOptions {
	opts := dataset.CSVOptions{
		HasHeader:   d.HasHeader,
		LabelColumn: d.LabelColumn,
		NumClasses:  d.NumClasses,
		Scale:       d.Scale,
		MaxRows:     d.MaxRows,
	}
	if d.Delimiter != "" {
		opts.Delimiter, _ = utf8.DecodeRuneInString(d.Delimiter)
	}
	return opts
}

// Load reads the dataset with the training configuration cfg.
func (d *DatasetConfig) Load(cfg dataset.Config) (*dataset.Dataset, error) {
	return dataset.LoadCSV(d.Path, d.CSVOptions(), cfg)
}
