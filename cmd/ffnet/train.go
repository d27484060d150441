package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/born-ml/ffnet/internal/config"
	"github.com/born-ml/ffnet/internal/dashboard"
	"github.com/born-ml/ffnet/internal/dataset"
	"github.com/born-ml/ffnet/internal/nn"
)

func runXOR(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("xor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	epochs := fs.Int("epochs", 10000, "number of training epochs")
	lr := fs.Float64("lr", 0.01, "learning rate")
	seed := fs.Uint64("seed", 42, "initialization seed")
	every := fs.Int("every", 1000, "report progress every N epochs")
	out := fs.String("out", "", "write a checkpoint to this path when done")
	verbose := fs.Bool("v", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logger := newLogger(stderr, *verbose)

	net, err := nn.NewSequential(nn.BCE, *seed,
		nn.NewDense(2, nn.ReLU),
		nn.NewDense(10, nn.Tanh),
		nn.NewDense(1, nn.Sigmoid),
	)
	if err != nil {
		return err
	}
	xor := dataset.XOR(dataset.Config{LearningRate: *lr, Batches: 1, BatchSize: 1})

	loss, _, err := trainLoop(context.Background(), net, xor, trainOptions{
		epochs: *epochs,
		every:  *every,
		eval:   xor,
		logger: logger,
	})
	if err != nil {
		return err
	}

	for _, ex := range xor.Examples {
		fmt.Fprintf(stdout, "%v -> %.4f (target %.0f)\n", ex.Input, net.Forward(ex.Input)[0], ex.Target[0])
	}
	if *out != "" {
		return net.SaveCheckpoint(*out, &nn.Checkpoint{Epoch: *epochs, Loss: loss, LearningRate: *lr})
	}
	return nil
}

func runTrain(args []string, _, stderr io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "path to the YAML run configuration")
	resume := fs.Bool("resume", false, "continue from the configured checkpoint")
	useDashboard := fs.Bool("dashboard", false, "show a live terminal dashboard")
	verbose := fs.Bool("v", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cfgPath == "" {
		return errors.New("-config is required")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if cfg.Dataset == nil {
		return errors.New("config has no dataset")
	}

	logOut := stderr
	if *useDashboard {
		logOut = io.Discard
	}
	logger := newLogger(logOut, *verbose)

	net, err := cfg.BuildNetwork()
	if err != nil {
		return err
	}
	train, err := cfg.Dataset.Load(cfg.TrainingConfig())
	if err != nil {
		return err
	}
	eval := train
	if cfg.Eval != nil {
		if eval, err = cfg.Eval.Load(cfg.TrainingConfig()); err != nil {
			return err
		}
	}
	logger.Info("dataset loaded", "train", train.Len(), "eval", eval.Len(), "topology", net.Topology())

	ckpt := &nn.Checkpoint{LearningRate: cfg.Training.LearningRate}
	start := 1
	if *resume {
		if cfg.Checkpoint == "" {
			return errors.New("-resume needs a checkpoint path in the config")
		}
		if ckpt, err = net.LoadCheckpoint(cfg.Checkpoint); err != nil {
			return err
		}
		start = ckpt.Epoch + 1
		logger.Info("resuming", "run", ckpt.RunID, "epoch", start)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := trainOptions{
		start:  start,
		epochs: cfg.Epochs,
		every:  cfg.ReportEvery,
		eval:   eval,
		logger: logger,
	}
	if *useDashboard {
		d, err := dashboard.New(dashboard.Settings{
			Topology:     net.Topology(),
			Loss:         net.Loss().Name,
			Epochs:       cfg.Epochs,
			LearningRate: cfg.Training.LearningRate,
			Batches:      train.Config.Shards(),
			BatchSize:    cfg.Training.BatchSize,
		})
		if err != nil {
			return err
		}
		defer d.Close()
		go func() {
			select {
			case <-d.Quit():
				stop()
			case <-ctx.Done():
			}
		}()
		opts.dashboard = d
	}

	loss, completed, err := trainLoop(ctx, net, train, opts)
	if err != nil {
		return err
	}

	if cfg.Checkpoint == "" {
		return nil
	}
	if completed >= start {
		ckpt.Epoch = completed
		ckpt.Loss = loss
	}
	ckpt.LearningRate = cfg.Training.LearningRate
	ckpt.Metadata = map[string]any{
		"dataset":     cfg.Dataset.Path,
		"interrupted": completed < cfg.Epochs,
	}
	if err := net.SaveCheckpoint(cfg.Checkpoint, ckpt); err != nil {
		return err
	}
	logger.Info("checkpoint saved", "path", cfg.Checkpoint, "run", ckpt.RunID, "epoch", ckpt.Epoch)
	return nil
}

func runEval(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "path to the YAML run configuration")
	ckptPath := fs.String("checkpoint", "", "saved network (defaults to the configured checkpoint)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cfgPath == "" {
		return errors.New("-config is required")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	path := *ckptPath
	if path == "" {
		path = cfg.Checkpoint
	}
	if path == "" {
		return errors.New("no checkpoint given")
	}

	data := cfg.Eval
	if data == nil {
		data = cfg.Dataset
	}
	if data == nil {
		return errors.New("config has no dataset")
	}

	net, err := cfg.BuildNetwork()
	if err != nil {
		return err
	}
	if err := net.Load(path); err != nil {
		return err
	}
	ds, err := data.Load(cfg.TrainingConfig())
	if err != nil {
		return err
	}

	loss, acc, err := net.Evaluate(ds)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "examples: %d\nloss: %.6f\naccuracy: %.2f%%\n", ds.Len(), loss, 100*acc)
	return nil
}

type trainOptions struct {
	start     int // first epoch number, 1 when zero
	epochs    int
	every     int
	eval      *dataset.Dataset // accuracy source at report time; nil skips accuracy
	logger    *slog.Logger
	dashboard *dashboard.Dashboard
}

// trainLoop runs epochs until done or ctx is canceled, checking ctx
// between epochs. It returns the loss and number of the last completed
// epoch.
func trainLoop(ctx context.Context, net *nn.Network, ds *dataset.Dataset, opts trainOptions) (loss float64, completed int, err error) {
	if opts.start < 1 {
		opts.start = 1
	}
	started := time.Now()
	opts.logger.Info("training", "epochs", opts.epochs, "examples", ds.Len(), "params", net.NumParameters())

	completed = opts.start - 1
	for epoch := opts.start; epoch <= opts.epochs; epoch++ {
		if ctx.Err() != nil {
			opts.logger.Warn("training interrupted", "epoch", epoch-1)
			break
		}

		if loss, err = net.Backprop(ds); err != nil {
			return loss, completed, fmt.Errorf("epoch %d: %w", epoch, err)
		}
		completed = epoch

		if opts.every <= 0 || (epoch%opts.every != 0 && epoch != opts.epochs) {
			continue
		}
		accuracy := -1.0
		if opts.eval != nil {
			if _, accuracy, err = net.Evaluate(opts.eval); err != nil {
				return loss, completed, err
			}
		}
		opts.logger.Info("epoch", "epoch", epoch, "loss", loss, "accuracy", accuracy)
		if opts.dashboard != nil {
			opts.dashboard.Update(dashboard.Progress{Epoch: epoch, Loss: loss, Accuracy: accuracy, Started: started})
			opts.dashboard.Log(fmt.Sprintf("epoch %d: loss %.6f", epoch, loss))
		}
	}
	return loss, completed, nil
}
