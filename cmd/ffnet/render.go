package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/born-ml/ffnet/internal/dataset"
	"github.com/born-ml/ffnet/internal/render"
)

func runRender(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	csvPath := fs.String("csv", "", "labeled CSV file (MNIST layout by default)")
	first := fs.Int("from", 0, "index of the first example to render")
	count := fs.Int("n", 1, "number of examples to render")
	outDir := fs.String("out", ".", "output directory")
	width := fs.Int("width", 28, "image width in pixels")
	height := fs.Int("height", 28, "image height in pixels")
	scale := fs.Int("scale", 8, "integer upscaling factor")
	labelColumn := fs.Int("label-column", 0, "index of the label column")
	classes := fs.Int("classes", 10, "number of label classes")
	header := fs.Bool("header", true, "skip the first row")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *csvPath == "" {
		return errors.New("-csv is required")
	}
	if *first < 0 || *count <= 0 {
		return fmt.Errorf("invalid range: -from %d -n %d", *first, *count)
	}

	opts := dataset.MNISTOptions()
	opts.HasHeader = *header
	opts.LabelColumn = *labelColumn
	opts.NumClasses = *classes
	opts.MaxRows = *first + *count
	ds, err := dataset.LoadCSV(*csvPath, opts, dataset.DefaultConfig())
	if err != nil {
		return err
	}
	if ds.Len() <= *first {
		return fmt.Errorf("%s has %d usable rows, need more than %d", *csvPath, ds.Len(), *first)
	}

	if err := os.MkdirAll(*outDir, 0o750); err != nil {
		return err
	}
	for i, ex := range ds.Examples[*first:] {
		img, err := render.Grayscale(ex.Input, *width, *height)
		if err != nil {
			return fmt.Errorf("example %d: %w", *first+i, err)
		}
		name := fmt.Sprintf("sample_%d_label_%d.png", *first+i, dataset.Argmax(ex.Target))
		path := filepath.Join(*outDir, name)
		if err := render.WritePNG(path, render.Upscale(img, *scale)); err != nil {
			return err
		}
		fmt.Fprintln(stdout, path)
	}
	return nil
}
