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
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/atlascope/atlascope/config"
	"github.com/atlascope/atlascope/pkg/annotation"
	"github.com/atlascope/atlascope/pkg/otel"
	"github.com/atlascope/atlascope/pkg/overlay"
	"github.com/atlascope/atlascope/pkg/render"
	"github.com/atlascope/atlascope/pkg/table"
	"github.com/atlascope/atlascope/server"

	"github.com/dustin/go-humanize"
	_ "go.uber.org/automaxprocs"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := otel.Setup(ctx, "atlascope", version)

	if err != nil {
		slog.Error("telemetry setup failed", "error", err)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		shutdown(ctx)
	}()

	switch args[0] {
	case "serve":
		err = serve(ctx, args[1:])

	case "overlay":
		err = convert(ctx, args[1:])

	case "version":
		fmt.Println(version)

	default:
		usage()
		return 2
	}

	if err != nil {
		slog.Error(args[0]+" failed", "error", err)
		return 1
	}

	return 0
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: atlascope <serve|overlay|version> [flags]")
}

func serve(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)

	configFlag := flags.String("config", "config.yaml", "config file")
	addressFlag := flags.String("address", "", "listen address")

	flags.Parse(args)

	cfg, err := config.Parse(*configFlag)

	if err != nil {
		return err
	}

	if *addressFlag != "" {
		cfg.Address = *addressFlag
	}

	s, err := server.New(cfg)

	if err != nil {
		return err
	}

	return s.ListenAndServe(ctx)
}

func convert(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("overlay", flag.ExitOnError)

	configFlag := flags.String("config", "", "config file")
	inputFlag := flags.String("input", "", "feature table (.parquet, .csv)")
	propsFlag := flags.String("props", "", "optional table with additional columns")
	modeFlag := flags.String("mode", "", "overlay mode (ellipse, box)")
	formatFlag := flags.String("format", "json", "output format (json, annotation, png)")
	outputFlag := flags.String("o", "", "output file (default stdout)")

	widthFlag := flags.Int("width", 1024, "png width")
	heightFlag := flags.Int("height", 1024, "png height")
	paddingFlag := flags.Float64("padding", 16, "png padding")
	backgroundFlag := flags.String("background", "#FFFFFF", "png background color")

	flags.Parse(args)

	if *inputFlag == "" {
		return errors.New("missing -input")
	}

	cfg, err := config.Parse(*configFlag)

	if err != nil {
		return err
	}

	input, closeInput, err := openInput(*inputFlag)

	if err != nil {
		return err
	}

	defer closeInput()

	var props *table.Input

	if *propsFlag != "" {
		p, closeProps, err := openInput(*propsFlag)

		if err != nil {
			return err
		}

		defer closeProps()

		props = &p
	}

	t, err := cfg.ReadFeatures(ctx, input, props)

	if err != nil {
		return err
	}

	mode := cfg.Mode()

	if *modeFlag != "" {
		if mode, err = overlay.ParseMode(*modeFlag); err != nil {
			return err
		}
	}

	b, err := cfg.Builder(mode, t)

	if err != nil {
		return err
	}

	shapes, err := b.BuildTable(t)

	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout

	if *outputFlag != "" {
		f, err := os.Create(*outputFlag)

		if err != nil {
			return err
		}

		defer f.Close()

		w = f
	}

	cw := &countingWriter{w: w}

	switch strings.ToLower(*formatFlag) {
	case "json":
		err = writeShapes(cw, mode, shapes)

	case "annotation":
		name := strings.TrimSuffix(filepath.Base(*inputFlag), filepath.Ext(*inputFlag))
		err = annotation.FromShapes(shapes, &annotation.Options{Name: name}).Write(cw)

	case "png":
		var r *render.Renderer

		r, err = render.New(
			render.WithSize(*widthFlag, *heightFlag),
			render.WithPadding(*paddingFlag),
			render.WithBackground(*backgroundFlag),
		)

		if err == nil {
			err = r.Render(cw, shapes)
		}

	default:
		err = fmt.Errorf("invalid format: %q", *formatFlag)
	}

	if err != nil {
		return err
	}

	slog.Info("overlay written",
		"input", input.Name,
		"input_size", humanize.Bytes(uint64(input.Size)),
		"rows", humanize.Comma(int64(t.Len())),
		"shapes", humanize.Comma(int64(len(shapes))),
		"mode", mode,
		"format", *formatFlag,
		"output_size", humanize.Bytes(uint64(cw.n)),
	)

	return nil
}

func openInput(path string) (table.Input, func() error, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return table.Input{URL: path}, func() error { return nil }, nil
	}

	f, err := os.Open(path)

	if err != nil {
		return table.Input{}, nil, err
	}

	info, err := f.Stat()

	if err != nil {
		f.Close()
		return table.Input{}, nil, err
	}

	input := table.Input{
		Name: filepath.Base(path),

		Content: f,
		Size:    info.Size(),
	}

	return input, f.Close, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)

	return n, err
}
