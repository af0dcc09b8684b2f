// Package main provides the cfconv CLI.
//
// Commands:
//
//	cfconv version
//	cfconv init    -config model.yaml -out model.safetensors
//	cfconv predict -model model.safetensors [-forces] molecules.xyz
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/born-ml/cfconv/backend/cpu"
	"github.com/born-ml/cfconv/internal/xyz"
	"github.com/born-ml/cfconv/model"
)

const version = "v0.1.0-dev"

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "cfconv: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return errUsage
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "cfconv %s\n", version)
		return nil
	case "init":
		return runInit(args[1:], stdout, stderr)
	case "predict":
		return runPredict(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		usage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "cfconv - continuous-filter graph convolution potentials")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  init       Write a freshly initialized model")
	fmt.Fprintln(w, "  predict    Predict energies (and forces) for an XYZ file")
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runInit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML model configuration (defaults if empty)")
	out := fs.String("out", "model.safetensors", "output weights file")
	seed := fs.Int64("seed", -1, "override the configured seed when >= 0")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	logger := newLogger(stderr, *verbose)

	cfg := model.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = model.LoadConfig(*configPath); err != nil {
			return err
		}
		logger.Debug("loaded config", "path", *configPath)
	}
	if *seed >= 0 {
		cfg.Seed = *seed
	}

	m, err := model.New(cfg, cpu.New())
	if err != nil {
		return err
	}
	logger.Debug("built model", "model", m.String(), "parameters", m.NumParameters())

	if err := m.Save(*out); err != nil {
		return err
	}
	logger.Info("model written", "path", *out, "parameters", m.NumParameters())
	fmt.Fprintln(stdout, *out)
	return nil
}

func runPredict(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	weights := fs.String("model", "model.safetensors", "weights file written by init")
	forces := fs.Bool("forces", false, "also compute forces")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: cfconv predict [-model file] [-forces] molecules.xyz")
		return errUsage
	}
	logger := newLogger(stderr, *verbose)

	m, err := model.Load(*weights, cpu.New())
	if err != nil {
		return err
	}
	logger.Debug("loaded model", "path", *weights, "model", m.String())

	// Forces need the recording path, so rebuild with Derivative set and
	// copy the weights over.
	if *forces && !m.Config().Derivative {
		cfg := m.Config()
		cfg.Derivative = true
		withForces, err := model.New(cfg, m.Backend())
		if err != nil {
			return err
		}
		if err := withForces.LoadStateDict(m.StateDict()); err != nil {
			return err
		}
		m = withForces
	}

	frames, err := xyz.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	logger.Debug("read frames", "path", fs.Arg(0), "frames", len(frames))

	pred, err := m.Forward(xyz.System(frames))
	if err != nil {
		return err
	}

	for i, mol := range pred.Molecules {
		fmt.Fprintf(stdout, "molecule %d\t%q\t%.10g\n", mol, frames[mol].Comment, pred.Energy[i])
	}
	if pred.Forces != nil && *forces {
		for i, atom := range pred.Atoms {
			f := pred.Forces[i]
			fmt.Fprintf(stdout, "force %d\t%.10g\t%.10g\t%.10g\n", atom, f[0], f[1], f[2])
		}
	}
	logger.Info("prediction done", "molecules", len(pred.Molecules), "atoms", len(pred.Atoms))
	return nil
}
