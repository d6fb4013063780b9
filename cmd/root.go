package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ftahirops/sensorguard/config"
	"github.com/ftahirops/sensorguard/engine"
	"github.com/ftahirops/sensorguard/model"
	"github.com/ftahirops/sensorguard/ui"
)

// Version is set at build time via ldflags.
var Version = "0.1.0"

// EnvLogFile, when set, receives log output while the TUI owns the terminal.
const EnvLogFile = "SENSORGUARD_LOG"

// Options holds CLI configuration.
type Options struct {
	ConfigPath  string
	ModelDir    string
	WebAddr     string
	MetricsAddr string
	Serve       bool
	JSONMode    bool
	ShowVersion bool

	// values holds the per-field flags; set records which were given.
	values [model.NumFeatures]float64
	set    map[string]bool
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `sensorguard v%s - Industrial sensor anomaly detection

Usage:
  sensorguard [OPTIONS]

Modes:
  (default)              Interactive form (bubbletea, fullscreen)
  -web ADDR              Serve the form as a web page on ADDR
  -serve                 Serve the web page on the configured address (default: 127.0.0.1:8501)
  -json                  Score one reading built from the field flags, print JSON, exit
  -version               Print version and exit

Options:
  -model-dir DIR         Directory holding the model artifacts (default: .)
  -config FILE           Config file, JSON or YAML (default: ~/.config/sensorguard/config.json)
  -metrics ADDR          Expose Prometheus metrics on ADDR

Fields (used by -json, defaults from config):
`, Version)
	for _, f := range model.Features {
		fmt.Fprintf(w, "  -%-21s %s\n", f.Flag+" N", f.Label)
	}
	fmt.Fprintf(w, `
Environment:
  %s, %s, %s override the config file.
  %s=FILE writes logs to FILE in TUI mode.

Examples:
  sensorguard -model-dir /srv/models
  sensorguard -web 127.0.0.1:8501 -metrics 127.0.0.1:9109
  sensorguard -json -temperature 95 -vibration 20 | jq .anomalous
`, config.EnvModelDir, config.EnvWebAddr, config.EnvMetricsAddr, EnvLogFile)
}

// parseFlags parses args into Options. Field flag defaults come from defaults.
func parseFlags(args []string, defaults model.Reading, stderr io.Writer) (*Options, error) {
	opts := &Options{set: make(map[string]bool)}
	fs := flag.NewFlagSet("sensorguard", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }

	fs.StringVar(&opts.ConfigPath, "config", "", "Config file (JSON or YAML)")
	fs.StringVar(&opts.ModelDir, "model-dir", "", "Directory holding the model artifacts")
	fs.StringVar(&opts.WebAddr, "web", "", "Serve the web form on ADDR")
	fs.StringVar(&opts.MetricsAddr, "metrics", "", "Expose Prometheus metrics on ADDR")
	fs.BoolVar(&opts.Serve, "serve", false, "Serve the web form on the configured address")
	fs.BoolVar(&opts.JSONMode, "json", false, "Score one reading and print JSON")
	fs.BoolVar(&opts.ShowVersion, "version", false, "Print version and exit")

	vec := defaults.Vector()
	for i, f := range model.Features {
		fs.Float64Var(&opts.values[i], f.Flag, vec[i], f.Label)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	fs.Visit(func(fl *flag.Flag) { opts.set[fl.Name] = true })

	for i, f := range model.Features {
		v := opts.values[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("-%s: %v is not a finite number", f.Flag, v)
		}
		if f.Integer && v != math.Trunc(v) {
			return nil, fmt.Errorf("-%s: %v is not a whole number", f.Flag, v)
		}
	}
	return opts, nil
}

// reading builds the reading from the field flags over defaults.
func (o *Options) reading(defaults model.Reading) model.Reading {
	r := defaults
	for i, f := range model.Features {
		if o.set[f.Flag] {
			_ = r.Set(f.Column, o.values[i])
		}
	}
	return r
}

// Run parses flags and starts the application.
func Run() error {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) error {
	log.SetFlags(log.LstdFlags)

	// Field defaults depend on -config, which is not parsed yet; parse once
	// to find it, then again with the configured defaults.
	probe, err := parseFlags(args, model.DefaultReading(), io.Discard)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(stderr)
			return nil
		}
		printUsage(stderr)
		return err
	}
	if probe.ShowVersion {
		fmt.Fprintf(stdout, "sensorguard v%s\n", Version)
		return nil
	}

	cfg, savePath, err := loadConfig(probe.ConfigPath)
	if err != nil {
		return err
	}
	// saved defaults go back to the file without env and flag overrides
	fileCfg := cfg
	cfg.ApplyEnv()
	defaults := cfg.DefaultReading()

	opts, err := parseFlags(args, defaults, stderr)
	if err != nil {
		return err
	}
	if opts.ModelDir != "" {
		cfg.ModelDir = opts.ModelDir
	}
	if opts.WebAddr != "" {
		cfg.WebAddr = opts.WebAddr
		opts.Serve = true
	}
	if opts.MetricsAddr != "" {
		cfg.Prometheus.Enabled = true
		cfg.Prometheus.Addr = opts.MetricsAddr
	}

	// The TUI owns the terminal, so logs go to a file or nowhere.
	if !opts.JSONMode && !opts.Serve {
		closeLog, err := redirectLog()
		if err != nil {
			return err
		}
		defer closeLog()
	}

	loaded, loadErr := engine.LoadModel(cfg.ModelDir, cfg.Artifacts)
	var ev engine.Evaluator
	if loadErr != nil {
		log.Printf("sensorguard: %v", loadErr)
	} else {
		ev = engine.NewEngine(loaded)
	}

	var metrics *engine.Metrics
	if cfg.Prometheus.Enabled {
		metrics = engine.NewMetrics(nil)
		if ev != nil {
			ev = engine.NewInstrumentedEvaluator(ev, metrics)
		}
	}

	switch {
	case opts.JSONMode:
		if loadErr != nil {
			return loadErr
		}
		return runJSON(stdout, ev, opts.reading(defaults))
	case opts.Serve:
		return runWeb(cfg, ev, loadErr, defaults, metrics)
	}

	if !stdinIsTerminal() {
		return errors.New("no terminal for the interactive form; use -json or -web ADDR")
	}
	if metrics != nil {
		stop := serveMetrics(cfg.Prometheus.Addr, metrics)
		defer stop()
	}
	m := ui.NewModel(ev, defaults, cfg.ModelDir, loadErr).WithConfig(fileCfg, savePath)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// loadConfig reads an explicit config file, or the default one when path is
// empty. An explicit file that fails to load is an error. savePath is where
// form defaults may be written back; it is empty when the default file
// exists but failed to parse.
func loadConfig(path string) (cfg config.Config, savePath string, err error) {
	if path == "" {
		var writable bool
		cfg, writable = config.Load()
		if writable {
			savePath = config.Path()
		}
		return cfg, savePath, nil
	}
	cfg, err = config.LoadFile(path)
	if err != nil {
		return cfg, "", fmt.Errorf("config: %w", err)
	}
	return cfg, path, nil
}

// redirectLog sends the standard logger to $SENSORGUARD_LOG, or discards it.
func redirectLog() (func(), error) {
	path := os.Getenv(EnvLogFile)
	if path == "" {
		log.SetOutput(io.Discard)
		return func() { log.SetOutput(os.Stderr) }, nil
	}
	f, err := tea.LogToFile(path, "")
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return func() {
		f.Close()
		log.SetOutput(os.Stderr)
	}, nil
}
