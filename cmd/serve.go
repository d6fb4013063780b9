package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ftahirops/sensorguard/config"
	"github.com/ftahirops/sensorguard/engine"
	"github.com/ftahirops/sensorguard/model"
	"github.com/ftahirops/sensorguard/web"
)

// jsonReport is the -json output.
type jsonReport struct {
	Message string           `json:"message"`
	Model   engine.ModelInfo `json:"model"`
	model.Evaluation
}

// runJSON scores one reading and writes it as indented JSON.
func runJSON(w io.Writer, ev engine.Evaluator, r model.Reading) error {
	res, err := ev.Evaluate(r)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Message:    res.Message(),
		Model:      ev.Info(),
		Evaluation: res,
	})
}

// runWeb serves the web form until SIGINT or SIGTERM.
func runWeb(cfg config.Config, ev engine.Evaluator, loadErr error, defaults model.Reading, metrics *engine.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := web.Options{
		Evaluator: ev,
		LoadErr:   loadErr,
		ModelDir:  cfg.ModelDir,
		Defaults:  defaults,
	}
	if metrics != nil {
		opts.Metrics = metrics.Handler()
	}
	return web.NewServer(opts).Run(ctx, cfg.WebAddr)
}

// serveMetrics exposes the metrics registry on addr in the background.
// The returned func shuts the listener down.
func serveMetrics(addr string, metrics *engine.Metrics) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("sensorguard: metrics server: %v", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// stdinIsTerminal reports whether the TUI can take over the terminal.
func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
