package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ftahirops/sensorguard/engine"
	"github.com/ftahirops/sensorguard/model"
	"github.com/ftahirops/sensorguard/util"
	"github.com/gin-gonic/gin"
)

const (
	pageTitle    = "Industrial Sensor Anomaly Detection (Manual Input)"
	pageSubtitle = "Enter sensor values to detect whether the machine is behaving abnormally."
)

// columns groups the form fields the way the page lays them out.
var columns = [][]int{{0, 1, 2}, {3, 4, 5}, {6, 7}}

// Options configures the web page.
type Options struct {
	Evaluator engine.Evaluator
	// LoadErr puts every page into the fatal model-not-found state.
	LoadErr  error
	ModelDir string
	Defaults model.Reading
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
}

// Server serves the form-and-result page.
type Server struct {
	opts Options
}

// NewServer creates a page server.
func NewServer(opts Options) *Server {
	if opts.Evaluator == nil && opts.LoadErr == nil {
		opts.LoadErr = engine.ErrModelNotFound
	}
	return &Server{opts: opts}
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.SetHTMLTemplate(pageTemplate)

	r.GET("/", s.Index)
	r.POST("/", s.Evaluate)
	r.GET("/healthz", s.Health)
	if s.opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.opts.Metrics))
	}
	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("sensorguard: serving form on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Index renders the form with default values.
func (s *Server) Index(c *gin.Context) {
	if s.opts.LoadErr != nil {
		s.renderFatal(c)
		return
	}
	c.HTML(http.StatusOK, "page", s.page(formValues(s.opts.Defaults), nil))
}

// Evaluate scores the submitted reading and re-renders the form.
func (s *Server) Evaluate(c *gin.Context) {
	if s.opts.LoadErr != nil {
		s.renderFatal(c)
		return
	}

	values := make([]string, model.NumFeatures)
	errs := make([]string, model.NumFeatures)
	var r model.Reading
	ok := true
	for i, f := range model.Features {
		values[i] = c.PostForm(f.Flag)
		v, err := util.ParseNumber(values[i], f.Integer)
		if err != nil {
			errs[i] = err.Error()
			ok = false
			continue
		}
		_ = r.Set(f.Column, v)
	}
	if !ok {
		c.HTML(http.StatusBadRequest, "page", s.page(values, errs))
		return
	}

	data := s.page(values, nil)
	ev, err := s.opts.Evaluator.Evaluate(r)
	if err != nil {
		log.Printf("sensorguard: evaluation failed: %v", err)
		data.Error = err.Error()
		c.HTML(http.StatusInternalServerError, "page", data)
		return
	}
	log.Printf("sensorguard: evaluation %s anomalous=%v score=%.3f", ev.ID, ev.Anomalous, ev.Score)
	data.Result = resultFor(ev)
	c.HTML(http.StatusOK, "page", data)
}

// Health reports whether a model is loaded.
func (s *Server) Health(c *gin.Context) {
	if s.opts.LoadErr != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": s.opts.LoadErr.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"model":    s.opts.Evaluator.Info().Kind.String(),
		"features": model.FeatureColumns(),
	})
}

func (s *Server) renderFatal(c *gin.Context) {
	c.HTML(http.StatusServiceUnavailable, "page", pageData{
		Title:    pageTitle,
		Subtitle: pageSubtitle,
		Fatal:    fmt.Sprintf("Model file not found. Place the model artifact files in %s.", s.opts.ModelDir),
	})
}

func (s *Server) page(values, errs []string) pageData {
	info := s.opts.Evaluator.Info()
	data := pageData{
		Title:    pageTitle,
		Subtitle: pageSubtitle,
		Model:    fmt.Sprintf("Model: %s (%d trees) from %s", info.Kind, info.Trees, info.Dir),
	}
	for _, idxs := range columns {
		col := make([]fieldView, 0, len(idxs))
		for _, i := range idxs {
			f := model.Features[i]
			fv := fieldView{Name: f.Flag, Label: f.Label, Value: values[i], Step: "any"}
			if f.Integer {
				fv.Step = "1"
			}
			if errs != nil {
				fv.Error = errs[i]
			}
			col = append(col, fv)
		}
		data.Columns = append(data.Columns, col)
	}
	return data
}

func formValues(r model.Reading) []string {
	v := r.Vector()
	out := make([]string, len(v))
	for i, f := range model.Features {
		out[i] = util.FormatNumber(v[i], f.Integer)
	}
	return out
}

func resultFor(ev model.Evaluation) *resultView {
	res := &resultView{Anomalous: ev.Anomalous, Message: ev.Message()}
	v := ev.Reading.Vector()
	for i, f := range model.Features {
		val := humanize.Commaf(v[i])
		if f.Integer {
			val = humanize.Comma(int64(v[i]))
		}
		res.Details = append(res.Details, [2]string{f.Label, val})
	}
	return res
}
