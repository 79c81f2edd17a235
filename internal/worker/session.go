package worker

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/williampepple1/spa-monkey/internal/browser"
	"github.com/williampepple1/spa-monkey/internal/config"
	"github.com/williampepple1/spa-monkey/internal/io"
	"github.com/williampepple1/spa-monkey/internal/loader"
	"github.com/williampepple1/spa-monkey/internal/report"
	"github.com/williampepple1/spa-monkey/internal/session"
	"github.com/williampepple1/spa-monkey/pkg/models"
	"go.uber.org/zap"
)

// OpenFunc opens a fresh tab and returns it with its close function
type OpenFunc func() (browser.Page, func(), error)

// SessionRunner runs a full session per target: fuzzing, the PDF report and
// the optional JSON dump.
type SessionRunner struct {
	Config   *config.AppConfig
	Open     OpenFunc
	Loader   *loader.Loader
	Renderer *report.Renderer
	Writer   *io.ResultWriter

	logger *zap.Logger
}

// NewSessionRunner wires a runner from the app config
func NewSessionRunner(cfg *config.AppConfig, open OpenFunc, ld *loader.Loader, logger *zap.Logger) *SessionRunner {
	return &SessionRunner{
		Config:   cfg,
		Open:     open,
		Loader:   ld,
		Renderer: report.NewRenderer(&cfg.Report, logger),
		Writer:   io.NewResultWriter(&cfg.IO),
		logger:   logger,
	}
}

// Run implements RunFunc
func (r *SessionRunner) Run(ctx context.Context, target string) models.Result {
	log := r.logger.With(zap.String("target", target))

	page, closePage, err := r.Open()
	if err != nil {
		log.Error("Could not open a browser tab.", zap.Error(err))
		return models.Result{Target: target, Err: err.Error(), Timestamp: time.Now()}
	}
	defer closePage()

	s := session.New(r.Config, page, r.Loader, r.logger)
	rep, runErr := s.Run(ctx, target)
	res := rep.Summarize(target)
	if runErr != nil {
		log.Warn("Session ended with an error.", zap.Error(runErr))
		res.Err = runErr.Error()
	}

	// The report is written even for failed sessions.
	path, err := r.Renderer.Render(rep)
	if err != nil {
		log.Error("Could not write the PDF report.", zap.Error(err))
		if res.Err == "" {
			res.Err = err.Error()
		}
		return res
	}
	res.ReportPath = path
	log.Info("Monkey Test Finished! PDF report downloaded.", zap.String("report", path))

	if r.Config.Report.JSON {
		jsonPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
		if err := r.Writer.SaveReport(jsonPath, rep); err != nil {
			log.Error("Could not write the JSON report.", zap.Error(err))
			if res.Err == "" {
				res.Err = err.Error()
			}
			return res
		}
		res.JSONPath = jsonPath
	}
	return res
}
