package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/williampepple1/spa-monkey/internal/config"
	"github.com/williampepple1/spa-monkey/pkg/models"
)

// ResultWriter writes run summaries and raw session reports
type ResultWriter struct {
	Config *config.IOConfig
}

// NewResultWriter creates a new result writer
func NewResultWriter(config *config.IOConfig) *ResultWriter {
	return &ResultWriter{
		Config: config,
	}
}

var csvHeader = []string{"target", "session_id", "report_path", "json_path", "error", "duration", "errors", "console_logs", "visited", "screenshots", "timestamp"}

// SaveToFile saves the results to a file in the specified format
func (w *ResultWriter) SaveToFile(results []models.Result) error {
	switch w.Config.OutputFormat {
	case "json":
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(w.Config.OutputFile, data, 0644)

	case "csv":
		return w.saveCSV(results)

	default:
		return fmt.Errorf("unsupported output format: %s", w.Config.OutputFormat)
	}
}

func (w *ResultWriter) saveCSV(results []models.Result) error {
	file, err := os.Create(w.Config.OutputFile)
	if err != nil {
		return err
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.Target,
			r.SessionID,
			r.ReportPath,
			r.JSONPath,
			r.Err,
			r.Duration.String(),
			strconv.Itoa(r.Errors),
			strconv.Itoa(r.ConsoleLogs),
			strconv.Itoa(r.Visited),
			strconv.Itoa(r.Screenshots),
			r.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return file.Close()
}

// SaveReport dumps a session report as JSON. Screenshot images are left
// out; they only appear in the PDF.
func (w *ResultWriter) SaveReport(path string, report *models.SessionReport) error {
	dump := *report
	dump.Screenshots = make([]models.Screenshot, len(report.Screenshots))
	for i, shot := range report.Screenshots {
		shot.PNG = nil
		dump.Screenshots[i] = shot
	}

	data, err := json.MarshalIndent(&dump, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
