package models

import (
	"time"
)

// Result represents the outcome of one monkey-test session against a target
type Result struct {
	Target      string        `json:"target"`
	SessionID   string        `json:"session_id,omitempty"`
	ReportPath  string        `json:"report_path,omitempty"`
	JSONPath    string        `json:"json_path,omitempty"`
	Err         string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
	Errors      int           `json:"errors"`
	ConsoleLogs int           `json:"console_logs"`
	Visited     int           `json:"visited"`
	Screenshots int           `json:"screenshots"`
	Timestamp   time.Time     `json:"timestamp"`
}

// SourceLocation points at the script position an uncaught error originated from
type SourceLocation struct {
	File   string `json:"file,omitempty"`
	Line   int64  `json:"line"`
	Column int64  `json:"column"`
}

// ErrorRecord is one uncaught page error
type ErrorRecord struct {
	Kind    string         `json:"type"`
	Message string         `json:"message"`
	Source  SourceLocation `json:"source"`
	Time    time.Time      `json:"time"`
	URL     string         `json:"url"`
}

// ConsoleRecord is one console call observed on the page
type ConsoleRecord struct {
	Level   string    `json:"type"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
	URL     string    `json:"url"`
}

// Screenshot is one full-page capture
type Screenshot struct {
	Time time.Time `json:"time"`
	URL  string    `json:"url"`
	PNG  []byte    `json:"png,omitempty"`
}

// SessionReport accumulates everything observed during one session.
// Visited preserves insertion order and never holds duplicates.
type SessionReport struct {
	ID          string          `json:"id"`
	StartURL    string          `json:"start_url"`
	Origin      string          `json:"origin"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
	Errors      []ErrorRecord   `json:"errors"`
	Console     []ConsoleRecord `json:"console_logs"`
	Visited     []string        `json:"visited_urls"`
	Screenshots []Screenshot    `json:"screenshots"`
}

// Summarize converts a finished report into a Result row
func (r *SessionReport) Summarize(target string) Result {
	return Result{
		Target:      target,
		SessionID:   r.ID,
		Duration:    r.FinishedAt.Sub(r.StartedAt),
		Errors:      len(r.Errors),
		ConsoleLogs: len(r.Console),
		Visited:     len(r.Visited),
		Screenshots: len(r.Screenshots),
		Timestamp:   r.FinishedAt,
	}
}
