package capture

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/williampepple1/spa-monkey/pkg/models"
	"go.uber.org/zap"
)

// Console levels recorded in the report
const (
	LevelLog   = "log"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Store receives the records produced by the capture layer
type Store interface {
	AddConsole(rec models.ConsoleRecord)
	AddError(rec models.ErrorRecord)
}

// Console is the logging sink handed to every component of a session.
// Each call is stringified, recorded in the report unless it contains a
// suppressed substring, and always forwarded to the diagnostic logger.
type Console struct {
	store    Store
	logger   *zap.Logger
	suppress []string
	url      atomic.Value
}

// NewConsole creates a sink recording into store
func NewConsole(store Store, logger *zap.Logger, suppress []string, startURL string) *Console {
	c := &Console{
		store:    store,
		logger:   logger.Named("console"),
		suppress: suppress,
	}
	c.url.Store(startURL)
	return c
}

// URL returns the page URL records are attributed to
func (c *Console) URL() string {
	return c.url.Load().(string)
}

// SetURL updates the page URL after a navigation
func (c *Console) SetURL(u string) {
	c.url.Store(u)
}

func (c *Console) Log(args ...interface{})   { c.Record(LevelLog, Format(args...)) }
func (c *Console) Info(args ...interface{})  { c.Record(LevelInfo, Format(args...)) }
func (c *Console) Warn(args ...interface{})  { c.Record(LevelWarn, Format(args...)) }
func (c *Console) Error(args ...interface{}) { c.Record(LevelError, Format(args...)) }

// Suppressed reports whether message matches a suppression substring
func (c *Console) Suppressed(message string) bool {
	for _, s := range c.suppress {
		if s != "" && strings.Contains(message, s) {
			return true
		}
	}
	return false
}

// Record stores one already formatted console message at level.
func (c *Console) Record(level, message string) {
	url := c.URL()
	c.forward(level, message, url)
	if c.Suppressed(message) {
		return
	}
	c.store.AddConsole(models.ConsoleRecord{Level: level, Message: message, URL: url})
}

// Exception records an uncaught page error and reports it on the console.
func (c *Console) Exception(message string, src models.SourceLocation) {
	c.store.AddError(models.ErrorRecord{
		Kind:    "error",
		Message: message,
		Source:  src,
		URL:     c.URL(),
	})
	c.Error("Monkey Test Error:", message)
}

func (c *Console) forward(level, message, url string) {
	fields := []zap.Field{zap.String("url", url)}
	switch level {
	case LevelError:
		c.logger.Error(message, fields...)
	case LevelWarn:
		c.logger.Warn(message, fields...)
	case LevelInfo:
		c.logger.Info(message, fields...)
	default:
		c.logger.Debug(message, fields...)
	}
}

// Format stringifies args and joins them with single spaces. Strings are
// kept verbatim; maps, slices and structs are rendered as JSON.
func Format(args ...interface{}) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, stringify(a))
	}
	return strings.Join(parts, " ")
}

func stringify(a interface{}) string {
	switch v := a.(type) {
	case nil:
		return "null"
	case string:
		return v
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v)
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Sprintf("%v", a)
	}
	return string(data)
}
