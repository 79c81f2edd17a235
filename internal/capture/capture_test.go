package capture

import (
	"errors"
	"sync"
	"testing"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/williampepple1/spa-monkey/internal/browser/browsertest"
	"github.com/williampepple1/spa-monkey/pkg/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memStore struct {
	mu      sync.Mutex
	console []models.ConsoleRecord
	errors  []models.ErrorRecord
}

func (s *memStore) AddConsole(rec models.ConsoleRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.console = append(s.console, rec)
}

func (s *memStore) AddError(rec models.ErrorRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, rec)
}

func newTestConsole() (*Console, *memStore, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	store := &memStore{}
	c := NewConsole(store, zap.New(core), []string{"Production environment detected"}, "https://app.test/")
	return c, store, logs
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "Navigating to: https://app.test/a", Format("Navigating to:", "https://app.test/a"))
	assert.Equal(t, `Final report: {"errors":2}`, Format("Final report:", map[string]int{"errors": 2}))
	assert.Equal(t, "Starting for 120 seconds", Format("Starting for", 120, "seconds"))
	assert.Equal(t, "boom true null", Format(errors.New("boom"), true, nil))
	assert.Equal(t, `[1,2]`, Format([]int{1, 2}))
	assert.Equal(t, "", Format())
}

func TestConsole_RecordsEveryLevel(t *testing.T) {
	c, store, logs := newTestConsole()

	c.Log("a")
	c.Info("b")
	c.Warn("c")
	c.Error("d")

	require.Len(t, store.console, 4)
	levels := []string{store.console[0].Level, store.console[1].Level, store.console[2].Level, store.console[3].Level}
	assert.Equal(t, []string{"log", "info", "warn", "error"}, levels)
	assert.Equal(t, "https://app.test/", store.console[0].URL)
	assert.Equal(t, 4, logs.Len())
}

func TestConsole_Suppression(t *testing.T) {
	c, store, logs := newTestConsole()

	c.Warn("Production environment detected, telemetry on")
	c.Log("kept")

	require.Len(t, store.console, 1)
	assert.Equal(t, "kept", store.console[0].Message)
	// The diagnostic channel still sees the suppressed call.
	assert.Equal(t, 1, logs.FilterMessage("Production environment detected, telemetry on").Len())
}

func TestConsole_Exception(t *testing.T) {
	c, store, _ := newTestConsole()
	c.SetURL("https://app.test/cart")

	c.Exception("Uncaught TypeError: x is undefined", models.SourceLocation{File: "app.js", Line: 3, Column: 7})

	require.Len(t, store.errors, 1)
	assert.Equal(t, "error", store.errors[0].Kind)
	assert.Equal(t, "https://app.test/cart", store.errors[0].URL)
	assert.Equal(t, int64(3), store.errors[0].Source.Line)
	require.Len(t, store.console, 1)
	assert.Equal(t, "Monkey Test Error: Uncaught TypeError: x is undefined", store.console[0].Message)
	assert.Equal(t, "error", store.console[0].Level)
}

func TestAttach_ConsoleEvents(t *testing.T) {
	c, store, _ := newTestConsole()
	p := browsertest.NewFakePage("https://app.test/")
	Attach(p, c)

	p.Emit(&runtime.EventConsoleAPICalled{
		Type: runtime.APITypeWarning,
		Args: []*runtime.RemoteObject{
			{Type: runtime.TypeString, Value: []byte(`"count"`)},
			{Type: runtime.TypeNumber, Value: []byte(`3`)},
			{Type: runtime.TypeObject, Description: "Object"},
			{Type: runtime.TypeNumber, UnserializableValue: "NaN"},
			{Type: runtime.TypeUndefined},
		},
	})
	p.Emit(&runtime.EventConsoleAPICalled{Type: runtime.APITypeDebug, Args: []*runtime.RemoteObject{{Type: runtime.TypeString, Value: []byte(`"ignored"`)}}})
	p.Emit(&runtime.EventConsoleAPICalled{Type: runtime.APITypeLog, Args: []*runtime.RemoteObject{{Type: runtime.TypeString, Value: []byte(`"Production environment detected"`)}}})

	require.Len(t, store.console, 1)
	assert.Equal(t, "warn", store.console[0].Level)
	assert.Equal(t, "count 3 Object NaN undefined", store.console[0].Message)
}

func TestAttach_Exceptions(t *testing.T) {
	c, store, _ := newTestConsole()
	p := browsertest.NewFakePage("https://app.test/")
	Attach(p, c)

	p.Emit(&page.EventFrameNavigated{Frame: &cdp.Frame{ID: "main", URL: "https://app.test/next"}})
	p.Emit(&page.EventFrameNavigated{Frame: &cdp.Frame{ID: "child", ParentID: "main", URL: "https://ads.test/frame"}})
	p.Emit(&runtime.EventExceptionThrown{ExceptionDetails: &runtime.ExceptionDetails{
		Text:         "Uncaught",
		URL:          "https://app.test/main.js",
		LineNumber:   9,
		ColumnNumber: 4,
		Exception:    &runtime.RemoteObject{Description: "TypeError: boom\n    at main.js:10:5"},
	}})
	p.Emit(&runtime.EventExceptionThrown{})

	require.Len(t, store.errors, 1)
	e := store.errors[0]
	assert.Equal(t, "Uncaught TypeError: boom", e.Message)
	assert.Equal(t, "https://app.test/next", e.URL)
	assert.Equal(t, models.SourceLocation{File: "https://app.test/main.js", Line: 10, Column: 5}, e.Source)
}

func TestRemoteString_ObjectByReference(t *testing.T) {
	obj := &runtime.RemoteObject{
		Type:        runtime.TypeObject,
		ClassName:   "Object",
		Description: "Object",
		ObjectID:    "1.2.3",
		Preview: &runtime.ObjectPreview{
			Type:        runtime.TypeObject,
			Description: "Object",
			Properties: []*runtime.PropertyPreview{
				{Name: "b", Type: runtime.TypeNumber, Value: "1"},
				{Name: "a", Type: runtime.TypeString, Value: `say "hi"`},
				{Name: "ok", Type: runtime.TypeBoolean, Value: "true"},
				{Name: "none", Type: runtime.TypeObject, Subtype: runtime.SubtypeNull, Value: "null"},
				{Name: "nan", Type: runtime.TypeNumber, Value: "NaN"},
				{Name: "fn", Type: runtime.TypeFunction, Value: ""},
				{Name: "list", Type: runtime.TypeObject, Subtype: runtime.SubtypeArray, Value: "Array(2)", ValuePreview: &runtime.ObjectPreview{
					Type:    runtime.TypeObject,
					Subtype: runtime.SubtypeArray,
					Properties: []*runtime.PropertyPreview{
						{Name: "0", Type: runtime.TypeNumber, Value: "1"},
						{Name: "1", Type: runtime.TypeUndefined, Value: "undefined"},
					},
				}},
				{Name: "deep", Type: runtime.TypeObject, Value: "Object"},
			},
		},
	}
	assert.Equal(t, `{"b":1,"a":"say \"hi\"","ok":true,"none":null,"nan":null,"list":[1,null],"deep":"Object"}`, remoteString(obj))

	arr := &runtime.RemoteObject{
		Type:        runtime.TypeObject,
		Subtype:     runtime.SubtypeArray,
		Description: "Array(2)",
		ObjectID:    "1.2.4",
		Preview: &runtime.ObjectPreview{
			Type:    runtime.TypeObject,
			Subtype: runtime.SubtypeArray,
			Properties: []*runtime.PropertyPreview{
				{Name: "0", Type: runtime.TypeString, Value: "x"},
				{Name: "1", Type: runtime.TypeNumber, Value: "2"},
			},
		},
	}
	assert.Equal(t, `["x",2]`, remoteString(arr))

	// Without a preview only the description is known.
	bare := &runtime.RemoteObject{Type: runtime.TypeObject, Description: "Object", ObjectID: "1.2.5"}
	assert.Equal(t, "Object", remoteString(bare))

	// Errors keep their message rather than the empty JSON object.
	errObj := &runtime.RemoteObject{
		Type: runtime.TypeObject, Subtype: runtime.SubtypeError, Description: "TypeError: x is undefined",
		Preview: &runtime.ObjectPreview{Type: runtime.TypeObject, Subtype: runtime.SubtypeError},
	}
	assert.Equal(t, "TypeError: x is undefined", remoteString(errObj))
}

func TestAttach_ObjectArguments(t *testing.T) {
	c, store, _ := newTestConsole()
	p := browsertest.NewFakePage("https://app.test/")
	Attach(p, c)

	p.Emit(&runtime.EventConsoleAPICalled{Type: runtime.APITypeLog, Args: []*runtime.RemoteObject{
		{Type: runtime.TypeString, Value: []byte(`"state"`)},
		{Type: runtime.TypeObject, ClassName: "Object", Description: "Object", ObjectID: "7.1.1", Preview: &runtime.ObjectPreview{
			Type:       runtime.TypeObject,
			Properties: []*runtime.PropertyPreview{{Name: "a", Type: runtime.TypeNumber, Value: "1"}},
		}},
	}})

	require.Len(t, store.console, 1)
	assert.Equal(t, `state {"a":1}`, store.console[0].Message)
}
