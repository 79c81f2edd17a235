package capture

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/williampepple1/spa-monkey/internal/browser"
	"github.com/williampepple1/spa-monkey/pkg/models"
)

// consoleLevels maps the console methods that are recorded; every other
// console API (debug, table, trace...) is ignored.
var consoleLevels = map[runtime.APIType]string{
	runtime.APITypeLog:     LevelLog,
	runtime.APITypeInfo:    LevelInfo,
	runtime.APITypeWarning: LevelWarn,
	runtime.APITypeError:   LevelError,
}

// Attach subscribes console to the page's console, exception and
// navigation events. The subscription lives as long as the tab.
func Attach(p browser.Page, console *Console) {
	p.Listen(func(ev interface{}) {
		switch e := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			HandleConsoleAPICalled(console, e)
		case *runtime.EventExceptionThrown:
			HandleExceptionThrown(console, e)
		case *page.EventFrameNavigated:
			if e.Frame != nil && e.Frame.ParentID == "" {
				console.SetURL(e.Frame.URL)
			}
		}
	})
}

// HandleConsoleAPICalled records a page console call
func HandleConsoleAPICalled(console *Console, e *runtime.EventConsoleAPICalled) {
	level, ok := consoleLevels[e.Type]
	if !ok {
		return
	}
	parts := make([]string, 0, len(e.Args))
	for _, arg := range e.Args {
		parts = append(parts, remoteString(arg))
	}
	console.Record(level, strings.Join(parts, " "))
}

// HandleExceptionThrown records an uncaught page error
func HandleExceptionThrown(console *Console, e *runtime.EventExceptionThrown) {
	d := e.ExceptionDetails
	if d == nil {
		return
	}
	message := d.Text
	if d.Exception != nil && d.Exception.Description != "" {
		// The description carries the stack after the first line.
		desc := strings.SplitN(d.Exception.Description, "\n", 2)[0]
		if message == "" {
			message = desc
		} else {
			message = message + " " + desc
		}
	}
	console.Exception(message, models.SourceLocation{
		File:   d.URL,
		Line:   d.LineNumber + 1,
		Column: d.ColumnNumber + 1,
	})
}

func remoteString(arg *runtime.RemoteObject) string {
	if arg == nil {
		return "undefined"
	}
	if arg.UnserializableValue != "" {
		return string(arg.UnserializableValue)
	}
	if len(arg.Value) > 0 {
		var s string
		if json.Unmarshal(arg.Value, &s) == nil {
			return s
		}
		// Numbers, booleans, null and by-value objects are already JSON text.
		return string(arg.Value)
	}
	if arg.Type == runtime.TypeUndefined {
		return "undefined"
	}
	if arg.Type == runtime.TypeObject && arg.Preview != nil && arg.Subtype != runtime.SubtypeError {
		return previewJSON(arg.Preview)
	}
	if arg.Description != "" {
		return arg.Description
	}
	return fmt.Sprintf("[%s]", arg.Type)
}

// previewJSON renders an object passed by reference as JSON text, following
// JSON.stringify: properties keep their order, functions and undefined are
// left out of objects and become null in arrays, non-finite numbers become
// null. Chrome truncates large previews and nested objects past the first
// level only carry their description, which is emitted as a string.
func previewJSON(p *runtime.ObjectPreview) string {
	var b strings.Builder
	writePreview(&b, p)
	return b.String()
}

func writePreview(b *strings.Builder, p *runtime.ObjectPreview) {
	array := p.Subtype == runtime.SubtypeArray
	if array {
		b.WriteByte('[')
	} else {
		b.WriteByte('{')
	}
	n := 0
	for _, prop := range p.Properties {
		value, ok := propertyJSON(prop)
		if !ok {
			if !array {
				continue
			}
			value = "null"
		}
		if n > 0 {
			b.WriteByte(',')
		}
		n++
		if !array {
			b.WriteString(quote(prop.Name))
			b.WriteByte(':')
		}
		b.WriteString(value)
	}
	if array {
		b.WriteByte(']')
	} else {
		b.WriteByte('}')
	}
}

// propertyJSON returns the JSON text of one previewed property, or false
// when JSON.stringify would skip it.
func propertyJSON(prop *runtime.PropertyPreview) (string, bool) {
	switch prop.Type {
	case runtime.TypeString:
		return quote(prop.Value), true
	case runtime.TypeNumber:
		if _, err := strconv.ParseFloat(prop.Value, 64); err != nil {
			// NaN, Infinity, -Infinity
			return "null", true
		}
		return prop.Value, true
	case runtime.TypeBoolean:
		return prop.Value, true
	case runtime.TypeBigint:
		return quote(prop.Value), true
	case runtime.TypeObject:
		if prop.Subtype == runtime.SubtypeNull {
			return "null", true
		}
		if prop.ValuePreview != nil {
			var b strings.Builder
			writePreview(&b, prop.ValuePreview)
			return b.String(), true
		}
		return quote(prop.Value), true
	default:
		// function, undefined, symbol, accessor
		return "", false
	}
}

func quote(s string) string {
	data, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(data)
}
