package report

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/williampepple1/spa-monkey/internal/config"
	"github.com/williampepple1/spa-monkey/pkg/models"
	"go.uber.org/zap"
)

// Layout constants in millimetres on an A4 portrait page.
const (
	marginX      = 10.0
	topY         = 10.0
	lineHeight   = 6.0
	imageWidth   = 180.0
	imageHeight  = 100.0
	imageAdvance = 105.0
)

// isoLayout matches the millisecond UTC timestamps used throughout the report.
const isoLayout = "2006-01-02T15:04:05.000Z"

const maxNameAttempts = 1000

type elementKind int

const (
	kindPage elementKind = iota
	kindText
	kindImage
)

// element is one drawing instruction. Layout produces them, draw replays
// them onto a PDF.
type element struct {
	Kind     elementKind
	Text     string
	FontSize float64
	X, Y     float64
	W, H     float64
	PNG      []byte
}

// Renderer turns a finished SessionReport into a paginated PDF
type Renderer struct {
	Config *config.ReportConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewRenderer creates a PDF renderer
func NewRenderer(cfg *config.ReportConfig, logger *zap.Logger) *Renderer {
	return &Renderer{
		Config: cfg,
		logger: logger.Named("renderer"),
		now:    time.Now,
	}
}

// FileName returns the report file name for a report generated at t
func (r *Renderer) FileName(t time.Time) string {
	return fmt.Sprintf("%s_%d.pdf", r.Config.Prefix, t.UnixMilli())
}

// Render writes the report PDF into the output directory and returns its path
func (r *Renderer) Render(report *models.SessionReport) (string, error) {
	dir := r.Config.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	f, path, err := r.create(dir)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	if err := r.Write(f, report); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}

	r.logger.Info("PDF report generated.", zap.String("path", path))
	return path, nil
}

// create opens a new report file. Concurrent sessions finishing within the
// same millisecond move on to the next free millisecond.
func (r *Renderer) create(dir string) (*os.File, string, error) {
	t := r.now()
	for i := 0; ; i++ {
		path := filepath.Join(dir, r.FileName(t))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, path, nil
		}
		if !os.IsExist(err) || i >= maxNameAttempts {
			return nil, "", err
		}
		t = t.Add(time.Millisecond)
	}
}

// Write renders the report PDF to w
func (r *Renderer) Write(w io.Writer, report *models.SessionReport) error {
	pdf := r.draw(r.layout(report))
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("encode pdf: %w", err)
	}
	return nil
}

func (r *Renderer) textBreak() float64 {
	if r.Config.PageBreakText > 0 {
		return r.Config.PageBreakText
	}
	return 270
}

func (r *Renderer) imageBreak() float64 {
	if r.Config.PageBreakImage > 0 {
		return r.Config.PageBreakImage
	}
	return 250
}

func (r *Renderer) layout(report *models.SessionReport) []element {
	var els []element
	page := func() { els = append(els, element{Kind: kindPage}) }
	text := func(size, y float64, s string) {
		els = append(els, element{Kind: kindText, Text: s, FontSize: size, X: marginX, Y: y})
	}

	generated := report.FinishedAt
	if generated.IsZero() {
		generated = r.now()
	}

	page()
	text(16, 10, "Monkey Test Report")
	text(12, 20, "Test URL: "+report.Origin)
	text(12, 28, "Date: "+generated.Local().Format("2006-01-02 15:04:05 MST"))
	y := 38.0

	text(14, y, "JavaScript Errors:")
	y += lineHeight
	if len(report.Errors) == 0 {
		text(10, y, "No JS errors captured.")
	}
	for i, e := range report.Errors {
		if y > r.textBreak() {
			page()
			y = topY
		}
		text(10, y, fmt.Sprintf("%d. %s (%s) at %s", i+1, e.Message, e.URL, e.Time.UTC().Format(isoLayout)))
		y += lineHeight
	}

	page()
	y = topY
	text(14, y, "Console Logs:")
	y += lineHeight
	if len(report.Console) == 0 {
		text(10, y, "No console logs captured.")
	}
	for i, c := range report.Console {
		if y > r.textBreak() {
			page()
			y = topY
		}
		text(10, y, fmt.Sprintf("%d. [%s] %s (%s) at %s", i+1, c.Level, c.Message, c.URL, c.Time.UTC().Format(isoLayout)))
		y += lineHeight
	}

	page()
	y = topY
	text(14, y, "Screenshots:")
	y += lineHeight
	for _, s := range report.Screenshots {
		if y > r.imageBreak() {
			page()
			y = topY
		}
		text(10, y, fmt.Sprintf("Time: %s URL: %s", s.Time.UTC().Format(isoLayout), s.URL))
		y += lineHeight
		els = append(els, element{Kind: kindImage, X: marginX, Y: y, W: imageWidth, H: imageHeight, PNG: s.PNG})
		y += imageAdvance
	}

	return els
}

func (r *Renderer) draw(els []element) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	images := 0
	for _, el := range els {
		switch el.Kind {
		case kindPage:
			pdf.AddPage()
		case kindText:
			pdf.SetFont("Helvetica", "", el.FontSize)
			pdf.Text(el.X, el.Y, tr(el.Text))
		case kindImage:
			if _, _, err := image.DecodeConfig(bytes.NewReader(el.PNG)); err != nil {
				r.logger.Warn("Skipping undecodable screenshot.", zap.Error(err))
				pdf.SetFont("Helvetica", "", 10)
				pdf.Text(el.X, el.Y+lineHeight, "(screenshot unavailable)")
				continue
			}
			images++
			name := fmt.Sprintf("screenshot-%d", images)
			opts := fpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(el.PNG))
			pdf.ImageOptions(name, el.X, el.Y, el.W, el.H, false, opts, 0, "")
		}
	}
	return pdf
}
