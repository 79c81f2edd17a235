package io

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/williampepple1/spa-monkey/internal/config"
	"github.com/williampepple1/spa-monkey/pkg/models"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "targets.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadFromFile(t *testing.T) {
	path := writeFile(t, "# staging apps\nhttps://a.test/\n\n   https://b.test/app  \n#https://skip.test/\n")
	r := NewURLReader(&config.IOConfig{})

	urls, err := r.ReadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.test/", "https://b.test/app"}, urls)

	_, err = r.ReadFromFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestGetURLs_Precedence(t *testing.T) {
	path := writeFile(t, "https://file.test/\n")

	tests := []struct {
		name string
		cfg  config.IOConfig
		args []string
		want []string
	}{
		{"args first", config.IOConfig{InputFile: path, Targets: []string{"https://cfg.test/"}}, []string{"https://arg.test/"}, []string{"https://arg.test/"}},
		{"file before config", config.IOConfig{InputFile: path, Targets: []string{"https://cfg.test/"}}, nil, []string{"https://file.test/"}},
		{"config targets", config.IOConfig{Targets: []string{"https://cfg.test/"}}, nil, []string{"https://cfg.test/"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urls, err := NewURLReader(&tt.cfg).GetURLs(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, urls)
		})
	}
}

func TestGetURLs_Errors(t *testing.T) {
	_, err := NewURLReader(&config.IOConfig{}).GetURLs(nil)
	assert.ErrorIs(t, err, ErrNoTargets)

	_, err = NewURLReader(&config.IOConfig{}).GetURLs([]string{"/relative"})
	assert.ErrorContains(t, err, "absolute http(s) URL")

	_, err = NewURLReader(&config.IOConfig{}).GetURLs([]string{"ftp://files.test/"})
	assert.Error(t, err)

	_, err = NewURLReader(&config.IOConfig{InputFile: filepath.Join(t.TempDir(), "none")}).GetURLs(nil)
	assert.ErrorContains(t, err, "read targets")
}

func sampleResults() []models.Result {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []models.Result{
		{Target: "https://a.test/", SessionID: "s1", ReportPath: "r1.pdf", Duration: 2 * time.Minute, Errors: 2, ConsoleLogs: 10, Visited: 3, Screenshots: 8, Timestamp: at},
		{Target: "https://b.test/", Err: "navigate to https://b.test/: net::ERR_NAME_NOT_RESOLVED", Timestamp: at},
	}
}

func TestSaveToFile_JSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.json")
	w := NewResultWriter(&config.IOConfig{OutputFile: out, OutputFormat: "json"})
	require.NoError(t, w.SaveToFile(sampleResults()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var got []models.Result
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, sampleResults(), got)
}

func TestSaveToFile_CSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.csv")
	w := NewResultWriter(&config.IOConfig{OutputFile: out, OutputFormat: "csv"})
	require.NoError(t, w.SaveToFile(sampleResults()))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"https://a.test/", "s1", "r1.pdf", "", "", "2m0s", "2", "10", "3", "8", "2024-05-01T12:00:00.000Z"}, rows[1])
	assert.Contains(t, rows[2][4], "ERR_NAME_NOT_RESOLVED")
}

func TestSaveToFile_UnknownFormat(t *testing.T) {
	w := NewResultWriter(&config.IOConfig{OutputFile: filepath.Join(t.TempDir(), "x"), OutputFormat: "xml"})
	assert.ErrorContains(t, w.SaveToFile(nil), "unsupported output format: xml")
}

func TestSaveReport_DropsImages(t *testing.T) {
	report := &models.SessionReport{
		ID:       "s1",
		StartURL: "https://a.test/",
		Visited:  []string{"https://a.test/"},
		Screenshots: []models.Screenshot{
			{URL: "https://a.test/", PNG: []byte{0x89, 'P', 'N', 'G'}},
		},
	}
	out := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, NewResultWriter(&config.IOConfig{}).SaveReport(out, report))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"png"`)
	assert.Contains(t, string(data), `"visited_urls"`)
	assert.NotNil(t, report.Screenshots[0].PNG, "the caller's report is untouched")
}
