package config

import "time"

// Horde engines
const (
	// EngineGremlins unleashes gremlins.js inside the page
	EngineGremlins = "gremlins"
	// EngineNative drives the species from Go over CDP
	EngineNative = "native"
)

// Session timing defaults
const (
	DefaultDuration           = 2 * time.Minute
	DefaultScreenshotInterval = 15 * time.Second
	DefaultNavigateInterval   = 20 * time.Second
	DefaultInteractInterval   = 3 * time.Second
	DefaultHordeDelay         = 100 * time.Millisecond
	DefaultFormWait           = 5 * time.Second
	DefaultFormPoll           = 100 * time.Millisecond
)

// Placeholder values written into form inputs
const (
	DefaultEmail       = "test@example.com"
	DefaultPassword    = "Password123"
	DefaultPlaceholder = "Test"
)

// DefaultSuppression is dropped from the console log when a message contains it
const DefaultSuppression = "Production environment detected"

// DefaultReportPrefix names the generated PDF
const DefaultReportPrefix = "SPA_Dynamic_MonkeyTestReport"

// DefaultSpecies lists the horde species in the order they are created
var DefaultSpecies = []string{"clicker", "formFiller", "typer", "scroller"}

// DefaultScripts are injected into every document before the horde starts
var DefaultScripts = []string{
	"https://unpkg.com/gremlins.js",
}

// DefaultUserAgents provides a list of common user agents
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36",
}
