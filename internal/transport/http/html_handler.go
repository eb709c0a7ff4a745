package http

import (
	"bytes"
	_ "embed"
	"html/template"
	"log/slog"
	"net/http"

	"flowpulse/internal/config"
	"flowpulse/pkg/contracts/domain"
)

//go:embed web/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// PageData fills the dashboard page template
type PageData struct {
	Title         string
	Tagline       string
	Credit        string
	Version       string
	Periods       []string
	DefaultPeriod string
}

// NewPageData builds the page data from the configured defaults
func NewPageData(defaultPeriod domain.Period) PageData {
	periods := make([]string, 0, len(domain.Periods()))
	for _, p := range domain.Periods() {
		periods = append(periods, p.Label)
	}
	return PageData{
		Title:         config.AppTitle,
		Tagline:       config.AppTagline,
		Credit:        config.AppCredit,
		Version:       config.AppVersion,
		Periods:       periods,
		DefaultPeriod: defaultPeriod.Label,
	}
}

// ServeIndex serves the single-page dashboard. The page is rendered once;
// every request gets the same bytes.
func ServeIndex(data PageData, logger *slog.Logger) http.HandlerFunc {
	var buf bytes.Buffer
	renderErr := indexTemplate.Execute(&buf, data)
	page := buf.Bytes()

	return func(w http.ResponseWriter, r *http.Request) {
		if renderErr != nil {
			logger.ErrorContext(r.Context(), "index page render failed", slog.String("error", renderErr.Error()))
			http.Error(w, "Error rendering page", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(page)
	}
}
