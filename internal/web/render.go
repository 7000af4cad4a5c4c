package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mwangip/reservation-service/internal/domains/customers"
	"github.com/mwangip/reservation-service/internal/domains/reservations"
)

//go:embed templates/*.html
var templateFS embed.FS

// ErrBadRequest is returned when a mutating route receives no body.
var ErrBadRequest = errors.New("bad request")

// Renderer holds one parsed template per page, each combined with the shared
// layout.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template)
	for _, entry := range entries {
		name := entry.Name()
		if name == "layout.html" {
			continue
		}
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages}, nil
}

func (re *Renderer) Render(w http.ResponseWriter, status int, page string, data any) {
	t, ok := re.pages[page]
	if !ok {
		log.Error().Str("page", page).Msg("unknown template")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		log.Error().Err(err).Str("page", page).Msg("failed to render template")
	}
}

type errorPage struct {
	Status  int
	Message string
}

// RenderError translates the error taxonomy into a status and an error page:
// NotFound lookups map to 404, a rejected body to 400, everything else to 500.
func (re *Renderer) RenderError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, customers.ErrNotFound), errors.Is(err, reservations.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrBadRequest):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}

	re.Render(w, status, "error.html", errorPage{Status: status, Message: err.Error()})
}
