package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

var scalarTemplate = template.Must(template.ParseFS(templatesFS, "templates/scalar.html"))

// DefaultDocsTitle is the page title of the documentation UI.
const DefaultDocsTitle = "Regions API Documentation"

// DocsHandler handles API documentation endpoints.
type DocsHandler struct {
	title       string
	specURL     string
	specContent []byte
}

// NewDocsHandler creates a DocsHandler serving specContent. The UI loads the
// document from specURL.
func NewDocsHandler(specContent []byte, specURL string) *DocsHandler {
	if specURL == "" {
		specURL = "/docs/openapi.yaml"
	}
	return &DocsHandler{
		title:       DefaultDocsTitle,
		specURL:     specURL,
		specContent: specContent,
	}
}

// ScalarUI serves the Scalar API documentation UI.
func (h *DocsHandler) ScalarUI(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := scalarTemplate.Execute(&buf, struct {
		Title   string
		SpecURL string
	}{h.title, h.specURL})
	if err != nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// OpenAPISpec serves the OpenAPI document.
func (h *DocsHandler) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	if len(h.specContent) == 0 {
		http.Error(w, "OpenAPI specification not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.specContent)
}
