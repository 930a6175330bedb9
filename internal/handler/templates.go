package handler

import (
	"embed"
	"html/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Templates parses the embedded HTML partials rendered by the job and
// notification handlers. The full page shell lives outside this core; only
// the refreshable partials are rendered here.
func Templates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))
}
