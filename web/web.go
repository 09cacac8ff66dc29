// Package web holds the HTML page served at "/".
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"statusClass": statusClass,
	}).ParseFS(files, "templates/*.html")
}

// statusClass maps a status kind to its CSS class.
func statusClass(kind string) string {
	switch kind {
	case "error":
		return "box box-error"
	case "warning":
		return "box box-warning"
	default:
		return "box box-info"
	}
}
