// Package web holds the HTML pages.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templates embed.FS

// Templates parses every page; names are the file names ("faces.html").
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"stamp": stamp,
	}).ParseFS(templates, "templates/*.html"))
}
