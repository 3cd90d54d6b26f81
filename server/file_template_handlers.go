package server

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/jrsteele09/claims-web/claims"
	"github.com/jrsteele09/claims-web/token"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const layoutTemplate = "layout.html"

var templateFuncs = template.FuncMap{
	"currency":   claims.FormatCurrency,
	"date":       claims.FormatDate,
	"lower":      strings.ToLower,
	"claimTypes": claims.Types,
	"initials":   initials,
}

// initials is the navbar avatar text
func initials(identity *token.Identity) string {
	if identity == nil {
		return "U"
	}
	first, last := []rune(identity.FirstName), []rune(identity.LastName)
	if len(first) > 0 && len(last) > 0 {
		return strings.ToUpper(string(first[0]) + string(last[0]))
	}
	for _, fallback := range []string{identity.Email, identity.Sub} {
		if r := []rune(fallback); len(r) > 0 {
			return strings.ToUpper(string(r[0]))
		}
	}
	return "U"
}

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses the page template name together with the shared layout
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(layoutTemplate).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

// mustParseTemplate is ParseTemplate for handler constructors, which run at startup
func mustParseTemplate(name string) *template.Template {
	tmpl, err := ParseTemplate(name)
	if err != nil {
		panic("Failed to parse " + name + " template: " + err.Error())
	}
	return tmpl
}

// renderPage renders data through the layout. Output is buffered so a failed
// render never leaves half a page on the wire.
func renderPage(w http.ResponseWriter, tmpl *template.Template, status int, data *PageData) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutTemplate, data); err != nil {
		log.Err(err).Str("page", data.Title).Msg("[Server renderPage] failed to render template")
		http.Error(w, "500 - Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
