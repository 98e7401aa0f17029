// Package web embeds the htmx interface: the page shell, the partial
// templates the server renders into it, and the static assets.
package web

import "embed"

// TemplatesFS embeds the HTML shell and partial templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets (css/js).
//
//go:embed static/*
var StaticFS embed.FS
