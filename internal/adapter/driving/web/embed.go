package web

import "embed"

// StaticFS holds the embedded front-end pages and script.
//
//go:embed static/*
var StaticFS embed.FS
