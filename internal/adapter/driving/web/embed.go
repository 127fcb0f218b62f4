package web

import "embed"

// StaticFS holds the panel stylesheet and script.
//
//go:embed static/*
var StaticFS embed.FS
