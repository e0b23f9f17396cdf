// config.go - Haupt-Konfigurationsfunktionen fuer vaemesh
//
// Dieses Modul enthaelt:
// - Host: Gibt Scheme und Host zurueck (VAEMESH_HOST)
// - AllowedOrigins: Gibt erlaubte Origins zurueck (VAEMESH_ORIGINS)
// - ModelPath: Gibt den Pfad der VAE-Gewichte zurueck (VAEMESH_MODEL)
// - StaticDir/OutputDir: Frontend- und Ausgabe-Verzeichnis
// - Threshold: Belegungs-Schwellwert fuer Voxel (VAEMESH_THRESHOLD)
// - LogLevel: Gibt Log-Level zurueck (VAEMESH_DEBUG)
//
// Weitere Konfigurationen sind ausgelagert:
// - config_features.go: Feature-Flags und Limits
// - config_utils.go: Utility-Funktionen und AsMap/Values
package envconfig

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Host gibt Scheme und Host zurueck
// Konfigurierbar via VAEMESH_HOST
// Default: http://127.0.0.1:5000
func Host() *url.URL {
	defaultPort := "5000"

	s := strings.TrimSpace(Var("VAEMESH_HOST"))
	scheme, hostport, ok := strings.Cut(s, "://")
	switch {
	case !ok:
		scheme, hostport = "http", s
	case scheme == "http":
		defaultPort = "80"
	case scheme == "https":
		defaultPort = "443"
	}

	hostport, path, _ := strings.Cut(hostport, "/")
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host, port = "127.0.0.1", defaultPort
		if ip := net.ParseIP(strings.Trim(hostport, "[]")); ip != nil {
			host = ip.String()
		} else if hostport != "" {
			host = hostport
		}
	}

	if n, err := strconv.ParseInt(port, 10, 32); err != nil || n > 65535 || n < 0 {
		slog.Warn("invalid port, using default", "port", port, "default", defaultPort)
		port = defaultPort
	}

	return &url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, port),
		Path:   path,
	}
}

// AllowedOrigins gibt erlaubte Origins zurueck
// Konfigurierbar via VAEMESH_ORIGINS (komma-separiert)
// Enthaelt Standard-Origins fuer localhost
func AllowedOrigins() (origins []string) {
	if s := Var("VAEMESH_ORIGINS"); s != "" {
		origins = strings.Split(s, ",")
	}

	// Standard-Origins fuer localhost (Vite/React Dev-Server eingeschlossen)
	for _, origin := range []string{"localhost", "127.0.0.1", "0.0.0.0"} {
		origins = append(origins,
			fmt.Sprintf("http://%s", origin),
			fmt.Sprintf("https://%s", origin),
			fmt.Sprintf("http://%s", net.JoinHostPort(origin, "*")),
			fmt.Sprintf("https://%s", net.JoinHostPort(origin, "*")),
		)
	}

	origins = append(origins,
		"app://*",
		"file://*",
	)

	return origins
}

// ModelPath gibt den Pfad der vortrainierten VAE-Gewichte zurueck
// Konfigurierbar via VAEMESH_MODEL
// Default: VAE/vae_model.pth
func ModelPath() string {
	if s := Var("VAEMESH_MODEL"); s != "" {
		return s
	}

	return filepath.Join("VAE", "vae_model.pth")
}

// StaticDir gibt das Verzeichnis des gebauten Frontends zurueck
// Konfigurierbar via VAEMESH_STATIC
// Default: static
func StaticDir() string {
	if s := Var("VAEMESH_STATIC"); s != "" {
		return s
	}

	return "static"
}

// OutputDir gibt das Verzeichnis fuer generierte Meshes zurueck
// Konfigurierbar via VAEMESH_OUTPUT
// Default: output
func OutputDir() string {
	if s := Var("VAEMESH_OUTPUT"); s != "" {
		return s
	}

	return "output"
}

// Threshold gibt den Schwellwert fuer die Voxel-Belegung zurueck
// Konfigurierbar via VAEMESH_THRESHOLD
// Werte ausserhalb von [0,1) werden ignoriert
// Default: 0.1
func Threshold() float32 {
	threshold := float32(0.1)
	if s := Var("VAEMESH_THRESHOLD"); s != "" {
		f, err := strconv.ParseFloat(s, 32)
		if err != nil || f < 0 || f >= 1 {
			slog.Warn("invalid threshold, using default", "value", s, "default", threshold)
			return threshold
		}
		threshold = float32(f)
	}

	return threshold
}

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via VAEMESH_DEBUG
// Werte: 0/false = INFO (Default), 1/true = DEBUG, 2 = TRACE
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("VAEMESH_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Var gibt eine Environment-Variable zurueck
// Entfernt fuehrende/trailing Quotes und Leerzeichen
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
