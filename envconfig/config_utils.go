// config_utils.go - Utility-Funktionen und Export fuer Konfiguration
//
// Dieses Modul enthaelt:
// - BoolWithDefault/Bool: Boolean-Getter mit Default-Wert
// - String: String-Getter
// - Uint64: Integer-Getter mit Default-Wert
// - EnvVar: Struktur fuer Environment-Variablen-Info
// - AsMap: Gibt alle Konfigurationen als Map zurueck
// - Values: Gibt alle Konfigurationswerte als String-Map zurueck
package envconfig

import (
	"fmt"
	"log/slog"
	"strconv"
)

// =============================================================================
// Boolean-Getter
// =============================================================================

// BoolWithDefault gibt eine Funktion zurueck, die einen Bool mit Default-Wert liest
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool gibt eine Funktion zurueck, die einen Bool liest (Default: false)
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// =============================================================================
// String-Getter
// =============================================================================

// String gibt eine Funktion zurueck, die einen String liest
func String(s string) func() string {
	return func() string {
		return Var(s)
	}
}

// =============================================================================
// Integer-Getter
// =============================================================================

// Uint64 gibt eine Funktion zurueck, die einen uint64 mit Default-Wert liest
func Uint64(key string, defaultValue uint64) func() uint64 {
	return func() uint64 {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return n
			}
		}
		return defaultValue
	}
}

// =============================================================================
// Export-Strukturen und -Funktionen
// =============================================================================

// EnvVar repraesentiert eine Environment-Variable mit Metadaten
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
// Enthaelt Namen, aktuelle Werte und Beschreibungen
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"VAEMESH_DEBUG":       {"VAEMESH_DEBUG", LogLevel(), "Show additional debug information (e.g. VAEMESH_DEBUG=1)"},
		"VAEMESH_HOST":        {"VAEMESH_HOST", Host(), "IP Address for the vaemesh server (default 127.0.0.1:5000)"},
		"VAEMESH_ORIGINS":     {"VAEMESH_ORIGINS", AllowedOrigins(), "A comma separated list of allowed origins"},
		"VAEMESH_MODEL":       {"VAEMESH_MODEL", ModelPath(), "Path to the pretrained VAE weights (.pth or .safetensors)"},
		"VAEMESH_STATIC":      {"VAEMESH_STATIC", StaticDir(), "Directory holding the built frontend"},
		"VAEMESH_OUTPUT":      {"VAEMESH_OUTPUT", OutputDir(), "Directory for generated mesh files"},
		"VAEMESH_THRESHOLD":   {"VAEMESH_THRESHOLD", Threshold(), "Voxel occupancy threshold (default 0.1)"},
		"VAEMESH_KEEP_OUTPUT": {"VAEMESH_KEEP_OUTPUT", KeepOutput(), "Keep generated mesh files after they were served"},
		"VAEMESH_MAX_UPLOAD":  {"VAEMESH_MAX_UPLOAD", MaxUploadSize(), "Memory limit for multipart uploads in bytes"},
	}
}

// Values gibt alle Konfigurationswerte als String-Map zurueck
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
