// config_features.go - Feature-Flags und Limits
//
// Dieses Modul enthaelt:
// - Feature-Flags (KeepOutput)
// - Upload-Limits fuer Multipart-Requests
package envconfig

// =============================================================================
// Feature-Flags
// =============================================================================

var (
	// KeepOutput behaelt generierte Mesh-Dateien nach dem Ausliefern
	KeepOutput = Bool("VAEMESH_KEEP_OUTPUT")
)

// =============================================================================
// Limits
// =============================================================================

var (
	// MaxUploadSize begrenzt den Speicher fuer Multipart-Uploads (Bytes)
	MaxUploadSize = Uint64("VAEMESH_MAX_UPLOAD", 32<<20)
)
