// MODUL: formats
// ZWECK: Bildformat-Erkennung und Validierung fuer hochgeladene Eingabebilder
// INPUT: Bild-Bytes oder Format-String
// OUTPUT: ImageFormat, Fehler bei ungueltigem Format
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: keine (nur Standardbibliothek)
// HINWEISE: Magic-Bytes-basierte Erkennung, unterstuetzt JPEG/PNG/WebP/GIF/BMP/TIFF

package vision

import (
	"bytes"
	"errors"
)

// ImageFormat repraesentiert ein unterstuetztes Bildformat
type ImageFormat string

const (
	FormatJPEG    ImageFormat = "jpeg"
	FormatPNG     ImageFormat = "png"
	FormatWebP    ImageFormat = "webp"
	FormatGIF     ImageFormat = "gif"
	FormatBMP     ImageFormat = "bmp"
	FormatTIFF    ImageFormat = "tiff"
	FormatUnknown ImageFormat = "unknown"
)

// Magic-Byte-Signaturen fuer Bildformate
var (
	magicJPEG   = []byte{0xFF, 0xD8, 0xFF}
	magicPNG    = []byte{0x89, 0x50, 0x4E, 0x47}
	magicWebP   = []byte{0x52, 0x49, 0x46, 0x46} // "RIFF" header
	magicGIF    = []byte("GIF8")
	magicBMP    = []byte("BM")
	magicTIFFLE = []byte{'I', 'I', 0x2A, 0x00}
	magicTIFFBE = []byte{'M', 'M', 0x00, 0x2A}
)

// ErrUnknownFormat wird zurueckgegeben wenn Format nicht erkannt wurde
var ErrUnknownFormat = errors.New("unknown image format")

// ErrUnsupportedFormat wird zurueckgegeben bei ungueltigem Format
var ErrUnsupportedFormat = errors.New("unsupported image format")

// DetectFormat erkennt das Bildformat anhand der Magic-Bytes
func DetectFormat(data []byte) ImageFormat {
	if len(data) < 4 {
		return FormatUnknown
	}

	switch {
	case bytes.HasPrefix(data, magicJPEG):
		return FormatJPEG
	case bytes.HasPrefix(data, magicPNG):
		return FormatPNG
	case bytes.HasPrefix(data, magicWebP) && isValidWebP(data):
		return FormatWebP
	case bytes.HasPrefix(data, magicGIF):
		return FormatGIF
	case bytes.HasPrefix(data, magicTIFFLE), bytes.HasPrefix(data, magicTIFFBE):
		return FormatTIFF
	case bytes.HasPrefix(data, magicBMP):
		return FormatBMP
	}

	return FormatUnknown
}

// isValidWebP prueft auf "WEBP" Marker nach RIFF Header
func isValidWebP(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	// RIFF....WEBP
	return data[8] == 'W' && data[9] == 'E' && data[10] == 'B' && data[11] == 'P'
}

// ValidateFormat prueft ob ein Format unterstuetzt wird
func ValidateFormat(format ImageFormat) error {
	switch format {
	case FormatJPEG, FormatPNG, FormatWebP, FormatGIF, FormatBMP, FormatTIFF:
		return nil
	case FormatUnknown:
		return ErrUnknownFormat
	default:
		return ErrUnsupportedFormat
	}
}

// MimeType gibt den MIME-Type fuer ein Format zurueck
func (f ImageFormat) MimeType() string {
	switch f {
	case FormatJPEG, FormatPNG, FormatWebP, FormatGIF, FormatBMP, FormatTIFF:
		return "image/" + string(f)
	default:
		return "application/octet-stream"
	}
}

// String implementiert Stringer Interface
func (f ImageFormat) String() string {
	return string(f)
}
