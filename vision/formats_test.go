// MODUL: formats_test
// ZWECK: Tests fuer Format-Erkennung und Validierung
// INPUT: Test-Bytes mit verschiedenen Signaturen
// OUTPUT: Testresultate
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: testing
// HINWEISE: Testet Magic-Byte-Erkennung fuer alle unterstuetzten Formate

package vision

import (
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected ImageFormat
	}{
		{
			name:     "JPEG Magic Bytes",
			data:     []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10},
			expected: FormatJPEG,
		},
		{
			name:     "PNG Magic Bytes",
			data:     []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A},
			expected: FormatPNG,
		},
		{
			name:     "WebP Magic Bytes",
			data:     []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0x00, 0x00, 0x00, 'W', 'E', 'B', 'P'},
			expected: FormatWebP,
		},
		{
			name:     "RIFF ohne WEBP",
			data:     []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0x00, 0x00, 0x00, 'W', 'A', 'V', 'E'},
			expected: FormatUnknown,
		},
		{
			name:     "GIF Magic Bytes",
			data:     []byte("GIF89a"),
			expected: FormatGIF,
		},
		{
			name:     "BMP Magic Bytes",
			data:     []byte{'B', 'M', 0x36, 0x00, 0x00, 0x00},
			expected: FormatBMP,
		},
		{
			name:     "TIFF little endian",
			data:     []byte{'I', 'I', 0x2A, 0x00, 0x08, 0x00},
			expected: FormatTIFF,
		},
		{
			name:     "TIFF big endian",
			data:     []byte{'M', 'M', 0x00, 0x2A, 0x00, 0x08},
			expected: FormatTIFF,
		},
		{
			name:     "Zu kurze Daten",
			data:     []byte{0xFF, 0xD8},
			expected: FormatUnknown,
		},
		{
			name:     "Unbekanntes Format",
			data:     []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
			expected: FormatUnknown,
		},
		{
			name:     "Leere Daten",
			data:     []byte{},
			expected: FormatUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DetectFormat(tt.data)
			if result != tt.expected {
				t.Errorf("DetectFormat() = %v, erwartet %v", result, tt.expected)
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format    ImageFormat
		expectErr bool
	}{
		{FormatJPEG, false},
		{FormatPNG, false},
		{FormatWebP, false},
		{FormatGIF, false},
		{FormatBMP, false},
		{FormatTIFF, false},
		{FormatUnknown, true},
		{ImageFormat("heic"), true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			err := ValidateFormat(tt.format)
			if (err != nil) != tt.expectErr {
				t.Errorf("ValidateFormat(%v) error = %v, expectErr %v", tt.format, err, tt.expectErr)
			}
		})
	}
}

func TestImageFormatMimeType(t *testing.T) {
	tests := []struct {
		format   ImageFormat
		expected string
	}{
		{FormatJPEG, "image/jpeg"},
		{FormatPNG, "image/png"},
		{FormatWebP, "image/webp"},
		{FormatTIFF, "image/tiff"},
		{FormatUnknown, "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if got := tt.format.MimeType(); got != tt.expected {
				t.Errorf("MimeType() = %v, erwartet %v", got, tt.expected)
			}
		})
	}
}
