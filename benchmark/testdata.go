// MODUL: testdata
// ZWECK: Synthetische Eingabebilder fuer Benchmarks
// INPUT: Bildgroesse (width, height)
// OUTPUT: PNG-kodierte Testbilder als Byte-Slices
// NEBENEFFEKTE: Keine (rein speicherbasiert)
// ABHAENGIGKEITEN: image, image/png (stdlib)
// HINWEISE: Zentrierte Silhouette auf hellem Hintergrund, wie ein Produktfoto

package benchmark

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
)

// GenerateTestImage erzeugt ein reproduzierbares Testbild der Groesse.
func GenerateTestImage(width, height int) []byte {
	return GenerateTestImageWithSeed(width, height, 42)
}

// GenerateTestImageWithSeed erzeugt eine dunkle Ellipse mit Rauschen auf
// hellem Hintergrund.
func GenerateTestImageWithSeed(width, height int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	cx, cy := float64(width)/2, float64(height)/2
	rx, ry := float64(width)/3, float64(height)/3
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := (float64(x)-cx)/rx, (float64(y)-cy)/ry
			base := 230
			if dx*dx+dy*dy <= 1 {
				base = 60
			}

			noise := int(rng.Float64()*20 - 10)
			v := clampUint8(base + noise)
			img.Set(x, y, color.RGBA{R: v, G: v, B: clampUint8(int(v) + 10), A: 255})
		}
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// clampUint8 begrenzt einen int-Wert auf den uint8-Bereich.
func clampUint8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
