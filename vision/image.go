// MODUL: image
// ZWECK: Bild-Lade- und Skalierungsfunktionen fuer die VAE-Eingabe
// INPUT: Bytes oder io.Reader
// OUTPUT: ImageInput Struktur mit dekodiertem Bild
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: golang.org/x/image (draw, webp, bmp, tiff), image/jpeg, image/png, image/gif
// HINWEISE: Bilder werden als deckendes NRGBA gehalten, Alpha wird schon beim Laden verworfen

package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	// Standard-Decoder registrieren
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageInput enthaelt ein dekodiertes Bild mit Metadaten
type ImageInput struct {
	Image  *image.NRGBA
	Width  int
	Height int
	Format ImageFormat
}

// LoadImageFromBytes dekodiert ein Bild aus Byte-Daten
func LoadImageFromBytes(data []byte) (*ImageInput, error) {
	format := DetectFormat(data)
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s image: %w", format, err)
	}

	nrgba := toNRGBA(img)
	bounds := nrgba.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("decode %s image: empty image", format)
	}

	return &ImageInput{
		Image:  nrgba,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
	}, nil
}

// DecodeImage dekodiert ein Bild aus einem io.Reader
func DecodeImage(reader io.Reader) (*ImageInput, error) {
	// Erst Daten puffern fuer Format-Erkennung
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return LoadImageFromBytes(data)
}

// toNRGBA kopiert ein beliebiges image.Image in ein deckendes *image.NRGBA mit
// Ursprung (0,0). Die gespeicherte Farbe bleibt erhalten, Alpha wird auf 255
// gesetzt wie bei einer RGB-Konvertierung. Ohne das wuerde die spaetere
// Skalierung (vormultipliziertes Alpha) transparente Pixel schwarz machen.
func toNRGBA(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < h; y++ {
			off := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+4*w], src.Pix[off:off+4*w])
		}
	} else {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dst.SetNRGBA(x, y, straightColor(img.At(bounds.Min.X+x, bounds.Min.Y+y)))
			}
		}
	}

	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// straightColor liefert die nicht vormultiplizierte Farbe eines Pixels
func straightColor(c color.Color) color.NRGBA {
	switch c := c.(type) {
	case color.NRGBA:
		return c
	case color.NRGBA64:
		return color.NRGBA{uint8(c.R >> 8), uint8(c.G >> 8), uint8(c.B >> 8), uint8(c.A >> 8)}
	}
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

// ResizeImage skaliert ein Bild auf die angegebene Groesse (bilinear)
func ResizeImage(img *ImageInput, width, height int) (*ImageInput, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid size: %dx%d", width, height)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img.Image, img.Image.Bounds(), draw.Src, nil)

	return &ImageInput{
		Image:  dst,
		Width:  width,
		Height: height,
		Format: img.Format,
	}, nil
}
