// MODUL: preprocess
// ZWECK: Vorverarbeitung eines Upload-Bildes zum VAE-Eingabetensor
// INPUT: io.Reader mit Bilddaten beliebiger Groesse
// OUTPUT: float32-Tensor [3, Size, Size] im Bereich [-1, 1]
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: image.go, normalize.go
// HINWEISE: Reihenfolge: dekodieren -> RGB -> bilinear skalieren -> normalisieren

package vision

import (
	"fmt"
	"io"
)

// DefaultImageSize ist die Kantenlaenge der Encoder-Eingabe
const DefaultImageSize = 64

// Preprocessor beschreibt die Transformation Bild -> Tensor.
type Preprocessor struct {
	Size int
	Mean [3]float32
	Std  [3]float32
}

// DefaultPreprocessor liefert 64x64 mit mean=std=0.5.
func DefaultPreprocessor() Preprocessor {
	return Preprocessor{
		Size: DefaultImageSize,
		Mean: StandardMean,
		Std:  StandardStd,
	}
}

// TensorLen gibt die Laenge des erzeugten Tensors zurueck.
func (p Preprocessor) TensorLen() int {
	return 3 * p.Size * p.Size
}

// Preprocess dekodiert, skaliert und normalisiert ein Bild.
func (p Preprocessor) Preprocess(r io.Reader) ([]float32, error) {
	img, err := DecodeImage(r)
	if err != nil {
		return nil, err
	}

	return p.PreprocessImage(img)
}

// PreprocessImage wendet die Transformation auf ein bereits dekodiertes Bild an.
func (p Preprocessor) PreprocessImage(img *ImageInput) ([]float32, error) {
	if p.Size <= 0 {
		return nil, fmt.Errorf("invalid preprocess size %d", p.Size)
	}

	resized, err := ResizeImage(img, p.Size, p.Size)
	if err != nil {
		return nil, err
	}

	return NormalizeRGB(resized, p.Mean, p.Std), nil
}
