// MODUL: normalize
// ZWECK: Normalisierung und Tensor-Konvertierung fuer die VAE-Eingabe
// INPUT: ImageInput, Normalisierungs-Parameter (mean, std)
// OUTPUT: float32-Tensor im CHW Layout
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: keine (nur Standardbibliothek)
// HINWEISE: Alpha-Kanal wird ignoriert, LoadImageFromBytes liefert bereits deckende Pixel

package vision

// Standard-Normalisierungswerte
var (
	// Standard-Normalisierung auf [-1, 1]
	StandardMean = [3]float32{0.5, 0.5, 0.5}
	StandardStd  = [3]float32{0.5, 0.5, 0.5}

	// Keine Normalisierung (nur Skalierung auf [0,1])
	NoNormMean = [3]float32{0.0, 0.0, 0.0}
	NoNormStd  = [3]float32{1.0, 1.0, 1.0}
)

// NormalizeRGB normalisiert ein Bild mit gegebenen mean/std Werten
// Gibt einen float32-Slice im CHW Format zurueck (Channel-First)
func NormalizeRGB(img *ImageInput, mean, std [3]float32) []float32 {
	bounds := img.Image.Bounds()
	h := bounds.Dy()
	w := bounds.Dx()
	size := h * w

	// Pre-allozieren fuer CHW Layout
	result := make([]float32, size*3)
	rOffset := 0
	gOffset := size
	bOffset := size * 2

	idx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b := extractRGB(img, x, y)

			result[rOffset+idx] = (r - mean[0]) / std[0]
			result[gOffset+idx] = (g - mean[1]) / std[1]
			result[bOffset+idx] = (b - mean[2]) / std[2]
			idx++
		}
	}

	return result
}

// extractRGB holt die nicht-praemultiplizierten RGB-Werte als float32 im Bereich [0,1]
func extractRGB(img *ImageInput, x, y int) (float32, float32, float32) {
	c := img.Image.NRGBAAt(x, y)
	return float32(c.R) / 255.0, float32(c.G) / 255.0, float32(c.B) / 255.0
}

// TensorShape gibt die CHW Tensor-Form des Bildes zurueck
func (img *ImageInput) TensorShape() []int {
	return []int{3, img.Height, img.Width}
}
