// MODUL: grid
// ZWECK: Voxel-Gitter aus dem Decoder und Schwellwert-Binarisierung
// INPUT: Wahrscheinlichkeits-Volumen [N^3] in (D,H,W)-Reihenfolge
// OUTPUT: Occupancy (belegte Zellen)
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: github.com/pkg/errors
// HINWEISE: Index ist (x*N+y)*N+z, belegt heisst strikt groesser als der Schwellwert

package voxel

import (
	"github.com/pkg/errors"
)

// DefaultThreshold ist der Belegungs-Schwellwert der vortrainierten Gewichte
const DefaultThreshold float32 = 0.1

// Grid ist ein kubisches Gitter von Belegungs-Wahrscheinlichkeiten.
type Grid struct {
	Size int
	Data []float32
}

// NewGrid prueft, dass data genau size^3 Werte enthaelt.
func NewGrid(size int, data []float32) (*Grid, error) {
	if size <= 0 {
		return nil, errors.Errorf("voxel grid: invalid size %d", size)
	}

	if len(data) != size*size*size {
		return nil, errors.Errorf("voxel grid: %d values for size %d, expected %d", len(data), size, size*size*size)
	}

	return &Grid{Size: size, Data: data}, nil
}

func (g *Grid) index(x, y, z int) int {
	return (x*g.Size+y)*g.Size + z
}

// At liefert den Wert an ganzzahligen Koordinaten, 0 ausserhalb.
func (g *Grid) At(x, y, z int) float32 {
	if !inBounds(g.Size, x, y, z) {
		return 0
	}
	return g.Data[g.index(x, y, z)]
}

// Threshold binarisiert das Gitter: belegt ist jede Zelle mit Wert > t.
func (g *Grid) Threshold(t float32) *Occupancy {
	o := &Occupancy{Size: g.Size, cells: make([]bool, len(g.Data))}
	for i, v := range g.Data {
		if v > t {
			o.cells[i] = true
			o.count++
		}
	}
	return o
}

func inBounds(size, x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < size && y < size && z < size
}
