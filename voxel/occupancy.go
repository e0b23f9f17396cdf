// MODUL: occupancy
// ZWECK: Binaeres Voxel-Volumen als model3d.Solid, Oberflaechen-Extraktion
// INPUT: Occupancy aus Grid.Threshold
// OUTPUT: Mesh oder ErrEmptyMesh
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: github.com/unixpickle/model3d, github.com/pkg/errors
// HINWEISE: Das Solid ist um eine leere Zelle gepolstert, damit die
//           Oberflaeche auch am Gitterrand geschlossen ist

package voxel

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// ErrEmptyMesh wird zurueckgegeben wenn keine Zelle belegt ist und
// daher keine Oberflaeche existiert
var ErrEmptyMesh = errors.New("generated mesh is empty")

const (
	// gridDelta ist der Abstand der Marching-Cubes-Abtastpunkte in Voxeln
	gridDelta = 1.0

	// searchIters verfeinert die Kantenpunkte per Bisektion
	searchIters = 8
)

// Occupancy ist das binarisierte Gitter.
type Occupancy struct {
	Size  int
	cells []bool
	count int
}

// Count ist die Anzahl belegter Zellen.
func (o *Occupancy) Count() int {
	return o.count
}

// Occupied meldet, ob die Zelle (x, y, z) belegt ist.
func (o *Occupancy) Occupied(x, y, z int) bool {
	if !inBounds(o.Size, x, y, z) {
		return false
	}
	return o.cells[(x*o.Size+y)*o.Size+z]
}

// ============================================================================
// model3d.Solid
// ============================================================================

// Min ist die Ecke der gepolsterten Bounding-Box.
func (o *Occupancy) Min() model3d.Coord3D {
	return model3d.Coord3D{X: -1, Y: -1, Z: -1}
}

// Max ist die gegenueberliegende Ecke der gepolsterten Bounding-Box.
func (o *Occupancy) Max() model3d.Coord3D {
	n := float64(o.Size)
	return model3d.Coord3D{X: n, Y: n, Z: n}
}

// Contains prueft die Zelle, deren Mittelpunkt c am naechsten liegt.
func (o *Occupancy) Contains(c model3d.Coord3D) bool {
	return o.Occupied(
		int(math.Round(c.X)),
		int(math.Round(c.Y)),
		int(math.Round(c.Z)),
	)
}

// Mesh extrahiert die Oberflaeche mit Marching Cubes. Die Vertices liegen
// in Voxel-Koordinaten (Zellmittelpunkte auf ganzen Zahlen).
func (o *Occupancy) Mesh() (*Mesh, error) {
	if o.count == 0 {
		return nil, ErrEmptyMesh
	}

	m := newMesh(model3d.MarchingCubesSearch(o, gridDelta, searchIters))
	if m.NumVertices() == 0 || m.NumFaces() == 0 {
		return nil, ErrEmptyMesh
	}
	return m, nil
}
