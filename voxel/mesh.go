// MODUL: mesh
// ZWECK: Dreiecksnetz mit geteilten Vertices, Export als OBJ und STL
// INPUT: model3d.Mesh aus Marching Cubes
// OUTPUT: Wavefront OBJ (Text) oder binaeres STL
// NEBENEFFEKTE: Save schreibt Dateien
// ABHAENGIGKEITEN: github.com/unixpickle/model3d, github.com/pkg/errors
// HINWEISE: OBJ-Indizes sind 1-basiert

package voxel

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// ============================================================================
// Export-Formate
// ============================================================================

// Format ist ein Mesh-Dateiformat
type Format string

const (
	FormatOBJ Format = "obj"
	FormatSTL Format = "stl"
)

// ErrUnknownFormat wird fuer nicht unterstuetzte Export-Formate zurueckgegeben
var ErrUnknownFormat = errors.New("unknown mesh format")

// ParseFormat akzeptiert "obj" und "stl" (Gross/Kleinschreibung egal),
// leer bedeutet OBJ.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatOBJ):
		return FormatOBJ, nil
	case string(FormatSTL):
		return FormatSTL, nil
	default:
		return "", errors.Wrapf(ErrUnknownFormat, "%q", s)
	}
}

// Ext ist die Dateiendung ohne Punkt.
func (f Format) Ext() string {
	return string(f)
}

// ContentType ist der MIME-Typ fuer HTTP-Antworten.
func (f Format) ContentType() string {
	switch f {
	case FormatSTL:
		return "model/stl"
	default:
		return "model/obj"
	}
}

// ============================================================================
// Mesh
// ============================================================================

// Mesh ist ein indiziertes Dreiecksnetz.
type Mesh struct {
	Vertices []model3d.Coord3D
	Faces    [][3]int

	raw *model3d.Mesh
}

func newMesh(raw *model3d.Mesh) *Mesh {
	m := &Mesh{raw: raw}
	index := map[model3d.Coord3D]int{}
	for _, t := range raw.TriangleSlice() {
		var face [3]int
		for i, c := range t {
			idx, ok := index[c]
			if !ok {
				idx = len(m.Vertices)
				index[c] = idx
				m.Vertices = append(m.Vertices, c)
			}
			face[i] = idx
		}
		m.Faces = append(m.Faces, face)
	}
	return m
}

// NumVertices ist die Anzahl eindeutiger Vertices.
func (m *Mesh) NumVertices() int {
	return len(m.Vertices)
}

// NumFaces ist die Anzahl Dreiecke.
func (m *Mesh) NumFaces() int {
	return len(m.Faces)
}

// WriteOBJ schreibt das Netz als Wavefront OBJ.
func (m *Mesh) WriteOBJ(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# vertices %d faces %d\n", m.NumVertices(), m.NumFaces())

	for _, v := range m.Vertices {
		bw.WriteString("v " + formatFloat(v.X) + " " + formatFloat(v.Y) + " " + formatFloat(v.Z) + "\n")
	}

	for _, f := range m.Faces {
		fmt.Fprintf(bw, "f %d %d %d\n", f[0]+1, f[1]+1, f[2]+1)
	}

	return errors.Wrap(bw.Flush(), "write obj")
}

// Save schreibt das Netz im gewuenschten Format nach path.
func (m *Mesh) Save(path string, format Format) error {
	switch format {
	case FormatSTL:
		return errors.Wrap(m.raw.SaveGroupedSTL(path), "write stl")
	case FormatOBJ:
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "write obj")
		}
		defer f.Close()

		if err := m.WriteOBJ(f); err != nil {
			return err
		}
		return errors.Wrap(f.Close(), "write obj")
	default:
		return errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}
