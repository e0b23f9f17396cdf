// reader.go - Gewichts-Lader fuer vortrainierte Modelle
// Haupttypen: Tensor, StateDict
// Hauptfunktionen: Open, NewStateDict
//
// Unterstuetzte Formate:
// - PyTorch Checkpoints (.pth/.pt/.bin/.ckpt) via gopickle (reader_torch.go)
// - Safetensors (.safetensors) mit F32/F16/BF16/F64 (reader_safetensors.go)
package convert

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Format-Namen fuer StateDict.Format
const (
	FormatTorch       = "torch"
	FormatSafetensors = "safetensors"
)

var (
	// ErrUnsupportedFormat wird bei unbekannten Checkpoint-Dateien zurueckgegeben
	ErrUnsupportedFormat = errors.New("unsupported weights format")

	// ErrUnsupportedDType wird bei nicht unterstuetzten Tensor-Datentypen zurueckgegeben
	ErrUnsupportedDType = errors.New("unsupported tensor dtype")
)

// Tensor - Ein geladener Parameter, immer als float32 im Row-Major Layout
type Tensor struct {
	Name  string
	Shape []int
	Data  []float32
}

// NumElements - Anzahl der Elemente laut Shape
func (t *Tensor) NumElements() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// StateDict - Name -> Tensor Zuordnung eines Checkpoints
type StateDict struct {
	Format  string
	tensors map[string]*Tensor
	names   []string
}

// NewStateDict - Erstellt ein StateDict aus bereits geladenen Tensoren
func NewStateDict(format string, tensors ...*Tensor) *StateDict {
	sd := &StateDict{Format: format, tensors: make(map[string]*Tensor, len(tensors))}
	for _, t := range tensors {
		sd.add(t)
	}
	return sd
}

// add fuegt einen Tensor hinzu; DataParallel-Praefixe ("module.") werden entfernt
func (sd *StateDict) add(t *Tensor) {
	t.Name = strings.TrimPrefix(t.Name, "module.")
	if _, ok := sd.tensors[t.Name]; !ok {
		sd.names = append(sd.names, t.Name)
	}
	sd.tensors[t.Name] = t
}

// Get - Gibt den Tensor mit dem Namen zurueck
func (sd *StateDict) Get(name string) (*Tensor, bool) {
	t, ok := sd.tensors[name]
	return t, ok
}

// Names - Sortierte Liste aller Tensor-Namen
func (sd *StateDict) Names() []string {
	names := slices.Clone(sd.names)
	slices.Sort(names)
	return names
}

// Len - Anzahl der Tensoren
func (sd *StateDict) Len() int {
	return len(sd.tensors)
}

// NumParams - Summe aller Elemente ueber alle Tensoren
func (sd *StateDict) NumParams() int {
	var n int
	for _, t := range sd.tensors {
		n += t.NumElements()
	}
	return n
}

// Open - Laedt einen Checkpoint anhand der Dateiendung bzw. Magic-Bytes
func Open(path string) (*StateDict, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".safetensors":
		return readSafetensorsFile(path)
	case ".pth", ".pt", ".bin", ".ckpt":
		return readTorch(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	switch {
	case bytes.HasPrefix(magic, []byte("PK\x03\x04")), magic[0] == 0x80:
		// zip-basiertes torch.save oder Legacy-Pickle
		return readTorch(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}
