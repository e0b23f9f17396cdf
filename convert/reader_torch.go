// reader_torch.go - PyTorch Checkpoint-Lader via gopickle
// Hauptfunktionen: readTorch, materialize
package convert

import (
	"errors"
	"fmt"
	"slices"

	"github.com/nlpodyssey/gopickle/pytorch"
	"github.com/nlpodyssey/gopickle/types"
	"github.com/pdevine/tensor"
	"github.com/pdevine/tensor/native"
)

// ErrNonContiguous wird fuer Views ohne dichtes Speicherlayout (z.B. expand) zurueckgegeben
var ErrNonContiguous = errors.New("tensor storage is not dense")

// stateDictKeys - Schluessel unter denen Trainings-Checkpoints das state_dict ablegen
var stateDictKeys = []string{"state_dict", "model_state_dict", "model"}

type torchEntry struct {
	key   any
	value any
}

// readTorch laedt ein state_dict, das mit torch.save geschrieben wurde
func readTorch(path string) (*StateDict, error) {
	pt, err := pytorch.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load torch checkpoint: %w", err)
	}

	entries, err := torchEntries(pt)
	if err != nil {
		return nil, err
	}

	// Vollstaendiger Checkpoint ({"state_dict": ..., "epoch": ...})
	for _, e := range entries {
		if k, ok := e.key.(string); ok && slices.Contains(stateDictKeys, k) {
			if inner, err := torchEntries(e.value); err == nil {
				entries = inner
				break
			}
		}
	}

	sd := NewStateDict(FormatTorch)
	for _, e := range entries {
		name, ok := e.key.(string)
		if !ok {
			continue
		}

		pv, ok := e.value.(*pytorch.Tensor)
		if !ok {
			// num_batches_tracked und aehnliche Skalare
			continue
		}

		t, err := torchTensor(name, pv)
		if err != nil {
			return nil, err
		}
		sd.add(t)
	}

	if sd.Len() == 0 {
		return nil, fmt.Errorf("%w: no tensors in %s", ErrUnsupportedFormat, path)
	}

	return sd, nil
}

// torchEntries liefert die Eintraege eines (Ordered)Dict in Einfuegereihenfolge
func torchEntries(v any) ([]torchEntry, error) {
	switch d := v.(type) {
	case *types.Dict:
		entries := make([]torchEntry, 0, d.Len())
		for _, k := range d.Keys() {
			entries = append(entries, torchEntry{key: k, value: d.MustGet(k)})
		}
		return entries, nil
	case *types.OrderedDict:
		entries := make([]torchEntry, 0, d.Len())
		for e := d.List.Front(); e != nil; e = e.Next() {
			entry := e.Value.(*types.OrderedDictEntry)
			entries = append(entries, torchEntry{key: entry.Key, value: entry.Value})
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("%w: expected a state dict, got %T", ErrUnsupportedFormat, v)
	}
}

// torchTensor kopiert einen gopickle-Tensor in einen dichten float32 Tensor
func torchTensor(name string, pt *pytorch.Tensor) (*Tensor, error) {
	var data []float32
	switch s := pt.Source.(type) {
	case *pytorch.FloatStorage:
		data = s.Data
	case *pytorch.HalfStorage:
		data = s.Data
	case *pytorch.BFloat16Storage:
		data = s.Data
	case *pytorch.DoubleStorage:
		data = make([]float32, len(s.Data))
		for i, f := range s.Data {
			data[i] = float32(f)
		}
	default:
		return nil, fmt.Errorf("%w: %s has storage %T", ErrUnsupportedDType, name, pt.Source)
	}

	shape := slices.Clone(pt.Size)
	values, err := materialize(data, pt.StorageOffset, shape, pt.Stride)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return &Tensor{Name: name, Shape: shape, Data: values}, nil
}

// materialize kopiert eine (ggf. permutierte) View in Row-Major Reihenfolge
func materialize(data []float32, offset int, shape, stride []int) ([]float32, error) {
	n := 1
	for _, d := range shape {
		n *= d
	}

	if n == 0 {
		return []float32{}, nil
	}

	if offset < 0 || offset+n > len(data) {
		return nil, fmt.Errorf("storage too small: offset %d + %d elements > %d", offset, n, len(data))
	}

	if len(stride) == 0 || denseStrides(shape, stride) {
		return slices.Clone(data[offset : offset+n]), nil
	}

	if len(stride) != len(shape) {
		return nil, fmt.Errorf("stride rank %d does not match shape rank %d", len(stride), len(shape))
	}

	// physikalische Achsenreihenfolge: absteigende Strides
	perm := make([]int, len(shape))
	for i := range perm {
		perm[i] = i
	}
	slices.SortStableFunc(perm, func(a, b int) int { return stride[b] - stride[a] })

	physShape := make([]int, len(perm))
	physStride := make([]int, len(perm))
	for i, p := range perm {
		physShape[i] = shape[p]
		physStride[i] = stride[p]
	}

	if !denseStrides(physShape, physStride) {
		return nil, ErrNonContiguous
	}

	axes := make([]int, len(perm))
	for j, p := range perm {
		axes[p] = j
	}

	t := tensor.New(tensor.WithShape(physShape...), tensor.WithBacking(slices.Clone(data[offset:offset+n])))
	if err := t.T(axes...); err != nil {
		return nil, err
	}

	if err := t.Transpose(); err != nil {
		return nil, err
	}

	last := shape[len(shape)-1]
	if err := t.Reshape(n/last, last); err != nil {
		return nil, err
	}

	rows, err := native.SelectF32(t, 1)
	if err != nil {
		return nil, err
	}

	values := make([]float32, 0, n)
	for _, row := range rows {
		values = append(values, row...)
	}
	return values, nil
}

// denseStrides prueft auf Row-Major Strides (Dimensionen der Groesse 1 sind beliebig)
func denseStrides(shape, stride []int) bool {
	if len(shape) != len(stride) {
		return false
	}

	expected := 1
	for i := len(shape) - 1; i >= 0; i-- {
		if shape[i] != 1 && stride[i] != expected {
			return false
		}
		expected *= shape[i]
	}
	return true
}
