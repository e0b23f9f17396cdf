// reader_safetensors.go - Safetensors Lader und Writer
// Hauptfunktionen: ReadSafetensors, WriteSafetensors
//
// Layout: 8 Byte Header-Laenge (little endian), JSON-Header, Rohdaten.
package convert

import (
	"bufio"
	"bytes"
	"cmp"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	bfloat16 "github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// maxHeaderSize begrenzt den JSON-Header gegen kaputte Dateien
const maxHeaderSize = 100 << 20

type safetensorsInfo struct {
	DType   string   `json:"dtype"`
	Shape   []int    `json:"shape"`
	Offsets [2]int64 `json:"data_offsets"`
}

// readSafetensorsFile oeffnet und liest eine .safetensors Datei
func readSafetensorsFile(path string) (*StateDict, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadSafetensors(bufio.NewReader(f))
}

// ReadSafetensors liest alle Tensoren und konvertiert sie nach float32
func ReadSafetensors(r io.Reader) (*StateDict, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("read safetensors header size: %w", err)
	}

	if n == 0 || n > maxHeaderSize {
		return nil, fmt.Errorf("%w: invalid safetensors header size %d", ErrUnsupportedFormat, n)
	}

	header := make([]byte, n)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("read safetensors header: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(header, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	infos := make(map[string]safetensorsInfo, len(raw))
	names := make([]string, 0, len(raw))
	for name, msg := range raw {
		if name == "__metadata__" {
			continue
		}

		var info safetensorsInfo
		if err := json.Unmarshal(msg, &info); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		infos[name] = info
		names = append(names, name)
	}

	// Daten liegen in Offset-Reihenfolge hintereinander
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Compare(infos[a].Offsets[0], infos[b].Offsets[0])
	})

	sd := NewStateDict(FormatSafetensors)
	var pos int64
	for _, name := range names {
		info := infos[name]
		begin, end := info.Offsets[0], info.Offsets[1]
		if begin < pos || end < begin {
			return nil, fmt.Errorf("%s: invalid data offsets [%d, %d]", name, begin, end)
		}

		// Groesse gegen dtype und Shape pruefen bevor der Puffer angelegt wird
		if err := info.checkSize(end - begin); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		if _, err := io.CopyN(io.Discard, r, begin-pos); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		buf := make([]byte, end-begin)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		pos = end

		t := &Tensor{Name: name, Shape: info.Shape}
		data, err := decodeSafetensors(info.DType, buf, t.NumElements())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		t.Data = data
		sd.add(t)
	}

	return sd, nil
}

// dtypeSizes - Bytes pro Element der unterstuetzten Datentypen
var dtypeSizes = map[string]int64{"F32": 4, "F16": 2, "BF16": 2, "F64": 8}

// checkSize prueft, ob n Datenbytes zu dtype und Shape passen
func (info safetensorsInfo) checkSize(n int64) error {
	size := dtypeSizes[info.DType]
	if size == 0 {
		return fmt.Errorf("%w %q", ErrUnsupportedDType, info.DType)
	}

	want := size
	for _, d := range info.Shape {
		if d < 0 {
			return fmt.Errorf("invalid shape %v", info.Shape)
		}
		want *= int64(d)
		if want > n {
			break
		}
	}

	if want != n {
		return fmt.Errorf("data offsets span %d bytes, shape %v of %s needs more or less", n, info.Shape, info.DType)
	}
	return nil
}

// decodeSafetensors wandelt Rohdaten eines Datentyps nach float32
func decodeSafetensors(dtype string, buf []byte, n int) ([]float32, error) {
	size := int(dtypeSizes[dtype])
	if size == 0 {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedDType, dtype)
	}

	if len(buf) != n*size {
		return nil, fmt.Errorf("expected %d bytes for %d %s values, got %d", n*size, n, dtype, len(buf))
	}

	f32s := make([]float32, n)
	switch dtype {
	case "F32":
		for i := range f32s {
			f32s[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		}
	case "F16":
		for i := range f32s {
			f32s[i] = float16.Frombits(binary.LittleEndian.Uint16(buf[i*2:])).Float32()
		}
	case "BF16":
		f32s = bfloat16.DecodeFloat32(buf)
	case "F64":
		for i := range f32s {
			f32s[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:])))
		}
	}

	return f32s, nil
}

// WriteSafetensors schreibt alle Tensoren als F32 in sortierter Namensreihenfolge
func WriteSafetensors(w io.Writer, sd *StateDict) error {
	header := make(map[string]safetensorsInfo, sd.Len())
	var offset int64
	for _, name := range sd.Names() {
		t, _ := sd.Get(name)
		if len(t.Data) != t.NumElements() {
			return fmt.Errorf("%s: %d values for shape %v", name, len(t.Data), t.Shape)
		}

		size := int64(len(t.Data)) * 4
		shape := t.Shape
		if shape == nil {
			shape = []int{}
		}
		header[name] = safetensorsInfo{DType: "F32", Shape: shape, Offsets: [2]int64{offset, offset + size}}
		offset += size
	}

	bts, err := json.Marshal(header)
	if err != nil {
		return err
	}

	// Header auf 8 Byte ausrichten
	if pad := len(bts) % 8; pad != 0 {
		bts = append(bts, bytes.Repeat([]byte(" "), 8-pad)...)
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(bts))); err != nil {
		return err
	}

	if _, err := bw.Write(bts); err != nil {
		return err
	}

	for _, name := range sd.Names() {
		t, _ := sd.Get(name)
		if err := binary.Write(bw, binary.LittleEndian, t.Data); err != nil {
			return err
		}
	}

	return bw.Flush()
}
