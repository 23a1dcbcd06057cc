// Package mapfile implements the persisted map envelope of §6: a
// zlib-compressed, length-prefixed binary format carrying the map
// dimensions, the rasterized cost field, obstacles, start locations, and
// the serialized hierarchical graph. No example repo in the retrieval
// pack wires a binary serialization or compression library, so this
// ambient concern is justifiably built on stdlib compress/zlib and
// encoding/binary rather than an example-grounded third-party one (see
// DESIGN.md).
package mapfile

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"

	"strategycore/server/internal/fixedmath"
)

// FormatVersion is the only envelope version this package writes or
// accepts.
const FormatVersion uint32 = 1

// ClusterSize must match the hierarchical graph's clustering constant.
const ClusterSize uint32 = 25

// StartLocation is one player's spawn point.
type StartLocation struct {
	PlayerID uint8
	Position fixedmath.Fixed2
}

// ObstacleRecord is one persisted static obstacle.
type ObstacleRecord struct {
	Position fixedmath.Fixed2
	Radius   fixedmath.Fixed
}

// Map is the full decoded envelope contents. Graph is left as an opaque
// byte blob here — its own serialization lives with the hierarchical
// graph package; mapfile only owns the envelope framing around it.
type Map struct {
	Width       fixedmath.Fixed
	Height      fixedmath.Fixed
	CellSize    fixedmath.Fixed
	ClusterSize uint32
	Obstacles   []ObstacleRecord
	Starts      []StartLocation
	CostField   []byte
	Graph       []byte
}

// Encode serializes m into the zlib-compressed binary envelope.
func Encode(m Map) ([]byte, error) {
	var raw bytes.Buffer
	w := &errWriter{w: &raw}

	w.writeU32(FormatVersion)
	w.writeFixed(m.Width)
	w.writeFixed(m.Height)
	w.writeFixed(m.CellSize)
	w.writeU32(m.ClusterSize)

	w.writeU32(uint32(len(m.Obstacles)))
	for _, o := range m.Obstacles {
		w.writeFixed(o.Position.X)
		w.writeFixed(o.Position.Y)
		w.writeFixed(o.Radius)
	}

	w.writeU32(uint32(len(m.Starts)))
	for _, s := range m.Starts {
		w.writeByte(s.PlayerID)
		w.writeFixed(s.Position.X)
		w.writeFixed(s.Position.Y)
	}

	w.writeU32(uint32(len(m.CostField)))
	w.writeBytes(m.CostField)

	w.writeU32(uint32(len(m.Graph)))
	w.writeBytes(m.Graph)

	if w.err != nil {
		return nil, w.err
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("mapfile: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("mapfile: compress: %w", err)
	}
	return compressed.Bytes(), nil
}

// VersionMismatchError is returned by Decode when the envelope's version,
// cell size, or cluster size does not match what the caller expects; the
// caller's recovery policy (§7) is to reject the file and fall back to
// procedural generation.
type VersionMismatchError struct {
	Field string
	Got   any
	Want  any
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("mapfile: %s mismatch: got %v, want %v", e.Field, e.Got, e.Want)
}

// Decode decompresses and parses a map envelope, validating version, cell
// size, and cluster size against expectedCellSize/expectedClusterSize.
func Decode(data []byte, expectedCellSize fixedmath.Fixed, expectedClusterSize uint32) (Map, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return Map{}, fmt.Errorf("mapfile: decompress: %w", err)
	}
	defer zr.Close()

	r := &errReader{r: zr}

	version := r.readU32()
	if r.err == nil && version != FormatVersion {
		return Map{}, &VersionMismatchError{Field: "version", Got: version, Want: FormatVersion}
	}

	var m Map
	m.Width = r.readFixed()
	m.Height = r.readFixed()
	m.CellSize = r.readFixed()
	m.ClusterSize = r.readU32()

	if r.err == nil && m.CellSize != expectedCellSize {
		return Map{}, &VersionMismatchError{Field: "cell_size", Got: m.CellSize, Want: expectedCellSize}
	}
	if r.err == nil && m.ClusterSize != expectedClusterSize {
		return Map{}, &VersionMismatchError{Field: "cluster_size", Got: m.ClusterSize, Want: expectedClusterSize}
	}

	obstacleCount := r.readU32()
	m.Obstacles = make([]ObstacleRecord, 0, obstacleCount)
	for i := uint32(0); i < obstacleCount && r.err == nil; i++ {
		x := r.readFixed()
		y := r.readFixed()
		radius := r.readFixed()
		m.Obstacles = append(m.Obstacles, ObstacleRecord{Position: fixedmath.Fixed2{X: x, Y: y}, Radius: radius})
	}

	startCount := r.readU32()
	m.Starts = make([]StartLocation, 0, startCount)
	for i := uint32(0); i < startCount && r.err == nil; i++ {
		playerID := r.readByte()
		x := r.readFixed()
		y := r.readFixed()
		m.Starts = append(m.Starts, StartLocation{PlayerID: playerID, Position: fixedmath.Fixed2{X: x, Y: y}})
	}

	costLen := r.readU32()
	m.CostField = r.readBytes(costLen)

	graphLen := r.readU32()
	m.Graph = r.readBytes(graphLen)

	if r.err != nil {
		return Map{}, fmt.Errorf("mapfile: parse: %w", r.err)
	}
	return m, nil
}

// errWriter accumulates the first error encountered across a sequence of
// writes so Encode's call sites don't need per-call error checks.
type errWriter struct {
	w   io.Writer
	err error
}

func (w *errWriter) writeU32(v uint32) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(w.w, binary.BigEndian, v)
}

func (w *errWriter) writeByte(v byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write([]byte{v})
}

func (w *errWriter) writeFixed(v fixedmath.Fixed) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(w.w, binary.BigEndian, int64(v))
}

func (w *errWriter) writeBytes(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

type errReader struct {
	r   io.Reader
	err error
}

func (r *errReader) readU32() uint32 {
	if r.err != nil {
		return 0
	}
	var v uint32
	r.err = binary.Read(r.r, binary.BigEndian, &v)
	return v
}

func (r *errReader) readByte() byte {
	if r.err != nil {
		return 0
	}
	buf := make([]byte, 1)
	_, r.err = io.ReadFull(r.r, buf)
	return buf[0]
}

func (r *errReader) readFixed() fixedmath.Fixed {
	if r.err != nil {
		return 0
	}
	var v int64
	r.err = binary.Read(r.r, binary.BigEndian, &v)
	return fixedmath.Fixed(v)
}

func (r *errReader) readBytes(n uint32) []byte {
	if r.err != nil || n == 0 {
		return nil
	}
	buf := make([]byte, n)
	_, r.err = io.ReadFull(r.r, buf)
	return buf
}
