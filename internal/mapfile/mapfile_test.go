package mapfile

import (
	"errors"
	"testing"

	"strategycore/server/internal/fixedmath"
)

func sampleMap() Map {
	return Map{
		Width:       fixedmath.FromInt(2048),
		Height:      fixedmath.FromInt(2048),
		CellSize:    fixedmath.One,
		ClusterSize: ClusterSize,
		Obstacles: []ObstacleRecord{
			{Position: fixedmath.Vec2FromFloat64(10, 10), Radius: fixedmath.FromInt(2)},
		},
		Starts: []StartLocation{
			{PlayerID: 1, Position: fixedmath.Vec2FromFloat64(5, 5)},
		},
		CostField: []byte{1, 1, 255, 1},
		Graph:     []byte{0xAA, 0xBB},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := sampleMap()
	data, err := Encode(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := Decode(data, m.CellSize, m.ClusterSize)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Width != m.Width || decoded.Height != m.Height {
		t.Fatalf("dimensions mismatch: %+v", decoded)
	}
	if len(decoded.Obstacles) != 1 || decoded.Obstacles[0].Radius != m.Obstacles[0].Radius {
		t.Fatalf("obstacles mismatch: %+v", decoded.Obstacles)
	}
	if len(decoded.Starts) != 1 || decoded.Starts[0].PlayerID != 1 {
		t.Fatalf("starts mismatch: %+v", decoded.Starts)
	}
	if string(decoded.CostField) != string(m.CostField) {
		t.Fatalf("cost field mismatch: %v", decoded.CostField)
	}
	if string(decoded.Graph) != string(m.Graph) {
		t.Fatalf("graph blob mismatch: %v", decoded.Graph)
	}
}

func TestDecodeRejectsCellSizeMismatch(t *testing.T) {
	m := sampleMap()
	data, err := Encode(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, err = Decode(data, fixedmath.FromInt(2), m.ClusterSize)
	var mismatch *VersionMismatchError
	if err == nil {
		t.Fatal("expected cell size mismatch error")
	}
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *VersionMismatchError, got %T: %v", err, err)
	}
}

func TestDecodeRejectsClusterSizeMismatch(t *testing.T) {
	m := sampleMap()
	data, err := Encode(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, err = Decode(data, m.CellSize, 99)
	if err == nil {
		t.Fatal("expected cluster size mismatch error")
	}
}

func TestDecodeRejectsCorruptData(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3}, fixedmath.One, ClusterSize)
	if err == nil {
		t.Fatal("expected decode of garbage data to fail")
	}
}

