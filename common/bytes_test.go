package common

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestSliceToBytes(t *testing.T) {
	if got := SliceToBytes[float32](nil); got != nil {
		t.Errorf("SliceToBytes(nil) = %v, want nil", got)
	}

	data := []float32{1.5, -2}
	b := SliceToBytes(data)
	if len(b) != 8 {
		t.Fatalf("len(SliceToBytes()) = %d, want 8", len(b))
	}
	if got := math.Float32frombits(binary.NativeEndian.Uint32(b[4:])); got != -2 {
		t.Errorf("second element = %v, want -2", got)
	}
}
