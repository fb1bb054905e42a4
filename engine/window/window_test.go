package window

import "testing"

func TestViewportPoint(t *testing.T) {
	tests := []struct {
		name          string
		x, y          int32
		width, height int
		wantX, wantY  float32
	}{
		{"top left", 0, 0, 200, 100, 0, 1},
		{"bottom right", 200, 100, 200, 100, 1, 0},
		{"center", 100, 50, 200, 100, 0.5, 0.5},
		{"outside clamps", -20, 300, 200, 100, 0, 0},
		{"empty window", 10, 10, 0, 0, 0.5, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := viewportPoint(tt.x, tt.y, tt.width, tt.height)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("viewportPoint() = (%v, %v), want (%v, %v)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestMouseButtonString(t *testing.T) {
	if got := MouseButtonMiddle.String(); got != "middle" {
		t.Errorf("String() = %q, want %q", got, "middle")
	}
	if got := MouseButton(9).String(); got != "unknown" {
		t.Errorf("String() = %q, want %q", got, "unknown")
	}
}
