package render_target

import (
	"errors"
	"testing"
)

func TestDescriptorValidate(t *testing.T) {
	tests := []struct {
		name    string
		d       Descriptor
		wantErr bool
	}{
		{"valid", Descriptor{Width: 4, Height: 2}, false},
		{"zero width", Descriptor{Width: 0, Height: 2}, true},
		{"negative height", Descriptor{Width: 4, Height: -1}, true},
		{"unknown format", Descriptor{Width: 4, Height: 4, Format: Format(42)}, true},
		{"negative depth", Descriptor{Width: 4, Height: 4, DepthBits: -8}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDescriptor) {
				t.Errorf("Validate() error = %v, want ErrInvalidDescriptor", err)
			}
		})
	}
}

func TestPoolReusesMatchingDescriptor(t *testing.T) {
	p := NewPool()
	d := Descriptor{Width: 960, Height: 540}

	a, err := p.GetTemporary(d)
	if err != nil {
		t.Fatalf("GetTemporary() error = %v", err)
	}
	if err := p.ReleaseTemporary(a); err != nil {
		t.Fatalf("ReleaseTemporary() error = %v", err)
	}

	b, err := p.GetTemporary(d)
	if err != nil {
		t.Fatalf("GetTemporary() error = %v", err)
	}
	if b.Handle != a.Handle {
		t.Errorf("GetTemporary() handle = %d, want reused %d", b.Handle, a.Handle)
	}

	c, err := p.GetTemporary(Descriptor{Width: 960, Height: 540, Format: FormatDefaultHDR})
	if err != nil {
		t.Fatalf("GetTemporary() error = %v", err)
	}
	if c.Handle == b.Handle {
		t.Errorf("GetTemporary() reused handle %d across formats", c.Handle)
	}

	if got := p.Allocations(); got != 2 {
		t.Errorf("Allocations() = %d, want 2", got)
	}
	if got := p.Outstanding(); got != 2 {
		t.Errorf("Outstanding() = %d, want 2", got)
	}
}

func TestPoolReleaseErrors(t *testing.T) {
	p := NewPool()

	tmp, err := p.GetTemporary(Descriptor{Width: 8, Height: 8})
	if err != nil {
		t.Fatalf("GetTemporary() error = %v", err)
	}
	if err := p.ReleaseTemporary(tmp); err != nil {
		t.Fatalf("ReleaseTemporary() error = %v", err)
	}
	if err := p.ReleaseTemporary(tmp); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("second ReleaseTemporary() error = %v, want ErrUnknownHandle", err)
	}

	ext, err := p.External("camera_color", Descriptor{Width: 8, Height: 8})
	if err != nil {
		t.Fatalf("External() error = %v", err)
	}
	if !ext.External {
		t.Errorf("External().External = false, want true")
	}
	if err := p.ReleaseTemporary(ext); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("ReleaseTemporary(external) error = %v, want ErrUnknownHandle", err)
	}
	if err := p.ReleaseTemporary(Target{}); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("ReleaseTemporary(zero) error = %v, want ErrUnknownHandle", err)
	}
	if got := p.Outstanding(); got != 0 {
		t.Errorf("Outstanding() = %d, want 0", got)
	}
}

func TestPoolCapacity(t *testing.T) {
	p := NewPool(WithCapacity(2))
	d := Descriptor{Width: 4, Height: 4}

	a, _ := p.GetTemporary(d)
	if _, err := p.GetTemporary(d); err != nil {
		t.Fatalf("GetTemporary() error = %v", err)
	}
	if _, err := p.GetTemporary(d); !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("GetTemporary() error = %v, want ErrPoolExhausted", err)
	}
	if err := p.ReleaseTemporary(a); err != nil {
		t.Fatalf("ReleaseTemporary() error = %v", err)
	}
	if _, err := p.GetTemporary(d); err != nil {
		t.Errorf("GetTemporary() after release error = %v", err)
	}
}

func TestLookup(t *testing.T) {
	p := NewPool()
	tmp, _ := p.GetTemporary(Descriptor{Width: 2, Height: 2})
	got, ok := p.Lookup(tmp.Handle)
	if !ok || got != tmp {
		t.Errorf("Lookup(%d) = %v, %v, want %v, true", tmp.Handle, got, ok, tmp)
	}
	if _, ok := p.Lookup(999); ok {
		t.Errorf("Lookup(999) ok = true, want false")
	}
}
