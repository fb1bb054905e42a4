package profiler

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestSamples(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now))

	if _, ok := p.EndSample("SunShafts"); ok {
		t.Fatalf("EndSample() of unopened region ok = true")
	}

	for _, d := range []time.Duration{2 * time.Millisecond, 4 * time.Millisecond} {
		p.BeginSample("SunShafts")
		clock.advance(d)
		if got, ok := p.EndSample("SunShafts"); !ok || got != d {
			t.Errorf("EndSample() = %v, %v, want %v, true", got, ok, d)
		}
	}

	s, ok := p.Sample("SunShafts")
	if !ok {
		t.Fatalf("Sample() ok = false")
	}
	if s.Count != 2 || s.Max != 4*time.Millisecond || s.Average() != 3*time.Millisecond {
		t.Errorf("Sample() = %+v, avg %v", s, s.Average())
	}
}

func TestTickReportsOncePerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now), WithUpdateInterval(time.Second))

	p.BeginSample("frame")
	clock.advance(10 * time.Millisecond)
	p.EndSample("frame")

	if p.Tick() {
		t.Fatalf("Tick() = true before the interval elapsed")
	}
	clock.advance(time.Second)
	if !p.Tick() {
		t.Fatalf("Tick() = false after the interval elapsed")
	}
	if _, ok := p.Sample("frame"); ok {
		t.Errorf("Sample() still present after report")
	}
}

func TestSampleAverageEmpty(t *testing.T) {
	if got := (Sample{}).Average(); got != 0 {
		t.Errorf("Average() = %v, want 0", got)
	}
}
