package rng

import "testing"

func TestNewDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		av, bv := a.Float64(), b.Float64()
		if av != bv {
			t.Fatalf("draw %d diverged: %v != %v", i, av, bv)
		}
	}
}

func TestFloat64Range(t *testing.T) {
	r := New(1)
	for i := 0; i < 1000; i++ {
		v := r.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("Float64 out of range: %v", v)
		}
	}
}

func TestIntnBounds(t *testing.T) {
	r := New(7)
	for i := 0; i < 500; i++ {
		v := r.Intn(10)
		if v < 0 || v >= 10 {
			t.Fatalf("Intn(10) out of range: %v", v)
		}
	}
	if r.Intn(0) != 0 {
		t.Fatalf("Intn(0) should return 0")
	}
}

func TestUniformBounds(t *testing.T) {
	r := New(3)
	for i := 0; i < 500; i++ {
		v := r.Uniform(10, 20)
		if v < 10 || v > 20 {
			t.Fatalf("Uniform(10,20) out of range: %v", v)
		}
	}
}

func TestStateRoundTrip(t *testing.T) {
	r := New(99)
	_ = r.Float64()
	_ = r.Float64()
	b := r.StateBytes()

	want := r.Float64()

	r2 := New(1)
	r2.RestoreStateBytes(b)
	got := r2.Float64()

	if got != want {
		t.Fatalf("state round trip mismatch: got %v want %v", got, want)
	}
}

func TestGaussianFinite(t *testing.T) {
	r := New(5)
	for i := 0; i < 200; i++ {
		v := r.Gaussian()
		if v != v { // NaN check
			t.Fatalf("Gaussian produced NaN")
		}
	}
}
