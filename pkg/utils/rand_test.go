package utils

import (
	"testing"
)

func TestNewRandSource(t *testing.T) {
	rng1 := NewRandSource(12345)
	if rng1 == nil {
		t.Fatal("Expected RandSource to be created")
	}
	if rng1.Seed() != 12345 {
		t.Errorf("Expected seed 12345, got %d", rng1.Seed())
	}

	// Zero seed falls back to the clock
	rng2 := NewRandSource(0)
	if rng2.Seed() == 0 {
		t.Error("Expected a non-zero seed to be chosen")
	}
}

func TestRandSourceDeterministic(t *testing.T) {
	a := NewRandSource(42)
	b := NewRandSource(42)

	for i := 0; i < 50; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("sources with equal seeds diverged at draw %d", i)
		}
		if a.NormFloat64(1, 2) != b.NormFloat64(1, 2) {
			t.Fatalf("normal draws diverged at draw %d", i)
		}
	}
}

func TestRandSourceFloat64(t *testing.T) {
	rng := NewRandSource(12345)

	for i := 0; i < 100; i++ {
		val := rng.Float64()
		if val < 0 || val >= 1.0 {
			t.Errorf("Float64() returned value outside [0, 1): %f", val)
		}
	}
}

func TestRandSourceIntn(t *testing.T) {
	rng := NewRandSource(12345)

	for i := 0; i < 100; i++ {
		val := rng.Intn(10)
		if val < 0 || val >= 10 {
			t.Errorf("Intn(10) returned value outside [0, 10): %d", val)
		}
	}
}

func TestRandSourceUniform(t *testing.T) {
	rng := NewRandSource(7)

	for i := 0; i < 200; i++ {
		f := rng.UniformFloat64(2, 5)
		if f < 2 || f >= 5 {
			t.Errorf("UniformFloat64(2, 5) out of range: %f", f)
		}
		n := rng.UniformInt(3, 6)
		if n < 3 || n > 6 {
			t.Errorf("UniformInt(3, 6) out of range: %d", n)
		}
	}

	if got := rng.UniformInt(4, 4); got != 4 {
		t.Errorf("UniformInt(4, 4) = %d, want 4", got)
	}
}

func TestRandSourceBernoulli(t *testing.T) {
	rng := NewRandSource(12345)

	for i := 0; i < 100; i++ {
		if rng.BernoulliBool(0) {
			t.Fatal("BernoulliBool(0) returned true")
		}
		if !rng.BernoulliBool(1) {
			t.Fatal("BernoulliBool(1) returned false")
		}
	}
}
