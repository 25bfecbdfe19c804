package heap

import "testing"

func TestSemispaceBumpAllocation(t *testing.T) {
	s, err := newSemispace(4096)
	if err != nil {
		t.Fatalf("newSemispace: %v", err)
	}
	defer s.free()

	a0, ok := s.tryAllocate(32)
	if !ok {
		t.Fatal("first allocation should succeed")
	}
	if a0 != s.base {
		t.Fatalf("first allocation should start at base: got %x want %x", a0, s.base)
	}
	a1, ok := s.tryAllocate(32)
	if !ok || a1 != a0+32 {
		t.Fatalf("second allocation should follow immediately: got %x want %x", a1, a0+32)
	}
	if s.used() != 64 {
		t.Fatalf("used() = %d, want 64", s.used())
	}
}

func TestSemispaceAllocationFailsPastLimit(t *testing.T) {
	s, err := newSemispace(64)
	if err != nil {
		t.Fatalf("newSemispace: %v", err)
	}
	defer s.free()

	if _, ok := s.tryAllocate(64); !ok {
		t.Fatal("allocation exactly filling the space should succeed")
	}
	if _, ok := s.tryAllocate(8); ok {
		t.Fatal("allocation past the limit should fail")
	}
}

func TestGrowTargetSizeDoublesUntilSufficient(t *testing.T) {
	cases := []struct {
		current, requested, want int
	}{
		{64, 32, 128},
		{64, 100, 256},
		{1024, 1, 2048},
	}
	for _, c := range cases {
		got := growTargetSize(c.current, c.requested)
		if got != c.want {
			t.Errorf("growTargetSize(%d, %d) = %d, want %d", c.current, c.requested, got, c.want)
		}
	}
}

func TestSemispaceWordReadWrite(t *testing.T) {
	s, err := newSemispace(4096)
	if err != nil {
		t.Fatalf("newSemispace: %v", err)
	}
	defer s.free()

	addr := s.base
	s.setWordAt(addr, 0xdeadbeef)
	if got := s.wordAt(addr); got != 0xdeadbeef {
		t.Fatalf("wordAt() = %x, want deadbeef", got)
	}
}
