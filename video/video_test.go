package video

import "testing"

func TestNullSurfaceNeverQuitsAndAcceptsAnyFrame(t *testing.T) {
	var s Surface = NullSurface{}
	if err := s.Present([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if s.ShouldQuit() {
		t.Fatal("NullSurface should never request quit")
	}
}
