package entities

import "testing"

func TestNewMicapEntry(t *testing.T) {
	tests := []struct {
		active, need, want Quantity
	}{
		{0, 0, 0},
		{3, 5, 2},
		{5, 5, 0},
		{9, 5, 0},
		{0, 4, 4},
	}

	for _, tt := range tests {
		e := NewMicapEntry(1, tt.active, tt.need)
		if e.Micap != tt.want {
			t.Errorf("active=%d need=%d: expected MICAP %d, got %d", tt.active, tt.need, tt.want, e.Micap)
		}
		if e.Short() != (tt.want > 0) {
			t.Errorf("active=%d need=%d: Short() = %v", tt.active, tt.need, e.Short())
		}
	}
}
