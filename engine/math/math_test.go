package math

import "testing"

func TestClamp(t *testing.T) {
	tests := []struct {
		name            string
		f, low, high, w float32
	}{
		{"inside", 0.5, 0, 1, 0.5},
		{"below", -2, 0, 1, 0},
		{"above", 3, 0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.f, tt.low, tt.high); got != tt.w {
				t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.f, tt.low, tt.high, got, tt.w)
			}
		})
	}
	if got := Clamp(12, 0, 10); got != 10 {
		t.Errorf("integer Clamp: expected 10, got %d", got)
	}
}

func TestVec3Operations(t *testing.T) {
	v := NewVec3(1, 2, 3)
	if got := v.Add(NewVec3(1, 1, 1)); got != NewVec3(2, 3, 4) {
		t.Errorf("Add: got %v", got)
	}
	if got := v.Scale(2); got != NewVec3(2, 4, 6) {
		t.Errorf("Scale: got %v", got)
	}
	p := IVec3{X: 1, Y: -2, Z: 3}
	if got := p.Add(IVec3{X: 1, Y: 1, Z: 1}).ToVec3(); got != NewVec3(2, -1, 4) {
		t.Errorf("IVec3 Add/ToVec3: got %v", got)
	}
}

func TestClampColour(t *testing.T) {
	got := ClampColour(Vec4{X: 1.5, Y: -0.5, Z: 0.25, W: 1})
	want := Vec4{X: 1, Y: 0, Z: 0.25, W: 1}
	if got != want {
		t.Errorf("ClampColour: expected %v, got %v", want, got)
	}
}
