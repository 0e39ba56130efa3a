package translator

import "testing"

func TestMapped(t *testing.T) {
	r := &Result{Names: map[string]string{"uMVPMatrix": "_uuMVPMatrix", "model": ""}}
	tests := map[string]string{
		"uMVPMatrix": "_uuMVPMatrix",
		"model":      "model",
		"missing":    "missing",
	}
	for in, want := range tests {
		if got := r.Mapped(in); got != want {
			t.Errorf("Mapped(%q) = %q, want %q", in, got, want)
		}
	}

	var empty Result
	if got := empty.Mapped("x"); got != "x" {
		t.Errorf("nil map: Mapped = %q", got)
	}
}
