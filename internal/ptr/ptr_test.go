package ptr_test

import (
	"testing"

	"github.com/myrjola/petrasession/internal/ptr"
)

func TestRef(t *testing.T) {
	w := 82.5
	p := ptr.Ref(w)
	if p == nil || *p != w {
		t.Fatalf("Expected pointer to %v, got %v", w, p)
	}
	w = 90
	if *p == w {
		t.Errorf("Pointer value should not change when original value is modified")
	}
}

func TestValueOr(t *testing.T) {
	if got := ptr.ValueOr[int](nil, 3); got != 3 {
		t.Errorf("Expected fallback 3, got %d", got)
	}
	if got := ptr.ValueOr(ptr.Ref(5), 3); got != 5 {
		t.Errorf("Expected 5, got %d", got)
	}
}

func TestClone(t *testing.T) {
	if ptr.Clone[string](nil) != nil {
		t.Fatal("Expected nil clone of nil pointer")
	}
	orig := ptr.Ref("8-10")
	clone := ptr.Clone(orig)
	if clone == orig {
		t.Fatal("Expected a distinct pointer")
	}
	*clone = "12"
	if *orig != "8-10" {
		t.Errorf("Expected original to stay %q, got %q", "8-10", *orig)
	}
}
