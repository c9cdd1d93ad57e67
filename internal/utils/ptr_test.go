package utils

import "testing"

func TestPtr(t *testing.T) {
	p := Ptr(3)
	if *p != 3 {
		t.Fatalf("expected 3, got %d", *p)
	}

	*p = 4
	if q := Ptr(3); *q != 3 {
		t.Fatalf("expected a fresh pointer, got %d", *q)
	}
}
