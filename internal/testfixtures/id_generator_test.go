package testfixtures

import "testing"

func TestIDGeneratorProducesSequentialIDs(t *testing.T) {
	gen := NewIDGenerator("appt")

	first := gen.Next()
	second := gen.Next()

	if first != "appt-1" || second != "appt-2" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}
}

func TestIDGeneratorCanReset(t *testing.T) {
	gen := NewIDGenerator("")
	if first := gen.Next(); first != "id-1" {
		t.Fatalf("expected default prefix, got %q", first)
	}
	gen.Reset("staff")

	if next := gen.Next(); next != "staff-1" {
		t.Fatalf("expected staff-1 after reset, got %q", next)
	}
	var nilGen *IDGenerator
	if nilGen.NextFunc() != nil {
		t.Fatalf("expected nil generator to yield no function")
	}
}
