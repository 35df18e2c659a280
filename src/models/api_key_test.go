package models

import "testing"

func TestMaskKey(t *testing.T) {
	key := "ssg_0123456789abcdef0123456789abcdef0123456789abcdef"
	got := MaskKey(key)
	if got != "ssg_012345...cdef" {
		t.Errorf("unexpected mask: %s", got)
	}

	if MaskKey("short") != "short" {
		t.Error("short keys should be returned unchanged")
	}
}

func TestKeyType_Valid(t *testing.T) {
	if !KeyTypeDev.Valid() || !KeyTypeProd.Valid() {
		t.Error("dev and prod must be valid")
	}
	if KeyType("staging").Valid() {
		t.Error("unknown type should be invalid")
	}
	if KeyType("").Valid() {
		t.Error("empty type should be invalid")
	}
}
