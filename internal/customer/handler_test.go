package customer

import (
	"testing"

	"padaria-backend/internal/database/dbtest"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"(11) 9999-0000":   "1199990000",
		" 11 99990000 ":    "1199990000",
		"+55 11 9999-0000": "+551199990000",
		"55+11":            "5511",
		"+":                "",
		" + ":              "",
		"()-":              "",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFindOrCreateReusesPhone(t *testing.T) {
	db := dbtest.New(t)

	first, err := FindOrCreate(db, "Ana", "(11) 9999-0000", "Rua A, 1")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	second, err := FindOrCreate(db, "Ana Maria", "11 99990000", "Rua B, 2")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same customer, got %d and %d", first.ID, second.ID)
	}
	if second.Name != "Ana" {
		t.Fatalf("existing customer renamed to %q", second.Name)
	}
}
