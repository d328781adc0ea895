package validator

import (
	"testing"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidUUID(t *testing.T) {
	valid := []string{
		"0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", // v7
		"0188D0F2-7B8C-7B4A-8A2B-6B8B8B8B8B8B", // v7 (uppercase)
		"123e4567-e89b-42d3-a456-426614174000", // v4
	}
	invalid := []string{
		"123e4567-e89b-02d3-a456-426614174000", // version 0
		"123e4567-e89b-42d3-c456-426614174000", // bad variant
		"0188d0f27b8c7b4a8a2b6b8b8b8b8b8b",     // missing dashes
		"g188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", // invalid hex
		"",                                     // empty
	}
	for _, uuid := range valid {
		if !IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = false, want true", uuid)
		}
	}
	for _, uuid := range invalid {
		if IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = true, want false", uuid)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2023-01-01", "2000-12-31"}
	invalid := []string{"2023-13-01", "2023-01-32", "2023/01/01", "01-01-2023", ""}
	for _, s := range valid {
		_, ok := IsValidDate(s)
		if !ok {
			t.Errorf("IsValidDate(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		_, ok := IsValidDate(s)
		if ok {
			t.Errorf("IsValidDate(%q) = true, want false", s)
		}
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "type", Message: "invalid"},
		{Field: "timestamp", Message: "required"},
	}
	got := errs.Error()
	want := "type: invalid; timestamp: required"
	if got != want {
		t.Errorf("ValidationErrors.Error() = %q, want %q", got, want)
	}
}

func TestValidationErrors_ToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "type", Message: "invalid"},
		{Field: "timestamp", Message: "required"},
	}
	got := errs.ToMap()
	want := map[string]string{"type": "invalid", "timestamp": "required"}
	if len(got) != len(want) {
		t.Errorf("ValidationErrors.ToMap() length = %d, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("ValidationErrors.ToMap()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestParseDateRange(t *testing.T) {
	from, to, err := ParseDateRange("2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("ParseDateRange() error = %v", err)
	}
	if from.Day() != 1 || to.Day() != 31 {
		t.Errorf("ParseDateRange() = %v, %v", from, to)
	}

	_, _, err = ParseDateRange("2024-03-31", "2024-03-01")
	errs, ok := err.(ValidationErrors)
	if !ok || errs.ToMap()["to"] == "" {
		t.Errorf("ParseDateRange(reversed) error = %v, want to-field error", err)
	}

	_, _, err = ParseDateRange("", "bad")
	errs, ok = err.(ValidationErrors)
	if !ok || len(errs) != 2 {
		t.Errorf("ParseDateRange(empty) error = %v, want 2 field errors", err)
	}
}
