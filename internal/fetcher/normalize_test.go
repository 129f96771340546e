package fetcher

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"only whitespace", " \n\n\t\n ", ""},
		{"collapses blank runs", "Senior Go Engineer\n\n\n\nRemote", "Senior Go Engineer\nRemote"},
		{"trims lines", "   Title  \n\t Company \t", "Title\nCompany"},
		{"windows line endings", "Title\r\n\r\nCompany\r\n", "Title\nCompany"},
		{"inner spaces kept", "5+ years  of Go", "5+ years  of Go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"single line",
		"\n\n  We need a backend engineer  \n\n\n  with 5 years Go experience\n",
		"a\r\n\r\n\tb\n \n c  ",
		"already\nnormalized\ntext",
	}

	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}

func BenchmarkNormalize(b *testing.B) {
	text := "  Backend Engineer \n\n\n Requirements:\n  - Go\n\n  - Postgres \n"
	for b.Loop() {
		Normalize(text)
	}
}
