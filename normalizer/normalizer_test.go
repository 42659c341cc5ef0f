package normalizer

import (
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "parenthetical aside removed",
			input:    "вітамін D3 (холекальциферол)",
			expected: "вітамін D3",
		},
		{
			name:     "whitespace collapsed",
			input:    "  цитрат   магнію ",
			expected: "цитрат магнію",
		},
		{
			name:     "biotin synonym by code",
			input:    "вітамін В7 (біотин)",
			expected: "Біотин",
		},
		{
			name:     "biotin synonym by latin code",
			input:    "Vitamin B7",
			expected: "Біотин",
		},
		{
			name:     "empty after cleaning falls back to raw",
			input:    "(роз'яснення)",
			expected: "(роз'яснення)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCleanDisplay(t *testing.T) {
	got := CleanDisplay("екстракт\nзеленого  чаю")
	if got != "екстракт зеленого чаю" {
		t.Errorf("CleanDisplay = %q", got)
	}
}

func TestMatchKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "cyrillic vitamin B code",
			input:    "Вітамін В6",
			expected: "bітамін b6",
		},
		{
			name:     "standalone cyrillic C",
			input:    "вітамін С",
			expected: "bітамін c",
		},
		{
			name:     "K2 code with digit",
			input:    "вітамін К2",
			expected: "bітамін k2",
		},
		{
			name:     "ordinary word keeps its letters",
			input:    "Кальцій",
			expected: "кальцій",
		},
		{
			name:     "latin input only lowercased",
			input:    "Zinc Citrate",
			expected: "zinc citrate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchKey(tt.input); got != tt.expected {
				t.Errorf("MatchKey(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMatchKeySymmetry(t *testing.T) {
	// Catalog entries and label names run through the same function, so the
	// blanket В→b substitution must land identically on both sides.
	if MatchKey("вітамін В6") != MatchKey("Вітамін B6") {
		t.Errorf("cyrillic and latin vitamin codes should fold to the same key")
	}
}

func TestMatchKeys(t *testing.T) {
	keys := MatchKeys("цинк цитрат")
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys for a two-word name, got %d: %v", len(keys), keys)
	}
	if keys[0] != "цинк цитрат" || keys[1] != "цитрат цинк" {
		t.Errorf("unexpected permutations: %v", keys)
	}

	keys = MatchKeys("Селен")
	if len(keys) != 1 {
		t.Errorf("expected 1 key for a single word, got %v", keys)
	}

	keys = MatchKeys("екстракт зеленого чаю")
	if len(keys) != 1 {
		t.Errorf("expected no permutation for three words, got %v", keys)
	}
}

func TestPlantStem(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "extract with ratio",
			input:    "екстракт півонії (10:1)",
			expected: "півон",
		},
		{
			name:     "powder keyword stripped",
			input:    "порошок шипшини",
			expected: "шипши",
		},
		{
			name:     "short word kept whole",
			input:    "сік алое",
			expected: "алое",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlantStem(tt.input); got != tt.expected {
				t.Errorf("PlantStem(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExtractRatio(t *testing.T) {
	if got := ExtractRatio("екстракт женьшеню 10:1"); got != "10:1" {
		t.Errorf("ExtractRatio = %q, want 10:1", got)
	}
	if got := ExtractRatio("екстракт женьшеню"); got != "" {
		t.Errorf("ExtractRatio on plain name = %q, want empty", got)
	}
	if !strings.Contains("20:1", ExtractRatio("сухий екстракт (20:1)")) {
		t.Errorf("ratio inside parentheses should still be found")
	}
}
