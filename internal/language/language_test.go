package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"ur", "ur"},
		{"eng", "en"},
		{"urd", "ur"},
		{"fre", "fr"},
		{"chi", "zh"},
		{"japanese", "ja"},
		{"GERMAN", "de"},
		{"xy", "xy"},
		{"xyz", ""},
		{"", ""},
		{" ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToISO2(tt.input); got != tt.expected {
				t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPromptName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "English"},
		{"ur", "Urdu"},
		{"hi", "Hindi"},
		{"ar", "Arabic"},
		{"fr", "French"},
		{"es", "Spanish"},
		{"de", "German"},
		{"it", "Italian"},
		{"pt", "Portuguese"},
		{"ru", "Russian"},
		{"ja", "Japanese"},
		{"ko", "Korean"},
		{"zh", "Chinese"},
		// Anything outside the table keys passes through verbatim.
		{"FR", "FR"},
		{"fra", "fra"},
		{"french", "french"},
		{"xx", "xx"},
		{"tlh", "tlh"},
		{"Klingon", "Klingon"},
		{"swahili", "swahili"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := PromptName(tt.input); got != tt.expected {
				t.Errorf("PromptName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName(""); got != "Unknown" {
		t.Fatalf("DisplayName(\"\") = %q", got)
	}
	if got := DisplayName("ko"); got != "Korean" {
		t.Fatalf("DisplayName(ko) = %q", got)
	}
	if got := DisplayName("xx"); got != "XX" {
		t.Fatalf("DisplayName(xx) = %q", got)
	}
	if got := DisplayName("fre"); got != "French" {
		t.Fatalf("DisplayName(fre) = %q", got)
	}
	if got := DisplayName("swahili"); got != "Swahili" {
		t.Fatalf("DisplayName(swahili) = %q", got)
	}
}

func TestCodesCoverTable(t *testing.T) {
	codes := Codes()
	if len(codes) != 13 {
		t.Fatalf("expected 13 codes, got %d", len(codes))
	}
	for _, code := range codes {
		if !Known(code) {
			t.Fatalf("code %q should be known", code)
		}
	}
	if Known("xx") {
		t.Fatal("xx should not be known")
	}
}
