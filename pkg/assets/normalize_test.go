package assets

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"lower", "Mouth/ほあー", "mouth/ほあー"},
		{"full width", "ＭＯＵＴＨ／ほあー", "mouth/ほあー"},
		{"backslash", `目\目セット\普通白目`, "目/目セット/普通白目"},
		{"whitespace", " 目 / 普通 目\t", "目/普通目"},
		{"ideographic space", "普通　目", "普通目"},
		{"zero width", "普\u200b通\u200d目", "普通目"},
		{"pos suffix", "!口/むふ_pos_10_20_300_400.png", "!口/むふ.png"},
		{"leading underscores", "__服装1/_左腕", "服装1/左腕"},
		{"underscores elided", "!口/_ほあー_", "!口/ほあー"},
		{"repeated separators", "目//目セット///黒目", "目/目セット/黒目"},
		{"markers kept", "*基本*", "*基本*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Mouth/ほあー",
		"mouth/ほあー",
		"ＭＯＵＴＨ/ほあー",
		"_服装1/!左腕/*基本*_pos_0_0_1082_1650.png",
		"Ｅｙｅｓ  / _Normal_ ",
		"目\\\\目セット//黒目/普通目2",
		"ﬀßK",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestNormalize_ComposesMarks(t *testing.T) {
	tests := map[string]string{
		"か゛":            "\u304c",
		"か_\u3099":      "\u304c",
		"e \u0301":      "\u00e9",
		"e\u200b\u0301": "\u00e9",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
	if Normalize("か゛") != Normalize("が") {
		t.Error("spacing dakuten does not match the composed letter")
	}
}

func TestNormalize_CaseAndWidthInsensitive(t *testing.T) {
	a := Normalize("Mouth/ほあー")
	b := Normalize("mouth/ほあー")
	c := Normalize(Normalize("Mouth/ほあー"))
	if a != b || b != c {
		t.Fatalf("keys differ: %q %q %q", a, b, c)
	}
}

func TestStripMarkers(t *testing.T) {
	tests := map[string]string{
		"_服装1/!左腕/*基本*": "_服装1/左腕/基本",
		"！口/＊むふ":         "口/むふ",
		"plain":           "plain",
	}
	for in, want := range tests {
		if got := StripMarkers(in); got != want {
			t.Errorf("StripMarkers(%q) = %q, want %q", in, got, want)
		}
	}
}
