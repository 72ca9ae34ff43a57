package recolor

import (
	"testing"

	"github.com/matzehuels/stackwright/pkg/errors"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		n    int
	}{
		{"empty", "", "", 0},
		{"single full", "1,0.5,0,1,0.2,0.3,1", "1,0.5,0,1,0.2,0.3,1", 1},
		{"defaults for optional", "1,1,1,1", "1,1,1,1,0,0,1", 1},
		{"two colors", "1,0,0,1;0,0,1,1,0,1", "1,0,0,1,0,0,1;0,0,1,1,0,1,1", 2},
		{"trailing separator", "0,0,0,1;", "0,0,0,1,0,0,1", 1},
		{"whitespace", " 1, 0, 0, 1 ", "1,0,0,1,0,0,1", 1},
		{"hex", "#ff0000", "1,0,0,1,0,0,1", 1},
		{"hex with alpha", "#00ff0000; #0000FF", "0,1,0,0,0,0,1;0,0,1,1,0,0,1", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			colors, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			if len(colors) != tt.n {
				t.Fatalf("Parse(%q) len = %d, want %d", tt.in, len(colors), tt.n)
			}
			if got := Format(colors); got != tt.want {
				t.Errorf("Format(Parse(%q)) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"1,1,1", "1,1,1,1,1,1,1,1", "a,b,c,d", "#fff", "#gggggg", "#ff00ff00ff"} {
		if _, err := Parse(in); !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("Parse(%q) error = %v, want %v", in, err, errors.ErrCodeInvalidFormat)
		}
	}
}

func TestHex(t *testing.T) {
	tests := []struct {
		c    Color
		want string
	}{
		{White, "#ffffff"},
		{Color{R: 1}, "#ff0000"},
		{Color{R: -1, G: 2, B: 0.5}, "#00ff80"},
	}
	for _, tt := range tests {
		if got := tt.c.Hex(); got != tt.want {
			t.Errorf("%v.Hex() = %v, want %v", tt.c, got, tt.want)
		}
	}
}

func TestClone(t *testing.T) {
	orig := []Color{White}
	cp := Clone(orig)
	cp[0].R = 0
	if orig[0].R != 1 {
		t.Error("Clone() shares backing array with input")
	}
	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}
