// Package recolor holds per-section color data and its persisted string form.
//
// A section (nose, core or mount) carries an ordered list of [Color] values,
// one per recolorable channel of its texture set. The list round-trips through
// a compact string so it can live in a single persisted field:
//
//	r,g,b,a,specular,metallic,detail;r,g,b,a,specular,metallic,detail;...
//
// The trailing specular, metallic and detail components are optional when
// parsing and default to 0, 0 and 1.
package recolor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/stackwright/pkg/errors"
)

// Color is one recoloring channel.
type Color struct {
	R        float64 `json:"r" yaml:"r" toml:"r" msgpack:"r" bson:"r"`
	G        float64 `json:"g" yaml:"g" toml:"g" msgpack:"g" bson:"g"`
	B        float64 `json:"b" yaml:"b" toml:"b" msgpack:"b" bson:"b"`
	A        float64 `json:"a" yaml:"a" toml:"a" msgpack:"a" bson:"a"`
	Specular float64 `json:"specular" yaml:"specular" toml:"specular" msgpack:"specular" bson:"specular"`
	Metallic float64 `json:"metallic" yaml:"metallic" toml:"metallic" msgpack:"metallic" bson:"metallic"`
	Detail   float64 `json:"detail" yaml:"detail" toml:"detail" msgpack:"detail" bson:"detail"`
}

// White is the neutral color used when a texture set defines none.
var White = Color{R: 1, G: 1, B: 1, A: 1, Detail: 1}

const (
	colorSep = ";"
	fieldSep = ","
)

// String returns the persisted form of a single color.
func (c Color) String() string {
	vals := []float64{c.R, c.G, c.B, c.A, c.Specular, c.Metallic, c.Detail}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, fieldSep)
}

// Hex returns the RGB channels as a #rrggbb string, clamped to [0,1].
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) int {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return int(v*255 + 0.5)
}

// ParseColor parses a single "r,g,b,a[,spec[,metal[,detail]]]" tuple or a
// "#rrggbb[aa]" hex color.
func ParseColor(s string) (Color, error) {
	if h := strings.TrimSpace(s); strings.HasPrefix(h, "#") {
		return parseHex(h)
	}
	fields := strings.Split(strings.TrimSpace(s), fieldSep)
	if len(fields) < 4 || len(fields) > 7 {
		return Color{}, errors.New(errors.ErrCodeInvalidFormat, "color %q: want 4 to 7 components, got %d", s, len(fields))
	}
	vals := []float64{0, 0, 0, 0, 0, 0, 1}
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Color{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "color %q component %d", s, i)
		}
		vals[i] = v
	}
	return Color{
		R: vals[0], G: vals[1], B: vals[2], A: vals[3],
		Specular: vals[4], Metallic: vals[5], Detail: vals[6],
	}, nil
}

func parseHex(s string) (Color, error) {
	digits := s[1:]
	switch len(digits) {
	case 6:
		digits += "ff"
	case 8:
	default:
		return Color{}, errors.New(errors.ErrCodeInvalidFormat, "color %q: want #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return Color{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "color %q", s)
	}
	ch := func(shift uint) float64 { return float64(v>>shift&0xff) / 255 }
	return Color{R: ch(24), G: ch(16), B: ch(8), A: ch(0), Detail: 1}, nil
}

// Parse decodes a persisted color list. An empty string yields nil.
func Parse(s string) ([]Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []Color
	for _, part := range strings.Split(s, colorSep) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := ParseColor(part)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Format encodes a color list into its persisted form.
func Format(colors []Color) string {
	parts := make([]string, len(colors))
	for i, c := range colors {
		parts[i] = c.String()
	}
	return strings.Join(parts, colorSep)
}

// Clone returns a copy of colors that shares no backing array.
func Clone(colors []Color) []Color {
	if colors == nil {
		return nil
	}
	return append([]Color(nil), colors...)
}
