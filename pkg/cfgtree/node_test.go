package cfgtree

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/matzehuels/stackwright/pkg/errors"
)

const partDoc = `
title = "Tank"

part "tank" {
  diameter     = 2.5
  enable_vscale = "true"
  node_names   = "top, bottom"

  NOSE {
    model = ["nose-cone", "nose-flat"]
  }
  CORE {
    variant = "Long"
    model   = "core-long"
  }
  MOUNT {
    model = []
  }
}

layout "default" {
  title = "Default"
  position {
    position = [0, 1.5, 0]
    scale    = "1,2,1"
  }
  position {}
}
`

func TestParse(t *testing.T) {
	root, err := Parse([]byte(partDoc), "part.hcl")
	require.NoError(t, err)

	assert.Equal(t, "Tank", root.String("title", ""))
	require.Len(t, root.Children, 2)

	part := root.BlockNamed("part", "tank")
	require.NotNil(t, part)
	assert.InDelta(t, 2.5, part.Float("diameter", 0), 1e-9)
	assert.True(t, part.Bool("enable_vscale", false))
	assert.Equal(t, []string{"top", "bottom"}, part.Strings("node_names"))

	assert.Equal(t, []string{"nose-cone", "nose-flat"}, part.Block("NOSE").Strings("model"))
	assert.Equal(t, []string{"core-long"}, part.Block("CORE").Strings("model"))
	assert.Equal(t, "Long", part.Block("CORE").String("variant", "Default"))
	assert.Empty(t, part.Block("MOUNT").Strings("model"))

	layout := root.BlockNamed("layout", "default")
	require.NotNil(t, layout)
	positions := layout.Blocks("position")
	require.Len(t, positions, 2)
	assert.Equal(t, []float64{0, 1.5, 0}, positions[0].Floats("position"))
	assert.Equal(t, []float64{1, 2, 1}, positions[0].Floats("scale"))
	assert.Nil(t, positions[1].Floats("position"))
}

func TestKeysPreserveOrder(t *testing.T) {
	root, err := Parse([]byte("b = 1\na = 2\nc = 3\n"), "order.hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, root.Keys())
}

func TestAccessorDefaults(t *testing.T) {
	n := NewNode("x").
		Set("bad", cty.StringVal("abc")).
		Set("null", cty.NullVal(cty.Number))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"missing string", n.String("missing", "d"), "d"},
		{"missing float", n.Float("missing", 1.25), 1.25},
		{"unconvertible float", n.Float("bad", 3), 3.0},
		{"null float", n.Float("null", 4), 4.0},
		{"unconvertible bool", n.Bool("bad", true), true},
		{"missing int", n.Int("missing", 7), 7},
		{"floats or default", n.FloatsOr("missing", 3, []float64{1, 1, 1}), []float64{1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}

	var nilNode *Node
	assert.Equal(t, "", nilNode.Name())
	assert.False(t, nilNode.Has("x"))
	assert.Nil(t, nilNode.Block("x"))
	assert.Equal(t, 2.0, nilNode.Float("x", 2))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", "part \"a\" {"},
		{"variable reference", "x = var.y\n"},
		{"function call", "x = upper(\"a\")\n"},
		{"two arguments on one line", "model \"a\" { diameter = 2.5 height = 6 }\n"},
		{"nested block on one line", "layout \"a\" { position {} }\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.hcl")
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Parse() error = %v, want code %v", err, errors.ErrCodeInvalidConfig)
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hcl"), []byte(`layout "a" {}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.hcl"), []byte(`layout "b" {}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte(`nope {`), 0o644))

	root, err := LoadDir(dir)
	require.NoError(t, err)

	layouts := root.Blocks("layout")
	require.Len(t, layouts, 2)
	assert.Equal(t, "a", layouts[0].Name())
	assert.Equal(t, "b", layouts[1].Name())
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.hcl"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ParseFile() error = %v, want code %v", err, errors.ErrCodeFileNotFound)
	}
}

func TestPathsSource(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "one.hcl")
	require.NoError(t, os.WriteFile(file, []byte(`model "a" {}`), 0o644))
	sub := filepath.Join(dir, "more")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "two.hcl"), []byte(`model "b" {}`), 0o644))

	root, err := Paths(file, sub).Root()
	require.NoError(t, err)
	assert.Len(t, root.Blocks("model"), 2)

	_, err = Paths(filepath.Join(dir, "missing")).Root()
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestMarshalJSON(t *testing.T) {
	encode := func(src string) string {
		t.Helper()
		root, err := Parse([]byte(src), "part.hcl")
		require.NoError(t, err)
		data, err := json.Marshal(root.BlockNamed("part", "tank"))
		require.NoError(t, err)
		return string(data)
	}

	base := encode(partDoc)
	assert.Equal(t, base, encode(partDoc))
	assert.Contains(t, base, `"key":"diameter","value":2.5`)
	assert.Contains(t, base, `"core-long"`)

	edited := encode(strings.Replace(partDoc, `model   = "core-long"`, `model   = "core-short"`, 1))
	assert.NotEqual(t, base, edited, "nested attribute edits must change the encoding")
}
