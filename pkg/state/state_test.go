package state

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stackwright/pkg/cache"
	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/settings"
)

func sample() State {
	return State{
		Part:     "tank",
		Diameter: 3.75,
		VScale:   -0.25,
		Variant:  "Long",
		Nose:     Segment{Model: "nose-cone", Texture: "white"},
		Core:     Segment{Model: "core-a", Texture: "red", Colors: "1,0,0,1,0,0,1;0.5,0.5,0.5,1,0,0,1"},
		Mount:    Segment{Model: "mount-skirt"},

		Initialized: true,
	}
}

func TestCodecs(t *testing.T) {
	for _, f := range Formats {
		t.Run(string(f), func(t *testing.T) {
			data, err := Marshal(sample(), f)
			require.NoError(t, err)
			got, err := Unmarshal(data, f)
			require.NoError(t, err)
			assert.Equal(t, sample(), got)
		})
	}
}

func TestTextFormats(t *testing.T) {
	y, err := Marshal(sample(), FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(y), "variant: Long")
	assert.NotContains(t, string(y), "colors: \"\"", "empty recolor omitted")

	tm, err := Marshal(sample(), FormatTOML)
	require.NoError(t, err)
	assert.Contains(t, string(tm), "[core]")
	assert.Contains(t, string(tm), `model = "core-a"`)
}

func TestUnmarshalValidates(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.Code
	}{
		{"bad json", `{"part":`, errors.ErrCodeInvalidFormat},
		{"no part", `{"diameter": 1}`, errors.ErrCodeInvalidName},
		{"negative diameter", `{"part":"tank","diameter":-1}`, errors.ErrCodeInvalidValue},
		{"vscale range", `{"part":"tank","diameter":1,"vscale":2}`, errors.ErrCodeInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.doc), FormatJSON)
			assert.Equal(t, tt.code, errors.GetCode(err), "err = %v", err)
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"json", FormatJSON, true},
		{".YML", FormatYAML, true},
		{"toml", FormatTOML, true},
		{"mpk", FormatMsgpack, true},
		{"xml", "", false},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.json", "a.yaml", "a.toml", "a.msgpack"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, sample()))
		got, err := ReadFile(path)
		require.NoError(t, err, name)
		assert.Equal(t, sample(), got, name)
	}

	_, err := ReadFile(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.IsNotFound(err))
	assert.Error(t, WriteFile(filepath.Join(dir, "a.txt"), sample()))
}

func TestHashStable(t *testing.T) {
	a, b := sample(), sample()
	assert.Equal(t, a.Hash(), b.Hash())
	b.Diameter = 4
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestCacheStore(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	s := NewCacheStore(fc, cache.NewScopedKeyer(nil, "ws:test:"), 0)
	defer s.Close()

	_, err = s.Load(ctx, "tank", "left")
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, s.Save(ctx, "left", sample()))
	got, err := s.Load(ctx, "tank", "LEFT")
	require.NoError(t, err)
	assert.Equal(t, sample(), got)

	require.NoError(t, s.Delete(ctx, "tank", "left"))
	_, err = s.Load(ctx, "tank", "left")
	assert.True(t, errors.IsNotFound(err))

	bad := sample()
	bad.VScale = 3
	assert.Error(t, s.Save(ctx, "left", bad))
	assert.Error(t, s.Save(ctx, " ", sample()))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, settings.Store{Backend: settings.BackendFile}, dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "one", sample()))
	s.Close()

	s, err = Open(ctx, settings.Store{Backend: settings.BackendFile}, dir, nil)
	require.NoError(t, err)
	_, err = s.Load(ctx, "tank", "one")
	assert.NoError(t, err, "file store persists across opens")

	none, err := Open(ctx, settings.Store{Backend: settings.BackendNone}, "", nil)
	require.NoError(t, err)
	require.NoError(t, none.Save(ctx, "one", sample()))
	_, err = none.Load(ctx, "tank", "one")
	assert.True(t, errors.IsNotFound(err))

	_, err = Open(ctx, settings.Store{Backend: "s3"}, "", nil)
	assert.True(t, strings.Contains(err.Error(), "s3"))
}
