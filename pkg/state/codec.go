package state

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/stackwright/pkg/errors"
)

// Format is a state serialization format.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatTOML    Format = "toml"
	FormatMsgpack Format = "msgpack"
)

// Formats lists supported formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatTOML, FormatMsgpack}

// ParseFormat parses a format name. "yml" and "mpk" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "msgpack", "mpk":
		return FormatMsgpack, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown state format %q", s)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Marshal encodes s.
func Marshal(s State, f Format) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch f {
	case FormatJSON:
		data, err = json.MarshalIndent(s, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(s)
	case FormatTOML:
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(s)
		data = buf.Bytes()
	case FormatMsgpack:
		data, err = msgpack.Marshal(s)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown state format %q", f)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode state as %s", f)
	}
	return data, nil
}

// Unmarshal decodes and validates a state.
func Unmarshal(data []byte, f Format) (State, error) {
	var s State
	var err error
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, &s)
	case FormatYAML:
		err = yaml.Unmarshal(data, &s)
	case FormatTOML:
		_, err = toml.Decode(string(data), &s)
	case FormatMsgpack:
		err = msgpack.Unmarshal(data, &s)
	default:
		return s, errors.New(errors.ErrCodeInvalidFormat, "unknown state format %q", f)
	}
	if err != nil {
		return s, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s state", f)
	}
	return s, s.Validate()
}

// ReadFile loads a state file, inferring the format from its extension.
func ReadFile(path string) (State, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return State{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "state %s", path)
		}
		return State{}, errors.Wrap(errors.ErrCodeStorage, err, "read state %s", path)
	}
	return Unmarshal(data, f)
}

// WriteFile saves s, inferring the format from the extension.
func WriteFile(path string, s State) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Marshal(s, f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write state %s", path)
	}
	return nil
}
