package cfgtree

import (
	"os"

	"github.com/matzehuels/stackwright/pkg/errors"
)

// Source produces a configuration root on demand. Catalogs call Root on every
// load so a reload picks up edited files.
type Source interface {
	Root() (*Node, error)
}

// SourceFunc adapts a function to [Source].
type SourceFunc func() (*Node, error)

// Root calls f.
func (f SourceFunc) Root() (*Node, error) { return f() }

// Static returns a source that always yields root.
func Static(root *Node) Source {
	return SourceFunc(func() (*Node, error) { return root, nil })
}

// Bytes returns a source that parses src on every call.
func Bytes(src []byte, filename string) Source {
	return SourceFunc(func() (*Node, error) { return Parse(src, filename) })
}

// Paths returns a source reading the given files and directories. Directories
// are scanned recursively for *.hcl files.
func Paths(paths ...string) Source {
	return SourceFunc(func() (*Node, error) {
		root := NewNode("")
		for _, p := range paths {
			info, err := os.Stat(p)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config path %s", p)
			}
			var doc *Node
			if info.IsDir() {
				doc, err = LoadDir(p)
			} else {
				doc, err = ParseFile(p)
			}
			if err != nil {
				return nil, err
			}
			Merge(root, doc)
		}
		return root, nil
	})
}
