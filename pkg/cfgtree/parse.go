package cfgtree

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/matzehuels/stackwright/pkg/errors"
)

// Ext is the file extension picked up by [LoadDir].
const Ext = ".hcl"

// Parse reads an HCL document and returns its root node. The root has an empty
// Type; top-level blocks are its children.
func Parse(src []byte, filename string) (*Node, error) {
	return parseWith(hclparse.NewParser(), src, filename)
}

// ParseFile reads and parses a single HCL file.
func ParseFile(path string) (*Node, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(src, path)
}

// LoadDir parses every *.hcl file under dir (recursively, in lexical order) and
// merges their top-level blocks into one root.
func LoadDir(dir string) (*Node, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == Ext {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "scan %s", dir)
	}
	sort.Strings(files)
	return LoadFiles(files...)
}

// LoadFiles parses the given files and merges their top-level blocks.
func LoadFiles(paths ...string) (*Node, error) {
	parser := hclparse.NewParser()
	root := NewNode("")
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		doc, err := parseWith(parser, src, path)
		if err != nil {
			return nil, err
		}
		Merge(root, doc)
	}
	return root, nil
}

// Merge appends src's attributes and blocks to dst. Later attributes overwrite
// earlier ones with the same key.
func Merge(dst, src *Node) {
	for _, k := range src.keys {
		dst.Set(k, src.values[k])
	}
	dst.Children = append(dst.Children, src.Children...)
}

func parseWith(parser *hclparse.Parser, src []byte, filename string) (*Node, error) {
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, diags, "parse %s", filename)
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "%s: not native HCL syntax", filename)
	}
	root := NewNode("")
	if err := fill(root, body); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", filename)
	}
	return root, nil
}

func fill(n *Node, body *hclsyntax.Body) error {
	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, a := range body.Attributes {
		attrs = append(attrs, a)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].SrcRange.Start.Byte < attrs[j].SrcRange.Start.Byte
	})

	var diags hcl.Diagnostics
	for _, a := range attrs {
		v, d := a.Expr.Value(nil)
		if d.HasErrors() {
			diags = append(diags, d...)
			continue
		}
		n.Set(a.Name, v)
	}
	if diags.HasErrors() {
		return diags
	}

	for _, b := range body.Blocks {
		child := NewNode(b.Type, b.Labels...)
		if err := fill(child, b.Body); err != nil {
			return err
		}
		n.Add(child)
	}
	return nil
}
