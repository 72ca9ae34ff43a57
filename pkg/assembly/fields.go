package assembly

import (
	"strconv"
	"strings"

	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/segment"
)

// Field identifies a user-editable assembly field.
type Field int

const (
	FieldDiameter Field = iota
	FieldVScale
	FieldVariant
	FieldNoseModel
	FieldCoreModel
	FieldMountModel
	FieldNoseTexture
	FieldCoreTexture
	FieldMountTexture
)

// AllFields lists fields in display order.
var AllFields = []Field{
	FieldDiameter, FieldVScale, FieldVariant,
	FieldNoseModel, FieldCoreModel, FieldMountModel,
	FieldNoseTexture, FieldCoreTexture, FieldMountTexture,
}

var fieldNames = map[Field]string{
	FieldDiameter:     "diameter",
	FieldVScale:       "vscale",
	FieldVariant:      "variant",
	FieldNoseModel:    "nose_model",
	FieldCoreModel:    "core_model",
	FieldMountModel:   "mount_model",
	FieldNoseTexture:  "nose_texture",
	FieldCoreTexture:  "core_texture",
	FieldMountTexture: "mount_texture",
}

func (f Field) String() string {
	if s, ok := fieldNames[f]; ok {
		return s
	}
	return "field(" + strconv.Itoa(int(f)) + ")"
}

// ParseField parses a field name such as "diameter" or "core_model".
// Dashes are accepted in place of underscores.
func ParseField(s string) (Field, error) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for f, name := range fieldNames {
		if name == s {
			return f, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidField, "unknown field %q", s)
}

// Kind is the value type of a field.
type Kind string

const (
	KindNumber Kind = "number"
	KindChoice Kind = "choice"
)

// FieldInfo describes a field's current value and its UI constraints.
type FieldInfo struct {
	Field   Field    `json:"-"`
	Name    string   `json:"name"`
	Kind    Kind     `json:"kind"`
	Value   string   `json:"value"`
	Choices []string `json:"choices,omitempty"`
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Step    float64  `json:"step,omitempty"`
	Visible bool     `json:"visible"`
}

// binding maps a field to its accessors. apply is called once on the
// initiating assembly and is responsible for mirroring to the group.
type binding struct {
	kind    Kind
	get     func(a *Assembly) string
	choices func(a *Assembly) []string
	bounds  func(a *Assembly) (min, max, step float64)
	visible func(a *Assembly) bool
	apply   func(a *Assembly, v string) error
}

var bindings = map[Field]binding{
	FieldDiameter: {
		kind: KindNumber,
		get:  func(a *Assembly) string { return formatFloat(a.diameter) },
		bounds: func(a *Assembly) (float64, float64, float64) {
			return a.cfg.MinDiameter, a.cfg.MaxDiameter, a.cfg.SmallStep
		},
		visible: func(a *Assembly) bool { return a.cfg.MaxDiameter != a.cfg.MinDiameter },
		apply: func(a *Assembly, v string) error {
			d, err := parseFloat("diameter", v)
			if err != nil {
				return err
			}
			return a.SetDiameter(d)
		},
	},
	FieldVScale: {
		kind:    KindNumber,
		get:     func(a *Assembly) string { return formatFloat(a.vScale) },
		bounds:  func(a *Assembly) (float64, float64, float64) { return -1, 1, 0.01 },
		visible: func(a *Assembly) bool { return a.cfg.EnableVScale },
		apply: func(a *Assembly, v string) error {
			f, err := parseFloat("vscale", v)
			if err != nil {
				return err
			}
			return a.SetVScale(f)
		},
	},
	FieldVariant: {
		kind:    KindChoice,
		get:     func(a *Assembly) string { return a.variant },
		choices: func(a *Assembly) []string { return a.Variants() },
		visible: func(a *Assembly) bool { return len(a.variants) > 1 },
		apply:   func(a *Assembly, v string) error { return a.SelectVariant(v) },
	},
	FieldNoseModel:    modelBinding(segment.Nose),
	FieldCoreModel:    modelBinding(segment.Core),
	FieldMountModel:   modelBinding(segment.Mount),
	FieldNoseTexture:  textureBinding(segment.Nose),
	FieldCoreTexture:  textureBinding(segment.Core),
	FieldMountTexture: textureBinding(segment.Mount),
}

func modelBinding(r segment.Role) binding {
	return binding{
		kind:    KindChoice,
		get:     func(a *Assembly) string { return a.Module(r).Name() },
		choices: func(a *Assembly) []string { return a.Module(r).ModelChoices() },
		visible: func(a *Assembly) bool { return a.Module(r).ModelSelectable() },
		apply:   func(a *Assembly, v string) error { return a.SelectModel(r, v) },
	}
}

func textureBinding(r segment.Role) binding {
	return binding{
		kind:    KindChoice,
		get:     func(a *Assembly) string { return a.Module(r).Texture() },
		choices: func(a *Assembly) []string { return a.Module(r).TextureChoices() },
		visible: func(a *Assembly) bool { return a.Module(r).TextureSelectable() },
		apply: func(a *Assembly, v string) error {
			a.SelectTexture(r, v)
			return nil
		},
	}
}

// Field returns the current state of one field.
func (a *Assembly) Field(f Field) (FieldInfo, error) {
	b, ok := bindings[f]
	if !ok {
		return FieldInfo{}, errors.New(errors.ErrCodeInvalidField, "unknown field %d", int(f))
	}
	info := FieldInfo{
		Field:   f,
		Name:    f.String(),
		Kind:    b.kind,
		Value:   b.get(a),
		Visible: b.visible(a),
	}
	if b.choices != nil {
		info.Choices = b.choices(a)
	}
	if b.bounds != nil {
		info.Min, info.Max, info.Step = b.bounds(a)
	}
	return info, nil
}

// Fields returns every field in display order. Hidden fields are included
// with Visible false; they stay settable.
func (a *Assembly) Fields() []FieldInfo {
	out := make([]FieldInfo, 0, len(AllFields))
	for _, f := range AllFields {
		info, _ := a.Field(f)
		out = append(out, info)
	}
	return out
}

// SetField applies a user edit to this assembly and its symmetry group.
func (a *Assembly) SetField(f Field, value string) error {
	b, ok := bindings[f]
	if !ok {
		return errors.New(errors.ErrCodeInvalidField, "unknown field %d", int(f))
	}
	if !a.initialized {
		return errors.New(errors.ErrCodeInvalidConfig, "part %s is not initialized", a.cfg.Name)
	}
	a.logger.Debug("Field changed", "field", f, "value", value, "group", len(a.group))
	return b.apply(a, strings.TrimSpace(value))
}

func parseFloat(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidValue, err, "%s: not a number: %q", field, s)
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
