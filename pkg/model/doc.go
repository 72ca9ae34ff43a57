// Package model describes the selectable models a segment can show.
//
// A [Definition] is an immutable description of one model: base diameters and
// height, mass/cost/volume coefficients, attach-node templates, fairing
// offsets and texture sets. Geometry is authored centred on the model origin
// with +Y pointing up, so a node template at Y = Height/2 sits on the top face.
//
// [LayoutOptions] pairs a definition with the layouts valid for it and is the
// unit a segment actually selects. [VariantSet] groups interchangeable options
// under a variant name for the core segment.
//
// [Registry] loads definitions from `model "<name>" { ... }` blocks and hands
// out cached layout options so that the same model and layouts always resolve
// to the same pointer. Variant sets and segments de-duplicate by that pointer.
package model
