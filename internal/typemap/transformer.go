package typemap

import (
	"log/slog"

	"github.com/efebarandurmaz/archrecover/internal/arch"
	"github.com/efebarandurmaz/archrecover/internal/ir"
)

// DefaultTypeName names the composite substituted for unresolved references.
const DefaultTypeName = "Object"

// VoidTypeName names the zero-field composite used for void returns.
const VoidTypeName = "Void"

var primitives = map[string]arch.PrimitiveKind{
	"boolean": arch.BOOLEAN,
	"byte":    arch.BYTE,
	"char":    arch.CHAR,
	"double":  arch.DOUBLE,
	"float":   arch.DOUBLE, // no FLOAT kind in the model
	"int":     arch.INTEGER,
	"long":    arch.LONG,
	"short":   arch.INTEGER, // no SHORT kind in the model
}

// Options configures a Transformer.
type Options struct {
	// ExpandFields populates composite types with their source fields.
	ExpandFields bool
	Logger       *slog.Logger
}

// Transformer maps types of one program into one model. Its caches belong to
// a single reconstruction run.
type Transformer struct {
	program *ir.Program
	model   *arch.Model
	opts    Options
	logger  *slog.Logger

	collections map[string]bool
	expanded    map[string]bool
}

// New creates a transformer writing canonical types into model.
func New(program *ir.Program, model *arch.Model, opts Options) *Transformer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{
		program:     program,
		model:       model,
		opts:        opts,
		logger:      logger,
		collections: make(map[string]bool),
		expanded:    make(map[string]bool),
	}
}

// MapType returns the canonical data type of ref. It reports false when the
// reference cannot be mapped; callers substitute a default.
func (t *Transformer) MapType(ref *ir.TypeRef, arrayDims int, vararg, asReturn bool) (*arch.DataType, bool) {
	return t.mapSource(t.Normalize(ref, arrayDims, vararg), asReturn)
}

// MapOrDefault is MapType with the shared default composite substituted for
// unresolved references.
func (t *Transformer) MapOrDefault(ref *ir.TypeRef, arrayDims int, vararg, asReturn bool) *arch.DataType {
	if dt, ok := t.MapType(ref, arrayDims, vararg, asReturn); ok {
		return dt
	}
	t.logger.Debug("unresolved type reference, using default", "ref", describe(ref), "default", DefaultTypeName)
	return t.Default()
}

// Default returns the shared default composite.
func (t *Transformer) Default() *arch.DataType {
	return t.model.RegisterDataType(arch.NewComposite(DefaultTypeName))
}

func (t *Transformer) mapSource(st SourceType, asReturn bool) (*arch.DataType, bool) {
	switch s := st.(type) {
	case Vararg:
		elem := t.element(s.Element)
		return t.collection(elem.String()+"...", elem), true
	case Array:
		elem := t.element(s.Element)
		return t.collection(elem.String()+"[]", elem), true
	case GenericCollection:
		elem := t.element(s.Element)
		return t.collection(s.Collection+"<"+elem.String()+">", elem), true
	case Primitive:
		kind, ok := primitives[s.Keyword]
		if !ok {
			return nil, false
		}
		return t.model.RegisterDataType(arch.NewPrimitive(kind)), true
	case Classifier:
		if ir.SimpleName(s.Name) == "String" {
			return t.model.RegisterDataType(arch.NewPrimitive(arch.STRING)), true
		}
		return t.composite(s.Name), true
	case Void:
		if !asReturn {
			return nil, false
		}
		return t.model.RegisterDataType(arch.NewComposite(VoidTypeName)), true
	case Unresolved:
		return nil, false
	}
	return nil, false
}

// element maps a collection element; unresolved elements become the default.
func (t *Transformer) element(st SourceType) *arch.DataType {
	if dt, ok := t.mapSource(st, false); ok {
		return dt
	}
	return t.Default()
}

func (t *Transformer) collection(name string, elem *arch.DataType) *arch.DataType {
	return t.model.RegisterDataType(arch.NewCollection(name, elem))
}

func (t *Transformer) composite(qualified string) *arch.DataType {
	dt := t.model.RegisterDataType(arch.NewComposite(ir.SimpleName(qualified)))
	if t.opts.ExpandFields {
		t.expandFields(dt, qualified)
	}
	return dt
}

// expandFields fills dt with the fields of the source unit. Each composite is
// expanded at most once, which also stops recursive field types.
func (t *Transformer) expandFields(dt *arch.DataType, qualified string) {
	if t.expanded[dt.Key()] {
		return
	}
	t.expanded[dt.Key()] = true
	u, ok := t.program.Unit(qualified)
	if !ok {
		return
	}
	for _, f := range u.Fields {
		ft := t.MapOrDefault(f.Type, 0, false, false)
		dt.Fields = append(dt.Fields, &arch.FieldDecl{Name: f.Name, Type: ft})
	}
}

// Signature builds the operation signature of a method. Parameters are mapped
// in declaration order, then the return type.
func (t *Transformer) Signature(m *ir.Method) *arch.Signature {
	sig := &arch.Signature{Name: m.Name}
	for _, p := range m.Parameters {
		sig.Parameters = append(sig.Parameters, arch.Parameter{
			Name:     p.Name,
			Type:     t.MapOrDefault(p.Type, 0, p.Vararg, false),
			Modifier: arch.ModifierIn,
		})
	}
	sig.Returns = t.MapOrDefault(m.Returns, 0, false, true)
	return sig
}

func describe(ref *ir.TypeRef) string {
	if ref == nil {
		return "<nil>"
	}
	if ref.Name == "" {
		return string(ref.Kind)
	}
	return ref.Name
}
