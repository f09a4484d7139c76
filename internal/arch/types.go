// Package arch holds the reconstructed architecture model: interfaces with
// operation signatures, components and the data types they share.
package arch

import (
	"fmt"
	"strings"
)

// DataTypeKind classifies data types.
type DataTypeKind string

const (
	KindPrimitive  DataTypeKind = "primitive"
	KindComposite  DataTypeKind = "composite"
	KindCollection DataTypeKind = "collection"
)

// PrimitiveKind enumerates the primitive data types of the model.
type PrimitiveKind string

const (
	BOOLEAN PrimitiveKind = "BOOLEAN"
	BYTE    PrimitiveKind = "BYTE"
	CHAR    PrimitiveKind = "CHAR"
	DOUBLE  PrimitiveKind = "DOUBLE"
	INTEGER PrimitiveKind = "INTEGER"
	LONG    PrimitiveKind = "LONG"
	STRING  PrimitiveKind = "STRING"
)

// DataType is a model data type. Instances are canonical within a Model:
// two references to the same type are the same pointer.
type DataType struct {
	Kind      DataTypeKind
	Primitive PrimitiveKind // KindPrimitive only
	Name      string        // composite and collection types
	Fields    []*FieldDecl  // composite types, when expanded
	Element   *DataType     // collection types
}

// FieldDecl is an inner declaration of a composite data type.
type FieldDecl struct {
	Name string
	Type *DataType
}

// NewPrimitive creates a primitive type.
func NewPrimitive(p PrimitiveKind) *DataType {
	return &DataType{Kind: KindPrimitive, Primitive: p}
}

// NewComposite creates a composite type without fields.
func NewComposite(name string) *DataType {
	return &DataType{Kind: KindComposite, Name: name}
}

// NewCollection creates a collection type of element.
func NewCollection(name string, element *DataType) *DataType {
	return &DataType{Kind: KindCollection, Name: name, Element: element}
}

// Key is the deduplication key of the type within a model.
func (d *DataType) Key() string {
	if d.Kind == KindPrimitive {
		return string(KindPrimitive) + ":" + string(d.Primitive)
	}
	return string(d.Kind) + ":" + d.Name
}

// String returns the canonical name of the type.
func (d *DataType) String() string {
	if d == nil {
		return "void"
	}
	if d.Kind == KindPrimitive {
		return string(d.Primitive)
	}
	return d.Name
}

// ParameterModifier is the direction of a parameter.
type ParameterModifier string

// ModifierIn is the only modifier produced by reconstruction.
const ModifierIn ParameterModifier = "IN"

// Parameter is an operation parameter.
type Parameter struct {
	Name     string
	Type     *DataType
	Modifier ParameterModifier
}

// Signature is an operation signature. A nil Returns means no return type.
type Signature struct {
	Name       string
	Parameters []Parameter
	Returns    *DataType
}

// Equal reports structural equality: same name, same return type, same
// parameter count and pairwise identical parameter types. Parameter names
// are ignored. Types are compared by identity.
func (s *Signature) Equal(o *Signature) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.Name != o.Name || s.Returns != o.Returns || len(s.Parameters) != len(o.Parameters) {
		return false
	}
	for i := range s.Parameters {
		if s.Parameters[i].Type != o.Parameters[i].Type {
			return false
		}
	}
	return true
}

// String renders the signature as "name(T1, T2) R".
func (s *Signature) String() string {
	params := make([]string, len(s.Parameters))
	for i, p := range s.Parameters {
		params[i] = p.Type.String()
	}
	return fmt.Sprintf("%s(%s) %s", s.Name, strings.Join(params, ", "), s.Returns)
}

// Interface is an operation interface.
type Interface struct {
	Name       string
	Signatures []*Signature
}

// AddSignature appends sig unless a structurally equal signature exists, in
// which case the existing one is returned.
func (i *Interface) AddSignature(sig *Signature) *Signature {
	for _, existing := range i.Signatures {
		if existing.Equal(sig) {
			return existing
		}
	}
	i.Signatures = append(i.Signatures, sig)
	return sig
}

// Component is a candidate component with provided and required interfaces.
type Component struct {
	Name     string
	provided map[string]*Interface
	required map[string]*Interface
}

func newComponent(name string) *Component {
	return &Component{
		Name:     name,
		provided: make(map[string]*Interface),
		required: make(map[string]*Interface),
	}
}

// Provide adds a provided interface. It reports false when the interface was
// already provided.
func (c *Component) Provide(i *Interface) bool {
	return addRole(c.provided, i)
}

// Require adds a required interface. It reports false when the interface was
// already required.
func (c *Component) Require(i *Interface) bool {
	return addRole(c.required, i)
}

// Provided returns the provided interfaces sorted by name.
func (c *Component) Provided() []*Interface { return sortedInterfaces(c.provided) }

// Required returns the required interfaces sorted by name.
func (c *Component) Required() []*Interface { return sortedInterfaces(c.required) }

func addRole(set map[string]*Interface, i *Interface) bool {
	if _, ok := set[i.Name]; ok {
		return false
	}
	set[i.Name] = i
	return true
}
