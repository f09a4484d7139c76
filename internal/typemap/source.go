// Package typemap maps source-level type references onto the canonical data
// types of an architecture model and builds operation signatures.
package typemap

import (
	"github.com/efebarandurmaz/archrecover/internal/ir"
)

// SourceType is a normalized source type reference. The set of variants is
// closed; MapType switches over all of them.
type SourceType interface {
	sourceType()
}

// Unresolved is a reference the parser could not resolve.
type Unresolved struct{}

// Void is the void return type.
type Void struct{}

// Primitive is a primitive keyword such as int or boolean.
type Primitive struct{ Keyword string }

// Array is one array dimension around Element.
type Array struct{ Element SourceType }

// Vararg is a variable-arity parameter of Element.
type Vararg struct{ Element SourceType }

// GenericCollection is a parameterized collection-shaped classifier.
type GenericCollection struct {
	Collection string // simple name
	Element    SourceType
}

// Classifier is any other classifier reference, by qualified name.
type Classifier struct{ Name string }

func (Unresolved) sourceType()        {}
func (Void) sourceType()              {}
func (Primitive) sourceType()         {}
func (Array) sourceType()             {}
func (Vararg) sourceType()            {}
func (GenericCollection) sourceType() {}
func (Classifier) sourceType()        {}

// Normalize turns a reference into its SourceType. arrayDims adds to the
// dimensions carried by ref. Vararg-ness applies to the outermost level only
// and array levels are peeled one at a time.
func (t *Transformer) Normalize(ref *ir.TypeRef, arrayDims int, vararg bool) SourceType {
	if ref == nil {
		return Unresolved{}
	}
	return t.normalize(ref, ref.ArrayDims+arrayDims, vararg)
}

func (t *Transformer) normalize(ref *ir.TypeRef, dims int, vararg bool) SourceType {
	if vararg {
		return Vararg{Element: t.normalize(ref, dims, false)}
	}
	if dims > 0 {
		return Array{Element: t.normalize(ref, dims-1, false)}
	}
	switch ref.Kind {
	case ir.RefVoid:
		return Void{}
	case ir.RefPrimitive:
		return Primitive{Keyword: ref.Name}
	case ir.RefClassifier:
		if ref.Name == "" {
			return Unresolved{}
		}
		if len(ref.Args) > 0 && t.isCollection(ref.Name) {
			return GenericCollection{
				Collection: ir.SimpleName(ref.Name),
				Element:    t.Normalize(ref.Args[0], 0, false),
			}
		}
		return Classifier{Name: ref.Name}
	}
	return Unresolved{}
}

// isCollection reports whether the classifier is named Collection or has a
// transitive declared supertype of that name.
func (t *Transformer) isCollection(qualified string) bool {
	if v, ok := t.collections[qualified]; ok {
		return v
	}
	visited := make(map[string]bool)
	var walk func(string) bool
	walk = func(name string) bool {
		if ir.SimpleName(name) == "Collection" {
			return true
		}
		if visited[name] {
			return false
		}
		visited[name] = true
		u, ok := t.program.Unit(name)
		if !ok {
			return false
		}
		for _, super := range u.Supertypes {
			if walk(super) {
				return true
			}
		}
		return false
	}
	v := walk(qualified)
	t.collections[qualified] = v
	return v
}
