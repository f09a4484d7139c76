// Package ir holds the whole-program model produced by a source parser and
// consumed (read-only) by the reconstruction pipeline.
package ir

import (
	"sort"
	"strings"
)

// Program is the parsed whole-program model.
type Program struct {
	Name     string   `json:"name"`
	Units    []*Unit  `json:"units"`
	Accesses []Access `json:"accesses,omitempty"`

	units    map[string]*Unit
	outgoing map[string][]Access
}

// Unit is an implementation unit (class or interface).
type Unit struct {
	Name         string    `json:"name"`
	Namespace    string    `json:"namespace,omitempty"`
	Kind         UnitKind  `json:"kind"`
	Primitive    bool      `json:"primitive,omitempty"`
	External     bool      `json:"external,omitempty"` // library type, not part of the analysed sources
	Supertypes   []string  `json:"supertypes,omitempty"`
	Methods      []*Method `json:"methods,omitempty"`
	Constructors []*Method `json:"constructors,omitempty"`
	Fields       []*Field  `json:"fields,omitempty"`
	Location     string    `json:"location,omitempty"`
}

// UnitKind classifies implementation units.
type UnitKind string

const (
	KindClass     UnitKind = "class"
	KindInterface UnitKind = "interface"
)

// Method is a method or constructor. Returns is nil for constructors and for
// return types the parser could not resolve.
type Method struct {
	Name       string       `json:"name"`
	Parameters []*Parameter `json:"parameters,omitempty"`
	Returns    *TypeRef     `json:"returns,omitempty"`
}

// Parameter is a formal method parameter.
type Parameter struct {
	Name   string   `json:"name"`
	Type   *TypeRef `json:"type,omitempty"`
	Vararg bool     `json:"vararg,omitempty"`
}

// Field is a member variable.
type Field struct {
	Name string   `json:"name"`
	Type *TypeRef `json:"type,omitempty"`
}

// TypeRef is a source-level reference to a type. A nil *TypeRef is an
// unresolved reference.
type TypeRef struct {
	Kind      RefKind    `json:"kind"`
	Name      string     `json:"name,omitempty"` // primitive keyword or qualified classifier name
	Args      []*TypeRef `json:"args,omitempty"`
	ArrayDims int        `json:"array_dims,omitempty"`
}

// RefKind classifies type references.
type RefKind string

const (
	RefPrimitive  RefKind = "primitive"
	RefClassifier RefKind = "classifier"
	RefVoid       RefKind = "void"
)

// Access is a static reference from one unit to another.
type Access struct {
	Source string     `json:"source"`
	Target string     `json:"target"`
	Kind   AccessKind `json:"kind"`
}

// AccessKind classifies accesses.
type AccessKind string

const (
	AccessCall        AccessKind = "call"
	AccessFieldRead   AccessKind = "field_read"
	AccessFieldWrite  AccessKind = "field_write"
	AccessTypeUse     AccessKind = "type_use"
	AccessInheritance AccessKind = "inheritance"
)

// QualifiedName returns the unit identity.
func (u *Unit) QualifiedName() string {
	if u.Namespace == "" {
		return u.Name
	}
	return u.Namespace + "." + u.Name
}

// IsInterface reports whether the unit is an interface.
func (u *Unit) IsInterface() bool { return u.Kind == KindInterface }

// SimpleName returns the last segment of a qualified name.
func SimpleName(qualified string) string {
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

// Index builds the lookup tables. It must be called after Units or Accesses
// change; Load and Decode call it.
func (p *Program) Index() {
	p.units = make(map[string]*Unit, len(p.Units))
	for _, u := range p.Units {
		p.units[u.QualifiedName()] = u
	}
	p.outgoing = make(map[string][]Access)
	for _, a := range p.Accesses {
		p.outgoing[a.Source] = append(p.outgoing[a.Source], a)
	}
}

// Unit looks up a unit by qualified name.
func (p *Program) Unit(qualified string) (*Unit, bool) {
	if p.units == nil {
		p.Index()
	}
	u, ok := p.units[qualified]
	return u, ok
}

// AccessesFrom returns the outgoing accesses of a unit in declaration order.
func (p *Program) AccessesFrom(qualified string) []Access {
	if p.outgoing == nil {
		p.Index()
	}
	return p.outgoing[qualified]
}

// Classes returns the analysed (non-external, non-primitive) classes sorted by
// qualified name.
func (p *Program) Classes() []*Unit {
	return p.selectUnits(func(u *Unit) bool { return u.Kind == KindClass })
}

// Interfaces returns the analysed interfaces sorted by qualified name.
func (p *Program) Interfaces() []*Unit {
	return p.selectUnits(func(u *Unit) bool { return u.Kind == KindInterface })
}

func (p *Program) selectUnits(keep func(*Unit) bool) []*Unit {
	var out []*Unit
	for _, u := range p.Units {
		if u.External || u.Primitive || !keep(u) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].QualifiedName() < out[j].QualifiedName()
	})
	return out
}
