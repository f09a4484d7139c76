package arch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// document is the serialized form of a Model. Data types are written once
// and referenced by key everywhere else, so shared types stay shared after
// a round trip.
type document struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	DataTypes  []dataTypeDoc  `json:"data_types"`
	Interfaces []interfaceDoc `json:"interfaces"`
	Components []componentDoc `json:"components"`
}

type dataTypeDoc struct {
	Key       string        `json:"key"`
	Kind      DataTypeKind  `json:"kind"`
	Primitive PrimitiveKind `json:"primitive,omitempty"`
	Name      string        `json:"name,omitempty"`
	Element   string        `json:"element,omitempty"`
	Fields    []fieldDoc    `json:"fields,omitempty"`
}

type fieldDoc struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type interfaceDoc struct {
	Name       string         `json:"name"`
	Signatures []signatureDoc `json:"signatures"`
}

type signatureDoc struct {
	Name       string         `json:"name"`
	Parameters []parameterDoc `json:"parameters,omitempty"`
	Returns    string         `json:"returns,omitempty"`
}

type parameterDoc struct {
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Modifier ParameterModifier `json:"modifier"`
}

type componentDoc struct {
	Name     string   `json:"name"`
	Provided []string `json:"provided,omitempty"`
	Required []string `json:"required,omitempty"`
}

// Encode writes the model as indented JSON.
func Encode(w io.Writer, m *Model) error {
	doc := document{ID: m.ID, Name: m.Name}
	for _, dt := range m.DataTypes() {
		d := dataTypeDoc{Key: dt.Key(), Kind: dt.Kind, Primitive: dt.Primitive, Name: dt.Name}
		if dt.Element != nil {
			d.Element = dt.Element.Key()
		}
		for _, f := range dt.Fields {
			d.Fields = append(d.Fields, fieldDoc{Name: f.Name, Type: f.Type.Key()})
		}
		doc.DataTypes = append(doc.DataTypes, d)
	}
	for _, i := range m.Interfaces() {
		idoc := interfaceDoc{Name: i.Name, Signatures: []signatureDoc{}}
		for _, s := range i.Signatures {
			sdoc := signatureDoc{Name: s.Name}
			if s.Returns != nil {
				sdoc.Returns = s.Returns.Key()
			}
			for _, p := range s.Parameters {
				sdoc.Parameters = append(sdoc.Parameters, parameterDoc{Name: p.Name, Type: p.Type.Key(), Modifier: p.Modifier})
			}
			idoc.Signatures = append(idoc.Signatures, sdoc)
		}
		doc.Interfaces = append(doc.Interfaces, idoc)
	}
	for _, c := range m.Components() {
		cdoc := componentDoc{Name: c.Name}
		for _, i := range c.Provided() {
			cdoc.Provided = append(cdoc.Provided, i.Name)
		}
		for _, i := range c.Required() {
			cdoc.Required = append(cdoc.Required, i.Name)
		}
		doc.Components = append(doc.Components, cdoc)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return nil
}

// Decode reads a model written by Encode and re-links every type reference
// to the canonical instance.
func Decode(r io.Reader) (*Model, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	m := NewModel(doc.Name)
	if doc.ID != "" {
		m.ID = doc.ID
	}

	// Create every type first; element and field references may point forward.
	for _, d := range doc.DataTypes {
		dt := &DataType{Kind: d.Kind, Primitive: d.Primitive, Name: d.Name}
		if dt.Key() != d.Key {
			return nil, fmt.Errorf("data type %q: key does not match its content (%q)", d.Key, dt.Key())
		}
		m.dataTypes[d.Key] = dt
	}
	lookup := func(key, owner string) (*DataType, error) {
		if key == "" {
			return nil, nil
		}
		dt, ok := m.dataTypes[key]
		if !ok {
			return nil, fmt.Errorf("%s references unknown data type %q", owner, key)
		}
		return dt, nil
	}
	for _, d := range doc.DataTypes {
		dt := m.dataTypes[d.Key]
		elem, err := lookup(d.Element, d.Key)
		if err != nil {
			return nil, err
		}
		dt.Element = elem
		for _, f := range d.Fields {
			ft, err := lookup(f.Type, d.Key)
			if err != nil {
				return nil, err
			}
			dt.Fields = append(dt.Fields, &FieldDecl{Name: f.Name, Type: ft})
		}
	}

	for _, idoc := range doc.Interfaces {
		iface := m.AddInterface(idoc.Name)
		for _, sdoc := range idoc.Signatures {
			owner := idoc.Name + "." + sdoc.Name
			ret, err := lookup(sdoc.Returns, owner)
			if err != nil {
				return nil, err
			}
			sig := &Signature{Name: sdoc.Name, Returns: ret}
			for _, p := range sdoc.Parameters {
				pt, err := lookup(p.Type, owner)
				if err != nil {
					return nil, err
				}
				sig.Parameters = append(sig.Parameters, Parameter{Name: p.Name, Type: pt, Modifier: p.Modifier})
			}
			iface.AddSignature(sig)
		}
	}

	for _, cdoc := range doc.Components {
		c := m.AddComponent(cdoc.Name)
		for _, name := range cdoc.Provided {
			i, ok := m.Interface(name)
			if !ok {
				return nil, fmt.Errorf("component %s provides unknown interface %q", cdoc.Name, name)
			}
			c.Provide(i)
		}
		for _, name := range cdoc.Required {
			i, ok := m.Interface(name)
			if !ok {
				return nil, fmt.Errorf("component %s requires unknown interface %q", cdoc.Name, name)
			}
			c.Require(i)
		}
	}
	return m, nil
}

// WriteFile encodes the model to path, creating parent directories.
func WriteFile(path string, m *Model) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	if err := Encode(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile decodes the model stored at path.
func ReadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}
