package arch

import (
	"sort"

	"github.com/google/uuid"
)

// Model is the arena of one reconstruction run. It owns every interface,
// component and data type produced by the run and is never shared across
// runs.
type Model struct {
	ID   string
	Name string

	interfaces map[string]*Interface
	components map[string]*Component
	dataTypes  map[string]*DataType
}

// Counts summarises the model contents.
type Counts struct {
	Interfaces int `json:"interfaces"`
	Components int `json:"components"`
	DataTypes  int `json:"data_types"`
	Signatures int `json:"signatures"`
}

// NewModel creates an empty model with a fresh run id.
func NewModel(name string) *Model {
	return &Model{
		ID:         uuid.NewString(),
		Name:       name,
		interfaces: make(map[string]*Interface),
		components: make(map[string]*Component),
		dataTypes:  make(map[string]*DataType),
	}
}

// DataType looks up a canonical data type by key.
func (m *Model) DataType(key string) (*DataType, bool) {
	dt, ok := m.dataTypes[key]
	return dt, ok
}

// RegisterDataType stores dt unless a type with the same key exists. The
// canonical instance is returned either way.
func (m *Model) RegisterDataType(dt *DataType) *DataType {
	if existing, ok := m.dataTypes[dt.Key()]; ok {
		return existing
	}
	m.dataTypes[dt.Key()] = dt
	return dt
}

// Interface looks up an interface by name.
func (m *Model) Interface(name string) (*Interface, bool) {
	i, ok := m.interfaces[name]
	return i, ok
}

// AddInterface returns the interface named name, creating it if needed.
func (m *Model) AddInterface(name string) *Interface {
	if i, ok := m.interfaces[name]; ok {
		return i
	}
	i := &Interface{Name: name}
	m.interfaces[name] = i
	return i
}

// Component looks up a component by name.
func (m *Model) Component(name string) (*Component, bool) {
	c, ok := m.components[name]
	return c, ok
}

// AddComponent returns the component named name, creating it if needed.
func (m *Model) AddComponent(name string) *Component {
	if c, ok := m.components[name]; ok {
		return c
	}
	c := newComponent(name)
	m.components[name] = c
	return c
}

// Interfaces returns all interfaces sorted by name.
func (m *Model) Interfaces() []*Interface { return sortedInterfaces(m.interfaces) }

// Components returns all components sorted by name.
func (m *Model) Components() []*Component {
	out := make([]*Component, 0, len(m.components))
	for _, c := range m.components {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DataTypes returns all data types sorted by key.
func (m *Model) DataTypes() []*DataType {
	out := make([]*DataType, 0, len(m.dataTypes))
	for _, dt := range m.dataTypes {
		out = append(out, dt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Counts returns the number of model elements.
func (m *Model) Counts() Counts {
	c := Counts{
		Interfaces: len(m.interfaces),
		Components: len(m.components),
		DataTypes:  len(m.dataTypes),
	}
	for _, i := range m.interfaces {
		c.Signatures += len(i.Signatures)
	}
	return c
}

func sortedInterfaces(set map[string]*Interface) []*Interface {
	out := make([]*Interface, 0, len(set))
	for _, i := range set {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}
