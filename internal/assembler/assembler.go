// Package assembler builds the architecture model from source interfaces and
// clustered implementation units.
package assembler

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/efebarandurmaz/archrecover/internal/arch"
	"github.com/efebarandurmaz/archrecover/internal/ir"
	"github.com/efebarandurmaz/archrecover/internal/typemap"
)

// ComponentSpec is one cluster of implementation units to become a component.
type ComponentSpec struct {
	Cluster string
	Units   []*ir.Unit
}

// Relation links a cluster to a source interface by qualified name.
type Relation struct {
	Cluster   string
	Interface string
}

// Input is everything one assembly needs.
type Input struct {
	Program    *ir.Program
	Name       string
	Interfaces []*ir.Unit
	Components []ComponentSpec
	Provided   []Relation
	Required   []Relation
}

// Options configures Assemble.
type Options struct {
	ExpandFields bool
	Logger       *slog.Logger
}

// Result is the assembled model plus the bookkeeping kept outside of it.
type Result struct {
	Model *arch.Model
	// Locations maps component name to the source locations of its units.
	Locations map[string][]string
	// Components maps cluster id to component name.
	Components map[string]string
}

// Assemble creates every interface first and then the components, which look
// interfaces up by name. Relations naming unknown clusters or interfaces are
// logged and skipped.
func Assemble(in Input, opts Options) (*Result, error) {
	if in.Program == nil {
		return nil, fmt.Errorf("assemble: no program")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	model := arch.NewModel(in.Name)
	tr := typemap.New(in.Program, model, typemap.Options{ExpandFields: opts.ExpandFields, Logger: logger})
	res := &Result{
		Model:      model,
		Locations:  make(map[string][]string),
		Components: make(map[string]string),
	}

	interfaces := append([]*ir.Unit(nil), in.Interfaces...)
	sort.Slice(interfaces, func(i, j int) bool {
		return interfaces[i].QualifiedName() < interfaces[j].QualifiedName()
	})
	// Flattened names can clash ("a.b_C" and "a_b.C"); later clashes get a
	// numeric suffix.
	ifaceNames := make(map[string]string, len(interfaces))
	interfaceTaken := func(name string) bool {
		_, ok := model.Interface(name)
		return ok
	}
	for _, u := range interfaces {
		qualified := u.QualifiedName()
		if _, seen := ifaceNames[qualified]; seen {
			continue
		}
		base := InterfaceName(qualified)
		name := uniqueName(base, interfaceTaken)
		if name != base {
			logger.Debug("interface name clash", "interface", qualified, "name", base, "renamed", name)
		}
		ifaceNames[qualified] = name
		iface := model.AddInterface(name)
		for _, m := range u.Methods {
			iface.AddSignature(tr.Signature(m))
		}
	}

	componentTaken := func(name string) bool {
		_, ok := model.Component(name)
		return ok
	}
	owner := make(map[string]string)
	for _, spec := range in.Components {
		if len(spec.Units) == 0 {
			return nil, fmt.Errorf("assemble: cluster %s has no units", spec.Cluster)
		}
		if _, dup := res.Components[spec.Cluster]; dup {
			return nil, fmt.Errorf("assemble: duplicate cluster %s", spec.Cluster)
		}
		for _, u := range spec.Units {
			q := u.QualifiedName()
			if prev, ok := owner[q]; ok {
				return nil, fmt.Errorf("assemble: unit %s is in clusters %s and %s", q, prev, spec.Cluster)
			}
			owner[q] = spec.Cluster
		}
		base := ComponentName(representative(spec.Units))
		name := uniqueName(base, componentTaken)
		if name != base {
			logger.Debug("component name clash", "cluster", spec.Cluster, "name", base, "renamed", name)
		}
		model.AddComponent(name)
		res.Components[spec.Cluster] = name
		res.Locations[name] = locations(spec.Units)
	}

	link := func(rels []Relation, role string, add func(*arch.Component, *arch.Interface) bool) {
		for _, rel := range rels {
			compName, ok := res.Components[rel.Cluster]
			if !ok {
				logger.Debug("relation names unknown cluster", "role", role, "cluster", rel.Cluster)
				continue
			}
			ifaceName, ok := ifaceNames[rel.Interface]
			if !ok {
				logger.Debug("relation names unknown interface", "role", role, "component", compName, "interface", rel.Interface)
				continue
			}
			iface, ok := model.Interface(ifaceName)
			if !ok {
				logger.Debug("relation names unknown interface", "role", role, "component", compName, "interface", rel.Interface)
				continue
			}
			c, _ := model.Component(compName)
			add(c, iface)
		}
	}
	link(in.Provided, "provides", (*arch.Component).Provide)
	link(in.Required, "requires", (*arch.Component).Require)

	counts := model.Counts()
	logger.Info("architecture model assembled",
		"interfaces", counts.Interfaces,
		"components", counts.Components,
		"signatures", counts.Signatures,
		"data_types", counts.DataTypes,
	)
	return res, nil
}

// InterfaceName derives the model interface name from a qualified name.
func InterfaceName(qualified string) string {
	return strings.ReplaceAll(qualified, ".", "_")
}

// ComponentName derives the model component name from a unit.
func ComponentName(u *ir.Unit) string {
	if u.Namespace == "" {
		return u.Name
	}
	return strings.ReplaceAll(u.Namespace, ".", "_") + "_" + u.Name
}

// uniqueName returns base, or base with the first free numeric suffix.
func uniqueName(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for i := 2; ; i++ {
		if name := fmt.Sprintf("%s_%d", base, i); !taken(name) {
			return name
		}
	}
}

// representative is the member with the smallest qualified name.
func representative(units []*ir.Unit) *ir.Unit {
	rep := units[0]
	for _, u := range units[1:] {
		if u.QualifiedName() < rep.QualifiedName() {
			rep = u
		}
	}
	return rep
}

func locations(units []*ir.Unit) []string {
	seen := make(map[string]bool)
	var out []string
	for _, u := range units {
		if u.Location == "" || seen[u.Location] {
			continue
		}
		seen[u.Location] = true
		out = append(out, u.Location)
	}
	sort.Strings(out)
	return out
}
