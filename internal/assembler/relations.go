package assembler

import (
	"sort"

	"github.com/efebarandurmaz/archrecover/internal/clustering"
	"github.com/efebarandurmaz/archrecover/internal/ir"
)

// Specs turns clusters into component specs. Cluster members missing from the
// program are dropped.
func Specs(p *ir.Program, clusters []clustering.Cluster) []ComponentSpec {
	specs := make([]ComponentSpec, 0, len(clusters))
	for _, c := range clusters {
		spec := ComponentSpec{Cluster: c.ID}
		for _, name := range c.Units {
			if u, ok := p.Unit(name); ok {
				spec.Units = append(spec.Units, u)
			}
		}
		if len(spec.Units) > 0 {
			specs = append(specs, spec)
		}
	}
	return specs
}

// DeriveRelations detects the provided and required interfaces of each
// cluster. A cluster provides every interface one of its units declares as a
// supertype; it requires every interface that types a field or a constructor
// parameter of one of its units. Duplicates are kept.
func DeriveRelations(p *ir.Program, clusters []clustering.Cluster) (provided, required []Relation) {
	isInterface := func(name string) bool {
		u, ok := p.Unit(name)
		return ok && u.IsInterface()
	}
	for _, c := range clusters {
		for _, name := range c.Units {
			u, ok := p.Unit(name)
			if !ok {
				continue
			}
			for _, super := range u.Supertypes {
				if isInterface(super) {
					provided = append(provided, Relation{Cluster: c.ID, Interface: super})
				}
			}
			var refs []*ir.TypeRef
			for _, f := range u.Fields {
				refs = append(refs, f.Type)
			}
			for _, ctor := range u.Constructors {
				for _, param := range ctor.Parameters {
					refs = append(refs, param.Type)
				}
			}
			for _, ref := range refs {
				if ref == nil || ref.Kind != ir.RefClassifier || !isInterface(ref.Name) {
					continue
				}
				required = append(required, Relation{Cluster: c.ID, Interface: ref.Name})
			}
		}
	}
	sortRelations(provided)
	sortRelations(required)
	return provided, required
}

func sortRelations(rels []Relation) {
	sort.SliceStable(rels, func(i, j int) bool {
		if rels[i].Cluster != rels[j].Cluster {
			return rels[i].Cluster < rels[j].Cluster
		}
		return rels[i].Interface < rels[j].Interface
	})
}
