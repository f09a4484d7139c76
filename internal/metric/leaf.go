package metric

import "strings"

// Built-in leaf metric ids.
const (
	Accesses         ID = "accesses"
	AccessesOut      ID = "accesses_out"
	AccessesBetween  ID = "accesses_between"
	AccessesExternal ID = "accesses_external"
	PackageMapping   ID = "package_mapping"
	NameResemblance  ID = "name_resemblance"
)

type leaf struct {
	id          ID
	commutative bool
	fn          func(rel *Relation, env *Env) float64
}

func (l *leaf) ID() ID            { return l.id }
func (l *leaf) Children() []ID    { return nil }
func (l *leaf) Commutative() bool { return l.commutative }

func (l *leaf) Compute(rel *Relation, env *Env) float64 {
	return l.fn(rel, env)
}

// NewLeaf creates a leaf metric from a function.
func NewLeaf(id ID, commutative bool, fn func(rel *Relation, env *Env) float64) Metric {
	return &leaf{id: id, commutative: commutative, fn: fn}
}

// Leaves returns the built-in leaf metrics.
func Leaves() []Metric {
	return []Metric{
		NewLeaf(Accesses, false, func(rel *Relation, env *Env) float64 {
			return float64(env.Graph.Weight(rel.Source, rel.Target))
		}),
		NewLeaf(AccessesOut, false, func(rel *Relation, env *Env) float64 {
			return float64(env.Graph.OutWeight(rel.Source))
		}),
		NewLeaf(AccessesBetween, true, func(rel *Relation, env *Env) float64 {
			return float64(env.Graph.Weight(rel.Source, rel.Target) + env.Graph.Weight(rel.Target, rel.Source))
		}),
		NewLeaf(AccessesExternal, true, externalAccesses),
		NewLeaf(PackageMapping, true, func(rel *Relation, env *Env) float64 {
			a, b := namespaces(rel, env)
			if a == b {
				return 1
			}
			return 0
		}),
		NewLeaf(NameResemblance, true, nameResemblance),
	}
}

// externalAccesses counts accesses leaving the pair towards other units.
func externalAccesses(rel *Relation, env *Env) float64 {
	total := 0
	for _, v := range []string{rel.Source, rel.Target} {
		for _, e := range env.Graph.OutEdges(v) {
			if e.To != rel.Source && e.To != rel.Target {
				total += e.Count
			}
		}
	}
	return float64(total)
}

// nameResemblance is the share of leading namespace segments both units have
// in common.
func nameResemblance(rel *Relation, env *Env) float64 {
	a, b := namespaces(rel, env)
	if a == b {
		return 1
	}
	sa, sb := splitNamespace(a), splitNamespace(b)
	longest := max(len(sa), len(sb))
	common := 0
	for common < len(sa) && common < len(sb) && sa[common] == sb[common] {
		common++
	}
	return float64(common) / float64(longest)
}

func namespaces(rel *Relation, env *Env) (string, string) {
	return namespaceOf(rel.Source, env), namespaceOf(rel.Target, env)
}

func namespaceOf(name string, env *Env) string {
	if u, ok := env.Graph.Vertex(name); ok {
		return u.Namespace
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return ""
}

func splitNamespace(ns string) []string {
	if ns == "" {
		return nil
	}
	return strings.Split(ns, ".")
}
