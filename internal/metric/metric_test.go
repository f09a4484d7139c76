package metric

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/efebarandurmaz/archrecover/internal/accessgraph"
	"github.com/efebarandurmaz/archrecover/internal/ir"
)

func testEnv(t *testing.T) *Env {
	t.Helper()
	units := []*ir.Unit{
		{Name: "A", Namespace: "shop.orders", Kind: ir.KindClass},
		{Name: "B", Namespace: "shop.orders", Kind: ir.KindClass},
		{Name: "C", Namespace: "shop.billing", Kind: ir.KindClass},
		{Name: "D", Namespace: "util", Kind: ir.KindClass},
	}
	p := &ir.Program{Units: units, Accesses: []ir.Access{
		{Source: "shop.orders.A", Target: "shop.orders.B", Kind: ir.AccessCall},
		{Source: "shop.orders.A", Target: "shop.orders.B", Kind: ir.AccessCall},
		{Source: "shop.orders.A", Target: "shop.billing.C", Kind: ir.AccessCall},
		{Source: "shop.orders.B", Target: "shop.orders.A", Kind: ir.AccessFieldRead},
		{Source: "shop.orders.B", Target: "util.D", Kind: ir.AccessCall},
	}}
	p.Index()
	g, err := accessgraph.Build(context.Background(), p, units, accessgraph.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return &Env{Graph: g}
}

// countingMetric counts how often it is computed.
type countingMetric struct {
	id    ID
	value float64
	calls int
}

func (c *countingMetric) ID() ID            { return c.id }
func (c *countingMetric) Children() []ID    { return nil }
func (c *countingMetric) Commutative() bool { return true }
func (c *countingMetric) Compute(*Relation, *Env) float64 {
	c.calls++
	return c.value
}

func TestLeaves(t *testing.T) {
	env := testEnv(t)
	tests := []struct {
		id     ID
		source string
		target string
		want   float64
	}{
		{Accesses, "shop.orders.A", "shop.orders.B", 2},
		{Accesses, "shop.orders.B", "shop.orders.A", 1},
		{AccessesOut, "shop.orders.A", "shop.orders.B", 3},
		{AccessesBetween, "shop.orders.A", "shop.orders.B", 3},
		{AccessesExternal, "shop.orders.A", "shop.orders.B", 2},
		{PackageMapping, "shop.orders.A", "shop.orders.B", 1},
		{PackageMapping, "shop.orders.A", "shop.billing.C", 0},
		{NameResemblance, "shop.orders.A", "shop.billing.C", 0.5},
		{NameResemblance, "shop.orders.A", "util.D", 0},
		{NameResemblance, "shop.orders.A", "shop.orders.B", 1},
	}
	reg := NewDefaultRegistry()
	for _, tt := range tests {
		t.Run(string(tt.id)+"/"+tt.source+"->"+tt.target, func(t *testing.T) {
			m, ok := reg.Get(tt.id)
			if !ok {
				t.Fatalf("leaf %s not registered", tt.id)
			}
			got := m.Compute(NewRelation(tt.source, tt.target), env)
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRatio_ZeroDenominator(t *testing.T) {
	reg := NewRegistry()
	num := &countingMetric{id: "num", value: 5}
	den := &countingMetric{id: "den", value: 0}
	for _, m := range []Metric{num, den, NewRatio("ratio", "num", "den")} {
		if err := reg.Register(m); err != nil {
			t.Fatal(err)
		}
	}
	engine, err := NewEngine(reg, nil, "ratio")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	rel := NewRelation("a", "b")
	engine.Compute(rel)

	got := rel.Value("ratio")
	if got != 0 || math.IsNaN(got) {
		t.Errorf("expected 0 for zero denominator, got %v", got)
	}
}

func TestRatio_Value(t *testing.T) {
	env := testEnv(t)
	reg := NewDefaultRegistry()
	if err := reg.Register(NewRatio("coupling", Accesses, AccessesOut)); err != nil {
		t.Fatal(err)
	}
	engine, err := NewEngine(reg, env, "coupling")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	rel := NewRelation("shop.orders.A", "shop.orders.B")
	engine.Compute(rel)
	if got := rel.Value("coupling"); math.Abs(got-2.0/3.0) > 1e-9 {
		t.Errorf("coupling = %v, want 2/3", got)
	}
	if !rel.Has(Accesses) || !rel.Has(AccessesOut) {
		t.Error("children results should be stored on the relation")
	}
}

func TestEngine_AtMostOnce(t *testing.T) {
	reg := NewRegistry()
	child := &countingMetric{id: "child", value: 2}
	if err := reg.Register(child); err != nil {
		t.Fatal(err)
	}
	sum, err := NewWeightedSum("sum", []ID{"child", "child"}, []float64{1, 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(sum); err != nil {
		t.Fatal(err)
	}
	ratio := NewRatio("ratio", "sum", "child")
	if err := reg.Register(ratio); err != nil {
		t.Fatal(err)
	}

	engine, err := NewEngine(reg, nil, "ratio", "sum")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	rel := NewRelation("a", "b")
	engine.Compute(rel)
	engine.Compute(rel)

	if child.calls != 1 {
		t.Errorf("child computed %d times, want 1", child.calls)
	}
	if rel.Value("sum") != 4 || rel.Value("ratio") != 2 {
		t.Errorf("unexpected results %v", rel.Results)
	}
}

func TestEngine_PrecomputedResultKept(t *testing.T) {
	reg := NewRegistry()
	child := &countingMetric{id: "child", value: 2}
	_ = reg.Register(child)
	engine, err := NewEngine(reg, nil, "child")
	if err != nil {
		t.Fatal(err)
	}
	rel := NewRelation("a", "b")
	rel.Results["child"] = 7
	engine.Compute(rel)
	if child.calls != 0 || rel.Value("child") != 7 {
		t.Errorf("existing result must not be recomputed (calls=%d value=%v)", child.calls, rel.Value("child"))
	}
}

func TestEngine_UnknownChild(t *testing.T) {
	reg := NewDefaultRegistry()
	_ = reg.Register(NewRatio("broken", Accesses, "missing"))

	_, err := NewEngine(reg, nil, "broken")
	if !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Metric != "broken" {
		t.Errorf("expected ConfigError naming broken, got %v", err)
	}
	if err := reg.Validate(); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("Validate should report the unknown child, got %v", err)
	}
}

func TestEngine_UnknownRoot(t *testing.T) {
	if _, err := NewEngine(NewRegistry(), nil, "nope"); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
	if _, err := NewEngine(NewRegistry(), nil); err == nil {
		t.Error("expected error without roots")
	}
}

func TestRegistry_Cycle(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(NewRatio("a", "b", "b"))
	_ = reg.Register(NewRatio("b", "a", "a"))

	if err := reg.Validate(); !errors.Is(err, ErrMetricCycle) {
		t.Fatalf("expected ErrMetricCycle, got %v", err)
	}
	if _, err := NewEngine(reg, nil, "a"); !errors.Is(err, ErrMetricCycle) {
		t.Errorf("expected ErrMetricCycle from engine, got %v", err)
	}
}

func TestRegistry_CycleReported(t *testing.T) {
	tests := []struct {
		name    string
		metrics []Metric
		metric  ID
		detail  string
	}{
		{"pair", []Metric{NewRatio("a", "b", "b"), NewRatio("b", "a", "a")}, "a", "a -> b -> a"},
		{"self", []Metric{NewRatio("s", "s", Accesses)}, "s", "s -> s"},
		{"three", []Metric{
			NewRatio("x", "y", Accesses),
			NewRatio("y", "z", Accesses),
			NewRatio("z", "x", Accesses),
		}, "x", "x -> y -> z -> x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewDefaultRegistry()
			for _, m := range tt.metrics {
				if err := reg.Register(m); err != nil {
					t.Fatal(err)
				}
			}
			_, err := NewEngine(reg, nil, tt.metric)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) || !errors.Is(err, ErrMetricCycle) {
				t.Fatalf("expected cycle ConfigError, got %v", err)
			}
			if cfgErr.Metric != tt.metric || cfgErr.Detail != tt.detail {
				t.Errorf("got metric %q detail %q, want %q %q", cfgErr.Metric, cfgErr.Detail, tt.metric, tt.detail)
			}
		})
	}
}

func TestEngine_OrderDeterministic(t *testing.T) {
	reg := NewDefaultRegistry()
	_ = reg.Register(NewRatio("coupling", AccessesBetween, AccessesExternal))
	sum, _ := NewWeightedSum("score", []ID{"coupling", PackageMapping, NameResemblance}, []float64{0.5, 0.3, 0.2})
	_ = reg.Register(sum)

	first, err := NewEngine(reg, nil, "score")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		e, err := NewEngine(reg, nil, "score")
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(e.Order(), first.Order()) {
			t.Fatalf("order changed between runs: %v vs %v", e.Order(), first.Order())
		}
	}
	order := first.Order()
	if order[len(order)-1] != "score" {
		t.Errorf("root must be evaluated last: %v", order)
	}
}

func TestRegistry_Duplicate(t *testing.T) {
	reg := NewDefaultRegistry()
	err := reg.Register(NewLeaf(Accesses, false, nil))
	if !errors.Is(err, ErrDuplicateMetric) {
		t.Errorf("expected ErrDuplicateMetric, got %v", err)
	}
}

func TestRegistry_IsCommutative(t *testing.T) {
	reg := NewDefaultRegistry()
	_ = reg.Register(NewRatio("directed", Accesses, AccessesOut))
	_ = reg.Register(NewRatio("symmetric", AccessesBetween, AccessesExternal))

	tests := []struct {
		id   ID
		want bool
	}{
		{Accesses, false},
		{AccessesBetween, true},
		{"directed", false},
		{"symmetric", true},
	}
	for _, tt := range tests {
		got, err := reg.IsCommutative(tt.id)
		if err != nil {
			t.Fatalf("IsCommutative(%s): %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("IsCommutative(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}

	e, err := NewEngine(reg, nil, "symmetric", "directed")
	if err != nil {
		t.Fatal(err)
	}
	if e.Commutative() {
		t.Error("engine with a directed root must not be commutative")
	}
}

func TestEngine_OrderChildrenFirst(t *testing.T) {
	reg := NewDefaultRegistry()
	_ = reg.Register(NewRatio("coupling", Accesses, AccessesOut))
	sum, _ := NewWeightedSum("score", []ID{"coupling", PackageMapping}, []float64{0.5, 0.5})
	_ = reg.Register(sum)

	e, err := NewEngine(reg, nil, "score")
	if err != nil {
		t.Fatal(err)
	}
	pos := make(map[ID]int)
	for i, id := range e.Order() {
		pos[id] = i
	}
	if len(pos) != 5 {
		t.Fatalf("expected 5 metrics in order, got %v", e.Order())
	}
	if pos["coupling"] > pos["score"] || pos[Accesses] > pos["coupling"] || pos[AccessesOut] > pos["coupling"] {
		t.Errorf("children must precede parents: %v", e.Order())
	}
}

func TestNewWeightedSum_Errors(t *testing.T) {
	if _, err := NewWeightedSum("x", nil, nil); err == nil {
		t.Error("expected error for no children")
	}
	if _, err := NewWeightedSum("x", []ID{"a"}, []float64{1, 2}); err == nil {
		t.Error("expected error for weight mismatch")
	}
}

func TestRegisterDefinitions(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		reg := NewDefaultRegistry()
		err := reg.RegisterDefinitions([]Definition{
			{ID: "coupling", Kind: "ratio", Numerator: Accesses, Denominator: AccessesOut},
			{ID: "score", Kind: "weighted_sum", Children: []ID{"coupling", NameResemblance}, Weights: []float64{0.7, 0.3}},
		})
		if err != nil {
			t.Fatalf("RegisterDefinitions: %v", err)
		}
		if _, ok := reg.Get("score"); !ok {
			t.Error("score should be registered")
		}
	})
	t.Run("unknown_kind", func(t *testing.T) {
		err := NewDefaultRegistry().RegisterDefinitions([]Definition{{ID: "x", Kind: "median"}})
		if !errors.Is(err, ErrUnknownKind) {
			t.Errorf("expected ErrUnknownKind, got %v", err)
		}
		if err != nil && !strings.Contains(err.Error(), "available: ratio, weighted_sum") {
			t.Errorf("error should list the available kinds: %v", err)
		}
	})
	t.Run("unknown_child", func(t *testing.T) {
		err := NewDefaultRegistry().RegisterDefinitions([]Definition{
			{ID: "x", Kind: "ratio", Numerator: Accesses, Denominator: "ghost"},
		})
		if !errors.Is(err, ErrUnknownMetric) {
			t.Errorf("expected ErrUnknownMetric, got %v", err)
		}
	})
	t.Run("incomplete_ratio", func(t *testing.T) {
		err := NewDefaultRegistry().RegisterDefinitions([]Definition{{ID: "x", Kind: "ratio", Numerator: Accesses}})
		if err == nil {
			t.Error("expected error for missing denominator")
		}
	})
}

func TestRelation_IDsSorted(t *testing.T) {
	rel := NewRelation("a", "b")
	rel.Results["z"] = 1
	rel.Results["a"] = 2
	ids := rel.IDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "z" {
		t.Errorf("unexpected ids %v", ids)
	}
}
