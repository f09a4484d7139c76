package typemap

import (
	"reflect"
	"testing"

	"github.com/efebarandurmaz/archrecover/internal/arch"
	"github.com/efebarandurmaz/archrecover/internal/ir"
)

func prim(name string) *ir.TypeRef { return &ir.TypeRef{Kind: ir.RefPrimitive, Name: name} }

func class(name string, args ...*ir.TypeRef) *ir.TypeRef {
	return &ir.TypeRef{Kind: ir.RefClassifier, Name: name, Args: args}
}

func loadShop(t *testing.T) *ir.Program {
	t.Helper()
	p, err := ir.Load("../ir/testdata/shop.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return p
}

func newTransformer(t *testing.T, opts Options) (*Transformer, *arch.Model) {
	t.Helper()
	m := arch.NewModel("test")
	return New(loadShop(t), m, opts), m
}

func TestNormalize(t *testing.T) {
	tr, _ := newTransformer(t, Options{})
	list := class("java.util.List", class("shop.orders.Order"))
	tests := []struct {
		name   string
		ref    *ir.TypeRef
		dims   int
		vararg bool
		want   SourceType
	}{
		{"nil", nil, 0, false, Unresolved{}},
		{"void", &ir.TypeRef{Kind: ir.RefVoid}, 0, false, Void{}},
		{"primitive", prim("int"), 0, false, Primitive{Keyword: "int"}},
		{"classifier", class("shop.orders.Order"), 0, false, Classifier{Name: "shop.orders.Order"}},
		{"array from ref", &ir.TypeRef{Kind: ir.RefPrimitive, Name: "int", ArrayDims: 2}, 0, false,
			Array{Element: Array{Element: Primitive{Keyword: "int"}}}},
		{"array from declarator", prim("int"), 1, false, Array{Element: Primitive{Keyword: "int"}}},
		{"generic collection", list, 0, false,
			GenericCollection{Collection: "List", Element: Classifier{Name: "shop.orders.Order"}}},
		{"raw collection", class("java.util.List"), 0, false, Classifier{Name: "java.util.List"}},
		{"vararg of arrays of collections", list, 1, true,
			Vararg{Element: Array{Element: GenericCollection{Collection: "List", Element: Classifier{Name: "shop.orders.Order"}}}}},
		{"unknown kind", &ir.TypeRef{Kind: "lambda"}, 0, false, Unresolved{}},
		{"unnamed classifier", &ir.TypeRef{Kind: ir.RefClassifier}, 0, false, Unresolved{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tr.Normalize(tt.ref, tt.dims, tt.vararg)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestIsCollection(t *testing.T) {
	tr, _ := newTransformer(t, Options{})
	tests := []struct {
		name string
		want bool
	}{
		{"java.util.Collection", true},
		{"java.util.List", true}, // through its declared supertype
		{"com.example.Collection", true},
		{"shop.orders.Order", false},
		{"unknown.Type", false},
	}
	for _, tt := range tests {
		if got := tr.isCollection(tt.name); got != tt.want {
			t.Errorf("isCollection(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsCollection_CyclicSupertypes(t *testing.T) {
	p := &ir.Program{Units: []*ir.Unit{
		{Name: "A", Namespace: "x", Kind: ir.KindInterface, Supertypes: []string{"x.B"}},
		{Name: "B", Namespace: "x", Kind: ir.KindInterface, Supertypes: []string{"x.A"}},
	}}
	p.Index()
	tr := New(p, arch.NewModel("t"), Options{})
	if tr.isCollection("x.A") {
		t.Error("cyclic hierarchy without Collection must not be a collection")
	}
}

func TestMapType_Primitives(t *testing.T) {
	tr, _ := newTransformer(t, Options{})
	tests := []struct {
		keyword string
		want    arch.PrimitiveKind
	}{
		{"boolean", arch.BOOLEAN},
		{"byte", arch.BYTE},
		{"char", arch.CHAR},
		{"double", arch.DOUBLE},
		{"float", arch.DOUBLE},
		{"int", arch.INTEGER},
		{"short", arch.INTEGER},
		{"long", arch.LONG},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			dt, ok := tr.MapType(prim(tt.keyword), 0, false, false)
			if !ok || dt.Kind != arch.KindPrimitive || dt.Primitive != tt.want {
				t.Errorf("got %+v (ok=%v), want %s", dt, ok, tt.want)
			}
		})
	}
	if _, ok := tr.MapType(prim("decimal"), 0, false, false); ok {
		t.Error("unknown primitive keyword should be unresolved")
	}
	if dt, ok := tr.MapType(class("java.lang.String"), 0, false, false); !ok || dt.Primitive != arch.STRING {
		t.Errorf("String should map to STRING, got %+v", dt)
	}
}

func TestMapType_Identity(t *testing.T) {
	tr, _ := newTransformer(t, Options{})
	void := &ir.TypeRef{Kind: ir.RefVoid}
	tests := []struct {
		name     string
		ref      *ir.TypeRef
		dims     int
		asReturn bool
		kind     arch.DataTypeKind
	}{
		{"primitive", prim("long"), 0, false, arch.KindPrimitive},
		{"composite", class("shop.orders.Order"), 0, false, arch.KindComposite},
		{"collection", class("java.util.List", class("shop.orders.Order")), 0, false, arch.KindCollection},
		{"array", prim("int"), 1, false, arch.KindCollection},
		{"void", void, 0, true, arch.KindComposite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, ok := tr.MapType(tt.ref, tt.dims, false, tt.asReturn)
			if !ok {
				t.Fatal("expected a mapping")
			}
			second, _ := tr.MapType(tt.ref, tt.dims, false, tt.asReturn)
			if first != second {
				t.Error("mapping the same reference twice must yield the same instance")
			}
			if first.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", first.Kind, tt.kind)
			}
		})
	}
}

func TestMapType_CollectionNames(t *testing.T) {
	tr, m := newTransformer(t, Options{})
	order := class("shop.orders.Order")
	list := class("java.util.List", order)
	tests := []struct {
		name    string
		ref     *ir.TypeRef
		dims    int
		vararg  bool
		want    string
		element string
	}{
		{"int array", prim("int"), 1, false, "INTEGER[]", "INTEGER"},
		{"matrix", prim("int"), 2, false, "INTEGER[][]", "INTEGER[]"},
		{"vararg", class("java.lang.String"), 0, true, "STRING...", "STRING"},
		{"list", list, 0, false, "List<Order>", "Order"},
		{"nested", class("java.util.List", list), 0, false, "List<List<Order>>", "List<Order>"},
		{"vararg of list arrays", list, 1, true, "List<Order>[]...", "List<Order>[]"},
		{"unresolved element", class("java.util.List", nil), 0, false, "List<Object>", "Object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt, ok := tr.MapType(tt.ref, tt.dims, tt.vararg, false)
			if !ok {
				t.Fatal("expected a mapping")
			}
			if dt.Kind != arch.KindCollection || dt.Name != tt.want {
				t.Errorf("got %s %q, want collection %q", dt.Kind, dt.Name, tt.want)
			}
			if dt.Element.String() != tt.element {
				t.Errorf("element = %q, want %q", dt.Element.String(), tt.element)
			}
			if canonical, _ := m.DataType(dt.Element.Key()); canonical != dt.Element {
				t.Error("collection element should be the canonical instance")
			}
		})
	}
}

func TestMapType_VoidOnlyAsReturn(t *testing.T) {
	tr, _ := newTransformer(t, Options{})
	void := &ir.TypeRef{Kind: ir.RefVoid}
	if _, ok := tr.MapType(void, 0, false, false); ok {
		t.Error("void parameter must be unresolved")
	}
	dt, ok := tr.MapType(void, 0, false, true)
	if !ok || dt.Name != VoidTypeName || len(dt.Fields) != 0 {
		t.Errorf("unexpected void mapping %+v", dt)
	}
}

func TestMapOrDefault(t *testing.T) {
	tr, _ := newTransformer(t, Options{})
	a := tr.MapOrDefault(nil, 0, false, false)
	b := tr.MapOrDefault(&ir.TypeRef{Kind: "unknown"}, 0, false, true)
	if a != b || a.Name != DefaultTypeName || a.Kind != arch.KindComposite {
		t.Errorf("unresolved references should share the default composite, got %+v and %+v", a, b)
	}
}

func TestExpandFields(t *testing.T) {
	p := &ir.Program{Units: []*ir.Unit{
		{Name: "Node", Namespace: "g", Kind: ir.KindClass, Fields: []*ir.Field{
			{Name: "next", Type: class("g.Node")},
			{Name: "label", Type: class("java.lang.String")},
			{Name: "weights", Type: &ir.TypeRef{Kind: ir.RefPrimitive, Name: "double", ArrayDims: 1}},
		}},
	}}
	p.Index()

	t.Run("off by default", func(t *testing.T) {
		tr := New(p, arch.NewModel("t"), Options{})
		dt, _ := tr.MapType(class("g.Node"), 0, false, false)
		if len(dt.Fields) != 0 {
			t.Errorf("fields should not be expanded, got %d", len(dt.Fields))
		}
	})
	t.Run("recursive", func(t *testing.T) {
		tr := New(p, arch.NewModel("t"), Options{ExpandFields: true})
		dt, _ := tr.MapType(class("g.Node"), 0, false, false)
		if len(dt.Fields) != 3 {
			t.Fatalf("expected 3 fields, got %d", len(dt.Fields))
		}
		if dt.Fields[0].Type != dt {
			t.Error("self reference should resolve to the same composite")
		}
		if dt.Fields[1].Type.Primitive != arch.STRING || dt.Fields[2].Type.Name != "DOUBLE[]" {
			t.Errorf("unexpected field types %s, %s", dt.Fields[1].Type, dt.Fields[2].Type)
		}
		again, _ := tr.MapType(class("g.Node"), 0, false, false)
		if len(again.Fields) != 3 {
			t.Error("fields must be expanded only once")
		}
	})
}

func TestSignature_RoundTrip(t *testing.T) {
	p := &ir.Program{Units: []*ir.Unit{{
		Name: "Foo", Namespace: "x", Kind: ir.KindInterface,
		Methods: []*ir.Method{{
			Name: "bar",
			Parameters: []*ir.Parameter{
				{Name: "s", Type: class("java.lang.String")},
				{Name: "nums", Type: &ir.TypeRef{Kind: ir.RefPrimitive, Name: "int", ArrayDims: 1}},
			},
			Returns: prim("int"),
		}},
	}}}
	p.Index()
	m := arch.NewModel("t")
	tr := New(p, m, Options{})

	sig := tr.Signature(p.Units[0].Methods[0])
	integer, _ := m.DataType("primitive:INTEGER")
	if sig.Name != "bar" || sig.Returns != integer {
		t.Fatalf("unexpected signature %s", sig)
	}
	if len(sig.Parameters) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(sig.Parameters))
	}
	s, nums := sig.Parameters[0], sig.Parameters[1]
	if s.Name != "s" || s.Type.Kind != arch.KindPrimitive || s.Type.Primitive != arch.STRING {
		t.Errorf("unexpected first parameter %+v", s)
	}
	if nums.Name != "nums" || nums.Type.Kind != arch.KindCollection || nums.Type.Name != "INTEGER[]" || nums.Type.Element != integer {
		t.Errorf("unexpected second parameter %+v", nums)
	}
	if s.Modifier != arch.ModifierIn || nums.Modifier != arch.ModifierIn {
		t.Error("parameters should be IN")
	}
	if got := sig.String(); got != "bar(STRING, INTEGER[]) INTEGER" {
		t.Errorf("String() = %q", got)
	}
}

func TestSignature_VarargVoid(t *testing.T) {
	tr, _ := newTransformer(t, Options{})
	m := &ir.Method{
		Name:       "track",
		Parameters: []*ir.Parameter{{Name: "ids", Type: prim("long"), Vararg: true}},
		Returns:    &ir.TypeRef{Kind: ir.RefVoid},
	}
	sig := tr.Signature(m)
	if sig.Returns == nil || sig.Returns.Name != VoidTypeName {
		t.Errorf("void return should map to %s, got %v", VoidTypeName, sig.Returns)
	}
	if len(sig.Parameters) != 1 || sig.Parameters[0].Type.Name != "LONG..." {
		t.Errorf("unexpected parameters %+v", sig.Parameters)
	}
}
