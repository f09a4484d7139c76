package archstore

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/efebarandurmaz/archrecover/internal/arch"
)

func sampleModel() *arch.Model {
	m := arch.NewModel("shop/orders")
	integer := m.RegisterDataType(arch.NewPrimitive(arch.INTEGER))
	svc := m.AddInterface("shop_OrderService")
	svc.AddSignature(&arch.Signature{Name: "count", Returns: integer})
	for _, name := range []string{"shop_B", "shop_A"} {
		m.AddComponent(name).Provide(svc)
	}
	m.AddComponent("shop_C").Require(svc)
	return m
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close(ctx)

	m := sampleModel()
	if err := store.StoreModel(ctx, m); err != nil {
		t.Fatalf("StoreModel: %v", err)
	}
	got, err := store.LoadModel(ctx, "shop/orders")
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if got.ID != m.ID || got.Counts() != m.Counts() {
		t.Errorf("loaded model differs: %+v", got.Counts())
	}

	providers, err := store.QueryProviders(ctx, "shop/orders", "shop_OrderService")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(providers, []string{"shop_A", "shop_B"}) {
		t.Errorf("unexpected providers %v", providers)
	}

	if _, err := store.LoadModel(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStore_Path(t *testing.T) {
	s := &FileStore{dir: "/store"}
	tests := []struct {
		name string
		want string
	}{
		{"shop", "/store/shop.json"},
		{"shop/orders", "/store/shop_orders.json"},
		{"../etc", "/store/_etc.json"},
		{"", "/store/model.json"},
	}
	for _, tt := range tests {
		if got := s.path(tt.name); got != tt.want {
			t.Errorf("path(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
