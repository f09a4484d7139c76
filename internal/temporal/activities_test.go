package temporal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/efebarandurmaz/archrecover/internal/arch"
	"github.com/efebarandurmaz/archrecover/internal/archstore"
	"github.com/efebarandurmaz/archrecover/internal/config"
)

const shopProgram = "../ir/testdata/shop.json"

func TestSetDependencies(t *testing.T) {
	cfg := config.Default()
	SetDependencies(&Dependencies{Config: cfg})
	t.Cleanup(func() { SetDependencies(nil) })

	if deps == nil {
		t.Fatal("SetDependencies failed: deps is nil")
	}
	if deps.Config != cfg {
		t.Error("SetDependencies did not set config correctly")
	}
}

func TestReconstructActivity_Shop(t *testing.T) {
	SetDependencies(&Dependencies{Config: config.Default()})
	t.Cleanup(func() { SetDependencies(nil) })

	out := filepath.Join(t.TempDir(), "model", "shop.json")
	result, err := ReconstructActivity(context.Background(), ReconstructionInput{
		InputPath:  shopProgram,
		OutputPath: out,
	})
	if err != nil {
		t.Fatalf("ReconstructActivity: %v", err)
	}

	if result.ModelName != "shop" || result.ModelID == "" {
		t.Errorf("unexpected model identity %q/%q", result.ModelName, result.ModelID)
	}
	if result.Interfaces != 2 || result.Components != 1 || result.Clusters != 1 {
		t.Errorf("unexpected counts %+v", result)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("default config should not warn: %v", result.Warnings)
	}

	m, err := arch.ReadFile(out)
	if err != nil {
		t.Fatalf("model file not readable: %v", err)
	}
	if m.ID != result.ModelID {
		t.Errorf("written model id %q, reported %q", m.ID, result.ModelID)
	}
}

func TestReconstructActivity_NoDependencies(t *testing.T) {
	SetDependencies(nil)

	out := filepath.Join(t.TempDir(), "shop.json")
	if _, err := ReconstructActivity(context.Background(), ReconstructionInput{
		InputPath:  shopProgram,
		OutputPath: out,
	}); err != nil {
		t.Fatalf("ReconstructActivity without dependencies: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("model not written: %v", err)
	}
}

func TestReconstructActivity_ConfigFile(t *testing.T) {
	SetDependencies(nil)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "archrecover.yaml")
	cfgYAML := []byte("clustering:\n  strategy: nosuch\n")
	if err := os.WriteFile(cfgPath, cfgYAML, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ReconstructActivity(context.Background(), ReconstructionInput{
		InputPath:  shopProgram,
		OutputPath: filepath.Join(dir, "shop.json"),
		ConfigPath: cfgPath,
	})
	if err == nil {
		t.Fatal("expected unknown strategy to fail the activity")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "shop.json")); statErr == nil {
		t.Error("no model should be written for a failed run")
	}
}

func TestReconstructActivity_MissingInput(t *testing.T) {
	SetDependencies(nil)

	_, err := ReconstructActivity(context.Background(), ReconstructionInput{
		InputPath:  filepath.Join(t.TempDir(), "missing.json"),
		OutputPath: filepath.Join(t.TempDir(), "out.json"),
	})
	if err == nil {
		t.Fatal("expected error for missing program")
	}
}

func TestStoreActivity(t *testing.T) {
	dir := t.TempDir()
	store, err := archstore.NewFileStore(filepath.Join(dir, "store"))
	if err != nil {
		t.Fatal(err)
	}
	SetDependencies(&Dependencies{Config: config.Default(), Repository: store})
	t.Cleanup(func() { SetDependencies(nil) })

	out := filepath.Join(dir, "shop.json")
	if _, err := ReconstructActivity(context.Background(), ReconstructionInput{
		InputPath:  shopProgram,
		OutputPath: out,
	}); err != nil {
		t.Fatalf("ReconstructActivity: %v", err)
	}

	if err := StoreActivity(context.Background(), out); err != nil {
		t.Fatalf("StoreActivity: %v", err)
	}

	providers, err := store.QueryProviders(context.Background(), "shop", "shop_orders_OrderRepository")
	if err != nil {
		t.Fatalf("QueryProviders: %v", err)
	}
	if len(providers) != 1 || providers[0] != "shop_orders_JdbcOrderRepository" {
		t.Errorf("unexpected providers %v", providers)
	}
}

func TestStoreActivity_NoRepository(t *testing.T) {
	SetDependencies(&Dependencies{})
	t.Cleanup(func() { SetDependencies(nil) })

	err := StoreActivity(context.Background(), "unused.json")
	if !errors.Is(err, ErrNoRepository) {
		t.Errorf("expected ErrNoRepository, got %v", err)
	}
}
