package ir

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Load reads a JSON whole-program model from path.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open program model: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a JSON whole-program model and indexes it.
func Decode(r io.Reader) (*Program, error) {
	var p Program
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode program model: %w", err)
	}
	seen := make(map[string]bool, len(p.Units))
	for i, u := range p.Units {
		if u == nil || u.Name == "" {
			return nil, fmt.Errorf("unit %d has no name", i)
		}
		qn := u.QualifiedName()
		if seen[qn] {
			return nil, fmt.Errorf("duplicate unit %q", qn)
		}
		seen[qn] = true
	}
	p.Index()
	return &p, nil
}
