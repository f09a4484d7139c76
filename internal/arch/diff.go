package arch

import (
	"fmt"
	"sort"
	"strings"
)

// DiffType indicates the kind of change.
type DiffType string

const (
	DiffAdded    DiffType = "added"
	DiffRemoved  DiffType = "removed"
	DiffModified DiffType = "modified"
)

// ModelDiff is the difference between two reconstructed models.
type ModelDiff struct {
	OldID      string        `json:"old_id"`
	NewID      string        `json:"new_id"`
	Interfaces []ElementDiff `json:"interfaces"`
	Components []ElementDiff `json:"components"`
	DataTypes  []ElementDiff `json:"data_types"`
	Summary    DiffSummary   `json:"summary"`
}

// ElementDiff describes one changed model element. Details lists the
// member-level changes of a modified element, prefixed with + or -.
type ElementDiff struct {
	Name    string   `json:"name"`
	Type    DiffType `json:"type"`
	Details []string `json:"details,omitempty"`
}

// DiffSummary provides aggregate stats about the diff.
type DiffSummary struct {
	Added      int `json:"added"`
	Removed    int `json:"removed"`
	Modified   int `json:"modified"`
	Signatures int `json:"signature_delta"`
}

// Diff compares two models by element name. Elements are compared by their
// rendered members, so models from different runs compare cleanly.
func Diff(old, new *Model) *ModelDiff {
	d := &ModelDiff{OldID: old.ID, NewID: new.ID}

	d.Interfaces = diffElements(interfaceMembers(old), interfaceMembers(new))
	d.Components = diffElements(componentMembers(old), componentMembers(new))
	d.DataTypes = diffElements(dataTypeMembers(old), dataTypeMembers(new))

	for _, group := range [][]ElementDiff{d.Interfaces, d.Components, d.DataTypes} {
		for _, e := range group {
			switch e.Type {
			case DiffAdded:
				d.Summary.Added++
			case DiffRemoved:
				d.Summary.Removed++
			case DiffModified:
				d.Summary.Modified++
			}
		}
	}
	d.Summary.Signatures = new.Counts().Signatures - old.Counts().Signatures
	return d
}

// Empty reports whether the models are equivalent.
func (d *ModelDiff) Empty() bool {
	return len(d.Interfaces) == 0 && len(d.Components) == 0 && len(d.DataTypes) == 0
}

func interfaceMembers(m *Model) map[string][]string {
	out := make(map[string][]string)
	for _, i := range m.Interfaces() {
		members := make([]string, 0, len(i.Signatures))
		for _, s := range i.Signatures {
			members = append(members, s.String())
		}
		out[i.Name] = members
	}
	return out
}

func componentMembers(m *Model) map[string][]string {
	out := make(map[string][]string)
	for _, c := range m.Components() {
		var members []string
		for _, i := range c.Provided() {
			members = append(members, "provides "+i.Name)
		}
		for _, i := range c.Required() {
			members = append(members, "requires "+i.Name)
		}
		out[c.Name] = members
	}
	return out
}

func dataTypeMembers(m *Model) map[string][]string {
	out := make(map[string][]string)
	for _, dt := range m.DataTypes() {
		var members []string
		if dt.Element != nil {
			members = append(members, "element "+dt.Element.String())
		}
		for _, f := range dt.Fields {
			members = append(members, f.Name+" "+f.Type.String())
		}
		out[dt.Key()] = members
	}
	return out
}

func diffElements(oldMap, newMap map[string][]string) []ElementDiff {
	var diffs []ElementDiff
	for name, oldMembers := range oldMap {
		newMembers, ok := newMap[name]
		if !ok {
			diffs = append(diffs, ElementDiff{Name: name, Type: DiffRemoved})
			continue
		}
		if details := diffMembers(oldMembers, newMembers); len(details) > 0 {
			diffs = append(diffs, ElementDiff{Name: name, Type: DiffModified, Details: details})
		}
	}
	for name := range newMap {
		if _, ok := oldMap[name]; !ok {
			diffs = append(diffs, ElementDiff{Name: name, Type: DiffAdded})
		}
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Name < diffs[j].Name })
	return diffs
}

func diffMembers(oldMembers, newMembers []string) []string {
	oldSet := make(map[string]bool, len(oldMembers))
	for _, m := range oldMembers {
		oldSet[m] = true
	}
	newSet := make(map[string]bool, len(newMembers))
	for _, m := range newMembers {
		newSet[m] = true
	}
	var details []string
	for _, m := range oldMembers {
		if !newSet[m] {
			details = append(details, "- "+m)
		}
	}
	for _, m := range newMembers {
		if !oldSet[m] {
			details = append(details, "+ "+m)
		}
	}
	sort.Strings(details)
	return details
}

// FormatDiff returns a human-readable string representation of the diff.
func FormatDiff(d *ModelDiff) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Diff: %s -> %s\n", d.OldID, d.NewID))
	sb.WriteString(fmt.Sprintf("Elements: +%d -%d ~%d\n", d.Summary.Added, d.Summary.Removed, d.Summary.Modified))
	sb.WriteString(fmt.Sprintf("Signatures: %+d\n", d.Summary.Signatures))

	sections := []struct {
		title string
		diffs []ElementDiff
	}{
		{"Interfaces", d.Interfaces},
		{"Components", d.Components},
		{"Data types", d.DataTypes},
	}
	for _, s := range sections {
		if len(s.diffs) == 0 {
			continue
		}
		sb.WriteString("\n" + s.title + ":\n")
		for _, e := range s.diffs {
			icon := "~"
			switch e.Type {
			case DiffAdded:
				icon = "+"
			case DiffRemoved:
				icon = "-"
			}
			sb.WriteString(fmt.Sprintf("  %s %s\n", icon, e.Name))
			for _, detail := range e.Details {
				sb.WriteString("      " + detail + "\n")
			}
		}
	}
	return sb.String()
}
