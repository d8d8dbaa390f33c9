// Package graph builds the superclass graph of extracted classes and walks it.
package graph

import (
	"sort"

	"github.com/phobologic/docmeta/internal/model"
)

// Hierarchy is an immutable superclass graph.
type Hierarchy struct {
	parents  map[string][]string
	children map[string]map[string]struct{}
}

// Build creates the hierarchy from the top-level classes among symbols.
// If a class is defined more than once, its first definition wins.
func Build(symbols []model.Symbol) *Hierarchy {
	h := &Hierarchy{
		parents:  make(map[string][]string),
		children: make(map[string]map[string]struct{}),
	}
	for i := range symbols {
		s := &symbols[i]
		if s.Kind != model.Class || s.Class != "" {
			continue
		}
		if _, dup := h.parents[s.Name]; dup {
			continue
		}
		h.parents[s.Name] = append([]string{}, s.Superclasses...)
		for _, p := range s.Superclasses {
			if h.children[p] == nil {
				h.children[p] = make(map[string]struct{})
			}
			h.children[p][s.Name] = struct{}{}
		}
	}
	return h
}

// Superclasses returns the direct superclasses of class in declaration order.
func (h *Hierarchy) Superclasses(class string) []string {
	return h.parents[class]
}

// Subclasses returns the direct subclasses of class, sorted by name.
func (h *Hierarchy) Subclasses(class string) []string {
	return sortedKeys(h.children[class])
}

// Ancestors returns every superclass of class, nearest first, each once.
// The order is the C3 linearization when one exists; inconsistent or cyclic
// graphs fall back to a depth-first, left-to-right walk. Classes that are
// referenced but not defined are leaves.
func (h *Hierarchy) Ancestors(class string) []string {
	if l, ok := h.c3(class, make(map[string]bool)); ok {
		return l[1:]
	}
	return h.depthFirst(class)
}

func (h *Hierarchy) c3(class string, visiting map[string]bool) ([]string, bool) {
	if visiting[class] {
		return nil, false
	}
	parents := h.parents[class]
	if len(parents) == 0 {
		return []string{class}, true
	}

	visiting[class] = true
	defer delete(visiting, class)

	seqs := make([][]string, 0, len(parents)+1)
	for _, p := range parents {
		l, ok := h.c3(p, visiting)
		if !ok {
			return nil, false
		}
		seqs = append(seqs, l)
	}
	seqs = append(seqs, append([]string{}, parents...))

	merged, ok := merge(seqs)
	if !ok {
		return nil, false
	}
	return append([]string{class}, merged...), true
}

// merge repeatedly takes the first list head that appears in no list's tail.
func merge(seqs [][]string) ([]string, bool) {
	var out []string
	for {
		var live [][]string
		for _, s := range seqs {
			if len(s) > 0 {
				live = append(live, s)
			}
		}
		if len(live) == 0 {
			return out, true
		}

		head, found := "", false
		for _, s := range live {
			if !inTail(s[0], live) {
				head, found = s[0], true
				break
			}
		}
		if !found {
			return nil, false
		}

		out = append(out, head)
		for i, s := range live {
			if s[0] == head {
				live[i] = s[1:]
			}
		}
		seqs = live
	}
}

func inTail(name string, seqs [][]string) bool {
	for _, s := range seqs {
		if contains(s[1:], name) {
			return true
		}
	}
	return false
}

func (h *Hierarchy) depthFirst(class string) []string {
	visited := map[string]struct{}{class: {}}
	var out []string
	var visit func(c string)
	visit = func(c string) {
		for _, p := range h.parents[c] {
			if _, seen := visited[p]; seen {
				continue
			}
			visited[p] = struct{}{}
			out = append(out, p)
			visit(p)
		}
	}
	visit(class)
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
