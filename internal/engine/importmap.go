package engine

import "encoding/json"

// ImportMap is an ordered key->URL map propagated and merged along graph
// edges, per spec.md §6 "Import-map surface".
//
// Merging is copy-on-merge: a task receives a freshly merged map built
// from its dependencies' maps (see Merge), which it may mutate freely;
// the result is stored against its own node and never aliases an
// upstream node's map.
type ImportMap struct {
	entries map[string]string
	order   []string
}

// NewImportMap returns an empty ImportMap.
func NewImportMap() *ImportMap {
	return &ImportMap{entries: make(map[string]string)}
}

// Set registers or overwrites a specifier -> URL mapping.
func (m *ImportMap) Set(specifier, url string) {
	if _, exists := m.entries[specifier]; !exists {
		m.order = append(m.order, specifier)
	}
	m.entries[specifier] = url
}

// Get looks up a specifier.
func (m *ImportMap) Get(specifier string) (string, bool) {
	v, ok := m.entries[specifier]
	return v, ok
}

// Clone returns a deep, independent copy.
func (m *ImportMap) Clone() *ImportMap {
	out := NewImportMap()
	for _, k := range m.order {
		out.Set(k, m.entries[k])
	}
	return out
}

// Merge returns a new map combining base with all of overlays in order;
// later overlays win on key conflicts. The inputs are never mutated.
func Merge(base *ImportMap, overlays ...*ImportMap) *ImportMap {
	out := NewImportMap()
	if base != nil {
		for _, k := range base.order {
			out.Set(k, base.entries[k])
		}
	}
	for _, o := range overlays {
		if o == nil {
			continue
		}
		for _, k := range o.order {
			out.Set(k, o.entries[k])
		}
	}
	return out
}

// browserImportMap is the standard-form JSON document browsers consume:
//
//	{"imports": {"specifier": "url", ...}}
type browserImportMap struct {
	Imports map[string]string `json:"imports"`
}

// MarshalJSON serializes to the browser's standard import-map JSON form.
func (m *ImportMap) MarshalJSON() ([]byte, error) {
	doc := browserImportMap{Imports: make(map[string]string, len(m.order))}
	for _, k := range m.order {
		doc.Imports[k] = m.entries[k]
	}
	return json.Marshal(doc)
}
