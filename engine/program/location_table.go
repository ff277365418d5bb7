package program

import (
	"slices"

	"cogentcore.org/core/base/keylist"
	"github.com/ccaven/lunch/engine/backend"
	"github.com/ccaven/lunch/engine/shader"
)

// Entry is one attribute or uniform of a linked program.
type Entry struct {
	Name     string
	GLSLType string
	Location backend.Location

	// Active is false when the backend reported no location for the name, i.e. the variable
	// was declared but optimised out by the driver.
	Active bool
}

// LocationTable is the ordered name to location mapping of one program. Order is the order
// in which names were first declared. A table is built once per link and never modified.
type LocationTable struct {
	list *keylist.List[string, Entry]
}

// buildTable resolves the location of every declared variable through lookup.
func buildTable(vars []shader.DeclaredVariable, lookup func(name string) (backend.Location, bool)) LocationTable {
	list := keylist.New[string, Entry]()
	for _, v := range vars {
		loc, ok := lookup(v.Name)
		list.Set(v.Name, Entry{
			Name:     v.Name,
			GLSLType: v.GLSLType,
			Location: loc,
			Active:   ok,
		})
	}
	return LocationTable{list: list}
}

// Len returns the number of entries.
func (t LocationTable) Len() int {
	if t.list == nil {
		return 0
	}
	return t.list.Len()
}

// Get looks up an entry by name.
func (t LocationTable) Get(name string) (Entry, bool) {
	if t.list == nil {
		return Entry{}, false
	}
	return t.list.AtTry(name)
}

// Names returns the entry names in declaration order.
func (t LocationTable) Names() []string {
	if t.list == nil {
		return []string{}
	}
	return slices.Clone(t.list.Keys)
}

// Entries returns a copy of all entries in declaration order.
func (t LocationTable) Entries() []Entry {
	if t.list == nil {
		return []Entry{}
	}
	return slices.Clone(t.list.Values)
}

// Inactive returns the names of the entries without a backend location.
func (t LocationTable) Inactive() []string {
	out := make([]string, 0)
	for _, e := range t.Entries() {
		if !e.Active {
			out = append(out, e.Name)
		}
	}
	return out
}
