package resource

import (
	"fmt"
	"strings"
)

// Verb is a resource operation role. Verbs combine into a bitmask.
type Verb uint8

const (
	VerbGet Verb = 1 << iota
	VerbInsert
	VerbUpdate
	VerbDelete
)

// Verbs lists the single verbs in slot order.
var Verbs = []Verb{VerbGet, VerbInsert, VerbUpdate, VerbDelete}

var verbNames = map[Verb]string{
	VerbGet:    "GET",
	VerbInsert: "INSERT",
	VerbUpdate: "UPDATE",
	VerbDelete: "DELETE",
}

// ParseVerb resolves a single verb by name.
func ParseVerb(name string) (Verb, error) {
	for v, n := range verbNames {
		if strings.EqualFold(n, name) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown verb %q", name)
}

// Has reports whether every verb in o is in v.
func (v Verb) Has(o Verb) bool { return o != 0 && v&o == o }

func (v Verb) String() string {
	if name, ok := verbNames[v]; ok {
		return name
	}

	var names []string
	for _, single := range Verbs {
		if v.Has(single) {
			names = append(names, verbNames[single])
		}
	}
	if len(names) == 0 {
		return "NONE"
	}
	return strings.Join(names, ", ")
}

func (v Verb) slot() (int, bool) {
	for i, single := range Verbs {
		if v == single {
			return i, true
		}
	}
	return 0, false
}
