package formatter

import (
	"github.com/artpar/resttree/core/registry"
	"github.com/artpar/resttree/core/resource"
)

// RouteColumns are the columns of Routes.
var RouteColumns = []string{"path", "verb", "invoker", "service", "kind"}

// Routes describes the assembled resource tree, one record per verb slot.
func Routes(routes []registry.Route) Dataset {
	records := make([]map[string]any, len(routes))
	for i, r := range routes {
		records[i] = map[string]any{
			"path":    r.Path,
			"verb":    r.Verb.String(),
			"invoker": r.Invoker.Name(),
			"service": r.Invoker.Service(),
			"kind":    r.Invoker.Kind().String(),
		}
	}
	return Dataset{Name: "Routes", Columns: RouteColumns, Records: records}
}

// UnassembledColumns are the columns of Unassembled.
var UnassembledColumns = []string{"service", "invoker", "signature"}

// Unassembled describes invokers no assembler placed on the tree.
func Unassembled(invokers []*resource.Invoker) Dataset {
	records := make([]map[string]any, len(invokers))
	for i, inv := range invokers {
		records[i] = map[string]any{
			"service":   inv.Service(),
			"invoker":   inv.Name(),
			"signature": inv.String(),
		}
	}
	return Dataset{Name: "Unassembled invokers", Columns: UnassembledColumns, Records: records}
}
