package storage

import (
	"context"
	"fmt"

	"github.com/artpar/resttree/core/convention"
	"github.com/artpar/resttree/core/resource"
	"github.com/artpar/resttree/core/schema"
)

// Paging input names of the list call.
const (
	OffsetInput = "offset"
	LimitInput  = "limit"
)

// ServiceName returns the service name under which a model's store
// invokers are registered.
func ServiceName(model *schema.Model) string {
	return convention.ServiceName(model.Name())
}

// Invokers returns the CRUD calls of a model backed by store, shaped for
// the default assemblers:
//
//	all([offset int], [limit int], [<prop> ...]) []M
//	get(id M.id) M
//	insert(m M) M.id
//	update(m M) bool
//	delete(id M.id) bool
//
// Every non-id property is an optional equality filter of all.
func Invokers(store Store, model *schema.Model) ([]*resource.Invoker, error) {
	idProp, ok := model.IDProperty()
	if !ok {
		return nil, fmt.Errorf("model %s has no id property", model.Name())
	}

	idIn := schema.Input{Name: "id", Type: idProp}
	objIn := schema.Input{Name: lowerFirst(model.Name()), Type: model}

	all, err := listInvoker(store, model)
	if err != nil {
		return nil, err
	}

	get, err := resource.NewFunctionInvoker("get"+model.Name(), model, []schema.Input{idIn}, 1,
		func(ctx context.Context, args []any) (any, error) {
			return store.Get(ctx, model, args[0])
		})
	if err != nil {
		return nil, err
	}

	insert, err := resource.NewFunctionInvoker("insert"+model.Name(), idProp, []schema.Input{objIn}, 1,
		func(ctx context.Context, args []any) (any, error) {
			return store.Insert(ctx, model, args[0])
		})
	if err != nil {
		return nil, err
	}

	update, err := resource.NewFunctionInvoker("update"+model.Name(), schema.Bool, []schema.Input{objIn}, 1,
		func(ctx context.Context, args []any) (any, error) {
			return store.Update(ctx, model, args[0])
		})
	if err != nil {
		return nil, err
	}

	del, err := resource.NewFunctionInvoker("delete"+model.Name(), schema.Bool, []schema.Input{idIn}, 1,
		func(ctx context.Context, args []any) (any, error) {
			return store.Delete(ctx, model, args[0])
		})
	if err != nil {
		return nil, err
	}

	return []*resource.Invoker{all, get, insert, update, del}, nil
}

func listInvoker(store Store, model *schema.Model) (*resource.Invoker, error) {
	inputs := []schema.Input{
		{Name: OffsetInput, Type: schema.Int},
		{Name: LimitInput, Type: schema.Int},
	}
	var filters []*schema.Property
	for _, p := range model.Properties() {
		if p.IsID() || p.Name() == OffsetInput || p.Name() == LimitInput {
			continue
		}
		inputs = append(inputs, schema.Input{Name: p.Name(), Type: p.Primitive()})
		filters = append(filters, p)
	}

	return resource.NewFunctionInvoker("all"+convention.Pluralize(model.Name()), schema.ListOf(model), inputs, 0,
		func(ctx context.Context, args []any) (any, error) {
			opts := ListOptions{Filters: make(map[string]any)}
			if len(args) > 0 {
				opts.Offset = intArg(args[0])
			}
			if len(args) > 1 {
				opts.Limit = intArg(args[1])
			}
			for i, p := range filters {
				if 2+i < len(args) && args[2+i] != nil {
					opts.Filters[p.Name()] = args[2+i]
				}
			}
			return store.List(ctx, model, opts)
		})
}

func intArg(v any) int {
	i, err := schema.Coerce(schema.Int, v)
	if err != nil || i == nil {
		return 0
	}
	return int(i.(int64))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
