// Package registry owns the resource tree. Services are registered at
// startup, their calls are classified by the configured assemblers, and the
// tree is sealed before serving. After that it answers forward lookups
// (tokens to path) and reverse lookups (signature to path) without locking.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/artpar/resttree/core/convention"
	"github.com/artpar/resttree/core/events"
	"github.com/artpar/resttree/core/resource"
	"github.com/artpar/resttree/core/schema"
)

// Config configures a registry.
type Config struct {
	// Assemblers in the order they are tried. Defaults to convention.Default().
	Assemblers []convention.Assembler

	Logger zerolog.Logger

	// Events receives assembly events. Optional.
	Events *events.Bus
}

// Registry manages registered services and the resource tree.
type Registry struct {
	mu sync.Mutex

	root       *resource.Node
	assemblers []convention.Assembler

	// services by name, in registration order
	services []*schema.Service
	names    map[string]bool

	unassembled []*resource.Invoker

	logger zerolog.Logger
	bus    *events.Bus
}

// Placement records which assembler claimed an invoker.
type Placement struct {
	Invoker   *resource.Invoker
	Assembler string
}

// Report is the outcome of registering one batch of invokers.
type Report struct {
	Service     string
	Assembled   []Placement
	Unassembled []*resource.Invoker
}

// New creates a registry whose root answers GET with the list of every
// accessible resource path.
func New(cfg Config) (*Registry, error) {
	assemblers := cfg.Assemblers
	if len(assemblers) == 0 {
		assemblers = convention.Default()
	}

	r := &Registry{
		root:       resource.NewRoot(),
		assemblers: assemblers,
		names:      make(map[string]bool),
		logger:     cfg.Logger,
		bus:        cfg.Events,
	}

	index, err := resource.NewFunctionInvoker("resources", schema.ListOf(resource.PathType), nil, 0,
		func(ctx context.Context, args []any) (any, error) {
			return r.AccessiblePaths(r.RootPath()), nil
		})
	if err != nil {
		return nil, err
	}
	if err := r.root.SetInvoker(resource.VerbGet, index); err != nil {
		return nil, err
	}

	return r, nil
}

// Register binds every call of svc to impl and runs the assemblers over the
// resulting invokers. Invokers no assembler claims are logged and kept in the
// unassembled report. Duplicate slots and ambiguous nodes abort registration.
func (r *Registry) Register(svc *schema.Service, impl any) (Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.root.Sealed() {
		return Report{}, resource.ErrSealed
	}
	if r.names[svc.Name] {
		return Report{}, fmt.Errorf("service %q already registered", svc.Name)
	}

	r.logger.Info().Str("service", svc.Name).Int("calls", len(svc.Calls)).Msg("assembling service")

	invokers := make([]*resource.Invoker, 0, len(svc.Calls))
	for _, call := range svc.Calls {
		inv, err := resource.NewCallInvoker(svc, call, impl)
		if err != nil {
			return Report{}, fmt.Errorf("register %s: %w", svc.Name, err)
		}
		invokers = append(invokers, inv)
	}

	report, err := r.assemble(svc.Name, invokers)
	if err != nil {
		return report, err
	}

	r.services = append(r.services, svc)
	r.names[svc.Name] = true
	return report, nil
}

// RegisterFunction runs the assemblers over a free function invoker.
func (r *Registry) RegisterFunction(inv *resource.Invoker) (Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.root.Sealed() {
		return Report{}, resource.ErrSealed
	}
	return r.assemble("", []*resource.Invoker{inv})
}

// RegisterInvokers runs the assemblers over prepared invokers under a
// service name. It is used for services whose calls are not Go methods,
// such as stores generated from model definitions.
func (r *Registry) RegisterInvokers(service string, invokers ...*resource.Invoker) (Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.root.Sealed() {
		return Report{}, resource.ErrSealed
	}
	if r.names[service] {
		return Report{}, fmt.Errorf("service %q already registered", service)
	}

	r.logger.Info().Str("service", service).Int("calls", len(invokers)).Msg("assembling service")

	attributed := make([]*resource.Invoker, len(invokers))
	for i, inv := range invokers {
		if inv.Service() == "" {
			inv = inv.WithService(service)
		}
		attributed[i] = inv
	}

	report, err := r.assemble(service, attributed)
	if err != nil {
		return report, err
	}
	r.names[service] = true
	return report, nil
}

func (r *Registry) assemble(service string, pending []*resource.Invoker) (Report, error) {
	ctx := context.Background()
	report := Report{Service: service}

	for _, a := range r.assemblers {
		remaining := make([]*resource.Invoker, 0, len(pending))
		for _, inv := range pending {
			claimed, err := a.Assemble(r.root, inv)
			if err != nil {
				return report, fmt.Errorf("assemble %s with %s: %w", inv, a.Name(), err)
			}
			if !claimed {
				remaining = append(remaining, inv)
				continue
			}

			report.Assembled = append(report.Assembled, Placement{Invoker: inv, Assembler: a.Name()})
			r.logger.Info().
				Str("invoker", inv.String()).
				Str("assembler", a.Name()).
				Msg("invoker assembled")
			r.bus.Publish(ctx, events.Event{
				Name:    events.InvokerAssembled,
				Service: service,
				Invoker: inv.Name(),
				Data:    map[string]any{"assembler": a.Name()},
			})
		}
		pending = remaining
	}

	for _, inv := range pending {
		r.logger.Warn().
			Str("service", service).
			Str("invoker", inv.String()).
			Msg("invoker could not be resolved in the resource tree")
		r.bus.Publish(ctx, events.Event{
			Name:    events.InvokerUnassembled,
			Service: service,
			Invoker: inv.Name(),
		})
	}
	report.Unassembled = pending
	r.unassembled = append(r.unassembled, pending...)

	return report, nil
}

// Seal freezes the tree. Further registration fails with resource.ErrSealed.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.root.Sealed() {
		return
	}
	r.root.Seal()

	r.logger.Info().
		Int("services", len(r.services)).
		Int("unassembled", len(r.unassembled)).
		Msg("resource tree sealed")
	r.bus.Publish(context.Background(), events.Event{
		Name: events.TreeSealed,
		Data: map[string]any{"services": len(r.services), "unassembled": len(r.unassembled)},
	})
}

// Sealed reports whether registration is over.
func (r *Registry) Sealed() bool { return r.root.Sealed() }

// Root returns the tree root.
func (r *Registry) Root() *resource.Node { return r.root }

// RootPath returns the resolved empty path.
func (r *Registry) RootPath() resource.Path { return resource.NewPath(nil, r.root) }

// Services returns the registered services in registration order.
func (r *Registry) Services() []*schema.Service {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*schema.Service(nil), r.services...)
}

// Unassembled returns every invoker no assembler claimed.
func (r *Registry) Unassembled() []*resource.Invoker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*resource.Invoker(nil), r.unassembled...)
}

// FindResourcePath resolves tokens against the tree.
func (r *Registry) FindResourcePath(conv resource.Converter, tokens []string) resource.Path {
	return resource.Resolve(r.root, conv, tokens)
}
