package processor

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/artpar/resttree/core/resource"
	"github.com/artpar/resttree/core/schema"
)

const tracerName = "github.com/artpar/resttree/core/processor"

// PathFinder resolves tokens to a resource path.
type PathFinder interface {
	FindResourcePath(conv resource.Converter, tokens []string) resource.Path
}

// ModelLocator finds the get-by-id path of a model relative to a path.
type ModelLocator interface {
	FindGetModel(from resource.Path, model *schema.Model) (resource.Path, bool)
}

// ResolvePath resolves the request tokens. An incomplete path ends the
// request with NotFound.
type ResolvePath struct {
	Finder    PathFinder
	Converter resource.Converter
	Logger    zerolog.Logger
}

func (s ResolvePath) Process(req *Request, rsp *Response, chain *Chain) {
	path := s.Finder.FindResourcePath(s.Converter, req.Tokens)
	if !path.IsResolved() {
		rsp.SetCode(NotFound, "Cannot find resources for path")
		s.Logger.Debug().Strs("tokens", req.Tokens).Msg("no resource for path")
		return
	}

	req.Path = path
	chain.Process(req, rsp)
}

// MethodValidation ends the request with MethodNotAllowed when the resolved
// node has no invoker for the requested verb.
type MethodValidation struct {
	Logger zerolog.Logger
}

func (s MethodValidation) Process(req *Request, rsp *Response, chain *Chain) {
	node := req.Path.Node()
	if node.Invoker(req.Verb) == nil {
		rsp.Allows = node.Allows()
		rsp.SetCode(MethodNotAllowed, fmt.Sprintf("Path not available for %s", req.Verb))
		s.Logger.Warn().
			Str("node", node.String()).
			Str("verb", req.Verb.String()).
			Msg("verb not available")
		return
	}

	chain.Process(req, rsp)
}

// Invoking calls the invoker of the resolved node. Path values and decoded
// arguments are joined by input name; decoded arguments win. A failed
// invocation ends the request.
//
// GET and other value results are handed to the next stage as Value and
// ValueType. Boolean UPDATE and DELETE results end the request with the
// matching success or failure code. An INSERT returning a model id sets
// ContentLocation when the model has a get-by-id resource.
type Invoking struct {
	Locator ModelLocator
	Logger  zerolog.Logger

	// Tracer defaults to the global tracer provider.
	Tracer trace.Tracer
}

func (s Invoking) Process(req *Request, rsp *Response, chain *Chain) {
	inv := req.Path.Node().Invoker(req.Verb)
	args := Arguments(inv, req.Path.Arguments(inv), req.Arguments)

	tracer := s.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	ctx, span := tracer.Start(req.Ctx(), "invoke "+inv.Name(),
		trace.WithAttributes(
			attribute.String("resttree.invoker", inv.String()),
			attribute.String("resttree.verb", req.Verb.String()),
			attribute.String("resttree.kind", inv.Kind().String()),
		))
	defer span.End()

	value, err := inv.Invoke(ctx, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.fail(rsp, inv, err)
		return
	}

	out := inv.Output()
	switch req.Verb {
	case resource.VerbInsert:
		rsp.SetCode(InsertSuccess, "Successfully created")
		if prop, ok := out.(*schema.Property); ok && prop.IsID() && s.Locator != nil {
			if loc, ok := s.Locator.FindGetModel(req.Path, prop.Model()); ok {
				if filled, ok := loc.UpdateValue(prop, value); ok {
					rsp.ContentLocation = &filled
				}
			}
		}
		req.Value, req.ValueType = value, out

	case resource.VerbUpdate, resource.VerbDelete:
		if out.Equal(schema.Bool) {
			done, _ := value.(bool)
			s.boolOutcome(req.Verb, done, rsp)
			return
		}
		rsp.SetCode(ResourceFound, "")
		req.Value, req.ValueType = value, out

	default:
		rsp.SetCode(ResourceFound, "")
		req.Value, req.ValueType = value, out
	}

	chain.Process(req, rsp)
}

func (s Invoking) boolOutcome(verb resource.Verb, ok bool, rsp *Response) {
	switch {
	case verb == resource.VerbUpdate && ok:
		rsp.SetCode(UpdateSuccess, "Successfully updated")
	case verb == resource.VerbUpdate:
		rsp.SetCode(CannotUpdate, "Cannot update")
	case ok:
		rsp.SetCode(DeleteSuccess, "Successfully deleted")
	default:
		rsp.SetCode(CannotDelete, "Cannot delete")
	}
}

func (s Invoking) fail(rsp *Response, inv *resource.Invoker, err error) {
	rsp.Err = err

	switch {
	case errors.Is(err, resource.ErrInputValidation):
		rsp.SetCode(BadRequest, err.Error())
		s.Logger.Info().Err(err).Str("invoker", inv.String()).Msg("invalid input")
	case errors.Is(err, schema.ErrNotFound):
		rsp.SetCode(NotFound, "Resource not found")
		s.Logger.Debug().Err(err).Str("invoker", inv.String()).Msg("resource not found")
	case errors.Is(err, resource.ErrOutputValidation):
		rsp.SetCode(InternalError, "Invalid result")
		s.Logger.Error().Err(err).Str("invoker", inv.String()).Msg("output validation failed")
	default:
		rsp.SetCode(InternalError, "Internal error")
		s.Logger.Error().Err(err).Str("invoker", inv.String()).Msg("invocation failed")
	}
}

// Arguments lays out named arguments in input order. decoded overrides
// values taken from the path. Trailing optional inputs without a value are
// left off; missing mandatory inputs are passed as nil so the invoker
// reports them.
func Arguments(inv *resource.Invoker, fromPath, decoded map[string]any) []any {
	inputs := inv.Inputs()
	args := make([]any, len(inputs))
	last := -1
	for i, in := range inputs {
		v, ok := decoded[in.Name]
		if !ok {
			v, ok = fromPath[in.Name]
		}
		if ok && v != nil {
			args[i] = v
			last = i
		}
	}

	n := last + 1
	if n < inv.MandatoryCount() {
		n = inv.MandatoryCount()
	}
	return args[:n]
}
