// Package processor is the request pipeline. A request travels through an
// ordered list of stages; each stage either writes a final outcome and
// returns, or hands over to the next stage by calling the chain exactly once.
//
// The canonical order is
//
//	ResolvePath -> MethodValidation -> (decode) -> Invoking -> (render)
//
// ParameterDecoding and ContentDecoding fill the decode step for every
// transport; the render stage is supplied by the transport.
package processor

import (
	"context"
	"io"

	"github.com/artpar/resttree/core/resource"
	"github.com/artpar/resttree/core/schema"
)

// Param is one request parameter. Names may repeat.
type Param struct {
	Name  string
	Value string
}

// Request carries one exchange through the chain. Stages fill Path,
// Arguments and Value as it progresses.
type Request struct {
	Context context.Context
	Verb    resource.Verb
	Tokens  []string
	Params  []Param

	// Content is the request body, nil when there is none.
	Content     io.Reader
	ContentType string

	// Path is the resolved resource path.
	Path resource.Path

	// Arguments by input name, decoded from parameters and content.
	Arguments map[string]any

	// Value and ValueType are the invocation result to render.
	Value     any
	ValueType schema.Type
}

// Ctx returns the request context, never nil.
func (r *Request) Ctx() context.Context {
	if r.Context == nil {
		return context.Background()
	}
	return r.Context
}

// Response collects the outcome.
type Response struct {
	Code    Code
	Message string

	// Allows lists the verbs of the resolved node when a verb is refused.
	Allows resource.Verb

	// ContentLocation addresses a created resource.
	ContentLocation *resource.Path

	// Body is the transport rendering of the request Value.
	Body any

	// Err is the underlying failure, if any. It is for logging, not for
	// clients.
	Err error
}

// SetCode sets the outcome.
func (r *Response) SetCode(code Code, message string) {
	r.Code = code
	r.Message = message
}

// Processor is one pipeline stage. Process either sets a final outcome on
// rsp and returns without calling chain, or calls chain.Process exactly once.
type Processor interface {
	Process(req *Request, rsp *Response, chain *Chain)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(req *Request, rsp *Response, chain *Chain)

func (f ProcessorFunc) Process(req *Request, rsp *Response, chain *Chain) { f(req, rsp, chain) }

// Processors is an immutable, shareable list of stages.
type Processors struct {
	stages []Processor
}

// NewProcessors creates a stage list in execution order.
func NewProcessors(stages ...Processor) *Processors {
	return &Processors{stages: append([]Processor(nil), stages...)}
}

// Len returns the number of stages.
func (p *Processors) Len() int { return len(p.stages) }

// NewChain returns a fresh single-use chain.
func (p *Processors) NewChain() *Chain {
	return &Chain{stages: p.stages}
}

// Dispatch runs a request through a fresh chain.
func (p *Processors) Dispatch(req *Request, rsp *Response) {
	p.NewChain().Process(req, rsp)
}

// Chain is a cursor over a stage list for one request.
type Chain struct {
	stages []Processor
	next   int
}

// Process runs the next stage. It does nothing once every stage has run.
func (c *Chain) Process(req *Request, rsp *Response) {
	if c.next >= len(c.stages) {
		return
	}
	stage := c.stages[c.next]
	c.next++
	stage.Process(req, rsp, c)
}

// Done reports whether every stage has been reached.
func (c *Chain) Done() bool { return c.next >= len(c.stages) }
