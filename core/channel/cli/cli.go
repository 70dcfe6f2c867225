// Package cli dispatches requests against a resource tree from the command
// line. It runs the same processor chain as the HTTP channel and renders
// the outcome through the formatter package instead of JSON:API.
package cli

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/resttree/core/events"
	"github.com/artpar/resttree/core/formatter"
	"github.com/artpar/resttree/core/processor"
	"github.com/artpar/resttree/core/resource"
	"github.com/artpar/resttree/core/schema"
)

// Tree is the part of the registry the channel dispatches against.
type Tree interface {
	processor.PathFinder
	processor.ModelLocator
}

// Config configures a Channel.
type Config struct {
	Tree      Tree
	Converter resource.Converter
	Logger    zerolog.Logger
	Events    *events.Bus
}

// Call is one command line request.
type Call struct {
	Verb resource.Verb

	// Path is slash separated, e.g. "Publication/1".
	Path string

	// Params are name=value pairs for the GET invoker's optional inputs.
	Params []string

	// Data is a JSON object for INSERT and UPDATE.
	Data string
}

// Result is the rendered outcome of a Call.
type Result struct {
	Code    processor.Code
	Message string

	// Location is the path of a created resource.
	Location string

	// Data holds the returned value as rows. It is empty for outcomes
	// without a value.
	Data formatter.Dataset
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Code.Success }

// Channel implements the CLI channel.
type Channel struct {
	conv   resource.Converter
	procs  *processor.Processors
	logger zerolog.Logger
	bus    *events.Bus
}

// New creates a CLI channel.
func New(cfg Config) *Channel {
	return &Channel{
		conv:   cfg.Converter,
		logger: cfg.Logger,
		bus:    cfg.Events,
		procs: processor.NewProcessors(
			processor.ResolvePath{Finder: cfg.Tree, Converter: cfg.Converter, Logger: cfg.Logger},
			processor.MethodValidation{Logger: cfg.Logger},
			processor.ParameterDecoding{Converter: cfg.Converter, Logger: cfg.Logger},
			processor.ContentDecoding{Converter: cfg.Converter, Logger: cfg.Logger},
			processor.Invoking{Locator: cfg.Tree, Logger: cfg.Logger},
			Tabulate{Converter: cfg.Converter},
		),
	}
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return "cli"
}

// Dispatch runs call through the processor chain.
func (c *Channel) Dispatch(ctx context.Context, call Call) Result {
	start := time.Now()

	params, err := parseParams(call.Params)
	if err != nil {
		return Result{Code: processor.BadRequest, Message: err.Error()}
	}

	req := &processor.Request{
		Context:   ctx,
		Verb:      call.Verb,
		Tokens:    Tokens(call.Path),
		Params:    params,
		Arguments: make(map[string]any),
	}
	if call.Data != "" {
		req.Content = strings.NewReader(call.Data)
		req.ContentType = "application/json"
	}

	rsp := &processor.Response{}
	c.procs.Dispatch(req, rsp)
	if rsp.Code.IsZero() {
		rsp.SetCode(processor.InternalError, "Request was not handled")
	}

	res := Result{Code: rsp.Code, Message: rsp.Message}
	if ds, ok := rsp.Body.(formatter.Dataset); ok {
		res.Data = ds
	}
	if rsp.ContentLocation != nil {
		if href, err := processor.Href("", c.conv, *rsp.ContentLocation); err == nil {
			res.Location = href
		}
	}
	if rsp.Code == processor.MethodNotAllowed {
		res.Message = fmt.Sprintf("%s not allowed, use one of: %s", call.Verb, rsp.Allows)
	}

	ev := c.logger.Debug()
	if rsp.Err != nil {
		ev = c.logger.Warn().Err(rsp.Err)
	}
	ev.Str("verb", call.Verb.String()).Str("path", call.Path).Str("code", rsp.Code.Name).Msg("cli request")

	c.bus.Publish(ctx, events.Event{
		Name:     events.RequestCompleted,
		Duration: time.Since(start),
		Data: map[string]any{
			"verb":   call.Verb.String(),
			"code":   rsp.Code.Name,
			"status": rsp.Code.Status,
			"node":   "cli",
		},
	})
	return res
}

// Tokens splits a slash separated path, dropping empty segments and
// unescaping each one.
func Tokens(p string) []string {
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if s == "" {
			continue
		}
		if u, err := url.PathUnescape(s); err == nil {
			s = u
		}
		out = append(out, s)
	}
	return out
}

func parseParams(raw []string) ([]processor.Param, error) {
	out := make([]processor.Param, 0, len(raw))
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("parameter %q must be name=value", kv)
		}
		out = append(out, processor.Param{Name: name, Value: value})
	}
	return out, nil
}

// Tabulate renders the invocation value as a formatter.Dataset in
// rsp.Body. Models become one row per instance with a column per
// property; resource paths become a single "path" column.
type Tabulate struct {
	Converter resource.Converter
}

func (s Tabulate) Process(req *processor.Request, rsp *processor.Response, chain *processor.Chain) {
	if req.ValueType == nil {
		chain.Process(req, rsp)
		return
	}

	ds, err := s.dataset(req.ValueType, req.Value)
	if err != nil {
		rsp.SetCode(processor.InternalError, "Cannot render result")
		rsp.Err = err
		return
	}
	rsp.Body = ds
	chain.Process(req, rsp)
}

func (s Tabulate) dataset(t schema.Type, value any) (formatter.Dataset, error) {
	item, items := t, []any{value}
	if list, ok := t.(schema.List); ok {
		item = list.Item
		var err error
		if items, err = listItems(value); err != nil {
			return formatter.Dataset{}, err
		}
	}

	switch typ := item.(type) {
	case *schema.Model:
		ds := formatter.Dataset{Name: typ.Name()}
		for _, p := range typ.Properties() {
			ds.Columns = append(ds.Columns, p.Name())
		}
		for _, it := range items {
			if it == nil {
				continue
			}
			row := make(map[string]any, len(ds.Columns))
			for _, p := range typ.Properties() {
				v, err := p.Get(it)
				if err != nil {
					return formatter.Dataset{}, err
				}
				row[p.Name()] = v
			}
			ds.Records = append(ds.Records, row)
		}
		return ds, nil
	}

	if item.Equal(resource.PathType) {
		ds := formatter.Dataset{Name: "Resources", Columns: []string{"path"}}
		for _, it := range items {
			href, err := processor.Href("", s.Converter, it.(resource.Path))
			if err != nil {
				return formatter.Dataset{}, err
			}
			ds.Records = append(ds.Records, map[string]any{"path": href})
		}
		sort.Slice(ds.Records, func(i, j int) bool {
			return ds.Records[i]["path"].(string) < ds.Records[j]["path"].(string)
		})
		return ds, nil
	}

	ds := formatter.Dataset{Name: "Values", Columns: []string{"value"}}
	for _, it := range items {
		ds.Records = append(ds.Records, map[string]any{"value": it})
	}
	return ds, nil
}

func listItems(v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
