// Package http exposes a resource tree over HTTP. Every request below the
// base path is split into path tokens and dispatched through the processor
// chain:
//
//	ResolvePath -> MethodValidation -> ParameterDecoding -> ContentDecoding -> Invoking -> Render
//
// GET reads, POST inserts, PUT and PATCH update, DELETE deletes.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/artpar/resttree/core/events"
	"github.com/artpar/resttree/core/processor"
	"github.com/artpar/resttree/core/registry"
	"github.com/artpar/resttree/core/resource"
	"github.com/artpar/resttree/pkg/jsonapi"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

const defaultMaxBody = 1 << 20

// Tree is the part of the registry the channel dispatches against.
type Tree interface {
	processor.PathFinder
	processor.ModelLocator
	Routes() []registry.Route
}

// Config configures a Channel.
type Config struct {
	Tree      Tree
	Converter resource.Converter
	Logger    zerolog.Logger
	Events    *events.Bus

	// Addr is the listen address. Empty means the channel is mounted by
	// the caller through Handler.
	Addr string

	// BasePath prefixes every resource URL, e.g. "/api".
	BasePath string

	// Metrics, when set, is served at MetricsPath.
	Metrics     http.Handler
	MetricsPath string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64

	// Hints adds accepted query parameters to rendered links.
	Hints bool
}

// Channel implements the HTTP channel for a resource tree.
type Channel struct {
	router  chi.Router
	tree    Tree
	conv    resource.Converter
	procs   *processor.Processors
	logger  zerolog.Logger
	bus     *events.Bus
	base    string
	addr    string
	maxBody int64
	cfg     Config
	server  *http.Server
}

// New creates a new HTTP channel.
func New(cfg Config) *Channel {
	base := "/" + strings.Trim(cfg.BasePath, "/")
	if base == "/" {
		base = ""
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}

	c := &Channel{
		router:  chi.NewRouter(),
		tree:    cfg.Tree,
		conv:    cfg.Converter,
		logger:  cfg.Logger,
		bus:     cfg.Events,
		base:    base,
		addr:    cfg.Addr,
		maxBody: maxBody,
		cfg:     cfg,
	}

	c.procs = processor.NewProcessors(
		processor.ResolvePath{Finder: cfg.Tree, Converter: cfg.Converter, Logger: cfg.Logger},
		processor.MethodValidation{Logger: cfg.Logger},
		processor.ParameterDecoding{Converter: cfg.Converter, Logger: cfg.Logger},
		processor.ContentDecoding{Converter: cfg.Converter, Logger: cfg.Logger},
		processor.Invoking{Locator: cfg.Tree, Logger: cfg.Logger},
		Render{Converter: cfg.Converter, Locator: cfg.Tree, BasePath: base, Logger: cfg.Logger, Hints: cfg.Hints},
	)

	c.router.Use(requestID)
	c.router.Use(middleware.Recoverer)

	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		c.router.Handle(path, cfg.Metrics)
	}

	schemaHandler := NewSchemaHandler(cfg.Tree, base)
	c.router.Mount("/_schema", schemaHandler.Routes())

	c.router.Handle(base+"/*", http.HandlerFunc(c.serveResource))
	if base != "" {
		c.router.Handle(base, http.HandlerFunc(c.serveResource))
	}

	return c
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return "http"
}

// Handler returns the HTTP handler.
func (c *Channel) Handler() http.Handler {
	return c.router
}

// Start starts the HTTP server in the background. It does nothing when no
// address is configured.
func (c *Channel) Start(ctx context.Context) error {
	if c.addr == "" {
		return nil
	}

	c.server = &http.Server{
		Addr:         c.addr,
		Handler:      c.router,
		ReadTimeout:  c.cfg.ReadTimeout,
		WriteTimeout: c.cfg.WriteTimeout,
	}

	go func() {
		if err := c.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error().Err(err).Str("addr", c.addr).Msg("http server error")
		}
	}()

	c.logger.Info().Str("addr", c.addr).Str("base", c.base+"/").Msg("http channel listening")
	return nil
}

// Stop stops the HTTP server.
func (c *Channel) Stop(ctx context.Context) error {
	if c.server != nil {
		return c.server.Shutdown(ctx)
	}
	return nil
}

func (c *Channel) serveResource(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	tokens := c.tokens(r.URL.EscapedPath())

	verb, ok := verbFor(r.Method)
	if !ok {
		c.unsupportedMethod(w, r, tokens)
		return
	}

	query, err := url.ParseQuery(r.URL.RawQuery)
	if err != nil {
		e := jsonapi.ErrBadRequest("Malformed query string")
		e.ID = w.Header().Get(RequestIDHeader)
		jsonapi.WriteError(w, e)
		c.logger.Debug().Err(err).Str("query", r.URL.RawQuery).Msg("malformed query")
		return
	}

	req := &processor.Request{
		Context:     r.Context(),
		Verb:        verb,
		Tokens:      tokens,
		Params:      params(query),
		ContentType: r.Header.Get("Content-Type"),
		Arguments:   make(map[string]any),
	}
	if r.Body != nil && r.Body != http.NoBody {
		req.Content = http.MaxBytesReader(w, r.Body, c.maxBody)
	}

	rsp := &processor.Response{}
	c.procs.Dispatch(req, rsp)
	if rsp.Code.IsZero() {
		rsp.SetCode(processor.InternalError, "Request was not handled")
	}

	c.write(w, r, rsp)

	elapsed := time.Since(start)
	c.logRequest(r, req, rsp, elapsed)
	c.bus.Publish(r.Context(), events.Event{
		Name:     events.RequestCompleted,
		Invoker:  invokerName(req),
		Duration: elapsed,
		Data: map[string]any{
			"verb":   verb.String(),
			"code":   rsp.Code.Name,
			"status": rsp.Code.Status,
			"node":   nodeName(req),
		},
	})
}

// unsupportedMethod answers a method that maps to no verb. The Allow list
// is taken from the node the path resolves to.
func (c *Channel) unsupportedMethod(w http.ResponseWriter, r *http.Request, tokens []string) {
	path := c.tree.FindResourcePath(c.conv, tokens)
	if !path.IsResolved() {
		e := jsonapi.ErrNotFound("Cannot find resources for path")
		e.ID = w.Header().Get(RequestIDHeader)
		jsonapi.WriteError(w, e)
		return
	}
	jsonapi.WriteMethodNotAllowed(w, r.Method, methods(path.Node().Allows()))
}

func (c *Channel) write(w http.ResponseWriter, r *http.Request, rsp *processor.Response) {
	if rsp.ContentLocation != nil {
		if href, err := processor.Href(c.base, c.conv, *rsp.ContentLocation); err == nil {
			w.Header().Set("Content-Location", href)
		}
	}

	status := rsp.Code.Status
	if rsp.Code.Success {
		if status == http.StatusNoContent {
			jsonapi.WriteNoContent(w, status)
			return
		}
		doc, ok := rsp.Body.(jsonapi.Document)
		if !ok {
			doc = jsonapi.NewDocument().JSONAPI().Meta("code", rsp.Code.Name).Meta("message", rsp.Message).Build()
		}
		if err := jsonapi.WriteDocument(w, status, doc); err != nil {
			c.logger.Warn().Err(err).Msg("write response")
		}
		return
	}

	if rsp.Code == processor.MethodNotAllowed {
		jsonapi.WriteMethodNotAllowed(w, r.Method, methods(rsp.Allows))
		return
	}

	e := jsonapi.NewError(status, strings.ToLower(rsp.Code.Name), http.StatusText(status)).
		Detail(rsp.Message).
		ID(w.Header().Get(RequestIDHeader)).
		Build()
	jsonapi.WriteError(w, e)
}

func (c *Channel) logRequest(r *http.Request, req *processor.Request, rsp *processor.Response, elapsed time.Duration) {
	ev := c.logger.Debug()
	if rsp.Code.Status >= http.StatusInternalServerError {
		ev = c.logger.Error().Err(rsp.Err)
	}
	ev.Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("node", nodeName(req)).
		Int("status", rsp.Code.Status).
		Str("code", rsp.Code.Name).
		Dur("elapsed", elapsed).
		Msg("request")
}

// tokens strips the base path and splits the rest on "/". Empty segments
// are dropped.
func (c *Channel) tokens(p string) []string {
	p = strings.TrimPrefix(p, c.base)
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

func verbFor(method string) (resource.Verb, bool) {
	switch method {
	case http.MethodGet, http.MethodHead:
		return resource.VerbGet, true
	case http.MethodPost:
		return resource.VerbInsert, true
	case http.MethodPut, http.MethodPatch:
		return resource.VerbUpdate, true
	case http.MethodDelete:
		return resource.VerbDelete, true
	}
	return 0, false
}

// methods lists the HTTP methods of a verb mask.
func methods(allows resource.Verb) []string {
	var out []string
	for _, v := range resource.Verbs {
		if !allows.Has(v) {
			continue
		}
		switch v {
		case resource.VerbGet:
			out = append(out, http.MethodGet)
		case resource.VerbInsert:
			out = append(out, http.MethodPost)
		case resource.VerbUpdate:
			out = append(out, http.MethodPut)
		case resource.VerbDelete:
			out = append(out, http.MethodDelete)
		}
	}
	return out
}

// params flattens query values in name order.
func params(q url.Values) []processor.Param {
	names := make([]string, 0, len(q))
	for name := range q {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []processor.Param
	for _, name := range names {
		for _, v := range q[name] {
			out = append(out, processor.Param{Name: name, Value: v})
		}
	}
	return out
}

func nodeName(req *processor.Request) string {
	if n := req.Path.Node(); n != nil {
		return n.Path().String()
	}
	return ""
}

func invokerName(req *processor.Request) string {
	if n := req.Path.Node(); n != nil {
		if inv := n.Invoker(req.Verb); inv != nil {
			return inv.Name()
		}
	}
	return ""
}

// requestID propagates or assigns X-Request-ID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
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
