package http

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/artpar/resttree/core/openapi"
	"github.com/artpar/resttree/core/registry"
	"github.com/artpar/resttree/core/resource"
	"github.com/artpar/resttree/core/schema"
	"github.com/artpar/resttree/pkg/jsonapi"
)

// RouteSummary describes one assigned verb slot.
type RouteSummary struct {
	Path    string `json:"path"`
	Method  string `json:"method"`
	Verb    string `json:"verb"`
	Invoker string `json:"invoker"`
	Service string `json:"service,omitempty"`
}

// PropertySummary describes one model property.
type PropertySummary struct {
	Name string `json:"name"`
	Type string `json:"type"`
	ID   bool   `json:"id,omitempty"`
}

// SchemaHandler serves introspection of the assembled tree.
type SchemaHandler struct {
	tree Tree

	// base is the path the resources are served under.
	base string
}

// NewSchemaHandler creates a new schema handler.
func NewSchemaHandler(tree Tree, base string) *SchemaHandler {
	return &SchemaHandler{tree: tree, base: base}
}

// Routes returns a router with all schema routes.
func (h *SchemaHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.listRoutes)
	r.Get("/openapi.json", h.openAPI)
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/_schema/openapi.json"),
	))
	r.Get("/{model}", h.getModel)
	return r
}

// listRoutes handles GET /_schema
func (h *SchemaHandler) listRoutes(w http.ResponseWriter, r *http.Request) {
	routes := h.tree.Routes()
	summaries := make([]RouteSummary, 0, len(routes))
	for _, rt := range routes {
		summaries = append(summaries, RouteSummary{
			Path:    rt.Path,
			Method:  methods(rt.Verb)[0],
			Verb:    rt.Verb.String(),
			Invoker: rt.Invoker.String(),
			Service: rt.Invoker.Service(),
		})
	}

	doc := jsonapi.NewDocument().
		Meta("routes", summaries).
		Meta("count", len(summaries)).
		Build()
	jsonapi.WriteDocument(w, http.StatusOK, doc)
}

// getModel handles GET /_schema/{model}
func (h *SchemaHandler) getModel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "model")

	model := findModel(h.tree.Routes(), name)
	if model == nil {
		jsonapi.WriteError(w, jsonapi.ErrNotFound("No model named "+name))
		return
	}

	props := model.Properties()
	summaries := make([]PropertySummary, 0, len(props))
	for _, p := range props {
		summaries = append(summaries, PropertySummary{Name: p.Name(), Type: p.Primitive().String(), ID: p.IsID()})
	}
	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].ID && !summaries[j].ID })

	doc := jsonapi.NewDocument().
		Meta("model", model.Name()).
		Meta("properties", summaries).
		Build()
	jsonapi.WriteDocument(w, http.StatusOK, doc)
}

// openAPI handles GET /_schema/openapi.json
func (h *SchemaHandler) openAPI(w http.ResponseWriter, r *http.Request) {
	gen := openapi.NewGenerator(h.tree.Routes())
	if h.base != "" {
		gen.AddServer(h.base, "")
	}
	spec := gen.Generate()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(spec)
}

func findModel(routes []registry.Route, name string) *schema.Model {
	for _, rt := range routes {
		if m := modelOf(rt.Invoker); m != nil && m.Name() == name {
			return m
		}
	}
	return nil
}

func modelOf(inv *resource.Invoker) *schema.Model {
	switch t := inv.Output().(type) {
	case *schema.Model:
		return t
	case schema.List:
		if m, ok := t.Item.(*schema.Model); ok {
			return m
		}
	}
	for _, in := range inv.Inputs() {
		if m, ok := in.Type.(*schema.Model); ok {
			return m
		}
	}
	return nil
}
