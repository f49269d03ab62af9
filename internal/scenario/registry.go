package scenario

import "sort"

// Registry maps scenario ids to handlers.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry builds a registry from hs. Later entries replace earlier ones
// with the same id.
func NewRegistry(hs ...Handler) *Registry {
	r := &Registry{handlers: make(map[string]Handler, len(hs))}
	for _, h := range hs {
		r.handlers[h.ID] = h
	}
	return r
}

// DefaultRegistry returns every built-in handler.
func DefaultRegistry() *Registry {
	var all []Handler
	all = append(all, qualityHandlers()...)
	all = append(all, equipmentHandlers()...)
	all = append(all, productionHandlers()...)
	all = append(all, materialHandlers()...)
	all = append(all, businessHandlers()...)
	all = append(all, hrHandlers()...)
	return NewRegistry(all...)
}

// Lookup returns the handler for id.
func (r *Registry) Lookup(id string) (Handler, bool) {
	h, ok := r.handlers[id]
	return h, ok
}

// IDs returns the registered ids, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
