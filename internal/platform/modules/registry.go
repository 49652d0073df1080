// Package modules keeps the list of domain modules served by the process.
package modules

import (
	"fmt"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/cache"
)

// Routes is implemented by every domain handler.
type Routes interface {
	RegisterRoutes(api *echo.Group)
}

// Module is one domain: its name, the collection (and cache domain) it owns
// and the handler serving it.
type Module struct {
	Name       string
	Collection string
	Handler    Routes
}

// Registry holds registered modules.
type Registry struct {
	modules []Module
	byName  map[string]Module
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Module)}
}

// Register adds m. Names and collections must be unique, and so must the
// abbreviated collection names used in page cache keys.
func (r *Registry) Register(m Module) error {
	if m.Name == "" || m.Collection == "" {
		return fmt.Errorf("module needs a name and a collection")
	}
	abbrev := cache.Abbreviate(m.Collection)
	for _, existing := range r.modules {
		if existing.Name == m.Name || existing.Collection == m.Collection {
			return fmt.Errorf("module %q conflicts with %q", m.Name, existing.Name)
		}
		if cache.Abbreviate(existing.Collection) == abbrev {
			return fmt.Errorf("collection %q shares cache key prefix %q with %q", m.Collection, abbrev, existing.Collection)
		}
	}
	r.modules = append(r.modules, m)
	r.byName[m.Name] = m
	return nil
}

func (r *Registry) RegisterRoutes(api *echo.Group) {
	for _, m := range r.modules {
		if m.Handler != nil {
			m.Handler.RegisterRoutes(api)
		}
	}
}

// Collection resolves a module name or collection name to its collection.
func (r *Registry) Collection(name string) (string, bool) {
	if m, ok := r.byName[name]; ok {
		return m.Collection, true
	}
	for _, m := range r.modules {
		if m.Collection == name {
			return m.Collection, true
		}
	}
	return "", false
}

// Names returns the registered module names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.modules))
	for _, m := range r.modules {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Modules() []Module {
	return r.modules
}
