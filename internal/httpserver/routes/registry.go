package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/deps"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler

	// MiddlewareFor builds a group middleware once the dependencies are known.
	MiddlewareFor func(d deps.Deps) Middleware
)

type group struct {
	reg Registrar
	mws []MiddlewareFor
}

// table is an ordered list of route groups.
type table struct {
	groups []group
}

func (t *table) add(reg Registrar, mws ...MiddlewareFor) {
	t.groups = append(t.groups, group{reg: reg, mws: mws})
}

func (t *table) mount(r chi.Router, d deps.Deps) {
	for _, g := range t.groups {
		if len(g.mws) == 0 {
			g.reg(r, d)
			continue
		}
		built := make([]Middleware, 0, len(g.mws))
		for _, mf := range g.mws {
			built = append(built, mf(d))
		}
		// Group scopes the middlewares to this registrar's routes only.
		r.Group(func(sub chi.Router) {
			sub.Use(built...)
			g.reg(sub, d)
		})
	}
}

var defaultTable table

// Register adds a route group, optionally wrapped in middlewares built from
// deps at mount time. Called from init() in each routes file.
func Register(reg Registrar, mws ...MiddlewareFor) {
	defaultTable.add(reg, mws...)
}

// RegisterAll mounts every registered route group. Called once from server.New().
func RegisterAll(r chi.Router, d deps.Deps) {
	defaultTable.mount(r, d)
}
