package mockvpn

import (
	"net/http"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Routes is the literal form of a route table, keyed by path within each method.
type Routes struct {
	GETs    map[string]EndpointSpec
	POSTs   map[string]EndpointSpec
	DELETEs map[string]EndpointSpec
}

func (r Routes) each(fn func(method, path string, spec EndpointSpec)) {
	for method, specs := range map[string]map[string]EndpointSpec{
		http.MethodGet:    r.GETs,
		http.MethodPost:   r.POSTs,
		http.MethodDelete: r.DELETEs,
	} {
		for path, spec := range specs {
			fn(method, path, spec)
		}
	}
}

type RouteKey struct {
	Method string
	Path   string
}

func (k RouteKey) String() string {
	return k.Method + " " + k.Path
}

// RouteTable maps (method, path) to the spec that answers it. There is at most one spec per key.
//
// A RouteTable has no lock of its own. The Context that owns it serializes all access.
type RouteTable struct {
	specs map[RouteKey]*EndpointSpec
}

func NewRouteTable(routes Routes) *RouteTable {
	rt := &RouteTable{specs: make(map[RouteKey]*EndpointSpec)}
	rt.Merge(routes)
	return rt
}

// Register sets the spec for a route, replacing any previous one.
func (rt *RouteTable) Register(method, path string, spec EndpointSpec) {
	s := spec.clone()
	rt.specs[RouteKey{method, path}] = &s
}

// Lookup returns the live spec for a route. Changes made through the pointer are seen by the
// next request.
func (rt *RouteTable) Lookup(method, path string) (*EndpointSpec, bool) {
	s, ok := rt.specs[RouteKey{method, path}]
	return s, ok
}

// Merge registers every route in routes, replacing existing ones with the same key.
func (rt *RouteTable) Merge(routes Routes) {
	routes.each(rt.Register)
}

// Keys returns every route in a stable order.
func (rt *RouteTable) Keys() []RouteKey {
	keys := maps.Keys(rt.specs)
	slices.SortFunc(keys, func(a, b RouteKey) int {
		if a.Path != b.Path {
			return strings.Compare(a.Path, b.Path)
		}
		return strings.Compare(a.Method, b.Method)
	})
	return keys
}

// Clone returns a deep copy whose specs can be changed without affecting rt.
func (rt *RouteTable) Clone() *RouteTable {
	ret := &RouteTable{specs: make(map[RouteKey]*EndpointSpec, len(rt.specs))}
	for k, s := range rt.specs {
		c := s.clone()
		ret.specs[k] = &c
	}
	return ret
}

func (rt *RouteTable) pathsFor(method string) []string {
	var ret []string
	for k := range rt.specs {
		if k.Method == method {
			ret = append(ret, k.Path)
		}
	}
	slices.Sort(ret)
	return ret
}
