package providers

import (
	"net/http"

	"cinnarito/internal/structures"
)

// SubredditParam is the path wildcard naming the community a route acts on.
const SubredditParam = "subreddit"

type RouterProviderInterface interface {
	Get(url string, handler http.Handler)
	Post(url string, handler http.Handler)
	GetTree(prefix string, handler http.Handler)
	PostTree(prefix string, handler http.Handler)
	GetRoutes() []structures.Route
}

type RouterProvider struct {
	routes []structures.Route
}

func (rp *RouterProvider) Get(url string, handler http.Handler) {
	rp.add(http.MethodGet, url, handler)
}

func (rp *RouterProvider) Post(url string, handler http.Handler) {
	rp.add(http.MethodPost, url, handler)
}

// GetTree registers prefix/{subreddit} for reads of one subreddit's tree.
func (rp *RouterProvider) GetTree(prefix string, handler http.Handler) {
	rp.add(http.MethodGet, treePath(prefix), handler)
}

// PostTree registers prefix/{subreddit} for writes to one subreddit's tree.
func (rp *RouterProvider) PostTree(prefix string, handler http.Handler) {
	rp.add(http.MethodPost, treePath(prefix), handler)
}

func (rp *RouterProvider) add(method, url string, handler http.Handler) {
	rp.routes = append(rp.routes, structures.Route{
		Method:  method,
		Url:     url,
		Handler: methodHandler(method, handler),
	})
}

func (rp *RouterProvider) GetRoutes() []structures.Route {
	return rp.routes
}

func NewRouterProvider() RouterProviderInterface {
	return &RouterProvider{}
}

func treePath(prefix string) string {
	return prefix + "/{" + SubredditParam + "}"
}

// Pattern is the ServeMux pattern for a route, e.g. "GET /api/state/{subreddit}".
func Pattern(route structures.Route) string {
	return route.Method + " " + route.Url
}

var methodNotAllowedBody = []byte(`{"success":false,"message":"Method Not Allowed"}`)

// methodHandler answers a wrong method with the API's JSON error envelope.
func methodHandler(method string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusMethodNotAllowed)
			_, _ = w.Write(methodNotAllowedBody)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
