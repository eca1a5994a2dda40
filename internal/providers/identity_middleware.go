package providers

import (
	"context"
	"net/http"
	"strings"

	"cinnarito/internal/structures"
)

type usernameKey struct{}

const DefaultUsernameHeader = "X-Reddit-Username"

// IdentityMiddleware trusts the username header injected by the platform
// proxy and exposes it through the request context.
func IdentityMiddleware(conf *structures.Config, next http.Handler) http.Handler {
	header := conf.Platform.UsernameHeader
	if header == "" {
		header = DefaultUsernameHeader
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := strings.TrimSpace(r.Header.Get(header))
		if username != "" {
			r = r.WithContext(WithUsername(r.Context(), username))
		}
		next.ServeHTTP(w, r)
	})
}

func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey{}, username)
}

func UsernameFromContext(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(usernameKey{}).(string)
	return u, ok && u != ""
}
