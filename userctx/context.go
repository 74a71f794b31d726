package userctx

import (
	"context"
	"net/http"
	"strconv"
)

// Context key type
type contextKey string

const actorIDKey contextKey = "actor_id"

// ActorHeader carries the acting user's id when the body does not.
const ActorHeader = "X-User-ID"

// SetActorID adds the acting user's id to the context
func SetActorID(ctx context.Context, id uint) context.Context {
	return context.WithValue(ctx, actorIDKey, id)
}

// ActorID retrieves the acting user's id, or nil when none was supplied
func ActorID(ctx context.Context) *uint {
	if id, ok := ctx.Value(actorIDKey).(uint); ok {
		return &id
	}
	return nil
}

// Middleware copies a positive integer X-User-ID header into the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get(ActorHeader); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
				r = r.WithContext(SetActorID(r.Context(), uint(id)))
			}
		}
		next.ServeHTTP(w, r)
	})
}
