package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aretw0/satchel"
	"github.com/aretw0/satchel/pkg/ports"
)

// Opener opens the session of one request. *satchel.Factory implements it.
type Opener interface {
	Open(ctx context.Context, ch ports.IDChannel) (*satchel.Session, error)
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying sess.
func NewContext(ctx context.Context, sess *satchel.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session stored by Middleware.
func FromContext(ctx context.Context) (*satchel.Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(*satchel.Session)
	return sess, ok
}

// Middleware opens a session per request, identified by the cookie called name,
// and makes it available through FromContext. The session is finalized when the
// handler returns, also when it panics. Finalize errors are logged: the response
// is already on its way.
//
// The id cookie is emitted on the session's first operation, so handlers must touch
// the session before writing the response headers.
func Middleware(opener Opener, name string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := opener.Open(r.Context(), NewCookieChannel(w, r, name))
			if err != nil {
				logger.Error("Failed to open session", "err", err, "path", r.URL.Path)
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}
			defer func() {
				if err := sess.Close(context.WithoutCancel(r.Context())); err != nil {
					logger.Error("Failed to finalize session", "err", err, "session_id", sess.ID())
				}
			}()

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), sess)))
		})
	}
}
