package server

import (
	"context"
	"net/http"

	"github.com/ziadkadry99/docchat/internal/assistant"
)

// SessionCookie names the cookie carrying the session ID.
const SessionCookie = "docchat_session"

type serviceKey struct{}

// withSession binds the request to the caller's session, starting a new one
// when the cookie is missing or names an evicted session.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(SessionCookie); err == nil {
			id = c.Value
		}

		st, created := s.sessions.GetOrCreate(id)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    st.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), serviceKey{}, s.backend.Service(st))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func serviceFrom(r *http.Request) *assistant.Service {
	return r.Context().Value(serviceKey{}).(*assistant.Service)
}
