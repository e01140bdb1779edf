package controllers

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"task-calendar/app/auth"
	"task-calendar/app/session"
)

type sessionKey struct{}

// Logger logs the method and path of every request.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Println(r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// Authenticate resolves the request's token to a session. The session is
// signed out when the request ends, which cancels any subscription it opened.
func Authenticate(verifier auth.Verifier) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := verifier.Verify(r.Context(), auth.TokenFromRequest(r))
			if err != nil {
				writeError(w, err)
				return
			}
			sess, err := session.New(userID)
			if err != nil {
				writeError(w, err)
				return
			}
			defer sess.SignOut()

			ctx := context.WithValue(r.Context(), sessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey{}).(*session.Session)
	return sess
}
