package http

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/dmitrijs2005/gopherwallet/internal/common"
	"github.com/dmitrijs2005/gopherwallet/internal/server/session"
)

// sessionHandler receives the request's session explicitly.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sc *session.Context)

// withSession resolves the session cookie and hands the session to next.
// A new token is written back whenever the session was (re)created.
func (h *Handler) withSession(next sessionHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if c, err := r.Cookie(common.SessionCookieName); err == nil {
			token = c.Value
		}

		sc, err := h.sessions.Open(token)
		if err != nil {
			h.log.Error(r.Context(), "open session", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		h.setSessionCookie(w, sc)

		next(w, r, sc)
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sc *session.Context) {
	if sc.Token == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    sc.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// requireLogin redirects anonymous sessions to the login page with msg.
func (h *Handler) requireLogin(msg string, next sessionHandler) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, sc *session.Context) {
		if !sc.Authenticated() {
			h.redirect(w, r, sc, "/login", msg)
			return
		}
		next(w, r, sc)
	}
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.log.Error(r.Context(), "panic serving request",
					"path", r.URL.Path, "panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
