package server

import (
	"net/http"

	"github.com/stadtimpuls/kompass/pkg/engine"
)

type Server struct {
	Events   *engine.Engine
	Funding  *engine.Engine
	Username string
	Password string
}

func New(events, funding *engine.Engine, user, pass string) *Server {
	return &Server{
		Events:   events,
		Funding:  funding,
		Username: user,
		Password: pass,
	}
}

func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/events", s.basicAuth(s.handleEvents))
	mux.HandleFunc("GET /api/funding", s.basicAuth(s.handleFunding))
	mux.HandleFunc("GET /api/status", s.basicAuth(s.handleStatus))

	return mux
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
