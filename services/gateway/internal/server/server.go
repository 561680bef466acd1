package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"shelfhub/internal/metrics"
	"shelfhub/internal/ratelimit"
	"shelfhub/internal/util"
	"shelfhub/pkg/domain"
	"shelfhub/pkg/entity"
	"shelfhub/services/gateway/internal/graph"
)

const maxBodyBytes = 1 << 20

// Config wires required dependencies for the HTTP server.
type Config struct {
	Libraries entity.LibraryService
	Books     entity.BookService
	Users     entity.UserService
	// GraphQL is mounted at /graphql and /. Optional.
	GraphQL http.Handler
	// Limiter throttles mutating requests per client IP. Optional.
	Limiter        ratelimit.Limiter
	TrustedProxies *util.TrustedProxies
}

// Server exposes the REST routes, GraphQL and operational endpoints.
type Server struct {
	mux     *http.ServeMux
	graphql http.Handler
	limiter ratelimit.Limiter
	proxies *util.TrustedProxies
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.Libraries == nil || cfg.Books == nil || cfg.Users == nil {
		return nil, errors.New("server: library, book and user services are required")
	}
	s := &Server{
		mux:     http.NewServeMux(),
		graphql: cfg.GraphQL,
		limiter: cfg.Limiter,
		proxies: cfg.TrustedProxies,
	}
	s.routes(cfg)
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithCORS(s.mux)))
}

func (s *Server) routes(cfg Config) {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/metrics", metrics.Handler())

	libraries := &resource[domain.Library]{
		name: "Library",
		svc:  cfg.Libraries,
		withID: func(l domain.Library, id int64) domain.Library {
			l.ID = id
			return l
		},
	}
	books := &resource[domain.Book]{
		name: "Book",
		svc:  cfg.Books,
		withID: func(b domain.Book, id int64) domain.Book {
			b.ID = id
			return b
		},
	}
	users := &resource[domain.User]{
		name: "User",
		svc:  cfg.Users,
		withID: func(u domain.User, id int64) domain.User {
			u.ID = id
			return u
		},
	}
	s.mount("/librarys", libraries)
	s.mount("/books", books)
	s.mount("/users", users)

	s.mux.Handle("/graphql", s.limitGraphQL(http.HandlerFunc(s.handleGraphQL)))
	s.mux.Handle("/", s.limitGraphQL(http.HandlerFunc(s.handleRoot)))
}

type collection interface {
	handleCollection(http.ResponseWriter, *http.Request)
	handleItem(http.ResponseWriter, *http.Request, string)
}

func (s *Server) mount(prefix string, c collection) {
	s.mux.Handle(prefix, s.limitWrites(http.HandlerFunc(c.handleCollection)))
	s.mux.Handle(prefix+"/", s.limitWrites(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, prefix+"/")
		if id == "" {
			c.handleCollection(w, r)
			return
		}
		if strings.Contains(id, "/") {
			writeError(w, r, http.StatusNotFound, "NOT_FOUND", "not found")
			return
		}
		c.handleItem(w, r, id)
	})))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "not found")
		return
	}
	s.handleGraphQL(w, r)
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	if s.graphql == nil {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "graphql not enabled")
		return
	}
	s.graphql.ServeHTTP(w, r)
}

// limitWrites applies the write limiter to POST, PUT and DELETE.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			if !s.allow(w, r, "rest") {
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// limitGraphQL applies the write limiter to requests selecting a mutation.
func (s *Server) limitGraphQL(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.Body != nil {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
			if err != nil {
				writeError(w, r, http.StatusBadRequest, "SYSTEM_INVALID_REQUEST", "invalid request body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			var req graph.Request
			if json.Unmarshal(body, &req) == nil && graph.IsMutation(req) && !s.allow(w, r, "graphql") {
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allow(w http.ResponseWriter, r *http.Request, protocol string) bool {
	ip := util.ClientIP(r, s.proxies)
	if s.limiter.Allow(r.Context(), ip) {
		return true
	}
	util.LoggerFromContext(r.Context()).Warn("write rate limited", "client_ip", ip, "path", r.URL.Path)
	metrics.Observe(protocol, "", "write", metrics.ResultLimited, 0)
	writeError(w, r, http.StatusTooManyRequests, "SYSTEM_RATE_LIMITED", "too many requests")
	return false
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "SYSTEM_METHOD_NOT_ALLOWED", "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      code,
		RequestID: util.RequestIDFromRequest(r),
	})
}

func observe(entityName, op string, start time.Time, err error) {
	metrics.Observe("rest", strings.ToLower(entityName), op, metrics.Result(err), time.Since(start))
}
