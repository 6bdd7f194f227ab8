package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rhuss/letsplay/pkg/api"
	"github.com/rhuss/letsplay/pkg/auth"
	"github.com/rhuss/letsplay/pkg/service"
	"github.com/rhuss/letsplay/pkg/transport"
)

// Services bundles the business operations the routes dispatch to.
type Services struct {
	Accounts *service.Accounts
	Users    *service.Users
	Products *service.Products
}

// HealthChecker reports backend readiness for /readyz.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Adapter serves the letsplay REST API over HTTP.
// It routes requests to the services and serializes results.
type Adapter struct {
	svc     Services
	health  HealthChecker
	metrics http.Handler
	mux     *http.ServeMux
	config  Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64
	MetricsPath string
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 1 << 20, // 1 MB
		MetricsPath: "/metrics",
	}
}

// NewAdapter creates an HTTP adapter for svc. health may be nil, in which
// case /readyz always reports ready. metrics may be nil to disable the
// metrics endpoint.
func NewAdapter(svc Services, health HealthChecker, metrics http.Handler, cfg Config) *Adapter {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}

	a := &Adapter{
		svc:     svc,
		health:  health,
		metrics: metrics,
		mux:     http.NewServeMux(),
		config:  cfg,
	}

	a.mux.HandleFunc("POST /api/auth/signin", a.handleSignIn)
	a.mux.HandleFunc("POST /api/auth/signup", a.handleSignUp)

	a.mux.HandleFunc("GET /api/products", a.handleListProducts)
	a.mux.HandleFunc("POST /api/products", a.handleCreateProduct)
	a.mux.HandleFunc("GET /api/products/user/{userId}", a.handleListUserProducts)
	a.mux.HandleFunc("GET /api/products/{id}", a.handleGetProduct)
	a.mux.HandleFunc("PUT /api/products/{id}", a.handleUpdateProduct)
	a.mux.HandleFunc("DELETE /api/products/{id}", a.handleDeleteProduct)

	a.mux.HandleFunc("GET /api/users", a.handleListUsers)
	a.mux.HandleFunc("POST /api/users", a.handleCreateUser)
	a.mux.HandleFunc("GET /api/users/me", a.handleMe)
	a.mux.HandleFunc("GET /api/users/{id}", a.handleGetUser)
	a.mux.HandleFunc("PUT /api/users/{id}", a.handleUpdateUser)
	a.mux.HandleFunc("DELETE /api/users/{id}", a.handleDeleteUser)

	a.mux.HandleFunc("GET /healthz", a.handleHealthz)
	a.mux.HandleFunc("GET /readyz", a.handleReadyz)
	if metrics != nil && cfg.MetricsPath != "" {
		a.mux.Handle("GET "+cfg.MetricsPath, metrics)
	}

	return a
}

// Handler returns the http.Handler for this adapter. Requests that match no
// route get the JSON error envelope instead of the plain-text default.
func (a *Adapter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pattern := a.mux.Handler(r); pattern == "" {
			a.mux.ServeHTTP(&envelopeWriter{ResponseWriter: w, r: r}, r)
			return
		}
		a.mux.ServeHTTP(w, r)
	})
}

// envelopeWriter replaces the mux's plain-text 404/405 body with the JSON
// error envelope. Headers such as Allow are kept.
type envelopeWriter struct {
	http.ResponseWriter
	r       *http.Request
	written bool
}

func (w *envelopeWriter) WriteHeader(status int) {
	if w.written {
		return
	}
	w.written = true
	w.Header().Del("Content-Type")
	message := "No handler found for " + w.r.Method + " " + w.r.URL.Path
	if status == http.StatusMethodNotAllowed {
		message = "Method " + w.r.Method + " is not supported for " + w.r.URL.Path
	}
	transport.WriteError(w.ResponseWriter, w.r, status, message)
}

func (w *envelopeWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusNotFound)
	}
	return len(b), nil
}

// decodeJSON reads a JSON request body into v with the configured size cap.
func (a *Adapter) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request body too large (max %d bytes)", a.config.MaxBodySize))
			return false
		}
		slog.Debug("malformed request body", "path", r.URL.Path, "error", err)
		transport.WriteError(w, r, http.StatusBadRequest, "Malformed JSON request")
		return false
	}
	return true
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeHandlerError writes err as the JSON error envelope. APIErrors keep
// their message; anything else is logged and answered with a bare 500.
func writeHandlerError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		transport.WriteAPIError(w, r, apiErr)
		return
	}
	slog.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", transport.RequestIDFromContext(r.Context()),
		"error", err,
	)
	transport.WriteError(w, r, http.StatusInternalServerError, "")
}

func caller(r *http.Request) *auth.Identity {
	return auth.IdentityFromContext(r.Context())
}

// handleSignIn handles POST /api/auth/signin.
func (a *Adapter) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	resp, err := a.svc.Accounts.SignIn(r.Context(), &req)
	if err != nil {
		writeHandlerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSignUp handles POST /api/auth/signup.
func (a *Adapter) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req api.UserCreateRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	resp, err := a.svc.Accounts.SignUp(r.Context(), &req)
	if err != nil {
		writeHandlerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *Adapter) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.svc.Products.List(r.Context())
	if err != nil {
		writeHandlerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (a *Adapter) handleListUserProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.svc.Products.ListByUser(r.Context(), r.PathValue("userId"))
	if err != nil {
		writeHandlerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (a *Adapter) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := a.svc.Products.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeHandlerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *Adapter) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req api.ProductRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	p, err := a.svc.Products.Create(r.Context(), caller(r), &req)
	if err != nil {
		writeHandlerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *Adapter) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req api.ProductUpdateRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	p, err := a.svc.Products.Update(r.Context(), caller(r), r.PathValue("id"), &req)
	if err != nil {
		writeHandlerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *Adapter) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Products.Delete(r.Context(), caller(r), r.PathValue("id")); err != nil {
		writeHandlerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Adapter) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.svc.Users.List(r.Context(), caller(r))
	if err != nil {
		writeHandlerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *Adapter) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req api.UserCreateRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	u, err := a.svc.Users.Create(r.Context(), caller(r), &req)
	if err != nil {
		writeHandlerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (a *Adapter) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := a.svc.Users.Me(r.Context(), caller(r))
	if err != nil {
		writeHandlerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *Adapter) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := a.svc.Users.Get(r.Context(), caller(r), r.PathValue("id"))
	if err != nil {
		writeHandlerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *Adapter) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req api.UserUpdateRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	u, err := a.svc.Users.Update(r.Context(), caller(r), r.PathValue("id"), &req)
	if err != nil {
		writeHandlerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *Adapter) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Users.Delete(r.Context(), caller(r), r.PathValue("id")); err != nil {
		writeHandlerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Adapter) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *Adapter) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		if err := a.health.HealthCheck(r.Context()); err != nil {
			slog.Warn("readiness check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
