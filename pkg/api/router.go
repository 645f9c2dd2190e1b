// Package api serves linkograph analysis over HTTP for the presentation
// layer, with a websocket stream of pipeline events.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
)

// HandlerFunc is the function signature for API handlers.
type HandlerFunc func(w http.ResponseWriter, r *http.Request)

// Route represents a registered route with its handler.
type Route struct {
	Method  string
	Pattern string
	Handler HandlerFunc
}

// Router dispatches on method and exact path.
type Router struct {
	routes []Route
	mu     sync.RWMutex

	// NotFound is called when no route matches.
	NotFound http.Handler
}

// NewRouter creates a new Router instance.
func NewRouter() *Router {
	return &Router{
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "The requested resource was not found")
		}),
	}
}

// Handle registers a handler for the given method and path.
func (rt *Router) Handle(method, pattern string, handler HandlerFunc) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.routes = append(rt.routes, Route{
		Method:  method,
		Pattern: "/" + strings.Trim(pattern, "/"),
		Handler: handler,
	})
}

// GET registers a handler for GET requests.
func (rt *Router) GET(pattern string, handler HandlerFunc) {
	rt.Handle(http.MethodGet, pattern, handler)
}

// POST registers a handler for POST requests.
func (rt *Router) POST(pattern string, handler HandlerFunc) {
	rt.Handle(http.MethodPost, pattern, handler)
}

// ServeHTTP implements http.Handler. A path registered under another method
// answers 405.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	path := "/" + strings.Trim(r.URL.Path, "/")
	pathKnown := false
	for _, route := range rt.routes {
		if route.Pattern != path {
			continue
		}
		if route.Method == r.Method {
			route.Handler(w, r)
			return
		}
		pathKnown = true
	}

	if pathKnown {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" is not supported on "+path)
		return
	}
	rt.NotFound.ServeHTTP(w, r)
}

// -----------------------------------------------------------------------------
// Response Helpers
// -----------------------------------------------------------------------------

// APIResponse is the standard response wrapper for API endpoints.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError represents an error response.
type APIError struct {
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	Context     map[string]string `json:"context,omitempty"`
	Suggestions []string          `json:"suggestions,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	writeResponse(w, status, APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeResponse(w, status, APIResponse{Error: &APIError{Code: code, Message: message}})
}

// WriteFailure writes err with the status its category maps to. Structured
// errors keep their code, context and suggestions.
func WriteFailure(w http.ResponseWriter, err error) {
	le, ok := lerrors.AsLinkographError(err)
	if !ok {
		WriteError(w, http.StatusInternalServerError, lerrors.ErrInternal, err.Error())
		return
	}
	writeResponse(w, StatusFor(err), APIResponse{Error: &APIError{
		Code:        le.Code,
		Message:     le.Message,
		Context:     le.Context,
		Suggestions: le.Suggestions,
	}})
}

// StatusFor maps an error to an HTTP status.
func StatusFor(err error) int {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}

	le, ok := lerrors.AsLinkographError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch le.Code {
	case lerrors.ErrProviderNotConfigured:
		return http.StatusServiceUnavailable
	case lerrors.ErrAnalysisCanceled:
		return http.StatusServiceUnavailable
	}
	switch le.Category {
	case lerrors.CategoryConfig, lerrors.CategoryInput, lerrors.CategoryNumeric, lerrors.CategorySession:
		return http.StatusBadRequest
	case lerrors.CategoryEmbedding:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeResponse(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are sent; an encoding failure cannot be reported.
	_ = json.NewEncoder(w).Encode(resp)
}

// ReadJSON decodes a request body into target, rejecting unknown fields.
func ReadJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
