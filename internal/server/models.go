package server

import (
	"net/http"
	"time"

	"github.com/florianilch/modelcatalog/internal/catalog"
)

const allowedMethods = "GET, HEAD, OPTIONS"

// ModelsHandler serves the chat and embedding model catalogs of a Registry.
//
// OPTIONS answers CORS preflight without touching the registry. GET (and HEAD)
// fetch both catalogs per request; nothing is cached between requests.
type ModelsHandler struct {
	Registry catalog.Registry
	// Observer is notified about every listing request. Nil disables notifications.
	Observer Observer
}

// Compile-time check that ModelsHandler implements http.Handler interface
var _ http.Handler = (*ModelsHandler)(nil)

func (h *ModelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		writePreflight(w)
	case http.MethodGet, http.MethodHead:
		h.list(w, r)
	default:
		setCORSHeaders(w.Header())
		w.Header().Set("Allow", allowedMethods)
		writeJSON(r.Context(), w,
			errorResponse{Message: http.StatusText(http.StatusMethodNotAllowed)},
			http.StatusMethodNotAllowed)
	}
}

func (h *ModelsHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	observer := h.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	notify(ctx, func() { observer.RequestReceived(ctx, r) })

	status := http.StatusOK
	var body any
	listing, err := catalog.Fetch(ctx, h.Registry)
	if err != nil {
		notify(ctx, func() { observer.FetchFailed(ctx, err) })
		status = http.StatusInternalServerError
		body = fetchErrorResponse{Message: errorMessage, Error: err.Error()}
	} else {
		body = listing
	}

	setCORSHeaders(w.Header())
	writeJSON(ctx, w, body, status)

	notify(ctx, func() { observer.ResponseSent(ctx, status, w.Header(), time.Since(start)) })
}
