package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"docshed/internal/api"
	"docshed/internal/ledger"
	"docshed/internal/logging"
)

// Server exposes the shed's read-only API over HTTP. All endpoints
// are GET; mutation stays with the CLI.
type Server struct {
	service *api.Service
	bind    string
	logger  *slog.Logger
}

// NewServer wires an HTTP server for the given bind address. A nil
// logger discards output.
func NewServer(service *api.Service, bind string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{service: service, bind: bind, logger: logger}
}

// Handler builds the route table. Split out from ListenAndServe so
// tests can drive it with httptest.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	router.HandleFunc("/documents", s.handleDocuments).Methods(http.MethodGet)
	router.HandleFunc("/documents/{id}", s.handleDocument).Methods(http.MethodGet)
	router.HandleFunc("/documents/{id}/content", s.handleDocumentContent).Methods(http.MethodGet)
	router.HandleFunc("/bundles", s.handleBundles).Methods(http.MethodGet)
	router.HandleFunc("/bundles/{id}", s.handleBundle).Methods(http.MethodGet)
	return router
}

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.bind,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- httpServer.ListenAndServe()
	}()
	s.logger.Info("http server listening", "bind", s.bind)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.Summary(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	docs, err := s.service.Documents(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"documents": docs, "count": len(docs)})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.Document(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDocumentContent(w http.ResponseWriter, r *http.Request) {
	content, err := s.service.DocumentContent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (s *Server) handleBundles(w http.ResponseWriter, r *http.Request) {
	bundles, err := s.service.Bundles(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"bundles": bundles, "count": len(bundles)})
}

func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	bundle, err := s.service.Bundle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, bundle)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, ledger.ErrNotFound) || errors.Is(err, ledger.ErrBundleNotFound) {
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func filterFromQuery(r *http.Request) (ledger.Filter, error) {
	var filter ledger.Filter
	query := r.URL.Query()
	for _, raw := range query["status"] {
		status, ok := ledger.ParseStatus(raw)
		if !ok {
			return ledger.Filter{}, errors.New("unknown status " + strconv.Quote(raw))
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	filter.SourcePrefix = query.Get("source_prefix")
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return ledger.Filter{}, errors.New("invalid limit " + strconv.Quote(raw))
		}
		filter.Limit = limit
	}
	return filter, nil
}
