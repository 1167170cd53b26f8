package media

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// HTTPServer streams stored photos under /uploads/{key}.
type HTTPServer struct {
	source Source
	logger *slog.Logger
}

func NewHTTPServer(source Source, logger *slog.Logger) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPServer{source: source, logger: logger}
}

// RegisterRoutes mounts the photo routes on router.
func (s *HTTPServer) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/"+PathPrefix+"/{key}", s.serveFile).Methods(http.MethodGet, http.MethodHead)
}

// ServeHTTP lets the server run standalone (cmd/media-server).
func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router := mux.NewRouter()
	s.RegisterRoutes(router)
	router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	router.ServeHTTP(w, r)
}

func (s *HTTPServer) serveFile(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	file, err := s.source.Open(r.Context(), key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.ErrorContext(r.Context(), "opening photo", "key", key, "error", err)
		}
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer file.Content.Close()

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if file.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	}
	if !file.ModTime.IsZero() {
		w.Header().Set("Last-Modified", file.ModTime.UTC().Format(http.TimeFormat))
	}
	if r.Method == http.MethodHead {
		return
	}

	if _, err := io.Copy(w, file.Content); err != nil {
		s.logger.WarnContext(r.Context(), "streaming photo", "key", key, "error", err)
	}
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Media server is healthy"))
}
