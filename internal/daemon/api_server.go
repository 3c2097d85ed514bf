package daemon

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"shortsdub/internal/api"
	"shortsdub/internal/config"
	"shortsdub/internal/logging"
	"shortsdub/internal/services"
)

//go:embed web/index.html
var defaultIndex []byte

const (
	requestIDHeader   = "X-Request-ID"
	maxRequestBody    = 64 << 10
	defaultJobLimit   = 50
	writeTimeoutSlack = 30 * time.Second
)

type apiServer struct {
	bind      string
	staticDir string
	logger    *slog.Logger
	daemon    *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:      strings.TrimSpace(cfg.Paths.APIBind),
		staticDir: strings.TrimSpace(cfg.Paths.StaticDir),
		logger:    logging.NewComponentLogger(logger, "api-server"),
		daemon:    d,
	}

	// Translate holds the connection for the whole job.
	writeTimeout := time.Duration(0)
	if jobTimeout := cfg.JobTimeout(); jobTimeout > 0 {
		writeTimeout = jobTimeout + writeTimeoutSlack
	}
	srv.server = &http.Server{
		Handler:           srv.handler(cfg.Server.CORSOrigins),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) handler(origins []string) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/api/translate", s.handleTranslate).Methods(http.MethodPost)
	r.HandleFunc("/api/download/{job_id}", s.handleDownload).Methods(http.MethodGet)
	r.HandleFunc("/api/voices", s.handleVoices).Methods(http.MethodGet)
	r.HandleFunc("/api/jobs", s.handleJobs).Methods(http.MethodGet)
	r.HandleFunc("/api/jobs/{job_id}", s.handleJob).Methods(http.MethodGet)
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	if s.staticDir != "" {
		r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir))))
	}

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "Content-Disposition"},
	})
	return s.withRequestID(s.recoverPanics(c.Handler(r)))
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// withRequestID stamps every request with a correlation id, reusing a
// well-formed inbound one.
func (s *apiServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

// recoverPanics reports a generic failure instead of dropping the connection.
func (s *apiServer) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "request handler panicked", "request_panic",
				logging.String("path", r.URL.Path),
				logging.String("panic", fmt.Sprint(rec)),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldErrorHint, "inspect the stack trace in the daemon log"),
			)
			s.writeError(w, http.StatusInternalServerError, "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *apiServer) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req api.TranslateRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := s.daemon.translate.Translate(r.Context(), req)
	if err != nil {
		s.writeError(w, api.StatusCode(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]
	path, err := s.daemon.translate.DownloadPath(jobID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "file not found")
		return
	}
	file, err := os.Open(path)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "file not found")
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "cannot read artifact")
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", api.DownloadName(jobID)))
	http.ServeContent(w, r, api.DownloadName(jobID), info.ModTime(), file)
}

func (s *apiServer) handleVoices(w http.ResponseWriter, r *http.Request) {
	resp, err := s.daemon.voices.List(r.Context())
	if err != nil {
		s.logger.Warn("voice listing failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "voice_list_failed"),
			logging.String(logging.FieldErrorHint, "check elevenlabs.api_key"),
		)
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	limit := defaultJobLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	resp, err := s.daemon.jobs.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	resp, err := s.daemon.jobs.Describe(r.Context(), mux.Vars(r)["job_id"])
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.Health(r.Context()))
}

func (s *apiServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.staticDir != "" {
		index := filepath.Join(s.staticDir, "index.html")
		if _, err := os.Stat(index); err == nil {
			http.ServeFile(w, r, index)
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(defaultIndex)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
