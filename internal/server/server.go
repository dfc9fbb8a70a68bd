// Package server exposes the chat orchestrator over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"ragchat/internal/domain"
	"ragchat/internal/service"
)

const DefaultMaxBodyBytes = 1 << 20

// Chatter answers one chat request.
type Chatter interface {
	Chat(ctx context.Context, message string, history []domain.ConversationTurn) (string, error)
}

// CorpusManager reports on and reloads the corpus.
type CorpusManager interface {
	Corpus() service.CorpusInfo
	LoadCorpus(ctx context.Context) (service.CorpusInfo, error)
}

type Options struct {
	MaxBodyBytes int64
}

type Server struct {
	chat    Chatter
	corpus  CorpusManager
	log     *slog.Logger
	maxBody int64
	handler http.Handler
}

func New(chat Chatter, corpus CorpusManager, opts Options, log *slog.Logger) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Server{chat: chat, corpus: corpus, log: log, maxBody: opts.MaxBodyBytes}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/chat", s.chatHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/corpus", s.corpusHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/corpus/refresh", s.refreshHandler).Methods(http.MethodPost)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.handler = otelhttp.NewHandler(chain(r, s.requestLogger, cors), "ragchat")
	return s
}

func (s *Server) Handler() http.Handler { return s.handler }

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("http server stopped")
	return nil
}
