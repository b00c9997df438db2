// Package server exposes prompt generation to other programs: a JSON HTTP
// API, a WebSocket live channel that pushes vocabulary reloads, and an MCP
// stdio server.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/umi/errors"
	"github.com/teranos/umi/history"
	"github.com/teranos/umi/logger"
	"github.com/teranos/umi/prompt"
	"github.com/teranos/umi/vocab"
)

// MaxClients bounds concurrent WebSocket connections.
const MaxClients = 64

// HTTP server timeouts
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 120 * time.Second
)

// Config holds the server settings taken from am.Config.
type Config struct {
	AllowedOrigins []string
	// RatePerSecond limits generation requests across all transports.
	// Zero disables limiting.
	RatePerSecond float64
	RateBurst     int
	// Defaults seed every request's prompt.Options.
	Defaults prompt.Options
}

// Server serves one vocabulary store through a prompt generator.
type Server struct {
	store     *vocab.Store
	generator *prompt.Generator
	history   *history.Store // nil when history is disabled
	cfg       Config
	limiter   *rate.Limiter
	logger    *zap.SugaredLogger
	now       func() time.Time

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a server. hist may be nil; log nil uses the global logger.
func New(gen *prompt.Generator, hist *history.Store, cfg Config, log *zap.SugaredLogger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		store:      gen.Resolver().Store(),
		generator:  gen,
		history:    hist,
		cfg:        cfg,
		logger:     logger.OrComponent(log, "server"),
		now:        time.Now,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		limiter:    rate.NewLimiter(rate.Inf, 0),
		ctx:        ctx,
		cancel:     cancel,
	}
	s.SetRateLimit(cfg.RatePerSecond, cfg.RateBurst)
	return s
}

// SetRateLimit changes the generation limiter in place. A rate of zero or
// less removes the limit.
func (s *Server) SetRateLimit(perSecond float64, burst int) {
	if perSecond <= 0 {
		s.limiter.SetLimit(rate.Inf)
		return
	}
	s.limiter.SetBurst(max(burst, 1))
	s.limiter.SetLimit(rate.Limit(perSecond))
}

// Run is the client hub loop. It returns when the server is stopped.
func (s *Server) Run() {
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debugw("Server hub stopping due to context cancellation")
			return
		case client := <-s.register:
			s.handleClientRegister(client)
		case client := <-s.unregister:
			s.handleClientUnregister(client)
		}
	}
}

func (s *Server) handleClientRegister(client *Client) {
	s.mu.Lock()
	if len(s.clients) >= MaxClients {
		s.mu.Unlock()
		s.logger.Warnw("Max clients reached, rejecting connection",
			logger.FieldClientID, client.id,
			"max_clients", MaxClients,
		)
		client.close()
		client.conn.Close()
		return
	}
	s.clients[client] = true
	total := len(s.clients)
	s.mu.Unlock()

	s.logger.Infow("Client connected", logger.FieldClientID, client.id, "total_clients", total)
}

func (s *Server) handleClientUnregister(client *Client) {
	s.mu.Lock()
	_, ok := s.clients[client]
	delete(s.clients, client)
	total := len(s.clients)
	s.mu.Unlock()

	if ok {
		client.close()
		s.logger.Infow("Client disconnected", logger.FieldClientID, client.id, "total_clients", total)
	}
}

// Store returns the vocabulary the server generates from.
func (s *Server) Store() *vocab.Store {
	return s.store
}

// ClientCount returns the number of registered WebSocket clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// broadcastMessage sends msg to every registered client and returns how
// many accepted it. Clients with a full queue are skipped.
func (s *Server) broadcastMessage(msg interface{}) int {
	s.mu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	sent := 0
	for _, client := range clients {
		if client.trySend(msg) {
			sent++
		}
	}
	return sent
}

// NotifyReload tells every client the vocabulary changed. It matches
// vocab.ReloadFunc so it can be handed to a Watcher.
func (s *Server) NotifyReload(stats vocab.Stats) {
	sent := s.broadcastMessage(ReloadMessage{Type: MsgVocabularyReloaded, Stats: stats})
	s.logger.Infow("Vocabulary reload broadcast", "clients", sent)
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.corsMiddleware(s.HandleWebSocket))
	mux.HandleFunc("/health", s.corsMiddleware(s.HandleHealth))
	mux.HandleFunc("/api/generate", s.corsMiddleware(s.HandleGenerate))
	mux.HandleFunc("/api/files", s.corsMiddleware(s.HandleFiles))
	mux.HandleFunc("/api/tags", s.corsMiddleware(s.HandleTags))
	mux.HandleFunc("/api/entries/{title}", s.corsMiddleware(s.HandleEntry))
	mux.HandleFunc("/api/refresh", s.corsMiddleware(s.HandleRefresh))
	mux.HandleFunc("/api/ratios", s.corsMiddleware(s.HandleRatios))
	mux.HandleFunc("/api/history", s.corsMiddleware(s.HandleHistory))
	mux.HandleFunc("/api/history/{id}", s.corsMiddleware(s.HandleHistoryRecord))
	return mux
}

// Start listens on port (or the next free one) and serves until Stop.
func (s *Server) Start(port int) error {
	actual, err := findAvailablePort(port)
	if err != nil {
		return err
	}
	if actual != port {
		s.logger.Warnw("Requested port in use, using fallback", "requested", port, "port", actual)
	}

	addr := fmt.Sprintf(":%d", actual)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	go s.Run()

	s.logger.Infow("Server listening", logger.FieldAddress, "http://localhost"+addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrapf(err, "failed to serve on %s", addr)
	}
	return nil
}

// Stop shuts the HTTP server down and disconnects every client.
func (s *Server) Stop(ctx context.Context) error {
	s.cancel()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.mu.Lock()
	for client := range s.clients {
		client.close()
		delete(s.clients, client)
	}
	s.mu.Unlock()

	if err != nil {
		return errors.Wrap(err, "failed to shut down HTTP server")
	}
	s.logger.Infow("Server stopped")
	return nil
}
