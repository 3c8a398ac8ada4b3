// Package web provides the HTTP API for the book reader: document
// upload and text extraction, the voice catalog, server-side speech
// synthesis, agent provisioning, and a live transcript stream.
package web

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/jronit/playai-book-reader/internal/config"
	"github.com/jronit/playai-book-reader/internal/httpc"
	"github.com/jronit/playai-book-reader/pkg/agent"
	"github.com/jronit/playai-book-reader/pkg/hub"
	"github.com/jronit/playai-book-reader/pkg/pdftext"
	"github.com/jronit/playai-book-reader/pkg/reader"
	"github.com/jronit/playai-book-reader/pkg/session"
)

// maxUploadBytes bounds PDF upload size.
const maxUploadBytes = 50 * 1024 * 1024

// Server is the book reader API server.
type Server struct {
	cfg    config.Config
	app    *fiber.App
	logger *slog.Logger

	agents *agent.Client

	// ttsClient is shared across per-voice synthesis providers.
	ttsClient *http.Client

	// transcriptHub fans session transcript and status updates out to
	// websocket subscribers.
	transcriptHub *hub.Hub

	mu        sync.RWMutex
	documents map[uuid.UUID]*reader.Document

	// openDoc builds a document from uploaded bytes. Replaceable in
	// tests to avoid real PDF fixtures.
	openDoc func(name string, data []byte) (*reader.Document, error)
}

// NewServer creates the API server.
func NewServer(cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger.With("component", "web"),
		agents: agent.NewClient(cfg.APIKey, cfg.UserID,
			agent.WithBaseURL(cfg.APIBaseURL),
			agent.WithLogger(logger),
		),
		ttsClient:     httpc.NewClient(60 * time.Second),
		transcriptHub: hub.New("transcript", logger),
		documents:     make(map[uuid.UUID]*reader.Document),
		openDoc:       openPDFDocument,
	}

	app := fiber.New(fiber.Config{
		AppName:               "Book Reader",
		DisableStartupMessage: true,
		BodyLimit:             maxUploadBytes,
	})

	app.Use(cors.New())

	api := app.Group("/api")
	api.Post("/documents", s.handleUploadDocument)
	api.Get("/documents/:id", s.handleGetDocument)
	api.Get("/documents/:id/pages/:page/text", s.handlePageText)
	api.Delete("/documents/:id", s.handleDeleteDocument)
	api.Get("/voices", s.handleVoices)
	api.Post("/tts", s.handleSynthesize)
	api.Post("/agents", s.handleCreateAgent)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/transcript", websocket.New(s.handleTranscriptWS))

	s.app = app
	return s
}

// openPDFDocument parses uploaded PDF bytes into a cached document.
func openPDFDocument(name string, data []byte) (*reader.Document, error) {
	file, err := pdftext.OpenBytes(data)
	if err != nil {
		return nil, err
	}
	return reader.NewDocument(name, file), nil
}

// Start runs the server on the configured listen address. It blocks
// until Shutdown is called.
func (s *Server) Start() error {
	go s.transcriptHub.Run()

	s.logger.Info("http server listening", "addr", s.cfg.ListenAddr)
	return s.app.Listen(s.cfg.ListenAddr)
}

// Shutdown gracefully stops the server and its broadcast hub.
func (s *Server) Shutdown() error {
	s.transcriptHub.Stop()
	return s.app.Shutdown()
}

// TranscriptHub exposes the broadcast hub for wiring external
// publishers.
func (s *Server) TranscriptHub() *hub.Hub {
	return s.transcriptHub
}

// AttachSession wires a voice session's transcript and status updates
// into the transcript stream.
func (s *Server) AttachSession(sess *session.Session) {
	sess.OnTranscript(func(turns []session.Turn) {
		if msg, err := hub.NewTranscriptEvent(turns); err == nil {
			s.transcriptHub.Broadcast(msg)
		}
	})
	sess.OnStatus(func(state session.State) {
		if msg, err := hub.NewStatusEvent(state.String()); err == nil {
			s.transcriptHub.Broadcast(msg)
		}
	})
}

// document looks up a stored document by id.
func (s *Server) document(id uuid.UUID) (*reader.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	return doc, ok
}
