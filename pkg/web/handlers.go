package web

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/jronit/playai-book-reader/pkg/agent"
	"github.com/jronit/playai-book-reader/pkg/hub"
	"github.com/jronit/playai-book-reader/pkg/pdftext"
	"github.com/jronit/playai-book-reader/pkg/tts"
)

type documentResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Pages int    `json:"pages"`
}

// handleUploadDocument accepts a multipart PDF upload and returns the
// stored document's id and page count.
func (s *Server) handleUploadDocument(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "multipart field 'file' is required",
		})
	}

	file, err := header.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to open upload",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read upload",
		})
	}

	doc, err := s.openDoc(header.Filename, data)
	if err != nil {
		s.logger.Warn("rejected upload", "name", header.Filename, "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "not a readable PDF document",
		})
	}

	s.mu.Lock()
	s.documents[doc.ID] = doc
	s.mu.Unlock()

	s.logger.Info("document stored",
		"document_id", doc.ID,
		"name", doc.Name,
		"pages", doc.PageCount(),
	)

	return c.Status(fiber.StatusCreated).JSON(documentResponse{
		ID:    doc.ID.String(),
		Name:  doc.Name,
		Pages: doc.PageCount(),
	})
}

// handleGetDocument returns a stored document's metadata.
func (s *Server) handleGetDocument(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid document id",
		})
	}

	doc, ok := s.document(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "document not found",
		})
	}

	return c.JSON(documentResponse{
		ID:    doc.ID.String(),
		Name:  doc.Name,
		Pages: doc.PageCount(),
	})
}

// handlePageText returns the extracted, cached text of one page.
func (s *Server) handlePageText(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid document id",
		})
	}

	doc, ok := s.document(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "document not found",
		})
	}

	page, err := strconv.Atoi(c.Params("page"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid page number",
		})
	}

	text, err := doc.Text(page)
	if err != nil {
		var rangeErr *pdftext.ErrPageOutOfRange
		if errors.As(err, &rangeErr) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "page out of range",
			})
		}
		s.logger.Error("page extraction failed",
			"document_id", id,
			"page", page,
			"error", err,
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "text extraction failed",
		})
	}

	// Reading a page is the navigation signal: warm its neighbors so
	// the next page turn hits the cache.
	doc.Cache().Preload(page)

	return c.JSON(fiber.Map{
		"page": page,
		"text": text,
	})
}

// handleDeleteDocument removes a stored document.
func (s *Server) handleDeleteDocument(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid document id",
		})
	}

	s.mu.Lock()
	doc, ok := s.documents[id]
	if ok {
		delete(s.documents, id)
	}
	s.mu.Unlock()

	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "document not found",
		})
	}
	doc.Close()

	return c.SendStatus(fiber.StatusNoContent)
}

// handleVoices returns the narrator voice catalog.
func (s *Server) handleVoices(c *fiber.Ctx) error {
	return c.JSON(tts.Voices())
}

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// handleSynthesize proxies speech synthesis so API credentials stay
// server-side. The response body is the audio stream.
func (s *Server) handleSynthesize(c *fiber.Ctx) error {
	var req synthesizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "text is required",
		})
	}

	voice := tts.DefaultVoice()
	if req.Voice != "" {
		v, err := tts.Lookup(req.Voice)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "unknown voice",
			})
		}
		voice = v
	}

	provider, err := tts.NewPlayAI(
		tts.WithAPIKey(s.cfg.APIKey),
		tts.WithUserID(s.cfg.UserID),
		tts.WithBaseURL(s.cfg.TTSBaseURL),
		tts.WithVoice(voice.Value),
		tts.WithHTTPClient(s.ttsClient),
		tts.WithLogger(s.logger),
	)
	if err != nil {
		s.logger.Error("synthesis provider unavailable", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "synthesis not configured",
		})
	}

	result, err := provider.Synthesize(c.UserContext(), req.Text)
	if err != nil {
		var apiErr *tts.APIError
		if errors.As(err, &apiErr) {
			return c.Status(apiErr.StatusCode).JSON(fiber.Map{
				"error": apiErr.Message,
			})
		}
		s.logger.Error("synthesis failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "synthesis failed",
		})
	}

	c.Set(fiber.HeaderContentType, result.ContentType)
	return c.Send(result.Audio)
}

type createAgentRequest struct {
	DocumentID string `json:"documentId"`
}

// handleCreateAgent provisions a voice agent whose knowledge is the
// full extracted text of a stored document.
func (s *Server) handleCreateAgent(c *fiber.Ctx) error {
	var req createAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	id, err := uuid.Parse(req.DocumentID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid document id",
		})
	}

	doc, ok := s.document(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "document not found",
		})
	}

	var parts []string
	for page := 1; page <= doc.PageCount(); page++ {
		text, err := doc.Text(page)
		if err != nil {
			s.logger.Warn("skipping unreadable page",
				"document_id", id,
				"page", page,
				"error", err,
			)
			continue
		}
		if text != "" {
			parts = append(parts, text)
		}
	}

	agentID, err := s.agents.CreateAgent(c.UserContext(), strings.Join(parts, "\n\n"))
	if err != nil {
		if errors.Is(err, agent.ErrNoDocumentText) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "document has no extractable text",
			})
		}
		var apiErr *agent.APIError
		if errors.As(err, &apiErr) {
			return c.Status(apiErr.StatusCode).JSON(fiber.Map{
				"error": "agent creation failed",
			})
		}
		s.logger.Error("agent creation failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "agent creation failed",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id": agentID,
	})
}

// handleTranscriptWS subscribes a websocket client to the transcript
// broadcast stream.
func (s *Server) handleTranscriptWS(c *websocket.Conn) {
	client := hub.NewClient(s.transcriptHub, c)
	client.Run()
}
