package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jronit/playai-book-reader/internal/config"
	"github.com/jronit/playai-book-reader/pkg/pdftext"
	"github.com/jronit/playai-book-reader/pkg/reader"
)

type stubPage struct {
	text string
	err  error
}

func (p stubPage) TextContent() ([]string, error) {
	if p.err != nil {
		return nil, p.err
	}
	return []string{p.text}, nil
}

type stubSource struct {
	pages []stubPage
}

func (s stubSource) NumPages() int {
	return len(s.pages)
}

func (s stubSource) GetPage(n int) (pdftext.Page, error) {
	return s.pages[n-1], nil
}

func newTestServer(t *testing.T, cfg config.Config, pages ...string) *Server {
	t.Helper()

	if cfg.APIKey == "" {
		cfg.APIKey = "test-key"
	}
	if cfg.UserID == "" {
		cfg.UserID = "test-user"
	}

	s := NewServer(cfg, slog.Default())
	s.openDoc = func(name string, data []byte) (*reader.Document, error) {
		if len(pages) == 0 {
			return nil, errors.New("unreadable")
		}
		src := stubSource{}
		for _, text := range pages {
			src.pages = append(src.pages, stubPage{text: text})
		}
		return reader.NewDocument(name, src, pdftext.WithPreloadDebounce(time.Millisecond)), nil
	}
	return s
}

func uploadRequest(t *testing.T, contents string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "book.pdf")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	part.Write([]byte(contents))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("failed to decode body %q: %v", data, err)
	}
}

// uploadDocument stores a document and returns its id.
func uploadDocument(t *testing.T, s *Server) string {
	t.Helper()

	resp, err := s.app.Test(uploadRequest(t, "%PDF-1.4 stub"))
	if err != nil {
		t.Fatalf("upload request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var doc documentResponse
	decodeBody(t, resp, &doc)
	return doc.ID
}

func TestUploadDocument(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s := newTestServer(t, config.Config{}, "page one", "page two")

		resp, err := s.app.Test(uploadRequest(t, "%PDF-1.4 stub"))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}

		var doc documentResponse
		decodeBody(t, resp, &doc)
		if doc.Pages != 2 {
			t.Errorf("expected 2 pages, got %d", doc.Pages)
		}
		if doc.Name != "book.pdf" {
			t.Errorf("expected name book.pdf, got %q", doc.Name)
		}
		if _, err := uuid.Parse(doc.ID); err != nil {
			t.Errorf("expected a uuid id, got %q", doc.ID)
		}
	})

	t.Run("missing file field", func(t *testing.T) {
		s := newTestServer(t, config.Config{}, "page")

		req := httptest.NewRequest(http.MethodPost, "/api/documents", strings.NewReader("raw"))
		resp, err := s.app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("unreadable document", func(t *testing.T) {
		s := newTestServer(t, config.Config{})

		resp, err := s.app.Test(uploadRequest(t, "not a pdf"))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestPageText(t *testing.T) {
	s := newTestServer(t, config.Config{}, "first page text", "second page text")
	id := uploadDocument(t, s)

	t.Run("cached extraction", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/pages/2/text", nil)
		resp, err := s.app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var body struct {
			Page int    `json:"page"`
			Text string `json:"text"`
		}
		decodeBody(t, resp, &body)
		if body.Page != 2 || body.Text != "second page text" {
			t.Errorf("unexpected body %+v", body)
		}
	})

	t.Run("page out of range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/pages/99/text", nil)
		resp, err := s.app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("unknown document", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents/"+uuid.NewString()+"/pages/1/text", nil)
		resp, err := s.app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("invalid document id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents/not-a-uuid/pages/1/text", nil)
		resp, err := s.app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestPageTextPreloadsNeighbors(t *testing.T) {
	s := newTestServer(t, config.Config{}, "page one", "page two", "page three")
	id := uploadDocument(t, s)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+id+"/pages/2/text", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	docID, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("bad document id: %v", err)
	}
	doc, ok := s.document(docID)
	if !ok {
		t.Fatal("document not stored")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if doc.Cache().Cached(1) && doc.Cache().Cached(3) {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Error("expected neighbor pages cached after reading page 2")
}

func TestDeleteDocument(t *testing.T) {
	s := newTestServer(t, config.Config{}, "page")
	id := uploadDocument(t, s)

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/"+id, nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/documents/"+id, nil)
	resp, err = s.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestVoicesEndpoint(t *testing.T) {
	s := newTestServer(t, config.Config{}, "page")

	req := httptest.NewRequest(http.MethodGet, "/api/voices", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var voices []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	decodeBody(t, resp, &voices)
	if len(voices) != 3 {
		t.Fatalf("expected 3 voices, got %d", len(voices))
	}
	if voices[0].Name != "Angelo" {
		t.Errorf("unexpected first voice %q", voices[0].Name)
	}
	for _, v := range voices {
		if !strings.HasPrefix(v.Value, "s3://voice-cloning-zero-shot/") {
			t.Errorf("voice %s: unexpected value %q", v.Name, v.Value)
		}
	}
}

func TestSynthesizeProxy(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tts/stream" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth %q", auth)
		}

		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["text"] != "hello world" {
			t.Errorf("unexpected text %v", payload["text"])
		}

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("MP3DATA"))
	}))
	defer backend.Close()

	s := newTestServer(t, config.Config{TTSBaseURL: backend.URL}, "page")

	t.Run("proxies audio", func(t *testing.T) {
		body := strings.NewReader(`{"text": "hello world", "voice": "Briggs"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/tts", body)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.app.Test(req, 5000)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "audio/mpeg" {
			t.Errorf("unexpected content type %q", ct)
		}
		audio, _ := io.ReadAll(resp.Body)
		if string(audio) != "MP3DATA" {
			t.Errorf("unexpected audio %q", audio)
		}
	})

	t.Run("missing text", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/tts", strings.NewReader(`{"voice": "Briggs"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("unknown voice", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/tts", strings.NewReader(`{"text": "hi", "voice": "Nobody"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("provider error passthrough", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusPaymentRequired)
			w.Write([]byte(`{"errorMessage": "out of credits"}`))
		}))
		defer failing.Close()

		s := newTestServer(t, config.Config{TTSBaseURL: failing.URL}, "page")

		req := httptest.NewRequest(http.MethodPost, "/api/tts", strings.NewReader(`{"text": "hi"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.app.Test(req, 5000)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusPaymentRequired {
			t.Errorf("expected 402, got %d", resp.StatusCode)
		}
	})
}

func TestCreateAgentEndpoint(t *testing.T) {
	var knowledge string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/agents" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		knowledge, _ = payload["criticalKnowledge"].(string)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "agent-xyz"}`))
	}))
	defer backend.Close()

	s := newTestServer(t, config.Config{APIBaseURL: backend.URL}, "page one", "page two")
	id := uploadDocument(t, s)

	t.Run("provisions from full document text", func(t *testing.T) {
		body := strings.NewReader(`{"documentId": "` + id + `"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/agents", body)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.app.Test(req, 5000)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}

		var result struct {
			ID string `json:"id"`
		}
		decodeBody(t, resp, &result)
		if result.ID != "agent-xyz" {
			t.Errorf("unexpected agent id %q", result.ID)
		}

		if !strings.Contains(knowledge, "page one") || !strings.Contains(knowledge, "page two") {
			t.Errorf("expected all pages in knowledge, got %q", knowledge)
		}
	})

	t.Run("unknown document", func(t *testing.T) {
		body := strings.NewReader(`{"documentId": "` + uuid.NewString() + `"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/agents", body)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("document with no text", func(t *testing.T) {
		empty := newTestServer(t, config.Config{APIBaseURL: backend.URL}, "")
		emptyID := uploadDocument(t, empty)

		body := strings.NewReader(`{"documentId": "` + emptyID + `"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/agents", body)
		req.Header.Set("Content-Type", "application/json")

		resp, err := empty.app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", resp.StatusCode)
		}
	})
}
