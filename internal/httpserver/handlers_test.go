package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/riri324/ChatbotJob1/internal/agent"
	"github.com/riri324/ChatbotJob1/internal/config"
	"github.com/riri324/ChatbotJob1/internal/llm"
	"github.com/riri324/ChatbotJob1/internal/store"
	"github.com/riri324/ChatbotJob1/internal/transcript"
)

type fakeConversation struct {
	reply    string
	err      error
	resetErr error
	mode     string
	turns    int
	lastText string
}

func (f *fakeConversation) Respond(ctx context.Context, text string) (string, error) {
	f.lastText = text
	return f.reply, f.err
}
func (f *fakeConversation) Reset() error   { return f.resetErr }
func (f *fakeConversation) Mode() string   { return f.mode }
func (f *fakeConversation) TurnCount() int { return f.turns }

type fakeSynthesizer struct {
	available bool
	audio     []byte
	err       error
}

func (f *fakeSynthesizer) Available() bool { return f.available }
func (f *fakeSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return f.audio, f.err
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	return f.text, f.err
}

func newTestServer(h Handlers) *httptest.Server {
	e := New(config.Config{AllowedOrigins: []string{"http://localhost:3000"}}, h)
	return httptest.NewServer(e)
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &decoded)
	return resp, decoded
}

func defaultHandlers() Handlers {
	return Handlers{
		Conversation:        &fakeConversation{reply: "ok", mode: "idle"},
		Synthesizer:         &fakeSynthesizer{},
		Transcriber:         &fakeTranscriber{text: "hello"},
		GenerationAvailable: true,
	}
}

func TestRoot_And_Healthz(t *testing.T) {
	srv := newTestServer(defaultHandlers())
	defer srv.Close()

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/", "")
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("unexpected root response: %d %v", resp.StatusCode, body)
	}

	resp2, _ := doJSON(t, http.MethodGet, srv.URL+"/healthz", "")
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", resp2.StatusCode)
	}
}

func TestChat_EmptyText(t *testing.T) {
	srv := newTestServer(defaultHandlers())
	defer srv.Close()

	for _, body := range []string{`{}`, `{"text":""}`, `{"text":"   "}`, `not-json`} {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/chat", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for body %q, got %d", body, resp.StatusCode)
		}
	}
}

func TestChat_OK(t *testing.T) {
	conv := &fakeConversation{reply: "hi there", mode: "idle"}
	h := defaultHandlers()
	h.Conversation = conv
	srv := newTestServer(h)
	defer srv.Close()

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/chat", `{"text":"hello bot"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["bot_response"] != "hi there" {
		t.Fatalf("unexpected body %v", body)
	}
	if conv.lastText != "hello bot" {
		t.Fatalf("conversation got %q", conv.lastText)
	}
}

func TestChat_InternalFault(t *testing.T) {
	h := defaultHandlers()
	h.Conversation = &fakeConversation{err: errors.New("boom")}
	srv := newTestServer(h)
	defer srv.Close()

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/chat", `{"text":"hello bot"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func multipartUpload(t *testing.T, url, field, filename, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	_ = mw.Close()

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestTalk_NoFile(t *testing.T) {
	srv := newTestServer(defaultHandlers())
	defer srv.Close()

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/talk", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without file, got %d", resp.StatusCode)
	}
}

func TestTalk_TranscriptionFailure(t *testing.T) {
	h := defaultHandlers()
	h.Transcriber = &fakeTranscriber{err: errors.New("provider down")}
	srv := newTestServer(h)
	defer srv.Close()

	resp := multipartUpload(t, srv.URL+"/talk", "file", "clip.wav", "RIFFdata")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 on transcription failure, got %d", resp.StatusCode)
	}
}

func TestTalk_EmptyAudio(t *testing.T) {
	h := defaultHandlers()
	h.Transcriber = &fakeTranscriber{err: transcript.ErrEmptyInput}
	srv := newTestServer(h)
	defer srv.Close()

	resp := multipartUpload(t, srv.URL+"/talk", "file", "clip.wav", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 on empty audio, got %d", resp.StatusCode)
	}
}

func TestTalk_SynthesisUnavailable(t *testing.T) {
	h := defaultHandlers()
	h.Conversation = &fakeConversation{reply: "nice to hear you", mode: "idle"}
	h.Synthesizer = &fakeSynthesizer{available: false}
	srv := newTestServer(h)
	defer srv.Close()

	resp := multipartUpload(t, srv.URL+"/talk", "file", "clip.wav", "RIFFdata")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["transcription"] != "hello" || body["bot_response"] != "nice to hear you" {
		t.Fatalf("unexpected body %v", body)
	}
	if body["has_audio"] != false {
		t.Fatalf("expected has_audio false, got %v", body["has_audio"])
	}
}

func TestTalk_WithAudio(t *testing.T) {
	h := defaultHandlers()
	h.Synthesizer = &fakeSynthesizer{available: true, audio: []byte("mp3")}
	srv := newTestServer(h)
	defer srv.Close()

	resp := multipartUpload(t, srv.URL+"/talk", "file", "clip.wav", "RIFFdata")
	var body map[string]any
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &body)
	if body["has_audio"] != true {
		t.Fatalf("expected has_audio true, got %v", body)
	}
}

func TestClear_OKAndPersistenceFailure(t *testing.T) {
	h := defaultHandlers()
	srv := newTestServer(h)
	defer srv.Close()

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/clear", "")
	if resp.StatusCode != http.StatusOK || body["status"] != "success" {
		t.Fatalf("unexpected clear response: %d %v", resp.StatusCode, body)
	}

	h2 := defaultHandlers()
	h2.Conversation = &fakeConversation{resetErr: errors.New("disk full")}
	srv2 := newTestServer(h2)
	defer srv2.Close()
	resp2, _ := doJSON(t, http.MethodGet, srv2.URL+"/clear", "")
	if resp2.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 on reset failure, got %d", resp2.StatusCode)
	}
}

func TestAudio_Unavailable(t *testing.T) {
	srv := newTestServer(defaultHandlers())
	defer srv.Close()

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/audio/hello", "")
	if resp.StatusCode != http.StatusNotImplemented {
		t.Fatalf("expected 501 without synthesis credential, got %d", resp.StatusCode)
	}
}

func TestAudio_OKAndFailure(t *testing.T) {
	h := defaultHandlers()
	h.Synthesizer = &fakeSynthesizer{available: true, audio: []byte("mp3data")}
	srv := newTestServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/audio/hello")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "audio/mpeg" {
		t.Fatalf("expected audio/mpeg, got %q", ct)
	}
	raw, _ := io.ReadAll(resp.Body)
	if string(raw) != "mp3data" {
		t.Fatalf("unexpected audio body %q", raw)
	}

	h2 := defaultHandlers()
	h2.Synthesizer = &fakeSynthesizer{available: true, err: errors.New("quota")}
	srv2 := newTestServer(h2)
	defer srv2.Close()
	resp2, _ := doJSON(t, http.MethodGet, srv2.URL+"/audio/hello", "")
	if resp2.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 on synthesis failure, got %d", resp2.StatusCode)
	}
}

func TestStatus_Shape(t *testing.T) {
	h := defaultHandlers()
	h.Conversation = &fakeConversation{mode: "interview", turns: 6}
	h.Synthesizer = &fakeSynthesizer{available: true}
	srv := newTestServer(h)
	defer srv.Close()

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/status", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["generation_available"] != true || body["synthesis_available"] != true {
		t.Fatalf("unexpected availability flags: %v", body)
	}
	if body["mode"] != "interview" {
		t.Fatalf("expected interview mode, got %v", body["mode"])
	}
	if body["turn_count"] != float64(6) {
		t.Fatalf("expected turn_count 6, got %v", body["turn_count"])
	}
}

type scriptedGenerator struct{ reply string }

func (s scriptedGenerator) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	return s.reply, nil
}

// Full stack through the facade: /chat with /start on a fresh store must
// return the fixed opening question and persist exactly one turn pair plus
// the interview mode flag.
func TestChat_StartScenario(t *testing.T) {
	st := store.New(filepath.Join(t.TempDir(), "database.json"))
	session := agent.NewSession(st, scriptedGenerator{reply: "unused"})

	h := defaultHandlers()
	h.Conversation = session
	srv := newTestServer(h)
	defer srv.Close()

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/chat", `{"text":"/start"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["bot_response"] != agent.FirstQuestion {
		t.Fatalf("expected fixed opening question, got %v", body["bot_response"])
	}

	persisted := st.Load()
	if len(persisted.Messages) != 2 || !persisted.InterviewMode {
		t.Fatalf("unexpected persisted state: %+v", persisted)
	}

	_, status := doJSON(t, http.MethodGet, srv.URL+"/status", "")
	if status["mode"] != "interview" || status["turn_count"] != float64(2) {
		t.Fatalf("unexpected status: %v", status)
	}
}
