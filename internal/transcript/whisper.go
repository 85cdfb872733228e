package transcript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrEmptyInput is returned when the uploaded audio contains no bytes.
var ErrEmptyInput = errors.New("transcript: empty audio input")

// Whisper transcribes uploaded audio via the OpenAI Whisper API.
// Uploads are staged to a temp file before the API call; the staged file is
// removed on every exit path.
type Whisper struct {
	client  oai.Client
	model   string
	tempDir string
}

type config struct {
	baseURL      string
	organization string
	timeout      time.Duration
	maxRetries   int
	hasRetries   bool
	tempDir      string
}

// Option configures the Whisper client.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithOrganization sets the OpenAI organization ID on all requests.
func WithOrganization(org string) Option {
	return func(c *config) { c.organization = org }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithMaxRetries overrides the SDK's default retry count.
func WithMaxRetries(n int) Option {
	return func(c *config) { c.maxRetries = n; c.hasRetries = true }
}

// WithTempDir overrides where uploads are staged (defaults to os.TempDir).
func WithTempDir(dir string) Option {
	return func(c *config) { c.tempDir = dir }
}

// NewWhisper constructs a transcription client.
func NewWhisper(apiKey string, opts ...Option) *Whisper {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(cfg.organization))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}
	if cfg.hasRetries {
		reqOpts = append(reqOpts, option.WithMaxRetries(cfg.maxRetries))
	}

	return &Whisper{
		client:  oai.NewClient(reqOpts...),
		model:   string(oai.AudioModelWhisper1),
		tempDir: cfg.tempDir,
	}
}

// Transcribe stages the uploaded bytes and extracts text from them. The
// filename is only used for its extension so the API can sniff the container
// format.
func (w *Whisper) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".wav"
	}
	f, err := os.CreateTemp(w.tempDir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("transcript: stage upload: %w", err)
	}
	defer func() {
		_ = f.Close()
		if err := os.Remove(f.Name()); err != nil {
			log.Printf("transcript: remove staged upload %s: %v", f.Name(), err)
		}
	}()

	n, err := io.Copy(f, audio)
	if err != nil {
		return "", fmt.Errorf("transcript: stage upload: %w", err)
	}
	if n == 0 {
		return "", ErrEmptyInput
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("transcript: rewind staged upload: %w", err)
	}

	resp, err := w.client.Audio.Transcriptions.New(ctx, oai.AudioTranscriptionNewParams{
		Model: oai.AudioModel(w.model),
		File:  f,
	})
	if err != nil {
		return "", fmt.Errorf("transcript: whisper: %w", err)
	}
	return resp.Text, nil
}
