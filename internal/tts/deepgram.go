package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DeepgramClient is an alternate synthesizer backed by the Deepgram REST
// speak endpoint. Selected when a Deepgram key is configured.
type DeepgramClient struct {
	HTTPClient *http.Client
	APIKey     string
	Model      string
}

// NewDeepgramClient constructs a Deepgram speak client.
func NewDeepgramClient(apiKey, model string) *DeepgramClient {
	if model == "" {
		model = "aura-2-thalia-en"
	}
	return &DeepgramClient{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		APIKey:     apiKey,
		Model:      model,
	}
}

// Available reports whether a credential is configured.
func (d *DeepgramClient) Available() bool { return d.APIKey != "" }

// Synthesize converts text to mp3 audio via Deepgram speak.
func (d *DeepgramClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if d.APIKey == "" {
		return nil, ErrUnavailable
	}

	u := url.URL{Scheme: "https", Host: "api.deepgram.com", Path: "/v1/speak"}
	q := u.Query()
	q.Set("model", d.Model)
	q.Set("encoding", "mp3")
	u.RawQuery = q.Encode()

	buf, _ := json.Marshal(map[string]string{"text": text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+d.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepgram: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("deepgram: status=%d body=%s", resp.StatusCode, string(b))
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("deepgram: read audio: %w", err)
	}
	return audio, nil
}
