package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnavailable means no synthesis credential is configured. Callers treat
// it as a feature flag, not a failure: the system degrades to text-only.
var ErrUnavailable = errors.New("tts: no synthesis credential configured")

// DefaultVoiceID is the stock ElevenLabs "Adam" voice.
const DefaultVoiceID = "pNInz6obpgDQGcFmaJgB"

// ElevenLabsClient renders text to audio/mpeg via the ElevenLabs REST API.
type ElevenLabsClient struct {
	HTTPClient *http.Client
	APIKey     string
	VoiceID    string
}

// NewElevenLabsClient constructs a client with the fixed voice identity.
func NewElevenLabsClient(apiKey, voiceID string) *ElevenLabsClient {
	if voiceID == "" {
		voiceID = DefaultVoiceID
	}
	return &ElevenLabsClient{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		APIKey:     apiKey,
		VoiceID:    voiceID,
	}
}

// Available reports whether a credential is configured.
func (e *ElevenLabsClient) Available() bool { return e.APIKey != "" }

// Synthesize converts text to speech with fixed voice-style parameters.
// No caching; every call re-synthesizes.
func (e *ElevenLabsClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if e.APIKey == "" {
		return nil, ErrUnavailable
	}

	body := map[string]any{
		"text":     text,
		"model_id": "eleven_monolingual_v1",
		"voice_settings": map[string]any{
			"stability":         0,
			"similarity_boost":  0,
			"style":             0.5,
			"use_speaker_boost": true,
		},
	}
	buf, _ := json.Marshal(body)

	endpoint := "https://api.elevenlabs.io/v1/text-to-speech/" + e.VoiceID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", e.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("elevenlabs: status=%d body=%s", resp.StatusCode, string(b))
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: read audio: %w", err)
	}
	return audio, nil
}
