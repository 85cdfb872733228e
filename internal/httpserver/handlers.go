package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/riri324/ChatbotJob1/internal/transcript"
)

// Conversation is the dialogue engine behind the chat operations.
type Conversation interface {
	Respond(ctx context.Context, text string) (string, error)
	Reset() error
	Mode() string
	TurnCount() int
}

// Synthesizer renders a reply as audio. Available reports whether a
// credential is configured; callers must check it before depending on audio.
type Synthesizer interface {
	Available() bool
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Transcriber extracts text from an uploaded audio blob.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// Handlers is the request facade: every route validates input, delegates to
// the collaborators and maps failures to transport status codes. Nothing
// below this layer writes an HTTP response.
type Handlers struct {
	Conversation        Conversation
	Synthesizer         Synthesizer
	Transcriber         Transcriber
	GenerationAvailable bool
}

const transcribeTimeout = 60 * time.Second

// Register binds all routes on the server.
func (h Handlers) Register(e *echo.Echo) {
	e.GET("/", h.root)
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.POST("/chat", h.chat)
	e.POST("/talk", h.talk)
	e.GET("/clear", h.clear)
	e.GET("/audio/:text", h.audio)
	e.GET("/status", h.status)
}

func (h Handlers) root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Backend server is running",
		"status":  "ok",
	})
}

type chatRequest struct {
	Text string `json:"text"`
}

func (h Handlers) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No text provided")
	}
	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "No text provided")
	}

	reply, err := h.Conversation.Respond(c.Request().Context(), req.Text)
	if err != nil {
		c.Echo().Logger.Errorf("chat turn failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process message")
	}
	c.Echo().Logger.Infof("user: %s", req.Text)
	c.Echo().Logger.Infof("bot: %s", reply)
	return c.JSON(http.StatusOK, echo.Map{"bot_response": reply})
}

func (h Handlers) talk(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file provided")
	}
	src, err := fh.Open()
	if err != nil {
		c.Echo().Logger.Errorf("open upload: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read audio")
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), transcribeTimeout)
	defer cancel()
	userMessage, err := h.Transcriber.Transcribe(ctx, fh.Filename, src)
	if err != nil {
		if errors.Is(err, transcript.ErrEmptyInput) {
			return echo.NewHTTPError(http.StatusBadRequest, "Empty audio file")
		}
		c.Echo().Logger.Errorf("transcription failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to transcribe audio")
	}

	reply, err := h.Conversation.Respond(c.Request().Context(), userMessage)
	if err != nil {
		c.Echo().Logger.Errorf("voice turn failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process message")
	}
	c.Echo().Logger.Infof("user: %s", userMessage)
	c.Echo().Logger.Infof("bot: %s", reply)

	// Audio is fetched separately via /audio/:text; here we only report
	// whether synthesis would succeed for this reply.
	hasAudio := false
	if h.Synthesizer.Available() {
		if _, err := h.Synthesizer.Synthesize(c.Request().Context(), reply); err != nil {
			c.Echo().Logger.Errorf("synthesis failed: %v", err)
		} else {
			hasAudio = true
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"transcription": userMessage,
		"bot_response":  reply,
		"has_audio":     hasAudio,
	})
}

func (h Handlers) clear(c echo.Context) error {
	if err := h.Conversation.Reset(); err != nil {
		c.Echo().Logger.Errorf("reset failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to clear history")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Chat history has been cleared",
		"status":  "success",
	})
}

func (h Handlers) audio(c echo.Context) error {
	if !h.Synthesizer.Available() {
		return echo.NewHTTPError(http.StatusNotImplemented, "Text-to-speech functionality not available")
	}
	audio, err := h.Synthesizer.Synthesize(c.Request().Context(), c.Param("text"))
	if err != nil {
		c.Echo().Logger.Errorf("synthesis failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate audio")
	}
	return c.Blob(http.StatusOK, "audio/mpeg", audio)
}

func (h Handlers) status(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"generation_available": h.GenerationAvailable,
		"synthesis_available":  h.Synthesizer.Available(),
		"mode":                 h.Conversation.Mode(),
		"turn_count":           h.Conversation.TurnCount(),
	})
}
