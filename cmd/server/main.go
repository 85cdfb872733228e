package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riri324/ChatbotJob1/internal/agent"
	"github.com/riri324/ChatbotJob1/internal/config"
	"github.com/riri324/ChatbotJob1/internal/httpserver"
	"github.com/riri324/ChatbotJob1/internal/llm"
	"github.com/riri324/ChatbotJob1/internal/store"
	"github.com/riri324/ChatbotJob1/internal/transcript"
	"github.com/riri324/ChatbotJob1/internal/tts"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()
	if cfg.OpenAIKey == "" {
		log.Fatal("OPEN_AI_KEY is required")
	}

	generator := llm.NewClient(cfg.OpenAIKey, cfg.OpenAIModelID,
		llm.WithOrganization(cfg.OpenAIOrg),
		llm.WithTimeout(30*time.Second),
	)
	session := agent.NewSession(store.New(cfg.DatabaseFile), generator)
	whisper := transcript.NewWhisper(cfg.OpenAIKey,
		transcript.WithOrganization(cfg.OpenAIOrg),
		transcript.WithTimeout(60*time.Second),
	)

	var synth httpserver.Synthesizer
	if cfg.DeepgramKey != "" {
		synth = tts.NewDeepgramClient(cfg.DeepgramKey, cfg.DeepgramModelID)
	} else {
		synth = tts.NewElevenLabsClient(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID)
	}

	e := httpserver.New(cfg, httpserver.Handlers{
		Conversation:        session,
		Synthesizer:         synth,
		Transcriber:         whisper,
		GenerationAvailable: true,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", cfg.HTTPAddress)
		serverErrors <- server.ListenAndServe()
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigChan:
		log.Printf("shutdown signal received: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = server.Close()
	}
}
