package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress       string
	OpenAIKey         string
	OpenAIOrg         string
	OpenAIModelID     string
	ElevenLabsKey     string
	ElevenLabsVoiceID string
	DeepgramKey       string
	DeepgramModelID   string
	DatabaseFile      string
	AllowedOrigins    []string
}

// Load reads environment variables and returns Config with sane defaults.
// OPEN_AI_KEY is required; main fails fast when it is empty. The synthesis
// keys are optional: without one the system degrades to text-only.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8000"
	}

	openAIKey := os.Getenv("OPEN_AI_KEY")
	if openAIKey == "" {
		log.Println("Warning: OPEN_AI_KEY not set - generation will not work")
	}

	model := os.Getenv("OPENAI_MODEL_ID")
	if model == "" {
		model = "gpt-3.5-turbo"
	}

	elevenKey := os.Getenv("ELEVENLABS_KEY")
	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	if elevenKey == "" && deepgramKey == "" {
		log.Println("Warning: no TTS key set (ELEVENLABS_KEY or DEEPGRAM_API_KEY) - responses will be text-only")
	}

	dbFile := os.Getenv("DATABASE_FILE")
	if dbFile == "" {
		dbFile = "database.json"
	}

	origins := splitOrigins(os.Getenv("CORS_ORIGINS"))
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:8000"}
	}

	log.Printf("config: HTTP_ADDRESS=%s model=%s db=%s", addr, model, dbFile)
	return Config{
		HTTPAddress:       addr,
		OpenAIKey:         openAIKey,
		OpenAIOrg:         os.Getenv("OPEN_AI_ORG"),
		OpenAIModelID:     model,
		ElevenLabsKey:     elevenKey,
		ElevenLabsVoiceID: os.Getenv("ELEVENLABS_VOICE_ID"),
		DeepgramKey:       deepgramKey,
		DeepgramModelID:   os.Getenv("DEEPGRAM_MODEL_ID"),
		DatabaseFile:      dbFile,
		AllowedOrigins:    origins,
	}
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
