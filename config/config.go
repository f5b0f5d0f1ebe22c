// Package config gathers every environment-provided knob of the pipeline in
// one typed struct. Call Load once in main after the dotenv cascade ran.
package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// OpenRouter
	OpenRouterAPIKey string
	TextModel        string
	SonarModel       string

	// OpenAI image generation
	OpenAIAPIKey string
	ImageModel   string
	ImageSize    string

	// Google (Sheets + Gmail, service account)
	GoogleCredentialsPath string
	SpreadsheetID         string
	ReportEmailTo         string
	ReportEmailFrom       string

	// Telegram
	TelegramBotToken string
	TelegramChannel  string

	// Collection
	RSSFeedURLs []string
	Keywords    []string
	SonarBrands []string

	// Trend selection and drafting
	TopTrendsCount int
	PostsCount     int
	MinPostLength  int
	MaxPostLength  int
	PromptPath     string

	// Scheduler
	SchedulerTimezone string
	SchedulerHour     int
	SchedulerMinute   int

	// Local storage for covers and trend artifacts
	DataDir string
}

// Load reads the whole configuration surface from environment variables,
// applying the defaults of the original deployment.
func Load() *Config {
	return &Config{
		OpenRouterAPIKey: GetEnv("OPENROUTER_API_KEY", ""),
		TextModel:        GetEnv("TEXT_MODEL_NAME", "openai/gpt-4o-mini"),
		SonarModel:       GetEnv("SONAR_MODEL_NAME", "perplexity/sonar"),

		OpenAIAPIKey: GetEnv("OPENAI_API_KEY", ""),
		ImageModel:   GetEnv("IMAGE_MODEL_NAME", "dall-e-3"),
		ImageSize:    GetEnv("IMAGE_SIZE", "1024x1024"),

		GoogleCredentialsPath: GetEnv("GOOGLE_CREDENTIALS_PATH", "credentials.json"),
		SpreadsheetID:         GetEnv("SPREADSHEET_ID", ""),
		ReportEmailTo:         GetEnv("REPORT_EMAIL_TO", ""),
		ReportEmailFrom:       GetEnv("REPORT_EMAIL_FROM", ""),

		TelegramBotToken: GetEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChannel:  GetEnv("TELEGRAM_CHANNEL_ID", ""),

		RSSFeedURLs: GetEnvList("RSS_URLS"),
		Keywords:    GetEnvList("KEYWORDS"),
		SonarBrands: GetEnvList("SONAR_BRANDS"),

		TopTrendsCount: GetEnvInt("TOP_TRENDS_COUNT", 5),
		PostsCount:     GetEnvInt("POSTS_COUNT", 4),
		MinPostLength:  GetEnvInt("MIN_POST_LENGTH", 600),
		MaxPostLength:  GetEnvInt("MAX_POST_LENGTH", 800),
		PromptPath:     GetEnv("PROMPT_PATH", "prompts/bob_2_0.md"),

		SchedulerTimezone: GetEnv("SCHEDULER_TIMEZONE", "Europe/Samara"),
		SchedulerHour:     GetEnvInt("SCHEDULER_HOUR", 9),
		SchedulerMinute:   GetEnvInt("SCHEDULER_MINUTE", 30),

		DataDir: GetEnv("DATA_DIR", "data"),
	}
}

func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetEnvList parses a comma separated env var into a slice, trimming
// whitespace and skipping empty entries.
func GetEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func GetEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}
