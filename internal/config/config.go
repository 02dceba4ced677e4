package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Projects    []string
	JiraBaseURL string
	DataDir     string
	PageSize    int
	Port        int
	LogLevel    string
	LogFormat   string

	// Optional collaborators; empty means disabled.
	NatsURL       string
	NatsToken     string
	DatabaseURL   string
	SlackBotToken string
	SlackChannel  string
}

func Load() Config {
	// A local .env is a convenience for dev runs; absence is not an error.
	_ = godotenv.Load()

	return Config{
		Projects:    envList("QUARRY_PROJECTS"),
		JiraBaseURL: envStr("JIRA_BASE_URL", "https://issues.apache.org/jira/rest/api/2"),
		DataDir:     envStr("QUARRY_DATA_DIR", "data"),
		PageSize:    envInt("QUARRY_PAGE_SIZE", 50),
		Port:        envInt("QUARRY_PORT", 8760),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		LogFormat:   envStr("LOG_FORMAT", "json"),

		NatsURL:       envStr("NATS_URL", ""),
		NatsToken:     envStr("NATS_TOKEN", ""),
		DatabaseURL:   envStr("DATABASE_URL", ""),
		SlackBotToken: envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:  envStr("SLACK_SUMMARY_CHANNEL", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// envList parses a comma-separated list, trimming whitespace and dropping
// empty entries.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
