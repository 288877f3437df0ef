package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvLookup resolves an environment variable. Tests inject their own
// lookup instead of mutating the process environment.
type EnvLookup func(key string) (string, bool)

// DefaultEnvLookup reads from the process environment.
var DefaultEnvLookup EnvLookup = os.LookupEnv

// FoundryConfig holds connection parameters for the managed agent
// service (agent-a). Conversation state lives entirely on that platform.
type FoundryConfig struct {
	Endpoint   string
	APIKey     string
	AgentID    string
	APIVersion string
}

// Configured reports whether the adapter has enough to reach the platform.
func (c FoundryConfig) Configured() bool {
	return c.Endpoint != "" && c.AgentID != ""
}

// GraphConfig holds connection parameters for the graph-orchestration
// server (agent-b).
type GraphConfig struct {
	BaseURL     string
	APIKey      string
	AssistantID string
}

func (c GraphConfig) Configured() bool {
	return c.BaseURL != ""
}

// Config is the full runtime configuration, loaded once at process start
// and passed into the components that need it.
type Config struct {
	Host         string
	Port         int
	DBPath       string
	LogLevel     string
	AgentTimeout time.Duration

	Foundry FoundryConfig
	Graph   GraphConfig
}

const (
	defaultPort         = 3000
	defaultDBPath       = "tasks.db"
	defaultAgentTimeout = 60 * time.Second
	defaultAPIVersion   = "2025-05-01"
	defaultAssistantID  = "agent"
)

// Load builds a Config from the given environment lookup, applying
// defaults for anything unset. Missing agent credentials are not an
// error: the affected adapter degrades and CRUD keeps working.
func Load(lookup EnvLookup) *Config {
	if lookup == nil {
		lookup = DefaultEnvLookup
	}

	cfg := &Config{
		Host:         envString(lookup, "TASKMAN_HOST", ""),
		Port:         envInt(lookup, "PORT", defaultPort),
		DBPath:       envString(lookup, "TASKMAN_DB_PATH", defaultDBPath),
		LogLevel:     envString(lookup, "TASKMAN_LOG_LEVEL", "info"),
		AgentTimeout: envDuration(lookup, "TASKMAN_AGENT_TIMEOUT_SECONDS", defaultAgentTimeout),
		Foundry: FoundryConfig{
			Endpoint:   envString(lookup, "AZURE_AI_FOUNDRY_PROJECT_ENDPOINT", ""),
			APIKey:     envString(lookup, "AZURE_AI_FOUNDRY_API_KEY", ""),
			AgentID:    envString(lookup, "AZURE_AI_FOUNDRY_AGENT_ID", ""),
			APIVersion: envString(lookup, "AZURE_AI_FOUNDRY_API_VERSION", defaultAPIVersion),
		},
		Graph: GraphConfig{
			BaseURL:     envString(lookup, "LANGGRAPH_SERVER_URL", ""),
			APIKey:      envString(lookup, "LANGGRAPH_API_KEY", ""),
			AssistantID: envString(lookup, "LANGGRAPH_ASSISTANT_ID", defaultAssistantID),
		},
	}

	return cfg
}

func envString(lookup EnvLookup, key, fallback string) string {
	raw, ok := lookup(key)
	if !ok {
		return fallback
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return fallback
	}
	return value
}

func envInt(lookup EnvLookup, key string, fallback int) int {
	raw, ok := lookup(key)
	if !ok {
		return fallback
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envDuration(lookup EnvLookup, key string, fallback time.Duration) time.Duration {
	raw, ok := lookup(key)
	if !ok {
		return fallback
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
