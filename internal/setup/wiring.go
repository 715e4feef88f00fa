package setup

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/povarna/generative-ai-agents/kindfilter/internal/config"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/credentials"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/gate"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/llm"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/llm/bedrock"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/llm/gpt"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/oauth"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/slackbot"
	"github.com/rs/zerolog"
)

const (
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
)

type Config struct {
	SlackBotToken      string
	SlackAppLevelToken string
	SlackSigningSecret string
	SlackClientID      string
	SlackClientSecret  string
	SlackRedirectURI   string
	SlackDebug         bool

	OpenAIKey       string
	OpenAIModelID   string
	OpenAIBaseURL   string
	AWSRegion       string
	ClaudeModelID   string
	DefaultProvider string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisRetries  int

	HTTPPort            string
	LogLevel            string
	EchoRejectedMessage bool
	ShutdownTimeout     time.Duration
}

type Dependencies struct {
	Gate          *gate.Gate
	Store         credentials.Store
	ClientFactory slackbot.ClientFactory
	Logger        *zerolog.Logger

	closers []func()
}

// Close releases connections opened by Wire.
func (d *Dependencies) Close() {
	for _, c := range d.closers {
		c()
	}
}

func LoadConfig() *Config {
	return &Config{
		SlackBotToken:      getEnv("SLACK_BOT_TOKEN", ""),
		SlackAppLevelToken: getEnv("SLACK_APP_LEVEL_TOKEN", ""),
		SlackSigningSecret: getEnv("SLACK_SIGNING_SECRET", ""),
		SlackClientID:      getEnv("SLACK_CLIENT_ID", ""),
		SlackClientSecret:  getEnv("SLACK_CLIENT_SECRET", ""),
		SlackRedirectURI:   getEnv("SLACK_REDIRECT_URI", ""),
		SlackDebug:         getEnvBool("SLACK_DEBUG", false),

		OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIModelID:   getEnv("OPENAI_MODEL_ID", gpt.DefaultModelID),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		ClaudeModelID:   getEnv("CLAUDE_MODEL_ID", ""),
		DefaultProvider: strings.ToLower(getEnv("DEFAULT_LLM_PROVIDER", ProviderOpenAI)),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisRetries:  getEnvInt("REDIS_MAX_RETRIES", 5),

		HTTPPort:            getEnv("HTTP_PORT", "3000"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		EchoRejectedMessage: getEnvBool("ECHO_REJECTED_MESSAGE", true),
		ShutdownTimeout:     getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

// OAuthEnabled reports whether the installation callback can be served.
func (c *Config) OAuthEnabled() bool {
	return c.SlackClientID != "" && c.SlackClientSecret != ""
}

func Wire(ctx context.Context, cfg *Config, logger *zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: logger}

	llmClient, err := createLLMClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.DefaultProvider, err)
	}
	if llmClient == nil {
		logger.Warn().
			Str("provider", cfg.DefaultProvider).
			Msg("No default LLM client configured, every message will need a per-user key")
	}

	gateConfig, err := config.LoadGateConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load gate config: %w", err)
	}

	deps.Gate, err = gate.New(gateConfig.Gate, llmClient, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create gate: %w", err)
	}

	deps.ClientFactory = func(apiKey string) (llm.LLMClient, error) {
		return gpt.NewClient(apiKey, cfg.OpenAIModelID, cfg.OpenAIBaseURL)
	}

	if cfg.DatabaseURL != "" {
		pool, err := credentials.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, pool.Close)

		store := credentials.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			deps.Close()
			return nil, err
		}
		deps.Store = store
		logger.Info().Msg("Using Postgres credential store")
	} else {
		// no per-user OpenAI key: OPENAI_API_KEY backs the default client
		deps.Store = credentials.NewStaticStore(credentials.Credentials{
			SlackBotToken:      cfg.SlackBotToken,
			SlackAppLevelToken: cfg.SlackAppLevelToken,
			SlackSigningSecret: cfg.SlackSigningSecret,
		})
		logger.Info().Msg("Using environment credentials")
	}

	return deps, nil
}

// OAuthHandler returns the installation callback handler, or nil when the
// Slack client id and secret are not configured.
func (d *Dependencies) OAuthHandler(cfg *Config) *oauth.Handler {
	if !cfg.OAuthEnabled() {
		return nil
	}

	exchange := oauth.NewSlackExchanger(
		&http.Client{Timeout: 10 * time.Second},
		cfg.SlackClientID,
		cfg.SlackClientSecret,
		cfg.SlackRedirectURI,
	)
	return oauth.NewHandler(exchange, d.Store, cfg.SlackSigningSecret, d.Logger)
}

// createLLMClient returns a nil client, not an error, when the OpenAI key is
// missing; the gate then fails closed until a per-user key is supplied.
func createLLMClient(ctx context.Context, cfg *Config) (llm.LLMClient, error) {
	switch cfg.DefaultProvider {
	case ProviderBedrock:
		return bedrock.NewClient(ctx, cfg.AWSRegion, cfg.ClaudeModelID)
	case ProviderOpenAI, "":
		if cfg.OpenAIKey == "" {
			return nil, nil
		}
		return gpt.NewClient(cfg.OpenAIKey, cfg.OpenAIModelID, cfg.OpenAIBaseURL)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.DefaultProvider)
	}
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}

	return value
}
