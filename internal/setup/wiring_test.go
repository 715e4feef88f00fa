package setup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/povarna/generative-ai-agents/kindfilter/internal/credentials"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/llm/gpt"
	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// writeGateConfig points GATE_CONFIG_PATH at a minimal config file.
func writeGateConfig(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gate.yaml")
	if err := os.WriteFile(path, []byte("gate:\n  timeout: 1s\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GATE_CONFIG_PATH", path)
}

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"OPENAI_MODEL_ID", "DEFAULT_LLM_PROVIDER", "HTTP_PORT", "ECHO_REJECTED_MESSAGE", "REDIS_ADDR", "REDIS_MAX_RETRIES", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	if cfg.OpenAIModelID != gpt.DefaultModelID {
		t.Errorf("Expected default model %s, got %s", gpt.DefaultModelID, cfg.OpenAIModelID)
	}
	if cfg.DefaultProvider != ProviderOpenAI {
		t.Errorf("Expected openai provider, got %s", cfg.DefaultProvider)
	}
	if cfg.HTTPPort != "3000" {
		t.Errorf("Expected port 3000, got %s", cfg.HTTPPort)
	}
	if !cfg.EchoRejectedMessage {
		t.Error("Expected rejected messages to be echoed by default")
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.RedisRetries != 5 {
		t.Errorf("Unexpected redis defaults %s/%d", cfg.RedisAddr, cfg.RedisRetries)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Unexpected shutdown timeout %s", cfg.ShutdownTimeout)
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("DEFAULT_LLM_PROVIDER", "Bedrock")
	t.Setenv("ECHO_REJECTED_MESSAGE", "false")
	t.Setenv("SLACK_DEBUG", "true")
	t.Setenv("REDIS_MAX_RETRIES", "2")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("SLACK_CLIENT_ID", "id")
	t.Setenv("SLACK_CLIENT_SECRET", "secret")

	cfg := LoadConfig()

	if cfg.DefaultProvider != ProviderBedrock {
		t.Errorf("Expected bedrock, got %s", cfg.DefaultProvider)
	}
	if cfg.EchoRejectedMessage || !cfg.SlackDebug {
		t.Error("Expected boolean flags from environment")
	}
	if cfg.RedisRetries != 2 || cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Unexpected parsed values %d/%s", cfg.RedisRetries, cfg.ShutdownTimeout)
	}
	if !cfg.OAuthEnabled() {
		t.Error("Expected OAuth enabled with client id and secret")
	}
}

func TestGetEnvHelpers_InvalidFallsBack(t *testing.T) {
	t.Setenv("KF_TEST_VALUE", "not-a-value")

	if getEnvBool("KF_TEST_VALUE", true) != true {
		t.Error("Expected bool default")
	}
	if getEnvInt("KF_TEST_VALUE", 7) != 7 {
		t.Error("Expected int default")
	}
	if getEnvDuration("KF_TEST_VALUE", time.Second) != time.Second {
		t.Error("Expected duration default")
	}
}

func TestWire_WithoutKeyFailsClosed(t *testing.T) {
	writeGateConfig(t)
	cfg := &Config{DefaultProvider: ProviderOpenAI, OpenAIModelID: gpt.DefaultModelID}

	deps, err := Wire(context.Background(), cfg, newTestLogger())
	if err != nil {
		t.Fatalf("Wire failed: %v", err)
	}
	defer deps.Close()

	if deps.Gate.HasClient() {
		t.Error("Expected gate without a default client")
	}
	if _, ok := deps.Store.(*credentials.StaticStore); !ok {
		t.Errorf("Expected static store without DATABASE_URL, got %T", deps.Store)
	}

	client, err := deps.ClientFactory("sk-user")
	if err != nil || client == nil {
		t.Errorf("Expected per-user client, got %v (%v)", client, err)
	}
}

func TestWire_WithKey(t *testing.T) {
	writeGateConfig(t)
	cfg := &Config{DefaultProvider: ProviderOpenAI, OpenAIKey: "sk-test", OpenAIModelID: gpt.DefaultModelID}

	deps, err := Wire(context.Background(), cfg, newTestLogger())
	if err != nil {
		t.Fatalf("Wire failed: %v", err)
	}

	if !deps.Gate.HasClient() {
		t.Error("Expected gate with a default client")
	}
	creds, err := deps.Store.Get(context.Background(), "U1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if creds.OpenAIAPIKey != "" {
		t.Errorf("Expected no per-user key in static credentials, got %q", creds.OpenAIAPIKey)
	}
}

func TestWire_UnknownProvider(t *testing.T) {
	writeGateConfig(t)

	if _, err := Wire(context.Background(), &Config{DefaultProvider: "cohere"}, newTestLogger()); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestWire_BedrockRequiresModel(t *testing.T) {
	writeGateConfig(t)

	if _, err := Wire(context.Background(), &Config{DefaultProvider: ProviderBedrock, AWSRegion: "us-east-1"}, newTestLogger()); err == nil {
		t.Error("Expected error for bedrock without model id")
	}
}

func TestOAuthHandler(t *testing.T) {
	deps := &Dependencies{Store: credentials.NewStaticStore(credentials.Credentials{}), Logger: newTestLogger()}

	if deps.OAuthHandler(&Config{}) != nil {
		t.Error("Expected no handler without client credentials")
	}
	if deps.OAuthHandler(&Config{SlackClientID: "id", SlackClientSecret: "secret"}) == nil {
		t.Error("Expected handler with client credentials")
	}
}
