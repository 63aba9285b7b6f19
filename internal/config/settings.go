package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Settings is the runtime configuration. Defaults come from the constants in
// this package, then an optional TOML file, then SECOURSTECH_ env vars where a
// double underscore separates sections (SECOURSTECH_LLM__API_KEY).
type Settings struct {
	Server struct {
		Addr string `koanf:"addr"`
	} `koanf:"server"`

	Auth struct {
		Token  string `koanf:"token"`
		Bypass bool   `koanf:"bypass"`
	} `koanf:"auth"`

	LLM struct {
		Provider string        `koanf:"provider"`
		APIKey   string        `koanf:"api_key"`
		Model    string        `koanf:"model"`
		Timeout  time.Duration `koanf:"timeout"`
	} `koanf:"llm"`

	Documents struct {
		Root     string        `koanf:"root"`
		BaseURL  string        `koanf:"base_url"`
		CacheTTL time.Duration `koanf:"cache_ttl"`
	} `koanf:"documents"`

	Catalogue struct {
		File string `koanf:"file"`
	} `koanf:"catalogue"`

	Redis struct {
		Enabled  bool   `koanf:"enabled"`
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	Router struct {
		DegradedThreshold int `koanf:"degraded_threshold"`
	} `koanf:"router"`

	Worker struct {
		Buffer int   `koanf:"buffer"`
		Max    int64 `koanf:"max"`
	} `koanf:"worker"`

	Log struct {
		File string `koanf:"file"`
		Prod bool   `koanf:"prod"`
	} `koanf:"log"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.addr":               ServerListenAddr,
		"auth.bypass":               false,
		"llm.provider":              LLMProviderGemini,
		"llm.model":                 GeminiModelName,
		"llm.timeout":               LLMTimeout,
		"documents.root":            DocumentRoot,
		"documents.cache_ttl":       DocumentCacheTTL,
		"redis.enabled":             true,
		"redis.addr":                RedisAddr,
		"router.degraded_threshold": RouterDegradedThreshold,
		"worker.buffer":             BufferLimit,
		"worker.max":                MaxWorkerCount,
		"log.prod":                  IS_PROD,
	}
}

// Load builds Settings. configPath may be empty.
func Load(configPath string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else if _, err := os.Stat("./secourstech.toml"); err == nil {
		if err := k.Load(file.Provider("./secourstech.toml"), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// legacy deployments export the key as API_KEY
	if s.LLM.APIKey == "" {
		s.LLM.APIKey = os.Getenv("API_KEY")
	}
	return &s, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func (s *Settings) Validate() error {
	switch s.LLM.Provider {
	case LLMProviderGemini, LLMProviderOpenAI:
	default:
		return fmt.Errorf("unknown llm provider %q", s.LLM.Provider)
	}
	if s.LLM.APIKey == "" {
		return fmt.Errorf("llm api_key is required")
	}
	if s.LLM.Model == "" {
		return fmt.Errorf("llm model is required")
	}
	if s.Documents.Root == "" && s.Documents.BaseURL == "" {
		return fmt.Errorf("documents root or base_url is required")
	}
	if !s.Auth.Bypass && s.Auth.Token == "" {
		return fmt.Errorf("auth token is required unless auth.bypass is set")
	}
	return nil
}
