package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config captures the runtime configuration for the gateway service. It is
// read once at startup and treated as read-only afterwards.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Generation    GenerationConfig    `mapstructure:"generation"`
	TTS           TTSConfig           `mapstructure:"tts"`
	STT           STTConfig           `mapstructure:"stt"`
	Translation   TranslationConfig   `mapstructure:"translation"`
	IAM           IAMConfig           `mapstructure:"iam"`
	Uploads       UploadsConfig       `mapstructure:"uploads"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	ListenAddr            string        `mapstructure:"listen_addr"`
	BodyLimitMB           int           `mapstructure:"body_limit_mb"`
	StaticDir             string        `mapstructure:"static_dir"`
	GracefulShutdownDelay time.Duration `mapstructure:"graceful_shutdown_delay"`
}

// GenerationConfig points at the text-generation provider.
type GenerationConfig struct {
	URL       string `mapstructure:"url"`
	APIKey    string `mapstructure:"api_key"`
	ProjectID string `mapstructure:"project_id"`
	ModelID   string `mapstructure:"model_id"`
}

// TTSConfig points at the speech-synthesis provider.
type TTSConfig struct {
	URL           string `mapstructure:"url"`
	APIKey        string `mapstructure:"api_key"`
	DefaultVoice  string `mapstructure:"default_voice"`
	DefaultFormat string `mapstructure:"default_format"`
}

// STTConfig points at the speech-recognition provider.
type STTConfig struct {
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"api_key"`
	ModelID string `mapstructure:"model_id"`
}

// TranslationConfig points at the translation provider.
type TranslationConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

// IAMConfig controls how provider api keys are exchanged for bearer tokens.
type IAMConfig struct {
	TokenURL string `mapstructure:"token_url"`
}

type UploadsConfig struct {
	Dir         string `mapstructure:"dir"`
	MaxUploadMB int    `mapstructure:"max_upload_mb"`
}

type ObservabilityConfig struct {
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"`
	EnableOTLP    bool   `mapstructure:"enable_otlp"`
	EnableMetrics bool   `mapstructure:"enable_metrics"`
}

// Options controls the config loader behavior.
type Options struct {
	ConfigFile string
	EnvFile    string
}

// Load returns the merged configuration sourced from YAML and environment variables.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	explicitFile := false
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		explicitFile = true
	} else {
		if cfg := os.Getenv("ECHOVERSE_CONFIG_FILE"); cfg != "" {
			v.SetConfigFile(cfg)
			explicitFile = true
		}
	}

	if !explicitFile {
		// Allow standard lookup locations when no explicit file is provided.
		v.SetConfigName("gateway")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("ECHOVERSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults must be bound for env-only deployments.
	for _, key := range []string{
		"generation.url", "generation.api_key", "generation.project_id",
		"tts.url", "tts.api_key",
		"stt.url", "stt.api_key",
		"translation.url", "translation.api_key",
		"uploads.dir",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(timeStringToDurationHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures required values are set.
func (c *Config) Validate() error {
	var missing []string

	if strings.TrimSpace(c.Generation.URL) == "" {
		missing = append(missing, "ECHOVERSE_GENERATION_URL")
	}
	if strings.TrimSpace(c.Generation.APIKey) == "" {
		missing = append(missing, "ECHOVERSE_GENERATION_API_KEY")
	}
	if strings.TrimSpace(c.Generation.ProjectID) == "" {
		missing = append(missing, "ECHOVERSE_GENERATION_PROJECT_ID")
	}
	if strings.TrimSpace(c.TTS.URL) == "" {
		missing = append(missing, "ECHOVERSE_TTS_URL")
	}
	if strings.TrimSpace(c.TTS.APIKey) == "" {
		missing = append(missing, "ECHOVERSE_TTS_API_KEY")
	}
	if strings.TrimSpace(c.STT.URL) == "" {
		missing = append(missing, "ECHOVERSE_STT_URL")
	}
	if strings.TrimSpace(c.STT.APIKey) == "" {
		missing = append(missing, "ECHOVERSE_STT_API_KEY")
	}
	if strings.TrimSpace(c.Translation.URL) == "" {
		missing = append(missing, "ECHOVERSE_TRANSLATION_URL")
	}
	if strings.TrimSpace(c.Translation.APIKey) == "" {
		missing = append(missing, "ECHOVERSE_TRANSLATION_API_KEY")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.Server.BodyLimitMB <= 0 {
		return fmt.Errorf("server.body_limit_mb must be > 0")
	}
	if c.Uploads.MaxUploadMB <= 0 {
		return fmt.Errorf("uploads.max_upload_mb must be > 0")
	}
	if strings.TrimSpace(c.Uploads.Dir) == "" {
		c.Uploads.Dir = os.TempDir()
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":3001")
	v.SetDefault("server.body_limit_mb", 2)
	v.SetDefault("server.static_dir", "./public")
	v.SetDefault("server.graceful_shutdown_delay", "5s")

	v.SetDefault("generation.model_id", "ibm/granite-3-8b-instruct")

	v.SetDefault("tts.default_voice", "en-US_AllisonV3Voice")
	v.SetDefault("tts.default_format", "audio/mp3")

	v.SetDefault("stt.model_id", "en-US_Multimedia")

	v.SetDefault("iam.token_url", "https://iam.cloud.ibm.com/identity/token")

	v.SetDefault("uploads.max_upload_mb", 25)

	v.SetDefault("observability.enable_otlp", false)
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.otlp_endpoint", "http://localhost:4317")
}

func timeStringToDurationHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case time.Duration:
			return v, nil
		case string:
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, err
			}
			return d, nil
		default:
			return nil, fmt.Errorf("cannot decode %T into time.Duration", data)
		}
	}
}
