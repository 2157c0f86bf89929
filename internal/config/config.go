package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/dkeye/mentor-avatar/internal/domain"
)

type Config struct {
	Mode        string         `mapstructure:"mode"`
	Port        int            `mapstructure:"port"`
	StaticPath  string         `mapstructure:"static_path"`
	Secret      string         `mapstructure:"secret"`
	ServiceName string         `mapstructure:"service_name"`
	LogLevel    string         `mapstructure:"log_level"`
	HeyGen      ProviderConfig `mapstructure:"heygen"`
	Client      ClientConfig   `mapstructure:"client"`
}

// ProviderConfig holds the streaming provider credentials. It is built once at
// startup and handed to the gateway constructor.
type ProviderConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	AvatarID  string        `mapstructure:"avatar_id"`
	VoiceID   string        `mapstructure:"voice_id"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Quality   string        `mapstructure:"quality"`
	VoiceRate float64       `mapstructure:"voice_rate"`
}

// Validate reports every missing credential by its environment variable name.
func (p ProviderConfig) Validate() error {
	var missing []string
	if p.APIKey == "" {
		missing = append(missing, "HEYGEN_API_KEY")
	}
	if p.AvatarID == "" {
		missing = append(missing, "HEYGEN_AVATAR_ID")
	}
	if p.VoiceID == "" {
		missing = append(missing, "HEYGEN_VOICE_ID")
	}
	if len(missing) > 0 {
		return &domain.MissingConfigError{Vars: missing}
	}
	return nil
}

type ClientConfig struct {
	RelayURL        string        `mapstructure:"relay_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RecordPath      string        `mapstructure:"record_path"`
	UIPort          int           `mapstructure:"ui_port"`
	Console         bool          `mapstructure:"console"`
	WelcomeMessage  string        `mapstructure:"welcome_message"`
	ConnectLimit    int           `mapstructure:"connect_limit"`
	ConnectInterval time.Duration `mapstructure:"connect_interval"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

const DefaultWelcome = "G'day! I'm Dr Geoff Drewery from CSIRO. " +
	"Great to have you here for a mentoring session. " +
	"I specialise in concentrated solar thermal research and renewable energy. " +
	"What aspect of your research would you like to explore today?"

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("static", cfg.StaticPath).
		Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("secret", "mentor-avatar-dev-secret")
	v.SetDefault("service_name", "Dr Geoff Drewery Mentor Avatar")
	v.SetDefault("log_level", "info")

	v.SetDefault("heygen.base_url", "https://api.heygen.com")
	v.SetDefault("heygen.timeout", "30s")
	v.SetDefault("heygen.quality", "high")
	v.SetDefault("heygen.voice_rate", 1.0)

	v.SetDefault("client.relay_url", "http://localhost:8080/api/heygen")
	v.SetDefault("client.timeout", "30s")
	v.SetDefault("client.record_path", "")
	v.SetDefault("client.ui_port", 0)
	v.SetDefault("client.console", true)
	v.SetDefault("client.welcome_message", DefaultWelcome)
	v.SetDefault("client.connect_limit", 5)
	v.SetDefault("client.connect_interval", "1m")
	v.SetDefault("client.shutdown_timeout", "5s")
}

// bindEnv maps keys to the environment variable names operators already use.
func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"mode":               "MODE",
		"port":               "PORT",
		"log_level":          "LOG_LEVEL",
		"secret":             "SESSION_SECRET",
		"heygen.api_key":     "HEYGEN_API_KEY",
		"heygen.avatar_id":   "HEYGEN_AVATAR_ID",
		"heygen.voice_id":    "HEYGEN_VOICE_ID",
		"heygen.base_url":    "HEYGEN_BASE_URL",
		"client.relay_url":   "RELAY_URL",
		"client.record_path": "RECORD_PATH",
		"client.ui_port":     "UI_PORT",
	}
	for key, envName := range bindings {
		if err := v.BindEnv(key, envName); err != nil {
			return fmt.Errorf("bind env %s: %w", envName, err)
		}
	}
	return nil
}
