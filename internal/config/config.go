package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Logger  LoggerConfig
	Audio   AudioConfig
	Quiz    QuizConfig
	Redis   RedisConfig
	Cache   CacheConfig
	Speech  SpeechConfig
	Session SessionConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LoggerConfig struct {
	Level string
	Env   string
}

// AudioConfig locates the static sound assets.
type AudioConfig struct {
	Root      string
	VowelDir  string
	Extension string
}

type QuizConfig struct {
	AdvanceDelay time.Duration
	InitialKey   string
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CacheConfig struct {
	SpeechTTL time.Duration
}

// SpeechConfig holds the text-to-speech resources and voice defaults.
type SpeechConfig struct {
	Binary     string
	ConfigPath string
	VoicePath  string
	Amplitude  int
	Speed      int
	Pitch      int
	Variant    string
	Timeout    time.Duration
}

type SessionConfig struct {
	IdleTTL time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 20)
	v.SetDefault("server.write_timeout", 20)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")

	v.SetDefault("audio.root", "./public/audio")
	v.SetDefault("audio.vowel_dir", "vowels")
	v.SetDefault("audio.extension", ".mp3")

	v.SetDefault("quiz.advance_delay", "800ms")
	v.SetDefault("quiz.initial_key", "long-oo")

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.speech_ttl", "24h")

	v.SetDefault("speech.binary", "espeak-ng")
	v.SetDefault("speech.config_path", "./public/vendor/mespeak/mespeak_config.json")
	v.SetDefault("speech.voice_path", "./public/vendor/mespeak/voices/en/en-us.json")
	v.SetDefault("speech.amplitude", 100)
	v.SetDefault("speech.speed", 170)
	v.SetDefault("speech.pitch", 60)
	v.SetDefault("speech.variant", "f1")
	v.SetDefault("speech.timeout", "30s")

	v.SetDefault("session.idle_ttl", "30m")
}

// LoadConfig reads config.yaml (optional), a .env file (optional) and the
// environment, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromViper maps an already populated viper instance onto Config.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  time.Duration(v.GetInt("server.read_timeout")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("server.write_timeout")) * time.Second,
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
		Audio: AudioConfig{
			Root:      v.GetString("audio.root"),
			VowelDir:  v.GetString("audio.vowel_dir"),
			Extension: v.GetString("audio.extension"),
		},
		Quiz: QuizConfig{
			AdvanceDelay: v.GetDuration("quiz.advance_delay"),
			InitialKey:   v.GetString("quiz.initial_key"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Cache: CacheConfig{
			SpeechTTL: v.GetDuration("cache.speech_ttl"),
		},
		Speech: SpeechConfig{
			Binary:     v.GetString("speech.binary"),
			ConfigPath: v.GetString("speech.config_path"),
			VoicePath:  v.GetString("speech.voice_path"),
			Amplitude:  v.GetInt("speech.amplitude"),
			Speed:      v.GetInt("speech.speed"),
			Pitch:      v.GetInt("speech.pitch"),
			Variant:    v.GetString("speech.variant"),
			Timeout:    v.GetDuration("speech.timeout"),
		},
		Session: SessionConfig{
			IdleTTL: v.GetDuration("session.idle_ttl"),
		},
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	if c.Quiz.AdvanceDelay < 0 {
		return fmt.Errorf("invalid quiz.advance_delay: %s", c.Quiz.AdvanceDelay)
	}
	if strings.TrimSpace(c.Audio.Root) == "" {
		return errors.New("audio.root is required")
	}
	return nil
}

// CachingEnabled reports whether a redis address was configured.
func (c *Config) CachingEnabled() bool {
	return c.Redis.Address != ""
}
