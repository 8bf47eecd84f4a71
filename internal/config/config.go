package config

import (
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Relay  RelayConfig
	Client ClientConfig
	Redis  RedisConfig
	Log    LogConfig
}

var (
	configInstance *Config
	once           sync.Once
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RelayConfig struct {
	JoinTimeout     time.Duration
	TypingQuiet     time.Duration
	MaxMessageBytes int
}

type ClientConfig struct {
	SendBufferSize int
	RateLimit      float64
	RateBurst      int
}

type RedisConfig struct {
	// URL enables the presence mirror when non-empty.
	URL string
}

type LogConfig struct {
	Level string
}

func LoadConfig() (*Config, error) {
	// Viper setup
	once.Do(func() {
		viper.SetDefault("CHAT_PORT", "5000")
		viper.SetDefault("CHAT_READ_TIMEOUT", 30*time.Second)
		viper.SetDefault("CHAT_WRITE_TIMEOUT", 30*time.Second)
		viper.SetDefault("CHAT_IDLE_TIMEOUT", 60*time.Second)
		viper.SetDefault("CHAT_JOIN_TIMEOUT", 10*time.Second)
		viper.SetDefault("CHAT_TYPING_QUIET", 2*time.Second)
		viper.SetDefault("CHAT_MAX_MESSAGE_BYTES", 4096)
		viper.SetDefault("CHAT_SEND_BUFFER", 256)
		viper.SetDefault("CHAT_RATE_LIMIT", 20.0)
		viper.SetDefault("CHAT_RATE_BURST", 40)
		viper.SetDefault("CHAT_LOG_LEVEL", "info")
		viper.SetDefault("REDIS_URL", "")
		viper.AutomaticEnv()

		configInstance = &Config{
			Server: ServerConfig{
				Host:         viper.GetString("CHAT_HOST"),
				Port:         viper.GetString("CHAT_PORT"),
				ReadTimeout:  viper.GetDuration("CHAT_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("CHAT_WRITE_TIMEOUT"),
				IdleTimeout:  viper.GetDuration("CHAT_IDLE_TIMEOUT"),
			},
			Relay: RelayConfig{
				JoinTimeout:     viper.GetDuration("CHAT_JOIN_TIMEOUT"),
				TypingQuiet:     viper.GetDuration("CHAT_TYPING_QUIET"),
				MaxMessageBytes: viper.GetInt("CHAT_MAX_MESSAGE_BYTES"),
			},
			Client: ClientConfig{
				SendBufferSize: viper.GetInt("CHAT_SEND_BUFFER"),
				RateLimit:      viper.GetFloat64("CHAT_RATE_LIMIT"),
				RateBurst:      viper.GetInt("CHAT_RATE_BURST"),
			},
			Redis: RedisConfig{
				URL: viper.GetString("REDIS_URL"),
			},
			Log: LogConfig{
				Level: viper.GetString("CHAT_LOG_LEVEL"),
			},
		}
	})

	return configInstance, nil
}
