package config

import (
	"github.com/spf13/viper"

	"github.com/Kurdishgpt/Slaw/pkg/apperrors"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	MongoDB MongoDBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Admin   AdminConfig
	Discord DiscordConfig
	Log     LogConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// StorageConfig selects the ledger/log backend at startup
type StorageConfig struct {
	// Backend is "memory" or "mongodb"
	Backend string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig holds the optional leaderboard cache configuration.
// An empty Addr disables caching entirely.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int
}

// AdminConfig holds the dashboard admin credentials.
// PasswordHash is a bcrypt hash, never the plain password.
type AdminConfig struct {
	Email        string
	PasswordHash string
}

// DiscordConfig holds the gateway connection configuration
type DiscordConfig struct {
	Token           string
	TargetChannelID string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, apperrors.New(apperrors.ErrConfigLoad, "failed to read config file", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, apperrors.New(apperrors.ErrConfigLoad, "failed to parse configuration", err)
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"http://localhost:3000"})
	viper.SetDefault("Storage.Backend", "memory")
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "slaw")
	viper.SetDefault("Redis.Addr", "")
	viper.SetDefault("Redis.DB", 0)
	viper.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	viper.SetDefault("Log.Level", "info")
	viper.SetDefault("Log.Format", "text")

	viper.BindEnv("Discord.Token", "DISCORD_BOT_TOKEN")
	viper.BindEnv("Discord.TargetChannelID", "DISCORD_TARGET_CHANNEL_ID")
	viper.BindEnv("MongoDB.URI", "MONGODB_URI")
	viper.BindEnv("JWT.Secret", "JWT_SECRET")
	viper.BindEnv("Admin.Email", "ADMIN_EMAIL")
	viper.BindEnv("Admin.PasswordHash", "ADMIN_PASSWORD_HASH")
}
