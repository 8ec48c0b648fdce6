package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"townofshadows/internal/domain"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Game    GameConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
	Host string
	Env  string // "development" or "production"
}

// GameConfig holds game-related configuration
type GameConfig struct {
	MinPlayers             int
	MaxPlayers             int
	MaxRooms               int
	NightSeconds           int
	DiscussionSeconds      int
	VoteSeconds            int
	ResolutionPauseSeconds int
	ReconnectGracePeriod   time.Duration
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load loads configuration from the environment with defaults. A local .env
// file is applied first if present.
func Load() *Config {
	godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Game: GameConfig{
			MinPlayers:             getEnvInt("MIN_PLAYERS", 4),
			MaxPlayers:             getEnvInt("MAX_PLAYERS", 12),
			MaxRooms:               getEnvInt("MAX_ROOMS", 200),
			NightSeconds:           getEnvInt("NIGHT_SECONDS", 40),
			DiscussionSeconds:      getEnvInt("DAY_DISCUSS_SECONDS", 60),
			VoteSeconds:            getEnvInt("DAY_VOTE_SECONDS", 20),
			ResolutionPauseSeconds: getEnvInt("RESOLUTION_PAUSE_SECONDS", 5),
			ReconnectGracePeriod:   time.Duration(getEnvInt("RECONNECT_GRACE_PERIOD_SECONDS", 120)) * time.Second,
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// RoomSettings converts the game config into per-room settings
func (c *Config) RoomSettings() domain.RoomSettings {
	return domain.RoomSettings{
		MinPlayers:         c.Game.MinPlayers,
		MaxPlayers:         c.Game.MaxPlayers,
		NightDuration:      time.Duration(c.Game.NightSeconds) * time.Second,
		DiscussionDuration: time.Duration(c.Game.DiscussionSeconds) * time.Second,
		VoteDuration:       time.Duration(c.Game.VoteSeconds) * time.Second,
		ResolutionPause:    time.Duration(c.Game.ResolutionPauseSeconds) * time.Second,
		ReconnectGrace:     c.Game.ReconnectGracePeriod,
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// getEnv returns an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as an integer or a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
