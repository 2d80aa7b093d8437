package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Engine      EngineConfig      `toml:"engine"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	AppleMusic AppleMusicConfig `toml:"apple_music"`
}

// AppleMusicConfig contains Apple Music developer credentials.
//
// The private key is the ES256 .p8 key downloaded from the developer portal.
// PrivateKeyPath may be left empty when the key is supplied via the
// APPLE_PRIVATE_KEY environment variable.
type AppleMusicConfig struct {
	TeamID         string `toml:"team_id"`
	KeyID          string `toml:"key_id"`
	PrivateKeyPath string `toml:"private_key_path"`
	Storefront     string `toml:"storefront"`
}

// EngineConfig contains taste engine tuning parameters.
//
// Category weights are tunable constants, not fixed law: genre overlap is the
// strongest taste signal, so its weight should stay above the others.
type EngineConfig struct {
	GenreWeight  float64 `toml:"genre_weight"`
	ArtistWeight float64 `toml:"artist_weight"`
	SongWeight   float64 `toml:"song_weight"`
	AlbumWeight  float64 `toml:"album_weight"`
	TopN         int     `toml:"top_n"`
	RankLimit    int     `toml:"rank_limit"`
	MinPercent   int     `toml:"min_percent"`
	RecentLimit  int     `toml:"recent_limit"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
