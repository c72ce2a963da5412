package music_player

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sglre6355/dismusic/internal/modules/music_player/domain"
	"github.com/sglre6355/dismusic/internal/modules/music_player/infrastructure"
)

// Config holds the music player module configuration.
type Config struct {
	// LavalinkNodes lists the nodes as name=host:port pairs, e.g. "main=lavalink:2333".
	// An entry without a name is named after its position.
	LavalinkNodes    []string `env:"LAVALINK_NODES,notEmpty"    envSeparator:","`
	LavalinkPassword string   `env:"LAVALINK_PASSWORD,notEmpty"`
	LavalinkSecure   bool     `env:"LAVALINK_SECURE"            envDefault:"false"`

	IdleTimeout     time.Duration `env:"MUSIC_IDLE_TIMEOUT"     envDefault:"300s"`
	SearchTimeout   time.Duration `env:"MUSIC_SEARCH_TIMEOUT"   envDefault:"20s"`
	DefaultProvider string        `env:"MUSIC_DEFAULT_PROVIDER" envDefault:"yt"`
	SearchRate      float64       `env:"MUSIC_SEARCH_RATE"      envDefault:"5"`
	SearchBurst     int           `env:"MUSIC_SEARCH_BURST"     envDefault:"10"`
}

// Validate checks the values env parsing cannot.
func (c *Config) Validate() error {
	if _, err := domain.ParseProvider(c.DefaultProvider); err != nil {
		return fmt.Errorf("MUSIC_DEFAULT_PROVIDER %q: %w", c.DefaultProvider, err)
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("MUSIC_IDLE_TIMEOUT must be positive, got %s", c.IdleTimeout)
	}
	if c.SearchTimeout <= 0 {
		return fmt.Errorf("MUSIC_SEARCH_TIMEOUT must be positive, got %s", c.SearchTimeout)
	}
	if _, err := c.NodeConfigs(); err != nil {
		return err
	}
	return nil
}

// Provider returns the configured default search provider.
func (c *Config) Provider() domain.Provider {
	provider, err := domain.ParseProvider(c.DefaultProvider)
	if err != nil {
		return domain.DefaultProvider
	}
	return provider
}

// Limiter returns the rate limiter applied to search attempts.
// A non-positive rate disables throttling.
func (c *Config) Limiter() *rate.Limiter {
	if c.SearchRate <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := c.SearchBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(c.SearchRate), burst)
}

// NodeConfigs parses LavalinkNodes into node configurations.
func (c *Config) NodeConfigs() ([]infrastructure.LavalinkNodeConfig, error) {
	configs := make([]infrastructure.LavalinkNodeConfig, 0, len(c.LavalinkNodes))
	seen := make(map[string]bool, len(c.LavalinkNodes))

	for i, entry := range c.LavalinkNodes {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, address, found := strings.Cut(entry, "=")
		if !found {
			name, address = fmt.Sprintf("node-%d", i+1), entry
		}
		name, address = strings.TrimSpace(name), strings.TrimSpace(address)
		if name == "" || address == "" {
			return nil, fmt.Errorf("invalid LAVALINK_NODES entry %q", entry)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate Lavalink node name %q", name)
		}
		seen[name] = true

		configs = append(configs, infrastructure.LavalinkNodeConfig{
			Name:     name,
			Address:  address,
			Password: c.LavalinkPassword,
			Secure:   c.LavalinkSecure,
		})
	}

	if len(configs) == 0 {
		return nil, fmt.Errorf("LAVALINK_NODES contains no nodes")
	}
	return configs, nil
}
