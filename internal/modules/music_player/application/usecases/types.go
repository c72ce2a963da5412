package usecases

import (
	"github.com/sglre6355/dismusic/internal/modules/music_player/domain"
)

// Re-export domain types for presentation layer use.
// This allows presentation to depend only on usecases without importing domain directly.

// Track is an alias for domain.Track.
type Track = domain.Track

// LoopMode is an alias for domain.LoopMode.
type LoopMode = domain.LoopMode

// Provider is an alias for domain.Provider.
type Provider = domain.Provider

// PlayerStateRepository is an alias for domain.PlayerStateRepository.
type PlayerStateRepository = domain.PlayerStateRepository

// Providers returns every supported provider key.
func Providers() []Provider {
	return domain.Providers()
}
