package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/dismusic/internal/modules/music_player/domain"
)

// AudioPlayer defines the interface for audio playback operations.
type AudioPlayer interface {
	// Play starts playback of the given track at the given volume.
	// The track always starts unpaused, whatever the previous track did.
	Play(ctx context.Context, guildID snowflake.ID, track *domain.Track, volume int) error

	// Stop stops the current playback. The backend reports the end of the
	// track with the stopped reason.
	Stop(ctx context.Context, guildID snowflake.ID) error

	// Pause pauses the current playback.
	Pause(ctx context.Context, guildID snowflake.ID) error

	// Resume resumes the paused playback.
	Resume(ctx context.Context, guildID snowflake.ID) error

	// SetVolume changes the playback volume (0-100).
	SetVolume(ctx context.Context, guildID snowflake.ID, volume int) error

	// Destroy tears down the backend player for the guild.
	Destroy(ctx context.Context, guildID snowflake.ID) error
}
