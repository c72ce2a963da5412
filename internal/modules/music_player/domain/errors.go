package domain

import "errors"

// Validation errors raised by player state transitions.
// Each one is a user-facing condition; none of them mutates state.
var (
	// ErrNothingPlaying is returned when an action requires a current track.
	ErrNothingPlaying = errors.New("nothing is currently playing")

	// ErrAlreadyPaused is returned when pausing a paused player.
	ErrAlreadyPaused = errors.New("playback is already paused")

	// ErrAlreadyPlaying is returned when resuming a player that is not paused.
	ErrAlreadyPlaying = errors.New("playback is already playing")

	// ErrNotEnoughSongs is returned when the playlist loop is requested without queued tracks.
	ErrNotEnoughSongs = errors.New("there must be at least one more song in the queue to loop the playlist")

	// ErrInvalidLoopMode is returned when a loop mode name is not recognized.
	ErrInvalidLoopMode = errors.New("loop mode must be NONE, CURRENT or PLAYLIST")

	// ErrInvalidVolume is returned when a volume is outside 0-100.
	ErrInvalidVolume = errors.New("volume must be between 0 and 100")

	// ErrUnknownProvider is returned when a provider key is not one of the supported providers.
	ErrUnknownProvider = errors.New("unknown track provider")

	// ErrPlayerDestroyed is returned when acting on a player that has been torn down.
	ErrPlayerDestroyed = errors.New("player has been destroyed")
)
