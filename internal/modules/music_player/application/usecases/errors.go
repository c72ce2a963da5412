package usecases

import (
	"errors"
	"fmt"

	"github.com/sglre6355/dismusic/internal/modules/music_player/domain"
)

// Errors returned by the music player use cases.
var (
	// ErrNotConnected is returned when an operation requires the bot to be in a voice channel.
	ErrNotConnected = errors.New("not connected to a voice channel")

	// ErrUserNotInVoice is returned when the user is not in a voice channel.
	ErrUserNotInVoice = errors.New("you must be in a voice channel")

	// ErrMustBeSameChannel is returned when the user is in a different voice channel than the bot.
	ErrMustBeSameChannel = errors.New("you must be in the same voice channel as the bot")

	// ErrNoTrackFound is returned when no node could resolve the query.
	ErrNoTrackFound = errors.New("no song/track found with given query")

	// ErrNoNodes is returned when the node pool is empty.
	// It is a kind of ErrNoTrackFound.
	ErrNoNodes = fmt.Errorf("%w: no audio nodes available", ErrNoTrackFound)

	// ErrEmptyQuery is returned when the search query is blank.
	ErrEmptyQuery = errors.New("search query is empty")
)

// Player state errors, re-exported so presentation can match them without importing domain.
var (
	ErrNothingPlaying  = domain.ErrNothingPlaying
	ErrAlreadyPaused   = domain.ErrAlreadyPaused
	ErrAlreadyPlaying  = domain.ErrAlreadyPlaying
	ErrNotEnoughSongs  = domain.ErrNotEnoughSongs
	ErrInvalidLoopMode = domain.ErrInvalidLoopMode
	ErrInvalidVolume   = domain.ErrInvalidVolume
	ErrUnknownProvider = domain.ErrUnknownProvider
)
