package domain

import (
	"strings"
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// DefaultVolume is the volume a new player starts with.
const DefaultVolume = 100

// PlaybackStatus represents the lifecycle state of a player.
type PlaybackStatus int

const (
	StatusIdle PlaybackStatus = iota
	StatusPlaying
	StatusPaused
	StatusDestroyed
)

// String returns a human-readable representation of the status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusDestroyed:
		return "destroyed"
	default:
		return "idle"
	}
}

// NowPlayingMessage stores the channel and message ID for a "Now Playing" message.
// Both values are needed for deletion since the message may be in a different channel
// than the current notification channel if the user switched channels while playing.
type NowPlayingMessage struct {
	ChannelID snowflake.ID
	MessageID snowflake.ID
}

// PlayerState represents the state of a music player for a guild.
// It is safe for concurrent use.
type PlayerState struct {
	mu sync.RWMutex

	guildID               snowflake.ID
	voiceChannelID        snowflake.ID // Voice channel the bot is connected to
	notificationChannelID snowflake.ID // Text channel for notifications
	nowPlayingMessage     *NowPlayingMessage

	// Queue holds the tracks waiting to be played. Owned by this player only.
	Queue *Queue

	current   *Track
	status    PlaybackStatus
	loopMode  LoopMode
	volume    int
	provider  Provider
	history   []*Track // tracks played while the playlist loop is on
	advancing bool     // true while an advance is waiting on the queue
}

// NewPlayerState creates a new idle PlayerState for the given guild and channels.
func NewPlayerState(guildID, voiceChannelID, notificationChannelID snowflake.ID) *PlayerState {
	return &PlayerState{
		guildID:               guildID,
		voiceChannelID:        voiceChannelID,
		notificationChannelID: notificationChannelID,
		Queue:                 NewQueue(),
		status:                StatusIdle,
		loopMode:              LoopModeNone,
		volume:                DefaultVolume,
		provider:              DefaultProvider,
	}
}

// GetGuildID returns the guild ID.
func (p *PlayerState) GetGuildID() snowflake.ID {
	// No lock: guildID must not be modified after initialization
	return p.guildID
}

// GetVoiceChannelID returns the voice channel the player is bound to.
func (p *PlayerState) GetVoiceChannelID() snowflake.ID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.voiceChannelID
}

// SetVoiceChannelID updates the voice channel ID.
func (p *PlayerState) SetVoiceChannelID(channelID snowflake.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voiceChannelID = channelID
}

// GetNotificationChannelID returns the text channel used for notifications.
func (p *PlayerState) GetNotificationChannelID() snowflake.ID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.notificationChannelID
}

// SetNotificationChannelID updates the notification channel ID.
func (p *PlayerState) SetNotificationChannelID(channelID snowflake.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notificationChannelID = channelID
}

// Status returns the current playback status.
func (p *PlayerState) Status() PlaybackStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// CurrentTrack returns the track being played, or nil when idle.
func (p *PlayerState) CurrentTrack() *Track {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// HasTrack returns true if a track is playing or paused.
func (p *PlayerState) HasTrack() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current != nil
}

// IsPaused returns true if playback is paused.
func (p *PlayerState) IsPaused() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status == StatusPaused
}

// IsDestroyed returns true once the player has been torn down.
func (p *PlayerState) IsDestroyed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status == StatusDestroyed
}

// GetLoopMode returns the current loop mode.
func (p *PlayerState) GetLoopMode() LoopMode {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loopMode
}

// GetVolume returns the current volume.
func (p *PlayerState) GetVolume() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.volume
}

// GetProvider returns the player's default track provider.
func (p *PlayerState) GetProvider() Provider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.provider
}

// SetProvider sets the player's default track provider.
func (p *PlayerState) SetProvider(provider Provider) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.provider = provider
}

// NextTrack returns the track that will play after the current one, if known.
func (p *PlayerState) NextTrack() *Track {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.loopMode == LoopModeCurrent && p.current != nil {
		return p.current
	}
	return p.Queue.Peek()
}

// BeginAdvance claims the right to pull the next track from the queue.
// It returns false when a track is already loaded, another advance is
// waiting, or the player has been destroyed.
func (p *PlayerState) BeginAdvance() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status == StatusDestroyed || p.current != nil || p.advancing {
		return false
	}
	p.advancing = true

	// Playlist loop: once the queue drains, the played tracks go back in front.
	if p.loopMode == LoopModePlaylist && len(p.history) > 0 && p.Queue.IsEmpty() {
		p.Queue.PushFront(p.history...)
		p.history = nil
	}
	return true
}

// EndAdvance releases the claim taken by BeginAdvance.
func (p *PlayerState) EndAdvance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advancing = false
}

// StartTrack marks the track as now playing and releases the advance claim.
func (p *PlayerState) StartTrack(track *Track) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status == StatusDestroyed {
		return ErrPlayerDestroyed
	}
	p.current = track
	p.status = StatusPlaying
	p.advancing = false
	return nil
}

// AbortTrack clears the current track without any loop bookkeeping.
// It is used when the backend refused to play the track. Returns false if
// track is no longer the current one.
func (p *PlayerState) AbortTrack(track *Track) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != track {
		return false
	}
	p.current = nil
	if p.status != StatusDestroyed {
		p.status = StatusIdle
	}
	return true
}

// FinishTrack clears the current track and returns it.
// When the track ended naturally and the current-track loop is on, the same
// track is put back at the front of the queue. With the playlist loop on,
// the track is remembered so it can be replayed once the queue drains.
func (p *PlayerState) FinishTrack(natural bool) *Track {
	p.mu.Lock()
	defer p.mu.Unlock()

	finished := p.current
	p.current = nil
	if p.status != StatusDestroyed {
		p.status = StatusIdle
	}
	if finished == nil || p.status == StatusDestroyed {
		return finished
	}

	switch p.loopMode {
	case LoopModeCurrent:
		if natural {
			p.Queue.PushFront(finished)
		}
	case LoopModePlaylist:
		p.history = append(p.history, finished)
	}

	return finished
}

// ValidatePause reports whether the player can be paused.
func (p *PlayerState) ValidatePause() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.current == nil {
		return ErrNothingPlaying
	}
	if p.status == StatusPaused {
		return ErrAlreadyPaused
	}
	return nil
}

// ValidateResume reports whether the player can be resumed.
func (p *PlayerState) ValidateResume() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.current == nil {
		return ErrNothingPlaying
	}
	if p.status != StatusPaused {
		return ErrAlreadyPlaying
	}
	return nil
}

// SetPaused records the paused state of a loaded track.
func (p *PlayerState) SetPaused(paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil || p.status == StatusDestroyed {
		return
	}
	if paused {
		p.status = StatusPaused
	} else {
		p.status = StatusPlaying
	}
}

// SetLoop changes the loop mode.
// An empty request cycles None -> Current -> Playlist -> None, skipping
// Playlist when nothing is queued behind the current track. A named request
// is matched case-insensitively. The player is left unchanged on error.
func (p *PlayerState) SetLoop(requested string) (LoopMode, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return p.loopMode, ErrNothingPlaying
	}

	queued := p.Queue.Len()

	var mode LoopMode
	if strings.TrimSpace(requested) == "" {
		mode = p.loopMode.Next()
		if mode == LoopModePlaylist && queued < 1 {
			mode = LoopModeNone
		}
	} else {
		parsed, err := ParseLoopMode(requested)
		if err != nil {
			return p.loopMode, err
		}
		if parsed == LoopModePlaylist && queued < 1 {
			return p.loopMode, ErrNotEnoughSongs
		}
		mode = parsed
	}

	if mode != LoopModePlaylist {
		p.history = nil
	}
	p.loopMode = mode
	return mode, nil
}

// DemoteCurrentLoop turns the current-track loop off.
// It returns true if the loop mode changed.
func (p *PlayerState) DemoteCurrentLoop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loopMode != LoopModeCurrent {
		return false
	}
	p.loopMode = LoopModeNone
	return true
}

// ValidateVolume reports whether v is an acceptable volume.
func ValidateVolume(v int) error {
	if v < 0 || v > 100 {
		return ErrInvalidVolume
	}
	return nil
}

// SetVolume sets the volume. Out-of-range values are rejected, not clamped.
func (p *PlayerState) SetVolume(v int) error {
	if err := ValidateVolume(v); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = v
	return nil
}

// MarkDestroyed tears the player down and releases its queue.
// It returns true only for the call that performed the teardown.
func (p *PlayerState) MarkDestroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status == StatusDestroyed {
		return false
	}
	p.status = StatusDestroyed
	p.current = nil
	p.history = nil
	p.Queue.Close()
	return true
}

// GetNowPlayingMessage returns a copy of the "Now Playing" message info.
func (p *PlayerState) GetNowPlayingMessage() *NowPlayingMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.nowPlayingMessage == nil {
		return nil
	}
	msg := *p.nowPlayingMessage
	return &msg
}

// SetNowPlayingMessage stores the "Now Playing" message info for later deletion.
func (p *PlayerState) SetNowPlayingMessage(channelID, messageID snowflake.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nowPlayingMessage = &NowPlayingMessage{
		ChannelID: channelID,
		MessageID: messageID,
	}
}

// ClearNowPlayingMessage clears the stored "Now Playing" message info.
func (p *PlayerState) ClearNowPlayingMessage() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nowPlayingMessage = nil
}
