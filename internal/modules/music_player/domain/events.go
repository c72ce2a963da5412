package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// Event is a named lifecycle notification emitted by the player.
type Event interface {
	EventName() string
}

// TrackEndReason represents why a track ended.
type TrackEndReason string

const (
	// TrackEndFinished means the track finished normally.
	TrackEndFinished TrackEndReason = "finished"
	// TrackEndLoadFailed means the track failed to load.
	TrackEndLoadFailed TrackEndReason = "load_failed"
	// TrackEndStopped means the track was stopped, e.g. by a skip.
	TrackEndStopped TrackEndReason = "stopped"
	// TrackEndReplaced means the track was replaced by another.
	TrackEndReplaced TrackEndReason = "replaced"
	// TrackEndCleanup means the backend player was cleaned up.
	TrackEndCleanup TrackEndReason = "cleanup"
)

// ShouldAdvanceQueue returns true if this end reason should start the next track.
func (r TrackEndReason) ShouldAdvanceQueue() bool {
	return r == TrackEndFinished || r == TrackEndLoadFailed || r == TrackEndStopped
}

// IsNatural returns true if the track played through to its end.
func (r TrackEndReason) IsNatural() bool {
	return r == TrackEndFinished
}

// StopReason represents why a player was torn down.
type StopReason string

const (
	// StopReasonUser means a user asked the player to stop.
	StopReasonUser StopReason = "user"
	// StopReasonIdle means the queue stayed empty past the idle timeout.
	StopReasonIdle StopReason = "idle_timeout"
	// StopReasonDisconnected means the bot was removed from the voice channel.
	StopReasonDisconnected StopReason = "disconnected"
	// StopReasonShutdown means the bot itself is shutting down.
	StopReasonShutdown StopReason = "shutdown"
)

// PlayerConnectedEvent is published when a player joins a voice channel.
type PlayerConnectedEvent struct {
	GuildID        snowflake.ID
	VoiceChannelID snowflake.ID
}

// TrackEnqueuedEvent is published when tracks are added to the queue.
type TrackEnqueuedEvent struct {
	GuildID snowflake.ID
	Count   int
	WasIdle bool // true if no track was playing when the tracks were enqueued
}

// TrackStartedEvent is published when a track starts playing.
type TrackStartedEvent struct {
	GuildID               snowflake.ID
	Track                 *Track
	NotificationChannelID snowflake.ID
}

// TrackEndedEvent is published when the backend reports the end of a track.
type TrackEndedEvent struct {
	GuildID snowflake.ID
	Reason  TrackEndReason
}

// TrackSkippedEvent is published when a user skips the current track.
type TrackSkippedEvent struct {
	GuildID snowflake.ID
	Track   *Track
}

// PlayerPausedEvent is published when playback is paused.
type PlayerPausedEvent struct {
	GuildID snowflake.ID
}

// PlayerResumedEvent is published when playback is resumed.
type PlayerResumedEvent struct {
	GuildID snowflake.ID
}

// PlayerStoppedEvent is published when a player is destroyed.
type PlayerStoppedEvent struct {
	GuildID               snowflake.ID
	Reason                StopReason
	NotificationChannelID snowflake.ID
	NowPlayingMessage     *NowPlayingMessage // "Now Playing" message to delete
}

// NodeFailedEvent is published when a node timed out and was evicted from the pool.
type NodeFailedEvent struct {
	GuildID snowflake.ID
	NodeID  string
}

func (PlayerConnectedEvent) EventName() string { return "player_connected" }
func (TrackEnqueuedEvent) EventName() string   { return "track_enqueued" }
func (TrackStartedEvent) EventName() string    { return "track_started" }
func (TrackEndedEvent) EventName() string      { return "track_ended" }
func (TrackSkippedEvent) EventName() string    { return "track_skipped" }
func (PlayerPausedEvent) EventName() string    { return "player_paused" }
func (PlayerResumedEvent) EventName() string   { return "player_resumed" }
func (PlayerStoppedEvent) EventName() string   { return "player_stopped" }
func (NodeFailedEvent) EventName() string      { return "node_failed" }
