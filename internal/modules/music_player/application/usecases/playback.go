package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/dismusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/dismusic/internal/modules/music_player/domain"
)

// DefaultIdleTimeout is how long a player waits on an empty queue before it is torn down.
const DefaultIdleTimeout = 300 * time.Second

// PauseInput contains the input for the Pause use case.
type PauseInput struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// ResumeInput contains the input for the Resume use case.
type ResumeInput struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// SkipInput contains the input for the Skip use case.
type SkipInput struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// SkipOutput contains the result of the Skip use case.
type SkipOutput struct {
	SkippedTrack *domain.Track
	NextTrack    *domain.Track // nil if queue is empty
}

// SetLoopInput contains the input for the SetLoop use case.
type SetLoopInput struct {
	GuildID               snowflake.ID
	Mode                  string       // "none", "current", "playlist"; empty cycles
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// SetLoopOutput contains the result of the SetLoop use case.
type SetLoopOutput struct {
	Mode domain.LoopMode
}

// SetVolumeInput contains the input for the SetVolume use case.
type SetVolumeInput struct {
	GuildID snowflake.ID
	Volume  int
}

// NowPlayingOutput contains the result of the NowPlaying use case.
type NowPlayingOutput struct {
	Track       *domain.Track
	NextTrack   *domain.Track // nil if nothing follows
	Volume      int
	LoopMode    domain.LoopMode
	Paused      bool
	QueueLength int
}

// PlaybackService drives the per-guild playback state machine.
type PlaybackService struct {
	repo            domain.PlayerStateRepository
	audioPlayer     ports.AudioPlayer
	voiceConnection ports.VoiceConnection
	publisher       ports.EventPublisher
	idleTimeout     time.Duration
}

// NewPlaybackService creates a new PlaybackService.
func NewPlaybackService(
	repo domain.PlayerStateRepository,
	audioPlayer ports.AudioPlayer,
	voiceConnection ports.VoiceConnection,
	publisher ports.EventPublisher,
	idleTimeout time.Duration,
) *PlaybackService {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}

	return &PlaybackService{
		repo:            repo,
		audioPlayer:     audioPlayer,
		voiceConnection: voiceConnection,
		publisher:       publisher,
		idleTimeout:     idleTimeout,
	}
}

// Advance starts the next queued track if the player is idle.
// It blocks until a track is available, the idle timeout expires, the player
// is stopped or ctx is cancelled. On idle timeout the player is torn down.
// Calling Advance while a track is loaded or another Advance is waiting is a no-op.
func (p *PlaybackService) Advance(ctx context.Context, guildID snowflake.ID) error {
	state := p.repo.Get(guildID)
	if state == nil {
		return ErrNotConnected
	}

	for {
		if !state.BeginAdvance() {
			return nil
		}

		result := state.Queue.Dequeue(ctx, p.idleTimeout)
		switch result.Outcome {
		case domain.DequeueTimedOut:
			state.EndAdvance()
			if state.HasTrack() {
				return nil
			}
			slog.Info("queue idle for too long, stopping player",
				"guild", guildID,
				"timeout", p.idleTimeout,
			)
			return p.destroy(ctx, state, domain.StopReasonIdle)

		case domain.DequeueClosed:
			state.EndAdvance()
			return nil

		case domain.DequeueCancelled:
			state.EndAdvance()
			return ctx.Err()
		}

		track := result.Track
		if err := state.StartTrack(track); err != nil {
			state.EndAdvance()
			return nil
		}

		if err := p.audioPlayer.Play(ctx, guildID, track, state.GetVolume()); err != nil {
			slog.Error("failed to start track, skipping",
				"guild", guildID,
				"track", track.Title,
				"error", err,
			)
			if !state.AbortTrack(track) {
				return nil
			}
			continue
		}

		// Play re-creates the backend player, so a Stop that landed while it
		// was in flight leaves one behind.
		if state.IsDestroyed() {
			slog.Debug("player stopped while track was starting, releasing backend player",
				"guild", guildID,
			)
			if err := p.audioPlayer.Destroy(ctx, guildID); err != nil {
				return fmt.Errorf("release backend player: %w", err)
			}
			return nil
		}

		slog.Debug("track started", "guild", guildID, "track", track.Title)
		p.publish(domain.TrackStartedEvent{
			GuildID:               guildID,
			Track:                 track,
			NotificationChannelID: state.GetNotificationChannelID(),
		})
		return nil
	}
}

// HandleTrackEnd reacts to the backend reporting the end of the current track.
// Loop bookkeeping happens here; the next track is then started with Advance.
func (p *PlaybackService) HandleTrackEnd(
	ctx context.Context,
	guildID snowflake.ID,
	reason domain.TrackEndReason,
) error {
	state := p.repo.Get(guildID)
	if state == nil {
		return nil
	}

	if !reason.ShouldAdvanceQueue() {
		slog.Debug("track ended without advancing", "guild", guildID, "reason", reason)
		return nil
	}

	finished := state.FinishTrack(reason.IsNatural())
	if finished != nil {
		slog.Debug("track ended",
			"guild", guildID,
			"track", finished.Title,
			"reason", reason,
			"loop_mode", state.GetLoopMode().String(),
		)
	}

	if state.IsDestroyed() {
		return nil
	}
	return p.Advance(ctx, guildID)
}

// Pause pauses the current playback.
func (p *PlaybackService) Pause(ctx context.Context, input PauseInput) error {
	state, err := p.connectedState(input.GuildID, input.NotificationChannelID)
	if err != nil {
		return err
	}

	if err := state.ValidatePause(); err != nil {
		return err
	}
	if err := p.audioPlayer.Pause(ctx, input.GuildID); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	state.SetPaused(true)

	p.publish(domain.PlayerPausedEvent{GuildID: input.GuildID})
	return nil
}

// Resume resumes the paused playback.
func (p *PlaybackService) Resume(ctx context.Context, input ResumeInput) error {
	state, err := p.connectedState(input.GuildID, input.NotificationChannelID)
	if err != nil {
		return err
	}

	if err := state.ValidateResume(); err != nil {
		return err
	}
	if err := p.audioPlayer.Resume(ctx, input.GuildID); err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	state.SetPaused(false)

	p.publish(domain.PlayerResumedEvent{GuildID: input.GuildID})
	return nil
}

// Skip stops the current track so the next one starts.
// The current-track loop is turned off once the backend has stopped the track,
// so the skipped track is not replayed.
func (p *PlaybackService) Skip(ctx context.Context, input SkipInput) (*SkipOutput, error) {
	state, err := p.connectedState(input.GuildID, input.NotificationChannelID)
	if err != nil {
		return nil, err
	}

	skipped := state.CurrentTrack()
	if skipped == nil {
		return nil, ErrNothingPlaying
	}

	if err := p.audioPlayer.Stop(ctx, input.GuildID); err != nil {
		return nil, fmt.Errorf("skip: %w", err)
	}

	// A stopped track is never re-queued, so racing HandleTrackEnd is harmless.
	if state.DemoteCurrentLoop() {
		slog.Debug("current loop turned off by skip", "guild", input.GuildID)
	}

	p.publish(domain.TrackSkippedEvent{GuildID: input.GuildID, Track: skipped})

	return &SkipOutput{
		SkippedTrack: skipped,
		NextTrack:    state.Queue.Peek(),
	}, nil
}

// Stop tears the player down. Stopping a player that is already gone is not an error.
func (p *PlaybackService) Stop(
	ctx context.Context,
	guildID snowflake.ID,
	reason domain.StopReason,
) error {
	state := p.repo.Get(guildID)
	if state == nil {
		return nil
	}
	return p.destroy(ctx, state, reason)
}

// StopAll tears down every live player with the given reason.
func (p *PlaybackService) StopAll(ctx context.Context, reason domain.StopReason) error {
	var errs []error
	for _, guildID := range p.repo.GuildIDs() {
		if err := p.Stop(ctx, guildID, reason); err != nil {
			errs = append(errs, fmt.Errorf("stop player %d: %w", guildID, err))
		}
	}
	return errors.Join(errs...)
}

// SetLoop sets or cycles the loop mode.
func (p *PlaybackService) SetLoop(_ context.Context, input SetLoopInput) (*SetLoopOutput, error) {
	state, err := p.connectedState(input.GuildID, input.NotificationChannelID)
	if err != nil {
		return nil, err
	}

	mode, err := state.SetLoop(input.Mode)
	if err != nil {
		return nil, err
	}

	return &SetLoopOutput{Mode: mode}, nil
}

// SetVolume sets the playback volume. Values outside 0-100 are rejected.
func (p *PlaybackService) SetVolume(ctx context.Context, input SetVolumeInput) error {
	state, err := p.connectedState(input.GuildID, 0)
	if err != nil {
		return err
	}

	if err := domain.ValidateVolume(input.Volume); err != nil {
		return err
	}

	// An idle player has no backend track; the volume is applied on the next Play.
	if state.HasTrack() {
		if err := p.audioPlayer.SetVolume(ctx, input.GuildID, input.Volume); err != nil {
			return fmt.Errorf("set volume: %w", err)
		}
	}

	return state.SetVolume(input.Volume)
}

// NowPlaying returns the current track and what follows it.
func (p *PlaybackService) NowPlaying(guildID snowflake.ID) (*NowPlayingOutput, error) {
	state, err := p.connectedState(guildID, 0)
	if err != nil {
		return nil, err
	}

	current := state.CurrentTrack()
	if current == nil {
		return nil, ErrNothingPlaying
	}

	return &NowPlayingOutput{
		Track:       current,
		NextTrack:   state.NextTrack(),
		Volume:      state.GetVolume(),
		LoopMode:    state.GetLoopMode(),
		Paused:      state.IsPaused(),
		QueueLength: state.Queue.Len(),
	}, nil
}

func (p *PlaybackService) connectedState(
	guildID, notificationChannelID snowflake.ID,
) (*domain.PlayerState, error) {
	state := p.repo.Get(guildID)
	if state == nil || state.IsDestroyed() {
		return nil, ErrNotConnected
	}

	if notificationChannelID != 0 {
		state.SetNotificationChannelID(notificationChannelID)
	}
	return state, nil
}

// destroy releases the queue, the backend player and the voice connection.
// Only the first call for a given state does any work.
func (p *PlaybackService) destroy(
	ctx context.Context,
	state *domain.PlayerState,
	reason domain.StopReason,
) error {
	guildID := state.GetGuildID()
	nowPlaying := state.GetNowPlayingMessage()

	if !state.MarkDestroyed() {
		return nil
	}
	if current := p.repo.Get(guildID); current == state {
		p.repo.Delete(guildID)
	}

	var errs []error
	if err := p.audioPlayer.Destroy(ctx, guildID); err != nil {
		errs = append(errs, fmt.Errorf("destroy player: %w", err))
	}
	if p.voiceConnection != nil {
		if err := p.voiceConnection.LeaveChannel(ctx, guildID); err != nil {
			errs = append(errs, fmt.Errorf("leave channel: %w", err))
		}
	}

	slog.Info("player stopped", "guild", guildID, "reason", reason)

	p.publish(domain.PlayerStoppedEvent{
		GuildID:               guildID,
		Reason:                reason,
		NotificationChannelID: state.GetNotificationChannelID(),
		NowPlayingMessage:     nowPlaying,
	})

	return errors.Join(errs...)
}

func (p *PlaybackService) publish(event domain.Event) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(event); err != nil {
		slog.Warn("failed to publish event",
			"event", event.EventName(),
			"error", err,
		)
	}
}
