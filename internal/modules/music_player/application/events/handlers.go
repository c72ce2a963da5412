package events

import (
	"context"
	"errors"
	"log/slog"
	"reflect"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sourcegraph/conc"

	"github.com/sglre6355/dismusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/dismusic/internal/modules/music_player/domain"
)

// PlaybackController drives the playback state machine of a guild.
type PlaybackController interface {
	Advance(ctx context.Context, guildID snowflake.ID) error
	HandleTrackEnd(ctx context.Context, guildID snowflake.ID, reason domain.TrackEndReason) error
}

// PlaybackEventHandler handles events related to playback control.
// Advance may wait for the idle timeout, so every call runs in its own worker
// to keep the bus dispatcher free.
type PlaybackEventHandler struct {
	playback   PlaybackController
	subscriber ports.EventSubscriber

	ctx     context.Context
	cancel  context.CancelFunc
	workers conc.WaitGroup
}

// NewPlaybackEventHandler creates a new PlaybackEventHandler.
func NewPlaybackEventHandler(
	playback PlaybackController,
	subscriber ports.EventSubscriber,
) *PlaybackEventHandler {
	return &PlaybackEventHandler{
		playback:   playback,
		subscriber: subscriber,
	}
}

// Start registers event handlers with the subscriber.
// Workers started by the handler live until ctx is cancelled or Stop is called.
func (h *PlaybackEventHandler) Start(ctx context.Context) error {
	h.ctx, h.cancel = context.WithCancel(ctx)

	err := h.subscriber.Subscribe(
		reflect.TypeFor[domain.PlayerConnectedEvent](),
		func(_ context.Context, e domain.Event) {
			h.handlePlayerConnected(e.(domain.PlayerConnectedEvent))
		},
	)
	if err != nil {
		return err
	}

	err = h.subscriber.Subscribe(
		reflect.TypeFor[domain.TrackEnqueuedEvent](),
		func(_ context.Context, e domain.Event) {
			h.handleTrackEnqueued(e.(domain.TrackEnqueuedEvent))
		},
	)
	if err != nil {
		return err
	}

	err = h.subscriber.Subscribe(
		reflect.TypeFor[domain.TrackEndedEvent](),
		func(_ context.Context, e domain.Event) {
			h.handleTrackEnded(e.(domain.TrackEndedEvent))
		},
	)
	if err != nil {
		return err
	}

	slog.Debug("playback event handlers properly registered")

	return nil
}

// Stop cancels running workers and waits for them to return.
func (h *PlaybackEventHandler) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	h.workers.Wait()
	slog.Debug("playback event handler stopped")
}

func (h *PlaybackEventHandler) handlePlayerConnected(event domain.PlayerConnectedEvent) {
	// Starts the idle countdown on a fresh player.
	h.workers.Go(func() {
		h.advance(event.GuildID)
	})
}

func (h *PlaybackEventHandler) handleTrackEnqueued(event domain.TrackEnqueuedEvent) {
	if !event.WasIdle {
		slog.Debug("track enqueued but player not idle, skipping auto-play",
			"guild", event.GuildID,
			"count", event.Count,
		)
		return
	}

	h.workers.Go(func() {
		h.advance(event.GuildID)
	})
}

func (h *PlaybackEventHandler) handleTrackEnded(event domain.TrackEndedEvent) {
	h.workers.Go(func() {
		err := h.playback.HandleTrackEnd(h.ctx, event.GuildID, event.Reason)
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("failed to handle track end",
				"guild", event.GuildID,
				"reason", event.Reason,
				"error", err,
			)
		}
	})
}

func (h *PlaybackEventHandler) advance(guildID snowflake.ID) {
	err := h.playback.Advance(h.ctx, guildID)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("failed to advance queue",
			"guild", guildID,
			"error", err,
		)
	}
}

// NotificationEventHandler handles events related to Discord notifications.
type NotificationEventHandler struct {
	repo             domain.PlayerStateRepository
	subscriber       ports.EventSubscriber
	notifier         ports.NotificationSender
	userInfoProvider ports.UserInfoProvider
}

// NewNotificationEventHandler creates a new NotificationEventHandler.
func NewNotificationEventHandler(
	repo domain.PlayerStateRepository,
	subscriber ports.EventSubscriber,
	notifier ports.NotificationSender,
	userInfoProvider ports.UserInfoProvider,
) *NotificationEventHandler {
	return &NotificationEventHandler{
		repo:             repo,
		subscriber:       subscriber,
		notifier:         notifier,
		userInfoProvider: userInfoProvider,
	}
}

// Start registers event handlers with the subscriber.
func (h *NotificationEventHandler) Start() error {
	err := h.subscriber.Subscribe(
		reflect.TypeFor[domain.TrackStartedEvent](),
		func(_ context.Context, e domain.Event) {
			h.handleTrackStarted(e.(domain.TrackStartedEvent))
		},
	)
	if err != nil {
		return err
	}

	err = h.subscriber.Subscribe(
		reflect.TypeFor[domain.PlayerStoppedEvent](),
		func(_ context.Context, e domain.Event) {
			h.handlePlayerStopped(e.(domain.PlayerStoppedEvent))
		},
	)
	if err != nil {
		return err
	}

	err = h.subscriber.Subscribe(
		reflect.TypeFor[domain.NodeFailedEvent](),
		func(_ context.Context, e domain.Event) {
			h.handleNodeFailed(e.(domain.NodeFailedEvent))
		},
	)
	if err != nil {
		return err
	}

	slog.Debug("notification event handlers properly registered")

	return nil
}

func (h *NotificationEventHandler) handleTrackStarted(event domain.TrackStartedEvent) {
	state := h.repo.Get(event.GuildID)
	if state == nil {
		slog.Debug("skipping now playing notification, state not found",
			"guild", event.GuildID,
		)
		return
	}

	// The previous message goes whether or not the new track is still current.
	if old := state.GetNowPlayingMessage(); old != nil {
		if err := h.notifier.DeleteMessage(old.ChannelID, old.MessageID); err != nil {
			slog.Warn("failed to delete previous now playing message",
				"guild", event.GuildID,
				"message_id", old.MessageID,
				"error", err,
			)
		}
		state.ClearNowPlayingMessage()
	}

	current := state.CurrentTrack()
	if current == nil || current.ID != event.Track.ID {
		slog.Debug("skipping now playing notification, track no longer current",
			"guild", event.GuildID,
			"track", event.Track.Title,
		)
		return
	}

	info := h.nowPlayingInfo(event.GuildID, state, current)

	slog.Debug("sending now playing notification",
		"guild", event.GuildID,
		"track", current.Title,
	)

	messageID, err := h.notifier.SendNowPlaying(event.NotificationChannelID, info)
	if err != nil {
		slog.Error("failed to send now playing notification",
			"guild", event.GuildID,
			"error", err,
		)
		return
	}

	state.SetNowPlayingMessage(event.NotificationChannelID, messageID)
}

func (h *NotificationEventHandler) nowPlayingInfo(
	guildID snowflake.ID,
	state *domain.PlayerState,
	track *domain.Track,
) *ports.NowPlayingInfo {
	info := &ports.NowPlayingInfo{
		Identifier:  track.Identifier,
		Title:       track.Title,
		Artist:      track.Author,
		Duration:    track.FormattedDuration(),
		URI:         track.URI,
		ArtworkURL:  track.ArtworkURL,
		Source:      track.Source,
		IsStream:    track.IsStream,
		RequesterID: track.RequesterID,
		EnqueuedAt:  track.EnqueuedAt,
		Volume:      state.GetVolume(),
		LoopMode:    state.GetLoopMode().String(),
		QueueLength: state.Queue.Len(),
	}

	if next := state.NextTrack(); next != nil {
		info.NextTitle = next.Title
	}

	if h.userInfoProvider != nil && track.RequesterID != 0 {
		user, err := h.userInfoProvider.GetUserInfo(guildID, track.RequesterID)
		if err != nil {
			slog.Warn("failed to fetch requester info",
				"guild", guildID,
				"user", track.RequesterID,
				"error", err,
			)
		} else {
			info.RequesterName = user.DisplayName
			info.RequesterAvatarURL = user.AvatarURL
		}
	}

	return info
}

func (h *NotificationEventHandler) handlePlayerStopped(event domain.PlayerStoppedEvent) {
	if msg := event.NowPlayingMessage; msg != nil {
		slog.Debug("deleting now playing message",
			"guild", event.GuildID,
			"message_id", msg.MessageID,
		)
		if err := h.notifier.DeleteMessage(msg.ChannelID, msg.MessageID); err != nil {
			slog.Warn("failed to delete now playing message",
				"guild", event.GuildID,
				"error", err,
			)
		}
	}

	if event.Reason != domain.StopReasonIdle || event.NotificationChannelID == 0 {
		return
	}

	err := h.notifier.SendInfo(
		event.NotificationChannelID,
		"Left the voice channel because nothing was queued.",
	)
	if err != nil {
		slog.Warn("failed to send idle disconnect notice",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleNodeFailed(event domain.NodeFailedEvent) {
	slog.Warn("audio node failed",
		"guild", event.GuildID,
		"node", event.NodeID,
	)
}
