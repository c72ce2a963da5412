package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/dismusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/dismusic/internal/modules/music_player/domain"
)

// JoinInput contains the input for the Join use case.
type JoinInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID
	VoiceChannelID        snowflake.ID // Optional: specific channel to join (0 means use user's channel)
}

// JoinOutput contains the result of the Join use case.
type JoinOutput struct {
	VoiceChannelID   snowflake.ID
	AlreadyConnected bool
}

// ChannelCheckInput contains the input for the RequireSameChannel use case.
type ChannelCheckInput struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
}

// BotVoiceStateChangeInput contains the input for handling bot voice state changes.
type BotVoiceStateChangeInput struct {
	GuildID      snowflake.ID
	NewChannelID *snowflake.ID // nil means disconnected
}

// VoiceChannelService handles voice channel operations.
type VoiceChannelService struct {
	repo            domain.PlayerStateRepository
	voiceConnection ports.VoiceConnection
	voiceState      ports.VoiceStateProvider
	publisher       ports.EventPublisher
	playback        *PlaybackService
	defaultProvider domain.Provider
}

// NewVoiceChannelService creates a new VoiceChannelService.
func NewVoiceChannelService(
	repo domain.PlayerStateRepository,
	voiceConnection ports.VoiceConnection,
	voiceState ports.VoiceStateProvider,
	publisher ports.EventPublisher,
	playback *PlaybackService,
	defaultProvider domain.Provider,
) *VoiceChannelService {
	if defaultProvider == "" {
		defaultProvider = domain.DefaultProvider
	}

	return &VoiceChannelService{
		repo:            repo,
		voiceConnection: voiceConnection,
		voiceState:      voiceState,
		publisher:       publisher,
		playback:        playback,
		defaultProvider: defaultProvider,
	}
}

// Join joins the bot to the user's voice channel and creates the player.
// If the bot is already in that channel only the notification channel is updated.
func (v *VoiceChannelService) Join(ctx context.Context, input JoinInput) (*JoinOutput, error) {
	voiceChannelID := input.VoiceChannelID
	if voiceChannelID == 0 {
		userChannel, err := v.voiceState.GetUserVoiceChannel(input.GuildID, input.UserID)
		if err != nil {
			return nil, fmt.Errorf("lookup voice state: %w", err)
		}
		if userChannel == 0 {
			return nil, ErrUserNotInVoice
		}
		voiceChannelID = userChannel
	}

	existing := v.repo.Get(input.GuildID)
	if existing != nil && existing.IsDestroyed() {
		existing = nil
	}

	if existing != nil && existing.GetVoiceChannelID() == voiceChannelID {
		if input.NotificationChannelID != 0 {
			existing.SetNotificationChannelID(input.NotificationChannelID)
		}
		return &JoinOutput{VoiceChannelID: voiceChannelID, AlreadyConnected: true}, nil
	}

	if err := v.voiceConnection.JoinChannel(ctx, input.GuildID, voiceChannelID); err != nil {
		return nil, err
	}

	if existing != nil {
		// Moving channels keeps the queue.
		existing.SetVoiceChannelID(voiceChannelID)
		if input.NotificationChannelID != 0 {
			existing.SetNotificationChannelID(input.NotificationChannelID)
		}
		return &JoinOutput{VoiceChannelID: voiceChannelID}, nil
	}

	state := domain.NewPlayerState(input.GuildID, voiceChannelID, input.NotificationChannelID)
	state.SetProvider(v.defaultProvider)
	v.repo.Save(state)

	slog.Info("player connected", "guild", input.GuildID, "channel", voiceChannelID)

	if v.publisher != nil {
		event := domain.PlayerConnectedEvent{
			GuildID:        input.GuildID,
			VoiceChannelID: voiceChannelID,
		}
		if err := v.publisher.Publish(event); err != nil {
			slog.Warn("failed to publish PlayerConnectedEvent", "event", event, "error", err)
		}
	}

	return &JoinOutput{VoiceChannelID: voiceChannelID}, nil
}

// RequireSameChannel checks that the bot is connected and the user is in its voice channel.
func (v *VoiceChannelService) RequireSameChannel(input ChannelCheckInput) error {
	state := v.repo.Get(input.GuildID)
	if state == nil || state.IsDestroyed() {
		return ErrNotConnected
	}

	userChannel, err := v.voiceState.GetUserVoiceChannel(input.GuildID, input.UserID)
	if err != nil {
		return fmt.Errorf("lookup voice state: %w", err)
	}
	if userChannel == 0 {
		return ErrUserNotInVoice
	}
	if userChannel != state.GetVoiceChannelID() {
		return ErrMustBeSameChannel
	}
	return nil
}

// Provider returns the default search provider of the guild's player,
// or the configured default when no player exists.
func (v *VoiceChannelService) Provider(guildID snowflake.ID) domain.Provider {
	state := v.repo.Get(guildID)
	if state == nil || state.GetProvider() == "" {
		return v.defaultProvider
	}
	return state.GetProvider()
}

// HandleBotVoiceStateChange handles external voice state changes (bot moved or disconnected).
// A disconnect tears the player down; a move rebinds it to the new channel.
func (v *VoiceChannelService) HandleBotVoiceStateChange(
	ctx context.Context,
	input BotVoiceStateChangeInput,
) error {
	state := v.repo.Get(input.GuildID)
	if state == nil {
		return nil
	}

	if input.NewChannelID == nil {
		return v.playback.Stop(ctx, input.GuildID, domain.StopReasonDisconnected)
	}

	if *input.NewChannelID != state.GetVoiceChannelID() {
		slog.Info("bot moved to another voice channel",
			"guild", input.GuildID,
			"channel", *input.NewChannelID,
		)
		state.SetVoiceChannelID(*input.NewChannelID)
	}
	return nil
}
