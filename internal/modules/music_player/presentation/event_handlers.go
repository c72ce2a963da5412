package presentation

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/dismusic/internal/modules/music_player/application/usecases"
)

// VoiceEventForwarder receives raw voice events for the audio backend.
type VoiceEventForwarder interface {
	OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate)
	OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate)
}

// EventHandlers handles Discord gateway events for the music player.
type EventHandlers struct {
	botID        snowflake.ID
	voiceChannel *usecases.VoiceChannelService
	forwarder    VoiceEventForwarder
}

// NewEventHandlers creates a new EventHandlers.
func NewEventHandlers(
	botID snowflake.ID,
	voiceChannel *usecases.VoiceChannelService,
	forwarder VoiceEventForwarder,
) *EventHandlers {
	return &EventHandlers{
		botID:        botID,
		voiceChannel: voiceChannel,
		forwarder:    forwarder,
	}
}

// HandleVoiceServerUpdate forwards voice server updates to the audio backend.
func (h *EventHandlers) HandleVoiceServerUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceServerUpdate,
) {
	if h.forwarder != nil {
		h.forwarder.OnVoiceServerUpdate(event)
	}
}

// HandleVoiceStateUpdate handles VoiceStateUpdate events for the bot.
func (h *EventHandlers) HandleVoiceStateUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	// Only handle updates for the bot itself
	if event.UserID != h.botID.String() {
		return
	}

	if h.forwarder != nil {
		h.forwarder.OnVoiceStateUpdate(event)
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	// Parse the channel ID - nil means disconnected
	var newChannelID *snowflake.ID
	if event.ChannelID != "" {
		id, err := snowflake.Parse(event.ChannelID)
		if err != nil {
			slog.Error("failed to parse channel ID in voice state update", "error", err)
			return
		}
		newChannelID = &id
	}

	if err := h.voiceChannel.HandleBotVoiceStateChange(
		context.Background(),
		usecases.BotVoiceStateChangeInput{
			GuildID:      guildID,
			NewChannelID: newChannelID,
		},
	); err != nil {
		slog.Error("failed to handle bot voice state change", "guild", guildID, "error", err)
	}
}
