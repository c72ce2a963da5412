package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// VoiceConnection joins and leaves guild voice channels.
type VoiceConnection interface {
	// JoinChannel connects the bot to the channel and returns once the
	// audio backend has the voice session.
	JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error

	// LeaveChannel disconnects the bot from the guild's voice channel.
	LeaveChannel(ctx context.Context, guildID snowflake.ID) error
}

// VoiceStateProvider reports where users currently are.
type VoiceStateProvider interface {
	// GetUserVoiceChannel returns the voice channel the user is in, or 0.
	GetUserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error)
}
