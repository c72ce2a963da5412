package ports

import (
	"github.com/disgoorg/snowflake/v2"
)

// NotificationSender defines the interface for sending notifications to Discord channels.
type NotificationSender interface {
	// SendNowPlaying sends a "Now Playing" embed to the channel and returns the message ID.
	SendNowPlaying(channelID snowflake.ID, info *NowPlayingInfo) (messageID snowflake.ID, err error)

	// DeleteMessage deletes a message from the channel.
	DeleteMessage(channelID snowflake.ID, messageID snowflake.ID) error

	// SendInfo sends a plain informational embed to the channel.
	SendInfo(channelID snowflake.ID, message string) error

	// SendError sends an error message embed to the channel.
	SendError(channelID snowflake.ID, message string) error
}

// UserInfo is how a requester is shown in notifications.
type UserInfo struct {
	DisplayName string
	AvatarURL   string
}

// UserInfoProvider resolves requester display information.
type UserInfoProvider interface {
	GetUserInfo(guildID, userID snowflake.ID) (*UserInfo, error)
}
