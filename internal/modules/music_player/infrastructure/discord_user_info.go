package infrastructure

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/dismusic/internal/modules/music_player/application/ports"
)

// Ensure DiscordUserInfoProvider implements ports.UserInfoProvider.
var (
	_ ports.UserInfoProvider = (*DiscordUserInfoProvider)(nil)
)

// DiscordUserInfoProvider resolves requesters to guild member display info.
type DiscordUserInfoProvider struct {
	session *discordgo.Session
}

// NewDiscordUserInfoProvider creates a new DiscordUserInfoProvider.
func NewDiscordUserInfoProvider(session *discordgo.Session) *DiscordUserInfoProvider {
	return &DiscordUserInfoProvider{session: session}
}

// GetUserInfo returns the member's display name and avatar.
// The state cache is consulted before the REST API.
func (p *DiscordUserInfoProvider) GetUserInfo(
	guildID, userID snowflake.ID,
) (*ports.UserInfo, error) {
	member, err := p.member(guildID.String(), userID.String())
	if err != nil {
		return nil, err
	}
	return memberInfo(member), nil
}

func (p *DiscordUserInfoProvider) member(guildID, userID string) (*discordgo.Member, error) {
	if p.session.State != nil {
		if member, err := p.session.State.Member(guildID, userID); err == nil && member.User != nil {
			return member, nil
		}
	}

	member, err := p.session.GuildMember(guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild member: %w", err)
	}
	if member.User == nil {
		return nil, fmt.Errorf("guild member %s has no user", userID)
	}
	return member, nil
}

// memberInfo picks the guild nickname, then the global display name, then the username.
// The guild avatar wins over the user avatar.
func memberInfo(member *discordgo.Member) *ports.UserInfo {
	name := member.User.Username
	switch {
	case member.Nick != "":
		name = member.Nick
	case member.User.GlobalName != "":
		name = member.User.GlobalName
	}

	return &ports.UserInfo{
		DisplayName: name,
		AvatarURL:   member.AvatarURL(""),
	}
}
