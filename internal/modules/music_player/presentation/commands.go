package presentation

import (
	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"

	"github.com/sglre6355/dismusic/internal/modules/music_player/application/usecases"
)

// Volume bounds accepted by the /volume command.
const (
	minVolume = 0
	maxVolume = 100
)

var providerNames = map[usecases.Provider]string{
	"yt":         "YouTube",
	"ytpl":       "YouTube Playlist",
	"ytmusic":    "YouTube Music",
	"soundcloud": "SoundCloud",
	"spotify":    "Spotify",
}

// Commands returns all slash commands for the music player module.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "join",
			Description: "Join a voice channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Voice channel to join (defaults to your current channel)",
					Required:    false,
					ChannelTypes: []discordgo.ChannelType{
						discordgo.ChannelTypeGuildVoice,
						discordgo.ChannelTypeGuildStageVoice,
					},
				},
			},
		},
		{
			Name:        "play",
			Description: "Play a track from URL or search",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "query",
					Description:  "URL or search term",
					Required:     true,
					Autocomplete: true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "provider",
					Description: "Where to search (defaults to the player's provider)",
					Required:    false,
					Choices:     providerChoices(),
				},
			},
		},
		{
			Name:        "stop",
			Description: "Stop playback and leave the voice channel",
		},
		{
			Name:        "pause",
			Description: "Pause playback",
		},
		{
			Name:        "resume",
			Description: "Resume playback",
		},
		{
			Name:        "skip",
			Description: "Skip the current track",
		},
		{
			Name:        "volume",
			Description: "Set the playback volume",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "level",
					Description: "Volume from 0 to 100",
					Required:    true,
					MinValue:    floatPtr(minVolume),
					MaxValue:    maxVolume,
				},
			},
		},
		{
			Name:        "nowplaying",
			Description: "Show the current track",
		},
		{
			Name:        "queue",
			Description: "Manage the queue",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "Show the current queue",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "page",
							Description: "Page number",
							Required:    false,
							MinValue:    floatPtr(1),
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "clear",
					Description: "Clear the upcoming tracks",
				},
			},
		},
		{
			Name:        "loop",
			Description: "Set the loop mode (or cycle through modes if no option provided)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "mode",
					Description: "Loop mode to set (omit to cycle through modes)",
					Required:    false,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Off", Value: "none"},
						{Name: "Current track", Value: "current"},
						{Name: "Playlist", Value: "playlist"},
					},
				},
			},
		},
	}
}

func providerChoices() []*discordgo.ApplicationCommandOptionChoice {
	return lo.Map(usecases.Providers(), func(p usecases.Provider, _ int) *discordgo.ApplicationCommandOptionChoice {
		return &discordgo.ApplicationCommandOptionChoice{
			Name:  lo.ValueOr(providerNames, p, string(p)),
			Value: string(p),
		}
	})
}

func floatPtr(f float64) *float64 {
	return &f
}
