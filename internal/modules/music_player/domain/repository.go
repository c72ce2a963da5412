package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// PlayerStateRepository is the registry of live players, at most one per guild.
type PlayerStateRepository interface {
	// Get returns the guild's player, or nil.
	Get(guildID snowflake.ID) *PlayerState

	// Save registers the player under its guild, replacing any previous one.
	Save(state *PlayerState)

	// Delete unregisters the guild's player.
	Delete(guildID snowflake.ID)

	// Count returns the number of registered players.
	Count() int

	// GuildIDs lists the guilds that have a registered player.
	GuildIDs() []snowflake.ID
}
