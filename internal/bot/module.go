package bot

import "github.com/bwmarrin/discordgo"

// InteractionHandler handles a slash command interaction and answers it through r.
// A returned error is logged and reported to the user as a generic failure.
type InteractionHandler func(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) error

// AutocompleteHandler answers an autocomplete interaction for one command.
type AutocompleteHandler func(s *discordgo.Session, i *discordgo.InteractionCreate)

// EventHandler is a generic handler for any Discord event.
// It should be a function matching one of discordgo's handler signatures,
// e.g., func(s *discordgo.Session, m *discordgo.VoiceStateUpdate)
type EventHandler any

// ModuleDependencies provides dependencies that modules may need during initialization.
type ModuleDependencies struct {
	// Session is open; Session.State.User is the bot user.
	Session *discordgo.Session
}

// Module defines the interface that all bot modules must implement.
type Module interface {
	// Name returns the unique identifier for this module.
	Name() string

	// Commands returns the slash commands that this module provides.
	Commands() []*discordgo.ApplicationCommand

	// CommandHandlers returns a map of command names to their handlers.
	CommandHandlers() map[string]InteractionHandler

	// EventHandlers returns event handlers for this module.
	// Each handler should match a discordgo handler signature.
	EventHandlers() []EventHandler

	// Init initializes the module with the provided dependencies.
	Init(deps ModuleDependencies) error

	// Shutdown gracefully shuts down the module.
	Shutdown() error
}

// ConfigurableModule is an optional interface for modules that need configuration.
// Modules implementing this interface will have LoadConfig called before Init.
type ConfigurableModule interface {
	// LoadConfig loads and validates module-specific configuration.
	// Called before the Discord connection is established, so a missing
	// setting fails startup early.
	LoadConfig() error
}

// AutocompleteModule is an optional interface for modules with autocompleted options.
type AutocompleteModule interface {
	// AutocompleteHandlers returns a map of command names to their autocomplete handlers.
	AutocompleteHandlers() map[string]AutocompleteHandler
}
