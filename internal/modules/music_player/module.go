package music_player

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/dismusic/internal/bot"
	"github.com/sglre6355/dismusic/internal/modules/music_player/application/events"
	"github.com/sglre6355/dismusic/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/dismusic/internal/modules/music_player/domain"
	"github.com/sglre6355/dismusic/internal/modules/music_player/infrastructure"
	"github.com/sglre6355/dismusic/internal/modules/music_player/presentation"
)

// nodeConnectTimeout bounds the initial connection to each Lavalink node.
const nodeConnectTimeout = 10 * time.Second

// shutdownTimeout bounds tearing down the remaining players on shutdown.
const shutdownTimeout = 10 * time.Second

func init() {
	bot.Register(&MusicPlayerModule{})
}

// Compile-time interface checks.
var (
	_ bot.ConfigurableModule = (*MusicPlayerModule)(nil)
	_ bot.AutocompleteModule = (*MusicPlayerModule)(nil)
)

// MusicPlayerModule provides music playback commands.
type MusicPlayerModule struct {
	config          *Config
	handlers        *presentation.Handlers
	autocomplete    *presentation.AutocompleteHandler
	eventHandlers   *presentation.EventHandlers
	lavalinkAdapter *infrastructure.LavalinkAdapter
	repo            *infrastructure.MemoryRepository
	playback        *usecases.PlaybackService

	// Event-driven components
	eventBus            *events.Bus
	playbackHandler     *events.PlaybackEventHandler
	notificationHandler *events.NotificationEventHandler

	// Context for event handlers
	ctx    context.Context
	cancel context.CancelFunc
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return presentation.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"join":       m.handlers.HandleJoin,
		"play":       m.handlers.HandlePlay,
		"stop":       m.handlers.HandleStop,
		"pause":      m.handlers.HandlePause,
		"resume":     m.handlers.HandleResume,
		"skip":       m.handlers.HandleSkip,
		"volume":     m.handlers.HandleVolume,
		"nowplaying": m.handlers.HandleNowPlaying,
		"queue":      m.handlers.HandleQueue,
		"loop":       m.handlers.HandleLoop,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		m.eventHandlers.HandleVoiceServerUpdate,
		m.eventHandlers.HandleVoiceStateUpdate,
	}
}

// AutocompleteHandlers returns the autocomplete handlers for this module.
func (m *MusicPlayerModule) AutocompleteHandlers() map[string]bot.AutocompleteHandler {
	return map[string]bot.AutocompleteHandler{
		"play": m.autocomplete.HandlePlay,
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil {
		return errors.New("music_player requires a Discord session")
	}
	if m.config == nil {
		if err := m.LoadConfig(); err != nil {
			return err
		}
	}

	// Create cancellable context for event handlers
	m.ctx, m.cancel = context.WithCancel(context.Background())

	// Create event bus (needed by Lavalink adapter for publishing events)
	m.eventBus = events.NewBus(events.DefaultEventBufferSize)

	lavalinkAdapter, err := infrastructure.NewLavalinkAdapter(deps.Session, m.eventBus)
	if err != nil {
		return err
	}
	m.lavalinkAdapter = lavalinkAdapter

	pool := infrastructure.NewNodePool(lavalinkAdapter.RemoveNode)
	if err := m.connectNodes(pool); err != nil {
		return err
	}

	// Create infrastructure
	m.repo = infrastructure.NewMemoryRepository()
	voiceState := infrastructure.NewVoiceStateProvider(deps.Session)
	userInfo := infrastructure.NewDiscordUserInfoProvider(deps.Session)
	notifier := infrastructure.NewNotifier(deps.Session)

	// Create services with event bus
	m.playback = usecases.NewPlaybackService(
		m.repo,
		lavalinkAdapter,
		lavalinkAdapter,
		m.eventBus,
		m.config.IdleTimeout,
	)
	voiceChannel := usecases.NewVoiceChannelService(
		m.repo,
		lavalinkAdapter,
		voiceState,
		m.eventBus,
		m.playback,
		m.config.Provider(),
	)
	queue := usecases.NewQueueService(m.repo, m.eventBus)
	resolver := usecases.NewSearchResolver(
		pool,
		m.eventBus,
		m.config.SearchTimeout,
		m.config.Limiter(),
	)

	// Create application event handlers
	m.playbackHandler = events.NewPlaybackEventHandler(m.playback, m.eventBus)
	m.notificationHandler = events.NewNotificationEventHandler(
		m.repo,
		m.eventBus,
		notifier,
		userInfo,
	)

	// Register event handlers
	if err := m.playbackHandler.Start(m.ctx); err != nil {
		return err
	}
	if err := m.notificationHandler.Start(); err != nil {
		return err
	}

	// Create presentation handlers
	botID, err := snowflake.Parse(deps.Session.State.User.ID)
	if err != nil {
		return err
	}
	m.handlers = presentation.NewHandlers(voiceChannel, m.playback, queue, resolver)
	m.autocomplete = presentation.NewAutocompleteHandler(resolver)
	m.eventHandlers = presentation.NewEventHandlers(botID, voiceChannel, lavalinkAdapter)

	slog.Info("music_player module initialized with Lavalink", "nodes", pool.Len())

	return nil
}

// connectNodes adds every configured node to the pool.
// A node that cannot be reached is logged and skipped.
func (m *MusicPlayerModule) connectNodes(pool *infrastructure.NodePool) error {
	configs, err := m.config.NodeConfigs()
	if err != nil {
		return err
	}

	for _, cfg := range configs {
		ctx, cancel := context.WithTimeout(context.Background(), nodeConnectTimeout)
		node, err := m.lavalinkAdapter.AddNode(ctx, cfg)
		cancel()
		if err != nil {
			slog.Warn("skipping Lavalink node", "node", cfg.Name, "address", cfg.Address, "error", err)
			continue
		}
		pool.Add(node)
	}

	if pool.Len() == 0 {
		slog.Warn("no Lavalink node available, searches will fail until restart")
	}
	return nil
}

// Shutdown cleans up module resources.
func (m *MusicPlayerModule) Shutdown() error {
	var errs []error

	// Leave every voice channel while the bus still delivers PlayerStopped
	if m.playback != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := m.playback.StopAll(ctx, domain.StopReasonShutdown); err != nil {
			errs = append(errs, err)
		}
		cancel()
	}

	// Cancel context first to signal event handlers to stop
	if m.cancel != nil {
		m.cancel()
	}
	if m.playbackHandler != nil {
		m.playbackHandler.Stop()
	}

	// Close event bus
	if m.eventBus != nil {
		m.eventBus.Close()
	}

	// Close Lavalink connection
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.Close()
	}

	return errors.Join(errs...)
}
