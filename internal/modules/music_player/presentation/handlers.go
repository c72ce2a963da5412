package presentation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/dismusic/internal/bot"
	"github.com/sglre6355/dismusic/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/dismusic/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

const genericErrorMessage = "An error occurred while processing your command."

// userMessages maps use case errors to the text shown to the user.
var userMessages = []struct {
	err     error
	message string
}{
	{usecases.ErrUserNotInVoice, "You must be in a voice channel to use this command."},
	{usecases.ErrNotConnected, "I'm not connected to a voice channel."},
	{usecases.ErrMustBeSameChannel, "You must be in the same voice channel as me."},
	{usecases.ErrNothingPlaying, "Nothing is playing right now."},
	{usecases.ErrAlreadyPaused, "Playback is already paused."},
	{usecases.ErrAlreadyPlaying, "Playback is not paused."},
	{usecases.ErrNotEnoughSongs, "Add at least one more song to the queue before looping the playlist."},
	{usecases.ErrInvalidLoopMode, "Unknown loop mode."},
	{usecases.ErrInvalidVolume, "Volume must be between 0 and 100."},
	{usecases.ErrUnknownProvider, "Unknown search provider."},
	{usecases.ErrEmptyQuery, "Please enter something to search for."},
	{usecases.ErrNoNodes, "No audio server is available right now. Please try again later."},
	{usecases.ErrNoTrackFound, "No song/track found with given query."},
}

// userMessage returns the message for a known error kind.
func userMessage(err error) (string, bool) {
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.message, true
		}
	}
	return "", false
}

// Handlers holds all the command handlers.
type Handlers struct {
	voiceChannel *usecases.VoiceChannelService
	playback     *usecases.PlaybackService
	queue        *usecases.QueueService
	resolver     *usecases.SearchResolver
}

// NewHandlers creates new Handlers.
func NewHandlers(
	voiceChannel *usecases.VoiceChannelService,
	playback *usecases.PlaybackService,
	queue *usecases.QueueService,
	resolver *usecases.SearchResolver,
) *Handlers {
	return &Handlers{
		voiceChannel: voiceChannel,
		playback:     playback,
		queue:        queue,
		resolver:     resolver,
	}
}

// interactionIDs holds the snowflakes every command needs.
type interactionIDs struct {
	guild   snowflake.ID
	user    snowflake.ID
	channel snowflake.ID
}

func parseInteraction(i *discordgo.InteractionCreate) (interactionIDs, error) {
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		return interactionIDs{}, errors.New("command used outside of a guild")
	}

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return interactionIDs{}, fmt.Errorf("invalid guild ID: %w", err)
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return interactionIDs{}, fmt.Errorf("invalid user ID: %w", err)
	}
	channelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return interactionIDs{}, fmt.Errorf("invalid channel ID: %w", err)
	}

	return interactionIDs{guild: guildID, user: userID, channel: channelID}, nil
}

func optionMap(
	options []*discordgo.ApplicationCommandInteractionDataOption,
) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

// HandleJoin handles the /join command.
func (h *Handlers) HandleJoin(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	var voiceChannelID snowflake.ID
	if opt, ok := optionMap(i.ApplicationCommandData().Options)["channel"]; ok {
		voiceChannelID, _ = snowflake.Parse(opt.ChannelValue(s).ID)
	}

	output, err := h.voiceChannel.Join(context.Background(), usecases.JoinInput{
		GuildID:               ids.guild,
		UserID:                ids.user,
		NotificationChannelID: ids.channel,
		VoiceChannelID:        voiceChannelID,
	})
	if err != nil {
		return respondUsecaseError(r, err)
	}

	if output.AlreadyConnected {
		return respondSuccess(r, fmt.Sprintf("Already connected to <#%d>.", output.VoiceChannelID))
	}
	return respondSuccess(r, fmt.Sprintf("Connected to <#%d>.", output.VoiceChannelID))
}

// HandlePlay handles the /play command.
// The response is deferred because resolving may try several nodes.
func (h *Handlers) HandlePlay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	options := optionMap(i.ApplicationCommandData().Options)
	var query, provider string
	if opt, ok := options["query"]; ok {
		query = opt.StringValue()
	}
	if opt, ok := options["provider"]; ok {
		provider = opt.StringValue()
	}

	if err := r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		return fmt.Errorf("failed to defer response: %w", err)
	}

	message, color := h.play(ctx, ids, query, provider)
	return r.Edit(&discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{
			{
				Description: message,
				Color:       color,
			},
		},
	})
}

// play connects if needed, resolves the query and enqueues the result.
// It returns the message to show and its embed color.
func (h *Handlers) play(ctx context.Context, ids interactionIDs, query, provider string) (string, int) {
	err := h.voiceChannel.RequireSameChannel(usecases.ChannelCheckInput{
		GuildID: ids.guild,
		UserID:  ids.user,
	})
	if errors.Is(err, usecases.ErrNotConnected) {
		_, err = h.voiceChannel.Join(ctx, usecases.JoinInput{
			GuildID:               ids.guild,
			UserID:                ids.user,
			NotificationChannelID: ids.channel,
		})
	}
	if err != nil {
		return errorMessage(ids.guild, "play", err), colorError
	}

	resolved, err := h.resolver.Resolve(ctx, usecases.ResolveInput{
		GuildID:         ids.guild,
		Query:           query,
		Provider:        provider,
		DefaultProvider: h.voiceChannel.Provider(ids.guild),
		RequesterID:     ids.user,
	})
	if err != nil {
		return errorMessage(ids.guild, "play", err), colorError
	}

	added, err := h.queue.Add(ctx, usecases.QueueAddInput{
		GuildID:               ids.guild,
		Tracks:                resolved.Tracks,
		NotificationChannelID: ids.channel,
	})
	if err != nil {
		return errorMessage(ids.guild, "play", err), colorError
	}

	return addedMessage(resolved, added), colorSuccess
}

func addedMessage(resolved *usecases.ResolveOutput, added *usecases.QueueAddOutput) string {
	if resolved.IsPlaylist {
		if resolved.PlaylistName != "" {
			return fmt.Sprintf("Added %d songs from **%s** to the queue.", added.Count, resolved.PlaylistName)
		}
		return fmt.Sprintf("Added %d songs to the queue.", added.Count)
	}

	track := resolved.Tracks[0]
	if added.WasIdle {
		return fmt.Sprintf("Added %s to the queue.", trackLink(track))
	}
	return fmt.Sprintf("Added %s to the queue at position %d.", trackLink(track), added.Position)
}

// errorMessage returns the user message for err, logging errors that have none.
func errorMessage(guildID snowflake.ID, command string, err error) string {
	if message, ok := userMessage(err); ok {
		return message
	}
	slog.Error("failed to handle command", "command", command, "guild", guildID, "error", err)
	return genericErrorMessage
}

// HandleStop handles the /stop command.
func (h *Handlers) HandleStop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	if err := h.voiceChannel.RequireSameChannel(usecases.ChannelCheckInput{
		GuildID: ids.guild,
		UserID:  ids.user,
	}); err != nil {
		return respondUsecaseError(r, err)
	}

	if err := h.playback.Stop(context.Background(), ids.guild, domain.StopReasonUser); err != nil {
		return respondUsecaseError(r, err)
	}

	return respondSuccess(r, "Stopped playback and left the voice channel.")
}

// HandlePause handles the /pause command.
func (h *Handlers) HandlePause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	if err := h.requireSameChannel(ids); err != nil {
		return respondUsecaseError(r, err)
	}

	if err := h.playback.Pause(context.Background(), usecases.PauseInput{
		GuildID:               ids.guild,
		NotificationChannelID: ids.channel,
	}); err != nil {
		return respondUsecaseError(r, err)
	}

	return respondSuccess(r, "Paused playback.")
}

// HandleResume handles the /resume command.
func (h *Handlers) HandleResume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	if err := h.requireSameChannel(ids); err != nil {
		return respondUsecaseError(r, err)
	}

	if err := h.playback.Resume(context.Background(), usecases.ResumeInput{
		GuildID:               ids.guild,
		NotificationChannelID: ids.channel,
	}); err != nil {
		return respondUsecaseError(r, err)
	}

	return respondSuccess(r, "Resumed playback.")
}

// HandleSkip handles the /skip command.
func (h *Handlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	if err := h.requireSameChannel(ids); err != nil {
		return respondUsecaseError(r, err)
	}

	output, err := h.playback.Skip(context.Background(), usecases.SkipInput{
		GuildID:               ids.guild,
		NotificationChannelID: ids.channel,
	})
	if err != nil {
		return respondUsecaseError(r, err)
	}

	// "Now Playing" for the next track is sent as a separate message
	return respondSuccess(r, fmt.Sprintf("Skipped %s.", trackLink(output.SkippedTrack)))
}

// HandleVolume handles the /volume command.
func (h *Handlers) HandleVolume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	var level int
	if opt, ok := optionMap(i.ApplicationCommandData().Options)["level"]; ok {
		level = int(opt.IntValue())
	}

	if err := h.requireSameChannel(ids); err != nil {
		return respondUsecaseError(r, err)
	}

	if err := h.playback.SetVolume(context.Background(), usecases.SetVolumeInput{
		GuildID: ids.guild,
		Volume:  level,
	}); err != nil {
		return respondUsecaseError(r, err)
	}

	return respondSuccess(r, fmt.Sprintf("Volume set to %d%%.", level))
}

// HandleNowPlaying handles the /nowplaying command.
func (h *Handlers) HandleNowPlaying(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	output, err := h.playback.NowPlaying(ids.guild)
	if err != nil {
		return respondUsecaseError(r, err)
	}

	return respondNowPlaying(r, output)
}

// HandleQueue handles the /queue command.
func (h *Handlers) HandleQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return respondError(r, "Invalid subcommand")
	}

	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	subCmd := options[0]
	switch subCmd.Name {
	case "list":
		return h.handleQueueList(ids, r, subCmd.Options)
	case "clear":
		return h.handleQueueClear(ids, r)
	default:
		return respondError(r, "Unknown subcommand")
	}
}

func (h *Handlers) handleQueueList(
	ids interactionIDs,
	r bot.Responder,
	options []*discordgo.ApplicationCommandInteractionDataOption,
) error {
	page := 1
	if opt, ok := optionMap(options)["page"]; ok {
		page = int(opt.IntValue())
	}

	output, err := h.queue.List(usecases.QueueListInput{
		GuildID:               ids.guild,
		Page:                  page,
		NotificationChannelID: ids.channel,
	})
	if err != nil {
		return respondUsecaseError(r, err)
	}

	return respondEmbed(r, queueListEmbed(output))
}

func (h *Handlers) handleQueueClear(ids interactionIDs, r bot.Responder) error {
	if err := h.requireSameChannel(ids); err != nil {
		return respondUsecaseError(r, err)
	}

	output, err := h.queue.Clear(context.Background(), usecases.QueueClearInput{
		GuildID:               ids.guild,
		NotificationChannelID: ids.channel,
	})
	if err != nil {
		return respondUsecaseError(r, err)
	}

	return respondSuccess(r, fmt.Sprintf("Cleared %d tracks from the queue.", output.ClearedCount))
}

// HandleLoop handles the /loop command.
func (h *Handlers) HandleLoop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, "This command can only be used in a server.")
	}

	var mode string
	if opt, ok := optionMap(i.ApplicationCommandData().Options)["mode"]; ok {
		mode = opt.StringValue()
	}

	if err := h.requireSameChannel(ids); err != nil {
		return respondUsecaseError(r, err)
	}

	output, err := h.playback.SetLoop(context.Background(), usecases.SetLoopInput{
		GuildID:               ids.guild,
		Mode:                  mode,
		NotificationChannelID: ids.channel,
	})
	if err != nil {
		return respondUsecaseError(r, err)
	}

	return respondSuccess(r, loopModeMessage(output.Mode))
}

func (h *Handlers) requireSameChannel(ids interactionIDs) error {
	return h.voiceChannel.RequireSameChannel(usecases.ChannelCheckInput{
		GuildID: ids.guild,
		UserID:  ids.user,
	})
}

func loopModeMessage(mode usecases.LoopMode) string {
	switch mode {
	case domain.LoopModeCurrent:
		return "Now looping the current track."
	case domain.LoopModePlaylist:
		return "Now looping the playlist."
	default:
		return "Loop disabled."
	}
}

// Response helpers.

// respondUsecaseError responds with the message for a known error kind.
// Unknown errors are returned so the bot reports a generic failure.
func respondUsecaseError(r bot.Responder, err error) error {
	if message, ok := userMessage(err); ok {
		return respondError(r, message)
	}
	return err
}

func respondError(r bot.Responder, message string) error {
	return respondEmbed(r, &discordgo.MessageEmbed{
		Title:       "Error",
		Description: message,
		Color:       colorError,
	})
}

func respondSuccess(r bot.Responder, message string) error {
	return respondEmbed(r, &discordgo.MessageEmbed{
		Description: message,
		Color:       colorSuccess,
	})
}

func respondEmbed(r bot.Responder, embed *discordgo.MessageEmbed) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func respondNowPlaying(r bot.Responder, output *usecases.NowPlayingOutput) error {
	track := output.Track

	status := "Playing"
	if output.Paused {
		status = "Paused"
	}

	next := "-"
	if output.NextTrack != nil {
		next = trackLink(output.NextTrack)
	}

	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name: "Now Playing",
		},
		Title: track.Title,
		URL:   track.URI,
		Color: track.Source.Color(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Artist", Value: orDash(track.Author), Inline: true},
			{Name: "Duration", Value: track.FormattedDuration(), Inline: true},
			{Name: "Status", Value: status, Inline: true},
			{Name: "Volume", Value: fmt.Sprintf("%d%%", output.Volume), Inline: true},
			{Name: "Loop", Value: output.LoopMode.String(), Inline: true},
			{Name: "Queued", Value: fmt.Sprintf("%d", output.QueueLength), Inline: true},
			{Name: "Up Next", Value: next},
		},
	}
	if track.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: track.ArtworkURL}
	}

	return respondEmbed(r, embed)
}

func queueListEmbed(output *usecases.QueueListOutput) *discordgo.MessageEmbed {
	// Build title with loop mode indicator
	title := "Queue"
	switch output.LoopMode {
	case domain.LoopModeCurrent:
		title = "Queue \U0001F502"
	case domain.LoopModePlaylist:
		title = "Queue \U0001F501"
	}

	embed := &discordgo.MessageEmbed{
		Title: title,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf(
				"Page %d/%d | %d tracks",
				output.CurrentPage,
				output.TotalPages,
				output.TotalTracks,
			),
		},
	}

	if output.CurrentTrack == nil && output.TotalTracks == 0 {
		embed.Description = "Queue is empty."
		return embed
	}

	var sb strings.Builder
	if output.CurrentTrack != nil {
		sb.WriteString("### Now Playing\n")
		fmt.Fprintf(&sb, "%s\n", trackLine(output.CurrentTrack))
	}

	if len(output.Tracks) > 0 {
		sb.WriteString("### Up Next\n")
		offset := (output.CurrentPage - 1) * output.PageSize
		for i, track := range output.Tracks {
			// Escape period to prevent Discord markdown list formatting
			fmt.Fprintf(&sb, "%d\\. %s\n", offset+i+1, trackLine(track))
		}
	}

	embed.Description = sb.String()
	return embed
}

func trackLine(track *usecases.Track) string {
	return fmt.Sprintf("%s - %s `%s`", trackLink(track), orDash(track.Author), track.FormattedDuration())
}

func trackLink(track *usecases.Track) string {
	if track.URI != "" {
		return fmt.Sprintf("[%s](%s)", track.Title, track.URI)
	}
	return fmt.Sprintf("**%s**", track.Title)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
