package presentation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"

	"github.com/sglre6355/dismusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/dismusic/internal/modules/music_player/application/usecases"
)

// Discord limits for autocomplete choices.
const (
	maxChoices         = 25
	maxChoiceLength    = 100
	suggestionLimit    = 10
	minSuggestQueryLen = 2
	// Autocomplete must be answered within the interaction deadline.
	suggestTimeout = 2500 * time.Millisecond
)

// AutocompleteHandler handles autocomplete requests.
type AutocompleteHandler struct {
	resolver *usecases.SearchResolver
}

// NewAutocompleteHandler creates a new AutocompleteHandler.
func NewAutocompleteHandler(resolver *usecases.SearchResolver) *AutocompleteHandler {
	return &AutocompleteHandler{
		resolver: resolver,
	}
}

// HandlePlay handles autocomplete for play command.
func (h *AutocompleteHandler) HandlePlay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var query, provider string
	for _, opt := range i.ApplicationCommandData().Options {
		switch {
		case opt.Name == "query" && opt.Focused:
			query = opt.StringValue()
		case opt.Name == "provider":
			provider = opt.StringValue()
		}
	}

	var choices []*discordgo.ApplicationCommandOptionChoice
	// Don't search for very short queries
	if h.resolver != nil && len([]rune(query)) >= minSuggestQueryLen {
		ctx, cancel := context.WithTimeout(context.Background(), suggestTimeout)
		defer cancel()

		tracks, err := h.resolver.Suggest(ctx, usecases.SuggestInput{
			Query:    query,
			Provider: provider,
			Limit:    suggestionLimit,
		})
		if err != nil {
			slog.Debug("failed to suggest tracks", "query", query, "error", err)
		}
		choices = suggestionChoices(tracks)
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	}); err != nil {
		slog.Warn("failed to respond to autocomplete", "error", err)
	}
}

// suggestionChoices turns search results into autocomplete choices.
// The URI is used as the value so it can be played directly; tracks whose
// URI does not fit in a choice value are skipped.
func suggestionChoices(tracks []*ports.TrackInfo) []*discordgo.ApplicationCommandOptionChoice {
	playable := lo.Filter(tracks, func(t *ports.TrackInfo, _ int) bool {
		return t.URI != "" && len(t.URI) <= maxChoiceLength
	})
	choices := lo.Map(playable, func(t *ports.TrackInfo, _ int) *discordgo.ApplicationCommandOptionChoice {
		name := t.Title
		if t.Artist != "" {
			name = fmt.Sprintf("%s - %s", t.Title, t.Artist)
		}
		return &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(name, maxChoiceLength),
			Value: t.URI,
		}
	})
	if len(choices) > maxChoices {
		choices = choices[:maxChoices]
	}
	if choices == nil {
		return []*discordgo.ApplicationCommandOptionChoice{}
	}
	return choices
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
