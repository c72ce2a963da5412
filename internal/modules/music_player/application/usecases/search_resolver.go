package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"github.com/sglre6355/dismusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/dismusic/internal/modules/music_player/domain"
)

// DefaultSearchTimeout bounds a single search attempt against one node.
const DefaultSearchTimeout = 20 * time.Second

// ResolveInput contains the input for the Resolve use case.
type ResolveInput struct {
	GuildID         snowflake.ID
	Query           string
	Provider        string // optional provider key chosen by the user
	DefaultProvider domain.Provider
	RequesterID     snowflake.ID
}

// ResolveOutput contains the result of the Resolve use case.
type ResolveOutput struct {
	Tracks       []*domain.Track
	IsPlaylist   bool
	PlaylistName string
	Provider     domain.Provider
	NodeID       string
}

// SuggestInput contains the input for the Suggest use case.
type SuggestInput struct {
	Query    string
	Provider string
	Limit    int
}

// SearchResolver turns a user query into tracks by trying the audio nodes
// from least to most loaded.
type SearchResolver struct {
	pool           ports.NodePool
	publisher      ports.EventPublisher
	attemptTimeout time.Duration
	limiter        *rate.Limiter
}

// NewSearchResolver creates a new SearchResolver.
// A nil limiter disables throttling.
func NewSearchResolver(
	pool ports.NodePool,
	publisher ports.EventPublisher,
	attemptTimeout time.Duration,
	limiter *rate.Limiter,
) *SearchResolver {
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultSearchTimeout
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}

	return &SearchResolver{
		pool:           pool,
		publisher:      publisher,
		attemptTimeout: attemptTimeout,
		limiter:        limiter,
	}
}

// Resolve searches for the query on each node in turn.
// A node that times out is evicted from the pool. Any other failure moves on
// to the next node without eviction.
func (s *SearchResolver) Resolve(ctx context.Context, input ResolveInput) (*ResolveOutput, error) {
	provider, query, err := s.buildQuery(input.Query, input.Provider, input.DefaultProvider)
	if err != nil {
		return nil, err
	}

	nodes := s.pool.ByLoad()
	if len(nodes) == 0 {
		return nil, ErrNoNodes
	}

	for _, node := range nodes {
		result, err := s.attempt(ctx, node, query.BackendQuery())
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				s.evict(input.GuildID, node)
				continue
			}
			slog.Warn("search attempt failed",
				"guild", input.GuildID,
				"node", node.ID(),
				"error", err,
			)
			continue
		}

		if !hasTracks(result) {
			slog.Debug("node returned no tracks",
				"guild", input.GuildID,
				"node", node.ID(),
				"type", result.Type,
			)
			continue
		}

		infos := result.Tracks
		isPlaylist := result.Type == ports.LoadTypePlaylist
		if !isPlaylist {
			infos = infos[:1]
		}

		tracks := lo.Map(infos, func(info *ports.TrackInfo, _ int) *domain.Track {
			return toDomainTrack(info, provider, input.RequesterID)
		})

		return &ResolveOutput{
			Tracks:       tracks,
			IsPlaylist:   isPlaylist,
			PlaylistName: result.PlaylistName,
			Provider:     provider,
			NodeID:       node.ID(),
		}, nil
	}

	return nil, ErrNoTrackFound
}

// Suggest returns up to Limit search results from the least loaded node.
// It is used for autocomplete and never evicts nodes.
func (s *SearchResolver) Suggest(ctx context.Context, input SuggestInput) ([]*ports.TrackInfo, error) {
	_, query, err := s.buildQuery(input.Query, input.Provider, "")
	if err != nil {
		return nil, err
	}

	nodes := s.pool.ByLoad()
	if len(nodes) == 0 {
		return nil, ErrNoNodes
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	result, err := nodes[0].Search(attemptCtx, query.BackendQuery())
	if err != nil {
		return nil, fmt.Errorf("search %q on node %s: %w", query.Query, nodes[0].ID(), err)
	}
	if !hasTracks(result) {
		return nil, nil
	}

	limit := input.Limit
	if limit <= 0 || limit > len(result.Tracks) {
		limit = len(result.Tracks)
	}
	return result.Tracks[:limit], nil
}

func (s *SearchResolver) buildQuery(
	raw, requested string,
	fallback domain.Provider,
) (domain.Provider, *domain.SearchQuery, error) {
	var provider domain.Provider
	if requested != "" {
		p, err := domain.ParseProvider(requested)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %q", err, requested)
		}
		provider = p
	}

	query := domain.NewSearchQuery(raw, "")
	if !query.IsValid() {
		return "", nil, ErrEmptyQuery
	}

	provider = domain.ResolveProvider(query.Query, provider, fallback)
	query.Provider = provider
	return provider, query, nil
}

func (s *SearchResolver) attempt(
	ctx context.Context,
	node ports.Node,
	query string,
) (*ports.LoadResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	result, err := node.Search(attemptCtx, query)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded {
			return nil, context.DeadlineExceeded
		}
		return nil, err
	}
	return result, nil
}

func (s *SearchResolver) evict(guildID snowflake.ID, node ports.Node) {
	if !s.pool.Remove(node.ID()) {
		return
	}
	slog.Warn("node timed out, removed from pool",
		"guild", guildID,
		"node", node.ID(),
		"remaining", s.pool.Len(),
	)

	if s.publisher == nil {
		return
	}
	event := domain.NodeFailedEvent{GuildID: guildID, NodeID: node.ID()}
	if err := s.publisher.Publish(event); err != nil {
		slog.Warn("failed to publish NodeFailedEvent", "event", event, "error", err)
	}
}

func hasTracks(result *ports.LoadResult) bool {
	if result == nil || len(result.Tracks) == 0 {
		return false
	}
	return result.Type != ports.LoadTypeEmpty && result.Type != ports.LoadTypeError
}

func toDomainTrack(
	info *ports.TrackInfo,
	provider domain.Provider,
	requesterID snowflake.ID,
) *domain.Track {
	return domain.NewTrack(domain.TrackParams{
		Encoded:     info.Encoded,
		Identifier:  info.Identifier,
		Title:       info.Title,
		Author:      info.Artist,
		Duration:    info.Duration,
		URI:         info.URI,
		ArtworkURL:  info.ArtworkURL,
		Source:      domain.ParseSourceKind(info.SourceName, provider),
		IsStream:    info.IsStream,
		RequesterID: requesterID,
	})
}
