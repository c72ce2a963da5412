package usecases

import (
	"context"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"

	"github.com/sglre6355/dismusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/dismusic/internal/modules/music_player/domain"
)

const DefaultPageSize = 10

// QueueAddInput contains the input for the QueueAdd use case.
type QueueAddInput struct {
	GuildID               snowflake.ID
	Tracks                []*domain.Track
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// QueueAddOutput contains the result of the QueueAdd use case.
type QueueAddOutput struct {
	Count    int
	Position int // 1-indexed queue position of the first added track
	WasIdle  bool
}

// QueueListInput contains the input for the QueueList use case.
type QueueListInput struct {
	GuildID               snowflake.ID
	Page                  int          // 1-indexed page number
	PageSize              int          // Items per page (optional, defaults to 10)
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// QueueListOutput contains the result of the QueueList use case.
type QueueListOutput struct {
	CurrentTrack *domain.Track
	Tracks       []*domain.Track
	TotalTracks  int
	CurrentPage  int
	TotalPages   int
	PageSize     int
	LoopMode     domain.LoopMode
}

// QueueClearInput contains the input for the QueueClear use case.
type QueueClearInput struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// QueueClearOutput contains the result of the QueueClear use case.
type QueueClearOutput struct {
	ClearedCount int
}

// QueueService handles queue operations.
type QueueService struct {
	repo      domain.PlayerStateRepository
	publisher ports.EventPublisher
}

// NewQueueService creates a new QueueService.
func NewQueueService(
	repo domain.PlayerStateRepository,
	publisher ports.EventPublisher,
) *QueueService {
	return &QueueService{
		repo:      repo,
		publisher: publisher,
	}
}

// Add appends tracks to the queue and publishes an event so an idle player starts.
func (q *QueueService) Add(_ context.Context, input QueueAddInput) (*QueueAddOutput, error) {
	state := q.repo.Get(input.GuildID)
	if state == nil || state.IsDestroyed() {
		return nil, ErrNotConnected
	}

	if input.NotificationChannelID != 0 {
		state.SetNotificationChannelID(input.NotificationChannelID)
	}

	if len(input.Tracks) == 0 {
		return &QueueAddOutput{}, nil
	}

	wasIdle := !state.HasTrack()
	position := state.Queue.Len() + 1
	state.Queue.Enqueue(input.Tracks...)

	if q.publisher != nil {
		event := domain.TrackEnqueuedEvent{
			GuildID: input.GuildID,
			Count:   len(input.Tracks),
			WasIdle: wasIdle,
		}
		if err := q.publisher.Publish(event); err != nil {
			slog.Warn("failed to publish TrackEnqueuedEvent", "event", event, "error", err)
		}
	}

	return &QueueAddOutput{
		Count:    len(input.Tracks),
		Position: position,
		WasIdle:  wasIdle,
	}, nil
}

// List returns the queued tracks with pagination.
// Out of range pages are clamped to the nearest valid page.
func (q *QueueService) List(input QueueListInput) (*QueueListOutput, error) {
	state := q.repo.Get(input.GuildID)
	if state == nil || state.IsDestroyed() {
		return nil, ErrNotConnected
	}

	if input.NotificationChannelID != 0 {
		state.SetNotificationChannelID(input.NotificationChannelID)
	}

	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	tracks := state.Queue.List()
	pages := lo.Chunk(tracks, pageSize)

	totalPages := max(len(pages), 1)
	page := min(max(input.Page, 1), totalPages)

	var pageTracks []*domain.Track
	if len(pages) > 0 {
		pageTracks = pages[page-1]
	}

	return &QueueListOutput{
		CurrentTrack: state.CurrentTrack(),
		Tracks:       pageTracks,
		TotalTracks:  len(tracks),
		CurrentPage:  page,
		TotalPages:   totalPages,
		PageSize:     pageSize,
		LoopMode:     state.GetLoopMode(),
	}, nil
}

// Clear removes every queued track. The current track keeps playing.
func (q *QueueService) Clear(_ context.Context, input QueueClearInput) (*QueueClearOutput, error) {
	state := q.repo.Get(input.GuildID)
	if state == nil || state.IsDestroyed() {
		return nil, ErrNotConnected
	}

	if input.NotificationChannelID != 0 {
		state.SetNotificationChannelID(input.NotificationChannelID)
	}

	return &QueueClearOutput{ClearedCount: state.Queue.Clear()}, nil
}
