package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"

	"github.com/sglre6355/dismusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/dismusic/internal/modules/music_player/domain"
)

// mockRepository is a test double for domain.PlayerStateRepository.
type mockRepository struct {
	mu     sync.Mutex
	states map[snowflake.ID]*domain.PlayerState
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		states: make(map[snowflake.ID]*domain.PlayerState),
	}
}

func (m *mockRepository) Get(guildID snowflake.ID) *domain.PlayerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[guildID]
}

func (m *mockRepository) Save(state *domain.PlayerState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.GetGuildID()] = state
}

func (m *mockRepository) Delete(guildID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, guildID)
}

func (m *mockRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}

func (m *mockRepository) GuildIDs() []snowflake.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.Keys(m.states)
}

// mockNotifier is a test double for ports.NotificationSender.
type mockNotifier struct {
	mu                sync.Mutex
	sentNowPlaying    []*ports.NowPlayingInfo
	sentInfo          []string
	sentErrors        []string
	deletedMessages   []snowflake.ID
	sendNowPlayingErr error
	deleteMessageErr  error
	lastMessageID     snowflake.ID
}

func (m *mockNotifier) SendNowPlaying(
	_ snowflake.ID,
	info *ports.NowPlayingInfo,
) (snowflake.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendNowPlayingErr != nil {
		return 0, m.sendNowPlayingErr
	}
	m.sentNowPlaying = append(m.sentNowPlaying, info)
	m.lastMessageID++
	return m.lastMessageID, nil
}

func (m *mockNotifier) DeleteMessage(_ snowflake.ID, messageID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteMessageErr != nil {
		return m.deleteMessageErr
	}
	m.deletedMessages = append(m.deletedMessages, messageID)
	return nil
}

func (m *mockNotifier) SendInfo(_ snowflake.ID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentInfo = append(m.sentInfo, message)
	return nil
}

func (m *mockNotifier) SendError(_ snowflake.ID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentErrors = append(m.sentErrors, message)
	return nil
}

// getSentNowPlaying returns a copy of sentNowPlaying for thread-safe access.
func (m *mockNotifier) getSentNowPlaying() []*ports.NowPlayingInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*ports.NowPlayingInfo, len(m.sentNowPlaying))
	copy(result, m.sentNowPlaying)
	return result
}

// getDeletedMessages returns a copy of deletedMessages for thread-safe access.
func (m *mockNotifier) getDeletedMessages() []snowflake.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]snowflake.ID, len(m.deletedMessages))
	copy(result, m.deletedMessages)
	return result
}

func (m *mockNotifier) getSentInfo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sentInfo...)
}

type mockUserInfoProvider struct {
	err error
}

func (m *mockUserInfoProvider) GetUserInfo(_, _ snowflake.ID) (*ports.UserInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &ports.UserInfo{DisplayName: "listener", AvatarURL: "https://cdn/avatar.png"}, nil
}

// mockPlayback records the calls made by PlaybackEventHandler.
type mockPlayback struct {
	advanced chan snowflake.ID
	ended    chan domain.TrackEndReason
	block    bool // Advance waits for ctx cancellation
}

func newMockPlayback() *mockPlayback {
	return &mockPlayback{
		advanced: make(chan snowflake.ID, 10),
		ended:    make(chan domain.TrackEndReason, 10),
	}
}

func (m *mockPlayback) Advance(ctx context.Context, guildID snowflake.ID) error {
	m.advanced <- guildID
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (m *mockPlayback) HandleTrackEnd(
	_ context.Context,
	_ snowflake.ID,
	reason domain.TrackEndReason,
) error {
	m.ended <- reason
	return nil
}

func mockTrack(id string) *domain.Track {
	return &domain.Track{
		ID:          domain.TrackID(id),
		Encoded:     "encoded-" + id,
		Title:       "Track " + id,
		Author:      "Artist",
		Duration:    3 * time.Minute,
		Source:      domain.SourceKindYouTube,
		RequesterID: snowflake.ID(123),
	}
}

// --- PlaybackEventHandler Tests ---

func TestPlaybackEventHandler_TrackEnqueued_WhenIdle_Advances(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	playback := newMockPlayback()
	handler := NewPlaybackEventHandler(playback, bus)
	if err := handler.Start(t.Context()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer handler.Stop()

	_ = bus.Publish(domain.TrackEnqueuedEvent{GuildID: snowflake.ID(1), Count: 1, WasIdle: true})

	select {
	case guildID := <-playback.advanced:
		if guildID != snowflake.ID(1) {
			t.Errorf("expected guildID 1, got %d", guildID)
		}
	case <-time.After(time.Second):
		t.Error("expected Advance to be called when track enqueued and idle")
	}
}

func TestPlaybackEventHandler_TrackEnqueued_WhenNotIdle_DoesNotAdvance(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	playback := newMockPlayback()
	handler := NewPlaybackEventHandler(playback, bus)
	_ = handler.Start(t.Context())
	defer handler.Stop()

	_ = bus.Publish(domain.TrackEnqueuedEvent{GuildID: snowflake.ID(1), Count: 1, WasIdle: false})

	select {
	case <-playback.advanced:
		t.Error("expected Advance NOT to be called when the player was busy")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPlaybackEventHandler_PlayerConnected_StartsIdleCountdown(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	playback := newMockPlayback()
	handler := NewPlaybackEventHandler(playback, bus)
	_ = handler.Start(t.Context())
	defer handler.Stop()

	_ = bus.Publish(domain.PlayerConnectedEvent{GuildID: snowflake.ID(5), VoiceChannelID: snowflake.ID(6)})

	select {
	case guildID := <-playback.advanced:
		if guildID != snowflake.ID(5) {
			t.Errorf("expected guildID 5, got %d", guildID)
		}
	case <-time.After(time.Second):
		t.Error("expected Advance to be called on connect")
	}
}

func TestPlaybackEventHandler_TrackEnded_ForwardsReason(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	playback := newMockPlayback()
	handler := NewPlaybackEventHandler(playback, bus)
	_ = handler.Start(t.Context())
	defer handler.Stop()

	_ = bus.Publish(domain.TrackEndedEvent{GuildID: snowflake.ID(1), Reason: domain.TrackEndLoadFailed})

	select {
	case reason := <-playback.ended:
		if reason != domain.TrackEndLoadFailed {
			t.Errorf("expected load_failed, got %q", reason)
		}
	case <-time.After(time.Second):
		t.Error("expected HandleTrackEnd to be called")
	}
}

func TestPlaybackEventHandler_BlockingAdvanceDoesNotStallBus(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	playback := newMockPlayback()
	playback.block = true
	handler := NewPlaybackEventHandler(playback, bus)
	_ = handler.Start(t.Context())
	defer handler.Stop()

	_ = bus.Publish(domain.PlayerConnectedEvent{GuildID: snowflake.ID(1)})
	<-playback.advanced

	_ = bus.Publish(domain.TrackEndedEvent{GuildID: snowflake.ID(2), Reason: domain.TrackEndFinished})

	select {
	case <-playback.ended:
	case <-time.After(time.Second):
		t.Fatal("a waiting Advance must not block other events")
	}
}

func TestPlaybackEventHandler_StopCancelsWorkers(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	playback := newMockPlayback()
	playback.block = true
	handler := NewPlaybackEventHandler(playback, bus)
	_ = handler.Start(context.Background())

	_ = bus.Publish(domain.PlayerConnectedEvent{GuildID: snowflake.ID(1)})
	<-playback.advanced

	done := make(chan struct{})
	go func() {
		handler.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}

// --- NotificationEventHandler Tests ---

func newNotificationFixture(t *testing.T) (*Bus, *mockRepository, *mockNotifier) {
	t.Helper()
	bus := NewBus(10)
	repo := newMockRepository()
	notifier := &mockNotifier{}
	handler := NewNotificationEventHandler(repo, bus, notifier, &mockUserInfoProvider{})
	if err := handler.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return bus, repo, notifier
}

func TestNotificationEventHandler_TrackStarted_SendsNowPlaying(t *testing.T) {
	bus, repo, notifier := newNotificationFixture(t)

	guildID := snowflake.ID(1)
	track := mockTrack("current")
	state := domain.NewPlayerState(guildID, snowflake.ID(100), snowflake.ID(200))
	_ = state.StartTrack(track)
	state.Queue.Enqueue(mockTrack("next"))
	_ = state.SetVolume(60)
	repo.Save(state)

	_ = bus.Publish(domain.TrackStartedEvent{
		GuildID:               guildID,
		Track:                 track,
		NotificationChannelID: snowflake.ID(200),
	})
	bus.Close()

	sent := notifier.getSentNowPlaying()
	if len(sent) != 1 {
		t.Fatalf("expected 1 now playing message, got %d", len(sent))
	}
	info := sent[0]
	if info.Title != track.Title || info.Artist != "Artist" {
		t.Errorf("unexpected info %+v", info)
	}
	if info.NextTitle != "Track next" || info.Volume != 60 || info.LoopMode != "NONE" {
		t.Errorf("unexpected player details %+v", info)
	}
	if info.RequesterName != "listener" {
		t.Errorf("expected requester name, got %q", info.RequesterName)
	}
	if info.Source != domain.SourceKindYouTube {
		t.Errorf("expected youtube source, got %q", info.Source)
	}

	msg := state.GetNowPlayingMessage()
	if msg == nil || msg.MessageID != 1 || msg.ChannelID != 200 {
		t.Errorf("expected stored message, got %+v", msg)
	}
}

func TestNotificationEventHandler_TrackStarted_ReplacesPreviousMessage(t *testing.T) {
	bus, repo, notifier := newNotificationFixture(t)

	guildID := snowflake.ID(1)
	track := mockTrack("current")
	state := domain.NewPlayerState(guildID, snowflake.ID(100), snowflake.ID(200))
	_ = state.StartTrack(track)
	state.SetNowPlayingMessage(snowflake.ID(200), snowflake.ID(999))
	repo.Save(state)

	_ = bus.Publish(domain.TrackStartedEvent{GuildID: guildID, Track: track, NotificationChannelID: 200})
	bus.Close()

	deleted := notifier.getDeletedMessages()
	if len(deleted) != 1 || deleted[0] != 999 {
		t.Errorf("expected previous message 999 to be deleted, got %v", deleted)
	}
	if msg := state.GetNowPlayingMessage(); msg == nil || msg.MessageID == 999 {
		t.Errorf("expected new message to be stored, got %+v", msg)
	}
}

func TestNotificationEventHandler_TrackStarted_SkipsStaleTrack(t *testing.T) {
	bus, repo, notifier := newNotificationFixture(t)

	guildID := snowflake.ID(1)
	state := domain.NewPlayerState(guildID, snowflake.ID(100), snowflake.ID(200))
	_ = state.StartTrack(mockTrack("newer"))
	repo.Save(state)

	_ = bus.Publish(domain.TrackStartedEvent{GuildID: guildID, Track: mockTrack("older"), NotificationChannelID: 200})
	bus.Close()

	if n := len(notifier.getSentNowPlaying()); n != 0 {
		t.Errorf("expected no message for a stale track, got %d", n)
	}
}

func TestNotificationEventHandler_TrackStarted_SendFailure(t *testing.T) {
	bus := NewBus(10)
	repo := newMockRepository()
	notifier := &mockNotifier{sendNowPlayingErr: errors.New("missing permissions")}
	handler := NewNotificationEventHandler(repo, bus, notifier, &mockUserInfoProvider{err: errors.New("no member")})
	_ = handler.Start()

	guildID := snowflake.ID(1)
	track := mockTrack("current")
	state := domain.NewPlayerState(guildID, snowflake.ID(100), snowflake.ID(200))
	_ = state.StartTrack(track)
	repo.Save(state)

	_ = bus.Publish(domain.TrackStartedEvent{GuildID: guildID, Track: track, NotificationChannelID: 200})
	bus.Close()

	if state.GetNowPlayingMessage() != nil {
		t.Error("expected no stored message after send failure")
	}
}

func TestNotificationEventHandler_PlayerStopped(t *testing.T) {
	tests := []struct {
		name        string
		event       domain.PlayerStoppedEvent
		wantDeleted []snowflake.ID
		wantInfo    int
	}{
		{
			name: "idle stop deletes message and notifies",
			event: domain.PlayerStoppedEvent{
				GuildID:               1,
				Reason:                domain.StopReasonIdle,
				NotificationChannelID: 200,
				NowPlayingMessage:     &domain.NowPlayingMessage{ChannelID: 200, MessageID: 42},
			},
			wantDeleted: []snowflake.ID{42},
			wantInfo:    1,
		},
		{
			name: "user stop deletes message silently",
			event: domain.PlayerStoppedEvent{
				GuildID:               1,
				Reason:                domain.StopReasonUser,
				NotificationChannelID: 200,
				NowPlayingMessage:     &domain.NowPlayingMessage{ChannelID: 200, MessageID: 43},
			},
			wantDeleted: []snowflake.ID{43},
		},
		{
			name: "shutdown deletes message silently",
			event: domain.PlayerStoppedEvent{
				GuildID:               2,
				Reason:                domain.StopReasonShutdown,
				NotificationChannelID: 200,
				NowPlayingMessage:     &domain.NowPlayingMessage{ChannelID: 200, MessageID: 44},
			},
			wantDeleted: []snowflake.ID{44},
		},
		{
			name: "disconnect without message",
			event: domain.PlayerStoppedEvent{
				GuildID: 1,
				Reason:  domain.StopReasonDisconnected,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus, _, notifier := newNotificationFixture(t)

			_ = bus.Publish(tt.event)
			bus.Close()

			deleted := notifier.getDeletedMessages()
			if len(deleted) != len(tt.wantDeleted) {
				t.Fatalf("expected deleted %v, got %v", tt.wantDeleted, deleted)
			}
			for i, id := range tt.wantDeleted {
				if deleted[i] != id {
					t.Errorf("expected deleted %d, got %d", id, deleted[i])
				}
			}
			if n := len(notifier.getSentInfo()); n != tt.wantInfo {
				t.Errorf("expected %d notices, got %d", tt.wantInfo, n)
			}
		})
	}
}
