package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"

	"github.com/sglre6355/dismusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/dismusic/internal/modules/music_player/domain"
)

func mockTrack(id string) *domain.Track {
	return &domain.Track{
		ID:          domain.TrackID(id),
		Encoded:     "encoded-" + id,
		Title:       "Track " + id,
		Author:      "Artist",
		Duration:    3 * time.Minute,
		RequesterID: snowflake.ID(123),
	}
}

type mockRepository struct {
	mu      sync.Mutex
	states  map[snowflake.ID]*domain.PlayerState
	deleted []snowflake.ID
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
	m.deleted = append(m.deleted, guildID)
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

// createConnectedState creates a PlayerState with the given IDs and saves it to the mock repository.
// Returns the state for further modification (e.g., adding tracks).
func (m *mockRepository) createConnectedState(
	guildID, voiceChannelID, notificationChannelID snowflake.ID,
) *domain.PlayerState {
	state := domain.NewPlayerState(guildID, voiceChannelID, notificationChannelID)
	m.Save(state)
	return state
}

// createPlayingState creates a connected state with a current track and the given queue.
func (m *mockRepository) createPlayingState(
	guildID, voiceChannelID, notificationChannelID snowflake.ID,
	queued ...*domain.Track,
) *domain.PlayerState {
	state := m.createConnectedState(guildID, voiceChannelID, notificationChannelID)
	_ = state.StartTrack(mockTrack("current"))
	state.Queue.Enqueue(queued...)
	return state
}

type mockAudioPlayer struct {
	mu         sync.Mutex
	played     []*domain.Track
	volumes    []int
	stopped    int
	destroyed  int
	playErr    error
	playErrFor map[domain.TrackID]error
	stopErr    error
	pauseErr   error
	resumeErr  error
	volumeErr  error
	destroyErr error

	paused bool   // backend paused flag
	onPlay func() // runs while Play is in flight
}

func (m *mockAudioPlayer) Play(
	_ context.Context,
	_ snowflake.ID,
	track *domain.Track,
	volume int,
) error {
	if m.onPlay != nil {
		m.onPlay()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.playErrFor[track.ID]; err != nil {
		return err
	}
	if m.playErr != nil {
		return m.playErr
	}
	m.played = append(m.played, track)
	m.volumes = append(m.volumes, volume)
	m.paused = false
	return nil
}

func (m *mockAudioPlayer) Stop(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped++
	return m.stopErr
}

func (m *mockAudioPlayer) Pause(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pauseErr != nil {
		return m.pauseErr
	}
	m.paused = true
	return nil
}

func (m *mockAudioPlayer) Resume(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resumeErr != nil {
		return m.resumeErr
	}
	m.paused = false
	return nil
}

func (m *mockAudioPlayer) isPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *mockAudioPlayer) SetVolume(_ context.Context, _ snowflake.ID, volume int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.volumeErr != nil {
		return m.volumeErr
	}
	m.volumes = append(m.volumes, volume)
	return nil
}

func (m *mockAudioPlayer) Destroy(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroyed++
	return m.destroyErr
}

func (m *mockAudioPlayer) playedIDs() []domain.TrackID {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]domain.TrackID, len(m.played))
	for i, t := range m.played {
		ids[i] = t.ID
	}
	return ids
}

type mockVoiceConnection struct {
	mu       sync.Mutex
	joined   []snowflake.ID
	left     int
	joinErr  error
	leaveErr error
}

func (m *mockVoiceConnection) JoinChannel(_ context.Context, _, channelID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.joinErr != nil {
		return m.joinErr
	}
	m.joined = append(m.joined, channelID)
	return nil
}

func (m *mockVoiceConnection) LeaveChannel(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.left++
	return m.leaveErr
}

type mockVoiceStateProvider struct {
	channels map[snowflake.ID]snowflake.ID // userID -> channelID
	err      error
}

func (m *mockVoiceStateProvider) GetUserVoiceChannel(
	_, userID snowflake.ID,
) (snowflake.ID, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.channels[userID], nil
}

type mockEventPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (m *mockEventPublisher) Publish(event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// published returns every published event of type T.
func published[T domain.Event](m *mockEventPublisher) []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []T
	for _, e := range m.events {
		if typed, ok := e.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

// mockNode is a ports.Node whose Search is scripted per call.
type mockNode struct {
	id     string
	load   int
	result *ports.LoadResult
	err    error
	block  bool // wait for ctx to expire

	mu      sync.Mutex
	queries []string
}

func (n *mockNode) ID() string { return n.id }
func (n *mockNode) Load() int  { return n.load }

func (n *mockNode) Search(ctx context.Context, query string) (*ports.LoadResult, error) {
	n.mu.Lock()
	n.queries = append(n.queries, query)
	n.mu.Unlock()

	if n.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if n.err != nil {
		return nil, n.err
	}
	return n.result, nil
}

func (n *mockNode) calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.queries...)
}

// mockNodePool keeps nodes in the given order.
type mockNodePool struct {
	mu      sync.Mutex
	nodes   []ports.Node
	removed []string
}

func newMockNodePool(nodes ...ports.Node) *mockNodePool {
	return &mockNodePool{nodes: nodes}
}

func (p *mockNodePool) ByLoad() []ports.Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ports.Node(nil), p.nodes...)
}

func (p *mockNodePool) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, n := range p.nodes {
		if n.ID() == id {
			p.nodes = append(p.nodes[:i], p.nodes[i+1:]...)
			p.removed = append(p.removed, id)
			return true
		}
	}
	return false
}

func (p *mockNodePool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.nodes)
}

func searchResult(titles ...string) *ports.LoadResult {
	tracks := make([]*ports.TrackInfo, len(titles))
	for i, title := range titles {
		tracks[i] = &ports.TrackInfo{
			Identifier: "id-" + title,
			Encoded:    "enc-" + title,
			Title:      title,
			Artist:     "Artist",
			Duration:   time.Minute,
			SourceName: "youtube",
		}
	}
	return &ports.LoadResult{Type: ports.LoadTypeSearch, Tracks: tracks}
}
