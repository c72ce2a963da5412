package usecases

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/dismusic/internal/modules/music_player/domain"
)

func tracksN(n int) []*domain.Track {
	tracks := make([]*domain.Track, n)
	for i := range n {
		tracks[i] = mockTrack(fmt.Sprintf("t%d", i))
	}
	return tracks
}

func TestQueueService_Add(t *testing.T) {
	tests := []struct {
		name         string
		setupRepo    func(*mockRepository)
		tracks       []*domain.Track
		wantErr      error
		wantCount    int
		wantPosition int
		wantWasIdle  bool
		wantEvents   int
	}{
		{
			name: "add to idle player",
			setupRepo: func(m *mockRepository) {
				m.createConnectedState(testGuildID, testVoiceChannelID, testTextChannelID)
			},
			tracks:       tracksN(1),
			wantCount:    1,
			wantPosition: 1,
			wantWasIdle:  true,
			wantEvents:   1,
		},
		{
			name: "add behind queued tracks",
			setupRepo: func(m *mockRepository) {
				m.createPlayingState(testGuildID, testVoiceChannelID, testTextChannelID, mockTrack("a"), mockTrack("b"))
			},
			tracks:       tracksN(3),
			wantCount:    3,
			wantPosition: 3,
			wantEvents:   1,
		},
		{
			name: "no tracks",
			setupRepo: func(m *mockRepository) {
				m.createConnectedState(testGuildID, testVoiceChannelID, testTextChannelID)
			},
		},
		{
			name:    "not connected",
			tracks:  tracksN(1),
			wantErr: ErrNotConnected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			publisher := &mockEventPublisher{}
			if tt.setupRepo != nil {
				tt.setupRepo(repo)
			}

			service := NewQueueService(repo, publisher)
			out, err := service.Add(context.Background(), QueueAddInput{
				GuildID: testGuildID,
				Tracks:  tt.tracks,
			})

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr != nil {
				return
			}

			if out.Count != tt.wantCount {
				t.Errorf("expected count %d, got %d", tt.wantCount, out.Count)
			}
			if out.Position != tt.wantPosition {
				t.Errorf("expected position %d, got %d", tt.wantPosition, out.Position)
			}
			if out.WasIdle != tt.wantWasIdle {
				t.Errorf("expected wasIdle %v, got %v", tt.wantWasIdle, out.WasIdle)
			}

			events := published[domain.TrackEnqueuedEvent](publisher)
			if len(events) != tt.wantEvents {
				t.Fatalf("expected %d events, got %d", tt.wantEvents, len(events))
			}
			if tt.wantEvents > 0 {
				if events[0].Count != tt.wantCount || events[0].WasIdle != tt.wantWasIdle {
					t.Errorf("unexpected event %+v", events[0])
				}
			}
		})
	}
}

func TestQueueService_Add_PreservesOrder(t *testing.T) {
	repo := newMockRepository()
	state := repo.createConnectedState(testGuildID, testVoiceChannelID, testTextChannelID)
	service := NewQueueService(repo, nil)

	first := tracksN(3)
	second := []*domain.Track{mockTrack("x"), mockTrack("y")}

	for _, batch := range [][]*domain.Track{first, second} {
		if _, err := service.Add(context.Background(), QueueAddInput{GuildID: testGuildID, Tracks: batch}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	want := []domain.TrackID{"t0", "t1", "t2", "x", "y"}
	got := state.Queue.List()
	if len(got) != len(want) {
		t.Fatalf("expected %d tracks, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestQueueService_List(t *testing.T) {
	tests := []struct {
		name           string
		queued         int
		page           int
		pageSize       int
		wantPage       int
		wantTotalPages int
		wantPageTracks int
		wantFirst      domain.TrackID
	}{
		{name: "empty queue", page: 1, wantPage: 1, wantTotalPages: 1},
		{name: "single page", queued: 3, page: 1, wantPage: 1, wantTotalPages: 1, wantPageTracks: 3, wantFirst: "t0"},
		{name: "second page", queued: 25, page: 2, wantPage: 2, wantTotalPages: 3, wantPageTracks: 10, wantFirst: "t10"},
		{name: "last partial page", queued: 25, page: 3, wantPage: 3, wantTotalPages: 3, wantPageTracks: 5, wantFirst: "t20"},
		{name: "page clamped high", queued: 25, page: 9, wantPage: 3, wantTotalPages: 3, wantPageTracks: 5, wantFirst: "t20"},
		{name: "page clamped low", queued: 5, page: 0, wantPage: 1, wantTotalPages: 1, wantPageTracks: 5, wantFirst: "t0"},
		{name: "custom page size", queued: 5, page: 2, pageSize: 2, wantPage: 2, wantTotalPages: 3, wantPageTracks: 2, wantFirst: "t2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			repo.createPlayingState(testGuildID, testVoiceChannelID, testTextChannelID, tracksN(tt.queued)...)
			service := NewQueueService(repo, nil)

			out, err := service.List(QueueListInput{
				GuildID:  testGuildID,
				Page:     tt.page,
				PageSize: tt.pageSize,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if out.CurrentPage != tt.wantPage {
				t.Errorf("expected page %d, got %d", tt.wantPage, out.CurrentPage)
			}
			if out.TotalPages != tt.wantTotalPages {
				t.Errorf("expected %d pages, got %d", tt.wantTotalPages, out.TotalPages)
			}
			if out.TotalTracks != tt.queued {
				t.Errorf("expected %d total tracks, got %d", tt.queued, out.TotalTracks)
			}
			if len(out.Tracks) != tt.wantPageTracks {
				t.Fatalf("expected %d tracks on page, got %d", tt.wantPageTracks, len(out.Tracks))
			}
			if tt.wantFirst != "" && out.Tracks[0].ID != tt.wantFirst {
				t.Errorf("expected first track %s, got %s", tt.wantFirst, out.Tracks[0].ID)
			}
			if out.CurrentTrack == nil || out.CurrentTrack.ID != "current" {
				t.Errorf("expected current track, got %v", out.CurrentTrack)
			}
		})
	}
}

func TestQueueService_List_DoesNotMutate(t *testing.T) {
	repo := newMockRepository()
	state := repo.createPlayingState(testGuildID, testVoiceChannelID, testTextChannelID, tracksN(4)...)
	service := NewQueueService(repo, nil)

	for range 3 {
		if _, err := service.List(QueueListInput{GuildID: testGuildID, Page: 1}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if state.Queue.Len() != 4 {
		t.Errorf("expected queue to be unchanged, got %d tracks", state.Queue.Len())
	}
}

func TestQueueService_List_NotConnected(t *testing.T) {
	service := NewQueueService(newMockRepository(), nil)

	if _, err := service.List(QueueListInput{GuildID: testGuildID}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestQueueService_Clear(t *testing.T) {
	repo := newMockRepository()
	state := repo.createPlayingState(testGuildID, testVoiceChannelID, testTextChannelID, tracksN(4)...)
	service := NewQueueService(repo, nil)

	out, err := service.Clear(context.Background(), QueueClearInput{
		GuildID:               testGuildID,
		NotificationChannelID: snowflake.ID(55),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.ClearedCount != 4 {
		t.Errorf("expected 4 cleared, got %d", out.ClearedCount)
	}
	if !state.Queue.IsEmpty() {
		t.Error("expected empty queue")
	}
	if !state.HasTrack() {
		t.Error("current track must keep playing")
	}
	if state.GetNotificationChannelID() != 55 {
		t.Errorf("expected notification channel 55, got %d", state.GetNotificationChannelID())
	}
}
