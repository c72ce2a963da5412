package presentation

import (
	"testing"

	"github.com/sglre6355/dismusic/internal/modules/music_player/application/usecases"
)

func TestCommands_UniqueNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, cmd := range Commands() {
		if seen[cmd.Name] {
			t.Errorf("duplicate command %q", cmd.Name)
		}
		seen[cmd.Name] = true
	}

	for _, name := range []string{"join", "play", "stop", "pause", "resume", "skip", "volume", "nowplaying", "queue", "loop"} {
		if !seen[name] {
			t.Errorf("missing command %q", name)
		}
	}
}

func TestProviderChoices(t *testing.T) {
	choices := providerChoices()
	providers := usecases.Providers()

	if len(choices) != len(providers) {
		t.Fatalf("expected %d choices, got %d", len(providers), len(choices))
	}
	for i, p := range providers {
		if choices[i].Value != string(p) {
			t.Errorf("choice %d: expected value %q, got %v", i, p, choices[i].Value)
		}
		if choices[i].Name == "" {
			t.Errorf("choice %d: expected display name", i)
		}
	}
}
