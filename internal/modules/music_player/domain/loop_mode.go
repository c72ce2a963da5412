package domain

import "strings"

// LoopMode represents the loop mode for queue playback.
type LoopMode int

const (
	LoopModeNone     LoopMode = iota // Default: advance normally
	LoopModeCurrent                  // Replay the current track indefinitely
	LoopModePlaylist                 // Replay the played tracks once the queue drains
)

// String returns the canonical name of the loop mode.
func (m LoopMode) String() string {
	switch m {
	case LoopModeCurrent:
		return "CURRENT"
	case LoopModePlaylist:
		return "PLAYLIST"
	default:
		return "NONE"
	}
}

// Next returns the successor in the cycle None -> Current -> Playlist -> None.
func (m LoopMode) Next() LoopMode {
	switch m {
	case LoopModeNone:
		return LoopModeCurrent
	case LoopModeCurrent:
		return LoopModePlaylist
	default:
		return LoopModeNone
	}
}

// ParseLoopMode converts a loop mode name, in any case, to a LoopMode.
func ParseLoopMode(s string) (LoopMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NONE":
		return LoopModeNone, nil
	case "CURRENT":
		return LoopModeCurrent, nil
	case "PLAYLIST":
		return LoopModePlaylist, nil
	default:
		return LoopModeNone, ErrInvalidLoopMode
	}
}
