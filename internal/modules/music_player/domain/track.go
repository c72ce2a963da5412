package domain

import (
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
)

// TrackID is a unique identifier for a track in a queue.
type TrackID string

// Track represents a playable audio track.
// A Track is never modified after it has been resolved.
type Track struct {
	ID          TrackID
	Encoded     string // backend encoded track data
	Identifier  string // backend identifier, e.g. the YouTube video ID
	Title       string
	Author      string
	Duration    time.Duration
	URI         string
	ArtworkURL  string
	Source      SourceKind
	IsStream    bool
	RequesterID snowflake.ID
	EnqueuedAt  time.Time
}

// TrackParams holds the resolved metadata used to build a Track.
type TrackParams struct {
	Encoded     string
	Identifier  string
	Title       string
	Author      string
	Duration    time.Duration
	URI         string
	ArtworkURL  string
	Source      SourceKind
	IsStream    bool
	RequesterID snowflake.ID
}

// NewTrack creates a new Track with a fresh ID.
// Negative durations are reported by some backends for streams and are stored as zero.
func NewTrack(p TrackParams) *Track {
	duration := p.Duration
	if duration < 0 {
		duration = 0
	}

	return &Track{
		ID:          TrackID(uuid.NewString()),
		Encoded:     p.Encoded,
		Identifier:  p.Identifier,
		Title:       p.Title,
		Author:      p.Author,
		Duration:    duration,
		URI:         p.URI,
		ArtworkURL:  p.ArtworkURL,
		Source:      p.Source,
		IsStream:    p.IsStream,
		RequesterID: p.RequesterID,
		EnqueuedAt:  time.Now().UTC(),
	}
}

// IsValid returns true if the track has the minimum required fields.
func (t *Track) IsValid() bool {
	return t.Encoded != "" && t.Title != ""
}

// FormattedDuration returns the duration as a human-readable string (mm:ss or hh:mm:ss).
func (t *Track) FormattedDuration() string {
	if t.IsStream {
		return "LIVE"
	}

	totalSeconds := int(t.Duration.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
	}
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
