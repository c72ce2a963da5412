package domain

// SourceKind represents the origin of a resolved track.
type SourceKind string

const (
	SourceKindYouTube         SourceKind = "youtube"
	SourceKindYouTubePlaylist SourceKind = "youtube_playlist"
	SourceKindYouTubeMusic    SourceKind = "youtube_music"
	SourceKindSoundCloud      SourceKind = "soundcloud"
	SourceKindSpotify         SourceKind = "spotify"
	SourceKindOther           SourceKind = "other"
)

// ParseSourceKind maps a backend source name to a SourceKind.
// The provider that produced the track refines YouTube results, since
// the backend reports every YouTube flavour as "youtube".
func ParseSourceKind(sourceName string, provider Provider) SourceKind {
	switch sourceName {
	case "youtube":
		switch provider {
		case ProviderYouTubePlaylist:
			return SourceKindYouTubePlaylist
		case ProviderYouTubeMusic:
			return SourceKindYouTubeMusic
		default:
			return SourceKindYouTube
		}
	case "soundcloud":
		return SourceKindSoundCloud
	case "spotify":
		return SourceKindSpotify
	default:
		return SourceKindOther
	}
}

// Color returns the embed color associated with the source.
func (s SourceKind) Color() int {
	switch s {
	case SourceKindYouTube, SourceKindYouTubePlaylist, SourceKindYouTubeMusic:
		return 0xFF0000
	case SourceKindSoundCloud:
		return 0xFF5500
	case SourceKindSpotify:
		return 0x1DB954
	default:
		return 0x5865F2
	}
}
