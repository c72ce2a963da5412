package domain

import "strings"

// Provider selects the search strategy used to resolve a query.
type Provider string

const (
	ProviderYouTube         Provider = "yt"
	ProviderYouTubePlaylist Provider = "ytpl"
	ProviderYouTubeMusic    Provider = "ytmusic"
	ProviderSoundCloud      Provider = "soundcloud"
	ProviderSpotify         Provider = "spotify"
)

// DefaultProvider is used when neither the request nor the player names one.
const DefaultProvider = ProviderYouTube

// SearchStrategy describes how a provider turns a plain query into a backend identifier.
type SearchStrategy struct {
	// Prefix is prepended to non-URL queries, e.g. "ytsearch".
	Prefix string
	// ExpectsPlaylist is true when the provider resolves to a whole playlist.
	ExpectsPlaylist bool
}

var searchStrategies = map[Provider]SearchStrategy{
	ProviderYouTube:         {Prefix: "ytsearch"},
	ProviderYouTubePlaylist: {Prefix: "ytsearch", ExpectsPlaylist: true},
	ProviderYouTubeMusic:    {Prefix: "ytmsearch"},
	ProviderSoundCloud:      {Prefix: "scsearch"},
	ProviderSpotify:         {Prefix: "spsearch"},
}

// Providers returns every supported provider in display order.
func Providers() []Provider {
	return []Provider{
		ProviderYouTube,
		ProviderYouTubePlaylist,
		ProviderYouTubeMusic,
		ProviderSoundCloud,
		ProviderSpotify,
	}
}

// ParseProvider converts a provider key into a Provider.
func ParseProvider(key string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(key)))
	if _, ok := searchStrategies[p]; !ok {
		return "", ErrUnknownProvider
	}
	return p, nil
}

// Strategy returns the search strategy for the provider.
func (p Provider) Strategy() SearchStrategy {
	return searchStrategies[p]
}

// ResolveProvider picks the provider for a query.
// requested wins over fallback; a plain YouTube search for a query that
// mentions "playlist" is treated as a playlist lookup.
func ResolveProvider(query string, requested, fallback Provider) Provider {
	provider := requested
	if provider == "" {
		provider = fallback
	}
	if provider == "" {
		provider = DefaultProvider
	}

	if provider == ProviderYouTube && strings.Contains(query, "playlist") {
		return ProviderYouTubePlaylist
	}
	return provider
}
