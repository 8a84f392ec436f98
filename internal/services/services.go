// package services defines the external collaborator interfaces for playlist generation
//
// Spotify (catalog), Last.fm (similarity oracle)
package services

import (
	"context"

	"github.com/desertthunder/mixtape/internal/models"
)

// SimilarityOracle exposes pairwise similarity queries over an external
// service. Queries are idempotent and retry-safe; unknown items produce an
// empty result, not an error.
type SimilarityOracle interface {
	// SimilarTracks returns up to limit tracks similar to (artist, title),
	// each with a match score in [0,1].
	SimilarTracks(ctx context.Context, artist, title string, limit int) ([]SimilarTrack, error)

	// SimilarArtists returns up to limit artists similar to the named artist.
	SimilarArtists(ctx context.Context, artist string, limit int) ([]SimilarArtist, error)

	// Name returns the name of the oracle provider (e.g., "Last.fm")
	Name() string
}

// Catalog exposes text search, bulk metadata/feature fetch, and browse
// operations against an external music catalog.
type Catalog interface {
	// ResolveTrack finds the best catalog match for an (artist, title) pair.
	// Returns (nil, nil) when nothing matches.
	ResolveTrack(ctx context.Context, artist, title string) (*models.Track, error)

	// SearchTracks performs a free-text track search.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)

	// SearchTracksByGenre searches for tracks tagged with the given genre.
	SearchTracksByGenre(ctx context.Context, genre string, limit int) ([]models.Track, error)

	// SeveralTracks fetches up to 50 tracks by id in one call.
	// Unknown ids are omitted from the result, not errors.
	SeveralTracks(ctx context.Context, trackIDs []string) ([]models.Track, error)

	// AudioFeatures fetches feature vectors keyed by track id. The provider
	// may withhold features entirely; an empty map is never fatal.
	AudioFeatures(ctx context.Context, trackIDs []string) (map[string]models.Features, error)

	// SeveralArtists fetches artist objects (with genres) by id.
	SeveralArtists(ctx context.Context, artistIDs []string) ([]models.Artist, error)

	// RelatedArtists returns artists related to the given artist id.
	RelatedArtists(ctx context.Context, artistID string) ([]models.Artist, error)

	// ArtistAlbums lists an artist's albums for deep-cut browsing.
	ArtistAlbums(ctx context.Context, artistID string, limit int) ([]Album, error)

	// AlbumTracks lists the tracks of an album.
	AlbumTracks(ctx context.Context, albumID string) ([]models.Track, error)

	// ArtistTopTracks returns an artist's most popular tracks.
	ArtistTopTracks(ctx context.Context, artistID string) ([]models.Track, error)

	// CreatePlaylist creates a playlist on the catalog service and adds the
	// given tracks. Not idempotent; callers must never silently retry.
	CreatePlaylist(ctx context.Context, name, description string, trackIDs []string) (*CreatedPlaylist, error)

	// Name returns the name of the catalog provider (e.g., "Spotify")
	Name() string
}

// SimilarTrack is one similarity query result. Identity is name-based
// because the oracle only accepts names, not catalog ids.
type SimilarTrack struct {
	Artist string
	Title  string
	Match  float64 // similarity in [0,1]
}

// SimilarArtist is one artist similarity result.
type SimilarArtist struct {
	Name  string
	Match float64
}

// Album represents a catalog album in browse listings.
type Album struct {
	ID          string
	Name        string
	ArtistID    string
	ArtistName  string
	TotalTracks int
	ReleaseDate string
}

// CreatedPlaylist describes a playlist created on the catalog service.
type CreatedPlaylist struct {
	ID   string
	Name string
	URL  string
}
