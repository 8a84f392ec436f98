// Last.fm API implementation of [SimilarityOracle]
//
// Response shapes based on https://www.last.fm/api/show/track.getSimilar
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/mixtape/internal/shared"
	"golang.org/x/time/rate"
)

const lastfmBaseURL = "http://ws.audioscrobbler.com/2.0/"

// matchScore tolerates Last.fm's inconsistent encoding: track.getsimilar
// returns match as a JSON number, artist.getsimilar as a string.
type matchScore float64

func (m *matchScore) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid match score %q: %w", s, err)
	}
	*m = matchScore(v)
	return nil
}

type lastfmArtistRef struct {
	Name string `json:"name"`
}

type lastfmSimilarTrack struct {
	Name   string          `json:"name"`
	Match  matchScore      `json:"match"`
	Artist lastfmArtistRef `json:"artist"`
}

type lastfmSimilarArtist struct {
	Name  string     `json:"name"`
	Match matchScore `json:"match"`
}

// LastFMService implements the [SimilarityOracle] interface against the
// Last.fm API. Responses are memoized per query key for the process lifetime
// and requests are rate limited to stay inside the API's guidelines.
type LastFMService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	tracks     *shared.MemoCache[[]SimilarTrack]
	artists    *shared.MemoCache[[]SimilarArtist]
}

// NewLastFMService creates a new Last.fm oracle with the given API key.
func NewLastFMService(apiKey string, cacheSize int) *LastFMService {
	return &LastFMService{
		apiKey:     apiKey,
		baseURL:    lastfmBaseURL,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
		tracks:     shared.NewMemoCache[[]SimilarTrack](cacheSize),
		artists:    shared.NewMemoCache[[]SimilarArtist](cacheSize),
	}
}

// SetBaseURL overrides the API base URL. Test hook.
func (s *LastFMService) SetBaseURL(baseURL string) {
	s.baseURL = baseURL
}

func (s *LastFMService) Name() string {
	return "Last.fm"
}

// doRequest performs a rate-limited GET against the Last.fm API.
func (s *LastFMService) doRequest(ctx context.Context, params url.Values, result any) error {
	if s.apiKey == "" {
		return fmt.Errorf("%w: missing Last.fm API key", shared.ErrMissingCredentials)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}

	params.Set("api_key", s.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "mixtape/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: last.fm status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// SimilarTracks returns tracks similar to (artist, title) with match scores
// in [0,1]. Unknown tracks produce an empty slice, not an error: the API
// reports them via an in-band error code.
func (s *LastFMService) SimilarTracks(ctx context.Context, artist, title string, limit int) ([]SimilarTrack, error) {
	if artist == "" || title == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 30
	}

	key := fmt.Sprintf("track|%s|%d", shared.NormalizeTrackKey(artist, title), limit)
	if cached, ok := s.tracks.Get(key); ok {
		return cached, nil
	}

	params := url.Values{}
	params.Set("method", "track.getsimilar")
	params.Set("artist", artist)
	params.Set("track", title)
	params.Set("autocorrect", "1")
	params.Set("limit", strconv.Itoa(limit))

	var response struct {
		SimilarTracks struct {
			Track []lastfmSimilarTrack `json:"track"`
		} `json:"similartracks"`
		Error int `json:"error"`
	}

	if err := s.doRequest(ctx, params, &response); err != nil {
		return nil, err
	}

	// In-band error (e.g. code 6, track not found) means "no data", not failure.
	if response.Error != 0 {
		s.tracks.Put(key, nil)
		return nil, nil
	}

	results := make([]SimilarTrack, 0, len(response.SimilarTracks.Track))
	for _, t := range response.SimilarTracks.Track {
		if t.Name == "" || t.Artist.Name == "" {
			continue
		}
		results = append(results, SimilarTrack{
			Artist: t.Artist.Name,
			Title:  t.Name,
			Match:  clampUnit(float64(t.Match)),
		})
	}

	s.tracks.Put(key, results)
	return results, nil
}

// SimilarArtists returns artists similar to the named artist.
func (s *LastFMService) SimilarArtists(ctx context.Context, artist string, limit int) ([]SimilarArtist, error) {
	if artist == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	key := fmt.Sprintf("artist|%s|%d", strings.ToLower(strings.TrimSpace(artist)), limit)
	if cached, ok := s.artists.Get(key); ok {
		return cached, nil
	}

	params := url.Values{}
	params.Set("method", "artist.getsimilar")
	params.Set("artist", artist)
	params.Set("autocorrect", "1")
	params.Set("limit", strconv.Itoa(limit))

	var response struct {
		SimilarArtists struct {
			Artist []lastfmSimilarArtist `json:"artist"`
		} `json:"similarartists"`
		Error int `json:"error"`
	}

	if err := s.doRequest(ctx, params, &response); err != nil {
		return nil, err
	}

	if response.Error != 0 {
		s.artists.Put(key, nil)
		return nil, nil
	}

	results := make([]SimilarArtist, 0, len(response.SimilarArtists.Artist))
	for _, a := range response.SimilarArtists.Artist {
		if a.Name == "" {
			continue
		}
		results = append(results, SimilarArtist{
			Name:  a.Name,
			Match: clampUnit(float64(a.Match)),
		})
	}

	s.artists.Put(key, results)
	return results, nil
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
