// Spotify API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
	URI    string   `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	URI         string          `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
//
// Popularity is a pointer because simplified track objects (album listings)
// omit the field.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Popularity *int            `json:"popularity"`
	URI        string          `json:"uri"`
}

// SpotifyAudioFeatures represents the audio feature vector of a track.
type SpotifyAudioFeatures struct {
	ID               string  `json:"id"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	Danceability     float64 `json:"danceability"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
}

// SpotifyService implements the [Catalog] interface for Spotify API interactions.
// Uses [oauth2] for authentication with automatic token refresh.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	baseURL    string
	httpClient *http.Client
	features   *shared.MemoCache[map[string]models.Features]
	related    *shared.MemoCache[[]models.Artist]
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, cacheSize int) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"playlist-read-private",
			"playlist-modify-private",
			"user-library-read",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		baseURL:    spotifyBaseURL,
		httpClient: http.DefaultClient,
		features:   shared.NewMemoCache[map[string]models.Features](cacheSize),
		related:    shared.NewMemoCache[[]models.Artist](cacheSize),
	}, nil
}

// Authenticate performs OAuth2 authentication with Spotify.
// Expects an "access_token", "refresh_token", or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.token = &oauth2.Token{AccessToken: accessToken}
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	if refreshToken, ok := credentials["refresh_token"]; ok && refreshToken != "" {
		token, err := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
		}
		s.token = token
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("failed to exchange auth code: %w", err)
		}
		s.token = token
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token, refresh_token, or auth_code", shared.ErrMissingCredentials)
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Token returns the current OAuth2 token, or nil before Authenticate.
func (s *SpotifyService) Token() *oauth2.Token {
	return s.token
}

// OAuthConfig exposes the OAuth2 config for the local callback server.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// SetBaseClient overrides the HTTP client used for API calls. Test hook.
func (s *SpotifyService) SetBaseClient(client *http.Client) {
	s.httpClient = client
}

// SetBaseURL overrides the API base URL. Test hook.
func (s *SpotifyService) SetBaseURL(baseURL string) {
	s.baseURL = baseURL
}

// statusError reports a non-2xx Spotify response. Callers that treat some
// statuses as non-fatal (restricted endpoints) match on it with errors.As.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("spotify status %d", e.code)
}

func (e *statusError) Unwrap() error {
	return shared.ErrAPIRequest
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := s.baseURL + endpoint

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// toModelTrack converts a Spotify track object to the domain model.
func toModelTrack(st SpotifyTrack) models.Track {
	track := models.Track{
		ID:         st.ID,
		Title:      st.Name,
		Album:      st.Album.Name,
		Popularity: st.Popularity,
	}

	for _, a := range st.Artists {
		track.Artists = append(track.Artists, models.Artist{ID: a.ID, Name: a.Name, Genres: a.Genres})
		track.Genres = append(track.Genres, a.Genres...)
	}

	return track
}

func toModelArtist(sa SpotifyArtist) models.Artist {
	return models.Artist{ID: sa.ID, Name: sa.Name, Genres: sa.Genres}
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchTracks performs a free-text track search.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	var response struct {
		Tracks struct {
			Items []SpotifyTrack `json:"items"`
		} `json:"tracks"`
	}

	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		if item.ID == "" {
			continue
		}
		tracks = append(tracks, toModelTrack(item))
	}

	return tracks, nil
}

// SearchTracksByGenre searches for tracks tagged with the given genre.
func (s *SpotifyService) SearchTracksByGenre(ctx context.Context, genre string, limit int) ([]models.Track, error) {
	return s.SearchTracks(ctx, fmt.Sprintf("genre:%q", genre), limit)
}

// ResolveTrack finds the best catalog match for an (artist, title) pair.
//
// Prefers a result whose artist name matches; falls back to the first result.
// Returns (nil, nil) when the search comes up empty.
func (s *SpotifyService) ResolveTrack(ctx context.Context, artist, title string) (*models.Track, error) {
	results, err := s.SearchTracks(ctx, fmt.Sprintf("%s %s", title, artist), 5)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	want := strings.ToLower(artist)
	for i, r := range results {
		for _, a := range r.Artists {
			got := strings.ToLower(a.Name)
			if strings.Contains(got, want) || strings.Contains(want, got) {
				return &results[i], nil
			}
		}
	}

	return &results[0], nil
}

// SeveralTracks retrieves multiple tracks by their IDs (up to 50).
// Null entries for unknown ids are omitted rather than treated as errors.
func (s *SpotifyService) SeveralTracks(ctx context.Context, trackIDs []string) ([]models.Track, error) {
	if len(trackIDs) == 0 {
		return nil, fmt.Errorf("%w: no track IDs provided", shared.ErrInvalidInput)
	}
	if len(trackIDs) > 50 {
		return nil, fmt.Errorf("%w: maximum 50 track IDs allowed", shared.ErrInvalidInput)
	}

	ids := strings.Join(trackIDs, ",")
	endpoint := fmt.Sprintf("/tracks?ids=%s", url.QueryEscape(ids))

	var response struct {
		Tracks []*SpotifyTrack `json:"tracks"`
	}

	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Tracks))
	for _, item := range response.Tracks {
		if item == nil || item.ID == "" {
			continue
		}
		tracks = append(tracks, toModelTrack(*item))
	}

	return tracks, nil
}

// AudioFeatures retrieves feature vectors for up to 100 tracks, keyed by id.
//
// Spotify restricts this endpoint for newer app registrations; a 403 yields
// an empty map so downstream scoring can degrade to neutral values.
func (s *SpotifyService) AudioFeatures(ctx context.Context, trackIDs []string) (map[string]models.Features, error) {
	if len(trackIDs) == 0 {
		return map[string]models.Features{}, nil
	}

	key := strings.Join(trackIDs, ",")
	if cached, ok := s.features.Get(key); ok {
		return cached, nil
	}

	endpoint := fmt.Sprintf("/audio-features?ids=%s", url.QueryEscape(key))

	var response struct {
		AudioFeatures []*SpotifyAudioFeatures `json:"audio_features"`
	}

	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusForbidden {
			return map[string]models.Features{}, nil
		}
		return nil, err
	}

	features := make(map[string]models.Features, len(response.AudioFeatures))
	for _, af := range response.AudioFeatures {
		if af == nil || af.ID == "" {
			continue
		}
		f := *af
		features[f.ID] = models.Features{
			Energy:           &f.Energy,
			Valence:          &f.Valence,
			Tempo:            &f.Tempo,
			Danceability:     &f.Danceability,
			Acousticness:     &f.Acousticness,
			Instrumentalness: &f.Instrumentalness,
		}
	}

	s.features.Put(key, features)
	return features, nil
}

// SeveralArtists retrieves multiple artists by their IDs (up to 50).
func (s *SpotifyService) SeveralArtists(ctx context.Context, artistIDs []string) ([]models.Artist, error) {
	if len(artistIDs) == 0 {
		return nil, nil
	}
	if len(artistIDs) > 50 {
		return nil, fmt.Errorf("%w: maximum 50 artist IDs allowed", shared.ErrInvalidInput)
	}

	ids := strings.Join(artistIDs, ",")
	endpoint := fmt.Sprintf("/artists?ids=%s", url.QueryEscape(ids))

	var response struct {
		Artists []*SpotifyArtist `json:"artists"`
	}

	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	artists := make([]models.Artist, 0, len(response.Artists))
	for _, item := range response.Artists {
		if item == nil || item.ID == "" {
			continue
		}
		artists = append(artists, toModelArtist(*item))
	}

	return artists, nil
}

// RelatedArtists returns artists related to the given artist id.
//
// The endpoint is restricted for newer app registrations; a 404 or 403
// yields an empty slice rather than an error.
func (s *SpotifyService) RelatedArtists(ctx context.Context, artistID string) ([]models.Artist, error) {
	if cached, ok := s.related.Get(artistID); ok {
		return cached, nil
	}

	endpoint := fmt.Sprintf("/artists/%s/related-artists", artistID)

	var response struct {
		Artists []SpotifyArtist `json:"artists"`
	}

	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		var se *statusError
		if errors.As(err, &se) && (se.code == http.StatusForbidden || se.code == http.StatusNotFound) {
			s.related.Put(artistID, nil)
			return nil, nil
		}
		return nil, err
	}

	artists := make([]models.Artist, 0, len(response.Artists))
	for _, item := range response.Artists {
		artists = append(artists, toModelArtist(item))
	}

	s.related.Put(artistID, artists)
	return artists, nil
}

// ArtistAlbums lists an artist's albums for deep-cut browsing.
func (s *SpotifyService) ArtistAlbums(ctx context.Context, artistID string, limit int) ([]Album, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/artists/%s/albums?include_groups=album&limit=%d", artistID, limit)

	var response struct {
		Items []SpotifyAlbum `json:"items"`
	}

	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	albums := make([]Album, 0, len(response.Items))
	for _, item := range response.Items {
		album := Album{
			ID:          item.ID,
			Name:        item.Name,
			TotalTracks: item.TotalTracks,
			ReleaseDate: item.ReleaseDate,
		}
		if len(item.Artists) > 0 {
			album.ArtistID = item.Artists[0].ID
			album.ArtistName = item.Artists[0].Name
		}
		albums = append(albums, album)
	}

	return albums, nil
}

// AlbumTracks lists the tracks of an album.
func (s *SpotifyService) AlbumTracks(ctx context.Context, albumID string) ([]models.Track, error) {
	endpoint := fmt.Sprintf("/albums/%s/tracks?limit=50", albumID)

	var response struct {
		Items []SpotifyTrack `json:"items"`
	}

	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Items))
	for _, item := range response.Items {
		if item.ID == "" {
			continue
		}
		tracks = append(tracks, toModelTrack(item))
	}

	return tracks, nil
}

// ArtistTopTracks returns an artist's most popular tracks.
func (s *SpotifyService) ArtistTopTracks(ctx context.Context, artistID string) ([]models.Track, error) {
	endpoint := fmt.Sprintf("/artists/%s/top-tracks?market=US", artistID)

	var response struct {
		Tracks []SpotifyTrack `json:"tracks"`
	}

	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Tracks))
	for _, item := range response.Tracks {
		if item.ID == "" {
			continue
		}
		tracks = append(tracks, toModelTrack(item))
	}

	return tracks, nil
}

// CreatePlaylist creates a private playlist for the authenticated user and
// adds the given tracks. Not idempotent: a failure is reported to the caller,
// never silently retried.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string, trackIDs []string) (*CreatedPlaylist, error) {
	user, err := s.UserProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      false,
	}

	var created struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		ExternalURLs struct {
			Spotify string `json:"spotify"`
		} `json:"external_urls"`
	}

	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(user.ID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	// Track additions go in batches of 100 (API limit).
	for start := 0; start < len(trackIDs); start += 100 {
		end := min(start+100, len(trackIDs))

		uris := make([]string, 0, end-start)
		for _, id := range trackIDs[start:end] {
			uris = append(uris, "spotify:track:"+id)
		}

		addBody := map[string]any{"uris": uris}
		addEndpoint := fmt.Sprintf("/playlists/%s/tracks", created.ID)
		if err := s.doRequest(ctx, http.MethodPost, addEndpoint, addBody, nil); err != nil {
			return nil, fmt.Errorf("failed to add tracks to playlist %s: %w", created.ID, err)
		}
	}

	return &CreatedPlaylist{
		ID:   created.ID,
		Name: created.Name,
		URL:  created.ExternalURLs.Spotify,
	}, nil
}
