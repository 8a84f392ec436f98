package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/mixtape/internal/shared"
)

func newTestSpotify(t *testing.T, handler http.Handler) *SpotifyService {
	t.Helper()

	srv, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	}, 16)
	if err != nil {
		t.Fatalf("NewSpotifyService() error = %v", err)
	}

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	srv.SetBaseURL(server.URL)
	if err := srv.Authenticate(context.Background(), map[string]string{"access_token": "test_token"}); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	srv.SetBaseClient(server.Client())

	return srv
}

func spotifyTrackJSON(id, title, artistID, artistName string) map[string]any {
	return map[string]any{
		"id":   id,
		"name": title,
		"artists": []map[string]any{
			{"id": artistID, "name": artistName},
		},
		"album":      map[string]any{"id": "alb", "name": "Album"},
		"popularity": 50,
	}
}

func TestNewSpotifyService(t *testing.T) {
	t.Run("With Valid Credentials", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
			"redirect_uri":  "http://localhost:9999/cb",
		}, 16)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if srv.Name() != "Spotify" {
			t.Errorf("expected service name 'Spotify', got %s", srv.Name())
		}
		if srv.config.RedirectURL != "http://localhost:9999/cb" {
			t.Errorf("unexpected redirect URI %s", srv.config.RedirectURL)
		}
	})

	t.Run("Missing Client ID", func(t *testing.T) {
		_, err := NewSpotifyService(map[string]string{"client_secret": "s"}, 16)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Missing Client Secret", func(t *testing.T) {
		_, err := NewSpotifyService(map[string]string{"client_id": "c"}, 16)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Default Redirect URI", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "c",
			"client_secret": "s",
		}, 16)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if srv.config.RedirectURL != "http://localhost:8080/callback" {
			t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
		}
	})
}

func TestSpotifyGetAuthURL(t *testing.T) {
	srv, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	}, 16)
	if err != nil {
		t.Fatalf("NewSpotifyService() error = %v", err)
	}

	authURL := srv.GetAuthURL("state123")
	for _, want := range []string{"accounts.spotify.com/authorize", "client_id=test_client_id", "state=state123"} {
		if !strings.Contains(authURL, want) {
			t.Errorf("auth URL missing %q: %s", want, authURL)
		}
	}
}

func TestSpotifyAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("With Access Token", func(t *testing.T) {
		srv, _ := NewSpotifyService(map[string]string{"client_id": "c", "client_secret": "s"}, 16)
		if err := srv.Authenticate(ctx, map[string]string{"access_token": "tok"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if srv.Token() == nil || srv.Token().AccessToken != "tok" {
			t.Errorf("token not set: %+v", srv.Token())
		}
	})

	t.Run("Without Credentials", func(t *testing.T) {
		srv, _ := NewSpotifyService(map[string]string{"client_id": "c", "client_secret": "s"}, 16)
		if err := srv.Authenticate(ctx, map[string]string{}); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Requests Before Authenticate Fail", func(t *testing.T) {
		srv, _ := NewSpotifyService(map[string]string{"client_id": "c", "client_secret": "s"}, 16)
		if _, err := srv.SearchTracks(ctx, "anything", 5); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestSpotifySearchTracks(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns Matches", func(t *testing.T) {
		srv := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/search") {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer test_token" {
				t.Errorf("unexpected auth header %q", got)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"tracks": map[string]any{
					"items": []map[string]any{
						spotifyTrackJSON("t1", "Weird Fishes", "a1", "Radiohead"),
						{"id": "", "name": "local file"},
					},
				},
			})
		}))

		tracks, err := srv.SearchTracks(ctx, "weird fishes", 5)
		if err != nil {
			t.Fatalf("SearchTracks() error = %v", err)
		}
		if len(tracks) != 1 {
			t.Fatalf("expected 1 track (empty id skipped), got %d", len(tracks))
		}
		if tracks[0].ID != "t1" || tracks[0].PrimaryArtist() != "Radiohead" {
			t.Errorf("unexpected track %+v", tracks[0])
		}
		if tracks[0].Popularity == nil || *tracks[0].Popularity != 50 {
			t.Errorf("popularity not carried over: %+v", tracks[0].Popularity)
		}
	})

	t.Run("Clamps Limit", func(t *testing.T) {
		srv := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("limit"); got != "50" {
				t.Errorf("expected limit clamped to 50, got %s", got)
			}
			json.NewEncoder(w).Encode(map[string]any{"tracks": map[string]any{"items": []any{}}})
		}))

		if _, err := srv.SearchTracks(ctx, "q", 500); err != nil {
			t.Fatalf("SearchTracks() error = %v", err)
		}
	})

	t.Run("Server Error", func(t *testing.T) {
		srv := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		if _, err := srv.SearchTracks(ctx, "q", 5); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestSpotifyResolveTrack(t *testing.T) {
	ctx := context.Background()

	t.Run("Prefers Artist Match", func(t *testing.T) {
		srv := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"tracks": map[string]any{
					"items": []map[string]any{
						spotifyTrackJSON("cover", "Creep", "a9", "Karaoke Stars"),
						spotifyTrackJSON("orig", "Creep", "a1", "Radiohead"),
					},
				},
			})
		}))

		track, err := srv.ResolveTrack(ctx, "Radiohead", "Creep")
		if err != nil {
			t.Fatalf("ResolveTrack() error = %v", err)
		}
		if track == nil || track.ID != "orig" {
			t.Errorf("expected artist-matched result, got %+v", track)
		}
	})

	t.Run("Falls Back To First Result", func(t *testing.T) {
		srv := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"tracks": map[string]any{
					"items": []map[string]any{
						spotifyTrackJSON("first", "Creep", "a9", "Somebody Else"),
					},
				},
			})
		}))

		track, err := srv.ResolveTrack(ctx, "Radiohead", "Creep")
		if err != nil {
			t.Fatalf("ResolveTrack() error = %v", err)
		}
		if track == nil || track.ID != "first" {
			t.Errorf("expected first result, got %+v", track)
		}
	})

	t.Run("No Results", func(t *testing.T) {
		srv := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"tracks": map[string]any{"items": []any{}}})
		}))

		track, err := srv.ResolveTrack(ctx, "Nobody", "Nothing")
		if err != nil {
			t.Fatalf("ResolveTrack() error = %v", err)
		}
		if track != nil {
			t.Errorf("expected nil for no matches, got %+v", track)
		}
	})
}

func TestSpotifySeveralTracks(t *testing.T) {
	ctx := context.Background()

	t.Run("Skips Null Entries", func(t *testing.T) {
		srv := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"tracks": []any{
					spotifyTrackJSON("t1", "One", "a1", "Artist"),
					nil,
					spotifyTrackJSON("t2", "Two", "a1", "Artist"),
				},
			})
		}))

		tracks, err := srv.SeveralTracks(ctx, []string{"t1", "ghost", "t2"})
		if err != nil {
			t.Fatalf("SeveralTracks() error = %v", err)
		}
		if len(tracks) != 2 {
			t.Errorf("expected 2 tracks, got %d", len(tracks))
		}
	})

	t.Run("Validates Input", func(t *testing.T) {
		srv := newTestSpotify(t, http.NotFoundHandler())

		if _, err := srv.SeveralTracks(ctx, nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for empty input, got %v", err)
		}

		too := make([]string, 51)
		for i := range too {
			too[i] = fmt.Sprintf("t%d", i)
		}
		if _, err := srv.SeveralTracks(ctx, too); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for oversized batch, got %v", err)
		}
	})
}

func TestSpotifyAudioFeatures(t *testing.T) {
	ctx := context.Background()

	t.Run("Maps Features By ID", func(t *testing.T) {
		srv := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"audio_features": []any{
					map[string]any{"id": "t1", "energy": 0.8, "valence": 0.6, "tempo": 128.0},
					nil,
				},
			})
		}))

		features, err := srv.AudioFeatures(ctx, []string{"t1", "t2"})
		if err != nil {
			t.Fatalf("AudioFeatures() error = %v", err)
		}
		if len(features) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(features))
		}
		f := features["t1"]
		if f.Energy == nil || *f.Energy != 0.8 || f.Tempo == nil || *f.Tempo != 128 {
			t.Errorf("unexpected features %+v", f)
		}
	})

	t.Run("Forbidden Degrades To Empty", func(t *testing.T) {
		srv := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))

		features, err := srv.AudioFeatures(ctx, []string{"t1"})
		if err != nil {
			t.Fatalf("expected graceful degradation, got %v", err)
		}
		if len(features) != 0 {
			t.Errorf("expected empty map, got %v", features)
		}
	})

	t.Run("Memoizes", func(t *testing.T) {
		calls := 0
		srv := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			json.NewEncoder(w).Encode(map[string]any{
				"audio_features": []any{
					map[string]any{"id": "t1", "energy": 0.5},
				},
			})
		}))

		for range 3 {
			if _, err := srv.AudioFeatures(ctx, []string{"t1"}); err != nil {
				t.Fatalf("AudioFeatures() error = %v", err)
			}
		}
		if calls != 1 {
			t.Errorf("expected 1 upstream call, got %d", calls)
		}
	})

	t.Run("Empty Input Short Circuits", func(t *testing.T) {
		srv := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected for empty input")
		}))

		features, err := srv.AudioFeatures(ctx, nil)
		if err != nil || len(features) != 0 {
			t.Errorf("expected empty result, got %v, %v", features, err)
		}
	})
}

func TestSpotifyRelatedArtists(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns Artists", func(t *testing.T) {
		srv := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/artists/a1/related-artists" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"artists": []map[string]any{
					{"id": "a2", "name": "Thom Yorke", "genres": []string{"art rock"}},
				},
			})
		}))

		artists, err := srv.RelatedArtists(ctx, "a1")
		if err != nil {
			t.Fatalf("RelatedArtists() error = %v", err)
		}
		if len(artists) != 1 || artists[0].Name != "Thom Yorke" {
			t.Errorf("unexpected artists %+v", artists)
		}
	})

	t.Run("Restricted Endpoint Degrades", func(t *testing.T) {
		for _, status := range []int{http.StatusForbidden, http.StatusNotFound} {
			srv := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))

			artists, err := srv.RelatedArtists(ctx, "a1")
			if err != nil {
				t.Fatalf("status %d: expected graceful degradation, got %v", status, err)
			}
			if len(artists) != 0 {
				t.Errorf("status %d: expected no artists, got %+v", status, artists)
			}
		}
	})

	t.Run("Memoizes", func(t *testing.T) {
		calls := 0
		srv := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			json.NewEncoder(w).Encode(map[string]any{"artists": []any{}})
		}))

		srv.RelatedArtists(ctx, "a1")
		srv.RelatedArtists(ctx, "a1")
		if calls != 1 {
			t.Errorf("expected 1 upstream call, got %d", calls)
		}
	})
}

func TestSpotifyArtistAlbums(t *testing.T) {
	srv := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("include_groups"); got != "album" {
			t.Errorf("expected album filter, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"id": "alb1", "name": "In Rainbows", "total_tracks": 10,
					"release_date": "2007-10-10",
					"artists":      []map[string]any{{"id": "a1", "name": "Radiohead"}},
				},
			},
		})
	}))

	albums, err := srv.ArtistAlbums(context.Background(), "a1", 20)
	if err != nil {
		t.Fatalf("ArtistAlbums() error = %v", err)
	}
	if len(albums) != 1 {
		t.Fatalf("expected 1 album, got %d", len(albums))
	}
	if albums[0].Name != "In Rainbows" || albums[0].ArtistName != "Radiohead" || albums[0].TotalTracks != 10 {
		t.Errorf("unexpected album %+v", albums[0])
	}
}

func TestSpotifyAlbumTracks(t *testing.T) {
	srv := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// simplified track objects carry no popularity
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"id": "t1", "name": "15 Step",
					"artists": []map[string]any{{"id": "a1", "name": "Radiohead"}},
				},
			},
		})
	}))

	tracks, err := srv.AlbumTracks(context.Background(), "alb1")
	if err != nil {
		t.Fatalf("AlbumTracks() error = %v", err)
	}
	if len(tracks) != 1 || tracks[0].Title != "15 Step" {
		t.Fatalf("unexpected tracks %+v", tracks)
	}
	if tracks[0].Popularity != nil {
		t.Errorf("expected nil popularity on simplified track, got %v", *tracks[0].Popularity)
	}
}

func TestSpotifyCreatePlaylist(t *testing.T) {
	var addCalls []int
	srv := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me":
			json.NewEncoder(w).Encode(map[string]any{"id": "user1", "display_name": "Tester"})
		case "/users/user1/playlists":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if body["public"] != false {
				t.Error("playlist should be private")
			}
			json.NewEncoder(w).Encode(map[string]any{
				"id": "pl1", "name": body["name"],
				"external_urls": map[string]any{"spotify": "https://open.spotify.com/playlist/pl1"},
			})
		case "/playlists/pl1/tracks":
			var body struct {
				URIs []string `json:"uris"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			addCalls = append(addCalls, len(body.URIs))
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	trackIDs := make([]string, 150)
	for i := range trackIDs {
		trackIDs[i] = fmt.Sprintf("t%d", i)
	}

	created, err := srv.CreatePlaylist(context.Background(), "Mixtape", "generated", trackIDs)
	if err != nil {
		t.Fatalf("CreatePlaylist() error = %v", err)
	}
	if created.ID != "pl1" || created.URL == "" {
		t.Errorf("unexpected playlist %+v", created)
	}
	if len(addCalls) != 2 || addCalls[0] != 100 || addCalls[1] != 50 {
		t.Errorf("expected batches of 100 and 50, got %v", addCalls)
	}
}
