// Package services defines the external collaborator interfaces for the playlist
// generation engine and implements them for Spotify and Last.fm.
//
// # Interfaces
//
// [Catalog] covers text search, bulk metadata and feature fetch, and the browse
// operations used for deep-cut discovery. [SimilarityOracle] covers pairwise
// track and artist similarity queries. The engine depends only on these
// interfaces, never on the concrete providers.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token refresh.
//
// The [oauth2.Client] automatically refreshes expired tokens using the refresh token.
// Two endpoints are restricted for newer app registrations and degrade rather
// than fail: audio features (403 yields an empty feature map) and related
// artists (403/404 yields an empty slice). Downstream scoring substitutes
// documented neutral constants when that happens.
//
// # Last.fm Implementation
//
// [LastFMService] wraps the track.getsimilar and artist.getsimilar methods.
// Unknown items are reported by the API as in-band error codes and surface as
// empty results, never as Go errors. Requests are rate limited with
// [rate.Limiter] and memoized per query key for the process lifetime.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrMissingCredentials] : credentials absent from config
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrTrackNotFound] : track id could not be resolved
package services
