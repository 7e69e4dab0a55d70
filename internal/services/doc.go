// Package services defines the [Player] interface for remote playback and implements it for Spotify.
//
// # Spotify Implementation
//
// [SpotifyService] authorizes with the OAuth2 authorization-code flow via golang.org/x/oauth2.
// The redirect itself is captured by the server package; this package only builds the auth URL and
// exchanges the code. Once authenticated, the [oauth2.TokenSource] refreshes expired access tokens.
//
// Every request waits on a [rate.Limiter] so a misbehaving caller cannot flood the Web API.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : no token installed
//   - [shared.ErrTokenExpired] : the API answered 401
//   - [shared.ErrAPIRequest] : any other non-2xx answer or transport failure
//
// # API Mappings
//
// Responses are decoded into Spotify* wire types and mapped to [Device], [Track] and [Playback].
// GET /me/player answers 204 when nothing is playing; [SpotifyService.CurrentPlayback] returns nil then.
package services
