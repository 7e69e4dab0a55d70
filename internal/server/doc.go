// Package server captures the OAuth2 authorization-code redirect on a loopback port.
//
// # Redirect Capture
//
// [Bind] opens a TCP listener on 127.0.0.1 and [RedirectListener.Capture] runs a blocking accept loop.
// Each connection is handled inline: the request is read into a bounded buffer, checked for valid UTF-8,
// and the second whitespace-delimited token of the request line is taken as the path.
//
// A connection that fails either check is answered with 400 and the loop keeps listening, so a stray
// probe or a favicon request cannot end the flow. The first parseable request is answered with 200 and
// the confirmation page, and its path is returned. The listener is closed on every exit path.
//
// This is deliberately not an [net/http.Server]: exactly one useful response is ever served.
//
// # Timeouts
//
// Capture has no timeout of its own. Callers bound it with a context deadline; cancellation closes the
// listener to unblock Accept.
//
// # Callback Parsing
//
// [ParseCallback] checks the state parameter (CSRF protection) and extracts the authorization code, or
// surfaces the error and error_description the authorization server sent back.
// Exchanging the code for tokens belongs to the services package.
package server
