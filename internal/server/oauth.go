package server

import (
	"fmt"
	"net/url"

	"github.com/desertthunder/spt/internal/shared"
)

// Callback holds the query parameters of an OAuth authorization-code redirect.
type Callback struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// ParseCallback validates a captured redirect path against the expected state token and extracts the code.
//
// An empty expected state skips the CSRF check.
func ParseCallback(raw, state string) (*Callback, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedRequest, err)
	}

	q := u.Query()
	cb := &Callback{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}

	if state != "" && cb.State != state {
		return cb, shared.ErrInvalidState
	}

	if cb.Code == "" {
		if cb.Error == "" {
			return cb, fmt.Errorf("%w: redirect carried no code", shared.ErrAuthFailed)
		}
		return cb, fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, cb.Error, cb.ErrorDescription)
	}

	return cb, nil
}
