package download

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTooManyRedirects is returned when a redirect chain exceeds the hop limit.
	ErrTooManyRedirects = errors.New("too many redirects")
	// ErrBadRedirect is returned for a redirect without a usable Location.
	ErrBadRedirect = errors.New("invalid redirect")
)

// UnexpectedStatusError reports a final response outside 2xx.
type UnexpectedStatusError struct {
	StatusCode int
	URL        string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s from %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}
