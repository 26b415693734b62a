package youtubeapi

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// isTransient classifies a remote-call failure as retryable: rate limits,
// server errors, and network failures. YouTube reports quota exhaustion as
// 403 with a rateLimit/quota reason rather than 429.
func isTransient(err error) bool {
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		if ge.Code == http.StatusTooManyRequests || ge.Code >= 500 {
			return true
		}
		if ge.Code == http.StatusForbidden {
			for _, e := range ge.Errors {
				if strings.Contains(e.Reason, "quota") || strings.Contains(e.Reason, "rateLimit") {
					return true
				}
			}
		}
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
