package youtubeapi

import (
	"net/http"
	"strings"

	"github.com/onnwee/livechat/telemetry"
)

// quotaOp maps a request to its API operation name and declared quota cost.
// Costs follow the published YouTube Data API quota table; unknown paths are
// metered at 1 under "other".
type quotaOp struct {
	name string
	cost float64
}

var quotaCosts = map[string]quotaOp{
	"GET /youtube/v3/channels":           {"channels.list", 1},
	"GET /youtube/v3/search":             {"search.list", 100},
	"GET /youtube/v3/videos":             {"videos.list", 1},
	"GET /youtube/v3/liveChat/messages":  {"liveChatMessages.list", 5},
	"POST /youtube/v3/liveChat/messages": {"liveChatMessages.insert", 50},
}

// quotaMeter is an http.RoundTripper that records the estimated quota spend of
// every outgoing API call. It is composed once around the oauth transport at
// service construction.
type quotaMeter struct {
	base http.RoundTripper
}

func (m *quotaMeter) RoundTrip(req *http.Request) (*http.Response, error) {
	op := classifyQuotaOp(req.Method, req.URL.Path)
	if telemetry.QuotaUnitsUsed != nil {
		telemetry.QuotaUnitsUsed.WithLabelValues(op.name).Add(op.cost)
	}
	base := m.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

func classifyQuotaOp(method, path string) quotaOp {
	// test servers prefix paths differently; match on the API suffix
	for key, op := range quotaCosts {
		m, p, _ := strings.Cut(key, " ")
		if method == m && strings.HasSuffix(path, p) {
			return op
		}
	}
	return quotaOp{"other", 1}
}

// meteredClient wraps an oauth http client's transport with the quota meter.
func meteredClient(c *http.Client) *http.Client {
	cp := *c
	cp.Transport = &quotaMeter{base: c.Transport}
	return &cp
}
