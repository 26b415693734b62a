package youtubeapi

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	channelIDKey = "channel_id"
	liveChatKey  = "live_chat"
)

// liveChatRef is the resolved (live chat id, video id) pair. VideoID may be set
// while ChatID is empty when the broadcast exists but its chat is not accessible.
type liveChatRef struct {
	ChatID  string
	VideoID string
}

// discoveryCache holds the resolved channel id and live-chat reference under
// independent per-entry TTLs. The channel id changes rarely (long TTL); which
// video is live changes often (short TTL). Reads of an expired entry return
// absent; no janitor goroutine runs.
type discoveryCache struct {
	c *gocache.Cache
}

func newDiscoveryCache() *discoveryCache {
	return &discoveryCache{c: gocache.New(gocache.NoExpiration, 0)}
}

func (d *discoveryCache) ChannelID() (string, bool) {
	v, ok := d.c.Get(channelIDKey)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (d *discoveryCache) SetChannelID(id string, ttl time.Duration) {
	d.c.Set(channelIDKey, id, ttl)
}

func (d *discoveryCache) LiveChat() (liveChatRef, bool) {
	v, ok := d.c.Get(liveChatKey)
	if !ok {
		return liveChatRef{}, false
	}
	return v.(liveChatRef), true
}

func (d *discoveryCache) SetLiveChat(ref liveChatRef, ttl time.Duration) {
	d.c.Set(liveChatKey, ref, ttl)
}

func (d *discoveryCache) InvalidateLiveChat() {
	d.c.Delete(liveChatKey)
}
