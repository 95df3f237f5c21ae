/*
Package dnscache wraps a dial function so DNS resolutions are cached. An
ingest run opens hundreds of connections to the same archive host; caching
the resolved address avoids a lookup per download.
*/
package dnscache

import (
	"net"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// resolutionTTL is how long a cached resolution (or failure) is trusted
// before the next dial re-resolves the hostname.
const resolutionTTL = 5 * time.Minute

// DialFunc matches net.Dial's signature.
type DialFunc func(network, addr string) (net.Conn, error)

// Dial wraps wrapped with DNS-resolution caching bounded to maxEntries
// addresses. When a hostname has a fresh cache entry, wrapped is called
// with the resolved IP address instead of the hostname. Failed resolutions
// are cached too, so a dead host does not cost a lookup timeout on every
// download attempt. A nil wrapped uses net.Dial.
func Dial(wrapped DialFunc, maxEntries int) (DialFunc, error) {
	if wrapped == nil {
		wrapped = net.Dial
	}
	cache, err := lru.New(maxEntries)
	if err != nil {
		return nil, err
	}
	c := &cachingDialer{wrapped: wrapped, cache: cache}
	return c.dial, nil
}

type cachingDialer struct {
	wrapped DialFunc
	cache   *lru.Cache
	mu      sync.Mutex
}

// resolution is one cached dial outcome for a network+address pair.
type resolution struct {
	ipAddr     string
	err        error
	resolvedAt time.Time
}

func (r resolution) fresh() bool {
	return time.Since(r.resolvedAt) <= resolutionTTL
}

func (c *cachingDialer) dial(network, addr string) (net.Conn, error) {
	key := network + "|" + addr

	c.mu.Lock()
	entry, ok := c.cache.Get(key)
	c.mu.Unlock()

	if ok {
		res := entry.(resolution)
		if res.fresh() {
			if res.err != nil {
				return nil, res.err
			}
			return c.wrapped(network, res.ipAddr)
		}
	}

	return c.dialAndCache(key, network, addr)
}

// dialAndCache dials addr by hostname and records the outcome, replacing
// any stale entry for the same key.
func (c *cachingDialer) dialAndCache(key, network, addr string) (net.Conn, error) {
	conn, err := c.wrapped(network, addr)
	res := resolution{err: err, resolvedAt: time.Now()}
	if err == nil {
		res.ipAddr = conn.RemoteAddr().String()
	}

	c.mu.Lock()
	c.cache.Add(key, res)
	c.mu.Unlock()

	return conn, err
}
