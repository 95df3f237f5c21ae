package dnscache

import (
	"errors"
	"net"
	"testing"
	"time"
)

type fakeConn struct {
	net.Conn
	remote net.Addr
}

func (f *fakeConn) RemoteAddr() net.Addr { return f.remote }
func (f *fakeConn) Close() error         { return nil }

func TestDialCachesResolvedAddress(t *testing.T) {
	var dialedAddrs []string
	fake := func(network, addr string) (net.Conn, error) {
		dialedAddrs = append(dialedAddrs, addr)
		return &fakeConn{remote: &net.TCPAddr{IP: net.IPv4(192, 0, 2, 1), Port: 443}}, nil
	}

	dial, err := Dial(fake, 8)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	if _, err := dial("tcp", "data.commoncrawl.org:443"); err != nil {
		t.Fatalf("first dial failed: %v", err)
	}
	if _, err := dial("tcp", "data.commoncrawl.org:443"); err != nil {
		t.Fatalf("second dial failed: %v", err)
	}

	if len(dialedAddrs) != 2 {
		t.Fatalf("expected 2 underlying dials, got %d", len(dialedAddrs))
	}
	if dialedAddrs[0] != "data.commoncrawl.org:443" {
		t.Errorf("first dial should use the hostname, got %q", dialedAddrs[0])
	}
	if dialedAddrs[1] != "192.0.2.1:443" {
		t.Errorf("second dial should use the cached IP, got %q", dialedAddrs[1])
	}
}

func TestDialCachesFailures(t *testing.T) {
	attempts := 0
	dialErr := errors.New("no route to host")
	fake := func(network, addr string) (net.Conn, error) {
		attempts++
		return nil, dialErr
	}

	dial, err := Dial(fake, 8)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := dial("tcp", "dead.example:443"); !errors.Is(err, dialErr) {
			t.Fatalf("expected cached dial error, got %v", err)
		}
	}
	if attempts != 1 {
		t.Errorf("expected 1 underlying dial for a cached failure, got %d", attempts)
	}
}

func TestResolutionFreshness(t *testing.T) {
	fresh := resolution{resolvedAt: time.Now()}
	if !fresh.fresh() {
		t.Error("a just-created resolution should be fresh")
	}

	stale := resolution{resolvedAt: time.Now().Add(-resolutionTTL - time.Second)}
	if stale.fresh() {
		t.Error("a resolution past the TTL should be stale")
	}
}
