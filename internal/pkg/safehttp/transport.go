// Package safehttp provides an outbound transport for fetching pages from
// the public web.
package safehttp

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

// PrivateAddressError is returned when a connection resolves to a non-public IP.
type PrivateAddressError struct {
	IP net.IP
}

func (e *PrivateAddressError) Error() string {
	return fmt.Sprintf("access to private IP %s is denied", e.IP)
}

// NewTransport returns a transport that rejects connections to private,
// loopback or link-local addresses to reduce SSRF risk. Every connection is
// dialed directly; proxies are not used, since a proxy on a private network
// would be refused by the same check. Requests are bounded only by their
// context.
func NewTransport() *http.Transport {
	dialer := &net.Dialer{KeepAlive: 30 * time.Second}
	return &http.Transport{
		DialContext:       safeDial(dialer),
		ForceAttemptHTTP2: true,
		MaxIdleConns:      10,
		IdleConnTimeout:   90 * time.Second,
	}
}

func safeDial(dialer *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		host, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
		ip := net.ParseIP(host)
		if ip == nil {
			conn.Close()
			return nil, fmt.Errorf("failed to parse remote IP for %q", addr)
		}

		if !isPublic(ip) {
			conn.Close()
			return nil, &PrivateAddressError{IP: ip}
		}

		return conn, nil
	}
}

func isPublic(ip net.IP) bool {
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified())
}
