// SPDX-License-Identifier: GPL-3.0-or-later

package dnswalk

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/miekg/dns"
)

// Transport sends a raw query to a nameserver and returns the raw response.
//
// Implementations must wrap failures with [ErrTransport].
type Transport interface {
	Exchange(ctx context.Context, server netip.Addr, query []byte) ([]byte, error)
}

// UDPTransport is a [Transport] using DNS over UDP.
//
// Each exchange uses a fresh socket bound to an ephemeral port. There is
// no TCP fallback, so responses larger than MaxResponseSize are cut.
//
// Construct using [NewUDPTransport].
type UDPTransport struct {
	// Dialer is the OPTIONAL dialer to use.
	Dialer *net.Dialer

	// MaxResponseSize is the maximum number of bytes read.
	MaxResponseSize int

	// Port is the destination port, which is 53 unless testing.
	Port uint16

	// Timeout bounds each exchange. Zero means that only
	// the context passed to Exchange bounds it.
	Timeout time.Duration
}

// NewUDPTransport returns a [*UDPTransport] with default settings.
func NewUDPTransport() *UDPTransport {
	return &UDPTransport{
		Dialer:          &net.Dialer{},
		MaxResponseSize: QueryMaxResponseSizeUDP,
		Port:            53,
		Timeout:         5 * time.Second,
	}
}

var _ Transport = &UDPTransport{}

// Exchange implements [Transport].
func (t *UDPTransport) Exchange(ctx context.Context, server netip.Addr, query []byte) ([]byte, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	endpoint := netip.AddrPortFrom(server, t.Port)
	client := &dns.Client{Net: "udp", Dialer: t.Dialer}
	conn, err := client.DialContext(ctx, endpoint.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := conn.Write(query); err != nil {
		return nil, fmt.Errorf("%w: write to %s: %w", ErrTransport, endpoint, err)
	}

	size := t.MaxResponseSize
	if size <= 0 {
		size = QueryMaxResponseSizeUDP
	}
	buf := make([]byte, size)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: read from %s: %w", ErrTransport, endpoint, err)
	}
	return buf[:n], nil
}
