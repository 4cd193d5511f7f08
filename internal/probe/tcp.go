package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// DefaultTCPPort is dialed when the address carries no port of its own.
const DefaultTCPPort = 27017

// TCPProber measures the time to complete a TCP handshake.
type TCPProber struct {
	Port     int
	Timeout  time.Duration
	Resolver *net.Resolver
}

func NewTCPProber(port int, timeout time.Duration) *TCPProber {
	if port <= 0 {
		port = DefaultTCPPort
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &TCPProber{Port: port, Timeout: timeout}
}

func (p *TCPProber) Probe(ctx context.Context, address string) (string, error) {
	host, port := splitAddress(address, p.Port)
	ip, err := ResolveHost(ctx, p.Resolver, host)
	if err != nil {
		return "", err
	}
	target := net.JoinHostPort(ip.String(), port)

	d := net.Dialer{Timeout: p.Timeout}
	start := time.Now()
	conn, err := d.DialContext(ctx, "tcp", target)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return "", fmt.Errorf("connection timeout after %s to %s", p.Timeout, target)
		}
		return "", fmt.Errorf("could not establish TCP connection to %s: %w", target, err)
	}
	latency := time.Since(start)
	_ = conn.Close()

	return fmt.Sprintf("%dms (TCP)", latency.Milliseconds()), nil
}

// splitAddress separates "host:port"; a bare host gets the default port.
func splitAddress(address string, defaultPort int) (string, string) {
	if host, port, err := net.SplitHostPort(address); err == nil {
		return host, port
	}
	return address, strconv.Itoa(defaultPort)
}
