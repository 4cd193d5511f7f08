package probe

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/pingboard/internal/domain"
)

func listen(t *testing.T) (net.Listener, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			_ = c.Close()
		}
	}()
	return ln, ln.Addr().String()
}

func TestTCPProber_ExplicitPort(t *testing.T) {
	ln, addr := listen(t)
	defer ln.Close()

	p := NewTCPProber(0, 2*time.Second)
	out, err := p.Probe(context.Background(), addr)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !strings.HasSuffix(out, "ms (TCP)") {
		t.Fatalf("unexpected text %q", out)
	}
	if c := Classify(out); c.Method != domain.MethodTCP || c.LatencyMS == nil {
		t.Fatalf("text does not classify as tcp latency: %+v", c)
	}
}

func TestTCPProber_DefaultPortFromConfig(t *testing.T) {
	ln, addr := listen(t)
	defer ln.Close()

	_, portStr, _ := net.SplitHostPort(addr)
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("port: %v", err)
	}

	p := NewTCPProber(port, 2*time.Second)
	if _, err := p.Probe(context.Background(), "127.0.0.1"); err != nil {
		t.Fatalf("probe bare host: %v", err)
	}
}

func TestTCPProber_RefusedIsConnectionError(t *testing.T) {
	ln, addr := listen(t)
	ln.Close() // nothing listens any more

	p := NewTCPProber(0, time.Second)
	_, err := p.Probe(context.Background(), addr)
	if err == nil {
		t.Fatalf("want error on closed port")
	}
	if !strings.Contains(err.Error(), "could not establish TCP connection") {
		t.Fatalf("unexpected error text: %v", err)
	}
}

func TestTCPProber_InvalidNameIsDNSError(t *testing.T) {
	p := NewTCPProber(0, time.Second)
	_, err := p.Probe(context.Background(), "https://bad")
	var re *ResolveError
	if !errors.As(err, &re) || re.Class != ClassInvalidName {
		t.Fatalf("want invalid name resolve error, got %v", err)
	}
	if k := ClassifyError(err.Error()).ErrorKind; k != domain.ErrDNSResolution {
		t.Fatalf("want dns kind, got %q", k)
	}
}

func TestSplitAddress(t *testing.T) {
	cases := []struct {
		in         string
		host, port string
	}{
		{"10.0.0.1:27015", "10.0.0.1", "27015"},
		{"10.0.0.1", "10.0.0.1", "27017"},
		{"example.com", "example.com", "27017"},
		{"[::1]:80", "::1", "80"},
	}
	for _, c := range cases {
		h, p := splitAddress(c.in, DefaultTCPPort)
		if h != c.host || p != c.port {
			t.Fatalf("splitAddress(%q)=%q,%q want %q,%q", c.in, h, p, c.host, c.port)
		}
	}
}
