package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hamed0406/pingboard/internal/domain"
)

const (
	CustomEndpointID domain.EndpointID = "custom-server"
	CustomRegion                       = "Custom"
)

var ipv4WithPort = regexp.MustCompile(`^(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}):(\d+)$`)

// Target is an operator-supplied address. Port is zero when absent.
type Target struct {
	Host string
	Port int
}

// ParseTarget splits "a.b.c.d:port". Anything else, host names included,
// is taken whole as the host.
func ParseTarget(text string) Target {
	text = strings.TrimSpace(text)
	if m := ipv4WithPort.FindStringSubmatch(text); m != nil {
		if port, err := strconv.Atoi(m[2]); err == nil {
			return Target{Host: m[1], Port: port}
		}
	}
	return Target{Host: text}
}

func (t Target) Name() string {
	if t.Port > 0 {
		return fmt.Sprintf("Custom Server (%s:%d)", t.Host, t.Port)
	}
	return fmt.Sprintf("Custom Server (%s)", t.Host)
}

// ResolveCustom probes an ad-hoc target. The bare host is always probed;
// with a port the port-qualified address is probed too. When the host
// probe fails but the port probe succeeds, the port outcome becomes the
// effective one, so the entry only fails when both attempts fail.
func (e *Engine) ResolveCustom(ctx context.Context, text string) (domain.ResultEntry, error) {
	target := ParseTarget(text)
	if target.Host == "" {
		return domain.ResultEntry{}, ErrEmptyTarget
	}

	ep := domain.Endpoint{
		ID:     CustomEndpointID,
		Name:   target.Name(),
		IP:     target.Host,
		Port:   target.Port,
		Region: CustomRegion,
	}

	primary := e.call(ctx, ep.IP)
	entry := domain.ResultEntry{Endpoint: ep, Outcome: primary}

	if addr := ep.PortAddress(); addr != "" {
		secondary := e.call(ctx, addr)
		entry.Secondary = &secondary
		if !primary.OK() && secondary.OK() {
			entry.Outcome, entry.Secondary = secondary, &primary
			entry.Fallback = true
		}
	}
	// no trend: successive custom checks usually target different hosts
	entry.CheckedAt = e.now()

	e.store(ctx, &entry)
	e.Logger.Info("custom_checked",
		zap.String("target", strings.TrimSpace(text)),
		zap.String("status", string(entry.Outcome.Status)),
		zap.Bool("fallback", entry.Fallback),
	)
	return entry, nil
}
