package probe

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hamed0406/pingboard/internal/domain"
)

var (
	tcpLatency  = regexp.MustCompile(`(\d+)ms \(TCP\)`)
	icmpLatency = regexp.MustCompile(`(\d+)ms \(ICMP\)`)

	failureWords = []string{"error", "failed", "timeout"}
)

// Classify interprets the text of a Prober call that did not return an
// error. Text that still mentions a failure keyword is treated as a failure.
func Classify(raw string) domain.ProbeOutcome {
	lower := strings.ToLower(raw)
	for _, w := range failureWords {
		if strings.Contains(lower, w) {
			return ClassifyError(raw)
		}
	}

	out := domain.ProbeOutcome{
		Status: domain.StatusSuccess,
		Method: domain.MethodUnknown,
		Raw:    raw,
	}
	switch {
	case strings.Contains(raw, "TCP"):
		out.Method = domain.MethodTCP
		out.LatencyMS = extractMS(tcpLatency, raw)
	case strings.Contains(raw, "ICMP"):
		out.Method = domain.MethodICMP
		out.LatencyMS = extractMS(icmpLatency, raw)
	}
	return out
}

// ClassifyError turns the text of a rejected Prober call into a failure.
func ClassifyError(raw string) domain.ProbeOutcome {
	return domain.ProbeOutcome{
		Status:    domain.StatusFailure,
		Method:    domain.MethodUnknown,
		ErrorKind: errorKind(raw),
		Raw:       raw,
	}
}

// errorKind checks in a fixed order; the first family that matches wins.
func errorKind(raw string) domain.ErrorKind {
	switch {
	case containsAny(raw, "timeout", "Timeout"):
		return domain.ErrConnectionTimeout
	case containsAny(raw, "resolve", "DNS"):
		return domain.ErrDNSResolution
	case containsAny(raw, "permission", "Permission"):
		return domain.ErrPermission
	case containsAny(raw, "network", "Network"):
		return domain.ErrNetwork
	default:
		return domain.ErrConnection
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func extractMS(re *regexp.Regexp, raw string) *int {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}
