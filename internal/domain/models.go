package domain

import (
	"net"
	"strconv"
	"time"
)

type EndpointID string

// Endpoint is a named probe target handed out by the directory. The engine
// only reads it.
type Endpoint struct {
	ID          EndpointID `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	IP          string     `json:"ip" yaml:"ip"`
	Port        int        `json:"port,omitempty" yaml:"port,omitempty"`
	Region      string     `json:"region" yaml:"region"`
	Country     string     `json:"country,omitempty" yaml:"country,omitempty"`
	CountryCode string     `json:"country_code,omitempty" yaml:"country_code,omitempty"`
}

// PortAddress returns "ip:port" or "" when no port is configured.
func (e Endpoint) PortAddress() string {
	if e.IP == "" || e.Port <= 0 {
		return ""
	}
	return net.JoinHostPort(e.IP, strconv.Itoa(e.Port))
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

type Method string

const (
	MethodTCP     Method = "tcp"
	MethodICMP    Method = "icmp"
	MethodUnknown Method = "unknown"
)

// ProbeOutcome is the classified form of one Prober response.
type ProbeOutcome struct {
	Status    Status    `json:"status"`
	Method    Method    `json:"method"`
	LatencyMS *int      `json:"latency_ms,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Raw       string    `json:"raw"`
}

func (o ProbeOutcome) OK() bool { return o.Status == StatusSuccess }

// Quality is the band for the outcome's latency, or "" when there is none.
func (o ProbeOutcome) Quality() Quality {
	if o.LatencyMS == nil {
		return ""
	}
	return QualityFor(*o.LatencyMS)
}

type ResultEntry struct {
	Endpoint  Endpoint      `json:"endpoint"`
	Outcome   ProbeOutcome  `json:"outcome"`
	Secondary *ProbeOutcome `json:"secondary,omitempty"`
	// Fallback is set when Outcome was taken from the port-qualified probe
	// because the bare host probe failed; Secondary then holds that failure.
	Fallback  bool      `json:"fallback,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}
