package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

type DNSClass string

const (
	ClassNXDomain    DNSClass = "NXDOMAIN"
	ClassServFail    DNSClass = "SERVFAIL"
	ClassInvalidName DNSClass = "INVALID_NAME"
)

// ResolveError reports why a host name could not be turned into an address.
// Its text always mentions "resolve" and "DNS" so the classifier files it
// under DNS resolution errors.
type ResolveError struct {
	Host  string
	Class DNSClass
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("could not resolve %q (DNS %s)", e.Host, e.Class)
}

var dnsTimeout = 3 * time.Second

// ResolveHost returns the address to dial for host. Literal IPs are returned
// as-is; names go through r (the OS resolver when nil) and IPv4 answers are
// preferred.
func ResolveHost(ctx context.Context, r *net.Resolver, host string) (net.IP, error) {
	host = strings.TrimSpace(host)
	if host == "" || strings.Contains(host, "://") {
		return nil, &ResolveError{Host: host, Class: ClassInvalidName}
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	if r == nil {
		r = net.DefaultResolver
	}

	ctx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()

	ips, err := r.LookupIP(ctx, "ip", host)
	if err != nil {
		class := ClassServFail
		var de *net.DNSError
		if errors.As(err, &de) && de.IsNotFound {
			class = ClassNXDomain
		}
		return nil, &ResolveError{Host: host, Class: class}
	}
	if len(ips) == 0 {
		return nil, &ResolveError{Host: host, Class: ClassNXDomain}
	}
	for _, ip := range ips {
		if ip.To4() != nil {
			return ip, nil
		}
	}
	return ips[0], nil
}
