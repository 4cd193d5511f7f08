package domain

type ErrorKind string

const (
	ErrConnectionTimeout ErrorKind = "connection_timeout"
	ErrDNSResolution     ErrorKind = "dns_resolution_error"
	ErrPermission        ErrorKind = "permission_error"
	ErrNetwork           ErrorKind = "network_error"
	ErrConnection        ErrorKind = "connection_error"
	// ErrMissingAddress is raised before any network call is attempted.
	ErrMissingAddress ErrorKind = "missing_address"
)

type kindInfo struct {
	label string
	tip   string
}

var kinds = map[ErrorKind]kindInfo{
	ErrConnectionTimeout: {
		label: "Connection Timeout",
		tip:   "The server did not respond within the time limit. This could be due to network congestion or server issues.",
	},
	ErrDNSResolution: {
		label: "DNS Resolution Error",
		tip:   "Could not resolve the server address. This could be a DNS issue with your network.",
	},
	ErrPermission: {
		label: "Permission Error",
		tip:   "The application does not have sufficient permissions to perform the ping operation. Try running as administrator.",
	},
	ErrNetwork: {
		label: "Network Error",
		tip:   "There was a problem with your network connection. Check your internet connection and try again.",
	},
	ErrConnection: {
		label: "Connection Error",
		tip:   "The server may be down or unreachable.",
	},
	ErrMissingAddress: {
		label: "Missing Address",
		tip:   "The server has no IP address configured. Refresh the server list and try again.",
	},
}

// Label is the human-readable name of the kind.
func (k ErrorKind) Label() string {
	if info, ok := kinds[k]; ok {
		return info.label
	}
	return ""
}

// Tip is the remediation hint shown next to a failed entry.
func (k ErrorKind) Tip() string {
	if info, ok := kinds[k]; ok {
		return info.tip
	}
	return ""
}

type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityAverage   Quality = "average"
	QualityPoor      Quality = "poor"
)

func QualityFor(ms int) Quality {
	switch {
	case ms < 50:
		return QualityExcellent
	case ms < 70:
		return QualityGood
	case ms < 100:
		return QualityAverage
	default:
		return QualityPoor
	}
}

func (q Quality) Description() string {
	switch q {
	case QualityExcellent:
		return "Excellent connection"
	case QualityGood:
		return "Good connection"
	case QualityAverage:
		return "Average connection"
	case QualityPoor:
		return "Poor connection"
	}
	return ""
}
