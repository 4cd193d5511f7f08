package directory

import (
	"regexp"
	"strings"

	"github.com/hamed0406/pingboard/internal/domain"
)

var codePrefix = regexp.MustCompile(`^([A-Z]{2})\s`)

var europeanCountries = map[string]bool{
	"Germany":     true,
	"France":      true,
	"UK":          true,
	"Sweden":      true,
	"Netherlands": true,
	"Spain":       true,
	"Finland":     true,
	"Austria":     true,
	"Poland":      true,
	"Russia":      true,
}

// Normalize fills in country code and region when a record lacks them.
// Fields already set are left alone.
func Normalize(ep domain.Endpoint) domain.Endpoint {
	if ep.CountryCode == "" {
		if m := codePrefix.FindStringSubmatch(ep.Name); m != nil {
			ep.CountryCode = m[1]
		} else if len(ep.Country) >= 2 {
			ep.CountryCode = strings.ToUpper(ep.Country[:2])
		}
	}
	if ep.Region == "" {
		switch {
		case strings.Contains(ep.Name, "US"), ep.CountryCode == "US":
			ep.Region = "US"
		case europeanCountries[ep.Country]:
			ep.Region = "Europe"
		default:
			ep.Region = "Other"
		}
	}
	return ep
}
