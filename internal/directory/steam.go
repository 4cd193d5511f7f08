package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/pingboard/internal/domain"
)

const DefaultSteamURL = "https://api.steampowered.com/ISteamApps/GetSDRConfig/v1?appid=730"

// SteamSource reads relay locations from the Steam Datagram Relay config.
type SteamSource struct {
	URL    string
	Client *http.Client
}

func NewSteamSource(url string, timeout time.Duration) *SteamSource {
	if url == "" {
		url = DefaultSteamURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SteamSource{URL: url, Client: &http.Client{Timeout: timeout}}
}

type sdrConfig struct {
	Pops map[string]struct {
		Desc   string `json:"desc"`
		Relays []struct {
			IPv4 string `json:"ipv4"`
		} `json:"relays"`
	} `json:"pops"`
}

type location struct {
	keywords []string
	region   string
	code     string
	country  string
}

// first match wins
var locations = []location{
	{[]string{"Virginia", "Washington", "Chicago", "Atlanta"}, "North America", "US", "United States"},
	{[]string{"Germany", "Frankfurt"}, "Europe", "DE", "Germany"},
	{[]string{"Netherlands", "Amsterdam"}, "Europe", "NL", "Netherlands"},
	{[]string{"Finland", "Helsinki"}, "Europe", "FI", "Finland"},
	{[]string{"UK", "London"}, "Europe", "GB", "United Kingdom"},
	{[]string{"Spain", "Madrid"}, "Europe", "ES", "Spain"},
	{[]string{"France", "Paris"}, "Europe", "FR", "France"},
	{[]string{"Sweden", "Stockholm"}, "Europe", "SE", "Sweden"},
	{[]string{"Austria", "Vienna"}, "Europe", "AT", "Austria"},
	{[]string{"Poland", "Warsaw"}, "Europe", "PL", "Poland"},
	{[]string{"Russia", "Moscow"}, "Europe", "RU", "Russia"},
}

func locate(desc string) (location, bool) {
	for _, l := range locations {
		for _, k := range l.keywords {
			if strings.Contains(desc, k) {
				return l, true
			}
		}
	}
	return location{}, false
}

func (s *SteamSource) Fetch(ctx context.Context) ([]domain.Endpoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("steam request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("steam request failed with status %s", resp.Status)
	}

	var cfg sdrConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode steam config: %w", err)
	}
	return endpointsFromSDR(cfg), nil
}

func endpointsFromSDR(cfg sdrConfig) []domain.Endpoint {
	keys := make([]string, 0, len(cfg.Pops))
	for k := range cfg.Pops {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var found []domain.Endpoint
	for _, k := range keys {
		pop := cfg.Pops[k]
		loc, ok := locate(pop.Desc)
		if !ok || len(pop.Relays) == 0 || pop.Relays[0].IPv4 == "" {
			continue
		}
		found = append(found, domain.Endpoint{
			IP:          pop.Relays[0].IPv4,
			Region:      loc.region,
			Country:     loc.country,
			CountryCode: loc.code,
		})
	}

	seen := map[string]int{}
	for i := range found {
		ep := &found[i]
		seen[ep.Country]++
		label := ep.Country
		if ep.Region == "North America" {
			label = "US"
		}
		ep.ID = domain.EndpointID("server_" + strconv.Itoa(i))
		ep.Name = fmt.Sprintf("%s Server %s", label, ordinal(seen[ep.Country]))
	}
	return found
}

// ordinal numbers the first five servers of a country with roman numerals
// and the rest with arabic ones.
func ordinal(n int) string {
	roman := [...]string{"I", "II", "III", "IV", "V"}
	if n >= 1 && n <= len(roman) {
		return roman[n-1]
	}
	return strconv.Itoa(n)
}
