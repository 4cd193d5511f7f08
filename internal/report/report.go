package report

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/hamed0406/pingboard/internal/domain"
)

// DefaultStaleAfter is how old a cached result may get before the report
// flags it.
const DefaultStaleAfter = 10 * time.Minute

// OtherRegion collects entries whose endpoint has no region.
const OtherRegion = "Other"

// regionOrder lists the regions shown first, in this order. Anything else
// follows alphabetically, with OtherRegion always last.
var regionOrder = []string{"Europe", "US", "North America", "Asia", "South America", "Australia"}

type OverallStatus string

const (
	StatusNoData               OverallStatus = "no_data"
	StatusAllReachable         OverallStatus = "all_reachable"
	StatusNoneReachable        OverallStatus = "none_reachable"
	StatusMostlyUnreachable    OverallStatus = "mostly_unreachable"
	StatusPartiallyUnreachable OverallStatus = "partially_unreachable"
)

func (s OverallStatus) Message() string {
	switch s {
	case StatusNoData:
		return "No ping data available. Please check at least one server first."
	case StatusAllReachable:
		return "All servers are reachable. Your connection appears to be working well."
	case StatusNoneReachable:
		return "No servers are reachable. You may have connectivity issues."
	case StatusMostlyUnreachable:
		return "Most servers are unreachable. You may have partial connectivity issues."
	case StatusPartiallyUnreachable:
		return "Some servers are unreachable. This could be due to regional network issues."
	}
	return ""
}

// Report is a read-only view over a cache snapshot. It is never stored.
type Report struct {
	GeneratedAt            time.Time     `json:"generated_at"`
	TotalChecked           int           `json:"total_checked"`
	SuccessCount           int           `json:"success_count"`
	FailureCount           int           `json:"failure_count"`
	AverageOfLowestThreeMS *int          `json:"average_of_lowest_three_ms,omitempty"`
	OverallStatus          OverallStatus `json:"overall_status"`
	StatusMessage          string        `json:"status_message"`
	StaleEntryPresent      bool          `json:"stale_entry_present"`
	Regions                []Region      `json:"regions"`
	Tips                   []string      `json:"tips"`
}

type Region struct {
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

type Entry struct {
	domain.ResultEntry
	// AgeMinutes is zero (and omitted) for results younger than a minute.
	AgeMinutes int            `json:"age_minutes,omitempty"`
	Stale      bool           `json:"stale"`
	Quality    domain.Quality `json:"quality,omitempty"`
	ErrorLabel string         `json:"error_label,omitempty"`
	Tip        string         `json:"tip,omitempty"`
	TrendMS    *float64       `json:"trend_ms,omitempty"`
}

// AgeLabel renders the age annotation, e.g. "(3m ago)".
func (e Entry) AgeLabel() string {
	if e.AgeMinutes < 1 {
		return ""
	}
	return fmt.Sprintf("(%dm ago)", e.AgeMinutes)
}

type Options struct {
	StaleAfter time.Duration
	// Trend, when set, supplies a smoothed latency per endpoint.
	Trend func(id domain.EndpointID) (float64, bool)
}

// Build aggregates cache entries with the default options.
func Build(entries []domain.ResultEntry, now time.Time) Report {
	return Options{}.Build(entries, now)
}

func (o Options) Build(entries []domain.ResultEntry, now time.Time) Report {
	staleAfter := o.StaleAfter
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}

	r := Report{GeneratedAt: now, TotalChecked: len(entries), Regions: []Region{}}
	var latencies []int
	groups := make(map[string][]Entry)

	for _, e := range entries {
		if e.Outcome.OK() {
			r.SuccessCount++
			if e.Outcome.LatencyMS != nil {
				latencies = append(latencies, *e.Outcome.LatencyMS)
			}
		} else {
			r.FailureCount++
		}

		age := now.Sub(e.CheckedAt)
		view := Entry{
			ResultEntry: e,
			Stale:       age > staleAfter,
			Quality:     e.Outcome.Quality(),
			ErrorLabel:  e.Outcome.ErrorKind.Label(),
			Tip:         e.Outcome.ErrorKind.Tip(),
		}
		if view.Stale {
			r.StaleEntryPresent = true
		}
		if age >= time.Minute {
			view.AgeMinutes = int(age / time.Minute)
		}
		if o.Trend != nil {
			if v, ok := o.Trend(e.Endpoint.ID); ok {
				view.TrendMS = &v
			}
		}

		region := e.Endpoint.Region
		if region == "" {
			region = OtherRegion
		}
		groups[region] = append(groups[region], view)
	}

	r.AverageOfLowestThreeMS = LowestThreeAverage(latencies)
	r.OverallStatus = overall(r.SuccessCount, r.FailureCount)
	r.StatusMessage = r.OverallStatus.Message()
	r.Tips = Tips(r.FailureCount)

	for _, name := range sortRegions(groups) {
		list := groups[name]
		sortEntries(list)
		r.Regions = append(r.Regions, Region{Name: name, Entries: list})
	}
	return r
}

// LowestThreeAverage averages up to the three smallest values, rounding half
// up. It returns nil for an empty input.
func LowestThreeAverage(values []int) *int {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	if len(sorted) > 3 {
		sorted = sorted[:3]
	}
	sum := 0
	for _, v := range sorted {
		sum += v
	}
	avg := int(math.Floor(float64(sum)/float64(len(sorted)) + 0.5))
	return &avg
}

func overall(success, failure int) OverallStatus {
	switch {
	case success == 0 && failure == 0:
		return StatusNoData
	case failure == 0:
		return StatusAllReachable
	case success == 0:
		return StatusNoneReachable
	case failure > success:
		return StatusMostlyUnreachable
	default:
		return StatusPartiallyUnreachable
	}
}

func regionRank(name string) int {
	for i, r := range regionOrder {
		if r == name {
			return i
		}
	}
	if name == OtherRegion {
		return len(regionOrder) + 1
	}
	return len(regionOrder)
}

func sortRegions(groups map[string][]Entry) []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := regionRank(names[i]), regionRank(names[j])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})
	return names
}

// sortEntries orders by country code with code-less entries last, then by
// name and id.
func sortEntries(list []Entry) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].Endpoint, list[j].Endpoint
		if (a.CountryCode == "") != (b.CountryCode == "") {
			return b.CountryCode == ""
		}
		if a.CountryCode != b.CountryCode {
			return a.CountryCode < b.CountryCode
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}
