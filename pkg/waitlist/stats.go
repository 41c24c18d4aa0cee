package waitlist

import (
	"math"
	"sort"
	"strings"
	"time"
)

// RecentWindow is the look-back of Stats.RecentSignups.
const RecentWindow = 7 * 24 * time.Hour

// TopCityLimit is the number of cities in Stats.TopCities.
const TopCityLimit = 5

// CityCount is the number of signups from one city.
type CityCount struct {
	City     string `json:"city"`
	Signups  int    `json:"signups"`
	Owners   int    `json:"owners"`
	Planning int    `json:"planning"`
}

// Stats summarises the waitlist for the admin dashboard.
type Stats struct {
	TotalSignups   int         `json:"total_signups"`
	Cities         int         `json:"cities"`
	BikeOwners     int         `json:"bike_owners"`
	OwnerPercent   int         `json:"owner_percent"`
	PlanningToBuy  int         `json:"planning_to_buy"`
	RecentSignups  int         `json:"recent_signups"`
	TopCities      []CityCount `json:"top_cities"`
	GeneratedAt    time.Time   `json:"generated_at"`
	ownershipCount map[BikeOwnership]int
}

// ComputeStats aggregates entries as of now. Cities are grouped
// case-insensitively after trimming; the first spelling seen is kept.
func ComputeStats(entries []*Entry, now time.Time) Stats {
	s := Stats{
		TotalSignups:   len(entries),
		GeneratedAt:    now,
		ownershipCount: make(map[BikeOwnership]int),
	}

	cutoff := now.Add(-RecentWindow)
	for _, e := range entries {
		s.ownershipCount[e.BikeOwnership]++
		if e.CreatedAt.After(cutoff) && !e.CreatedAt.After(now) {
			s.RecentSignups++
		}
	}
	s.BikeOwners = s.ownershipCount[OwnsBike]
	s.PlanningToBuy = s.ownershipCount[PlanningBike]
	if s.TotalSignups > 0 {
		s.OwnerPercent = int(math.Round(float64(s.BikeOwners) * 100 / float64(s.TotalSignups)))
	}

	cities := CityBreakdown(entries)
	s.Cities = len(cities)
	if len(cities) > TopCityLimit {
		cities = cities[:TopCityLimit]
	}
	s.TopCities = cities
	return s
}

// OwnershipCount returns the number of entries with answer b.
func (s Stats) OwnershipCount(b BikeOwnership) int {
	return s.ownershipCount[b]
}

// CityBreakdown counts signups per city, most signups first, ties by name.
func CityBreakdown(entries []*Entry) []CityCount {
	index := make(map[string]int)
	var out []CityCount
	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.City))
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, CityCount{City: strings.TrimSpace(e.City)})
		}
		out[i].Signups++
		switch e.BikeOwnership {
		case OwnsBike:
			out[i].Owners++
		case PlanningBike:
			out[i].Planning++
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Signups != out[j].Signups {
			return out[i].Signups > out[j].Signups
		}
		return strings.ToLower(out[i].City) < strings.ToLower(out[j].City)
	})
	return out
}

func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
