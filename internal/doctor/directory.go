package doctor

import (
	"sort"
	"strings"
)

type SortOrder string

const (
	SortRatingDesc   SortOrder = "rating"
	SortCostAsc      SortOrder = "cost_asc"
	SortCostDesc     SortOrder = "cost_desc"
	SortQueueAsc     SortOrder = "queue"
	SortDistanceAsc  SortOrder = "distance"
)

// Origin is the searching user's coordinate, for distance filtering.
type Origin struct {
	Lat float64
	Lng float64
}

type SearchOptions struct {
	Query          string  // substring match on name or specialty
	Specialty      string  // exact specialty match
	Origin         *Origin // required for MaxDistanceKm and SortDistanceAsc
	MaxDistanceKm  float64 // 0 means no distance filter
	Sort           SortOrder
}

// Ranked pairs a doctor with its distance from the search origin.
type Ranked struct {
	Doctor
	DistanceKm float64 // -1 when no origin was supplied
}

// Search filters and sorts the roster. It never mutates doctors; ties
// keep their input order (sorting is stable).
func Search(doctors []Doctor, opts SearchOptions) []Ranked {
	query := strings.ToLower(strings.TrimSpace(opts.Query))

	result := make([]Ranked, 0, len(doctors))
	for _, d := range doctors {
		if query != "" {
			name := strings.ToLower(d.Name)
			spec := strings.ToLower(d.Specialty)
			if !strings.Contains(name, query) && !strings.Contains(spec, query) {
				continue
			}
		}
		if opts.Specialty != "" && d.Specialty != opts.Specialty {
			continue
		}

		dist := -1.0
		if opts.Origin != nil {
			dist = DistanceKm(opts.Origin.Lat, opts.Origin.Lng, d.Lat, d.Lng)
			if opts.MaxDistanceKm > 0 && dist > opts.MaxDistanceKm {
				continue
			}
		}

		result = append(result, Ranked{Doctor: d, DistanceKm: dist})
	}

	switch opts.Sort {
	case SortRatingDesc:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].Rating > result[j].Rating
		})
	case SortCostAsc:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].Cost < result[j].Cost
		})
	case SortCostDesc:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].Cost > result[j].Cost
		})
	case SortQueueAsc:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].QueueLength < result[j].QueueLength
		})
	case SortDistanceAsc:
		if opts.Origin != nil {
			sort.SliceStable(result, func(i, j int) bool {
				return result[i].DistanceKm < result[j].DistanceKm
			})
		}
	}

	return result
}
