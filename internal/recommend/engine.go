package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/doctorgo/doctorgo/internal/doctor"
)

const (
	maxResults    = 3
	fallbackScore = 50
)

// Recommendation is derived per query and never persisted.
type Recommendation struct {
	DoctorID   uuid.UUID `json:"doctorId"`
	DoctorName string    `json:"doctorName"`
	Specialty  string    `json:"specialty"`
	MatchScore int       `json:"matchScore"`
	Reason     string    `json:"reason"`
}

// Recommend scores every doctor's specialty keyword set against the
// query and returns the top three matches, best first. Doctors with no
// matching keyword are excluded. Ties keep roster order (stable sort).
// When nothing matches, it falls back to a General Practice doctor with
// a fixed score, or an empty result if the roster has none.
func Recommend(query string, doctors []doctor.Doctor) []Recommendation {
	var results []Recommendation

	for _, doc := range doctors {
		keywords := specialtyKeywords[doc.Specialty]
		if len(keywords) == 0 {
			continue
		}

		matched := Match(query, doc.Specialty)
		if len(matched) == 0 {
			continue
		}

		score := int(math.Round(100 * float64(len(matched)) / float64(len(keywords))))
		results = append(results, Recommendation{
			DoctorID:   doc.ID,
			DoctorName: doc.Name,
			Specialty:  doc.Specialty,
			MatchScore: score,
			Reason: fmt.Sprintf(
				"Matches your symptoms: %s. %s specializes in %s and has a %g star rating.",
				strings.Join(matched, ", "), doc.Name, doc.Specialty, doc.Rating,
			),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	if len(results) == 0 {
		return fallback(doctors)
	}
	return results
}

func fallback(doctors []doctor.Doctor) []Recommendation {
	for _, doc := range doctors {
		if doc.Specialty != doctor.SpecialtyGeneralPractice {
			continue
		}
		return []Recommendation{{
			DoctorID:   doc.ID,
			DoctorName: doc.Name,
			Specialty:  doc.Specialty,
			MatchScore: fallbackScore,
			Reason: fmt.Sprintf(
				"For general health concerns, we recommend seeing %s, a General Practitioner who can evaluate your symptoms and refer you to a specialist if needed.",
				doc.Name,
			),
		}}
	}
	return nil
}
