package recommend

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/doctorgo/doctorgo/internal/doctor"
)

func testRoster() []doctor.Doctor {
	return []doctor.Doctor{
		{ID: uuid.New(), Name: "Dr. GP", Specialty: doctor.SpecialtyGeneralPractice, Rating: 4.1},
		{ID: uuid.New(), Name: "Dr. Heart", Specialty: doctor.SpecialtyCardiology, Rating: 4.8},
		{ID: uuid.New(), Name: "Dr. Kids", Specialty: doctor.SpecialtyPediatrics, Rating: 4.5},
		{ID: uuid.New(), Name: "Dr. Skin", Specialty: doctor.SpecialtyDermatology, Rating: 4.9},
		{ID: uuid.New(), Name: "Dr. Bones", Specialty: doctor.SpecialtyOrthopedics, Rating: 4.3},
	}
}

func TestRecommendChestPainRanksCardiologyFirst(t *testing.T) {
	got := Recommend("I have chest pain and heart palpitations", testRoster())

	assert.NotEmpty(t, got)
	assert.Equal(t, doctor.SpecialtyCardiology, got[0].Specialty)
	assert.Contains(t, got[0].Reason, "chest pain")
	assert.Contains(t, got[0].Reason, "heart")
	// 3 of 7 cardiology keywords → round(300/7) = 43.
	assert.Equal(t, 43, got[0].MatchScore)
}

func TestRecommendScoreBoundsAndExclusion(t *testing.T) {
	queries := []string{
		"",
		"chest pain",
		"my child has a fever and a rash",
		"knee fracture after a sports injury",
		"completely unrelated query about taxes",
	}
	for _, q := range queries {
		for _, rec := range Recommend(q, testRoster()) {
			assert.GreaterOrEqual(t, rec.MatchScore, 1, "query %q", q)
			assert.LessOrEqual(t, rec.MatchScore, 100, "query %q", q)
		}
	}
}

func TestRecommendTopThreeTruncation(t *testing.T) {
	// Four specialties match; only the best three survive.
	query := "fever with a skin rash, sore joint and knee, and a cough for my baby"
	got := Recommend(query, testRoster())

	assert.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].MatchScore, got[i].MatchScore)
	}
}

func TestRecommendFewerMatchesThanThree(t *testing.T) {
	got := Recommend("acne", testRoster())
	assert.Len(t, got, 1)
	assert.Equal(t, doctor.SpecialtyDermatology, got[0].Specialty)
}

func TestRecommendEmptyQueryFallsBackToGeneralPractice(t *testing.T) {
	for _, q := range []string{"", "   ", "nothing matches this"} {
		got := Recommend(q, testRoster())
		assert.Len(t, got, 1, "query %q", q)
		assert.Equal(t, doctor.SpecialtyGeneralPractice, got[0].Specialty)
		assert.Equal(t, 50, got[0].MatchScore)
		assert.True(t, strings.Contains(got[0].Reason, "General Practitioner"))
	}
}

func TestRecommendFallbackWithoutGeneralPractice(t *testing.T) {
	roster := []doctor.Doctor{
		{ID: uuid.New(), Name: "Dr. Heart", Specialty: doctor.SpecialtyCardiology},
	}
	got := Recommend("nothing matches", roster)
	assert.Empty(t, got)
}

func TestRecommendEqualScoresKeepRosterOrder(t *testing.T) {
	roster := []doctor.Doctor{
		{ID: uuid.New(), Name: "Dr. First", Specialty: doctor.SpecialtyCardiology, Rating: 4.0},
		{ID: uuid.New(), Name: "Dr. Second", Specialty: doctor.SpecialtyCardiology, Rating: 4.9},
	}
	got := Recommend("chest pain", roster)

	assert.Len(t, got, 2)
	assert.Equal(t, "Dr. First", got[0].DoctorName)
	assert.Equal(t, "Dr. Second", got[1].DoctorName)
	assert.Equal(t, got[0].MatchScore, got[1].MatchScore)
}

func TestRecommendReasonListsMatchedKeywords(t *testing.T) {
	got := Recommend("eczema and itching all over my skin", testRoster())

	assert.NotEmpty(t, got)
	assert.Contains(t, got[0].Reason, "skin, eczema, itching")
	assert.Contains(t, got[0].Reason, "Dr. Skin")
	assert.Contains(t, got[0].Reason, "4.9 star rating")
}
