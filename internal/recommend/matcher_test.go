package recommend

import (
	"reflect"
	"testing"

	"github.com/doctorgo/doctorgo/internal/doctor"
)

func TestMatchPhraseContainment(t *testing.T) {
	got := Match("I have chest pain and my heart races", doctor.SpecialtyCardiology)
	want := []string{"heart", "chest pain"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Match = %v, want %v", got, want)
	}
}

func TestMatchIsCaseInsensitive(t *testing.T) {
	got := Match("CHEST PAIN after running", doctor.SpecialtyCardiology)
	if len(got) != 1 || got[0] != "chest pain" {
		t.Fatalf("Match = %v, want [chest pain]", got)
	}
}

func TestMatchRequiresExactPhrase(t *testing.T) {
	// "chest" alone is not the phrase "chest pain".
	got := Match("tight chest when breathing", doctor.SpecialtyCardiology)
	want := []string{"breathing"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Match = %v, want %v", got, want)
	}
}

func TestMatchUnknownSpecialty(t *testing.T) {
	if got := Match("fever", "Telepathy"); got != nil {
		t.Fatalf("Match = %v, want nil", got)
	}
}

func TestMatchEmptyQuery(t *testing.T) {
	if got := Match("", doctor.SpecialtyDermatology); got != nil {
		t.Fatalf("Match = %v, want nil", got)
	}
}

func TestKeywordsTableShape(t *testing.T) {
	for _, specialty := range doctor.Specialties() {
		kws := Keywords(specialty)
		if len(kws) < 6 || len(kws) > 9 {
			t.Errorf("%s has %d keywords, want 6-9", specialty, len(kws))
		}
	}
}
