package recommend

import "github.com/doctorgo/doctorgo/internal/doctor"

// specialtyKeywords maps each specialty to the symptom phrases the
// matcher looks for. Matching is phrase containment, so multi-word
// entries like "chest pain" only match when the exact phrase appears.
var specialtyKeywords = map[string][]string{
	doctor.SpecialtyGeneralPractice: {
		"fever", "cold", "flu", "cough", "headache", "fatigue",
		"checkup", "vaccination", "general",
	},
	doctor.SpecialtyCardiology: {
		"heart", "chest pain", "palpitations", "blood pressure",
		"hypertension", "cardiac", "breathing",
	},
	doctor.SpecialtyPediatrics: {
		"child", "baby", "infant", "toddler", "kids",
		"childhood", "growth", "development",
	},
	doctor.SpecialtyDermatology: {
		"skin", "rash", "acne", "eczema", "psoriasis",
		"mole", "hair loss", "itching",
	},
	doctor.SpecialtyOrthopedics: {
		"bone", "joint", "muscle", "back pain", "knee",
		"shoulder", "fracture", "arthritis", "sports injury",
	},
}

// Keywords returns the keyword set for a specialty, nil when unknown.
func Keywords(specialty string) []string {
	return specialtyKeywords[specialty]
}
