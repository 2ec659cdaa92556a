package test

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/jaswdr/faker"
	"github.com/onsi/ginkgo/v2"

	"github.com/trialmatch/workspace/gateway"
	"github.com/trialmatch/workspace/pointer"
)

var (
	Faker  = faker.NewWithSeed(Source)
	Rand   = rand.New(Source)
	Source = rand.NewSource(ginkgo.GinkgoRandomSeed())
)

var (
	minBirthDate = time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC)
	maxBirthDate = time.Date(2005, 1, 1, 0, 0, 0, 0, time.UTC)
)

var conditions = []string{"Hypertension", "Type 2 diabetes mellitus", "Asthma", "Chronic kidney disease", "Hyperlipidemia", "Obesity"}
var medications = []string{"Metformin", "Lisinopril", "Albuterol", "Atorvastatin", "Insulin glargine"}

// RandomPatientDocument returns a synthetic EHR-like patient document
func RandomPatientDocument() map[string]interface{} {
	return map[string]interface{}{
		"id":          Faker.UUID().V4(),
		"name":        Faker.Person().Name(),
		"birthDate":   Faker.Time().TimeBetween(minBirthDate, maxBirthDate).Format(time.DateOnly),
		"conditions":  randomSubset(conditions, 3),
		"medications": randomSubset(medications, 2),
		"summary":     Faker.Lorem().Sentence(12),
	}
}

func RandomPatientId() string {
	return fmt.Sprintf("patient-%s", Faker.UUID().V4())
}

func RandomTrial() gateway.TrialRecord {
	return gateway.TrialRecord{
		NctId:         fmt.Sprintf("NCT%08d", Rand.Intn(100000000)),
		BriefTitle:    Faker.Lorem().Sentence(6),
		Criteria:      "Inclusion Criteria: " + Faker.Lorem().Sentence(10),
		OverallStatus: pointer.FromAny("RECRUITING"),
	}
}

func RandomMatchDocument(patientId string, mode gateway.Mode) *gateway.MatchDocument {
	count := Rand.Intn(5) + 1
	trials := make([]gateway.TrialMatch, 0, count)
	for i := 0; i < count; i++ {
		trials = append(trials, gateway.TrialMatch{
			NctId: fmt.Sprintf("NCT%08d", Rand.Intn(100000000)),
			Title: pointer.FromAny(Faker.Lorem().Sentence(5)),
			Score: pointer.FromAny(float64(100 - i*7)),
		})
	}
	return &gateway.MatchDocument{
		PatientId: patientId,
		Mode:      mode,
		CreatedAt: pointer.FromAny(Faker.Time().ISO8601(maxBirthDate)),
		Trials:    trials,
	}
}

func RandomPatientDetail(patientId string) *gateway.PatientDetail {
	return &gateway.PatientDetail{
		PatientId: patientId,
		CreatedAt: pointer.FromAny(Faker.Time().ISO8601(maxBirthDate)),
		Profile: &gateway.PatientProfile{
			Conditions:  randomSubset(conditions, 2),
			Medications: randomSubset(medications, 2),
			TextSummary: pointer.FromAny(Faker.Lorem().Sentence(10)),
			NerEntities: randomSubset(conditions, 1),
		},
	}
}

func randomSubset(values []string, count int) []string {
	result := make([]string, 0, count)
	for _, i := range Rand.Perm(len(values))[:count] {
		result = append(result, values[i])
	}
	return result
}
