package report_test

import (
	"fmt"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/tealeg/xlsx/v3"

	"github.com/trialmatch/workspace/gateway"
	"github.com/trialmatch/workspace/matching"
	"github.com/trialmatch/workspace/navigation"
	"github.com/trialmatch/workspace/pointer"
	"github.com/trialmatch/workspace/report"
	"github.com/trialmatch/workspace/test"
)

const (
	summarySheetIdx = 0
	trialsSheetIdx  = 1
	batchSheetIdx   = 0
)

var _ = Describe("Reports", func() {
	createdTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	Describe("MatchReport", func() {
		It("summarizes the run", func() {
			doc := test.RandomMatchDocument("p1", gateway.ModeRandom)
			file := generate(report.MatchReport{
				Document:    *doc,
				Detail:      test.RandomPatientDetail("p1"),
				Locator:     "http://localhost:5000/api/patient_report_pdf?patient_id=p1",
				CreatedTime: createdTime,
			})

			Expect(file.Sheets).To(HaveLen(2))
			Expect(value(file, summarySheetIdx, "Patient")).To(Equal("p1"))
			Expect(value(file, summarySheetIdx, "Mode")).To(Equal("Random"))
			Expect(value(file, summarySheetIdx, "Matched At")).To(Equal(*doc.CreatedAt))
			Expect(value(file, summarySheetIdx, "Trials Matched")).To(Equal(fmt.Sprint(len(doc.Trials))))
			Expect(value(file, summarySheetIdx, "Report Generated")).To(Equal("2024-03-01T12:00:00Z"))
			Expect(value(file, summarySheetIdx, "Report Download")).To(HaveSuffix("patient_id=p1"))
		})

		It("marks absent values as not available", func() {
			file := generate(report.MatchReport{
				Document: gateway.MatchDocument{
					PatientId: "p1",
					Mode:      gateway.ModeDemo,
					Trials:    []gateway.TrialMatch{{NctId: "NCT1"}},
				},
				Detail: &gateway.PatientDetail{
					PatientId: "p1",
					Profile:   &gateway.PatientProfile{Conditions: []string{}},
				},
				CreatedTime: createdTime,
			})

			Expect(value(file, summarySheetIdx, "Matched At")).To(Equal(navigation.NotAvailable))
			Expect(value(file, summarySheetIdx, "Conditions")).To(Equal(navigation.NoneParsed))
			Expect(value(file, summarySheetIdx, "Medications")).To(Equal(navigation.NotAvailable))
			Expect(value(file, summarySheetIdx, "Summary")).To(Equal(navigation.NotAvailable))

			rows := sheet(file, trialsSheetIdx)
			Expect(rows[1][2]).To(Equal(navigation.NotAvailable))
			Expect(rows[1][3]).To(Equal(navigation.NotAvailable))
		})

		It("lists at most fifteen trials ranked by score", func() {
			trials := make([]gateway.TrialMatch, 0, 20)
			for i := 0; i < 20; i++ {
				trials = append(trials, gateway.TrialMatch{
					NctId: fmt.Sprintf("NCT%02d", i),
					Title: pointer.FromAny(fmt.Sprintf("Trial %d", i)),
					Score: pointer.FromAny(float64(i)),
				})
			}
			file := generate(report.MatchReport{
				Document:    gateway.MatchDocument{PatientId: "p1", Mode: gateway.ModeDemo, Trials: trials},
				CreatedTime: createdTime,
			})

			rows := nonEmpty(sheet(file, trialsSheetIdx))
			Expect(rows).To(HaveLen(report.MaxTrials + 1))
			Expect(rows[0][:4]).To(Equal([]string{"Rank", "NCT ID", "Title", "Score"}))
			Expect(rows[1][:4]).To(Equal([]string{"1", "NCT19", "Trial 19", "19.00"}))
			Expect(rows[15][1]).To(Equal("NCT05"))
		})

		It("can be saved", func() {
			file := generate(report.MatchReport{
				Document:    *test.RandomMatchDocument("p1", gateway.ModeDemo),
				CreatedTime: createdTime,
			})

			path := filepath.Join(GinkgoT().TempDir(), "report.xlsx")
			Expect(report.Save(file, path)).To(Succeed())

			saved, err := xlsx.OpenFile(path)
			Expect(err).ToNot(HaveOccurred())
			Expect(value(saved, summarySheetIdx, "Patient")).To(Equal("p1"))
		})
	})

	Describe("BatchReport", func() {
		It("lists every requested patient", func() {
			mode := gateway.ModeDemo
			file := generate(report.BatchReport{
				Mode: gateway.ModeDemo,
				Outcome: matching.BatchOutcome{
					Succeeded: 1,
					Failed:    2,
					Missing:   []string{"p3"},
					Entries: []gateway.BatchMatchResult{
						{PatientId: "p1", Mode: &mode, Trials: []gateway.TrialMatch{
							{NctId: "NCT1", Score: pointer.FromAny(50.0)},
							{NctId: "NCT2", Score: pointer.FromAny(90.0)},
						}},
						{PatientId: "p2", Error: pointer.FromAny("matching engine unavailable")},
					},
				},
				CreatedTime: createdTime,
			})

			Expect(value(file, batchSheetIdx, "Succeeded")).To(Equal("1"))
			Expect(value(file, batchSheetIdx, "Failed")).To(Equal("2"))
			Expect(row(file, batchSheetIdx, "p1")[1:5]).To(Equal([]string{"Succeeded", "2", "NCT2", "90.00"}))
			Expect(row(file, batchSheetIdx, "p2")[1]).To(Equal("Failed"))
			Expect(row(file, batchSheetIdx, "p2")[5]).To(Equal("matching engine unavailable"))
			Expect(row(file, batchSheetIdx, "p3")[1]).To(Equal("Missing"))
		})
	})

	Describe("Ranked", func() {
		It("lists trials without a score last", func() {
			ranked := report.Ranked([]gateway.TrialMatch{
				{NctId: "NCT1"},
				{NctId: "NCT2", Score: pointer.FromAny(10.0)},
				{NctId: "NCT3", Score: pointer.FromAny(20.0)},
			}, 10)

			ids := make([]string, 0, len(ranked))
			for _, trial := range ranked {
				ids = append(ids, trial.NctId)
			}
			Expect(ids).To(Equal([]string{"NCT3", "NCT2", "NCT1"}))
		})
	})
})

type generator interface {
	Generate() (*xlsx.File, error)
}

func generate(g generator) *xlsx.File {
	file, err := g.Generate()
	Expect(err).ToNot(HaveOccurred())
	Expect(file).ToNot(BeNil())
	return file
}

func sheet(f *xlsx.File, idx int) [][]string {
	m, err := f.ToSlice()
	Expect(err).To(Succeed())
	Expect(len(m)).To(BeNumerically(">", idx))
	return m[idx]
}

func nonEmpty(rows [][]string) [][]string {
	result := make([][]string, 0, len(rows))
	for _, r := range rows {
		if len(r) > 0 && r[0] != "" {
			result = append(result, r)
		}
	}
	return result
}

func row(f *xlsx.File, idx int, label string) []string {
	for _, r := range sheet(f, idx) {
		if len(r) > 0 && r[0] == label {
			return r
		}
	}
	Fail(fmt.Sprintf("row %q not found", label))
	return nil
}

func value(f *xlsx.File, idx int, label string) string {
	r := row(f, idx, label)
	Expect(len(r)).To(BeNumerically(">", 1))
	return r[1]
}
