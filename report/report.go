package report

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/trialmatch/workspace/gateway"
	"github.com/trialmatch/workspace/matching"
	"github.com/trialmatch/workspace/navigation"
)

const (
	SheetNameSummary = "Summary"
	SheetNameTrials  = "Trials"
	SheetNameBatch   = "Batch"

	// MaxTrials is the number of ranked trials listed in a report
	MaxTrials = 15
)

// MatchReport is a spreadsheet rendition of one matching run
type MatchReport struct {
	Document    gateway.MatchDocument
	Detail      *gateway.PatientDetail
	Locator     string
	CreatedTime time.Time
}

func (r MatchReport) Generate() (*xlsx.File, error) {
	report := xlsx.NewFile()

	components := []func(report *xlsx.File) error{
		r.addSummarySheet,
		r.addTrialsSheet,
	}
	for _, fn := range components {
		if err := fn(report); err != nil {
			return nil, err
		}
	}

	return report, nil
}

func (r MatchReport) addSummarySheet(report *xlsx.File) error {
	sh, err := report.AddSheet(SheetNameSummary)
	if err != nil {
		return err
	}

	sh.AddRow().AddCell().SetValue("Trial Match Report")
	sh.AddRow()

	addPair(sh, "Report Generated", r.CreatedTime.Format(time.RFC3339))
	addPair(sh, "Patient", r.Document.PatientId)
	addPair(sh, "Mode", navigation.FormatMode(r.Document.Mode))
	addPair(sh, "Matched At", navigation.FormatText(r.Document.CreatedAt))
	addPair(sh, "Trials Matched", strconv.Itoa(len(r.Document.Trials)))
	if r.Locator != "" {
		addPair(sh, "Report Download", r.Locator)
	}
	sh.AddRow()

	var profile *gateway.PatientProfile
	if r.Detail != nil {
		profile = r.Detail.Profile
	}
	sh.AddRow().AddCell().SetValue("Profile ---")
	if profile == nil {
		addPair(sh, "Conditions", navigation.NotAvailable)
		addPair(sh, "Medications", navigation.NotAvailable)
		addPair(sh, "Summary", navigation.NotAvailable)
		return nil
	}
	addPair(sh, "Conditions", navigation.FormatList(profile.Conditions))
	addPair(sh, "Medications", navigation.FormatList(profile.Medications))
	addPair(sh, "Summary", navigation.FormatText(profile.TextSummary))

	return nil
}

func (r MatchReport) addTrialsSheet(report *xlsx.File) error {
	sh, err := report.AddSheet(SheetNameTrials)
	if err != nil {
		return err
	}

	addHeader(sh, "Rank", "NCT ID", "Title", "Score")
	for i, trial := range Ranked(r.Document.Trials, MaxTrials) {
		currentRow := sh.AddRow()
		currentRow.AddCell().SetValue(strconv.Itoa(i + 1))
		currentRow.AddCell().SetValue(trial.NctId)
		currentRow.AddCell().SetValue(navigation.FormatText(trial.Title))
		currentRow.AddCell().SetValue(navigation.FormatScore(trial.Score))
	}

	return nil
}

// BatchReport is a spreadsheet rendition of a batch outcome
type BatchReport struct {
	Mode        gateway.Mode
	Outcome     matching.BatchOutcome
	CreatedTime time.Time
}

func (r BatchReport) Generate() (*xlsx.File, error) {
	report := xlsx.NewFile()

	sh, err := report.AddSheet(SheetNameBatch)
	if err != nil {
		return nil, err
	}

	sh.AddRow().AddCell().SetValue("Batch Match Report")
	sh.AddRow()
	addPair(sh, "Report Generated", r.CreatedTime.Format(time.RFC3339))
	addPair(sh, "Mode", navigation.FormatMode(r.Mode))
	addPair(sh, "Succeeded", strconv.Itoa(r.Outcome.Succeeded))
	addPair(sh, "Failed", strconv.Itoa(r.Outcome.Failed))
	sh.AddRow()

	addHeader(sh, "Patient", "Status", "Trials Matched", "Top Trial", "Top Score", "Error")
	for _, entry := range r.Outcome.Entries {
		currentRow := sh.AddRow()
		currentRow.AddCell().SetValue(entry.PatientId)
		if entry.Failed() {
			currentRow.AddCell().SetValue("Failed")
			currentRow.AddCell().SetValue(navigation.NotAvailable)
			currentRow.AddCell().SetValue(navigation.NotAvailable)
			currentRow.AddCell().SetValue(navigation.NotAvailable)
			currentRow.AddCell().SetValue(*entry.Error)
			continue
		}

		doc := entry.Document()
		currentRow.AddCell().SetValue("Succeeded")
		currentRow.AddCell().SetValue(strconv.Itoa(len(doc.Trials)))
		if top := Ranked(doc.Trials, 1); len(top) == 1 {
			currentRow.AddCell().SetValue(top[0].NctId)
			currentRow.AddCell().SetValue(navigation.FormatScore(top[0].Score))
		} else {
			currentRow.AddCell().SetValue(navigation.NotAvailable)
			currentRow.AddCell().SetValue(navigation.NotAvailable)
		}
		currentRow.AddCell()
	}
	for _, patientId := range r.Outcome.Missing {
		currentRow := sh.AddRow()
		currentRow.AddCell().SetValue(patientId)
		currentRow.AddCell().SetValue("Missing")
		currentRow.AddCell().SetValue(navigation.NotAvailable)
		currentRow.AddCell().SetValue(navigation.NotAvailable)
		currentRow.AddCell().SetValue(navigation.NotAvailable)
		currentRow.AddCell().SetValue("no result returned for patient")
	}

	return report, nil
}

// Ranked returns at most limit trials ordered by descending score. Trials without a score are
// listed last, in server order.
func Ranked(trials []gateway.TrialMatch, limit int) []gateway.TrialMatch {
	ranked := append([]gateway.TrialMatch(nil), trials...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].Score, ranked[j].Score
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return *a > *b
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Save writes the generated file to path
func Save(file *xlsx.File, path string) error {
	if err := file.Save(path); err != nil {
		return fmt.Errorf("unable to save report to %s: %w", path, err)
	}
	return nil
}

func addPair(sh *xlsx.Sheet, label, value string) {
	currentRow := sh.AddRow()
	currentRow.AddCell().SetValue(label)
	currentRow.AddCell().SetValue(value)
}

func addHeader(sh *xlsx.Sheet, labels ...string) {
	currentRow := sh.AddRow()
	for _, label := range labels {
		currentRow.AddCell().SetValue(label)
	}
}
