package gateway

import (
	"fmt"

	"github.com/trialmatch/workspace/errors"
	"github.com/trialmatch/workspace/pointer"
)

// Mode selects the trial subset the matching engine screens against
type Mode string

const (
	ModeDemo   Mode = "demo"
	ModeRandom Mode = "random"
)

func (m Mode) Valid() bool {
	return m == ModeDemo || m == ModeRandom
}

func ParseMode(value string) (Mode, error) {
	mode := Mode(value)
	if !mode.Valid() {
		return "", fmt.Errorf("%w: mode must be '%s' or '%s'", errors.InvalidInput, ModeDemo, ModeRandom)
	}
	return mode, nil
}

// PatientRecord is an uploaded EHR-like document with an optional caller supplied identifier
type PatientRecord struct {
	Patient   map[string]interface{} `json:"patient"`
	PatientId *string                `json:"patient_id,omitempty"`
}

type PatientSummary struct {
	PatientId  string   `json:"patient_id"`
	CreatedAt  *string  `json:"created_at,omitempty"`
	Conditions []string `json:"conditions"`
}

// PatientProfile is produced by the extraction engine. A nil slice means the field was absent
// from the response, an empty slice means the engine parsed nothing.
type PatientProfile struct {
	Conditions  []string `json:"conditions"`
	Medications []string `json:"medications"`
	TextSummary *string  `json:"text_summary"`
	NerEntities []string `json:"ner_entities"`
}

type TrialRecord struct {
	NctId         string  `json:"nct_id" mapstructure:"nct_id"`
	BriefTitle    string  `json:"brief_title" mapstructure:"brief_title"`
	Criteria      string  `json:"criteria" mapstructure:"criteria"`
	OverallStatus *string `json:"overall_status,omitempty" mapstructure:"overall_status"`
}

type TrialMatch struct {
	NctId string   `json:"nct_id"`
	Title *string  `json:"title"`
	Score *float64 `json:"score"`
}

// MatchDocument is the result of one completed matching run. It is only valid for the
// patient and mode it was generated for.
type MatchDocument struct {
	PatientId string       `json:"patient_id"`
	Mode      Mode         `json:"mode"`
	CreatedAt *string      `json:"created_at,omitempty"`
	Trials    []TrialMatch `json:"trials"`
}

// BatchMatchResult is either a populated match document or an error for one requested patient
type BatchMatchResult struct {
	PatientId string       `json:"patient_id"`
	Mode      *Mode        `json:"mode,omitempty"`
	CreatedAt *string      `json:"created_at,omitempty"`
	Trials    []TrialMatch `json:"trials,omitempty"`
	Error     *string      `json:"error,omitempty"`
}

func (b BatchMatchResult) Failed() bool {
	return b.Error != nil
}

// Document returns the match document carried by a successful entry
func (b BatchMatchResult) Document() *MatchDocument {
	if b.Failed() {
		return nil
	}

	return &MatchDocument{
		PatientId: b.PatientId,
		Mode:      pointer.Deref(b.Mode, ""),
		CreatedAt: b.CreatedAt,
		Trials:    b.Trials,
	}
}

type PatientDetail struct {
	PatientId     string          `json:"patient_id"`
	CreatedAt     *string         `json:"created_at,omitempty"`
	Profile       *PatientProfile `json:"profile"`
	LatestMatches *MatchDocument  `json:"latest_matches,omitempty"`
}

type UploadedPatient struct {
	PatientId string          `json:"patient_id"`
	Profile   *PatientProfile `json:"profile"`
}

type PatientIndex struct {
	Patients []PatientSummary `json:"patients"`
}

type MatchRequest struct {
	PatientId string `json:"patient_id"`
	Mode      Mode   `json:"mode"`
	NumTrials *int   `json:"num_trials,omitempty"`
}

type BatchMatchRequest struct {
	PatientIds []string `json:"patient_ids"`
	Mode       Mode     `json:"mode"`
	NumTrials  *int     `json:"num_trials,omitempty"`
}

type BatchMatchResponse struct {
	Results []BatchMatchResult `json:"results"`
}

type TrialsUploadRequest struct {
	Trials []TrialRecord `json:"trials"`
}

type TrialsUploadResponse struct {
	Upserted int `json:"upserted"`
}

// GetPatientDetailParams defines parameters for GetPatientDetail.
type GetPatientDetailParams struct {
	PatientId string `form:"patient_id" json:"patient_id"`
}

// GetPatientReportPdfParams defines parameters for GetPatientReportPdf.
type GetPatientReportPdfParams struct {
	PatientId string `form:"patient_id" json:"patient_id"`
}

// PostTrialsUploadParams defines parameters for PostTrialsUpload.
type PostTrialsUploadParams struct {
	XAdminToken *string `json:"X-Admin-Token,omitempty"`
}
