package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/trialmatch/workspace/cohort"
	"github.com/trialmatch/workspace/errors"
	"github.com/trialmatch/workspace/gateway"
)

// Orchestrator validates local payloads and submits them to the matching service. Malformed
// payloads fail with errors.InvalidInput before any network call.
type Orchestrator interface {
	UploadPatient(ctx context.Context, raw []byte, patientId string) (*PatientResult, error)
	UploadTrials(ctx context.Context, raw []byte, adminToken string) (*TrialsResult, error)
}

type PatientResult struct {
	Patient gateway.UploadedPatient
	// Cohort is the refreshed patient list, nil if the refresh failed
	Cohort []gateway.PatientSummary
	// CohortRefreshErr is set when the patient was accepted but the cohort couldn't be reloaded
	CohortRefreshErr error
}

type TrialsResult struct {
	Upserted int
}

type orchestrator struct {
	gateway   gateway.Gateway
	refresher *cohort.Refresher
	logger    *zap.SugaredLogger
}

var _ Orchestrator = &orchestrator{}

type Params struct {
	fx.In

	Gateway   gateway.Gateway
	Refresher *cohort.Refresher
	Logger    *zap.SugaredLogger
}

func NewOrchestrator(p Params) Orchestrator {
	return &orchestrator{
		gateway:   p.Gateway,
		refresher: p.Refresher,
		logger:    p.Logger,
	}
}

func (o *orchestrator) UploadPatient(ctx context.Context, raw []byte, patientId string) (*PatientResult, error) {
	document, err := ParsePatient(raw)
	if err != nil {
		return nil, err
	}

	record := gateway.PatientRecord{Patient: document}
	if patientId != "" {
		record.PatientId = &patientId
	}

	uploaded, err := o.gateway.SubmitPatient(ctx, record)
	if err != nil {
		return nil, err
	}
	o.logger.Infow("patient uploaded", "patientId", uploaded.PatientId)

	// The list is always reloaded from the server so derived fields match what it parsed
	result := &PatientResult{Patient: *uploaded}
	if result.Cohort, err = o.refresher.RefreshCohort(ctx); err != nil {
		o.logger.Warnw("unable to refresh cohort after upload", "patientId", uploaded.PatientId, "error", err)
		result.CohortRefreshErr = err
	}

	return result, nil
}

func (o *orchestrator) UploadTrials(ctx context.Context, raw []byte, adminToken string) (*TrialsResult, error) {
	trials, err := ParseTrials(raw)
	if err != nil {
		return nil, err
	}

	response, err := o.gateway.SubmitTrials(ctx, trials, adminToken)
	if err != nil {
		return nil, err
	}
	o.logger.Infow("trials uploaded", "submitted", len(trials), "upserted", response.Upserted)

	return &TrialsResult{Upserted: response.Upserted}, nil
}

// ParsePatient decodes a patient document. The document must be a JSON object.
func ParsePatient(raw []byte) (map[string]interface{}, error) {
	value, err := parse(raw)
	if err != nil {
		return nil, err
	}

	document, ok := value.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: patient document must be a JSON object", errors.InvalidInput)
	}
	return document, nil
}

// ParseTrials decodes a trial dataset given either as a bare array or as an object with a
// "trials" array. Elements are only checked for shape, the criteria text is never inspected.
func ParseTrials(raw []byte) ([]gateway.TrialRecord, error) {
	value, err := parse(raw)
	if err != nil {
		return nil, err
	}

	var items []interface{}
	switch v := value.(type) {
	case []interface{}:
		items = v
	case map[string]interface{}:
		var ok bool
		if items, ok = v["trials"].([]interface{}); !ok {
			return nil, fmt.Errorf("%w: expected an array of trials or an object with a `trials` array", errors.InvalidInput)
		}
	default:
		return nil, fmt.Errorf("%w: expected an array of trials or an object with a `trials` array", errors.InvalidInput)
	}

	trials := make([]gateway.TrialRecord, 0, len(items))
	for i, item := range items {
		if _, ok := item.(map[string]interface{}); !ok {
			return nil, fmt.Errorf("%w: trial at index %d must be an object", errors.InvalidInput, i)
		}

		trial := gateway.TrialRecord{}
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &trial,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(item); err != nil {
			return nil, fmt.Errorf("%w: trial at index %d: %w", errors.InvalidInput, i, err)
		}
		trials = append(trials, trial)
	}

	return trials, nil
}

// ReadFile reads a local payload. A missing or unreadable file is an input validation failure.
func ReadFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read %s: %w", errors.InvalidInput, path, err)
	}
	return raw, nil
}

func parse(raw []byte) (interface{}, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: payload is empty", errors.InvalidInput)
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("%w: payload is not valid JSON: %w", errors.InvalidInput, err)
	}
	return value, nil
}
