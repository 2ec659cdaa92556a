package matching

import (
	"context"
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/trialmatch/workspace/cohort"
	"github.com/trialmatch/workspace/errors"
	"github.com/trialmatch/workspace/gateway"
)

const NoPatientsMessage = "No patients available to match."

// State of the latest single-patient run
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

type View string

const ViewReport View = "report"

// NavigateTo asks the view layer to show a view for a patient
type NavigateTo struct {
	View      View
	PatientId string
}

// Outcome of a successful run. The document is already in the cohort store when the outcome
// is returned, so the events can be dispatched right away.
type Outcome struct {
	Document gateway.MatchDocument
	Events   []NavigateTo
}

// BatchOutcome summarizes a batch run whose envelope call succeeded. Entries hold one result per
// answered patient, in response order. Requested patients the response didn't mention are
// listed in Missing and counted as failed.
type BatchOutcome struct {
	Succeeded int
	Failed    int
	Missing   []string
	Entries   []gateway.BatchMatchResult
}

type Orchestrator interface {
	Run(ctx context.Context, patientId string, mode gateway.Mode, numTrials *int) (*Outcome, error)
	RunBatch(ctx context.Context, patientIds []string, mode gateway.Mode, numTrials *int) (*BatchOutcome, error)
	State(patientId string) State
}

type orchestrator struct {
	gateway gateway.Gateway
	store   cohort.Store
	logger  *zap.SugaredLogger

	mu           sync.Mutex
	states       map[string]State
	batchRunning bool
}

var _ Orchestrator = &orchestrator{}

type Params struct {
	fx.In

	Gateway gateway.Gateway
	Store   cohort.Store
	Logger  *zap.SugaredLogger
}

func NewOrchestrator(p Params) Orchestrator {
	return &orchestrator{
		gateway: p.Gateway,
		store:   p.Store,
		logger:  p.Logger,
		states:  make(map[string]State),
	}
}

// Run performs one matching run. A second run for a patient whose run is still in flight is
// rejected with errors.InProgress without a network call.
func (o *orchestrator) Run(ctx context.Context, patientId string, mode gateway.Mode, numTrials *int) (*Outcome, error) {
	if patientId == "" {
		return nil, fmt.Errorf("%w: patient id is required", errors.InvalidInput)
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: mode must be '%s' or '%s'", errors.InvalidInput, gateway.ModeDemo, gateway.ModeRandom)
	}
	if err := o.start(patientId); err != nil {
		return nil, err
	}

	logger := o.logger.With("patientId", patientId, "mode", mode)
	logger.Debug("running matching")

	doc, err := o.gateway.RunMatching(ctx, gateway.MatchRequest{
		PatientId: patientId,
		Mode:      mode,
		NumTrials: numTrials,
	})
	if err != nil {
		o.finish(patientId, StateFailed)
		logger.Warnw("matching failed", "error", err)
		return nil, err
	}

	if doc.PatientId != patientId || doc.Mode != mode {
		o.finish(patientId, StateFailed)
		logger.Errorw("matching returned a document for another run", "documentPatientId", doc.PatientId, "documentMode", doc.Mode)
		return nil, fmt.Errorf("%w: run matching: response is for patient '%s' in mode '%s'", errors.Transport, doc.PatientId, doc.Mode)
	}

	o.store.SetLatestMatch(patientId, *doc)
	o.finish(patientId, StateSucceeded)
	logger.Infow("matching completed", "trials", len(doc.Trials))

	return &Outcome{
		Document: *doc,
		Events:   []NavigateTo{{View: ViewReport, PatientId: patientId}},
	}, nil
}

// RunBatch matches several patients with a single request. An error is returned only when the
// whole request failed; failures of individual patients are reported in the outcome. Batch
// results are not written to the cohort store.
func (o *orchestrator) RunBatch(ctx context.Context, patientIds []string, mode gateway.Mode, numTrials *int) (*BatchOutcome, error) {
	requested := mapset.NewThreadUnsafeSet[string]()
	ids := make([]string, 0, len(patientIds))
	for _, id := range patientIds {
		if requested.Add(id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %s", errors.InvalidInput, NoPatientsMessage)
	}

	o.mu.Lock()
	if o.batchRunning {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: a batch is already running", errors.InProgress)
	}
	o.batchRunning = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.batchRunning = false
		o.mu.Unlock()
	}()

	o.logger.Infow("running batch matching", "patients", len(ids), "mode", mode)
	response, err := o.gateway.RunBatchMatching(ctx, gateway.BatchMatchRequest{
		PatientIds: ids,
		Mode:       mode,
		NumTrials:  numTrials,
	})
	if err != nil {
		o.logger.Warnw("batch matching failed", "error", err)
		return nil, err
	}

	outcome := classify(ids, requested, response.Results, o.logger)
	o.logger.Infow("batch matching completed", "succeeded", outcome.Succeeded, "failed", outcome.Failed, "missing", len(outcome.Missing))
	return outcome, nil
}

func (o *orchestrator) State(patientId string) State {
	o.mu.Lock()
	defer o.mu.Unlock()

	if state, ok := o.states[patientId]; ok {
		return state
	}
	return StateIdle
}

func (o *orchestrator) start(patientId string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.states[patientId] == StateRunning {
		return fmt.Errorf("%w: matching is already running for patient '%s'", errors.InProgress, patientId)
	}
	o.states[patientId] = StateRunning
	return nil
}

func (o *orchestrator) finish(patientId string, state State) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.states[patientId] = state
}

func classify(ids []string, requested mapset.Set[string], results []gateway.BatchMatchResult, logger *zap.SugaredLogger) *BatchOutcome {
	outcome := &BatchOutcome{
		Entries: make([]gateway.BatchMatchResult, 0, len(results)),
	}

	answered := mapset.NewThreadUnsafeSet[string]()
	for _, result := range results {
		if !requested.Contains(result.PatientId) {
			logger.Warnw("ignoring batch result for a patient that wasn't requested", "patientId", result.PatientId)
			continue
		}
		if !answered.Add(result.PatientId) {
			logger.Warnw("ignoring duplicate batch result", "patientId", result.PatientId)
			continue
		}

		outcome.Entries = append(outcome.Entries, result)
		if result.Failed() {
			outcome.Failed++
		} else {
			outcome.Succeeded++
		}
	}

	for _, id := range ids {
		if !answered.Contains(id) {
			outcome.Missing = append(outcome.Missing, id)
			outcome.Failed++
		}
	}

	return outcome
}
