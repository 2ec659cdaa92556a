package navigation

import (
	"context"
	errs "errors"
	"fmt"
	"sync"

	"github.com/eapache/queue"
	"github.com/mohae/deepcopy"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/trialmatch/workspace/cohort"
	"github.com/trialmatch/workspace/config"
	"github.com/trialmatch/workspace/errors"
	"github.com/trialmatch/workspace/gateway"
	"github.com/trialmatch/workspace/matching"
	"github.com/trialmatch/workspace/upload"
)

// Screen is a snapshot of the current view
type Screen struct {
	Route Route
	// Mode selected for the next matching run
	Mode    gateway.Mode
	Loading bool
	Running bool
	Error   string
	Status  string

	Cohort       []gateway.PatientSummary
	CohortLoaded bool

	Detail *gateway.PatientDetail
	// Document is the match document shown by the view. On the patient view it's hidden while
	// its mode differs from the selected one.
	Document      *gateway.MatchDocument
	ReportLocator string
	Batch         *matching.BatchOutcome
}

type view struct {
	cohort       []gateway.PatientSummary
	cohortLoaded bool
	detail       *gateway.PatientDetail
	latest       *gateway.MatchDocument
}

// Controller maps orchestration results onto views. Each entered view is rendered from the
// cohort store first and then refreshed from the server. Responses arriving after the view was
// replaced are discarded.
type Controller struct {
	gateway   gateway.Gateway
	refresher *cohort.Refresher
	store     cohort.Store
	matching  matching.Orchestrator
	upload    upload.Orchestrator
	numTrials *int
	logger    *zap.SugaredLogger

	mu          sync.Mutex
	route       Route
	history     []Route
	generation  uint64
	mode        gateway.Mode
	view        view
	loading     bool
	err         string
	status      string
	batch       *matching.BatchOutcome
	events      *queue.Queue
	dispatching bool
}

type Params struct {
	fx.In

	Config    *config.Config
	Gateway   gateway.Gateway
	Refresher *cohort.Refresher
	Matching  matching.Orchestrator
	Upload    upload.Orchestrator
	Logger    *zap.SugaredLogger
}

func NewController(p Params) *Controller {
	mode := gateway.ModeDemo
	var numTrials *int
	if p.Config != nil {
		if parsed, err := gateway.ParseMode(p.Config.DefaultMode); err == nil {
			mode = parsed
		} else if p.Config.DefaultMode != "" {
			p.Logger.Warnw("ignoring invalid default mode", "mode", p.Config.DefaultMode)
		}
		numTrials = p.Config.NumTrials
	}

	return &Controller{
		gateway:   p.Gateway,
		refresher: p.Refresher,
		store:     p.Refresher.Store(),
		matching:  p.Matching,
		upload:    p.Upload,
		numTrials: numTrials,
		logger:    p.Logger,
		route:     Dashboard(),
		mode:      mode,
		events:    queue.New(),
	}
}

// Open enters a view. Cached data is shown right away and the view is always re-fetched.
// The returned error is the one of the fetch, even when its result was discarded because
// another view was opened in the meantime.
func (c *Controller) Open(ctx context.Context, route Route) error {
	return c.open(ctx, route, true)
}

// Back returns to the previous view. It's a no-op on the first view.
func (c *Controller) Back(ctx context.Context) error {
	c.mu.Lock()
	if len(c.history) == 0 {
		c.mu.Unlock()
		return nil
	}
	route := c.history[len(c.history)-1]
	c.history = c.history[:len(c.history)-1]
	c.mu.Unlock()

	return c.open(ctx, route, false)
}

func (c *Controller) open(ctx context.Context, route Route, push bool) error {
	if route.HasPatient() && route.PatientId == "" {
		return fmt.Errorf("%w: patient id is required", errors.InvalidInput)
	}

	c.mu.Lock()
	if push && c.generation > 0 && c.route != route {
		c.history = append(c.history, c.route)
	}
	if c.route.Kind != route.Kind {
		c.batch = nil
	}
	c.route = route
	c.generation++
	generation := c.generation
	c.view = c.cachedView(route)
	c.loading = true
	c.err = ""
	c.status = ""
	c.mu.Unlock()

	c.logger.Debugw("opening view", "route", route.String(), "generation", generation)

	fresh := view{}
	var err error
	if route.HasPatient() {
		fresh.detail, err = c.refresher.RefreshDetail(ctx, route.PatientId)
		if err == nil {
			fresh.latest = fresh.detail.LatestMatches
		}
	} else {
		fresh.cohort, err = c.refresher.RefreshCohort(ctx)
		fresh.cohortLoaded = err == nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		c.logger.Debugw("discarding stale response", "route", route.String(), "generation", generation, "current", c.generation)
		return err
	}

	c.loading = false
	if err != nil {
		c.logger.Warnw("unable to refresh view", "route", route.String(), "error", err)
		c.err = errors.Message(err)
		return err
	}
	c.view = fresh
	return nil
}

// SelectMode changes the mode of the next run. A displayed document of another mode is hidden
// until a run in the selected mode completes.
func (c *Controller) SelectMode(mode gateway.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: mode must be '%s' or '%s'", errors.InvalidInput, gateway.ModeDemo, gateway.ModeRandom)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.mode = mode
	return nil
}

// RunMatching runs matching for the patient of the current view. On success the report view
// of that patient is opened, unless another patient was opened while the run was in flight.
func (c *Controller) RunMatching(ctx context.Context, mode gateway.Mode) (*matching.Outcome, error) {
	if err := c.SelectMode(mode); err != nil {
		return nil, err
	}

	c.mu.Lock()
	route := c.route
	if !route.HasPatient() {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: open a patient before running matching", errors.InvalidInput)
	}
	patientId := route.PatientId
	numTrials := c.numTrials
	c.err = ""
	c.status = ""
	c.mu.Unlock()

	outcome, err := c.matching.Run(ctx, patientId, mode, numTrials)

	c.mu.Lock()
	if !c.showsPatient(patientId) {
		c.logger.Infow("patient view was left while matching", "patientId", patientId)
		if err == nil {
			c.logger.Debugw("discarding navigation events", "patientId", patientId, "events", len(outcome.Events))
		}
		c.mu.Unlock()
		return outcome, err
	}
	if err != nil {
		c.err = errors.Message(err)
		c.mu.Unlock()
		return nil, err
	}

	document := outcome.Document
	c.view.latest = &document
	for _, event := range outcome.Events {
		c.events.Add(event)
	}
	c.mu.Unlock()

	if err := c.dispatch(ctx); err != nil {
		c.logger.Warnw("unable to open report", "patientId", patientId, "error", err)
	}
	return outcome, nil
}

// RunBatch runs matching for every patient of the displayed cohort
func (c *Controller) RunBatch(ctx context.Context, mode gateway.Mode) (*matching.BatchOutcome, error) {
	if err := c.SelectMode(mode); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.route.Kind != RouteAdmin {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: batch matching is only available on the admin view", errors.InvalidInput)
	}
	patientIds := make([]string, 0, len(c.view.cohort))
	for _, summary := range c.view.cohort {
		patientIds = append(patientIds, summary.PatientId)
	}
	numTrials := c.numTrials
	c.batch = nil
	c.err = ""
	c.status = "Running batch matching..."
	c.mu.Unlock()

	outcome, err := c.matching.RunBatch(ctx, patientIds, mode, numTrials)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.route.Kind != RouteAdmin {
		return outcome, err
	}
	switch {
	case errs.Is(err, errors.InvalidInput) && len(patientIds) == 0:
		c.status = matching.NoPatientsMessage
	case err != nil:
		c.status = "Batch matching failed."
		c.err = errors.Message(err)
	default:
		c.batch = outcome
		c.status = BatchStatus(outcome)
	}
	return outcome, err
}

func (c *Controller) UploadPatient(ctx context.Context, raw []byte, patientId string) (*upload.PatientResult, error) {
	result, err := c.upload.UploadPatient(ctx, raw, patientId)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.status = "Failed to upload patient JSON"
		c.err = errors.Message(err)
		return nil, err
	}

	c.err = ""
	c.status = fmt.Sprintf("Uploaded patient %s.", result.Patient.PatientId)
	if result.CohortRefreshErr != nil {
		c.status += " The patient list couldn't be refreshed."
	} else if !c.route.HasPatient() {
		c.view.cohort = result.Cohort
		c.view.cohortLoaded = true
	}
	return result, nil
}

func (c *Controller) UploadTrials(ctx context.Context, raw []byte, adminToken string) (*upload.TrialsResult, error) {
	result, err := c.upload.UploadTrials(ctx, raw, adminToken)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.status = "Failed to upload trials JSON"
		c.err = errors.Message(err)
		return nil, err
	}

	c.err = ""
	c.status = fmt.Sprintf("Upserted %d trials.", result.Upserted)
	return result, nil
}

// Screen returns a copy of the current view
func (c *Controller) Screen() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()

	screen := Screen{
		Route:        c.route,
		Mode:         c.mode,
		Loading:      c.loading,
		Error:        c.err,
		Status:       c.status,
		Cohort:       c.view.cohort,
		CohortLoaded: c.view.cohortLoaded,
		Batch:        c.batch,
	}

	if c.route.HasPatient() {
		screen.Running = c.matching.State(c.route.PatientId) == matching.StateRunning
		if c.view.detail != nil {
			detail := *c.view.detail
			detail.LatestMatches = nil
			screen.Detail = &detail
		}
	}

	switch c.route.Kind {
	case RoutePatientDetail:
		if c.view.latest != nil && c.view.latest.Mode == c.mode {
			screen.Document = c.view.latest
		}
	case RouteReport:
		screen.Document = c.view.latest
		screen.ReportLocator = c.gateway.ReportDownloadLocator(c.route.PatientId)
	}

	return deepcopy.Copy(screen).(Screen)
}

// BatchStatus is the status line of a completed batch
func BatchStatus(outcome *matching.BatchOutcome) string {
	return fmt.Sprintf("Completed batch matching. Succeeded: %d, Failed: %d", outcome.Succeeded, outcome.Failed)
}

func (c *Controller) dispatch(ctx context.Context) error {
	c.mu.Lock()
	if c.dispatching {
		c.mu.Unlock()
		return nil
	}
	c.dispatching = true
	c.mu.Unlock()

	var result error
	for {
		c.mu.Lock()
		if c.events.Length() == 0 {
			c.dispatching = false
			c.mu.Unlock()
			return result
		}
		event := c.events.Remove().(matching.NavigateTo)
		c.mu.Unlock()

		if err := c.handle(ctx, event); err != nil && result == nil {
			result = err
		}
	}
}

func (c *Controller) handle(ctx context.Context, event matching.NavigateTo) error {
	switch event.View {
	case matching.ViewReport:
		return c.Open(ctx, Report(event.PatientId))
	default:
		c.logger.Warnw("ignoring navigation to an unknown view", "view", event.View, "patientId", event.PatientId)
		return nil
	}
}

func (c *Controller) cachedView(route Route) view {
	if !route.HasPatient() {
		cohort, loaded := c.store.Cohort()
		return view{cohort: cohort, cohortLoaded: loaded}
	}

	v := view{}
	if detail, ok := c.store.Detail(route.PatientId); ok {
		v.detail = detail
		v.latest = detail.LatestMatches
	}
	if latest, ok := c.store.LatestMatch(route.PatientId); ok {
		v.latest = latest
	}
	return v
}

func (c *Controller) showsPatient(patientId string) bool {
	return c.route.HasPatient() && c.route.PatientId == patientId
}
