package test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	"github.com/brpaz/echozap"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/trialmatch/workspace/errors"
	"github.com/trialmatch/workspace/gateway"
)

const (
	AdminToken    = "admin-secret"
	DefaultTrials = 5
)

type RecordedRequest struct {
	Method     string
	Path       string
	RawQuery   string
	AdminToken string
	RequestId  string
}

type storedPatient struct {
	patientId string
	createdAt string
	profile   gateway.PatientProfile
	latest    *gateway.MatchDocument
}

// MatchingServer is an in-memory stand-in for the matching service
type MatchingServer struct {
	*httptest.Server

	// RequireAdminToken enables the admin guard of the trials upload endpoint
	RequireAdminToken bool

	mu       sync.Mutex
	clock    time.Time
	patients map[string]*storedPatient
	trials   map[string]gateway.TrialRecord
	failing  map[string]string
	requests []RecordedRequest
}

func ServerStub() *MatchingServer {
	stub := &MatchingServer{
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		patients: make(map[string]*storedPatient),
		trials:   make(map[string]gateway.TrialRecord),
		failing:  make(map[string]string),
	}
	for i := 1; i <= DefaultTrials; i++ {
		nctId := fmt.Sprintf("NCT%08d", i)
		stub.trials[nctId] = gateway.TrialRecord{
			NctId:      nctId,
			BriefTitle: fmt.Sprintf("Demo trial %d", i),
			Criteria:   "Inclusion Criteria: adults",
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errors.CustomHTTPErrorHandler
	e.Use(echozap.ZapLogger(zap.NewNop()))
	e.Use(stub.record)

	e.POST("/api/patients_upload", stub.uploadPatient)
	e.GET("/api/patients_index", stub.listPatients)
	e.GET("/api/patient_detail", stub.patientDetail)
	e.POST("/api/trials_match", stub.trialsMatch)
	e.POST("/api/trials_match_batch", stub.trialsMatchBatch)
	e.POST("/api/trials_upload", stub.trialsUpload)
	e.GET("/api/patient_report_pdf", stub.reportPdf)

	stub.Server = httptest.NewServer(e)
	return stub
}

// FailMatching makes every matching run of the patient fail with the given message
func (m *MatchingServer) FailMatching(patientId, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[patientId] = message
}

func (m *MatchingServer) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// RequestCount returns the number of requests received for a path
func (m *MatchingServer) RequestCount(path string) int {
	count := 0
	for _, r := range m.Requests() {
		if r.Path == path {
			count++
		}
	}
	return count
}

func (m *MatchingServer) Trials() []gateway.TrialRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedTrials()
}

func (m *MatchingServer) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		m.mu.Lock()
		m.requests = append(m.requests, RecordedRequest{
			Method:     req.Method,
			Path:       req.URL.Path,
			RawQuery:   req.URL.RawQuery,
			AdminToken: req.Header.Get("X-Admin-Token"),
			RequestId:  req.Header.Get("X-Request-Id"),
		})
		m.mu.Unlock()
		return next(c)
	}
}

func (m *MatchingServer) uploadPatient(c echo.Context) error {
	body := gateway.PatientRecord{}
	if err := c.Bind(&body); err != nil || body.Patient == nil {
		return fmt.Errorf("%w: `patient` must be a JSON object", errors.BadRequest)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	patientId := ""
	if body.PatientId != nil && *body.PatientId != "" {
		patientId = *body.PatientId
	} else if id, ok := body.Patient["id"].(string); ok && id != "" {
		patientId = id
	} else {
		patientId = fmt.Sprintf("patient-%d", len(m.patients)+1)
	}

	m.clock = m.clock.Add(time.Minute)
	stored := &storedPatient{
		patientId: patientId,
		createdAt: m.clock.Format(time.RFC3339),
		profile:   buildProfile(body.Patient),
	}
	if existing, ok := m.patients[patientId]; ok {
		stored.latest = existing.latest
	}
	m.patients[patientId] = stored

	return c.JSON(http.StatusOK, gateway.UploadedPatient{
		PatientId: patientId,
		Profile:   &stored.profile,
	})
}

func (m *MatchingServer) listPatients(c echo.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	patients := make([]gateway.PatientSummary, 0, len(m.patients))
	for _, p := range m.patients {
		createdAt := p.createdAt
		conditions := p.profile.Conditions
		if len(conditions) > 4 {
			conditions = conditions[:4]
		}
		patients = append(patients, gateway.PatientSummary{
			PatientId:  p.patientId,
			CreatedAt:  &createdAt,
			Conditions: conditions,
		})
	}
	sort.Slice(patients, func(i, j int) bool {
		return *patients[i].CreatedAt > *patients[j].CreatedAt
	})

	return c.JSON(http.StatusOK, gateway.PatientIndex{Patients: patients})
}

func (m *MatchingServer) patientDetail(c echo.Context) error {
	patientId := c.QueryParam("patient_id")
	if patientId == "" {
		return fmt.Errorf("%w: patient_id query parameter is required", errors.BadRequest)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.patients[patientId]
	if !ok {
		return fmt.Errorf("%w: Patient '%s' not found", errors.NotFound, patientId)
	}

	createdAt := p.createdAt
	return c.JSON(http.StatusOK, gateway.PatientDetail{
		PatientId:     p.patientId,
		CreatedAt:     &createdAt,
		Profile:       &p.profile,
		LatestMatches: p.latest,
	})
}

func (m *MatchingServer) trialsMatch(c echo.Context) error {
	body := gateway.MatchRequest{}
	if err := c.Bind(&body); err != nil || body.PatientId == "" {
		return fmt.Errorf("%w: patient_id is required", errors.BadRequest)
	}
	if !body.Mode.Valid() {
		return fmt.Errorf("%w: mode must be 'demo' or 'random'", errors.BadRequest)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.runMatching(body.PatientId, body.Mode, body.NumTrials)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

func (m *MatchingServer) trialsMatchBatch(c echo.Context) error {
	body := gateway.BatchMatchRequest{}
	if err := c.Bind(&body); err != nil || len(body.PatientIds) == 0 {
		return fmt.Errorf("%w: patient_ids must be a non-empty list", errors.BadRequest)
	}
	if !body.Mode.Valid() {
		return fmt.Errorf("%w: mode must be 'demo' or 'random'", errors.BadRequest)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]gateway.BatchMatchResult, 0, len(body.PatientIds))
	for _, patientId := range body.PatientIds {
		doc, err := m.runMatching(patientId, body.Mode, body.NumTrials)
		if err != nil {
			message := err.Error()
			results = append(results, gateway.BatchMatchResult{PatientId: patientId, Error: &message})
			continue
		}
		mode := doc.Mode
		results = append(results, gateway.BatchMatchResult{
			PatientId: doc.PatientId,
			Mode:      &mode,
			CreatedAt: doc.CreatedAt,
			Trials:    doc.Trials,
		})
	}

	return c.JSON(http.StatusOK, gateway.BatchMatchResponse{Results: results})
}

func (m *MatchingServer) trialsUpload(c echo.Context) error {
	if m.RequireAdminToken && c.Request().Header.Get("X-Admin-Token") != AdminToken {
		return fmt.Errorf("%w: Unauthorized (invalid admin token).", errors.Unauthorized)
	}

	body := gateway.TrialsUploadRequest{}
	if err := c.Bind(&body); err != nil || len(body.Trials) == 0 {
		return fmt.Errorf("%w: `trials` must be a non-empty list", errors.BadRequest)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	upserted := 0
	for _, trial := range body.Trials {
		if trial.NctId == "" || trial.BriefTitle == "" || trial.Criteria == "" {
			continue
		}
		m.trials[trial.NctId] = trial
		upserted++
	}

	return c.JSON(http.StatusOK, gateway.TrialsUploadResponse{Upserted: upserted})
}

func (m *MatchingServer) reportPdf(c echo.Context) error {
	patientId := c.QueryParam("patient_id")

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.patients[patientId]
	if !ok {
		return fmt.Errorf("%w: Patient '%s' not found", errors.NotFound, patientId)
	}
	if p.latest == nil {
		return fmt.Errorf("%w: No match results found for this patient", errors.NotFound)
	}

	return c.Blob(http.StatusOK, "application/pdf", []byte("%PDF-1.4\n"))
}

func (m *MatchingServer) runMatching(patientId string, mode gateway.Mode, numTrials *int) (*gateway.MatchDocument, error) {
	p, ok := m.patients[patientId]
	if !ok {
		return nil, fmt.Errorf("%w: Patient '%s' not found", errors.NotFound, patientId)
	}
	if message, ok := m.failing[patientId]; ok {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, message)
	}

	trials := m.sortedTrials()
	limit := len(trials)
	if mode == gateway.ModeRandom {
		limit = DefaultTrials
		if numTrials != nil {
			limit = *numTrials
		}
	}
	if limit > len(trials) {
		limit = len(trials)
	}

	m.clock = m.clock.Add(time.Minute)
	createdAt := m.clock.Format(time.RFC3339)
	doc := &gateway.MatchDocument{
		PatientId: patientId,
		Mode:      mode,
		CreatedAt: &createdAt,
		Trials:    make([]gateway.TrialMatch, 0, limit),
	}
	for i, trial := range trials[:limit] {
		title := trial.BriefTitle
		score := float64(100 - i*10)
		doc.Trials = append(doc.Trials, gateway.TrialMatch{NctId: trial.NctId, Title: &title, Score: &score})
	}

	p.latest = doc
	return doc, nil
}

func (m *MatchingServer) sortedTrials() []gateway.TrialRecord {
	trials := make([]gateway.TrialRecord, 0, len(m.trials))
	for _, t := range m.trials {
		trials = append(trials, t)
	}
	sort.Slice(trials, func(i, j int) bool {
		return trials[i].NctId < trials[j].NctId
	})
	return trials
}

func buildProfile(document map[string]interface{}) gateway.PatientProfile {
	profile := gateway.PatientProfile{
		Conditions:  stringList(document["conditions"]),
		Medications: stringList(document["medications"]),
		NerEntities: []string{},
	}
	if summary, ok := document["summary"].(string); ok {
		profile.TextSummary = &summary
	}
	profile.NerEntities = append(profile.NerEntities, profile.Conditions...)
	return profile
}

func stringList(value interface{}) []string {
	result := []string{}
	items, ok := value.([]interface{})
	if !ok {
		return result
	}
	for _, item := range items {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}
