package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trialmatch/workspace/config"
	"github.com/trialmatch/workspace/errors"
)

//go:generate mockgen --build_flags=--mod=mod -source=./gateway.go -destination=./test/mock_gateway.go -package test MockGateway

// Gateway is the only component touching the network. It holds no per-call state and is safe
// to share between orchestrators. None of the operations retry.
type Gateway interface {
	SubmitPatient(ctx context.Context, record PatientRecord) (*UploadedPatient, error)
	ListPatients(ctx context.Context) (*PatientIndex, error)
	FetchPatientDetail(ctx context.Context, patientId string) (*PatientDetail, error)
	RunMatching(ctx context.Context, request MatchRequest) (*MatchDocument, error)
	RunBatchMatching(ctx context.Context, request BatchMatchRequest) (*BatchMatchResponse, error)
	SubmitTrials(ctx context.Context, trials []TrialRecord, adminToken string) (*TrialsUploadResponse, error)
	ReportDownloadLocator(patientId string) string
}

type gateway struct {
	client ClientInterface
	server string
	logger *zap.SugaredLogger
}

var _ Gateway = &gateway{}

// NewGateway returns a gateway for the matching service configured in the environment
func NewGateway(cfg *config.Config, logger *zap.SugaredLogger) (Gateway, error) {
	httpClient := &http.Client{Timeout: cfg.HttpTimeout}
	return New(cfg.ApiBaseUrl, logger, WithHTTPClient(httpClient))
}

func New(server string, logger *zap.SugaredLogger, opts ...ClientOption) (Gateway, error) {
	withRequestId := func(ctx context.Context, req *http.Request) error {
		requestId := uuid.NewString()
		req.Header.Set(requestIdHeader, requestId)
		logger.Debugw("sending request", "method", req.Method, "url", req.URL.Redacted(), "requestId", requestId)
		return nil
	}

	opts = append(opts, WithRequestEditorFn(withRequestId))
	client, err := NewClient(server, opts...)
	if err != nil {
		return nil, err
	}

	return &gateway{
		client: client,
		server: client.Server,
		logger: logger,
	}, nil
}

func (g *gateway) SubmitPatient(ctx context.Context, record PatientRecord) (*UploadedPatient, error) {
	if record.Patient == nil {
		return nil, fmt.Errorf("%w: patient document is required", errors.InvalidInput)
	}

	rsp, err := g.client.PostPatientsUpload(ctx, record)
	result := &UploadedPatient{}
	if err := g.handleResponse("submit patient", rsp, err, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (g *gateway) ListPatients(ctx context.Context) (*PatientIndex, error) {
	rsp, err := g.client.GetPatientsIndex(ctx)
	result := &PatientIndex{}
	if err := g.handleResponse("list patients", rsp, err, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (g *gateway) FetchPatientDetail(ctx context.Context, patientId string) (*PatientDetail, error) {
	if patientId == "" {
		return nil, fmt.Errorf("%w: patient id is required", errors.InvalidInput)
	}

	rsp, err := g.client.GetPatientDetail(ctx, &GetPatientDetailParams{PatientId: patientId})
	result := &PatientDetail{}
	if err := g.handleResponse("fetch patient detail", rsp, err, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (g *gateway) RunMatching(ctx context.Context, request MatchRequest) (*MatchDocument, error) {
	if request.PatientId == "" {
		return nil, fmt.Errorf("%w: patient id is required", errors.InvalidInput)
	}
	if err := validateMatchParams(request.Mode, request.NumTrials); err != nil {
		return nil, err
	}

	rsp, err := g.client.PostTrialsMatch(ctx, request)
	result := &MatchDocument{}
	if err := g.handleResponse("run matching", rsp, err, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (g *gateway) RunBatchMatching(ctx context.Context, request BatchMatchRequest) (*BatchMatchResponse, error) {
	if len(request.PatientIds) == 0 {
		return nil, fmt.Errorf("%w: at least one patient id is required", errors.InvalidInput)
	}
	for _, id := range request.PatientIds {
		if id == "" {
			return nil, fmt.Errorf("%w: patient ids must not be empty", errors.InvalidInput)
		}
	}
	if err := validateMatchParams(request.Mode, request.NumTrials); err != nil {
		return nil, err
	}

	rsp, err := g.client.PostTrialsMatchBatch(ctx, request)
	result := &BatchMatchResponse{}
	if err := g.handleResponse("run batch matching", rsp, err, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (g *gateway) SubmitTrials(ctx context.Context, trials []TrialRecord, adminToken string) (*TrialsUploadResponse, error) {
	params := &PostTrialsUploadParams{}
	if adminToken != "" {
		params.XAdminToken = &adminToken
	}

	rsp, err := g.client.PostTrialsUpload(ctx, params, TrialsUploadRequest{Trials: trials})
	result := &TrialsUploadResponse{}
	if err := g.handleResponse("submit trials", rsp, err, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ReportDownloadLocator returns the URL of the rendered report of a patient. It doesn't perform
// any I/O and returns identical strings for identical ids.
func (g *gateway) ReportDownloadLocator(patientId string) string {
	req, err := NewGetPatientReportPdfRequest(g.server, &GetPatientReportPdfParams{PatientId: patientId})
	if err != nil {
		// the server url was already validated when the client was created
		g.logger.Errorw("unable to build report locator", "patientId", patientId, "error", err)
		return ""
	}
	return req.URL.String()
}

func (g *gateway) handleResponse(operation string, rsp *http.Response, err error, result interface{}) error {
	if err != nil {
		g.logger.Warnw("request failed", "operation", operation, "error", err)
		return fmt.Errorf("%w: %s: %w", errors.Transport, operation, err)
	}

	body, err := readBody(rsp)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errors.Transport, operation, err)
	}

	if rsp.StatusCode < 200 || rsp.StatusCode > 299 {
		sentinel := errors.FromStatusCode(rsp.StatusCode)
		message := errorMessage(body, rsp.StatusCode)
		g.logger.Infow("request was rejected", "operation", operation, "status", rsp.StatusCode, "message", message)
		return fmt.Errorf("%w: %s: %s", sentinel, operation, message)
	}

	if err := json.Unmarshal(body, result); err != nil {
		g.logger.Warnw("unable to decode response", "operation", operation, "error", err)
		return fmt.Errorf("%w: %s: unable to decode response: %w", errors.Transport, operation, err)
	}

	return nil
}

func validateMatchParams(mode Mode, numTrials *int) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: mode must be '%s' or '%s'", errors.InvalidInput, ModeDemo, ModeRandom)
	}
	if numTrials != nil && *numTrials <= 0 {
		return fmt.Errorf("%w: number of trials must be positive", errors.InvalidInput)
	}
	return nil
}

// errorMessage extracts the message from the service error envelope. Both the structured
// {"error": {"message": "..."}} and the flat {"error": "..."} variants are supported.
func errorMessage(body []byte, status int) string {
	envelope := struct {
		Error json.RawMessage `json:"error"`
	}{}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		structured := struct {
			Message string `json:"message"`
		}{}
		if err := json.Unmarshal(envelope.Error, &structured); err == nil && structured.Message != "" {
			return structured.Message
		}

		var flat string
		if err := json.Unmarshal(envelope.Error, &flat); err == nil && flat != "" {
			return flat
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 256 {
		return text
	}
	return http.StatusText(status)
}
