package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/oapi-codegen/runtime"
)

const (
	adminTokenHeader = "X-Admin-Token"
	requestIdHeader  = "X-Request-Id"
)

// Doer performs HTTP requests.
//
// The standard http.Client implements this interface.
type HttpRequestDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestEditorFn  is the function signature for the RequestEditor callback function
type RequestEditorFn func(ctx context.Context, req *http.Request) error

// Client is the low level client of the matching service. Each method performs exactly one
// round trip and returns the raw response.
type Client struct {
	// The endpoint of the server conforming to this interface, with scheme,
	// https://api.deepmap.com for example. This can contain a path relative
	// to the server, such as https://api.deepmap.com/dev-test, and all the
	// paths in the swagger spec will be appended to the server.
	Server string

	// Doer for performing requests, typically a *http.Client with any
	// customized settings, such as certificate chains.
	Client HttpRequestDoer

	// A list of callbacks for modifying requests which are generated before sending over
	// the network.
	RequestEditors []RequestEditorFn
}

// ClientOption allows setting custom parameters during construction
type ClientOption func(*Client) error

// Creates a new Client, with reasonable defaults
func NewClient(server string, opts ...ClientOption) (*Client, error) {
	client := Client{
		Server: server,
	}
	for _, o := range opts {
		if err := o(&client); err != nil {
			return nil, err
		}
	}
	// ensure the server URL always has a trailing slash
	if !strings.HasSuffix(client.Server, "/") {
		client.Server += "/"
	}
	if client.Client == nil {
		client.Client = &http.Client{}
	}
	return &client, nil
}

// WithHTTPClient allows overriding the default Doer, which is
// automatically created using http.Client. This is useful for tests.
func WithHTTPClient(doer HttpRequestDoer) ClientOption {
	return func(c *Client) error {
		c.Client = doer
		return nil
	}
}

// WithRequestEditorFn allows setting up a callback function, which will be
// called right before sending the request. This can be used to mutate the request.
func WithRequestEditorFn(fn RequestEditorFn) ClientOption {
	return func(c *Client) error {
		c.RequestEditors = append(c.RequestEditors, fn)
		return nil
	}
}

// The interface specification for the client above.
type ClientInterface interface {
	PostPatientsUpload(ctx context.Context, body PatientRecord, reqEditors ...RequestEditorFn) (*http.Response, error)
	GetPatientsIndex(ctx context.Context, reqEditors ...RequestEditorFn) (*http.Response, error)
	GetPatientDetail(ctx context.Context, params *GetPatientDetailParams, reqEditors ...RequestEditorFn) (*http.Response, error)
	PostTrialsMatch(ctx context.Context, body MatchRequest, reqEditors ...RequestEditorFn) (*http.Response, error)
	PostTrialsMatchBatch(ctx context.Context, body BatchMatchRequest, reqEditors ...RequestEditorFn) (*http.Response, error)
	PostTrialsUpload(ctx context.Context, params *PostTrialsUploadParams, body TrialsUploadRequest, reqEditors ...RequestEditorFn) (*http.Response, error)
}

var _ ClientInterface = &Client{}

func (c *Client) PostPatientsUpload(ctx context.Context, body PatientRecord, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewPostPatientsUploadRequest(c.Server, body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req, reqEditors)
}

func (c *Client) GetPatientsIndex(ctx context.Context, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewGetPatientsIndexRequest(c.Server)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req, reqEditors)
}

func (c *Client) GetPatientDetail(ctx context.Context, params *GetPatientDetailParams, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewGetPatientDetailRequest(c.Server, params)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req, reqEditors)
}

func (c *Client) PostTrialsMatch(ctx context.Context, body MatchRequest, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewPostTrialsMatchRequest(c.Server, body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req, reqEditors)
}

func (c *Client) PostTrialsMatchBatch(ctx context.Context, body BatchMatchRequest, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewPostTrialsMatchBatchRequest(c.Server, body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req, reqEditors)
}

func (c *Client) PostTrialsUpload(ctx context.Context, params *PostTrialsUploadParams, body TrialsUploadRequest, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewPostTrialsUploadRequest(c.Server, params, body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req, reqEditors)
}

func (c *Client) do(ctx context.Context, req *http.Request, reqEditors []RequestEditorFn) (*http.Response, error) {
	req = req.WithContext(ctx)
	if err := c.applyEditors(ctx, req, reqEditors); err != nil {
		return nil, err
	}
	return c.Client.Do(req)
}

func (c *Client) applyEditors(ctx context.Context, req *http.Request, additionalEditors []RequestEditorFn) error {
	for _, r := range c.RequestEditors {
		if err := r(ctx, req); err != nil {
			return err
		}
	}
	for _, r := range additionalEditors {
		if err := r(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// NewPostPatientsUploadRequest generates requests for PostPatientsUpload with a JSON body
func NewPostPatientsUploadRequest(server string, body PatientRecord) (*http.Request, error) {
	return newJSONRequest(server, "/api/patients_upload", body)
}

// NewGetPatientsIndexRequest generates requests for GetPatientsIndex
func NewGetPatientsIndexRequest(server string) (*http.Request, error) {
	queryURL, err := operationURL(server, "/api/patients_index")
	if err != nil {
		return nil, err
	}

	return http.NewRequest(http.MethodGet, queryURL.String(), nil)
}

// NewGetPatientDetailRequest generates requests for GetPatientDetail
func NewGetPatientDetailRequest(server string, params *GetPatientDetailParams) (*http.Request, error) {
	queryURL, err := patientQueryURL(server, "/api/patient_detail", params.PatientId)
	if err != nil {
		return nil, err
	}

	return http.NewRequest(http.MethodGet, queryURL.String(), nil)
}

// NewGetPatientReportPdfRequest generates requests for GetPatientReportPdf. The report is
// navigated to rather than fetched, so the request is mostly useful for its URL.
func NewGetPatientReportPdfRequest(server string, params *GetPatientReportPdfParams) (*http.Request, error) {
	queryURL, err := patientQueryURL(server, "/api/patient_report_pdf", params.PatientId)
	if err != nil {
		return nil, err
	}

	return http.NewRequest(http.MethodGet, queryURL.String(), nil)
}

// NewPostTrialsMatchRequest generates requests for PostTrialsMatch with a JSON body
func NewPostTrialsMatchRequest(server string, body MatchRequest) (*http.Request, error) {
	return newJSONRequest(server, "/api/trials_match", body)
}

// NewPostTrialsMatchBatchRequest generates requests for PostTrialsMatchBatch with a JSON body
func NewPostTrialsMatchBatchRequest(server string, body BatchMatchRequest) (*http.Request, error) {
	return newJSONRequest(server, "/api/trials_match_batch", body)
}

// NewPostTrialsUploadRequest generates requests for PostTrialsUpload with a JSON body
func NewPostTrialsUploadRequest(server string, params *PostTrialsUploadParams, body TrialsUploadRequest) (*http.Request, error) {
	req, err := newJSONRequest(server, "/api/trials_upload", body)
	if err != nil {
		return nil, err
	}

	if params != nil {
		if params.XAdminToken != nil {
			var headerParam0 string

			headerParam0, err = runtime.StyleParamWithLocation("simple", false, adminTokenHeader, runtime.ParamLocationHeader, *params.XAdminToken)
			if err != nil {
				return nil, err
			}

			req.Header.Set(adminTokenHeader, headerParam0)
		}
	}

	return req, nil
}

func newJSONRequest(server, operationPath string, body interface{}) (*http.Request, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	queryURL, err := operationURL(server, operationPath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, queryURL.String(), bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}

	req.Header.Add("Content-Type", "application/json")
	return req, nil
}

func operationURL(server, operationPath string) (*url.URL, error) {
	serverURL, err := url.Parse(server)
	if err != nil {
		return nil, err
	}

	if operationPath[0] == '/' {
		operationPath = "." + operationPath
	}

	return serverURL.Parse(operationPath)
}

func patientQueryURL(server, operationPath, patientId string) (*url.URL, error) {
	queryURL, err := operationURL(server, operationPath)
	if err != nil {
		return nil, err
	}

	queryValues := queryURL.Query()

	if queryFrag, err := runtime.StyleParamWithLocation("form", true, "patient_id", runtime.ParamLocationQuery, patientId); err != nil {
		return nil, err
	} else if parsed, err := url.ParseQuery(queryFrag); err != nil {
		return nil, err
	} else {
		for k, v := range parsed {
			for _, v2 := range v {
				queryValues.Add(k, v2)
			}
		}
	}

	queryURL.RawQuery = queryValues.Encode()
	return queryURL, nil
}

func readBody(rsp *http.Response) ([]byte, error) {
	defer func() { _ = rsp.Body.Close() }()
	body, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read response body: %w", err)
	}
	return body, nil
}
