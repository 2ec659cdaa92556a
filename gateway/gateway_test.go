package gateway_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/trialmatch/workspace/errors"
	"github.com/trialmatch/workspace/gateway"
	gatewayTest "github.com/trialmatch/workspace/gateway/test"
	"github.com/trialmatch/workspace/pointer"
	"github.com/trialmatch/workspace/test"
)

var _ = Describe("Gateway", func() {
	var server *gatewayTest.MatchingServer
	var gw gateway.Gateway
	var ctx context.Context

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		server = gatewayTest.ServerStub()
		gw, err = gateway.New(server.URL, zap.NewNop().Sugar())
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	uploadPatient := func(patientId string) *gateway.UploadedPatient {
		result, err := gw.SubmitPatient(ctx, gateway.PatientRecord{
			Patient:   test.RandomPatientDocument(),
			PatientId: pointer.FromAny(patientId),
		})
		Expect(err).ToNot(HaveOccurred())
		return result
	}

	Describe("SubmitPatient", func() {
		It("returns the patient id and the parsed profile", func() {
			document := test.RandomPatientDocument()
			result, err := gw.SubmitPatient(ctx, gateway.PatientRecord{Patient: document})
			Expect(err).ToNot(HaveOccurred())
			Expect(result.PatientId).To(Equal(document["id"]))
			Expect(result.Profile).ToNot(BeNil())
			Expect(result.Profile.Conditions).To(ConsistOf(document["conditions"]))
		})

		It("rejects a missing document without calling the server", func() {
			_, err := gw.SubmitPatient(ctx, gateway.PatientRecord{})
			Expect(err).To(MatchError(errors.InvalidInput))
			Expect(server.Requests()).To(BeEmpty())
		})

		It("lists the patient exactly once after a retried upload with the same id", func() {
			patientId := test.RandomPatientId()
			uploadPatient(patientId)
			uploadPatient(patientId)

			index, err := gw.ListPatients(ctx)
			Expect(err).ToNot(HaveOccurred())

			count := 0
			for _, p := range index.Patients {
				if p.PatientId == patientId {
					count++
				}
			}
			Expect(count).To(Equal(1))
		})

		It("tags every request with a request id", func() {
			uploadPatient(test.RandomPatientId())
			requests := server.Requests()
			Expect(requests).To(HaveLen(1))
			Expect(requests[0].RequestId).ToNot(BeEmpty())
		})
	})

	Describe("FetchPatientDetail", func() {
		It("returns the profile of an uploaded patient", func() {
			patientId := test.RandomPatientId()
			uploadPatient(patientId)

			detail, err := gw.FetchPatientDetail(ctx, patientId)
			Expect(err).ToNot(HaveOccurred())
			Expect(detail.PatientId).To(Equal(patientId))
			Expect(detail.Profile).ToNot(BeNil())
			Expect(detail.CreatedAt).ToNot(BeNil())
			Expect(detail.LatestMatches).To(BeNil())
		})

		It("returns not found without a profile for an unknown patient", func() {
			detail, err := gw.FetchPatientDetail(ctx, "unknown")
			Expect(err).To(MatchError(errors.NotFound))
			Expect(err.Error()).To(ContainSubstring("Patient 'unknown' not found"))
			Expect(detail).To(BeNil())
		})

		It("percent-encodes the patient id", func() {
			patientId := "a/b c&d=e"
			uploadPatient(patientId)

			detail, err := gw.FetchPatientDetail(ctx, patientId)
			Expect(err).ToNot(HaveOccurred())
			Expect(detail.PatientId).To(Equal(patientId))

			requests := server.Requests()
			raw := requests[len(requests)-1].RawQuery
			Expect(raw).ToNot(ContainSubstring("&d="))
			values, err := url.ParseQuery(raw)
			Expect(err).ToNot(HaveOccurred())
			Expect(values.Get("patient_id")).To(Equal(patientId))
		})

		It("requires a patient id", func() {
			_, err := gw.FetchPatientDetail(ctx, "")
			Expect(err).To(MatchError(errors.InvalidInput))
			Expect(server.Requests()).To(BeEmpty())
		})
	})

	Describe("RunMatching", func() {
		It("returns the match document for the requested mode", func() {
			patientId := test.RandomPatientId()
			uploadPatient(patientId)

			doc, err := gw.RunMatching(ctx, gateway.MatchRequest{PatientId: patientId, Mode: gateway.ModeRandom, NumTrials: pointer.FromAny(2)})
			Expect(err).ToNot(HaveOccurred())
			Expect(doc.PatientId).To(Equal(patientId))
			Expect(doc.Mode).To(Equal(gateway.ModeRandom))
			Expect(doc.Trials).To(HaveLen(2))
			Expect(*doc.Trials[0].Score).To(BeNumerically(">", *doc.Trials[1].Score))
		})

		It("returns not found for an unknown patient", func() {
			_, err := gw.RunMatching(ctx, gateway.MatchRequest{PatientId: "unknown", Mode: gateway.ModeDemo})
			Expect(err).To(MatchError(errors.NotFound))
		})

		It("rejects an invalid mode before calling the server", func() {
			_, err := gw.RunMatching(ctx, gateway.MatchRequest{PatientId: "p", Mode: "sampled"})
			Expect(err).To(MatchError(errors.InvalidInput))
			Expect(server.Requests()).To(BeEmpty())
		})

		It("rejects a non positive number of trials", func() {
			_, err := gw.RunMatching(ctx, gateway.MatchRequest{PatientId: "p", Mode: gateway.ModeDemo, NumTrials: pointer.FromAny(0)})
			Expect(err).To(MatchError(errors.InvalidInput))
		})

		It("reports a server error as a transport failure", func() {
			patientId := test.RandomPatientId()
			uploadPatient(patientId)
			server.FailMatching(patientId, "model unavailable")

			_, err := gw.RunMatching(ctx, gateway.MatchRequest{PatientId: patientId, Mode: gateway.ModeDemo})
			Expect(err).To(MatchError(errors.Transport))
			Expect(err.Error()).To(ContainSubstring("model unavailable"))
		})
	})

	Describe("RunBatchMatching", func() {
		It("carries per patient failures in band", func() {
			ids := []string{test.RandomPatientId(), test.RandomPatientId(), test.RandomPatientId()}
			for _, id := range ids {
				uploadPatient(id)
			}
			server.FailMatching(ids[1], "scoring failed")

			response, err := gw.RunBatchMatching(ctx, gateway.BatchMatchRequest{PatientIds: ids, Mode: gateway.ModeDemo})
			Expect(err).ToNot(HaveOccurred())
			Expect(response.Results).To(HaveLen(3))

			failed := 0
			for _, r := range response.Results {
				if r.Failed() {
					failed++
					Expect(r.PatientId).To(Equal(ids[1]))
					Expect(r.Document()).To(BeNil())
				} else {
					Expect(r.Document().Mode).To(Equal(gateway.ModeDemo))
				}
			}
			Expect(failed).To(Equal(1))
			Expect(server.RequestCount("/api/trials_match_batch")).To(Equal(1))
		})

		It("requires at least one patient id", func() {
			_, err := gw.RunBatchMatching(ctx, gateway.BatchMatchRequest{Mode: gateway.ModeDemo})
			Expect(err).To(MatchError(errors.InvalidInput))
			Expect(server.Requests()).To(BeEmpty())
		})

		It("reports a closed server as a transport failure", func() {
			server.Close()
			_, err := gw.RunBatchMatching(ctx, gateway.BatchMatchRequest{PatientIds: []string{"p1"}, Mode: gateway.ModeDemo})
			Expect(err).To(MatchError(errors.Transport))
		})
	})

	Describe("SubmitTrials", func() {
		It("forwards the admin token", func() {
			server.RequireAdminToken = true
			trials := []gateway.TrialRecord{test.RandomTrial(), test.RandomTrial()}

			result, err := gw.SubmitTrials(ctx, trials, gatewayTest.AdminToken)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Upserted).To(Equal(2))
			Expect(server.Requests()[0].AdminToken).To(Equal(gatewayTest.AdminToken))
		})

		It("sends the request without a token and surfaces the authorization failure", func() {
			server.RequireAdminToken = true

			_, err := gw.SubmitTrials(ctx, []gateway.TrialRecord{test.RandomTrial()}, "")
			Expect(err).To(MatchError(errors.Unauthorized))
			Expect(server.Requests()).To(HaveLen(1))
			Expect(server.Requests()[0].AdminToken).To(BeEmpty())
		})

		It("doesn't require a token when the server has no guard", func() {
			result, err := gw.SubmitTrials(ctx, []gateway.TrialRecord{test.RandomTrial()}, "")
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Upserted).To(Equal(1))
		})
	})

	Describe("ReportDownloadLocator", func() {
		It("is identical for repeated calls", func() {
			first := gw.ReportDownloadLocator("patient 1/2")
			second := gw.ReportDownloadLocator("patient 1/2")
			Expect(first).To(Equal(second))
			Expect(server.Requests()).To(BeEmpty())
		})

		It("points to the rendered report of the patient", func() {
			patientId := test.RandomPatientId()
			uploadPatient(patientId)
			_, err := gw.RunMatching(ctx, gateway.MatchRequest{PatientId: patientId, Mode: gateway.ModeDemo})
			Expect(err).ToNot(HaveOccurred())

			locator := gw.ReportDownloadLocator(patientId)
			Expect(strings.HasPrefix(locator, server.URL+"/api/patient_report_pdf?")).To(BeTrue())

			rsp, err := http.Get(locator)
			Expect(err).ToNot(HaveOccurred())
			defer rsp.Body.Close()
			Expect(rsp.StatusCode).To(Equal(http.StatusOK))
			Expect(rsp.Header.Get("Content-Type")).To(Equal("application/pdf"))
		})

		It("keeps the path of the base url", func() {
			prefixed, err := gateway.New("https://trialmatch.example.com/v1", zap.NewNop().Sugar())
			Expect(err).ToNot(HaveOccurred())
			Expect(prefixed.ReportDownloadLocator("p1")).To(Equal("https://trialmatch.example.com/v1/api/patient_report_pdf?patient_id=p1"))
		})
	})
})
