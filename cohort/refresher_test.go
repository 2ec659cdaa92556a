package cohort_test

import (
	"context"
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/trialmatch/workspace/cohort"
	"github.com/trialmatch/workspace/errors"
	"github.com/trialmatch/workspace/gateway"
	gatewayTest "github.com/trialmatch/workspace/gateway/test"
	"github.com/trialmatch/workspace/test"
)

var _ = Describe("Refresher", func() {
	var ctrl *gomock.Controller
	var gw *gatewayTest.MockGateway
	var store cohort.Store
	var refresher *cohort.Refresher
	var ctx context.Context

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		ctrl = gomock.NewController(GinkgoT())
		gw = gatewayTest.NewMockGateway(ctrl)
		store, err = cohort.NewStore(nil, zap.NewNop().Sugar())
		Expect(err).ToNot(HaveOccurred())
		refresher = cohort.NewRefresher(gw, store, zap.NewNop().Sugar())
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	Describe("RefreshCohort", func() {
		It("replaces the cached cohort", func() {
			patients := []gateway.PatientSummary{{PatientId: "p1"}, {PatientId: "p2"}}
			gw.EXPECT().ListPatients(gomock.Any()).Return(&gateway.PatientIndex{Patients: patients}, nil)

			cohort, err := refresher.RefreshCohort(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(cohort).To(Equal(patients))

			cached, loaded := store.Cohort()
			Expect(loaded).To(BeTrue())
			Expect(cached).To(Equal(patients))
		})

		It("keeps the cached cohort when the request fails", func() {
			store.ReplaceCohort([]gateway.PatientSummary{{PatientId: "p1"}})
			gw.EXPECT().ListPatients(gomock.Any()).Return(nil, fmt.Errorf("%w: connection refused", errors.Transport))

			_, err := refresher.RefreshCohort(ctx)
			Expect(err).To(MatchError(errors.Transport))

			cached, _ := store.Cohort()
			Expect(cached).To(HaveLen(1))
		})

		It("shares one round trip between concurrent callers", func() {
			release := make(chan struct{})
			started := make(chan struct{})
			gw.EXPECT().ListPatients(gomock.Any()).DoAndReturn(func(ctx context.Context) (*gateway.PatientIndex, error) {
				close(started)
				<-release
				return &gateway.PatientIndex{Patients: []gateway.PatientSummary{{PatientId: "p1"}}}, nil
			}).Times(1)

			wg := sync.WaitGroup{}
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := refresher.RefreshCohort(ctx)
				Expect(err).ToNot(HaveOccurred())
			}()
			<-started

			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				cohort, err := refresher.RefreshCohort(ctx)
				Expect(err).ToNot(HaveOccurred())
				Expect(cohort).To(HaveLen(1))
			}()

			// give the second caller time to join the in-flight call
			Consistently(started).Should(BeClosed())
			close(release)
			wg.Wait()
		})

		It("completes the shared round trip when the first caller gives up", func() {
			release := make(chan struct{})
			started := make(chan struct{})
			gw.EXPECT().ListPatients(gomock.Any()).DoAndReturn(func(ctx context.Context) (*gateway.PatientIndex, error) {
				close(started)
				<-release
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				return &gateway.PatientIndex{Patients: []gateway.PatientSummary{{PatientId: "p1"}}}, nil
			}).Times(1)

			cancelled, cancel := context.WithCancel(ctx)
			first := make(chan error)
			go func() {
				defer GinkgoRecover()
				_, err := refresher.RefreshCohort(cancelled)
				first <- err
			}()
			<-started

			second := make(chan []gateway.PatientSummary)
			go func() {
				defer GinkgoRecover()
				cohort, err := refresher.RefreshCohort(ctx)
				Expect(err).ToNot(HaveOccurred())
				second <- cohort
			}()

			cancel()
			Eventually(first).Should(Receive(MatchError(context.Canceled)))

			close(release)
			Eventually(second).Should(Receive(HaveLen(1)))

			cached, loaded := store.Cohort()
			Expect(loaded).To(BeTrue())
			Expect(cached).To(HaveLen(1))
		})
	})

	Describe("RefreshDetail", func() {
		It("caches the fetched detail", func() {
			detail := test.RandomPatientDetail("p1")
			gw.EXPECT().FetchPatientDetail(gomock.Any(), "p1").Return(detail, nil)

			result, err := refresher.RefreshDetail(ctx, "p1")
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(Equal(detail))

			cached, ok := store.Detail("p1")
			Expect(ok).To(BeTrue())
			Expect(cached).To(Equal(detail))
		})

		It("keeps a match document stored while the fetch was in flight", func() {
			stale := test.RandomMatchDocument("p1", gateway.ModeDemo)
			fresh := test.RandomMatchDocument("p1", gateway.ModeRandom)

			detail := test.RandomPatientDetail("p1")
			detail.LatestMatches = stale
			gw.EXPECT().FetchPatientDetail(gomock.Any(), "p1").DoAndReturn(func(ctx context.Context, patientId string) (*gateway.PatientDetail, error) {
				store.SetLatestMatch("p1", *fresh)
				return detail, nil
			})

			result, err := refresher.RefreshDetail(ctx, "p1")
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Profile).To(Equal(detail.Profile))
			Expect(result.LatestMatches.Mode).To(Equal(gateway.ModeRandom))

			latest, ok := store.LatestMatch("p1")
			Expect(ok).To(BeTrue())
			Expect(latest).To(Equal(fresh))
		})

		It("doesn't cache anything for an unknown patient", func() {
			gw.EXPECT().FetchPatientDetail(gomock.Any(), "unknown").Return(nil, fmt.Errorf("%w: Patient 'unknown' not found", errors.NotFound))

			result, err := refresher.RefreshDetail(ctx, "unknown")
			Expect(err).To(MatchError(errors.NotFound))
			Expect(result).To(BeNil())

			_, ok := store.Detail("unknown")
			Expect(ok).To(BeFalse())
		})
	})
})
