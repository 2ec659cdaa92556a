package cohort

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/trialmatch/workspace/errors"
	"github.com/trialmatch/workspace/gateway"
)

const cohortKey = "cohort"

// Refresher re-synchronizes the store with the server. Failed fetches leave the store untouched.
type Refresher struct {
	gateway gateway.Gateway
	store   Store
	logger  *zap.SugaredLogger
	group   singleflight.Group
}

func NewRefresher(gw gateway.Gateway, store Store, logger *zap.SugaredLogger) *Refresher {
	return &Refresher{
		gateway: gw,
		store:   store,
		logger:  logger,
	}
}

func (r *Refresher) Store() Store {
	return r.store
}

// RefreshCohort replaces the cached patient list with the server's. Concurrent callers share
// a single round trip, which isn't cancelled when one of them gives up.
func (r *Refresher) RefreshCohort(ctx context.Context) ([]gateway.PatientSummary, error) {
	ch := r.group.DoChan(cohortKey, func() (interface{}, error) {
		index, err := r.gateway.ListPatients(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		r.store.ReplaceCohort(index.Patients)
		return nil, nil
	})

	var result singleflight.Result
	select {
	case result = <-ch:
	case <-ctx.Done():
		r.logger.Debugw("stopped waiting for cohort refresh", "error", ctx.Err())
		return nil, fmt.Errorf("%w: unable to refresh cohort: %w", errors.Transport, ctx.Err())
	}

	if result.Err != nil {
		r.logger.Warnw("unable to refresh cohort", "error", result.Err)
		return nil, fmt.Errorf("unable to refresh cohort: %w", result.Err)
	}
	if result.Shared {
		r.logger.Debug("cohort refresh was shared with a concurrent caller")
	}

	cohort, _ := r.store.Cohort()
	return cohort, nil
}

// RefreshDetail replaces the cached detail of a patient with the server's. A match document
// stored while the fetch was in flight is kept.
func (r *Refresher) RefreshDetail(ctx context.Context, patientId string) (*gateway.PatientDetail, error) {
	revision := r.store.Revision()
	detail, err := r.gateway.FetchPatientDetail(ctx, patientId)
	if err != nil {
		r.logger.Warnw("unable to refresh patient detail", "patientId", patientId, "error", err)
		return nil, fmt.Errorf("unable to refresh patient detail: %w", err)
	}

	r.store.SetFetchedDetail(patientId, *detail, revision)
	cached, ok := r.store.Detail(patientId)
	if !ok {
		// evicted by a concurrent writer, the fetched detail is still valid
		return detail, nil
	}
	return cached, nil
}
