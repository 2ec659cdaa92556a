package cohort

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/mohae/deepcopy"
	"go.uber.org/zap"

	"github.com/trialmatch/workspace/config"
	"github.com/trialmatch/workspace/gateway"
)

const DefaultCacheSize = 256

// Store is a read cache of the server state. Writes replace whole snapshots or whole entries,
// reads return deep copies, so no caller can mutate cached data in place.
type Store interface {
	ReplaceCohort(summaries []gateway.PatientSummary)
	Cohort() ([]gateway.PatientSummary, bool)
	SetDetail(patientId string, detail gateway.PatientDetail)
	SetFetchedDetail(patientId string, detail gateway.PatientDetail, revision uint64)
	Revision() uint64
	Detail(patientId string) (*gateway.PatientDetail, bool)
	SetLatestMatch(patientId string, doc gateway.MatchDocument)
	LatestMatch(patientId string) (*gateway.MatchDocument, bool)
}

type entry struct {
	detail *gateway.PatientDetail
	latest *gateway.MatchDocument

	// revision of the last SetLatestMatch of the patient
	revision uint64
}

type store struct {
	mu sync.Mutex

	cohort       []gateway.PatientSummary
	cohortLoaded bool
	revision     uint64
	entries      *simplelru.LRU
	logger       *zap.SugaredLogger
}

var _ Store = &store{}

// NewStore returns an empty store. Every view and test is expected to use its own instance.
func NewStore(cfg *config.Config, logger *zap.SugaredLogger) (Store, error) {
	size := DefaultCacheSize
	if cfg != nil && cfg.CacheSize > 0 {
		size = cfg.CacheSize
	}

	entries, err := simplelru.NewLRU(size, func(key interface{}, value interface{}) {
		logger.Debugw("evicting cached patient", "patientId", key)
	})
	if err != nil {
		return nil, err
	}

	return &store{
		entries: entries,
		logger:  logger,
	}, nil
}

func (s *store) ReplaceCohort(summaries []gateway.PatientSummary) {
	seen := mapset.NewThreadUnsafeSet[string]()
	cohort := make([]gateway.PatientSummary, 0, len(summaries))
	for _, summary := range summaries {
		if !seen.Add(summary.PatientId) {
			s.logger.Warnw("ignoring duplicate patient in cohort", "patientId", summary.PatientId)
			continue
		}
		cohort = append(cohort, deepcopy.Copy(summary).(gateway.PatientSummary))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cohort = cohort
	s.cohortLoaded = true
}

// Cohort returns a snapshot of the patient list. The second value is false until the list was
// loaded at least once, so "never loaded" is distinguishable from "empty".
func (s *store) Cohort() ([]gateway.PatientSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cohortLoaded {
		return nil, false
	}
	return deepcopy.Copy(s.cohort).([]gateway.PatientSummary), true
}

// SetDetail replaces the cached detail of one patient. A detail carrying latest matches
// replaces the cached match document; one without keeps the document of a run completed
// in this session.
func (s *store) SetDetail(patientId string, detail gateway.PatientDetail) {
	detail = deepcopy.Copy(detail).(gateway.PatientDetail)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.setDetail(patientId, detail, true)
}

// SetFetchedDetail stores a detail fetched from the server after Revision returned revision.
// The latest matches of the response only replace the cached document when no run of the
// patient completed after the fetch was started.
func (s *store) SetFetchedDetail(patientId string, detail gateway.PatientDetail, revision uint64) {
	detail = deepcopy.Copy(detail).(gateway.PatientDetail)

	s.mu.Lock()
	defer s.mu.Unlock()

	current := true
	if value, ok := s.entries.Peek(patientId); ok && value.(*entry).revision > revision {
		current = false
		s.logger.Debugw("keeping match document newer than fetched detail", "patientId", patientId)
	}
	s.setDetail(patientId, detail, current)
}

// Revision returns the sequence number of the last match document write
func (s *store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.revision
}

func (s *store) setDetail(patientId string, detail gateway.PatientDetail, replaceLatest bool) {
	e := s.entry(patientId)
	e.detail = &detail
	if replaceLatest && detail.LatestMatches != nil {
		latest := *detail.LatestMatches
		e.latest = &latest
	}
}

func (s *store) Detail(patientId string) (*gateway.PatientDetail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.entries.Get(patientId)
	if !ok || value.(*entry).detail == nil {
		return nil, false
	}

	e := value.(*entry)
	detail := deepcopy.Copy(*e.detail).(gateway.PatientDetail)
	if e.latest != nil {
		latest := deepcopy.Copy(*e.latest).(gateway.MatchDocument)
		detail.LatestMatches = &latest
	}
	return &detail, true
}

// SetLatestMatch overwrites the match document of one patient. Documents of a previous run,
// whatever their mode, are superseded and never merged.
func (s *store) SetLatestMatch(patientId string, doc gateway.MatchDocument) {
	doc = deepcopy.Copy(doc).(gateway.MatchDocument)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.revision++
	e := s.entry(patientId)
	e.latest = &doc
	e.revision = s.revision
}

func (s *store) LatestMatch(patientId string) (*gateway.MatchDocument, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.entries.Get(patientId)
	if !ok || value.(*entry).latest == nil {
		return nil, false
	}

	doc := deepcopy.Copy(*value.(*entry).latest).(gateway.MatchDocument)
	return &doc, true
}

func (s *store) entry(patientId string) *entry {
	if value, ok := s.entries.Get(patientId); ok {
		return value.(*entry)
	}

	e := &entry{}
	s.entries.Add(patientId, e)
	return e
}
