package services

import (
	"context"
	"testing"
	"time"

	"github.com/huangang/evalstats/internal/config"
	"github.com/huangang/evalstats/internal/events"
	"github.com/huangang/evalstats/internal/models"
	"github.com/huangang/evalstats/internal/stats"
	"github.com/huangang/evalstats/internal/store/storetest"
	"gorm.io/gorm"
)

// testApp wires the write services to the aggregators through the outbox
// relay and an inline bus, the way the server does without Redis.
type testApp struct {
	db       *gorm.DB
	relay    *events.Relay
	entries  *EntryService
	evals    *EvaluationService
	flags    *FlagService
	sessions *SessionService
	settings *SettingsService
	stats    *StatsService
	deletion *stats.DeletionWorkflow
}

func newTestApp(t *testing.T, target int64) *testApp {
	t.Helper()
	db := storetest.NewDB(t)
	storetest.Seed(t, db, target)

	coord := stats.NewCoordinator(stats.NewGormStore(db), stats.Options{
		MaxAttempts:     8,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	})
	router := events.NewRouter()
	stats.NewAggregators(coord, target).Register(router)
	relay := events.NewRelay(db, events.NewLocalBus(router, true), config.RelayConfig{BatchSize: 50}, "test")

	d := Deps{DB: db, Coord: coord, Relay: relay}
	return &testApp{
		db:       db,
		relay:    relay,
		entries:  NewEntryService(d),
		evals:    NewEvaluationService(d),
		flags:    NewFlagService(d),
		sessions: NewSessionService(d),
		settings: NewSettingsService(d, target),
		stats:    NewStatsService(db),
		deletion: stats.NewDeletionWorkflow(db, coord, relay),
	}
}

func (a *testApp) overview(t *testing.T) *models.OverviewStats {
	t.Helper()
	o, err := a.stats.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	return o
}

func (a *testApp) responses(t *testing.T) *models.ResponseAggregates {
	t.Helper()
	r, err := a.stats.Responses(context.Background())
	if err != nil {
		t.Fatalf("Responses() error = %v", err)
	}
	return r
}

func (a *testApp) submit(t *testing.T, entryID string, rating int, ms int64, accepted bool) {
	t.Helper()
	_, err := a.evals.Submit(context.Background(), SubmitEvaluationInput{
		EntryID:                   entryID,
		SessionID:                 "s1",
		Rating:                    rating,
		TimeSpentMs:               ms,
		WasChosenActuallyAccepted: accepted,
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
}

// checkInvariants asserts the relations that hold between the aggregates
// and the primary collections once every event has been delivered.
func (a *testApp) checkInvariants(t *testing.T) {
	t.Helper()
	o := a.overview(t)
	r := a.responses(t)

	live, err := a.stats.CountEntries(context.Background())
	if err != nil {
		t.Fatalf("CountEntries() error = %v", err)
	}
	if o.TotalEntriesInDataset != live {
		t.Errorf("TotalEntriesInDataset = %d, expected %d live entries", o.TotalEntriesInDataset, live)
	}
	for name, v := range map[string]int64{
		"totalEntriesInDataset":           o.TotalEntriesInDataset,
		"totalAnnotatedEntries":           o.TotalAnnotatedEntries,
		"fullyReviewedEntriesCount":       o.FullyReviewedEntriesCount,
		"totalEntriesWithUnresolvedFlags": o.TotalEntriesWithUnresolvedFlags,
		"totalEvaluationsSubmitted":       o.TotalEvaluationsSubmitted,
		"totalAgreementCount":             o.TotalAgreementCount,
		"commentSubmissions":              r.CommentSubmissions,
	} {
		if v < 0 {
			t.Errorf("%s = %d, expected a non-negative value", name, v)
		}
	}
	if o.FullyReviewedEntriesCount > o.TotalEntriesInDataset {
		t.Errorf("FullyReviewedEntriesCount = %d exceeds TotalEntriesInDataset %d",
			o.FullyReviewedEntriesCount, o.TotalEntriesInDataset)
	}
	if sum := r.RatingDistribution.Data().Sum(); sum != o.TotalEvaluationsSubmitted {
		t.Errorf("rating distribution sum = %d, expected %d", sum, o.TotalEvaluationsSubmitted)
	}
	if pending, _ := a.relay.Pending(context.Background()); pending != 0 {
		t.Errorf("pending outbox rows = %d, expected 0", pending)
	}
}
