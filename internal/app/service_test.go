package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	service "github.com/okian/leadscore/internal/app"
	"github.com/okian/leadscore/internal/domain/feature"
	"github.com/okian/leadscore/internal/domain/schema"
	"github.com/okian/leadscore/internal/domain/scoring"
	"github.com/okian/leadscore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func testRegistry() *schema.Registry {
	reg, err := schema.New(1, []string{
		"valor",
		"ciclo_em_dias",
		"utm_campaign_desconhecido",
		"utm_content_desconhecido",
		"utm_medium_desconhecido",
		"utm_source_google",
		"utm_source_desconhecido",
		"utm_term_desconhecido",
	}, schema.SanitizeRule{Characters: "[]<", Replacement: "_"})
	if err != nil {
		panic(err)
	}
	return reg
}

func testScorer(reg *schema.Registry) scoring.Scorer {
	weights := make([]float64, reg.Len())
	weights[0] = 0.0002 // valor
	weights[5] = 1.5    // utm_source_google
	model, err := scoring.NewLogisticModel(-1, weights)
	if err != nil {
		panic(err)
	}
	return model
}

type recordingUpdater struct {
	mu    sync.Mutex
	calls []int
	done  chan struct{}
}

func (u *recordingUpdater) UpdateLeadScore(_ context.Context, dealID int, _ float64) error {
	u.mu.Lock()
	u.calls = append(u.calls, dealID)
	u.mu.Unlock()
	u.done <- struct{}{}
	return nil
}

func newService(updater *recordingUpdater) *service.Service {
	reg := testRegistry()
	opts := []service.Option{
		service.WithRegistry(reg),
		service.WithScorer(testScorer(reg)),
		service.WithTargetPipeline(3),
		service.WithWorkerCount(1),
	}
	if updater != nil {
		opts = append(opts, service.WithUpdater(updater))
	}
	return service.New(opts...)
}

func TestServiceScore(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Convey("Given a started scoring service", t, func() {
		ctx := context.Background()
		svc := newService(nil)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When scoring a record with a known source", func() {
			res, err := svc.Score(ctx, feature.Record{Valor: 5000, UTMSource: "google"})

			Convey("Then it should produce a probability and a label", func() {
				So(err, ShouldBeNil)
				So(res.Probability, ShouldBeBetweenOrEqual, 0, 1)
				So(res.Label, ShouldBeIn, []string{
					scoring.LabelHigh, scoring.LabelMedium, scoring.LabelLow,
				})
			})

			Convey("And scoring the same record again should be identical", func() {
				So(err, ShouldBeNil)
				again, err := svc.Score(ctx, feature.Record{Valor: 5000, UTMSource: "google"})
				So(err, ShouldBeNil)
				So(again.Probability, ShouldEqual, res.Probability)
				So(again.Label, ShouldEqual, res.Label)
			})
		})

		Convey("When scoring a record whose categories the model never saw", func() {
			res, err := svc.Score(ctx, feature.Record{
				Valor:       100,
				UTMSource:   "tiktok",
				UTMMedium:   "influencer",
				UTMCampaign: "verao-2026",
			})

			Convey("Then the unknown columns are dropped and scoring still succeeds", func() {
				So(err, ShouldBeNil)
				So(res.Dropped, ShouldBeGreaterThan, 0)
				So(res.Probability, ShouldBeBetweenOrEqual, 0, 1)
			})
		})

		Convey("When scoring an empty record", func() {
			res, err := svc.Score(ctx, feature.Record{})

			Convey("Then sentinel defaulting should keep the pipeline intact", func() {
				So(err, ShouldBeNil)
				So(res.Probability, ShouldBeBetweenOrEqual, 0, 1)
			})
		})
	})
}

func TestServiceLifecycle(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Convey("Given service lifecycle requirements", t, func() {
		ctx := context.Background()

		Convey("When starting without a registry", func() {
			svc := service.New(service.WithScorer(testScorer(testRegistry())))

			Convey("Then startup should fail fast", func() {
				So(svc.Start(ctx), ShouldWrap, service.ErrMissingRegistry)
			})
		})

		Convey("When starting without a scorer", func() {
			svc := service.New(service.WithRegistry(testRegistry()))

			Convey("Then startup should fail fast", func() {
				So(svc.Start(ctx), ShouldWrap, service.ErrMissingScorer)
			})
		})

		Convey("When started twice", func() {
			svc := newService(nil)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then the second start should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})
	})
}

func TestServiceWriteback(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Convey("Given a service with a CRM updater", t, func() {
		ctx := context.Background()
		updater := &recordingUpdater{done: make(chan struct{}, 4)}
		svc := newService(updater)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a write-back is enqueued", func() {
			ok := svc.EnqueueWriteback(ctx, 42, 0.66, "delivery-1")

			Convey("Then the updater should receive it asynchronously", func() {
				So(ok, ShouldBeTrue)
				select {
				case <-updater.done:
				case <-time.After(2 * time.Second):
					t.Fatal("timed out waiting for write-back")
				}
				updater.mu.Lock()
				defer updater.mu.Unlock()
				So(updater.calls, ShouldResemble, []int{42})
			})
		})
	})

	Convey("Given a service without a CRM updater", t, func() {
		ctx := context.Background()
		svc := newService(nil)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a write-back is enqueued", func() {
			Convey("Then it should be reported as not queued", func() {
				So(svc.EnqueueWriteback(ctx, 42, 0.66, ""), ShouldBeFalse)
			})
		})
	})
}

func TestServiceDedupe(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := newService(nil)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When the same delivery arrives twice", func() {
			first := svc.SeenDelivery(ctx, "meta-1")
			second := svc.SeenDelivery(ctx, "meta-1")

			Convey("Then only the first should process", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
			})

			Convey("And unrecording should allow a retry", func() {
				svc.UnrecordDelivery(ctx, "meta-1")
				So(svc.SeenDelivery(ctx, "meta-1"), ShouldBeFalse)
			})
		})
	})
}
