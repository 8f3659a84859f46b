package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/okian/claimscore/internal/app"
	"github.com/okian/claimscore/internal/domain/calibration"
	"github.com/okian/claimscore/internal/domain/feature"
	"github.com/okian/claimscore/internal/engine"
	"github.com/okian/claimscore/internal/model"
	. "github.com/smartystreets/goconvey/convey"
)

func claimSchema() *feature.Schema {
	schema, err := feature.NewSchema([]feature.Definition{
		{Name: "claim_amount", Kind: feature.Numeric, Index: 0},
		{Name: "patient_age", Kind: feature.Numeric, Index: 1},
		{Name: "procedure_category", Kind: feature.Categorical, Index: 2, Mapping: map[string]float64{
			"SURGERY": 0, "DIAGNOSTIC": 1, "THERAPY": 2, "UNKNOWN": 3,
		}},
	})
	if err != nil {
		panic(err)
	}
	return schema
}

func claimBag() feature.Bag {
	return feature.Bag{
		"claim_amount":       1000.0,
		"patient_age":        60,
		"procedure_category": "SURGERY",
	}
}

// constantLoader yields a linear model with zero weights, so every item
// scores exactly the bias. loads counts artifact loads.
func constantLoader(bias float64, loads *atomic.Int64) engine.Loader {
	return func(ctx context.Context, path string) (engine.Engine, error) {
		loads.Add(1)
		return engine.NewLinear([]float64{0, 0, 0}, bias, false), nil
	}
}

func missingLoader(loads *atomic.Int64) engine.Loader {
	return func(ctx context.Context, path string) (engine.Engine, error) {
		loads.Add(1)
		return nil, fmt.Errorf("%w: no artifact at %s", engine.ErrArtifactUnavailable, path)
	}
}

func newService(loader engine.Loader, cal calibration.Calibrator, opts ...app.Option) *app.Service {
	enc := feature.NewEncoder(claimSchema())
	cache := model.NewCache(loader, "unused.json")
	return app.New(enc, cal, cache, opts...)
}

func TestPredictBatch(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service backed by a constant model", t, func() {
		var loads atomic.Int64
		svc := newService(constantLoader(0.25, &loads), calibration.Identity())
		defer svc.Close()

		Convey("When scoring a batch of items", func() {
			results, err := svc.PredictBatch(ctx, []app.Item{
				{ID: "claim-1", Features: claimBag()},
				{ID: "claim-2", Features: claimBag()},
			})

			Convey("Then every item should score against the live model", func() {
				So(err, ShouldBeNil)
				So(len(results), ShouldEqual, 2)
				So(results["claim-1"].RawScore, ShouldEqual, 0.25)
				So(results["claim-1"].Probability, ShouldEqual, 0.25)
				So(results["claim-1"].Dummy, ShouldBeFalse)
				So(results["claim-2"].RawScore, ShouldEqual, 0.25)
				So(loads.Load(), ShouldEqual, 1)
			})
		})

		Convey("When the batch is empty", func() {
			results, err := svc.PredictBatch(ctx, nil)

			Convey("Then it should short-circuit without touching the model", func() {
				So(err, ShouldBeNil)
				So(results, ShouldNotBeNil)
				So(len(results), ShouldEqual, 0)
				So(loads.Load(), ShouldEqual, 0)
			})
		})

		Convey("When an item has no id", func() {
			_, err := svc.PredictBatch(ctx, []app.Item{
				{ID: "", Features: claimBag()},
			})

			So(errors.Is(err, app.ErrInvalidItem), ShouldBeTrue)
		})

		Convey("When one item fails to encode", func() {
			bad := claimBag()
			delete(bad, "patient_age")

			results, err := svc.PredictBatch(ctx, []app.Item{
				{ID: "claim-1", Features: claimBag()},
				{ID: "claim-2", Features: bad},
			})

			Convey("Then the whole batch should fail", func() {
				So(errors.Is(err, feature.ErrMissingFeature), ShouldBeTrue)
				So(results, ShouldBeNil)
				So(loads.Load(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a service with a batch size cap", t, func() {
		var loads atomic.Int64
		svc := newService(constantLoader(0.25, &loads), calibration.Identity(), app.WithMaxBatchSize(1))
		defer svc.Close()

		_, err := svc.PredictBatch(ctx, []app.Item{
			{ID: "claim-1", Features: claimBag()},
			{ID: "claim-2", Features: claimBag()},
		})

		So(errors.Is(err, app.ErrBatchTooLarge), ShouldBeTrue)
	})
}

func TestPredictBatchDummyFallback(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with no model artifact", t, func() {
		var loads atomic.Int64
		svc := newService(missingLoader(&loads), calibration.Identity())
		defer svc.Close()

		Convey("When scoring a batch", func() {
			items := make([]app.Item, 7)
			for i := range items {
				items[i] = app.Item{ID: fmt.Sprintf("claim-%d", i), Features: claimBag()}
			}

			results, err := svc.PredictBatch(ctx, items)

			Convey("Then every item should get a flagged dummy prediction", func() {
				So(err, ShouldBeNil)
				So(len(results), ShouldEqual, 7)
				for _, r := range results {
					So(r.Dummy, ShouldBeTrue)
				}
			})

			Convey("And raw scores should follow the deterministic cycle", func() {
				So(err, ShouldBeNil)
				So(results["claim-0"].RawScore, ShouldAlmostEqual, 0.5, 1e-9)
				So(results["claim-1"].RawScore, ShouldAlmostEqual, 0.6, 1e-9)
				So(results["claim-4"].RawScore, ShouldAlmostEqual, 0.9, 1e-9)
				So(results["claim-5"].RawScore, ShouldAlmostEqual, 0.5, 1e-9)
				So(results["claim-6"].RawScore, ShouldAlmostEqual, 0.6, 1e-9)
			})
		})

		Convey("When a calibrator is configured", func() {
			cal := calibration.NewPlatt(-1.0, 0.0)
			calSvc := newService(missingLoader(&loads), cal)
			defer calSvc.Close()

			results, err := calSvc.PredictBatch(ctx, []app.Item{
				{ID: "claim-1", Features: claimBag()},
			})

			Convey("Then dummy raw scores should still be calibrated", func() {
				So(err, ShouldBeNil)
				// 1 / (1 + exp(-0.5))
				So(results["claim-1"].RawScore, ShouldAlmostEqual, 0.5, 1e-9)
				So(results["claim-1"].Probability, ShouldAlmostEqual, 0.6225, 0.001)
			})
		})
	})

	Convey("Given a service whose artifact is corrupt", t, func() {
		var loads atomic.Int64
		broken := func(ctx context.Context, path string) (engine.Engine, error) {
			loads.Add(1)
			return nil, fmt.Errorf("%w: truncated weights", engine.ErrBadArtifact)
		}
		svc := newService(broken, calibration.Identity())
		defer svc.Close()

		results, err := svc.PredictBatch(ctx, []app.Item{
			{ID: "claim-1", Features: claimBag()},
		})

		Convey("Then the failure should surface instead of falling back", func() {
			So(err, ShouldNotBeNil)
			So(errors.Is(err, model.ErrModelUnavailable), ShouldBeFalse)
			So(results, ShouldBeNil)
		})
	})
}

func TestServiceStats(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service backed by a constant model", t, func() {
		var loads atomic.Int64
		svc := newService(constantLoader(0.1, &loads), calibration.Identity())
		defer svc.Close()

		So(svc.FeatureCount(), ShouldEqual, 3)
		So(svc.Stats().Loaded, ShouldBeFalse)

		_, err := svc.PredictBatch(ctx, []app.Item{{ID: "claim-1", Features: claimBag()}})
		So(err, ShouldBeNil)

		stats := svc.Stats()
		So(stats.Loaded, ShouldBeTrue)
		So(stats.Reloads, ShouldEqual, 1)
	})
}
