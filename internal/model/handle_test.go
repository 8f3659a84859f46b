package model_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	engine "github.com/okian/claimscore/internal/engine"
	model "github.com/okian/claimscore/internal/model"
	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/mat"
)

// fakeEngine is a deterministic engine for handle and cache tests. It
// returns a fixed score per row and counts lifecycle calls.
type fakeEngine struct {
	score      float64
	outputRows int // -1 means match input rows
	failWith   error
	predicts   atomic.Int64
	closes     atomic.Int64
}

func newFakeEngine(score float64) *fakeEngine {
	return &fakeEngine{score: score, outputRows: -1}
}

func (f *fakeEngine) Predict(_ context.Context, features *mat.Dense) ([][]float64, error) {
	f.predicts.Add(1)
	if f.failWith != nil {
		return nil, f.failWith
	}
	rows, _ := features.Dims()
	n := rows
	if f.outputRows >= 0 {
		n = f.outputRows
	}
	out := make([][]float64, n)
	for i := range out {
		out[i] = []float64{f.score}
	}
	return out, nil
}

func (f *fakeEngine) Close() error {
	f.closes.Add(1)
	return nil
}

func TestHandlePredict(t *testing.T) {
	Convey("Given a handle over a fake engine", t, func() {
		ctx := context.Background()
		eng := newFakeEngine(0.8)
		h := model.NewHandle(eng)

		Convey("When predicting a batch", func() {
			out, err := h.Predict(ctx, mat.NewDense(3, 2, nil))

			Convey("Then one output per input row should come back", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 3)
				So(out[0][0], ShouldEqual, 0.8)
			})
		})

		Convey("When the engine returns a short batch", func() {
			eng.outputRows = 2

			_, err := h.Predict(ctx, mat.NewDense(3, 2, nil))

			Convey("Then the mismatch should be a hard error", func() {
				So(errors.Is(err, model.ErrBatchSizeMismatch), ShouldBeTrue)
			})
		})

		Convey("When the engine fails outright", func() {
			eng.failWith = engine.ErrEngine

			_, err := h.Predict(ctx, mat.NewDense(1, 2, nil))

			So(errors.Is(err, model.ErrEngineFailure), ShouldBeTrue)
		})

		Convey("When the handle is disposed", func() {
			So(h.Dispose(), ShouldBeNil)

			Convey("Then predictions should be rejected", func() {
				_, err := h.Predict(ctx, mat.NewDense(1, 2, nil))
				So(errors.Is(err, model.ErrHandleDisposed), ShouldBeTrue)
			})

			Convey("And disposal should have reached the engine exactly once", func() {
				So(h.Dispose(), ShouldBeNil)
				So(h.Dispose(), ShouldBeNil)
				So(eng.closes.Load(), ShouldEqual, 1)
			})
		})

		Convey("When many goroutines predict concurrently", func() {
			var wg sync.WaitGroup
			errs := make(chan error, 32)
			for i := 0; i < 32; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := h.Predict(ctx, mat.NewDense(2, 2, nil))
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)

			Convey("Then every call should succeed", func() {
				for err := range errs {
					So(err, ShouldBeNil)
				}
			})
		})
	})
}

func TestHandleIdentity(t *testing.T) {
	Convey("Given two handles", t, func() {
		a := model.NewHandle(newFakeEngine(0.1))
		b := model.NewHandle(newFakeEngine(0.2))

		Convey("Then they should have distinct non-empty ids", func() {
			So(a.ID(), ShouldNotBeEmpty)
			So(b.ID(), ShouldNotBeEmpty)
			So(a.ID(), ShouldNotEqual, b.ID())
		})

		Convey("And age should be non-negative", func() {
			So(a.Age(), ShouldBeGreaterThanOrEqualTo, 0)
			So(a.LoadedAt().IsZero(), ShouldBeFalse)
		})
	})
}
