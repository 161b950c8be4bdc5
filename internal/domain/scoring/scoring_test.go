package scoring_test

import (
	"context"
	"testing"

	"github.com/okian/leadscore/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogisticModel(t *testing.T) {
	Convey("Given a logistic model", t, func() {
		ctx := context.Background()

		Convey("When built with weights", func() {
			model, err := scoring.NewLogisticModel(0, []float64{1, -1, 0.5})
			So(err, ShouldBeNil)

			Convey("Then a zero vector should score the intercept's sigmoid", func() {
				p, err := model.PredictProbability(ctx, []float64{0, 0, 0})
				So(err, ShouldBeNil)
				So(p, ShouldAlmostEqual, 0.5, 1e-12)
			})

			Convey("Then probabilities should stay inside [0, 1]", func() {
				p, err := model.PredictProbability(ctx, []float64{1000, 0, 0})
				So(err, ShouldBeNil)
				So(p, ShouldBeLessThanOrEqualTo, 1)

				p, err = model.PredictProbability(ctx, []float64{0, 1000, 0})
				So(err, ShouldBeNil)
				So(p, ShouldBeGreaterThanOrEqualTo, 0)
			})

			Convey("Then scoring the same vector twice should be identical", func() {
				v := []float64{1.5, 2.5, -3}
				p1, err1 := model.PredictProbability(ctx, v)
				p2, err2 := model.PredictProbability(ctx, v)
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(p1, ShouldEqual, p2)
			})

			Convey("Then a wrong-length vector should be rejected", func() {
				_, err := model.PredictProbability(ctx, []float64{1, 2})
				So(err, ShouldWrap, scoring.ErrDimensionMismatch)
			})
		})

		Convey("When built without weights", func() {
			_, err := scoring.NewLogisticModel(0, nil)

			Convey("Then construction should fail", func() {
				So(err, ShouldWrap, scoring.ErrEmptyModel)
			})
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Given the calibrated thresholds", t, func() {
		th := scoring.DefaultThresholds()

		Convey("When the probability clears the high boundary", func() {
			So(scoring.Classify(0.71, th), ShouldEqual, scoring.LabelHigh)
			So(scoring.Classify(1.0, th), ShouldEqual, scoring.LabelHigh)
		})

		Convey("When the probability sits between the boundaries", func() {
			So(scoring.Classify(0.5, th), ShouldEqual, scoring.LabelMedium)
			So(scoring.Classify(0.41, th), ShouldEqual, scoring.LabelMedium)
		})

		Convey("When the probability is low", func() {
			So(scoring.Classify(0.39, th), ShouldEqual, scoring.LabelLow)
			So(scoring.Classify(0.0, th), ShouldEqual, scoring.LabelLow)
		})

		Convey("When the probability lands exactly on a boundary", func() {
			// Boundaries belong to the lower bucket.
			So(scoring.Classify(0.7, th), ShouldEqual, scoring.LabelMedium)
			So(scoring.Classify(0.4, th), ShouldEqual, scoring.LabelLow)
		})

		Convey("When thresholds come from configuration", func() {
			custom := scoring.Thresholds{High: 0.9, Medium: 0.2}
			So(scoring.Classify(0.8, custom), ShouldEqual, scoring.LabelMedium)
			So(scoring.Classify(0.95, custom), ShouldEqual, scoring.LabelHigh)
			So(scoring.Classify(0.1, custom), ShouldEqual, scoring.LabelLow)
		})
	})
}
