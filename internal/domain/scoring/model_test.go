package scoring_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/leadscore/internal/domain/schema"
	"github.com/okian/leadscore/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func testRegistry() *schema.Registry {
	reg, err := schema.New(1,
		[]string{"valor", "utm_source_google", "utm_source_desconhecido"},
		schema.SanitizeRule{Characters: "[]<", Replacement: "_"},
	)
	if err != nil {
		panic(err)
	}
	return reg
}

func TestParseModel(t *testing.T) {
	Convey("Given a model artifact and its registry", t, func() {
		ctx := context.Background()
		reg := testRegistry()

		Convey("When the artifact matches the registry", func() {
			doc := `{
				"version": 1,
				"type": "logistic_regression",
				"intercept": -1.5,
				"coefficients": {
					"valor": 0.0002,
					"utm_source_google": 0.8,
					"utm_source_desconhecido": -0.3
				}
			}`

			model, err := scoring.ParseModel(ctx, []byte(doc), reg)

			Convey("Then the model should load with the registry's dimension", func() {
				So(err, ShouldBeNil)
				So(model.Dimension(), ShouldEqual, reg.Len())
			})

			Convey("And weights should follow registry order, not document order", func() {
				So(err, ShouldBeNil)
				// valor weight applies to position 0.
				p0, err := model.PredictProbability(ctx, []float64{0, 0, 0})
				So(err, ShouldBeNil)
				p1, err := model.PredictProbability(ctx, []float64{10000, 0, 0})
				So(err, ShouldBeNil)
				So(p1, ShouldBeGreaterThan, p0)
			})
		})

		Convey("When a coefficient has no registry column", func() {
			doc := `{
				"version": 1,
				"type": "logistic_regression",
				"intercept": 0,
				"coefficients": {"valor": 1, "utm_source_bing": 2, "utm_source_google": 1, "utm_source_desconhecido": 1}
			}`

			_, err := scoring.ParseModel(ctx, []byte(doc), reg)

			Convey("Then parsing should fail", func() {
				So(err, ShouldWrap, scoring.ErrInvalidArtifact)
			})
		})

		Convey("When the artifact covers only part of the registry", func() {
			doc := `{
				"version": 1,
				"type": "logistic_regression",
				"intercept": 0,
				"coefficients": {"valor": 1}
			}`

			_, err := scoring.ParseModel(ctx, []byte(doc), reg)

			Convey("Then parsing should fail on the dimension mismatch", func() {
				So(err, ShouldWrap, scoring.ErrDimensionMismatch)
			})
		})

		Convey("When the artifact declares an unknown model type", func() {
			doc := `{
				"version": 1,
				"type": "gradient_boosting",
				"intercept": 0,
				"coefficients": {"valor": 1}
			}`

			_, err := scoring.ParseModel(ctx, []byte(doc), reg)

			Convey("Then validation should reject it", func() {
				So(err, ShouldWrap, scoring.ErrInvalidArtifact)
			})
		})
	})
}

func TestLoadModel(t *testing.T) {
	Convey("Given a model artifact on disk", t, func() {
		ctx := context.Background()
		reg := testRegistry()
		dir := t.TempDir()

		Convey("When the file is valid", func() {
			doc := `{
				"version": 1,
				"type": "logistic_regression",
				"intercept": 0.5,
				"coefficients": {"valor": 0.1, "utm_source_google": 1, "utm_source_desconhecido": -1}
			}`
			path := filepath.Join(dir, "lead_scorer_model.json")
			So(os.WriteFile(path, []byte(doc), 0o600), ShouldBeNil)

			model, err := scoring.LoadModel(ctx, path, reg)

			Convey("Then loading should succeed", func() {
				So(err, ShouldBeNil)
				So(model, ShouldNotBeNil)
			})
		})

		Convey("When the file is missing", func() {
			_, err := scoring.LoadModel(ctx, filepath.Join(dir, "absent.json"), reg)

			Convey("Then loading should fail fast", func() {
				So(err, ShouldWrap, scoring.ErrLoadArtifact)
			})
		})
	})
}
