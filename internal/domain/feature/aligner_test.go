package feature_test

import (
	"context"
	"testing"

	"github.com/okian/leadscore/internal/domain/feature"
	"github.com/okian/leadscore/internal/domain/schema"
	. "github.com/smartystreets/goconvey/convey"
)

func mustRegistry(columns ...string) *schema.Registry {
	reg, err := schema.New(1, columns, schema.SanitizeRule{Characters: "[]<", Replacement: "_"})
	if err != nil {
		panic(err)
	}
	return reg
}

func TestAlign(t *testing.T) {
	Convey("Given an aligner over a model registry", t, func() {
		ctx := context.Background()
		reg := mustRegistry(
			"valor",
			"ciclo_em_dias",
			"utm_source_google",
			"utm_source_desconhecido",
			"utm_medium_cpc",
		)
		aligner, err := feature.NewAligner(reg)
		So(err, ShouldBeNil)

		Convey("When the encoding covers known columns", func() {
			encoded := map[string]float64{
				"valor":             5000,
				"utm_source_google": 1,
				"utm_medium_cpc":    1,
			}

			values, stats, err := aligner.Align(ctx, encoded)

			Convey("Then values should land at the registry positions", func() {
				So(err, ShouldBeNil)
				So(values, ShouldResemble, []float64{5000, 0, 1, 0, 1})
			})

			Convey("And training-only columns should be zero-filled", func() {
				So(err, ShouldBeNil)
				So(stats.ZeroFilled, ShouldEqual, 2) // ciclo_em_dias, utm_source_desconhecido
				So(stats.Dropped, ShouldEqual, 0)
			})
		})

		Convey("When the encoding carries categories the model never saw", func() {
			encoded := map[string]float64{
				"valor":               100,
				"utm_source_tiktok":   1,
				"utm_medium_carrier-": 1,
			}

			values, stats, err := aligner.Align(ctx, encoded)

			Convey("Then unknown columns should be dropped silently", func() {
				So(err, ShouldBeNil)
				So(stats.Dropped, ShouldEqual, 2)
				So(values, ShouldResemble, []float64{100, 0, 0, 0, 0})
			})
		})

		Convey("When a record misses every categorical field", func() {
			values, stats, err := aligner.Align(ctx, feature.Encode(feature.Record{Valor: 10}))

			Convey("Then the output always matches the registry length and order", func() {
				So(err, ShouldBeNil)
				So(len(values), ShouldEqual, reg.Len())
				So(values[0], ShouldEqual, 10)
				// Sentinel one-hot matches the registry's desconhecido column.
				So(values[3], ShouldEqual, 1)
				So(stats.Dropped, ShouldEqual, 4) // other four sentinel columns are unknown
			})
		})

		Convey("When a live column name carries rejected characters", func() {
			reg := mustRegistry("valor", "utm_term_[promo]")
			aligner, err := feature.NewAligner(reg)
			So(err, ShouldBeNil)

			values, stats, err := aligner.Align(ctx, map[string]float64{
				"valor":            1,
				"utm_term_[promo]": 1,
			})

			Convey("Then sanitization applies to both sides and alignment still matches", func() {
				So(err, ShouldBeNil)
				So(values, ShouldResemble, []float64{1, 1})
				So(stats.Dropped, ShouldEqual, 0)
				So(stats.ZeroFilled, ShouldEqual, 0)
			})
		})
	})
}

func TestNewAligner(t *testing.T) {
	Convey("Given registry preconditions", t, func() {
		Convey("When the registry is nil", func() {
			_, err := feature.NewAligner(nil)

			Convey("Then construction should fail fast", func() {
				So(err, ShouldWrap, feature.ErrEmptyRegistry)
			})
		})
	})
}
