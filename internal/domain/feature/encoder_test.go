package feature_test

import (
	"testing"

	"github.com/okian/leadscore/internal/domain/feature"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEncode(t *testing.T) {
	Convey("Given a raw lead record", t, func() {
		Convey("When all fields are present", func() {
			rec := feature.Record{
				Valor:       5000,
				UTMCampaign: "black-friday",
				UTMContent:  "banner",
				UTMMedium:   "cpc",
				UTMSource:   "google",
				UTMTerm:     "crm",
			}

			encoded := feature.Encode(rec)

			Convey("Then it should produce one column per field", func() {
				So(encoded, ShouldResemble, map[string]float64{
					"valor":                     5000,
					"utm_campaign_black-friday": 1,
					"utm_content_banner":        1,
					"utm_medium_cpc":            1,
					"utm_source_google":         1,
					"utm_term_crm":              1,
				})
			})
		})

		Convey("When categorical fields are absent", func() {
			rec := feature.Record{Valor: 1200, UTMSource: "google"}

			encoded := feature.Encode(rec)

			Convey("Then absent fields should encode under the sentinel, never a malformed name", func() {
				So(encoded["utm_source_google"], ShouldEqual, 1)
				So(encoded["utm_campaign_"+feature.Sentinel], ShouldEqual, 1)
				So(encoded["utm_content_"+feature.Sentinel], ShouldEqual, 1)
				So(encoded["utm_medium_"+feature.Sentinel], ShouldEqual, 1)
				So(encoded["utm_term_"+feature.Sentinel], ShouldEqual, 1)
				So(len(encoded), ShouldEqual, 6)
			})
		})

		Convey("When the record is completely empty", func() {
			encoded := feature.Encode(feature.Record{})

			Convey("Then valor should default to zero and every categorical to the sentinel", func() {
				So(encoded["valor"], ShouldEqual, 0)
				So(len(encoded), ShouldEqual, 6)
				for name, val := range encoded {
					if name == "valor" {
						continue
					}
					So(name, ShouldEndWith, "_"+feature.Sentinel)
					So(val, ShouldEqual, 1)
				}
			})
		})

		Convey("When encoding the same record twice", func() {
			rec := feature.Record{Valor: 42, UTMMedium: "email"}

			Convey("Then both encodings should be identical", func() {
				So(feature.Encode(rec), ShouldResemble, feature.Encode(rec))
			})
		})
	})
}
