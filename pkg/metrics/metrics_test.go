package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestPackageHelpers(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording prediction metrics", func() {
			So(func() {
				RecordPrediction("Ganho Provável")
				RecordPredictionError()
				RecordPredictionLatency(12.5)
				RecordColumnsDropped(2)
				RecordColumnsZeroFilled(40)
				RecordColumnsDropped(0) // no-op
			}, ShouldNotPanic)
		})

		Convey("When recording webhook and write-back metrics", func() {
			So(func() {
				RecordWebhookEvent("scored")
				RecordWebhookEvent("ignored_pipeline")
				RecordWriteback()
				RecordWritebackError()
				RecordWritebackLatency(80.0)
			}, ShouldNotPanic)
		})

		Convey("When updating queue and worker metrics", func() {
			So(func() {
				UpdateQueueSize(3)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.03)
				RecordQueueEnqueue()
				RecordQueueEnqueueError()
				RecordQueueDequeue()
				UpdateWorkerCount(4)
				RecordWorkerProcessingLatency(5.0)
				RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("When gathering from the exposition registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then gathering should succeed with registered families", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}
