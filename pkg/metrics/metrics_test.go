package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func familyNames(t *testing.T, g prometheus.Gatherer) map[string]bool {
	t.Helper()
	mfs, err := g.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := make(map[string]bool, len(mfs))
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	return names
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given a dedicated registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then its collectors are registered there", func() {
				So(manager, ShouldNotBeNil)
				manager.eventsIngested.Inc()
				manager.resolutions.WithLabelValues("fixed").Inc()
				names := familyNames(t, registry)
				So(names["test_unit_events_ingested_total"], ShouldBeTrue)
				So(names["test_unit_resolutions_total"], ShouldBeTrue)
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(WithNamespace(""), WithSubsystem(""), WithPrometheusRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "fanpulse")
				So(manager.subsystem, ShouldEqual, "engine")
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		So(func() {
			RecordEventIngested()
			RecordEventRejected()
			RecordEventDuplicate()
			RecordSourceLoad("file", "ok")
			UpdateStoreSize(42)
			RecordResolution("fixed")
			RecordResolution("unresolved")
			RecordLifecycleState("LIVE")
			RecordEngineLatency("mobility", 0.4)
			RecordCongestionLevel("High")
			RecordRiskScore(70)
			UpdateQueueSize(3)
			UpdateQueueCapacity(100)
			RecordQueueEnqueue()
			RecordQueueEnqueueError()
			UpdateWorkerCount(4)
			RecordWorkerProcessingLatency(1.5)
			RecordWorkerError()
			RecordHTTPRequest("/risk", "GET", "200")
			RecordHTTPRequestDuration("/risk", "GET", "200", 3.2)
			RecordErrorByEndpoint("/risk", "GET", "bad_request")
			RecordErrorByComponent("worker", "invalid_event")
		}, ShouldNotPanic)

		Convey("Then the custom registry exposes them", func() {
			names := familyNames(t, GetRegistry())
			for _, n := range []string{
				"fanpulse_engine_events_ingested_total",
				"fanpulse_engine_store_events",
				"fanpulse_engine_lifecycle_states_total",
				"fanpulse_engine_computation_duration_milliseconds",
				"fanpulse_engine_risk_final_score",
				"fanpulse_engine_http_requests_total",
			} {
				So(names[n], ShouldBeTrue)
			}
		})
	})
}
