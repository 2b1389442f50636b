// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

// getGaugeValue extracts the value from a Prometheus gauge
func getGaugeValue(gauge prometheus.Gauge) float64 {
	var m io_prometheus_client.Metric
	if err := gauge.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

func TestRecordDBQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		err       error
		wantLabel string
	}{
		{"success", "popular", nil, ""},
		{"short error", "detail", errors.New("connection refused"), "connection refused"},
		{
			"long error truncated",
			"replace",
			errors.New(strings.Repeat("x", 80)),
			strings.Repeat("x", maxErrorLabel),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordDBQuery(tt.operation, "books", 5*time.Millisecond, tt.err)
			if tt.wantLabel == "" {
				return
			}
			got := testutil.ToFloat64(DBQueryErrors.WithLabelValues(tt.operation, "books", tt.wantLabel))
			if got < 1 {
				t.Errorf("DBQueryErrors{%s} = %v, want >= 1", tt.wantLabel, got)
			}
		})
	}
}

func TestRecordAPIRequest(t *testing.T) {
	counter := APIRequestsTotal.WithLabelValues("GET", "/api/v1/recommendations", "200")
	before := testutil.ToFloat64(counter)

	RecordAPIRequest("GET", "/api/v1/recommendations", StatusLabel(200), 12*time.Millisecond)

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("APIRequestsTotal = %v, want %v", got, before+1)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := getGaugeValue(APIActiveRequests)
	TrackActiveRequest(true)
	if got := getGaugeValue(APIActiveRequests); got != before+1 {
		t.Errorf("after inc = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := getGaugeValue(APIActiveRequests); got != before {
		t.Errorf("after dec = %v, want %v", got, before)
	}
}

func TestRecordModelLoaded(t *testing.T) {
	RecordModelLoaded(7, 706, 888, 0.0025)

	if got := getGaugeValue(ModelVersion); got != 7 {
		t.Errorf("ModelVersion = %v, want 7", got)
	}
	if got := getGaugeValue(ModelRows); got != 706 {
		t.Errorf("ModelRows = %v, want 706", got)
	}
	if got := getGaugeValue(ModelCols); got != 888 {
		t.Errorf("ModelCols = %v, want 888", got)
	}
	if got := getGaugeValue(ModelCoverage); got != 0.0025 {
		t.Errorf("ModelCoverage = %v, want 0.0025", got)
	}
}

func TestResultLabels(t *testing.T) {
	tests := []struct {
		name   string
		record func()
		metric prometheus.Collector
		labels []string
	}{
		{
			name:   "reload success",
			record: func() { RecordModelReload("poll", nil) },
			metric: ModelReloads,
			labels: []string{"poll", "success"},
		},
		{
			name:   "reload failure",
			record: func() { RecordModelReload("event", errors.New("boom")) },
			metric: ModelReloads,
			labels: []string{"event", "failure"},
		},
		{
			name:   "pipeline failure",
			record: func() { RecordPipelineRun(errors.New("boom")) },
			metric: PipelineRuns,
			labels: []string{"failure"},
		},
		{
			name:   "session transition",
			record: func() { RecordSessionTransition("select", nil) },
			metric: SessionTransitions,
			labels: []string{"select", "success"},
		},
		{
			name:   "event published",
			record: func() { RecordEventPublished("gochannel", nil) },
			metric: EventsPublished,
			labels: []string{"gochannel", "success"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec, ok := tt.metric.(*prometheus.CounterVec)
			if !ok {
				t.Fatalf("metric is %T, want *prometheus.CounterVec", tt.metric)
			}
			before := testutil.ToFloat64(vec.WithLabelValues(tt.labels...))
			tt.record()
			if got := testutil.ToFloat64(vec.WithLabelValues(tt.labels...)); got != before+1 {
				t.Errorf("counter%v = %v, want %v", tt.labels, got, before+1)
			}
		})
	}
}

func TestRecordPipelineRun_SetsLastSuccess(t *testing.T) {
	RecordPipelineRun(nil)
	if got := getGaugeValue(PipelineLastSuccess); got < float64(time.Now().Add(-time.Minute).Unix()) {
		t.Errorf("PipelineLastSuccess = %v, want a recent timestamp", got)
	}
}

func TestMetricsLint(t *testing.T) {
	RecordRecommend("ok", time.Millisecond)
	RecordPipelineStage("prepare", time.Second)
	SetAppInfo("test", "go1.24")

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Fatalf("GatherAndLint() error = %v", err)
	}
	for _, p := range problems {
		t.Logf("Metric lint problem: %s: %s", p.Metric, p.Text)
	}
}
