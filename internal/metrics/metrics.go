// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Access Metrics
	PermissionDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "permission_decisions_total",
			Help: "Folder permission checks by capability and outcome",
		},
		[]string{"capability", "result"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"result"},
	)

	AccountLockouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "account_lockouts_total",
			Help: "Number of times an account was locked after repeated failures",
		},
	)

	// Share and Token Metrics
	SharesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shares_created_total",
			Help: "Share links created by item type",
		},
		[]string{"item_type"},
	)

	ShareResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "share_resolutions_total",
			Help: "Anonymous share lookups by outcome",
		},
		[]string{"result"},
	)

	TempTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "temp_tokens_issued_total",
			Help: "Temporary download tokens issued",
		},
	)

	TempTokenValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "temp_token_validations_total",
			Help: "Temporary token validations by outcome",
		},
		[]string{"result"},
	)

	// File Metrics
	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Completed upload attempts by outcome",
		},
		[]string{"result"},
	)

	UploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upload_bytes_total",
			Help: "Bytes written to file storage",
		},
	)

	Downloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downloads_total",
			Help: "File downloads by authorization path",
		},
		[]string{"via"},
	)

	OrphansSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orphan_files_swept_total",
			Help: "Pending uploads soft-deleted by the orphan sweeper",
		},
	)

	// Pipeline Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_events_published_total",
			Help: "Domain events published by topic",
		},
		[]string{"topic"},
	)

	AuditEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_total",
			Help: "Audit events by outcome",
		},
		[]string{"result"},
	)

	StatsCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stats_cache_requests_total",
			Help: "Admin statistics cache lookups",
		},
		[]string{"result"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPermissionDecision records one Permission Engine outcome. A non-nil
// err is counted as "error" regardless of allowed.
func RecordPermissionDecision(capability string, allowed bool, err error) {
	result := "deny"
	switch {
	case err != nil:
		result = "error"
	case allowed:
		result = "allow"
	}
	PermissionDecisions.WithLabelValues(capability, result).Inc()
}

// RecordLogin records a login outcome: success, failure or locked.
func RecordLogin(result string) {
	LoginAttempts.WithLabelValues(result).Inc()
}

// RecordLockout records an account entering the Locked state.
func RecordLockout() {
	AccountLockouts.Inc()
}

// RecordShareCreated records a new share link.
func RecordShareCreated(itemType string) {
	SharesCreated.WithLabelValues(itemType).Inc()
}

// RecordShareResolution records an anonymous share lookup outcome.
func RecordShareResolution(result string) {
	ShareResolutions.WithLabelValues(result).Inc()
}

// RecordTokenIssued records a temporary token being issued.
func RecordTokenIssued() {
	TempTokensIssued.Inc()
}

// RecordTokenValidation records a temporary token validation outcome.
func RecordTokenValidation(valid bool) {
	if valid {
		TempTokenValidations.WithLabelValues("valid").Inc()
		return
	}
	TempTokenValidations.WithLabelValues("invalid").Inc()
}

// RecordUpload records an upload completion and its size.
func RecordUpload(bytes int64, err error) {
	if err != nil {
		Uploads.WithLabelValues("failed").Inc()
		return
	}
	Uploads.WithLabelValues("ok").Inc()
	UploadBytes.Add(float64(bytes))
}

// RecordDownload records a download by authorization path.
func RecordDownload(via string) {
	Downloads.WithLabelValues(via).Inc()
}

// RecordOrphansSwept adds n swept orphan uploads.
func RecordOrphansSwept(n int) {
	OrphansSwept.Add(float64(n))
}

// RecordEventPublished records a domain event publish.
func RecordEventPublished(topic string) {
	EventsPublished.WithLabelValues(topic).Inc()
}

// RecordAuditEvent records an audit pipeline outcome: written, dropped or failed.
func RecordAuditEvent(result string) {
	AuditEvents.WithLabelValues(result).Inc()
}

// RecordStatsCache records a stats cache hit or miss.
func RecordStatsCache(hit bool) {
	if hit {
		StatsCacheRequests.WithLabelValues("hit").Inc()
		return
	}
	StatsCacheRequests.WithLabelValues("miss").Inc()
}

// SetAppInfo publishes the build information gauge.
func SetAppInfo(version, goVersion string) {
	AppInfo.WithLabelValues(version, goVersion).Set(1)
}
