// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

/*
Package metrics provides Prometheus metrics for the file sharing service.

Metrics are registered on the default registry through promauto and served at
/metrics in Prometheus text format.

# Available Metrics

HTTP Metrics:
  - http_requests_total: Total HTTP requests (counter)
    Labels: method, endpoint, status
  - http_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - http_requests_in_flight: Active requests (gauge)

Access Metrics:
  - permission_decisions_total: Permission Engine outcomes (counter)
    Labels: capability, result (allow, deny, error)
  - login_attempts_total: Login outcomes (counter)
    Labels: result (success, failure, locked)
  - account_lockouts_total: Accounts moved to Locked (counter)

Share and Token Metrics:
  - shares_created_total: Labels: item_type
  - share_resolutions_total: Labels: result (ok, not_found, expired, bad_password)
  - temp_tokens_issued_total, temp_token_validations_total (result)

File Metrics:
  - uploads_total: Labels: result (ok, failed)
  - upload_bytes_total
  - downloads_total: Labels: via (session, token, share)
  - orphan_files_swept_total

Pipeline Metrics:
  - domain_events_published_total: Labels: topic
  - audit_events_total: Labels: result (written, dropped, failed)
  - stats_cache_requests_total: Labels: result (hit, miss)

# Usage

	metrics.RecordAPIRequest("GET", "/api/v1/folders", "200", elapsed)
	metrics.RecordPermissionDecision("upload", true, nil)
*/
package metrics
