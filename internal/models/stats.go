// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package models

import (
	"time"
)

// AdminStats is the admin dashboard summary.
type AdminStats struct {
	TotalUsers       int          `json:"total_users"`
	TotalFolders     int          `json:"total_folders"`
	TotalFiles       int          `json:"total_files"`
	TotalBytes       int64        `json:"total_bytes"`
	ActiveShares     int          `json:"active_shares"`
	LatestFiles      []FileRecord `json:"latest_files"`
	TypeDistribution []TypeCount  `json:"type_distribution"`
	GeneratedAt      time.Time    `json:"generated_at"`
}

// TypeCount is the number of files sharing an extension.
type TypeCount struct {
	Extension string `json:"extension"`
	Count     int    `json:"count"`
	Bytes     int64  `json:"bytes"`
}

// HealthStatus represents the health check response.
type HealthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	Uptime            float64 `json:"uptime_seconds"`
}

// Page is a paginated slice of items.
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"total_count"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// NewPage computes TotalPages from the count and page size.
func NewPage[T any](items []T, total, page, pageSize int) Page[T] {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, TotalCount: total, Page: page, PageSize: pageSize, TotalPages: pages}
}
