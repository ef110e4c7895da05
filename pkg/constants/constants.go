// Package constants provides shared constants used throughout the
// solar-hub-sync codebase: timeouts, retry policy, rate limits, and the
// cross-system identifiers the sync depends on.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to remote APIs
	DefaultHTTPTimeout = 30 * time.Second

	// SearchHTTPTimeout is the shorter timeout used for CRM property searches
	SearchHTTPTimeout = 10 * time.Second

	// SyncTimeout is the overall timeout for a full batch run
	SyncTimeout = 6 * time.Hour
)

// Retry policy for transport-level failures
const (
	// MaxRetries is the maximum number of attempts for a single request
	MaxRetries = 3

	// RetryDelay is the fixed delay between retry attempts
	RetryDelay = 5 * time.Second
)

// Rate limiting constants. Each remote service has its own limiter shared by
// all workers, so outbound request rate is bounded regardless of parallelism.
const (
	// SimproRateLimit is the maximum requests per second to the Simpro API
	SimproRateLimit = 2

	// HubSpotRateLimit is the maximum requests per second to the HubSpot API
	HubSpotRateLimit = 10
)

// Batch driver defaults
const (
	// DefaultWorkers is the default size of the sync worker pool
	DefaultWorkers = 3

	// ProgressCheckpoint is how many synced records between checkpoint logs
	ProgressCheckpoint = 50
)

// Cross-system identifiers
const (
	// QuoteDealIDFieldID is the Simpro quote custom field holding the
	// HubSpot deal ID back-reference
	QuoteDealIDFieldID = 229

	// JobHubSpotIDFieldID is the Simpro job custom field holding the
	// HubSpot job ID back-reference
	JobHubSpotIDFieldID = 262

	// DealToSiteAssociationTypeID is the typed deal -> site association
	DealToSiteAssociationTypeID = 109
)

// Archived-duplicate detection. Deals a human merged away are closed lost
// with this reason and must be skipped, never re-synced.
const (
	ArchivedDealStage        = "closedlost"
	ArchivedDealClosedReason = "Duplicate - Merged"
)

// RebatePrebuildType is the prebuild type excluded from line-item sync;
// rebates are handled through a separate billing flow.
const RebatePrebuildType = "Rebates"

// PlaceholderEmailDomain is used when creating contacts for customers
// without an email address.
const PlaceholderEmailDomain = "solarhub.com.au"

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)
