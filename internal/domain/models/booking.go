package models

import "time"

// BookingRow is one flat destination row for the Bookings table. Timestamps
// keep the provider's RFC 3339 strings so the original offset survives the
// round trip; money amounts stay decimal strings and are never parsed into
// binary floating point.
type BookingRow struct {
	BookingNumber string

	EventID     string
	ProductID   string
	ProductName string

	StartTime string
	EndTime   string

	CustomerID string
	Title      string

	Canceled     bool
	Accepted     bool
	NoShow       bool
	PrivateEvent bool

	SourceIP        string
	CancelationTime string
	CreationTime    string
	LastChangeTime  string
	LastChangeAgent string

	TotalParticipants int
	TotalGross        string
	TotalNet          string
	TotalPaid         string
	Currency          string

	// RawJSON keeps the full provider payload for fields not modeled above.
	RawJSON string
}

// SyncState is the per-key checkpoint row. LastSyncTime only moves forward.
type SyncState struct {
	SyncKey      string
	LastSyncTime time.Time
}

// DefaultSyncKey is the checkpoint key used by the booking pipeline.
const DefaultSyncKey = "bookings"
