package services

import (
	"context"

	"bookeosync/internal/utils"
)

// SyncTrigger is the message-passing boundary between the webhook receiver
// and the sync pipeline. Requests coalesce: while one incremental sync is
// pending, further triggers fold into it, which is safe because every sync
// run is idempotent.
type SyncTrigger struct {
	ch chan string
}

func NewSyncTrigger() *SyncTrigger {
	return &SyncTrigger{ch: make(chan string, 1)}
}

// Enqueue requests an incremental sync without blocking. Returns false when
// the request coalesced into an already-pending one.
func (t *SyncTrigger) Enqueue(reason string) bool {
	select {
	case t.ch <- reason:
		return true
	default:
		return false
	}
}

// Run consumes trigger requests until ctx is canceled.
func (t *SyncTrigger) Run(ctx context.Context, fn func(ctx context.Context, reason string)) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-t.ch:
			utils.LogEvent("", "trigger", "consume", "reason="+reason)
			fn(ctx, reason)
		}
	}
}
