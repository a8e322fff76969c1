package domain

import "time"

type RefreshStatus string

const (
	RefreshStatusPending   RefreshStatus = "pending"
	RefreshStatusCompleted RefreshStatus = "completed"
	RefreshStatusFailed    RefreshStatus = "failed"
)

// RefreshRequest asks the workers to rebuild one owner's forest.
type RefreshRequest struct {
	ID        string
	OwnerID   int64
	Status    RefreshStatus
	CreatedAt time.Time
}
