package types

import "time"

type NotificationKind string

const (
	NotificationImagePatchFailed   NotificationKind = "image_patch_failed"
	NotificationImagePatched       NotificationKind = "image_patched"
	NotificationHistoryWriteFailed NotificationKind = "history_write_failed"
)

// Notification is a secondary event produced by background work after the
// request that triggered it has already completed.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Kind      NotificationKind `json:"kind"`
	Subject   string           `json:"subject,omitempty"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"createdAt"`
}
