package models

import "time"

// CachedState is the last authoritative snapshot kept on disk between restarts.
type CachedState struct {
	Snapshot DeviceSnapshot `json:"snapshot"`
	Settings Settings       `json:"settings"`
	SavedAt  time.Time      `json:"saved_at"`
}
