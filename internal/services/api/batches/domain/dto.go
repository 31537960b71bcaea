// Package domain holds DTOs for batches http and service contracts
package domain

// SubmitInput plans a bulk job over units and levels and starts it
type SubmitInput struct {
	UnitIDs []string `json:"unit_ids" validate:"required,min=1,max=1000,dive,uuid4"`
	Levels  []string `json:"levels" validate:"required,min=1,dive,oneof=L1 L2 L3 L4 L5 L6" example:"L1,L2"`
}

// JobInput identifies a bulk job
type JobInput struct {
	JobID string `json:"job_id" validate:"required,uuid4" example:"3f6e1c2a-9d4b-4c0e-8a77-5b1f0c9d2e4a"`
}

// JobView is the transport view of a bulk job
type JobView struct {
	JobID      string `json:"job_id"`
	Status     string `json:"status"` // pending running completed cancelled
	TotalItems int    `json:"total_items"`
	Attempted  int    `json:"attempted"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	Cursor     int    `json:"cursor"`
	CreatedAt  string `json:"created_at"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// ReplayResult reports how many failed items were queued again
type ReplayResult struct {
	JobID string `json:"job_id"`
	Reset int    `json:"reset"`
}
