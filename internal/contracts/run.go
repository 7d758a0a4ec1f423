package contracts

import "time"

// RunRecord is one persisted strategy pass
type RunRecord struct {
	RunID        string    `json:"run_id"`
	Strategy     Strategy  `json:"strategy"`
	ConfigHash   string    `json:"config_hash"`
	UniverseSize int       `json:"universe_size"`
	MissingCount int       `json:"missing_count"`
	TopN         int       `json:"top_n"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Report       *Report   `json:"report"`
}
