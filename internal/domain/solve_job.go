package domain

import "time"

type SolveJobStatus string

const (
	SolveJobPending   SolveJobStatus = "pending"
	SolveJobRunning   SolveJobStatus = "running"
	SolveJobSucceeded SolveJobStatus = "succeeded"
	SolveJobFailed    SolveJobStatus = "failed"
)

type SolveParameters struct {
	Generations             int32  `json:"generations"`
	InitialPopulation       int32  `json:"initialPopulation"`
	RandomMutations         int32  `json:"randomMutations"`
	MaxDescendantsToExplore int32  `json:"maxDescendantsToExplore"`
	Seed                    *int64 `json:"seed"` // 为空时使用随机种子
}

type SolveJob struct {
	ID           string          `json:"id"`
	TournamentID int64           `json:"tournamentID"`
	RequestedBy  int64           `json:"requestedBy"`
	Status       SolveJobStatus  `json:"status"`
	Parameters   SolveParameters `json:"parameters"`
	Error        string          `json:"error,omitempty"`
	ScheduleID   int64           `json:"scheduleID,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
