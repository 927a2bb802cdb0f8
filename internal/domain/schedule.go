package domain

import "time"

type ScheduleSource string

const (
	ScheduleSourceGenerated ScheduleSource = "generated"
	ScheduleSourceManual    ScheduleSource = "manual"
)

type ScheduleRound struct {
	Round      int32     `json:"round"`
	Groups     [][]int32 `json:"groups"`
	RoundScore int64     `json:"roundScore"`
}

type Schedule struct {
	ID           int64           `json:"id"`
	TournamentID int64           `json:"tournamentID"`
	Source       ScheduleSource  `json:"source"`
	Rounds       []ScheduleRound `json:"rounds"`
	CreatedAt    time.Time       `json:"createdAt"`
	Version      int32           `json:"-"`
}

// TotalScore 返回所有轮次得分之和
func (s *Schedule) TotalScore() int64 {
	var total int64
	for _, round := range s.Rounds {
		total += round.RoundScore
	}
	return total
}

type PairMeeting struct {
	A     int32 `json:"a"`
	B     int32 `json:"b"`
	Count int32 `json:"count"`
}

// ScheduleSummary: 整个赛程中两两相遇次数的统计
type ScheduleSummary struct {
	MaxMeetings   int32         `json:"maxMeetings"`
	RepeatedPairs []PairMeeting `json:"repeatedPairs"` // 相遇次数大于 1 的二元组
	UnmetPairs    int32         `json:"unmetPairs"`
}
