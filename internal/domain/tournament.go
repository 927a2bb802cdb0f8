package domain

import "time"

type Tournament struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	NumberOfGroups int32     `json:"numberOfGroups"`
	SizeOfGroups   int32     `json:"sizeOfGroups"`
	NumberOfRounds int32     `json:"numberOfRounds"`
	OrganizerID    int64     `json:"organizerID"`
	CreatedAt      time.Time `json:"createdAt"`
	Version        int32     `json:"-"`
}

// TotalPeople 返回参赛总人数
func (t *Tournament) TotalPeople() int {
	return int(t.NumberOfGroups) * int(t.SizeOfGroups)
}

// Player: 参赛者，Index 即为求解时使用的人员编号
type Player struct {
	ID           int64  `json:"id"`
	TournamentID int64  `json:"tournamentID"`
	Index        int32  `json:"index"`
	FullName     string `json:"fullName"`
	Handle       string `json:"handle"`
}
