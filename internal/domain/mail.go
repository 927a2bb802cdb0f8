package domain

const (
	MailTypeCreateUser    = "create_user"
	MailTypeScheduleReady = "schedule_ready"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ScheduleReadyMailData struct {
	FullName       string `json:"fullName"`
	TournamentName string `json:"tournamentName"`
	Rounds         int    `json:"rounds"`
	TotalScore     int64  `json:"totalScore"`
	MaxMeetings    int32  `json:"maxMeetings"`
}
