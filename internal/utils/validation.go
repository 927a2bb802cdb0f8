package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/domain"
)

func ValidateTournament(t *domain.Tournament) error {
	if t.NumberOfGroups < 1 {
		return errors.New("小组数量至少为 1")
	}
	if t.SizeOfGroups < 2 {
		return errors.New("每个小组至少需要 2 人")
	}
	if t.NumberOfRounds < 1 {
		return errors.New("轮数至少为 1")
	}
	return nil
}

// ValidateRoster 检查参赛名单是否恰好覆盖编号 [0, TotalPeople) 且姓名不为空
func ValidateRoster(players []domain.Player, t *domain.Tournament) error {
	totalPeople := t.TotalPeople()
	if len(players) != totalPeople {
		return fmt.Errorf("参赛人数应为 %d，实际为 %d", totalPeople, len(players))
	}

	seen := make([]bool, totalPeople)
	for _, player := range players {
		if player.Index < 0 || int(player.Index) >= totalPeople {
			return fmt.Errorf("参赛者编号 %d 超出范围", player.Index)
		}
		if seen[player.Index] {
			return fmt.Errorf("参赛者编号 %d 重复", player.Index)
		}
		if strings.TrimSpace(player.FullName) == "" {
			return fmt.Errorf("参赛者 %d 的姓名不能为空", player.Index)
		}
		seen[player.Index] = true
	}

	return nil
}

// ValidateRoundGroups 检查某一轮的分组是否把所有人恰好分到一个小组中
func ValidateRoundGroups(groups [][]int32, t *domain.Tournament) error {
	if len(groups) != int(t.NumberOfGroups) {
		return fmt.Errorf("小组数量应为 %d，实际为 %d", t.NumberOfGroups, len(groups))
	}

	totalPeople := t.TotalPeople()
	seen := make([]bool, totalPeople)
	for i, group := range groups {
		if len(group) != int(t.SizeOfGroups) {
			return fmt.Errorf("小组 %d 的人数应为 %d，实际为 %d", i, t.SizeOfGroups, len(group))
		}
		for _, person := range group {
			if person < 0 || int(person) >= totalPeople {
				return fmt.Errorf("小组 %d 中的人员编号 %d 超出范围", i, person)
			}
			if seen[person] {
				return fmt.Errorf("人员 %d 被分到了多个小组", person)
			}
			seen[person] = true
		}
	}

	// 人数和小组规模都对得上时，不可能有人遗漏，这里只是以防万一
	for person, ok := range seen {
		if !ok {
			return fmt.Errorf("人员 %d 没有被分到任何小组", person)
		}
	}

	return nil
}

func ValidateScheduleWithTournament(schedule *domain.Schedule, t *domain.Tournament) error {
	if len(schedule.Rounds) != int(t.NumberOfRounds) {
		return fmt.Errorf("轮数应为 %d，实际为 %d", t.NumberOfRounds, len(schedule.Rounds))
	}

	for i, round := range schedule.Rounds {
		if err := ValidateRoundGroups(round.Groups, t); err != nil {
			return fmt.Errorf("第 %d 轮: %w", i+1, err)
		}
	}

	return nil
}

// ScoreSchedule 按"相遇次数的平方"重新计算每一轮的得分
// 第 r 轮的得分只取决于前 r-1 轮的相遇次数，与求解器的打分方式一致
func ScoreSchedule(schedule *domain.Schedule, totalPeople int) {
	weights := make([]int64, totalPeople*totalPeople)

	for r := range schedule.Rounds {
		var score int64
		for _, group := range schedule.Rounds[r].Groups {
			for a := 0; a < len(group); a++ {
				for b := a + 1; b < len(group); b++ {
					w := weights[int(group[a])*totalPeople+int(group[b])]
					score += w * w
				}
			}
		}
		schedule.Rounds[r].RoundScore = score

		for _, group := range schedule.Rounds[r].Groups {
			for a := 0; a < len(group); a++ {
				for b := a + 1; b < len(group); b++ {
					i, j := int(group[a]), int(group[b])
					weights[i*totalPeople+j]++
					weights[j*totalPeople+i]++
				}
			}
		}
	}
}

// SummarizeMeetings 统计赛程中任意两人相遇的次数
func SummarizeMeetings(schedule *domain.Schedule, totalPeople int) domain.ScheduleSummary {
	meetings := make([]int32, totalPeople*totalPeople)
	for _, round := range schedule.Rounds {
		for _, group := range round.Groups {
			for a := 0; a < len(group); a++ {
				for b := a + 1; b < len(group); b++ {
					i, j := min(group[a], group[b]), max(group[a], group[b])
					meetings[int(i)*totalPeople+int(j)]++
				}
			}
		}
	}

	summary := domain.ScheduleSummary{
		RepeatedPairs: make([]domain.PairMeeting, 0),
	}
	for i := 0; i < totalPeople; i++ {
		for j := i + 1; j < totalPeople; j++ {
			count := meetings[i*totalPeople+j]
			summary.MaxMeetings = max(summary.MaxMeetings, count)
			switch {
			case count == 0:
				summary.UnmetPairs++
			case count > 1:
				summary.RepeatedPairs = append(summary.RepeatedPairs, domain.PairMeeting{
					A:     int32(i),
					B:     int32(j),
					Count: count,
				})
			}
		}
	}

	return summary
}
