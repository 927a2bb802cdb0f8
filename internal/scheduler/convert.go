package scheduler

import "github.com/sysu-ecnc-dev/social-golfer/backend/internal/domain"

// ParametersFor 根据赛事规模和求解参数构建算法参数，未设置（为 0）的迭代参数使用默认值
func ParametersFor(t *domain.Tournament, p domain.SolveParameters) *Parameters {
	parameters := DefaultParameters(int(t.NumberOfGroups), int(t.SizeOfGroups), int(t.NumberOfRounds))

	if p.Generations > 0 {
		parameters.Generations = int(p.Generations)
	}
	if p.InitialPopulation > 0 {
		parameters.InitialPopulation = int(p.InitialPopulation)
	}
	if p.RandomMutations > 0 {
		parameters.RandomMutations = int(p.RandomMutations)
	}
	if p.MaxDescendantsToExplore > 0 {
		parameters.MaxDescendantsToExplore = int(p.MaxDescendantsToExplore)
	}

	return parameters
}

// ToScheduleRounds 将求解结果转换为可持久化的赛程轮次
func ToScheduleRounds(results []RoundResult) []domain.ScheduleRound {
	rounds := make([]domain.ScheduleRound, len(results))
	for i, result := range results {
		groups := make([][]int32, len(result.Groups))
		for j, group := range result.Groups {
			groups[j] = make([]int32, len(group))
			for k, person := range group {
				groups[j][k] = int32(person)
			}
		}

		rounds[i] = domain.ScheduleRound{
			Round:      int32(i),
			Groups:     groups,
			RoundScore: int64(result.RoundScore),
		}
	}
	return rounds
}
