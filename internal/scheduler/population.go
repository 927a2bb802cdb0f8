package scheduler

import "sort"

// randomGroups 将所有人员随机打乱后按顺序切分成 NumberOfGroups 个小组
func (s *Scheduler) randomGroups() []Group {
	permutation := make([]int, s.totalPeople)
	for i := range permutation {
		permutation[i] = i
	}
	s.rng.Shuffle(len(permutation), func(i, j int) {
		permutation[i], permutation[j] = permutation[j], permutation[i]
	})

	size := s.parameters.SizeOfGroups
	groups := make([]Group, s.parameters.NumberOfGroups)
	for i := range groups {
		// 使用三下标切片，防止之后对某个小组 append 时覆盖下一个小组
		groups[i] = Group(permutation[i*size : (i+1)*size : (i+1)*size])
	}
	return groups
}

// randomPopulation 随机生成 n 个候选方案并按当前权重打分
func (s *Scheduler) randomPopulation(n int) []*Candidate {
	pop := make([]*Candidate, 0, n)
	for i := 0; i < n; i++ {
		groups := s.randomGroups()
		groupScores, total := s.weights.scoreGroups(groups)
		pop = append(pop, &Candidate{
			groups:      groups,
			groupScores: groupScores,
			totalScore:  total,
		})
	}
	return pop
}

// sortByTotalScore 按总分升序稳定排序
func sortByTotalScore(pop []*Candidate) {
	sort.SliceStable(pop, func(i, j int) bool {
		return pop[i].totalScore < pop[j].totalScore
	})
}
