package scheduler

import "sort"

// orderedByScore 返回一个按小组得分降序排列的副本，下标 0 即为得分最高（最差）的小组
func (c *Candidate) orderedByScore() *Candidate {
	order := make([]int, len(c.groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return c.groupScores[order[i]] > c.groupScores[order[j]]
	})

	ordered := &Candidate{
		groups:      make([]Group, len(c.groups)),
		groupScores: make([]int, len(c.groups)),
		totalScore:  c.totalScore,
	}
	for i, idx := range order {
		ordered.groups[i] = c.groups[idx]
		ordered.groupScores[i] = c.groupScores[idx]
	}
	return ordered
}

// swapPersons 交换 group1[personIndex] 与 group2[swapPersonIndex]，返回两个新的小组
func swapPersons(group1, group2 Group, personIndex, swapPersonIndex int) (Group, Group) {
	newGroup1 := make(Group, len(group1))
	copy(newGroup1, group1)
	newGroup2 := make(Group, len(group2))
	copy(newGroup2, group2)

	newGroup1[personIndex] = group2[swapPersonIndex]
	newGroup2[swapPersonIndex] = group1[personIndex]
	return newGroup1, newGroup2
}

// withExchange 基于 c 生成新的候选方案，只替换 index1 与 index2 两个小组及其得分
// 其余小组的得分直接沿用，小组本身不可变，因此可以共享
func (c *Candidate) withExchange(index1 int, group1 Group, score1 int, index2 int, group2 Group, score2 int, total int) *Candidate {
	child := &Candidate{
		groups:      make([]Group, len(c.groups)),
		groupScores: make([]int, len(c.groupScores)),
		totalScore:  total,
	}
	copy(child.groups, c.groups)
	copy(child.groupScores, c.groupScores)

	child.groups[index1] = group1
	child.groupScores[index1] = score1
	child.groups[index2] = group2
	child.groupScores[index2] = score2
	return child
}

// mutate 对每个父本的最差小组做穷举的单人交换，并额外注入若干随机方案
// 输出总是包含父本本身
func (s *Scheduler) mutate(parents []*Candidate) []*Candidate {
	size := s.parameters.SizeOfGroups
	numberOfGroups := s.parameters.NumberOfGroups

	children := make([]*Candidate, 0, len(parents)*(1+s.parameters.RandomMutations))

	for _, parent := range parents {
		children = append(children, parent)

		ordered := parent.orderedByScore()
		worst := ordered.groups[0]
		worstScore := ordered.groupScores[0]

		for personIndex := 0; personIndex < size; personIndex++ {
			for swapGroupIndex := 1; swapGroupIndex < numberOfGroups; swapGroupIndex++ {
				other := ordered.groups[swapGroupIndex]
				otherScore := ordered.groupScores[swapGroupIndex]

				for swapPersonIndex := 0; swapPersonIndex < size; swapPersonIndex++ {
					newWorstScore := worstScore + s.weights.swapDelta(worst, personIndex, other[swapPersonIndex])
					newOtherScore := otherScore + s.weights.swapDelta(other, swapPersonIndex, worst[personIndex])
					total := parent.totalScore - worstScore - otherScore + newWorstScore + newOtherScore

					// 父本本身已经在输出中，得分更差的子代之后一定会被淘汰，这里直接丢弃
					if total > parent.totalScore {
						continue
					}

					newWorst, newOther := swapPersons(worst, other, personIndex, swapPersonIndex)
					children = append(children, ordered.withExchange(0, newWorst, newWorstScore, swapGroupIndex, newOther, newOtherScore, total))
				}
			}
		}

		// 随机方案不做剪枝，用于跳出局部最优
		children = append(children, s.randomPopulation(s.parameters.RandomMutations)...)
	}

	return children
}

// selectBest 保留所有得分最低的子代，随机打乱后截断到 MaxDescendantsToExplore 个
func (s *Scheduler) selectBest(children []*Candidate) []*Candidate {
	lowest := children[0].totalScore
	for _, child := range children[1:] {
		lowest = min(lowest, child.totalScore)
	}

	best := make([]*Candidate, 0, len(children))
	for _, child := range children {
		if child.totalScore == lowest {
			best = append(best, child)
		}
	}

	s.rng.Shuffle(len(best), func(i, j int) {
		best[i], best[j] = best[j], best[i]
	})

	if len(best) > s.parameters.MaxDescendantsToExplore {
		best = best[:s.parameters.MaxDescendantsToExplore]
	}
	return best
}
