package scheduler

// Group: 某一轮中的一个小组，元素为人员编号，范围 [0, totalPeople)
// 小组一旦创建就不会被原地修改，变异时总是生成新的切片
type Group []int

// Candidate: 某一轮的一个候选分组方案
type Candidate struct {
	groups      []Group
	groupScores []int // 与 groups 一一对应
	totalScore  int   // 恒等于 groupScores 之和
}

// 算法参数
type Parameters struct {
	NumberOfGroups          int `json:"numberOfGroups" validate:"min=1"`          // 每轮的小组数量
	SizeOfGroups            int `json:"sizeOfGroups" validate:"min=2"`            // 每个小组的人数
	NumberOfRounds          int `json:"numberOfRounds" validate:"min=1"`          // 轮数
	Generations             int `json:"generations" validate:"min=1"`             // 每轮最多迭代的代数
	InitialPopulation       int `json:"initialPopulation" validate:"min=1"`       // 每轮初始种群大小
	RandomMutations         int `json:"randomMutations" validate:"min=0"`         // 每个父本额外注入的随机方案数
	MaxDescendantsToExplore int `json:"maxDescendantsToExplore" validate:"min=1"` // 每代保留的最优方案上限
}

const (
	DefaultGenerations             = 30
	DefaultInitialPopulation       = 5
	DefaultRandomMutations         = 2
	DefaultMaxDescendantsToExplore = 100

	// 2048 人时两个矩阵共约 64MB
	DefaultMaxPeople = 2048
)

// DefaultParameters 返回使用默认迭代参数的算法参数
func DefaultParameters(numberOfGroups, sizeOfGroups, numberOfRounds int) *Parameters {
	return &Parameters{
		NumberOfGroups:          numberOfGroups,
		SizeOfGroups:            sizeOfGroups,
		NumberOfRounds:          numberOfRounds,
		Generations:             DefaultGenerations,
		InitialPopulation:       DefaultInitialPopulation,
		RandomMutations:         DefaultRandomMutations,
		MaxDescendantsToExplore: DefaultMaxDescendantsToExplore,
	}
}

// RoundResult: 某一轮最终选定的分组以及该轮的得分
type RoundResult struct {
	Groups     [][]int `json:"groups"`
	RoundScore int     `json:"roundScore"`
}

func (c *Candidate) toRoundResult() RoundResult {
	groups := make([][]int, len(c.groups))
	for i, group := range c.groups {
		groups[i] = make([]int, len(group))
		copy(groups[i], group)
	}

	return RoundResult{
		Groups:     groups,
		RoundScore: c.totalScore,
	}
}
