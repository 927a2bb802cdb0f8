package scheduler

// WeightModel 记录任意两人到目前为止同组的轮数（weight），以及其平方（cost）
// 两个矩阵都按 totalPeople * totalPeople 展开存储，并始终保持对称
type WeightModel struct {
	totalPeople int
	weights     []int
	costs       []int
	commits     int
}

func NewWeightModel(totalPeople int) *WeightModel {
	return &WeightModel{
		totalPeople: totalPeople,
		weights:     make([]int, totalPeople*totalPeople),
		costs:       make([]int, totalPeople*totalPeople),
	}
}

// Score 返回两人同组的代价，即 weight 的平方
func (m *WeightModel) Score(i, j int) int {
	return m.costs[i*m.totalPeople+j]
}

func (m *WeightModel) Weight(i, j int) int {
	return m.weights[i*m.totalPeople+j]
}

// ScoreGroup 对组内所有无序二元组的代价求和
func (m *WeightModel) ScoreGroup(group Group) int {
	score := 0
	for a := 0; a < len(group); a++ {
		for b := a + 1; b < len(group); b++ {
			score += m.Score(group[a], group[b])
		}
	}
	return score
}

func (m *WeightModel) scoreGroups(groups []Group) ([]int, int) {
	groupScores := make([]int, len(groups))
	total := 0
	for i, group := range groups {
		groupScores[i] = m.ScoreGroup(group)
		total += groupScores[i]
	}
	return groupScores, total
}

// swapDelta 计算将 group[index] 替换为 incoming 之后该组得分的变化量
// 其余成员不变，因此只需要比较被替换位置与其他成员之间的代价
func (m *WeightModel) swapDelta(group Group, index int, incoming int) int {
	outgoing := group[index]
	delta := 0
	for i, other := range group {
		if i == index {
			continue
		}
		delta += m.Score(incoming, other) - m.Score(outgoing, other)
	}
	return delta
}

// Commit 将一轮最终确定的分组写入权重矩阵
// 每轮只能调用一次，且必须在该轮的最优方案确定之后调用
func (m *WeightModel) Commit(groups []Group) {
	for _, group := range groups {
		for a := 0; a < len(group); a++ {
			for b := a + 1; b < len(group); b++ {
				i, j := group[a], group[b]
				w := m.weights[i*m.totalPeople+j] + 1
				m.weights[i*m.totalPeople+j] = w
				m.weights[j*m.totalPeople+i] = w
				m.costs[i*m.totalPeople+j] = w * w
				m.costs[j*m.totalPeople+i] = w * w
			}
		}
	}
	m.commits++
}

// Commits 返回已经提交的轮数
func (m *WeightModel) Commits() int {
	return m.commits
}

// Snapshot 返回权重矩阵的拷贝
func (m *WeightModel) Snapshot() [][]int {
	snapshot := make([][]int, m.totalPeople)
	for i := range snapshot {
		snapshot[i] = make([]int, m.totalPeople)
		copy(snapshot[i], m.weights[i*m.totalPeople:(i+1)*m.totalPeople])
	}
	return snapshot
}
