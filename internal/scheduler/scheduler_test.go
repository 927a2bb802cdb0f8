package scheduler

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/domain"
)

// requirePartition 检查分组是否恰好覆盖 [0, groups*size) 中的每个人一次
func requirePartition(t *testing.T, groups [][]int, numberOfGroups, sizeOfGroups int) {
	t.Helper()

	require.Len(t, groups, numberOfGroups)
	seen := make([]bool, numberOfGroups*sizeOfGroups)
	for _, group := range groups {
		require.Len(t, group, sizeOfGroups)
		for _, person := range group {
			require.GreaterOrEqual(t, person, 0)
			require.Less(t, person, len(seen))
			require.False(t, seen[person], "人员 %d 出现了多次", person)
			seen[person] = true
		}
	}
}

func toInts(groups []Group) [][]int {
	out := make([][]int, len(groups))
	for i, group := range groups {
		out[i] = group
	}
	return out
}

func upperTriangleSum(weights [][]int) int {
	sum := 0
	for i := range weights {
		for j := i + 1; j < len(weights); j++ {
			sum += weights[i][j]
		}
	}
	return sum
}

func TestNew_InvalidConfiguration(t *testing.T) {
	cases := []struct {
		name       string
		parameters *Parameters
	}{
		{"Nil", nil},
		{"NoGroups", DefaultParameters(0, 2, 1)},
		{"GroupOfOne", DefaultParameters(3, 1, 1)},
		{"NoRounds", DefaultParameters(2, 2, 0)},
		{"NegativeGroups", DefaultParameters(-1, 2, 1)},
		{"NoGenerations", &Parameters{NumberOfGroups: 2, SizeOfGroups: 2, NumberOfRounds: 1, InitialPopulation: 1, MaxDescendantsToExplore: 1}},
		{"NoInitialPopulation", &Parameters{NumberOfGroups: 2, SizeOfGroups: 2, NumberOfRounds: 1, Generations: 1, MaxDescendantsToExplore: 1}},
		{"TooManyPeople", DefaultParameters(1<<24, 1<<7, 1)},
		{"AboveDefaultLimit", DefaultParameters(DefaultMaxPeople+1, 2, 1)},
		{"NegativeRandomMutations", &Parameters{NumberOfGroups: 2, SizeOfGroups: 2, NumberOfRounds: 1, Generations: 1, InitialPopulation: 1, RandomMutations: -1, MaxDescendantsToExplore: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := New(tc.parameters)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfiguration), "error = %v", err)
			assert.Nil(t, s)
		})
	}
}

func TestNew_MaxPeople(t *testing.T) {
	_, err := New(DefaultParameters(5, 4, 1), WithMaxPeople(19))
	assert.True(t, errors.Is(err, ErrInvalidConfiguration), "error = %v", err)

	s, err := New(DefaultParameters(5, 4, 1), WithMaxPeople(20))
	require.NoError(t, err)
	assert.Len(t, s.Weights(), 20)
}

func TestSolve_SingleRoundTwoByTwo(t *testing.T) {
	s, err := New(DefaultParameters(2, 2, 1), WithSeed(1))
	require.NoError(t, err)

	rounds := s.Solve()
	require.Len(t, rounds, 1)
	requirePartition(t, rounds[0].Groups, 2, 2)
	assert.Equal(t, 0, rounds[0].RoundScore)
	assert.Equal(t, 1, s.Commits())
}

func TestSolve_ThreeRoundsUseEveryPairOnce(t *testing.T) {
	s, err := New(DefaultParameters(2, 2, 3), WithSeed(7))
	require.NoError(t, err)

	rounds := s.Solve()
	require.Len(t, rounds, 3)
	for _, round := range rounds {
		requirePartition(t, round.Groups, 2, 2)
		assert.Equal(t, 0, round.RoundScore)
	}

	weights := s.Weights()
	assert.Equal(t, 6, upperTriangleSum(weights))
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			assert.Equal(t, 1, weights[i][j], "pair (%d, %d)", i, j)
		}
	}
	assert.Equal(t, 3, s.Commits())
}

func TestSolve_FourthRoundMustRepeat(t *testing.T) {
	s, err := New(DefaultParameters(2, 2, 4), WithSeed(3))
	require.NoError(t, err)

	rounds := s.Solve()
	require.Len(t, rounds, 4)

	total := 0
	for _, round := range rounds {
		total += round.RoundScore
	}
	assert.Equal(t, 2, rounds[3].RoundScore)
	assert.Greater(t, total, 0)
	assert.Equal(t, 8, upperTriangleSum(s.Weights()))
}

func TestSolve_LargerInstanceProducesPartitions(t *testing.T) {
	parameters := DefaultParameters(5, 4, 6)
	parameters.Generations = 10
	parameters.MaxDescendantsToExplore = 20

	s, err := New(parameters, WithSeed(42))
	require.NoError(t, err)

	rounds := s.Solve()
	require.Len(t, rounds, 6)
	for _, round := range rounds {
		requirePartition(t, round.Groups, 5, 4)
		assert.GreaterOrEqual(t, round.RoundScore, 0)
	}
	assert.Equal(t, 6, s.Commits())

	// 每轮贡献 groups * C(size, 2) 个二元组
	assert.Equal(t, 6*5*6, upperTriangleSum(s.Weights()))
}

func TestSolve_DeterministicWithSeed(t *testing.T) {
	run := func() []RoundResult {
		s, err := New(DefaultParameters(4, 3, 5), WithSeed(2024))
		require.NoError(t, err)
		return s.Solve()
	}

	assert.Equal(t, run(), run())
}

func TestWeightModel_CommitKeepsSymmetry(t *testing.T) {
	m := NewWeightModel(6)
	rounds := [][]Group{
		{{0, 1, 2}, {3, 4, 5}},
		{{0, 3, 1}, {2, 4, 5}},
	}

	for _, groups := range rounds {
		m.Commit(groups)
		for i := 0; i < 6; i++ {
			for j := 0; j < 6; j++ {
				assert.Equal(t, m.Weight(i, j), m.Weight(j, i))
				assert.Equal(t, m.Score(i, j), m.Score(j, i))
				assert.Equal(t, m.Weight(i, j)*m.Weight(i, j), m.Score(i, j))
			}
		}
	}

	assert.Equal(t, 2, m.Weight(0, 1))
	assert.Equal(t, 4, m.Score(0, 1))
	assert.Equal(t, 2, m.Weight(4, 5))
	assert.Equal(t, 0, m.Weight(0, 4))
	assert.Equal(t, 2, m.Commits())

	// (0,1)=4, (0,2)=1, (1,2)=1
	assert.Equal(t, 6, m.ScoreGroup(Group{0, 1, 2}))
}

// newWarmScheduler 返回一个已经提交过若干轮随机分组的 Scheduler，使权重不全为 0
func newWarmScheduler(t *testing.T, numberOfGroups, sizeOfGroups int, seed int64) *Scheduler {
	t.Helper()

	s, err := New(DefaultParameters(numberOfGroups, sizeOfGroups, 1), WithSeed(seed))
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		s.weights.Commit(s.randomGroups())
	}
	return s
}

func TestMutate_IncrementalScoresMatchFullRecompute(t *testing.T) {
	s := newWarmScheduler(t, 4, 3, 11)
	pop := s.randomPopulation(3)

	for generation := 0; generation < 3; generation++ {
		children := s.mutate(pop)
		for _, child := range children {
			requirePartition(t, toInts(child.groups), 4, 3)

			groupScores, total := s.weights.scoreGroups(child.groups)
			require.Equal(t, groupScores, child.groupScores)
			require.Equal(t, total, child.totalScore)
		}
		pop = s.selectBest(children)
	}
}

func TestMutate_ExchangeChildrenNeverWorseThanParent(t *testing.T) {
	s := newWarmScheduler(t, 3, 3, 5)
	parent := s.randomPopulation(1)[0]

	children := s.mutate([]*Candidate{parent})
	require.GreaterOrEqual(t, len(children), 1+s.parameters.RandomMutations)
	assert.Same(t, parent, children[0])

	exchanges := children[1 : len(children)-s.parameters.RandomMutations]
	assert.LessOrEqual(t, len(exchanges), 3*2*3)
	for _, child := range exchanges {
		assert.LessOrEqual(t, child.totalScore, parent.totalScore)
	}
}

func TestMutate_ParentIsNotModified(t *testing.T) {
	s := newWarmScheduler(t, 3, 2, 9)
	parent := s.randomPopulation(1)[0]

	groups := make([][]int, len(parent.groups))
	for i, group := range parent.groups {
		groups[i] = append([]int(nil), group...)
	}
	scores := append([]int(nil), parent.groupScores...)

	s.mutate([]*Candidate{parent})

	assert.Equal(t, groups, toInts(parent.groups))
	assert.Equal(t, scores, parent.groupScores)
}

func TestMutate_SingleGroupHasNoExchanges(t *testing.T) {
	s, err := New(DefaultParameters(1, 4, 1), WithSeed(1))
	require.NoError(t, err)

	parent := s.randomPopulation(1)[0]
	children := s.mutate([]*Candidate{parent})
	assert.Len(t, children, 1+s.parameters.RandomMutations)
}

func TestMutate_OrderedByScoreDescending(t *testing.T) {
	c := &Candidate{
		groups:      []Group{{0, 1}, {2, 3}, {4, 5}},
		groupScores: []int{1, 5, 1},
		totalScore:  7,
	}

	ordered := c.orderedByScore()
	assert.Equal(t, []int{5, 1, 1}, ordered.groupScores)
	// 得分相同的小组保持原来的先后顺序
	assert.Equal(t, [][]int{{2, 3}, {0, 1}, {4, 5}}, toInts(ordered.groups))
	assert.Equal(t, 7, ordered.totalScore)
}

func TestSelectBest_KeepsAllTiesUpToLimit(t *testing.T) {
	s, err := New(DefaultParameters(2, 2, 1), WithSeed(1))
	require.NoError(t, err)

	build := func(tied, worse int) []*Candidate {
		children := make([]*Candidate, 0, tied+worse)
		for i := 0; i < worse; i++ {
			children = append(children, &Candidate{totalScore: 3})
		}
		for i := 0; i < tied; i++ {
			children = append(children, &Candidate{totalScore: 1})
		}
		return children
	}

	cases := []struct {
		name  string
		tied  int
		worse int
		want  int
	}{
		{"FewTies", 5, 10, 5},
		{"ExactlyLimit", 100, 3, 100},
		{"ManyTies", 150, 10, 100},
		{"OnlyTies", 1, 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			best := s.selectBest(build(tc.tied, tc.worse))
			assert.Len(t, best, tc.want)
			for _, c := range best {
				assert.Equal(t, 1, c.totalScore)
			}
		})
	}
}

func TestRandomPopulation_ScoresAgainstCurrentWeights(t *testing.T) {
	s := newWarmScheduler(t, 3, 4, 21)
	for _, c := range s.randomPopulation(10) {
		requirePartition(t, toInts(c.groups), 3, 4)
		groupScores, total := s.weights.scoreGroups(c.groups)
		assert.Equal(t, groupScores, c.groupScores)
		assert.Equal(t, total, c.totalScore)
	}
}

type recordingObserver struct {
	generations int
	rounds      []int
}

func (o *recordingObserver) GenerationCompleted(round, generation, bestScore, populationSize int) {
	o.generations++
}

func (o *recordingObserver) RoundCompleted(round int, result RoundResult, generations int) {
	o.rounds = append(o.rounds, result.RoundScore)
}

func TestSolve_NotifiesObserver(t *testing.T) {
	observer := &recordingObserver{}
	s, err := New(DefaultParameters(3, 3, 4), WithSeed(8), WithObserver(observer))
	require.NoError(t, err)

	rounds := s.Solve()

	scores := make([]int, len(rounds))
	for i, round := range rounds {
		scores[i] = round.RoundScore
	}
	assert.Equal(t, scores, observer.rounds)
}

func TestToScheduleRounds(t *testing.T) {
	results := []RoundResult{
		{Groups: [][]int{{0, 3}, {1, 2}}, RoundScore: 0},
		{Groups: [][]int{{0, 1}, {2, 3}}, RoundScore: 4},
	}

	rounds := ToScheduleRounds(results)
	require.Len(t, rounds, 2)
	assert.Equal(t, int32(1), rounds[1].Round)
	assert.Equal(t, [][]int32{{0, 1}, {2, 3}}, rounds[1].Groups)
	assert.Equal(t, int64(4), rounds[1].RoundScore)

	people := []int{}
	for _, group := range rounds[0].Groups {
		for _, p := range group {
			people = append(people, int(p))
		}
	}
	sort.Ints(people)
	assert.Equal(t, []int{0, 1, 2, 3}, people)
}

func TestParametersFor(t *testing.T) {
	tournament := &domain.Tournament{NumberOfGroups: 4, SizeOfGroups: 3, NumberOfRounds: 5}

	p := ParametersFor(tournament, domain.SolveParameters{})
	assert.Equal(t, *DefaultParameters(4, 3, 5), *p)

	p = ParametersFor(tournament, domain.SolveParameters{Generations: 7, MaxDescendantsToExplore: 9})
	assert.Equal(t, 7, p.Generations)
	assert.Equal(t, 9, p.MaxDescendantsToExplore)
	assert.Equal(t, DefaultInitialPopulation, p.InitialPopulation)
	assert.Equal(t, 12, p.NumberOfGroups*p.SizeOfGroups)
}
