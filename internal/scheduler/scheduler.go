package scheduler

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Observer 用于观察求解过程，例如上报监控指标
type Observer interface {
	GenerationCompleted(round int, generation int, bestScore int, populationSize int)
	RoundCompleted(round int, result RoundResult, generations int)
}

type noopObserver struct{}

func (noopObserver) GenerationCompleted(int, int, int, int) {}
func (noopObserver) RoundCompleted(int, RoundResult, int) {}

type Scheduler struct {
	parameters  *Parameters
	totalPeople int
	weights     *WeightModel // 只属于当前 Scheduler，每轮结束时更新一次
	maxPeople   int
	rng         *rand.Rand
	logger      *slog.Logger
	observer    Observer
}

type Option func(*Scheduler)

// WithRand 指定随机数来源，所有随机操作都只从这一个来源取值
func WithRand(rng *rand.Rand) Option {
	return func(s *Scheduler) {
		s.rng = rng
	}
}

// WithSeed 使用固定种子，相同种子和参数的两次求解结果完全一致
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// WithMaxPeople 限制总人数，权重矩阵需要 totalPeople^2 的空间，非正数表示使用默认上限
func WithMaxPeople(maxPeople int) Option {
	return func(s *Scheduler) {
		if maxPeople > 0 {
			s.maxPeople = maxPeople
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithObserver(observer Observer) Option {
	return func(s *Scheduler) {
		s.observer = observer
	}
}

func New(parameters *Parameters, opts ...Option) (*Scheduler, error) {
	if parameters == nil {
		return nil, fmt.Errorf("%w: 未提供参数", ErrInvalidConfiguration)
	}
	if err := validate.Struct(parameters); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	totalPeople := parameters.NumberOfGroups * parameters.SizeOfGroups
	if totalPeople/parameters.SizeOfGroups != parameters.NumberOfGroups {
		return nil, fmt.Errorf("%w: 总人数溢出", ErrInvalidConfiguration)
	}

	s := &Scheduler{
		parameters:  parameters,
		totalPeople: totalPeople,
		maxPeople:   DefaultMaxPeople,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		observer:    noopObserver{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if totalPeople > s.maxPeople || totalPeople*totalPeople/totalPeople != totalPeople {
		return nil, fmt.Errorf("%w: 总人数 %d 超过上限 %d", ErrInvalidConfiguration, totalPeople, s.maxPeople)
	}
	s.weights = NewWeightModel(totalPeople)

	return s, nil
}

// Solve 逐轮求解，返回每一轮选定的分组及得分
// 达到最大代数仍未找到 0 分方案不算错误，直接使用当前最优方案
func (s *Scheduler) Solve() []RoundResult {
	rounds := make([]RoundResult, 0, s.parameters.NumberOfRounds)

	for round := 0; round < s.parameters.NumberOfRounds; round++ {
		s.logger.Info("正在计算轮次", slog.Int("round", round))

		best, generations := s.solveRound(round)
		result := best.toRoundResult()
		rounds = append(rounds, result)

		// 本轮结果确定之后才能更新权重，之后的候选方案都基于新的权重打分
		s.weights.Commit(best.groups)

		s.logger.Info("轮次计算完成", slog.Int("round", round), slog.Int("score", result.RoundScore), slog.Int("generations", generations))
		s.observer.RoundCompleted(round, result, generations)
	}

	return rounds
}

// solveRound 返回本轮的最优方案以及实际迭代的代数
func (s *Scheduler) solveRound(round int) (*Candidate, int) {
	pop := s.randomPopulation(s.parameters.InitialPopulation)
	// 排序之后 pop[0] 即为当前最优方案
	sortByTotalScore(pop)

	generation := 0
	for ; generation < s.parameters.Generations; generation++ {
		if pop[0].totalScore == 0 {
			break
		}

		// selectBest 返回的方案得分全部相同，因此 pop[0] 仍然是最优方案
		pop = s.selectBest(s.mutate(pop))
		s.observer.GenerationCompleted(round, generation, pop[0].totalScore, len(pop))
	}

	return pop[0], generation
}

func (s *Scheduler) Parameters() Parameters {
	return *s.parameters
}

// Weights 返回当前权重矩阵的拷贝
func (s *Scheduler) Weights() [][]int {
	return s.weights.Snapshot()
}

// Commits 返回权重矩阵被更新的次数
func (s *Scheduler) Commits() int {
	return s.weights.Commits()
}
