package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/domain"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/scheduler"
)

// Collector 记录求解过程的监控指标，同时实现了 scheduler.Observer
type Collector struct {
	generations      prometheus.Counter
	rounds           prometheus.Counter
	perfectRounds    prometheus.Counter
	roundScore       prometheus.Histogram
	roundGenerations prometheus.Histogram
	populationSize   prometheus.Gauge
	jobs             *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "golfer_solver_generations_total",
			Help: "已完成的迭代代数",
		}),
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "golfer_solver_rounds_total",
			Help: "已完成的轮次数",
		}),
		perfectRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "golfer_solver_perfect_rounds_total",
			Help: "得分为 0（没有重复相遇）的轮次数",
		}),
		roundScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "golfer_solver_round_score",
			Help:    "每轮最终方案的得分",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64, 128},
		}),
		roundGenerations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "golfer_solver_round_generations",
			Help:    "每轮实际迭代的代数",
			Buckets: prometheus.LinearBuckets(0, 5, 7),
		}),
		populationSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "golfer_solver_population_size",
			Help: "最近一代保留的候选方案数量",
		}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "golfer_solve_jobs_total",
			Help: "按最终状态统计的求解任务数量",
		}, []string{"status"}),
	}

	reg.MustRegister(c.generations, c.rounds, c.perfectRounds, c.roundScore, c.roundGenerations, c.populationSize, c.jobs)
	return c
}

func (c *Collector) GenerationCompleted(round int, generation int, bestScore int, populationSize int) {
	c.generations.Inc()
	c.populationSize.Set(float64(populationSize))
}

func (c *Collector) RoundCompleted(round int, result scheduler.RoundResult, generations int) {
	c.rounds.Inc()
	if result.RoundScore == 0 {
		c.perfectRounds.Inc()
	}
	c.roundScore.Observe(float64(result.RoundScore))
	c.roundGenerations.Observe(float64(generations))
}

func (c *Collector) JobFinished(status domain.SolveJobStatus) {
	c.jobs.WithLabelValues(string(status)).Inc()
}
