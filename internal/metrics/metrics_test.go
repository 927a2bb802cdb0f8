package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/domain"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/scheduler"
)

func TestCollector_ObservesSolve(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	s, err := scheduler.New(scheduler.DefaultParameters(2, 2, 4), scheduler.WithSeed(5), scheduler.WithObserver(c))
	require.NoError(t, err)
	rounds := s.Solve()

	perfect := 0
	for _, round := range rounds {
		if round.RoundScore == 0 {
			perfect++
		}
	}

	assert.Equal(t, float64(4), testutil.ToFloat64(c.rounds))
	assert.Equal(t, float64(perfect), testutil.ToFloat64(c.perfectRounds))
	assert.Equal(t, 1, testutil.CollectAndCount(c.roundScore))
}

func TestCollector_JobFinished(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.JobFinished(domain.SolveJobSucceeded)
	c.JobFinished(domain.SolveJobSucceeded)
	c.JobFinished(domain.SolveJobFailed)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.jobs.WithLabelValues(string(domain.SolveJobSucceeded))))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.jobs.WithLabelValues(string(domain.SolveJobFailed))))
}

func TestCollector_GenerationCompleted(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.GenerationCompleted(0, 0, 4, 17)
	c.GenerationCompleted(0, 1, 2, 9)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.generations))
	assert.Equal(t, float64(9), testutil.ToFloat64(c.populationSize))
}
