package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/scheduler"
)

func main() {
	var groups, size, rounds int
	var generations, population, randomMutations, maxDescendants int
	var seed int64

	flag.IntVar(&groups, "groups", 10, "小组数量")
	flag.IntVar(&size, "size", 5, "每个小组的人数")
	flag.IntVar(&rounds, "rounds", 5, "轮数")
	flag.IntVar(&generations, "generations", scheduler.DefaultGenerations, "每轮最多迭代的代数")
	flag.IntVar(&population, "population", scheduler.DefaultInitialPopulation, "初始种群数量")
	flag.IntVar(&randomMutations, "random-mutations", scheduler.DefaultRandomMutations, "每代额外加入的随机方案数量")
	flag.IntVar(&maxDescendants, "max-descendants", scheduler.DefaultMaxDescendantsToExplore, "每代最多保留的候选方案数量")
	flag.Int64Var(&seed, "seed", 0, "随机种子，为 0 时使用随机种子")
	flag.Parse()

	// 进度输出到 stderr，stdout 只输出结果
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	parameters := scheduler.DefaultParameters(groups, size, rounds)
	parameters.Generations = generations
	parameters.InitialPopulation = population
	parameters.RandomMutations = randomMutations
	parameters.MaxDescendantsToExplore = maxDescendants

	opts := []scheduler.Option{scheduler.WithLogger(logger)}
	if seed != 0 {
		opts = append(opts, scheduler.WithSeed(seed))
	}

	s, err := scheduler.New(parameters, opts...)
	if err != nil {
		logger.Error("参数不合法", slog.String("error", err.Error()))
		os.Exit(1)
	}

	results := s.Solve()

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		logger.Error("无法输出结果", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
