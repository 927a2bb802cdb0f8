package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/config"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/domain"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/repository"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/seed"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var tournamentID int64
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机组织者, 2: 插入随机赛事及参赛名单, 3: 从 CSV 导入参赛名单)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.Int64Var(&tournamentID, "tournament-id", 0, "导入参赛名单的赛事 ID")
	flag.StringVar(&file, "file", "", "参赛名单 CSV 文件路径")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
			if err != nil {
				slog.Error("无法生成随机用户", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CreateUser(user); err != nil {
				slog.Error("无法插入用户", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入用户成功", slog.Int("count", cnt))
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的赛事数量")
			return
		}

		// 随机选择一个组织者作为赛事的创建者
		users, err := repo.GetAllUsers()
		if err != nil {
			slog.Error("无法获取用户列表", slog.String("error", err.Error()))
			return
		}
		organizers := make([]*domain.User, 0, len(users))
		for _, user := range users {
			if user.Role == domain.RoleOrganizer {
				organizers = append(organizers, user)
			}
		}
		if len(organizers) == 0 {
			slog.Error("没有可用的组织者，请先执行操作 1")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			organizer := organizers[rand.Intn(len(organizers))]

			t := utils.GenerateRandomTournament(organizer.ID)
			if err := repo.CreateTournament(t); err != nil {
				slog.Error("无法插入赛事", slog.String("error", err.Error()))
				continue
			}

			if err := repo.ReplacePlayers(t.ID, utils.GenerateRandomRoster(t)); err != nil {
				slog.Error("无法插入参赛名单", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入赛事成功", slog.Int("count", cnt))
	case 3:
		if tournamentID <= 0 || file == "" {
			slog.Error("请指定赛事 ID 和参赛名单文件")
			return
		}

		if err := seed.ImportRoster(repo, tournamentID, file); err != nil {
			slog.Error("导入参赛名单失败", slog.String("error", err.Error()))
		}
	default:
		slog.Error("指定的操作非法")
	}
}
