package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/config"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/jobstore"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/queue"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/repository"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/worker"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer rdb.Close()

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	// 求解任务和邮件都需要用到，NewPublisher 会声明两个队列
	publisher, err := queue.NewPublisher(ch, cfg)
	if err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	// 每个 worker 同时最多只拿 Concurrency 个未确认的任务
	if err := ch.Qos(max(1, cfg.Solver.Concurrency), 0, false); err != nil {
		logger.Error("无法设置 QoS", slog.String("error", err.Error()))
		return
	}

	msgs, err := ch.Consume(
		queue.SolveQueue, // 队列
		"",               // 消费者标识，由 RabbitMQ 自动分配
		false,            // 手动确认
		false,            // 不独占队列
		false,            // RabbitMQ 不支持这个参数
		false,            // 等待 RabbitMQ 响应
		nil,
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 启动监控指标服务
	 **********************************************/
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	metricsServer := &http.Server{
		Addr:     fmt.Sprintf(":%s", cfg.Metrics.Port),
		Handler:  promhttp.Handler(),
		ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	go func() {
		logger.Info("正在启动监控指标服务...", "port", cfg.Metrics.Port)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("无法启动监控指标服务", slog.String("error", err.Error()))
		}
	}()

	/**********************************************
	 * 开始处理求解任务
	 **********************************************/
	w := worker.New(
		repository.NewRepository(cfg, dbpool),
		jobstore.New(rdb, cfg),
		publisher,
		collector,
		logger,
		cfg.Solver.Concurrency,
		cfg.Solver.MaxPeople,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("等待求解任务...（按 CTRL+C 退出）", "concurrency", cfg.Solver.Concurrency)
	w.Run(ctx, msgs)

	// 优雅退出，Run 返回时已经等待正在执行的任务完成
	logger.Info("正在关闭 solve worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("关闭监控指标服务失败", slog.String("error", err.Error()))
	}
	logger.Info("solve worker 已成功关闭")
}
