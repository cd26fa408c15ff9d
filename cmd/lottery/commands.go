package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/SlpAus/daily-lottery-backend/api"
	"github.com/SlpAus/daily-lottery-backend/internal/ballot"
	"github.com/SlpAus/daily-lottery-backend/internal/lottery"
	"github.com/SlpAus/daily-lottery-backend/internal/participant"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/apperr"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/database"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/health"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/logging"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/ratelimit"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/scheduler"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/shutdown"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/startup"
	"github.com/SlpAus/daily-lottery-backend/internal/store"
	"github.com/SlpAus/daily-lottery-backend/internal/winner"
	"github.com/SlpAus/daily-lottery-backend/pkg/lifecycle"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP服务与后台任务",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), a)
	},
}

var drawCmd = &cobra.Command{
	Use:   "draw",
	Short: "关闭指定日期的抽奖并开奖",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		date, _ := cmd.Flags().GetString("date")
		if date == "" {
			date = a.calendar.Yesterday()
		}

		w, err := a.lotteries.CloseAndDraw(cmd.Context(), date)
		if apperr.Is(err, apperr.KindNoBallotsFound) {
			fmt.Printf("抽奖 %s 没有选票，已关闭且没有中奖者\n", date)
			return nil
		}
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(w)
	},
}

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "关闭已有中奖票但仍处于开放状态的抽奖",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		n, err := a.lotteries.Reconcile(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("已修复 %d 场抽奖\n", n)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "创建或更新数据表",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := store.Migrate(cmd.Context(), a.db); err != nil {
			return err
		}
		fmt.Println("数据表迁移完成")
		return nil
	},
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	log := logging.WithComponent("main")

	if err := startup.InitializeApplication(ctx, a.db, a.lotteries); err != nil {
		a.close()
		return fmt.Errorf("应用初始化失败，无法启动: %w", err)
	}

	gracefulMgr := lifecycle.NewManager("graceful", logging.WithComponent("lifecycle"))
	forcefulMgr := lifecycle.NewManager("forceful", logging.WithComponent("lifecycle"))

	// 启动后先同步执行一次健康检查，再交给后台周期执行
	checker := health.NewChecker(
		func(ctx context.Context) error { return database.Ping(ctx, a.db) },
		func(ctx context.Context) error {
			_, err := a.lotteries.Reconcile(ctx)
			return err
		},
		cfg.Scheduler.HealthPeriod,
	)
	checker.PerformCheck(ctx)
	if err := gracefulMgr.Go("health", checker.Run); err != nil {
		return err
	}

	limiter := ratelimit.NewIPLimiter(cfg.Server.RateLimit.RequestsPerSecond, cfg.Server.RateLimit.Burst)
	if limiter != nil {
		if err := gracefulMgr.Go("ratelimit-cleanup", limiter.RunCleanup); err != nil {
			return err
		}
	}

	if cfg.Scheduler.Enabled {
		loc, _ := cfg.Lottery.Location()
		sched, err := scheduler.New(a.lotteries, loc, cfg.Scheduler.DrawSpec, cfg.Scheduler.ReconcileSpec)
		if err != nil {
			return err
		}
		gh, err := gracefulMgr.NewServiceHandle("scheduler")
		if err != nil {
			return err
		}
		fh, err := forcefulMgr.NewServiceHandle("scheduler")
		if err != nil {
			return err
		}
		go sched.Run(gh, fh)
	}

	router := api.NewRouter(cfg.Server, api.Handlers{
		Participants: participant.NewHandler(participant.NewRegistry(a.store)),
		Ballots: ballot.NewHandler(ballot.NewIssuer(a.store, a.calendar,
			ballot.WithNumberLength(cfg.Lottery.BallotNumberLength))),
		Lotteries: lottery.NewHandler(a.lotteries),
		Winners:   winner.NewHandler(winner.NewService(a.store)),
		Health:    checker.Handler(),
	}, limiter)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.Server.Address).Str("version", Version).Msg("服务器已准备就绪，开始监听")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	coordinator := shutdown.NewCoordinator(gracefulMgr, forcefulMgr, cfg.Server.ShutdownTimeout)
	coordinator.OnFinalize("database", func() error { return database.Close(a.db) })
	coordinator.ListenForSignalsAndShutdown(server, serverErr)
	return nil
}
