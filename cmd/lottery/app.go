package main

import (
	"github.com/SlpAus/daily-lottery-backend/internal/lottery"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/config"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/database"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/logging"
	"github.com/SlpAus/daily-lottery-backend/internal/store"
	"gorm.io/gorm"
)

// app 保存各子命令共用的依赖
type app struct {
	cfg       *config.Config
	db        *gorm.DB
	store     *store.Store
	calendar  *lottery.Calendar
	lotteries *lottery.Manager
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, JSONOutput: cfg.Log.JSON})

	// Validate 已经检查过时区
	loc, _ := cfg.Lottery.Location()

	db, err := database.Open(cfg.Database, cfg.IsProduction())
	if err != nil {
		return nil, err
	}

	s := store.New(db)
	cal := lottery.NewCalendar(nil, loc)
	return &app{
		cfg:      cfg,
		db:       db,
		store:    s,
		calendar: cal,
		lotteries: lottery.NewManager(s,
			lottery.WithCalendar(cal),
			lottery.WithAmountRange(cfg.Lottery.WinningAmountMin, cfg.Lottery.WinningAmountMax),
		),
	}, nil
}

func (a *app) close() {
	if err := database.Close(a.db); err != nil {
		logging.Logger.Error().Err(err).Msg("关闭数据库失败")
	}
}
