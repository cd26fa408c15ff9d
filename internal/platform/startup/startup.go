package startup

import (
	"context"
	"fmt"

	"github.com/SlpAus/daily-lottery-backend/internal/platform/logging"
	"github.com/SlpAus/daily-lottery-backend/internal/store"
	"gorm.io/gorm"
)

// Reconciler 修复抽奖的遗留状态
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// InitializeApplication 是应用启动时执行的总入口：迁移数据表，然后修复遗留的抽奖状态
func InitializeApplication(ctx context.Context, db *gorm.DB, r Reconciler) error {
	log := logging.WithComponent("startup")
	log.Info().Msg("开始应用初始化")

	if err := store.Migrate(ctx, db); err != nil {
		return err
	}
	log.Info().Msg("数据表迁移成功")

	n, err := r.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("启动修复失败: %w", err)
	}
	if n > 0 {
		log.Warn().Int("repaired", n).Msg("启动修复关闭了遗留的抽奖")
	}

	log.Info().Msg("应用初始化完成")
	return nil
}
