package health

import (
	"sync"

	"github.com/rs/zerolog"
)

// State 定义了系统健康状态的枚举类型
type State int

const (
	StateHealthy State = iota
	StateDegraded
	StateRecovering
)

func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateRecovering:
		return "recovering"
	default:
		return "unknown"
	}
}

// statusManager 线程安全地维护健康状态
type statusManager struct {
	mu           sync.RWMutex
	currentState State
	lastError    string
	log          zerolog.Logger
}

func (sm *statusManager) get() (State, string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState, sm.lastError
}

// assess 根据本次检查结果推进状态，返回是否需要执行恢复操作
func (sm *statusManager) assess(connected bool, errMsg string) (needsRecovery bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.lastError = errMsg
	switch sm.currentState {
	case StateHealthy:
		if !connected {
			sm.currentState = StateDegraded
			sm.log.Warn().Str("error", errMsg).Msg("健康检查: 数据库连接丢失，系统状态 -> [降级]")
		}
	case StateDegraded:
		if connected {
			sm.currentState = StateRecovering
			needsRecovery = true
			sm.log.Info().Msg("健康检查: 数据库连接已恢复，系统状态 -> [恢复中]")
		}
	case StateRecovering:
		if !connected {
			sm.currentState = StateDegraded
			sm.log.Warn().Str("error", errMsg).Msg("健康检查: 恢复期间数据库连接再次丢失，系统状态 -> [降级]")
		} else {
			// 上一次恢复操作失败，再试一次
			needsRecovery = true
		}
	}
	return needsRecovery
}

// markRecoveryComplete 在恢复操作结束后调用
func (sm *statusManager) markRecoveryComplete(success bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.currentState != StateRecovering {
		return
	}
	if success {
		sm.currentState = StateHealthy
		sm.log.Info().Msg("健康检查: 恢复操作完成，系统状态 -> [健康]")
	} else {
		sm.log.Error().Msg("健康检查: 恢复操作失败，保持 [恢复中] 以待重试")
	}
}
