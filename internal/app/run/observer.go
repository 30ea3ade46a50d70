package run

import (
	"time"

	"github.com/John-Robertt/movierec/internal/config"
)

// Observer 用于把“运行阶段/耗时”从核心执行流程中解耦出来。
//
// 约束：run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
type Observer interface {
	// OnStart 在 ExecuteWithObserver 开始时调用。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在阶段结束时调用：load / catalog / export / recommend。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
}
