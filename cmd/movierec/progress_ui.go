package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/movierec/internal/app/run"
	"github.com/John-Robertt/movierec/internal/config"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的阶段输出：启动时打印生效配置，每个阶段结束打印一行统计。
// 所有内容写到 stderr，不污染 stdout。
type progressUI struct {
	w io.Writer

	mu        sync.Mutex
	startedAt time.Time
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	fmt.Fprintf(p.w, "[%s] movierec run\n", now.Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  input: %s\n", eff.Input)
	fmt.Fprintf(p.w, "  format: %s\n", eff.Format)
	genre := eff.Genre
	if genre == "" {
		genre = "(交互选择)"
	}
	fmt.Fprintf(p.w, "  genre: %s\n", genre)
	if eff.Export {
		fmt.Fprintf(p.w, "  export: on (%s)\n", truncate(eff.ExportPath, 120))
	} else {
		fmt.Fprintln(p.w, "  export: off")
	}
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "load":
		fmt.Fprintf(p.w, "加载: records=%d movies=%d (%s)\n",
			intField(fields, "records"), intField(fields, "movies"), formatShortDuration(dur),
		)
	case "catalog":
		fmt.Fprintf(p.w, "类型: genres=%d (%s)\n",
			intField(fields, "genres"), formatShortDuration(dur),
		)
	case "export":
		fmt.Fprintf(p.w, "导出: rows=%d path=%s (%s)\n",
			intField(fields, "rows"), truncate(stringField(fields, "path"), 120), formatShortDuration(dur),
		)
	case "recommend":
		fmt.Fprintf(p.w, "推荐: genre=%s candidates=%d (%s)\n",
			stringField(fields, "genre"), intField(fields, "candidates"), formatShortDuration(dur),
		)
	default:
		// 兜底：未知阶段也不要静默（便于调试/演进）。
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	default:
		return 0
	}
}

func stringField(fields map[string]any, key string) string {
	if fields == nil {
		return ""
	}
	s, _ := fields[key].(string)
	return s
}
