package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	StatusRecommended = "recommended"
	StatusNotFound    = "not_found"
	StatusFailed      = "failed"
)

const (
	ErrCodeDataFormat         = "data_format"
	ErrCodeIOFailed           = "io_failed"
	ErrCodeGenreNotChosen     = "genre_not_chosen"
	ErrCodeConfigNotFound     = "config_not_found"
	ErrCodeConfigInvalid      = "config_invalid"
	ErrCodeConfigMissingInput = "config_missing_input"
)

// Report 是对外稳定输出（stdout JSON）的结构。
type Report struct {
	Input  string `json:"input"`
	Format string `json:"format"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`

	// Genres 是数据集中全部类型（已去重排序）。
	Genres []string `json:"genres"`
	Genre  string   `json:"genre"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	// Movie 仅在 status=recommended 时非空。
	Movie *Movie `json:"movie"`

	// ExportPath 为空表示本次未导出清洗后的数据表。
	ExportPath string `json:"export_path"`
}

type ReportSummary struct {
	Records    int `json:"records"`
	Movies     int `json:"movies"`
	Genres     int `json:"genres"`
	Candidates int `json:"candidates"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) genres 去重并排序，nil 规范为空切片（JSON 输出 [] 而不是 null）
// 3) summary.genres 由 genres 计算得出
func (r *Report) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	gs := make([]string, 0, len(r.Genres))
	seen := make(map[string]struct{}, len(r.Genres))
	for _, g := range r.Genres {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		gs = append(gs, g)
	}
	sort.Strings(gs)
	r.Genres = gs
	r.Summary.Genres = len(gs)
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
func (r Report) MarshalJSON() ([]byte, error) {
	type Alias Report
	return json.Marshal(Alias(r))
}
