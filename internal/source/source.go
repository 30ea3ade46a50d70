package source

import (
	"context"
	"io"
	"path/filepath"
	"strings"
)

// Source 把“输入格式差异”限制在 source 包内部；加载流程只依赖统一的 Table。
//
// 约束：
// - Read 只做解码，不做过滤/清洗（这些由 dataset 统一实现）
// - Read 必须是纯函数：相同输入 => 相同输出
type Source interface {
	Name() string
	Read(ctx context.Context, r io.Reader) (Table, error)
}

// Table 是一份按列名访问的原始表格（所有字段都是未清洗的字符串）。
type Table struct {
	Header  []string
	Records [][]string
}

// Index 返回列名对应的下标（列名去空白后忽略大小写比较）；不存在时返回 -1。
func (t Table) Index(col string) int {
	col = strings.TrimSpace(col)
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), col) {
			return i
		}
	}
	return -1
}

// Field 读取第 row 条记录的第 idx 列；越界时返回空串（短记录按空字段处理）。
func (t Table) Field(row, idx int) string {
	if row < 0 || row >= len(t.Records) || idx < 0 {
		return ""
	}
	rec := t.Records[row]
	if idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

// Detect 按文件扩展名推断格式名：.html/.htm 为 html，其余一律按 csv 处理。
func Detect(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return "html"
	default:
		return "csv"
	}
}
