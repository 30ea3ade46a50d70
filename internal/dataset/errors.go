package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// FormatError 表示输入数据不符合加载契约（缺列、genres 字面量非法、分数无法解析）。
// 加载阶段遇到它必须整体失败，不产出部分数据集。
type FormatError struct {
	// Row 是数据记录的序号（从 1 开始，不含表头）；0 表示与具体记录无关（例如缺列）。
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString("数据格式错误")
	if e.Row > 0 {
		fmt.Fprintf(&b, "：第 %d 条记录", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " 列 %s", e.Column)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " 值 %q", truncate(e.Value, 80))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, "：%v", e.Err)
	}
	return b.String()
}

func (e *FormatError) Unwrap() error { return e.Err }

// IsFormatError 判断 err 链上是否有 *FormatError。
func IsFormatError(err error) bool {
	var e *FormatError
	return errors.As(err, &e)
}

// MissingColumnsError 列出全部缺失的必需列（已按必需列顺序排列）。
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "缺少必需列：" + strings.Join(e.Columns, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
