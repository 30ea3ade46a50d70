package csvtable

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/John-Robertt/movierec/internal/source"
)

// Source 把逗号分隔的文本表解码为 source.Table。
//
// 约束：
// - 第一条记录是表头
// - 记录列数允许与表头不一致（短记录由 Table.Field 按空字段处理）
// - 引号不规范时尽量宽松读取（真实数据集的 description 常含未转义引号）
type Source struct {
	// Comma 为 0 时使用 ','。
	Comma rune
}

func (Source) Name() string { return "csv" }

func (s Source) Read(ctx context.Context, r io.Reader) (source.Table, error) {
	if r == nil {
		return source.Table{}, errors.New("reader 不能为空")
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if s.Comma != 0 {
		cr.Comma = s.Comma
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return source.Table{}, errors.New("csv 为空：缺少表头")
		}
		return source.Table{}, fmt.Errorf("读取 csv 表头失败：%w", err)
	}
	// 去掉 UTF-8 BOM，避免首列名匹配失败。
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := source.Table{
		Header:  header,
		Records: make([][]string, 0, 1024),
	}
	for {
		if err := ctx.Err(); err != nil {
			return source.Table{}, err
		}
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return source.Table{}, fmt.Errorf("读取 csv 第 %d 条记录失败：%w", len(t.Records)+1, err)
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}
