package htmltable

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/movierec/internal/source"
)

// Source 从 HTML 文档中读取第一个 <table> 作为数据表。
//
// 约束：
// - 表头优先取 <thead> 或首个含 <th> 的行；都没有时把第一行 <td> 当作表头
// - 单元格文本做空白折叠；不执行任何脚本，也不跟随外链
// - Selector 为空时使用 "table"，可指定例如 "table#titles"
type Source struct {
	Selector string
}

func (Source) Name() string { return "html" }

func (s Source) Read(ctx context.Context, r io.Reader) (source.Table, error) {
	if r == nil {
		return source.Table{}, errors.New("reader 不能为空")
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return source.Table{}, fmt.Errorf("解析 HTML 失败：%w", err)
	}

	sel := strings.TrimSpace(s.Selector)
	if sel == "" {
		sel = "table"
	}
	table := doc.Find(sel).First()
	if table.Length() == 0 {
		return source.Table{}, fmt.Errorf("HTML 中未找到表格：%q", sel)
	}

	var (
		header  []string
		records [][]string
	)
	table.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		if ctx.Err() != nil {
			return false
		}
		// 跳过嵌套表格里的行，只取当前表格自己的行。
		if !tr.Closest("table").IsSelection(table) {
			return true
		}

		ths := tr.ChildrenFiltered("th")
		if header == nil && ths.Length() > 0 {
			header = cellTexts(ths)
			return true
		}
		tds := tr.ChildrenFiltered("td")
		if tds.Length() == 0 {
			return true
		}
		if header == nil {
			header = cellTexts(tds)
			return true
		}
		records = append(records, cellTexts(tds))
		return true
	})
	if err := ctx.Err(); err != nil {
		return source.Table{}, err
	}
	if len(header) == 0 {
		return source.Table{}, errors.New("HTML 表格为空：缺少表头")
	}

	if records == nil {
		records = [][]string{}
	}
	return source.Table{Header: header, Records: records}, nil
}

func cellTexts(cells *goquery.Selection) []string {
	out := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		out = append(out, normSpace(c.Text()))
	})
	return out
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
