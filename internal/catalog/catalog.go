package catalog

import (
	"sort"
	"strings"

	"github.com/John-Robertt/movierec/internal/dataset"
	"github.com/John-Robertt/movierec/internal/domain"
)

// DistinctGenres 汇总所有电影的类型，去重后按字节序排序。
//
// - 每项再清洗一次（去空白、去 [ ] ' " 残留），清洗后为空的丢弃
// - 纯函数：不修改 movies；相同输入 => 相同输出
// - 排序区分大小写（"Drama" 与 "drama" 是两项）
func DistinctGenres(movies []domain.Movie) []string {
	seen := make(map[string]struct{}, 32)
	out := make([]string, 0, 32)
	for i := range movies {
		for _, g := range movies[i].Genres {
			g = dataset.CleanGenre(g)
			if g == "" {
				continue
			}
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	sort.Strings(out)
	return out
}

// Lookup 在 genres 中查找 s（去空白后忽略大小写），返回目录中的原始写法。
// 精确匹配优先，其次按 genres 顺序返回第一个忽略大小写的匹配。
func Lookup(genres []string, s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, g := range genres {
		if g == s {
			return g, true
		}
	}
	for _, g := range genres {
		if strings.EqualFold(g, s) {
			return g, true
		}
	}
	return "", false
}
