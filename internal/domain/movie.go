package domain

import "strings"

// TypeMovie 是 type 列中表示电影的取值（比较时忽略大小写）。
const TypeMovie = "MOVIE"

// Movie 是加载阶段清洗后的一条电影记录。
//
// 不变量（加载完成后）：
// - Type 在忽略大小写时等于 MOVIE
// - Genres 中每一项都已去空白、去掉 [ ] ' " 残留，且非空
// - Ordinal 从 1 开始连续编号，只用于展示，不是稳定主键
type Movie struct {
	Ordinal     int    `json:"ordinal"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	ReleaseYear int    `json:"release_year,omitempty"`

	Genres []string `json:"genres"`

	// 分数缺失（空/NaN/null）时为 nil。
	IMDbScore *float64 `json:"imdb_score"`
	TMDBScore *float64 `json:"tmdb_score"`
}

// HasGenre 判断 g 是否出现在 Genres 中（忽略大小写）。
func (m Movie) HasGenre(g string) bool {
	for _, x := range m.Genres {
		if strings.EqualFold(strings.TrimSpace(x), strings.TrimSpace(g)) {
			return true
		}
	}
	return false
}
