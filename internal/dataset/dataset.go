package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/John-Robertt/movierec/internal/domain"
	"github.com/John-Robertt/movierec/internal/source"
)

const (
	ColType        = "type"
	ColTitle       = "title"
	ColGenres      = "genres"
	ColIMDbScore   = "imdb_score"
	ColTMDBScore   = "tmdb_score"
	ColDescription = "description"
	// ColReleaseYear 是可选列：存在就读取，缺失不报错。
	ColReleaseYear = "release_year"
)

// RequiredColumns 是加载契约要求必须存在的列（顺序即错误提示顺序）。
var RequiredColumns = []string{ColType, ColTitle, ColGenres, ColIMDbScore, ColTMDBScore, ColDescription}

type columns struct {
	typ, title, genres, imdb, tmdb, desc, year int
}

// Load 把原始表格清洗为电影列表。
//
// 规则：
// - 只保留 type（去空白、转大写后）等于 MOVIE 的记录
// - id/runtime/production_countries 等其余列一律不建模
// - genres 由 ParseGenres 解析；分数为空/NaN/null 时记为缺失
// - Ordinal 按保留顺序从 1 开始重新编号
//
// 任何一条保留记录格式非法，整体返回 *FormatError，不产出部分结果。
func Load(t source.Table) ([]domain.Movie, error) {
	cols, err := resolveColumns(t)
	if err != nil {
		return nil, err
	}

	movies := make([]domain.Movie, 0, len(t.Records)/2+1)
	for i := range t.Records {
		typ := strings.TrimSpace(t.Field(i, cols.typ))
		if strings.ToUpper(typ) != domain.TypeMovie {
			continue
		}

		m, err := parseRow(t, i, cols)
		if err != nil {
			return nil, err
		}
		m.Type = typ
		m.Ordinal = len(movies) + 1
		movies = append(movies, m)
	}
	return movies, nil
}

func resolveColumns(t source.Table) (columns, error) {
	var missing []string
	idx := func(col string) int {
		i := t.Index(col)
		if i < 0 {
			missing = append(missing, col)
		}
		return i
	}

	cols := columns{
		typ:    idx(ColType),
		title:  idx(ColTitle),
		genres: idx(ColGenres),
		imdb:   idx(ColIMDbScore),
		tmdb:   idx(ColTMDBScore),
		desc:   idx(ColDescription),
		year:   t.Index(ColReleaseYear),
	}
	if len(missing) > 0 {
		return columns{}, &FormatError{Err: &MissingColumnsError{Columns: missing}}
	}
	return cols, nil
}

func parseRow(t source.Table, i int, cols columns) (domain.Movie, error) {
	rowNo := i + 1

	rawGenres := t.Field(i, cols.genres)
	genres, err := ParseGenres(rawGenres)
	if err != nil {
		return domain.Movie{}, &FormatError{Row: rowNo, Column: ColGenres, Value: rawGenres, Err: err}
	}

	imdb, err := parseScore(t.Field(i, cols.imdb))
	if err != nil {
		return domain.Movie{}, &FormatError{Row: rowNo, Column: ColIMDbScore, Value: t.Field(i, cols.imdb), Err: err}
	}
	tmdb, err := parseScore(t.Field(i, cols.tmdb))
	if err != nil {
		return domain.Movie{}, &FormatError{Row: rowNo, Column: ColTMDBScore, Value: t.Field(i, cols.tmdb), Err: err}
	}

	year := 0
	if cols.year >= 0 {
		if raw := strings.TrimSpace(t.Field(i, cols.year)); raw != "" {
			// release_year 只用于展示：非整数时按缺失处理，不让整个加载失败。
			if y, e := strconv.Atoi(raw); e == nil {
				year = y
			}
		}
	}

	return domain.Movie{
		Title:       strings.TrimSpace(t.Field(i, cols.title)),
		Description: strings.TrimSpace(t.Field(i, cols.desc)),
		ReleaseYear: year,
		Genres:      genres,
		IMDbScore:   imdb,
		TMDBScore:   tmdb,
	}, nil
}

// parseScore 把分数字段解析为 *float64；缺失值（空/nan/null/none）返回 nil。
func parseScore(raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "nan", "null", "none", "na", "n/a":
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("分数不是合法数字")
	}
	if math.IsNaN(v) {
		return nil, nil
	}
	return &v, nil
}
