package recommend

import (
	"strings"

	"github.com/John-Robertt/movierec/internal/domain"
)

// candidate 是参与 argmax 的一条记录：idx 指向输入切片，score 缺失时 ok=false。
type candidate struct {
	idx   int
	score float64
	ok    bool
}

// none 是归约的单位元（idx=-1 表示“还没有候选”）。
var none = candidate{idx: -1}

// pick 是 argmax 的二元归约：有分数 > 无分数；分数高者胜；同分取下标小者。
// 满足结合律与交换律，因此分区扫描后按任意顺序合并，结果与线性扫描一致。
func pick(a, b candidate) candidate {
	if a.idx < 0 {
		return b
	}
	if b.idx < 0 {
		return a
	}
	if a.ok != b.ok {
		if a.ok {
			return a
		}
		return b
	}
	if a.ok && a.score != b.score {
		if a.score > b.score {
			return a
		}
		return b
	}
	if a.idx < b.idx {
		return a
	}
	return b
}

// Recommend 返回 genre 下 IMDb 分数最高的电影。
//
// - 候选：Genres 中有一项与 genre 忽略大小写相等
// - 无候选时返回 false（NotFound，不是错误）
// - 同分取输入中先出现者；无分数的候选只在没有任何有分数候选时入选
// - 不修改 movies；相同输入 => 相同输出
func Recommend(movies []domain.Movie, genre string) (domain.Movie, bool) {
	return Partitioned(movies, genre, 1)
}

// Candidates 统计 genre 下的候选数量（用于报告）。
func Candidates(movies []domain.Movie, genre string) int {
	genre = normGenre(genre)
	if genre == "" {
		return 0
	}
	n := 0
	for i := range movies {
		if movies[i].HasGenre(genre) {
			n++
		}
	}
	return n
}

// Partitioned 把 movies 切成 parts 段连续分区，各自求局部最优后再归约。
// Recommend 以 parts=1 调用它；分区扫描可各自交给独立 goroutine，合并顺序不影响结果。
// parts<=1 时退化为线性扫描。
func Partitioned(movies []domain.Movie, genre string, parts int) (domain.Movie, bool) {
	genre = normGenre(genre)
	if parts < 1 {
		parts = 1
	}
	if parts > len(movies) && len(movies) > 0 {
		parts = len(movies)
	}

	size := (len(movies) + parts - 1) / parts
	locals := make([]candidate, 0, parts)
	for lo := 0; lo < len(movies); lo += size {
		hi := lo + size
		if hi > len(movies) {
			hi = len(movies)
		}
		locals = append(locals, scan(movies, genre, lo, hi))
	}

	// 逆序合并：依赖 pick 的交换律/结合律，顺序不影响结果。
	best := none
	for i := len(locals) - 1; i >= 0; i-- {
		best = pick(locals[i], best)
	}
	if best.idx < 0 {
		return domain.Movie{}, false
	}
	return movies[best.idx], true
}

func scan(movies []domain.Movie, genre string, lo, hi int) candidate {
	best := none
	if genre == "" {
		return best
	}
	for i := lo; i < hi; i++ {
		m := &movies[i]
		if !m.HasGenre(genre) {
			continue
		}
		c := candidate{idx: i}
		if m.IMDbScore != nil {
			c.score, c.ok = *m.IMDbScore, true
		}
		best = pick(best, c)
	}
	return best
}

func normGenre(g string) string { return strings.TrimSpace(g) }
