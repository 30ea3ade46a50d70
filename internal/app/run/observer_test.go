package run

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/John-Robertt/movierec/internal/config"
	"github.com/John-Robertt/movierec/internal/domain"
	"github.com/John-Robertt/movierec/internal/source"
	"github.com/John-Robertt/movierec/internal/source/csvtable"
	"github.com/John-Robertt/movierec/internal/source/htmltable"
)

type recordObserver struct {
	mu sync.Mutex

	startCalls int
	phases     []string
}

func (o *recordObserver) OnStart(eff config.EffectiveConfig) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.startCalls++
}

func (o *recordObserver) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phases = append(o.phases, name)
}

type stubPicker struct {
	genre string
	err   error

	calls int
	got   []string
}

func (p *stubPicker) Pick(ctx context.Context, genres []string) (string, error) {
	p.calls++
	p.got = append([]string(nil), genres...)
	return p.genre, p.err
}

const titlesCSV = `id,title,type,description,release_year,genres,imdb_score,tmdb_score
tm1,A,MOVIE,first,1999,"['Drama']",7.2,7.0
tm2,B,MOVIE,second,2001,"['drama', 'Action']",8.1,8.0
ts3,S,SHOW,show,2002,"['drama']",9.9,9.9
tm4,C,MOVIE,third,2003,"['Comedy']",9.0,
`

func registry(t *testing.T) source.Registry {
	t.Helper()
	reg, err := source.NewRegistry(csvtable.Source{}, htmltable.Source{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	return reg
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入输入失败：%v", err)
	}
	return path
}

func TestExecuteWithObserver_EmitsPhaseEvents(t *testing.T) {
	in := writeInput(t, "titles.csv", titlesCSV)
	exportPath := filepath.Join(t.TempDir(), "output.csv")

	obs := &recordObserver{}
	rr := ExecuteWithObserver(context.Background(), config.EffectiveConfig{
		Input:      in,
		Format:     "csv",
		Genre:      "drama",
		Export:     true,
		ExportPath: exportPath,
	}, registry(t), nil, obs)

	if rr.Status != domain.StatusRecommended {
		t.Fatalf("期望 recommended，实际 %+v", rr)
	}
	if obs.startCalls != 1 {
		t.Fatalf("期望 OnStart 调用 1 次，实际 %d", obs.startCalls)
	}
	wantPhases := []string{"load", "catalog", "export", "recommend"}
	if !reflect.DeepEqual(obs.phases, wantPhases) {
		t.Fatalf("阶段事件不符合预期：got=%v want=%v", obs.phases, wantPhases)
	}
	if _, err := os.Stat(exportPath); err != nil {
		t.Fatalf("期望写出导出文件：%v", err)
	}
	if rr.ExportPath != exportPath {
		t.Fatalf("report.export_path 不符合预期：%q", rr.ExportPath)
	}
}

func TestExecute_RecommendsHighestScore(t *testing.T) {
	in := writeInput(t, "titles.csv", titlesCSV)

	rr := Execute(context.Background(), config.EffectiveConfig{Input: in, Format: "csv", Genre: "Drama"}, registry(t), nil)
	if rr.Status != domain.StatusRecommended || rr.Movie == nil {
		t.Fatalf("期望 recommended，实际 %+v", rr)
	}
	// 剧集 S 分数更高但已被过滤。
	if rr.Movie.Title != "B" {
		t.Fatalf("期望 B，实际 %q", rr.Movie.Title)
	}
	if rr.Summary.Records != 4 || rr.Summary.Movies != 3 || rr.Summary.Candidates != 2 {
		t.Fatalf("summary 不符合预期：%+v", rr.Summary)
	}
	wantGenres := []string{"Action", "Comedy", "Drama", "drama"}
	if !reflect.DeepEqual(rr.Genres, wantGenres) {
		t.Fatalf("genres 不符合预期：%v", rr.Genres)
	}
	if rr.ExportPath != "" {
		t.Fatalf("未开启 export 时不应有 export_path：%q", rr.ExportPath)
	}
}

func TestExecute_NotFoundIsNotFailure(t *testing.T) {
	in := writeInput(t, "titles.csv", titlesCSV)

	rr := Execute(context.Background(), config.EffectiveConfig{Input: in, Format: "csv", Genre: "Horror"}, registry(t), nil)
	if rr.Status != domain.StatusNotFound {
		t.Fatalf("期望 not_found，实际 %q", rr.Status)
	}
	if rr.ErrorCode != "" || rr.Movie != nil {
		t.Fatalf("not_found 不应带错误或电影：%+v", rr)
	}
}

func TestExecute_PickerUsedWhenGenreEmpty(t *testing.T) {
	in := writeInput(t, "titles.csv", titlesCSV)
	p := &stubPicker{genre: "Comedy"}

	rr := Execute(context.Background(), config.EffectiveConfig{Input: in, Format: "csv"}, registry(t), p)
	if p.calls != 1 {
		t.Fatalf("期望调用 picker 1 次，实际 %d", p.calls)
	}
	if !reflect.DeepEqual(p.got, rr.Genres) {
		t.Fatalf("picker 收到的类型应与目录一致：%v vs %v", p.got, rr.Genres)
	}
	if rr.Genre != "Comedy" || rr.Movie == nil || rr.Movie.Title != "C" {
		t.Fatalf("期望推荐 C，实际 %+v", rr)
	}
	if rr.Movie.TMDBScore != nil {
		t.Fatalf("缺失的 tmdb_score 应为 nil")
	}
}

func TestExecute_PickerAborted(t *testing.T) {
	in := writeInput(t, "titles.csv", titlesCSV)

	rr := Execute(context.Background(), config.EffectiveConfig{Input: in, Format: "csv"}, registry(t), &stubPicker{err: errors.New("eof")})
	if rr.Status != domain.StatusFailed || rr.ErrorCode != domain.ErrCodeGenreNotChosen {
		t.Fatalf("期望 genre_not_chosen，实际 %+v", rr)
	}

	rr = Execute(context.Background(), config.EffectiveConfig{Input: in, Format: "csv"}, registry(t), nil)
	if rr.ErrorCode != domain.ErrCodeGenreNotChosen {
		t.Fatalf("无 picker 时期望 genre_not_chosen，实际 %+v", rr)
	}
}

func TestExecute_LoadFailures(t *testing.T) {
	missingCols := writeInput(t, "titles.csv", "title,type\nA,MOVIE\n")
	badGenres := writeInput(t, "titles.csv", "title,type,genres,imdb_score,tmdb_score,description\nA,MOVIE,['drama',7,7,x\n")

	cases := []struct {
		name string
		eff  config.EffectiveConfig
		code string
	}{
		{"missing columns", config.EffectiveConfig{Input: missingCols, Format: "csv", Genre: "drama"}, domain.ErrCodeDataFormat},
		{"bad genres", config.EffectiveConfig{Input: badGenres, Format: "csv", Genre: "drama"}, domain.ErrCodeDataFormat},
		{"no such file", config.EffectiveConfig{Input: filepath.Join(t.TempDir(), "nope.csv"), Format: "csv", Genre: "drama"}, domain.ErrCodeIOFailed},
		{"unknown format", config.EffectiveConfig{Input: missingCols, Format: "xlsx", Genre: "drama"}, domain.ErrCodeConfigInvalid},
		{"html without table", config.EffectiveConfig{Input: missingCols, Format: "html", Genre: "drama"}, domain.ErrCodeDataFormat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := Execute(context.Background(), tc.eff, registry(t), nil)
			if rr.Status != domain.StatusFailed || rr.ErrorCode != tc.code {
				t.Fatalf("期望 failed/%s，实际 %s/%s：%s", tc.code, rr.Status, rr.ErrorCode, rr.ErrorMsg)
			}
			if rr.Summary.Movies != 0 || rr.Movie != nil {
				t.Fatalf("加载失败不应产出部分数据：%+v", rr)
			}
		})
	}
}

func TestExecute_CSVAndHTMLAgree(t *testing.T) {
	csvIn := writeInput(t, "titles.csv", titlesCSV)
	htmlIn := writeInput(t, "titles.html", `<table>
<tr><th>id</th><th>title</th><th>type</th><th>description</th><th>release_year</th><th>genres</th><th>imdb_score</th><th>tmdb_score</th></tr>
<tr><td>tm1</td><td>A</td><td>MOVIE</td><td>first</td><td>1999</td><td>['Drama']</td><td>7.2</td><td>7.0</td></tr>
<tr><td>tm2</td><td>B</td><td>MOVIE</td><td>second</td><td>2001</td><td>['drama', 'Action']</td><td>8.1</td><td>8.0</td></tr>
<tr><td>ts3</td><td>S</td><td>SHOW</td><td>show</td><td>2002</td><td>['drama']</td><td>9.9</td><td>9.9</td></tr>
<tr><td>tm4</td><td>C</td><td>MOVIE</td><td>third</td><td>2003</td><td>['Comedy']</td><td>9.0</td><td></td></tr>
</table>`)

	a := Execute(context.Background(), config.EffectiveConfig{Input: csvIn, Format: "csv", Genre: "action"}, registry(t), nil)
	b := Execute(context.Background(), config.EffectiveConfig{Input: htmlIn, Format: "html", Genre: "action"}, registry(t), nil)

	if a.Status != domain.StatusRecommended || b.Status != domain.StatusRecommended {
		t.Fatalf("两种格式都应推荐成功：%s / %s (%s)", a.Status, b.Status, b.ErrorMsg)
	}
	if !reflect.DeepEqual(a.Movie, b.Movie) || !reflect.DeepEqual(a.Genres, b.Genres) {
		t.Fatalf("csv 与 html 结果不一致：\ncsv=%+v\nhtml=%+v", a.Movie, b.Movie)
	}
}
