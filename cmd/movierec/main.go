package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/John-Robertt/movierec/internal/app/run"
	"github.com/John-Robertt/movierec/internal/config"
	"github.com/John-Robertt/movierec/internal/dataset"
	"github.com/John-Robertt/movierec/internal/domain"
	"github.com/John-Robertt/movierec/internal/prompt"
	"github.com/John-Robertt/movierec/internal/source"
	"github.com/John-Robertt/movierec/internal/source/csvtable"
	"github.com/John-Robertt/movierec/internal/source/htmltable"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "run":
		if code := runCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func runCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printRunUsage()
			return 0
		}
	}

	ra, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printRunUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Input:     ra.Input,
		Format:    ra.Format,
		FormatSet: ra.FormatSet,
		Genre:     ra.Genre,
		GenreSet:  ra.GenreSet,
		Export:    ra.Export,
		ExportSet: ra.ExportSet,
	})
	if err != nil {
		rr := reportForConfigError(cwd, ra, err)
		emitReport(rr)
		return exitCode(rr)
	}

	reg, e := source.NewRegistry(csvtable.Source{}, htmltable.Source{})
	if e != nil {
		fmt.Fprintf(os.Stderr, "初始化 source registry 失败：%v\n", e)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// 提示与类型列表不能写进 stdout 的 JSON：stdout 非 TTY 时改走 stderr。
	promptOut := io.Writer(os.Stdout)
	if !isTTY(os.Stdout) {
		promptOut = os.Stderr
	}
	picker := prompt.New(os.Stdin, promptOut)

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	rr := run.ExecuteWithObserver(ctx, eff, reg, picker, obs)
	emitReport(rr)
	return exitCode(rr)
}

type runArgs struct {
	Input string

	Format    string
	FormatSet bool

	Genre    string
	GenreSet bool

	Export    bool
	ExportSet bool
}

func parseRunArgs(args []string) (runArgs, error) {
	ra := runArgs{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--genre" || a == "--format":
			if i+1 >= len(args) {
				return runArgs{}, fmt.Errorf("%s 需要一个值", a)
			}
			i++
			if a == "--genre" {
				ra.Genre, ra.GenreSet = args[i], true
			} else {
				ra.Format, ra.FormatSet = args[i], true
			}
		case strings.HasPrefix(a, "--genre="):
			ra.Genre = strings.TrimPrefix(a, "--genre=")
			ra.GenreSet = true
		case strings.HasPrefix(a, "--format="):
			ra.Format = strings.TrimPrefix(a, "--format=")
			ra.FormatSet = true
		case a == "--export":
			ra.Export = true
			ra.ExportSet = true
		case strings.HasPrefix(a, "--export="):
			v := strings.TrimPrefix(a, "--export=")
			switch v {
			case "true":
				ra.Export = true
			case "false":
				ra.Export = false
			default:
				return runArgs{}, fmt.Errorf("--export 只能是 true 或 false，实际是 %q", v)
			}
			ra.ExportSet = true
		case strings.HasPrefix(a, "-"):
			return runArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if ra.Input != "" {
				return runArgs{}, fmt.Errorf("重复的 input：%q 与 %q", ra.Input, a)
			}
			ra.Input = a
		}
	}

	if ra.GenreSet && strings.TrimSpace(ra.Genre) == "" {
		return runArgs{}, fmt.Errorf("--genre 不能为空")
	}
	if ra.FormatSet {
		switch strings.ToLower(strings.TrimSpace(ra.Format)) {
		case "csv", "html":
			// ok
		case "":
			return runArgs{}, fmt.Errorf("--format 不能为空")
		default:
			return runArgs{}, fmt.Errorf("--format 只能是 csv 或 html，实际是 %q", ra.Format)
		}
	}

	return ra, nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  movierec run [input] [--genre G] [--format csv|html] [--export[=true|false]]

命令：
  run    加载数据表，按类型推荐 IMDb 评分最高的电影

使用 "movierec run --help" 查看详细说明。
`)
}

func printRunUsage() {
	fmt.Fprint(os.Stdout, `用法：
  movierec run [input] [--genre G] [--format csv|html] [--export[=true|false]]

参数：
  input       数据表路径（未指定则读 MOVIEREC_INPUT 或 movierec.json 的 input）
  --genre     直接指定类型（忽略大小写）；未指定时交互式选择
  --format    输入格式：csv|html（默认按扩展名推断）
  --export    把清洗后的电影表写入 export_path（默认 output.csv）
  -h, --help  显示帮助
`)
}

func exitCode(rr domain.Report) int {
	if rr.Status == domain.StatusFailed {
		return 1
	}
	return 0
}

func emitReport(rr domain.Report) {
	if isTTY(os.Stdout) {
		writeHuman(os.Stdout, os.Stderr, rr)
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 Report JSON（提示/摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	writeSummary(os.Stderr, rr)
}

// writeHuman 输出给人看的结果；失败信息写到 errW。
func writeHuman(w, errW io.Writer, rr domain.Report) {
	switch rr.Status {
	case domain.StatusRecommended:
		m := rr.Movie
		fmt.Fprintf(w, "\n类型 %q 下 IMDb 评分最高的电影：\n", rr.Genre)
		fmt.Fprintf(w, "  Title: %s\n", m.Title)
		fmt.Fprintf(w, "  Genres: %s\n", dataset.FormatGenres(m.Genres))
		fmt.Fprintf(w, "  IMDb Score: %s\n", formatScore(m.IMDbScore))
		fmt.Fprintf(w, "  TMDB Score: %s\n", formatScore(m.TMDBScore))
		fmt.Fprintf(w, "  Description: %s\n", m.Description)
	case domain.StatusNotFound:
		fmt.Fprintf(w, "\n抱歉，类型 %q 下没有找到电影。\n", rr.Genre)
	default:
		fmt.Fprintf(errW, "%s: %s\n", rr.ErrorCode, rr.ErrorMsg)
	}
	if rr.ExportPath != "" {
		fmt.Fprintf(errW, "export: %s\n", rr.ExportPath)
	}
}

func writeSummary(w io.Writer, rr domain.Report) {
	fmt.Fprintf(w, "完成：status=%s movies=%d genres=%d candidates=%d\n",
		rr.Status, rr.Summary.Movies, rr.Summary.Genres, rr.Summary.Candidates,
	)
	if rr.Status == domain.StatusFailed {
		fmt.Fprintf(w, "%s: %s\n", rr.ErrorCode, rr.ErrorMsg)
	}
}

func formatScore(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func reportForConfigError(cwd string, ra runArgs, err error) domain.Report {
	now := time.Now().UTC()
	input := strings.TrimSpace(ra.Input)
	if input != "" && !filepath.IsAbs(input) {
		input = filepath.Join(cwd, input)
	}
	rr := domain.Report{
		Input:      input,
		Format:     ra.Format,
		StartedAt:  now,
		FinishedAt: now,
		Genre:      ra.Genre,
		Status:     domain.StatusFailed,
		ErrorCode:  config.Code(err),
		ErrorMsg:   err.Error(),
	}
	rr.Finalize()
	return rr
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 阶段输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	return nil, false
}
