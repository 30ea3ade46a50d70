package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/John-Robertt/movierec/internal/catalog"
	"github.com/John-Robertt/movierec/internal/config"
	"github.com/John-Robertt/movierec/internal/dataset"
	"github.com/John-Robertt/movierec/internal/domain"
	"github.com/John-Robertt/movierec/internal/export"
	"github.com/John-Robertt/movierec/internal/recommend"
	"github.com/John-Robertt/movierec/internal/source"
)

// GenrePicker 在没有预先指定 genre 时，从目录中选出一个类型（通常是交互式提示）。
type GenrePicker interface {
	Pick(ctx context.Context, genres []string) (string, error)
}

// Execute 执行一次推荐，并返回对外稳定的 Report。
func Execute(ctx context.Context, eff config.EffectiveConfig, reg source.Registry, picker GenrePicker) domain.Report {
	return ExecuteWithObserver(ctx, eff, reg, picker, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出阶段信息（由上层决定是否启用）。
//
// 流程：读表 -> 清洗 -> 类型目录 ->（可选）导出 -> 选类型 -> argmax。
// 加载失败是致命的：不产出部分数据集，直接返回 status=failed。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, reg source.Registry, picker GenrePicker, obs Observer) domain.Report {
	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.Report{
		Input:     eff.Input,
		Format:    eff.Format,
		StartedAt: time.Now().UTC(),
	}

	loadStarted := time.Now()
	records, movies, err := load(ctx, eff, reg)
	if err != nil {
		return fail(rr, errorCode(err), err.Error())
	}
	rr.Summary.Records = records
	rr.Summary.Movies = len(movies)
	if obs != nil {
		obs.OnPhaseDone("load", map[string]any{
			"records": records,
			"movies":  len(movies),
		}, time.Since(loadStarted))
	}

	catalogStarted := time.Now()
	genres := catalog.DistinctGenres(movies)
	rr.Genres = genres
	if obs != nil {
		obs.OnPhaseDone("catalog", map[string]any{
			"genres": len(genres),
		}, time.Since(catalogStarted))
	}

	if eff.Export {
		exportStarted := time.Now()
		if err := export.Write(eff.ExportPath, movies); err != nil {
			return fail(rr, domain.ErrCodeIOFailed, fmt.Sprintf("导出清洗后的数据表失败：%v", err))
		}
		rr.ExportPath = eff.ExportPath
		if obs != nil {
			obs.OnPhaseDone("export", map[string]any{
				"path": eff.ExportPath,
				"rows": len(movies),
			}, time.Since(exportStarted))
		}
	}

	genre := eff.Genre
	if genre == "" {
		if picker == nil {
			return fail(rr, domain.ErrCodeGenreNotChosen, "未指定 genre，且没有可用的交互输入")
		}
		g, err := picker.Pick(ctx, genres)
		if err != nil {
			return fail(rr, domain.ErrCodeGenreNotChosen, err.Error())
		}
		genre = g
	}
	rr.Genre = genre

	recStarted := time.Now()
	rr.Summary.Candidates = recommend.Candidates(movies, genre)
	if m, ok := recommend.Recommend(movies, genre); ok {
		rr.Status = domain.StatusRecommended
		rr.Movie = &m
	} else {
		rr.Status = domain.StatusNotFound
	}
	if obs != nil {
		obs.OnPhaseDone("recommend", map[string]any{
			"genre":      genre,
			"candidates": rr.Summary.Candidates,
		}, time.Since(recStarted))
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

// load 打开输入并解码、清洗；返回原始记录数与清洗后的电影列表。
func load(ctx context.Context, eff config.EffectiveConfig, reg source.Registry) (int, []domain.Movie, error) {
	src, ok := reg.Get(eff.Format)
	if !ok {
		return 0, nil, &config.Error{Code: config.ErrCodeInvalid, Path: eff.Input, Err: fmt.Errorf("不支持的 format：%q（可选：%v）", eff.Format, reg.Names())}
	}

	f, err := os.Open(eff.Input)
	if err != nil {
		return 0, nil, &ioError{Err: err}
	}
	defer f.Close()

	t, err := src.Read(ctx, f)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, err
		}
		return 0, nil, &dataset.FormatError{Err: fmt.Errorf("读取 %s 数据表失败：%w", src.Name(), err)}
	}

	movies, err := dataset.Load(t)
	if err != nil {
		return 0, nil, err
	}
	return len(t.Records), movies, nil
}

type ioError struct{ Err error }

func (e *ioError) Error() string { return fmt.Sprintf("读取输入失败：%v", e.Err) }
func (e *ioError) Unwrap() error { return e.Err }

// errorCode 把内部错误映射为对外稳定的 error_code。
func errorCode(err error) string {
	var ie *ioError
	switch {
	case dataset.IsFormatError(err):
		return domain.ErrCodeDataFormat
	case errors.As(err, &ie):
		return domain.ErrCodeIOFailed
	case config.Code(err) != "":
		return config.Code(err)
	default:
		return domain.ErrCodeIOFailed
	}
}

func fail(rr domain.Report, code, msg string) domain.Report {
	rr.Status = domain.StatusFailed
	rr.ErrorCode = code
	rr.ErrorMsg = msg
	rr.Movie = nil
	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}
