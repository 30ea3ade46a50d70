package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/John-Robertt/movierec/internal/dataset"
	"github.com/John-Robertt/movierec/internal/domain"
	"github.com/John-Robertt/movierec/internal/infra/fsx"
)

// DefaultName 是导出文件的默认文件名（相对 cwd）。
const DefaultName = "output.csv"

// Header 是导出表的列顺序；列名与输入一致，导出结果可以再次被 dataset.Load 读取。
var Header = []string{
	dataset.ColTitle,
	dataset.ColType,
	dataset.ColDescription,
	dataset.ColReleaseYear,
	dataset.ColGenres,
	dataset.ColIMDbScore,
	dataset.ColTMDBScore,
}

// Encode 把清洗后的电影表编码为 CSV（genres 写回列表字面量，缺失分数写空）。
func Encode(movies []domain.Movie) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return nil, err
	}
	for i := range movies {
		m := &movies[i]
		year := ""
		if m.ReleaseYear != 0 {
			year = strconv.Itoa(m.ReleaseYear)
		}
		rec := []string{
			m.Title,
			m.Type,
			m.Description,
			year,
			dataset.FormatGenres(m.Genres),
			formatScore(m.IMDbScore),
			formatScore(m.TMDBScore),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write 把清洗后的电影表原子写入 path（已存在则覆盖）。
func Write(path string, movies []domain.Movie) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("导出路径不能为空")
	}
	b, err := Encode(movies)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(filepath.Clean(path), b)
}

func formatScore(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
