package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/John-Robertt/movierec/internal/source"
)

const (
	// ErrCodeNotFound 表示既没有 CLI/环境变量给出 input，cwd 下也没有 movierec.json。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件/.env 无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingInput 表示只能依赖配置文件，但其中缺少 input 字段。
	ErrCodeMissingInput = "config_missing_input"
)

const (
	// FileName 是 cwd 下的配置文件名。
	FileName = "movierec.json"
	// EnvFileName 是 cwd 下可选的环境变量文件。
	EnvFileName = ".env"
	// DefaultExportPath 是导出表的默认路径（相对 cwd）。
	DefaultExportPath = "output.csv"
)

// 环境变量名（真实进程环境优先于 .env 文件）。
const (
	EnvInput      = "MOVIEREC_INPUT"
	EnvFormat     = "MOVIEREC_FORMAT"
	EnvGenre      = "MOVIEREC_GENRE"
	EnvExport     = "MOVIEREC_EXPORT"
	EnvExportPath = "MOVIEREC_EXPORT_PATH"
)

// CLIArgs 只包含 CLI 暴露的入口，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --export=false 必须能覆盖 config.export=true。
type CLIArgs struct {
	Input string

	Format    string
	FormatSet bool

	Genre    string
	GenreSet bool

	Export    bool
	ExportSet bool
}

// FileConfig 对应 movierec.json 的解析结构。
type FileConfig struct {
	Input      string `json:"input"`
	Format     string `json:"format"`
	Genre      string `json:"genre"`
	Export     *bool  `json:"export"`
	ExportPath string `json:"export_path"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// Input 是数据表的 clean + absolute 路径。
	Input string
	// Format 是 source 名称（csv/html）；未指定时按 Input 扩展名推断。
	Format string
	// Genre 为空表示需要交互式选择。
	Genre string

	Export     bool
	ExportPath string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未指定 input，且未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingInput:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 input", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 读取 cwd 下的 movierec.json 与 .env，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 或环境变量给出 input：movierec.json 可选
// 2) 否则必须存在 <cwd>/movierec.json，且其中必须包含 input
//
// 覆盖优先级（固定）：CLI > 进程环境变量 > .env > movierec.json > 默认值
// - format 默认按 input 扩展名推断（.html/.htm => html，否则 csv）
// - export 默认 false；export_path 默认 <cwd>/output.csv
// - 配置文件中的相对路径以 cwd 为基准
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	envPath := filepath.Join(cwdAbs, EnvFileName)
	env, err := readEnv(envPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: envPath, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	input := strings.TrimSpace(cli.Input)
	if input == "" {
		input = env.get(EnvInput)
	}
	if input == "" {
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		input = strings.TrimSpace(fc.Input)
		if input == "" {
			return EffectiveConfig{}, &Error{Code: ErrCodeMissingInput, Path: cfgPath}
		}
	}

	return merge(cwdAbs, absCleanFrom(cwdAbs, input), cli, env, fc, cfgPath)
}

func merge(cwdAbs, inputAbs string, cli CLIArgs, env envVars, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	// format：CLI > env > config > 扩展名推断
	var format string
	switch {
	case cli.FormatSet:
		format = cli.Format
	case env.get(EnvFormat) != "":
		format = env.get(EnvFormat)
	case strings.TrimSpace(fc.Format) != "":
		format = fc.Format
	default:
		format = source.Detect(inputAbs)
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if err := validateFormat(format); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	// genre：CLI > env > config > 空（交互选择）
	var genre string
	switch {
	case cli.GenreSet:
		genre = cli.Genre
	case env.get(EnvGenre) != "":
		genre = env.get(EnvGenre)
	default:
		genre = fc.Genre
	}
	genre = strings.TrimSpace(genre)

	// export：CLI > env > config > 默认 false
	export := false
	switch {
	case cli.ExportSet:
		export = cli.Export
	case env.get(EnvExport) != "":
		v, err := strconv.ParseBool(env.get(EnvExport))
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("%s 只能是 true 或 false，实际是 %q", EnvExport, env.get(EnvExport))}
		}
		export = v
	case fc.Export != nil:
		export = *fc.Export
	}

	exportPath := env.get(EnvExportPath)
	if exportPath == "" {
		exportPath = strings.TrimSpace(fc.ExportPath)
	}
	if exportPath == "" {
		exportPath = DefaultExportPath
	}
	exportPath = absCleanFrom(cwdAbs, exportPath)
	if export && exportPath == inputAbs {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("export_path 不能与 input 相同：%q", exportPath)}
	}

	return EffectiveConfig{
		Input:      inputAbs,
		Format:     format,
		Genre:      genre,
		Export:     export,
		ExportPath: exportPath,
	}, nil
}

func validateFormat(f string) error {
	switch f {
	case "csv", "html":
		return nil
	case "":
		return fmt.Errorf("format 不能为空")
	default:
		return fmt.Errorf("format 只能是 csv 或 html，实际是 %q", f)
	}
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}

// envVars 是 .env 文件的内容；查找时真实进程环境优先。
type envVars map[string]string

func (e envVars) get(key string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(e[key])
}

// readEnv 读取 .env（不存在不算错误）。只读取不写回进程环境，避免影响同进程内的其它调用方。
func readEnv(path string) (envVars, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return envVars{}, nil
		}
		return nil, err
	}
	m, err := godotenv.Read(path)
	if err != nil {
		return nil, err
	}
	return envVars(m), nil
}
