package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEffective_ConfigNotFound(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_ConfigMissingInput(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"genre":"drama"}`))

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeMissingInput {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeMissingInput, err, Code(err))
	}
}

func TestLoadEffective_CLIInput_ConfigOptional(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{Input: "data/titles.csv"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if want := filepath.Join(cwd, "data", "titles.csv"); eff.Input != want {
		t.Fatalf("期望 input=%q，实际=%q", want, eff.Input)
	}
	if eff.Format != "csv" {
		t.Fatalf("期望按扩展名推断 csv，实际=%q", eff.Format)
	}
	if eff.Export {
		t.Fatalf("export 默认应为 false")
	}
	if want := filepath.Join(cwd, DefaultExportPath); eff.ExportPath != want {
		t.Fatalf("期望 export_path=%q，实际=%q", want, eff.ExportPath)
	}
	if eff.Genre != "" {
		t.Fatalf("genre 默认应为空，实际=%q", eff.Genre)
	}
}

func TestLoadEffective_FormatDetectHTML(t *testing.T) {
	cwd := t.TempDir()
	eff, err := LoadEffective(cwd, CLIArgs{Input: "titles.HTML"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Format != "html" {
		t.Fatalf("期望 html，实际=%q", eff.Format)
	}
}

func TestLoadEffective_ExportCLIOverride(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"input":"titles.csv","export":true}`))

	eff, err := LoadEffective(cwd, CLIArgs{
		Export:    false,
		ExportSet: true, // --export=false
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Export {
		t.Fatalf("期望 export=false，实际=%v", eff.Export)
	}
	if want := filepath.Join(cwd, "titles.csv"); eff.Input != want {
		t.Fatalf("期望 input=%q，实际=%q", want, eff.Input)
	}
}

func TestLoadEffective_MergeOrder(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"input":"file.csv","genre":"comedy","export":false,"export_path":"from-file.csv"}`))
	writeFile(t, filepath.Join(cwd, EnvFileName), []byte("MOVIEREC_GENRE=drama\nMOVIEREC_EXPORT=true\nMOVIEREC_INPUT=dotenv.csv\n"))

	// .env 覆盖配置文件。
	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Genre != "drama" || !eff.Export {
		t.Fatalf(".env 应覆盖配置文件：%+v", eff)
	}
	if want := filepath.Join(cwd, "dotenv.csv"); eff.Input != want {
		t.Fatalf("期望 input=%q，实际=%q", want, eff.Input)
	}
	if want := filepath.Join(cwd, "from-file.csv"); eff.ExportPath != want {
		t.Fatalf("期望 export_path=%q，实际=%q", want, eff.ExportPath)
	}

	// 进程环境变量覆盖 .env。
	t.Setenv(EnvGenre, "horror")
	eff, err = LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Genre != "horror" {
		t.Fatalf("进程环境变量应覆盖 .env：%q", eff.Genre)
	}

	// CLI 覆盖一切。
	eff, err = LoadEffective(cwd, CLIArgs{Input: "cli.csv", Genre: "war", GenreSet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Genre != "war" || eff.Input != filepath.Join(cwd, "cli.csv") {
		t.Fatalf("CLI 应覆盖一切：%+v", eff)
	}
}

func TestLoadEffective_InvalidFormat(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"input":"titles.csv","format":"xlsx"}`))

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func TestLoadEffective_InvalidJSON(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{`))

	_, err := LoadEffective(cwd, CLIArgs{Input: "titles.csv"})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func TestLoadEffective_InvalidEnvExport(t *testing.T) {
	cwd := t.TempDir()
	t.Setenv(EnvExport, "maybe")

	_, err := LoadEffective(cwd, CLIArgs{Input: "titles.csv"})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func TestLoadEffective_ExportPathSameAsInput(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{Input: "output.csv", Export: true, ExportSet: true})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败 %q：%v", path, err)
	}
}
