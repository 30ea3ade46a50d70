package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// strayChars 是 genres 项两端需要剥掉的残留字符。
const strayChars = "[]',\""

// ParseGenres 把字符串形式的列表字面量解析为有序的类型列表。
//
// 支持的形态：
// - "['Drama', 'Action']"（单/双引号均可，允许反斜杠转义与末尾逗号）
// - "[]" 或空串：空列表
// - "Drama, Action"：已经清洗过的逗号列表（不含方括号与引号），原样拆分
//
// 每一项去空白并剥掉两端的 [ ] ' " , 残留；清洗后为空的项被丢弃。
// 语法非法时返回错误，绝不把输入当代码求值。
func ParseGenres(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}, nil
	}
	if s[0] != '[' {
		if strings.ContainsAny(s, "[]'\"") {
			return nil, fmt.Errorf("列表字面量必须以 '[' 开头")
		}
		return parseBare(s), nil
	}
	return parseLiteral(s)
}

func parseBare(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := cleanGenre(p); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// parseLiteral 是一个只认识“字符串列表”的小扫描器：
// '[' ws* ( str ws* ( ',' ws* str ws* )* ','? ws* )? ']' ws*
func parseLiteral(s string) ([]string, error) {
	out := make([]string, 0, 4)
	i := 1 // 跳过 '['
	expectItem := true

	for {
		i = skipSpace(s, i)
		if i >= len(s) {
			return nil, errors.New("列表字面量缺少 ']'")
		}

		c := s[i]
		switch {
		case c == ']':
			i = skipSpace(s, i+1)
			if i != len(s) {
				return nil, fmt.Errorf("']' 之后存在多余内容：%q", s[i:])
			}
			return out, nil
		case c == '\'' || c == '"':
			if !expectItem {
				return nil, fmt.Errorf("位置 %d：列表项之间缺少 ','", i)
			}
			v, next, err := readQuoted(s, i)
			if err != nil {
				return nil, err
			}
			if g := cleanGenre(v); g != "" {
				out = append(out, g)
			}
			i = next
			expectItem = false
		case c == ',':
			if expectItem {
				return nil, fmt.Errorf("位置 %d：多余的 ','", i)
			}
			i++
			expectItem = true
		default:
			return nil, fmt.Errorf("位置 %d：非法字符 %q（列表项必须是带引号的字符串）", i, c)
		}
	}
}

// readQuoted 从 s[start]（引号）开始读取一个字符串字面量，返回内容与结束引号之后的位置。
func readQuoted(s string, start int) (string, int, error) {
	q := s[start]
	var b strings.Builder
	for i := start + 1; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			if i+1 >= len(s) {
				return "", 0, errors.New("字符串以不完整的转义结尾")
			}
			i++
			switch e := s[i]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				// \' \" \\ 以及其它未知转义：保留被转义的字符本身。
				b.WriteByte(e)
			}
		case q:
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, fmt.Errorf("位置 %d：字符串缺少结束引号", start)
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

// cleanGenre 去空白并剥掉两端残留字符（与去空白交替进行，直到稳定）。
func cleanGenre(s string) string {
	for {
		t := strings.Trim(strings.TrimSpace(s), strayChars)
		if t == s {
			return t
		}
		s = t
	}
}

// CleanGenre 对单个类型字符串做与 ParseGenres 相同的清洗。
func CleanGenre(s string) string { return cleanGenre(s) }

// FormatGenres 把类型列表写回列表字面量（单引号风格），保证
// ParseGenres(FormatGenres(g)) 与 g 相同（g 本身已清洗时）。
func FormatGenres(genres []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, g := range genres {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('\'')
		for j := 0; j < len(g); j++ {
			if g[j] == '\'' || g[j] == '\\' {
				b.WriteByte('\\')
			}
			b.WriteByte(g[j])
		}
		b.WriteByte('\'')
	}
	b.WriteByte(']')
	return b.String()
}
