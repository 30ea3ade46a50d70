package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/John-Robertt/movierec/internal/catalog"
)

// ErrAborted 表示输入在给出有效类型之前结束（EOF / 取消）。
var ErrAborted = errors.New("未选择类型：输入已结束")

// Picker 是交互式类型选择：先列出全部类型，再循环读取一行输入直到合法。
//
// 约束：
// - 非法输入只提示并重试，不视为错误
// - 匹配忽略大小写，返回目录中的写法
// - 读行在独立 goroutine 中进行；等待输入时 ctx 取消（Ctrl-C）立即返回
type Picker struct {
	In  io.Reader
	Out io.Writer

	lines chan line
}

// line 是读行 goroutine 的一次产出；done=true 表示输入结束（err 为读取错误，EOF 时为 nil）。
type line struct {
	text string
	err  error
	done bool
}

func New(in io.Reader, out io.Writer) *Picker {
	return &Picker{In: in, Out: out}
}

func (p *Picker) Pick(ctx context.Context, genres []string) (string, error) {
	if len(genres) == 0 {
		return "", errors.New("没有可选的类型")
	}
	if p.lines == nil {
		p.lines = make(chan line)
		go p.readLines()
	}

	fmt.Fprintln(p.Out, "可选类型：")
	for _, g := range genres {
		fmt.Fprintf(p.Out, "  %s\n", g)
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fmt.Fprint(p.Out, "输入想看的类型：")

		var ln line
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(p.Out)
			return "", ctx.Err()
		case ln, ok = <-p.lines:
		}
		if !ok || ln.done {
			fmt.Fprintln(p.Out)
			if ln.err != nil {
				return "", fmt.Errorf("读取输入失败：%w", ln.err)
			}
			return "", ErrAborted
		}
		if g, ok := catalog.Lookup(genres, ln.text); ok {
			return g, nil
		}
		fmt.Fprintln(p.Out, "类型无效，请从上面的列表中选择。")
	}
}

// readLines 把 In 逐行送进 lines，结束时发送 done 并关闭通道。
// Pick 因取消提前返回后，goroutine 会阻塞在下一次发送上，随进程退出一并结束。
func (p *Picker) readLines() {
	sc := bufio.NewScanner(p.In)
	for sc.Scan() {
		p.lines <- line{text: sc.Text()}
	}
	p.lines <- line{err: sc.Err(), done: true}
	close(p.lines)
}
