// Package render 把快照和视图状态转换成定宽的文本行，本身不持有任何状态。
package render

import (
	"fmt"
	"strconv"
	"strings"

	"connmon/model"
	"connmon/view"

	"github.com/mattn/go-runewidth"
)

type Style int

const (
	StyleRow Style = iota
	StyleTitle
	StyleHeader
	StyleSelected
	StyleStatus
	StylePrompt
)

// Line 是屏幕上的一行，Text 已经按终端宽度截断/补齐
type Line struct {
	Y     int
	Text  string
	Style Style
}

type Frame struct {
	Width  int
	Height int
	Lines  []Line
}

// Input 是渲染一帧所需的全部数据
type Input struct {
	Records []model.ConnectionRecord // 已排序的完整列表
	State   view.State
	Status  string // 临时状态信息，为空时显示统计
	Prompt  string // 非空时标题行显示确认提示
	Width   int
	Height  int
}

// 标题、表头、状态栏各占一行
const chromeRows = 3

type column struct {
	title string
	width int
}

var columns = []column{
	{"PID", 8},
	{"USER", 12},
	{"PROCESS", 18},
	{"DL RATE", 10},
	{"UL RATE", 10},
	{"LADDR", 22},
	{"RADDR", 22},
}

// ViewportRows 返回给定终端高度下列表可见的行数
func ViewportRows(height int) int {
	return max(0, height-chromeRows)
}

func Render(in Input) Frame {
	f := Frame{Width: in.Width, Height: in.Height}
	if in.Width <= 0 || in.Height <= 0 {
		return f
	}
	put := func(y int, text string, st Style) {
		if y < 0 || y >= in.Height {
			return
		}
		f.Lines = append(f.Lines, Line{Y: y, Text: fit(text, in.Width), Style: st})
	}

	if in.Prompt != "" {
		put(0, in.Prompt, StylePrompt)
	} else {
		put(0, fmt.Sprintf(" Network Monitor | Sort: %s (s) | Kill (k) | Quit (q) ", in.State.Mode), StyleTitle)
	}

	titles := make([]string, len(columns))
	for i, c := range columns {
		titles[i] = c.title
	}
	put(1, row(titles), StyleHeader)

	// 列表区只画到状态栏上面一行
	rows := view.VisibleWindow(in.Records, in.State, ViewportRows(in.Height))
	for i, r := range rows {
		y := 2 + i
		if y >= in.Height-1 {
			break
		}
		st := StyleRow
		if in.State.Offset+i == in.State.Selected {
			st = StyleSelected
		}
		put(y, recordRow(r), st)
	}

	if in.Height >= chromeRows {
		put(in.Height-1, statusText(in), StyleStatus)
	}
	return f
}

func recordRow(r model.ConnectionRecord) string {
	raddr := "N/A"
	if !r.Remote.IsZero() {
		raddr = r.Remote.String()
	}
	return row([]string{
		strconv.Itoa(int(r.Pid)),
		r.User,
		shortName(r.Name),
		FormatRate(r.ReadRate),
		FormatRate(r.WriteRate),
		r.Local.String(),
		raddr,
	})
}

func row(cells []string) string {
	var b strings.Builder
	for i, c := range columns {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(runewidth.FillRight(runewidth.Truncate(cells[i], c.width, ""), c.width))
	}
	return b.String()
}

func statusText(in Input) string {
	if in.Status != "" {
		return " " + in.Status + " "
	}
	sel := 0
	if len(in.Records) > 0 {
		sel = in.State.Selected + 1
	}
	return fmt.Sprintf(" Total Connections: %d | Selected: %d/%d ", len(in.Records), sel, len(in.Records))
}

// fit 把一行截断或补齐到终端宽度，终端变窄时多出的部分直接丢弃
func fit(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, ""), width)
}
