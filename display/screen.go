// Package display 把 render.Frame 画到 termui 的缓冲区上
package display

import (
	"image"

	"connmon/render"

	ui "github.com/gizak/termui/v3"
)

// 各种行的配色：标题/状态栏 蓝底白字，表头 青底黑字，选中行 反色
var styles = map[render.Style]ui.Style{
	render.StyleRow:      ui.NewStyle(ui.ColorClear),
	render.StyleTitle:    ui.NewStyle(ui.ColorWhite, ui.ColorBlue, ui.ModifierBold),
	render.StyleHeader:   ui.NewStyle(ui.ColorBlack, ui.ColorCyan, ui.ModifierBold),
	render.StyleSelected: ui.NewStyle(ui.ColorClear, ui.ColorClear, ui.ModifierReverse),
	render.StyleStatus:   ui.NewStyle(ui.ColorWhite, ui.ColorBlue),
	render.StylePrompt:   ui.NewStyle(ui.ColorBlack, ui.ColorWhite, ui.ModifierBold),
}

// Screen 是一个无边框的全屏 Drawable
type Screen struct {
	ui.Block
	frame render.Frame
}

func NewScreen() *Screen {
	s := &Screen{Block: *ui.NewBlock()}
	s.Border = false
	return s
}

// SetFrame 替换要画的内容，同时按帧大小调整区域
func (s *Screen) SetFrame(f render.Frame) {
	s.Lock()
	defer s.Unlock()
	s.frame = f
	s.SetRect(0, 0, f.Width, f.Height)
}

// SetRect 没有边框，内部区域就是整个区域
func (s *Screen) SetRect(x1, y1, x2, y2 int) {
	s.Block.SetRect(x1, y1, x2, y2)
	s.Inner = s.Rectangle
}

func (s *Screen) Draw(buf *ui.Buffer) {
	s.Block.Draw(buf)
	for _, l := range s.frame.Lines {
		p := image.Pt(s.Inner.Min.X, s.Inner.Min.Y+l.Y)
		if !p.In(s.Inner) {
			continue
		}
		buf.SetString(l.Text, styleOf(l.Style), p)
	}
}

func styleOf(st render.Style) ui.Style {
	if s, ok := styles[st]; ok {
		return s
	}
	return ui.StyleClear
}
