// Package view 保存列表的选中行、滚动位置和排序方式，以及排序逻辑。
package view

import "connmon/model"

// State 即 ViewState
type State struct {
	Selected int
	Offset   int
	Mode     SortMode
}

// Model 只负责选中/滚动这一套状态，数据本身由调用方持有
type Model struct {
	state State
}

func NewModel() *Model { return &Model{} }

func (m *Model) State() State { return m.state }

// CycleSort 切换到下一个排序方式
func (m *Model) CycleSort() SortMode {
	m.state.Mode = m.state.Mode.Next()
	return m.state.Mode
}

// Reconcile 在每次拿到新快照后调用：选中行越界时钳到最后一行。
// 滚动位置不在这里修正，列表变短时可能暂时停在末尾之后，直到下一次移动选中行。
func (m *Model) Reconcile(count int) {
	if m.state.Selected >= count {
		m.state.Selected = max(0, count-1)
	}
}

// MoveSelection 移动选中行并让它保持在可见区域内。
// count 为记录总数，rows 为可见行数。
func (m *Model) MoveSelection(delta, count, rows int) {
	if count <= 0 {
		m.state.Selected = 0
		return
	}
	sel := m.state.Selected + delta
	sel = min(sel, count-1)
	sel = max(sel, 0)
	m.state.Selected = sel

	if rows < 1 {
		rows = 1
	}
	if sel > m.state.Offset+rows-1 {
		m.state.Offset = sel - rows + 1
	}
	if sel < m.state.Offset {
		m.state.Offset = sel
	}
}

// VisibleWindow 返回从 Offset 开始、最多 rows 条的记录
func VisibleWindow(records []model.ConnectionRecord, st State, rows int) []model.ConnectionRecord {
	if rows <= 0 || st.Offset >= len(records) {
		return nil
	}
	start := max(st.Offset, 0)
	end := min(start+rows, len(records))
	return records[start:end]
}
