// Package controller 是界面的状态机：定时 tick 触发采样，按键改变视图或发起终止进程。
//
// 两个状态：Browsing（默认）和 ConfirmingKill（等待 y/n，期间忽略 tick，画面冻结）。
// 所有操作都在调用方的同一个 goroutine 里同步执行。
package controller

import (
	"context"
	"fmt"
	"io"
	"log"

	"connmon/config"
	"connmon/model"
	"connmon/render"
	"connmon/view"
)

type State int

const (
	Browsing State = iota
	ConfirmingKill
)

func (s State) String() string {
	if s == ConfirmingKill {
		return "confirming-kill"
	}
	return "browsing"
}

// 按键 ID 与 termui 的事件 ID 一致
const (
	KeyQuit      = "q"
	KeyInterrupt = "<C-c>"
	KeyUp        = "<Up>"
	KeyDown      = "<Down>"
	KeyPageUp    = "<PageUp>"
	KeyPageDown  = "<PageDown>"
	KeySort      = "s"
	KeyKill      = "k"
)

// Action 告诉主循环按键处理之后要做什么
type Action int

const (
	ActionNone Action = iota
	ActionRedraw
	ActionQuit
)

type Sampler interface {
	Sample(ctx context.Context, prev model.Counters) (model.Snapshot, model.Counters)
}

type Terminator interface {
	Terminate(ctx context.Context, pid int32) error
}

type Controller struct {
	sampler     Sampler
	term        Terminator
	log         *log.Logger
	statusTicks int

	counters model.Counters
	snapshot model.Snapshot
	records  []model.ConnectionRecord // 按当前排序方式排好的 snapshot.Records

	view   *view.Model
	state  State
	target model.KillTarget

	status     string
	statusLeft int

	width, height int
}

func New(s Sampler, t Terminator, cfg config.Config, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Controller{
		sampler:     s,
		term:        t,
		log:         logger,
		statusTicks: cfg.StatusTicks,
		view:        view.NewModel(),
	}
}

func (c *Controller) State() State                      { return c.state }
func (c *Controller) View() view.State                  { return c.view.State() }
func (c *Controller) Records() []model.ConnectionRecord { return c.records }
func (c *Controller) Status() string                    { return c.status }
func (c *Controller) Counters() model.Counters          { return c.counters }

// Target 返回等待确认的进程
func (c *Controller) Target() (model.KillTarget, bool) {
	return c.target, c.state == ConfirmingKill
}

// Resize 记录终端尺寸，决定可见行数
func (c *Controller) Resize(width, height int) {
	c.width, c.height = width, height
}

func (c *Controller) rows() int { return render.ViewportRows(c.height) }

// Tick 采样一次并安装新快照。确认状态下什么也不做，返回 false。
func (c *Controller) Tick(ctx context.Context) bool {
	if c.state == ConfirmingKill {
		return false
	}
	snap, next := c.sampler.Sample(ctx, c.counters)
	c.counters = next
	c.snapshot = snap
	c.records = view.Sort(snap.Records, c.view.State().Mode)
	c.view.Reconcile(len(c.records))

	if c.statusLeft > 0 {
		c.statusLeft--
		if c.statusLeft == 0 {
			c.status = ""
		}
	}
	return true
}

// HandleKey 处理一个按键
func (c *Controller) HandleKey(ctx context.Context, key string) Action {
	if key == KeyInterrupt {
		return ActionQuit
	}
	if c.state == ConfirmingKill {
		return c.confirm(ctx, key)
	}

	switch key {
	case KeyQuit:
		return ActionQuit
	case KeyUp:
		c.view.MoveSelection(-1, len(c.records), c.rows())
	case KeyDown:
		c.view.MoveSelection(1, len(c.records), c.rows())
	case KeyPageUp:
		c.view.MoveSelection(-max(1, c.rows()), len(c.records), c.rows())
	case KeyPageDown:
		c.view.MoveSelection(max(1, c.rows()), len(c.records), c.rows())
	case KeySort:
		mode := c.view.CycleSort()
		c.records = view.Sort(c.snapshot.Records, mode)
	case KeyKill:
		if len(c.records) == 0 {
			return ActionNone
		}
		r := c.records[c.view.State().Selected]
		c.target = model.KillTarget{Pid: r.Pid, Name: r.Name}
		c.state = ConfirmingKill
	default:
		return ActionNone
	}
	return ActionRedraw
}

// confirm 只认 y/Y，其他任何键都直接取消
func (c *Controller) confirm(ctx context.Context, key string) Action {
	target := c.target
	c.state = Browsing
	c.target = model.KillTarget{}
	if key != "y" && key != "Y" {
		return ActionRedraw
	}

	err := c.term.Terminate(ctx, target.Pid)
	if err != nil {
		c.log.Printf("terminate pid %d: %v", target.Pid, err)
	}
	c.setStatus(killStatus(target, err))
	return ActionRedraw
}

func (c *Controller) setStatus(msg string) {
	c.status = msg
	c.statusLeft = c.statusTicks
}

func killStatus(t model.KillTarget, err error) string {
	if err == nil {
		return fmt.Sprintf("Terminated PID %d (%s).", t.Pid, t.Name)
	}
	switch model.KindOf(err) {
	case model.KindNotFound:
		return fmt.Sprintf("PID %d not found.", t.Pid)
	case model.KindAccessDenied:
		return fmt.Sprintf("Access denied for PID %d. Try sudo.", t.Pid)
	}
	return fmt.Sprintf("Error: %v", err)
}

// Frame 渲染当前画面
func (c *Controller) Frame() render.Frame {
	in := render.Input{
		Records: c.records,
		State:   c.view.State(),
		Status:  c.status,
		Width:   c.width,
		Height:  c.height,
	}
	if c.state == ConfirmingKill {
		in.Prompt = fmt.Sprintf("Kill %s (PID %d)? (y/n): ", c.target.Name, c.target.Pid)
	}
	return render.Render(in)
}
