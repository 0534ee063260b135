package controller

import (
	"context"
	"errors"
	"strings"
	"testing"

	"connmon/config"
	"connmon/model"
	"connmon/render"
	"connmon/sampler"
)

// scriptedSampler 依次返回预先准备好的快照
type scriptedSampler struct {
	ticks [][]model.ConnectionRecord
	calls int
	prevs []model.Counters
}

func (s *scriptedSampler) Sample(_ context.Context, prev model.Counters) (model.Snapshot, model.Counters) {
	s.prevs = append(s.prevs, prev)
	i := min(s.calls, len(s.ticks)-1)
	s.calls++
	next := model.Counters{Entries: map[int32]model.IOCounters{}}
	for _, r := range s.ticks[i] {
		next.Entries[r.Pid] = model.IOCounters{ReadBytes: uint64(s.calls)}
	}
	return model.Snapshot{Records: s.ticks[i], Seq: uint64(s.calls)}, next
}

type fakeTerminator struct {
	err  error
	pids []int32
}

func (f *fakeTerminator) Terminate(_ context.Context, pid int32) error {
	f.pids = append(f.pids, pid)
	return f.err
}

func records(pids ...int32) []model.ConnectionRecord {
	out := make([]model.ConnectionRecord, len(pids))
	for i, p := range pids {
		out[i] = model.ConnectionRecord{Pid: p, Name: "proc", TotalRate: uint64(100 * (len(pids) - i))}
	}
	return out
}

func newController(s Sampler, t Terminator) *Controller {
	c := New(s, t, config.Default(), nil)
	c.Resize(120, 8) // 5 行可见
	return c
}

func TestTickInstallsSnapshot(t *testing.T) {
	s := &scriptedSampler{ticks: [][]model.ConnectionRecord{records(1, 2, 3), records(4)}}
	c := newController(s, &fakeTerminator{})
	ctx := context.Background()

	if !c.Tick(ctx) {
		t.Fatal("tick in browsing should sample")
	}
	if len(c.Records()) != 3 {
		t.Fatalf("records = %d", len(c.Records()))
	}
	c.Tick(ctx)
	if s.prevs[1].Len() != 3 {
		t.Errorf("second sample got %d previous counters, want 3", s.prevs[1].Len())
	}
	if c.Counters().Len() != 1 {
		t.Errorf("counter store = %d entries, want 1", c.Counters().Len())
	}
}

func TestReconcileOnShrink(t *testing.T) {
	s := &scriptedSampler{ticks: [][]model.ConnectionRecord{records(1, 2, 3, 4, 5, 6, 7, 8), records(1, 2)}}
	c := newController(s, &fakeTerminator{})
	ctx := context.Background()
	c.Tick(ctx)
	for i := 0; i < 7; i++ {
		c.HandleKey(ctx, KeyDown)
	}
	if st := c.View(); st.Selected != 7 || st.Offset != 3 {
		t.Fatalf("view = %+v", st)
	}
	c.Tick(ctx)
	st := c.View()
	if st.Selected != 1 {
		t.Errorf("selected = %d, want 1", st.Selected)
	}
	if st.Offset != 3 {
		t.Errorf("offset = %d, reconcile must not touch it", st.Offset)
	}
	c.HandleKey(ctx, KeyUp)
	if st := c.View(); st.Selected != 0 || st.Offset != 0 {
		t.Errorf("after up: %+v", st)
	}
}

func TestSortKeyCycles(t *testing.T) {
	snap := []model.ConnectionRecord{
		{Pid: 30, Name: "b", TotalRate: 5},
		{Pid: 10, Name: "c", TotalRate: 1},
		{Pid: 20, Name: "a", TotalRate: 9},
	}
	s := &scriptedSampler{ticks: [][]model.ConnectionRecord{snap}}
	c := newController(s, &fakeTerminator{})
	ctx := context.Background()
	c.Tick(ctx)

	want := [][]int32{{20, 30, 10}, {10, 20, 30}, {20, 30, 10}, {20, 30, 10}}
	for step, w := range want {
		for i, r := range c.Records() {
			if r.Pid != w[i] {
				t.Fatalf("step %d (%s): position %d pid %d, want %v", step, c.View().Mode, i, r.Pid, w)
			}
		}
		if c.HandleKey(ctx, KeySort) != ActionRedraw {
			t.Fatal("sort key should redraw")
		}
	}
	if !strings.Contains(c.Frame().Lines[0].Text, "Sort: PID") {
		t.Errorf("title = %q", c.Frame().Lines[0].Text)
	}
}

func TestQuit(t *testing.T) {
	c := newController(&scriptedSampler{ticks: [][]model.ConnectionRecord{nil}}, &fakeTerminator{})
	if c.HandleKey(context.Background(), KeyQuit) != ActionQuit {
		t.Error("q should quit")
	}
	if c.HandleKey(context.Background(), KeyInterrupt) != ActionQuit {
		t.Error("ctrl-c should quit")
	}
	if c.HandleKey(context.Background(), "x") != ActionNone {
		t.Error("unbound key should be ignored")
	}
}

func TestKillIgnoredOnEmptyList(t *testing.T) {
	c := newController(&scriptedSampler{ticks: [][]model.ConnectionRecord{nil}}, &fakeTerminator{})
	c.Tick(context.Background())
	if c.HandleKey(context.Background(), KeyKill) != ActionNone || c.State() != Browsing {
		t.Errorf("kill on empty list changed state to %s", c.State())
	}
}

func selectPid(t *testing.T, c *Controller, pid int32) {
	t.Helper()
	for i := 0; i < len(c.Records()); i++ {
		if c.Records()[c.View().Selected].Pid == pid {
			return
		}
		c.HandleKey(context.Background(), KeyDown)
	}
	if c.Records()[c.View().Selected].Pid != pid {
		t.Fatalf("pid %d not selectable", pid)
	}
}

func TestKillFlow(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, "Terminated PID 4242 (proc)."},
		{"not found", &model.LookupError{Op: "terminate", Pid: 4242, Kind: model.KindNotFound, Err: errors.New("no such process")}, "PID 4242 not found."},
		{"access denied", &model.LookupError{Op: "terminate", Pid: 4242, Kind: model.KindAccessDenied, Err: errors.New("operation not permitted")}, "Access denied for PID 4242. Try sudo."},
		{"other", errors.New("boom"), "Error: boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &scriptedSampler{ticks: [][]model.ConnectionRecord{records(1, 4242, 7)}}
			term := &fakeTerminator{err: tc.err}
			c := newController(s, term)
			ctx := context.Background()
			c.Tick(ctx)
			selectPid(t, c, 4242)

			if c.HandleKey(ctx, KeyKill) != ActionRedraw || c.State() != ConfirmingKill {
				t.Fatalf("state = %s", c.State())
			}
			target, ok := c.Target()
			if !ok || target.Pid != 4242 || target.Name != "proc" {
				t.Fatalf("target = %+v %v", target, ok)
			}
			if p := c.Frame().Lines[0]; p.Style != render.StylePrompt || !strings.HasPrefix(p.Text, "Kill proc (PID 4242)? (y/n)") {
				t.Errorf("prompt = %+v", p)
			}

			c.HandleKey(ctx, "Y")
			if c.State() != Browsing {
				t.Errorf("state after confirm = %s", c.State())
			}
			if len(term.pids) != 1 || term.pids[0] != 4242 {
				t.Errorf("terminated %v", term.pids)
			}
			if c.Status() != tc.want {
				t.Errorf("status = %q, want %q", c.Status(), tc.want)
			}
			last := c.Frame().Lines[len(c.Frame().Lines)-1]
			if strings.TrimSpace(last.Text) != tc.want {
				t.Errorf("status bar = %q", last.Text)
			}
		})
	}
}

func TestKillStatusesDistinct(t *testing.T) {
	target := model.KillTarget{Pid: 4242, Name: "proc"}
	denied := killStatus(target, &model.LookupError{Kind: model.KindAccessDenied, Err: errors.New("x")})
	missing := killStatus(target, &model.LookupError{Kind: model.KindNotFound, Err: errors.New("x")})
	if denied == missing {
		t.Errorf("access-denied and not-found share message %q", denied)
	}
}

func TestKillCancelled(t *testing.T) {
	s := &scriptedSampler{ticks: [][]model.ConnectionRecord{records(5)}}
	term := &fakeTerminator{}
	c := newController(s, term)
	ctx := context.Background()
	c.Tick(ctx)
	c.HandleKey(ctx, KeyKill)

	// 方向键等也算取消
	c.HandleKey(ctx, KeyDown)
	if c.State() != Browsing || len(term.pids) != 0 {
		t.Errorf("state %s, terminated %v", c.State(), term.pids)
	}
	if c.Status() != "" {
		t.Errorf("cancel should not set status, got %q", c.Status())
	}
}

func TestTicksFrozenWhileConfirming(t *testing.T) {
	s := &scriptedSampler{ticks: [][]model.ConnectionRecord{records(1, 2), records(3)}}
	c := newController(s, &fakeTerminator{})
	ctx := context.Background()
	c.Tick(ctx)
	c.HandleKey(ctx, KeyKill)

	for i := 0; i < 3; i++ {
		if c.Tick(ctx) {
			t.Fatal("tick sampled during confirmation")
		}
	}
	if s.calls != 1 || len(c.Records()) != 2 {
		t.Errorf("sampler calls = %d, records = %d", s.calls, len(c.Records()))
	}
	c.HandleKey(ctx, "n")
	c.Tick(ctx)
	if s.calls != 2 || len(c.Records()) != 1 {
		t.Errorf("after cancel: sampler calls = %d, records = %d", s.calls, len(c.Records()))
	}
}

func TestStatusExpires(t *testing.T) {
	s := &scriptedSampler{ticks: [][]model.ConnectionRecord{records(9)}}
	c := newController(s, &fakeTerminator{})
	ctx := context.Background()
	c.Tick(ctx)
	c.HandleKey(ctx, KeyKill)
	c.HandleKey(ctx, "y")

	for i := 0; i < config.Default().StatusTicks-1; i++ {
		c.Tick(ctx)
		if c.Status() == "" {
			t.Fatalf("status cleared after %d ticks", i+1)
		}
	}
	c.Tick(ctx)
	if c.Status() != "" {
		t.Errorf("status still %q", c.Status())
	}
}

func TestPageKeys(t *testing.T) {
	s := &scriptedSampler{ticks: [][]model.ConnectionRecord{records(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)}}
	c := newController(s, &fakeTerminator{})
	ctx := context.Background()
	c.Tick(ctx)
	c.HandleKey(ctx, KeyPageDown)
	if st := c.View(); st.Selected != 5 || st.Offset != 1 {
		t.Errorf("page down: %+v", st)
	}
	c.HandleKey(ctx, KeyPageDown)
	c.HandleKey(ctx, KeyPageDown)
	if st := c.View(); st.Selected != 11 {
		t.Errorf("page down clamps to last row: %+v", st)
	}
	c.HandleKey(ctx, KeyPageUp)
	c.HandleKey(ctx, KeyPageUp)
	c.HandleKey(ctx, KeyPageUp)
	if st := c.View(); st.Selected != 0 || st.Offset != 0 {
		t.Errorf("page up: %+v", st)
	}
}

// 通过真实的 Sampler 跑一遍：第一轮 (1000,2000)，第二轮 (1500,2000)
type counterSource struct {
	io model.IOCounters
}

func (s *counterSource) Connections(context.Context) ([]model.Socket, error) {
	return []model.Socket{
		{Local: model.Addr{IP: "10.0.0.2", Port: 4000}, Remote: model.Addr{IP: "93.184.216.34", Port: 80}, Status: "ESTABLISHED", Pid: 77},
		{Local: model.Addr{IP: "10.0.0.2", Port: 4001}, Remote: model.Addr{IP: "93.184.216.34", Port: 443}, Status: "ESTABLISHED", Pid: 77},
	}, nil
}

func (s *counterSource) Process(context.Context, int32) (model.ProcessInfo, error) {
	return model.ProcessInfo{Name: "wget", User: "alice"}, nil
}

func (s *counterSource) IOCounters(context.Context, int32) (model.IOCounters, error) {
	return s.io, nil
}

func TestEndToEndRates(t *testing.T) {
	src := &counterSource{io: model.IOCounters{ReadBytes: 1000, WriteBytes: 2000}}
	c := newController(sampler.New(src, config.Default(), nil), &fakeTerminator{})
	ctx := context.Background()

	c.Tick(ctx)
	src.io = model.IOCounters{ReadBytes: 1500, WriteBytes: 2000}
	c.Tick(ctx)

	if len(c.Records()) != 2 {
		t.Fatalf("records = %d", len(c.Records()))
	}
	for _, r := range c.Records() {
		if r.ReadRate != 500 || r.WriteRate != 0 || r.TotalRate != 500 {
			t.Errorf("%s: read=%d write=%d total=%d", r.Local, r.ReadRate, r.WriteRate, r.TotalRate)
		}
	}
	row := c.Frame().Lines[2].Text
	if !strings.Contains(row, "500.0B/s") || !strings.Contains(row, "wget") {
		t.Errorf("row = %q", row)
	}
}
