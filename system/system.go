//go:build linux

// Package system 通过 gopsutil 读取 /proc，提供连接枚举、进程信息、
// 累计 IO 计数以及终止进程。所有错误都包装为 *model.LookupError。
package system

import (
	"context"
	"errors"
	"os"
	"strconv"

	"connmon/model"

	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sys/unix"
)

type System struct {
	kind string
}

// New kind 为 gopsutil 的连接类型，例如 "inet"
func New(kind string) *System {
	if kind == "" {
		kind = "inet"
	}
	return &System{kind: kind}
}

// Connections 枚举全部 inet 连接
func (s *System) Connections(ctx context.Context) ([]model.Socket, error) {
	conns, err := psnet.ConnectionsWithContext(ctx, s.kind)
	if err != nil {
		return nil, wrap("connections", 0, err)
	}
	out := make([]model.Socket, 0, len(conns))
	for _, c := range conns {
		out = append(out, toSocket(c))
	}
	return out, nil
}

// Process 查询进程名和属主。属主查不到时返回的 ProcessInfo 仍带着进程名。
func (s *System) Process(ctx context.Context, pid int32) (model.ProcessInfo, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return model.ProcessInfo{}, wrap("resolve", pid, err)
	}
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return model.ProcessInfo{}, s.fail(ctx, p, "resolve", err)
	}
	user, err := username(ctx, p)
	if err != nil {
		return model.ProcessInfo{Name: name}, s.fail(ctx, p, "resolve", err)
	}
	return model.ProcessInfo{Name: name, User: user}, nil
}

// username 在 passwd 里没有对应条目时（容器、已删除的用户）退回到数字 uid
func username(ctx context.Context, p *process.Process) (string, error) {
	user, err := p.UsernameWithContext(ctx)
	if err == nil {
		return user, nil
	}
	uids, uerr := p.UidsWithContext(ctx)
	if uerr != nil || len(uids) == 0 {
		return "", err
	}
	return strconv.FormatUint(uint64(uids[0]), 10), nil
}

// IOCounters 读取 /proc/<pid>/io
func (s *System) IOCounters(ctx context.Context, pid int32) (model.IOCounters, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return model.IOCounters{}, wrap("io", pid, err)
	}
	io, err := p.IOCountersWithContext(ctx)
	if err != nil {
		return model.IOCounters{}, s.fail(ctx, p, "io", err)
	}
	return model.IOCounters{ReadBytes: io.ReadBytes, WriteBytes: io.WriteBytes}, nil
}

// Terminate 发送 SIGTERM
func (s *System) Terminate(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return wrap("terminate", pid, err)
	}
	if err := p.TerminateWithContext(ctx); err != nil {
		return wrap("terminate", pid, err)
	}
	return nil
}

// fail 在分类之前先看一下进程是不是僵尸，僵尸进程的 /proc 条目大多不可读
func (s *System) fail(ctx context.Context, p *process.Process, op string, err error) error {
	if st, serr := p.StatusWithContext(ctx); serr == nil && isZombie(st) {
		return &model.LookupError{Op: op, Pid: p.Pid, Kind: model.KindZombie, Err: err}
	}
	return wrap(op, p.Pid, err)
}

func isZombie(status []string) bool {
	for _, s := range status {
		if s == process.Zombie {
			return true
		}
	}
	return false
}

func wrap(op string, pid int32, err error) error {
	return &model.LookupError{Op: op, Pid: pid, Kind: Classify(err), Err: err}
}

// Classify 把 gopsutil / 系统调用错误映射成 FailureKind
func Classify(err error) model.FailureKind {
	switch {
	case err == nil:
		return model.KindOther
	case errors.Is(err, process.ErrorProcessNotRunning),
		errors.Is(err, unix.ESRCH),
		errors.Is(err, os.ErrNotExist),
		errors.Is(err, os.ErrProcessDone):
		return model.KindNotFound
	case errors.Is(err, process.ErrorNotPermitted),
		errors.Is(err, unix.EPERM),
		errors.Is(err, unix.EACCES),
		errors.Is(err, os.ErrPermission):
		return model.KindAccessDenied
	}
	return model.KindOther
}

func toSocket(c psnet.ConnectionStat) model.Socket {
	return model.Socket{
		Local:  model.Addr{IP: c.Laddr.IP, Port: c.Laddr.Port},
		Remote: model.Addr{IP: c.Raddr.IP, Port: c.Raddr.Port},
		Status: c.Status,
		Pid:    c.Pid,
	}
}
