// Package sampler 每个 tick 枚举连接、读取进程累计 IO，并与上一轮的计数做差得到速率。
//
// 上一轮的计数 (model.Counters) 由调用方显式传入、显式接收，包内没有全局状态。
package sampler

import (
	"context"
	"io"
	"log"
	"math"
	"time"

	"connmon/config"
	"connmon/model"
)

// Source 是采样依赖的系统接口，线上由 system.System 实现
type Source interface {
	Connections(ctx context.Context) ([]model.Socket, error)
	Process(ctx context.Context, pid int32) (model.ProcessInfo, error)
	IOCounters(ctx context.Context, pid int32) (model.IOCounters, error)
}

type Sampler struct {
	src       Source
	info      map[model.FailureKind]model.ProcessInfo
	normalize bool
	log       *log.Logger
	now       func() time.Time
	seq       uint64
}

func New(src Source, cfg config.Config, logger *log.Logger) *Sampler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Sampler{
		src:       src,
		info:      degradedInfo(cfg.Sentinel),
		normalize: cfg.NormalizeRates,
		log:       logger,
		now:       time.Now,
	}
}

// Sample 执行一次采样，返回本轮的快照和新的计数表。
// 任何查询失败都会降级为默认值，不会返回错误。
func (s *Sampler) Sample(ctx context.Context, prev model.Counters) (model.Snapshot, model.Counters) {
	now := s.now()
	s.seq++

	// 1. 枚举连接，顺便解析进程名（同一 PID 只查一次）
	socks, err := s.src.Connections(ctx)
	if err != nil {
		s.log.Printf("enumerate connections: %v", err)
		socks = nil
	}

	infos := make(map[int32]model.ProcessInfo)
	var pids []int32
	records := make([]model.ConnectionRecord, 0, len(socks))
	for _, sk := range socks {
		if sk.Pid <= 0 {
			continue
		}
		info, ok := infos[sk.Pid]
		if !ok {
			info = s.resolve(ctx, sk.Pid)
			infos[sk.Pid] = info
			pids = append(pids, sk.Pid)
		}
		records = append(records, model.ConnectionRecord{
			Pid:    sk.Pid,
			Name:   info.Name,
			User:   info.User,
			Local:  sk.Local,
			Remote: sk.Remote,
			Status: sk.Status,
		})
	}

	// 2. 读取累计计数
	next := model.Counters{Entries: make(map[int32]model.IOCounters, len(pids)), At: now}
	for _, pid := range pids {
		c, ok := s.counters(ctx, pid)
		next.Entries[pid] = c
		if !ok {
			if next.Degraded == nil {
				next.Degraded = make(map[int32]bool)
			}
			next.Degraded[pid] = true
		}
	}

	// 3. 计算速率。没有可用基线的进程（新出现的、上一轮读取失败的）本轮为 0，
	// 本轮读取失败的也为 0
	var elapsed time.Duration
	if !prev.At.IsZero() {
		elapsed = now.Sub(prev.At)
	}
	type rates struct{ read, write uint64 }
	byPid := make(map[int32]rates, len(pids))
	for _, pid := range pids {
		old, ok := prev.Baseline(pid)
		if !ok || next.Degraded[pid] {
			continue
		}
		cur := next.Entries[pid]
		r := rates{read: rate(old.ReadBytes, cur.ReadBytes), write: rate(old.WriteBytes, cur.WriteBytes)}
		if s.normalize {
			r.read = perSecond(r.read, elapsed)
			r.write = perSecond(r.write, elapsed)
		}
		byPid[pid] = r
	}

	// 4. 同一进程的所有连接使用同一个速率
	for i := range records {
		r := byPid[records[i].Pid]
		records[i].ReadRate = r.read
		records[i].WriteRate = r.write
		records[i].TotalRate = r.read + r.write
	}

	return model.Snapshot{Records: records, Elapsed: elapsed, Seq: s.seq}, next
}

// resolve 失败时只替换拿不到的字段，已经查到的进程名保留
func (s *Sampler) resolve(ctx context.Context, pid int32) model.ProcessInfo {
	info, err := s.src.Process(ctx, pid)
	if err == nil {
		return info
	}
	kind := model.KindOf(err)
	s.log.Printf("resolve pid %d: %s", pid, kind)
	out := s.info[kind]
	if info.Name != "" {
		out.Name = info.Name
	}
	if info.User != "" {
		out.User = info.User
	}
	return out
}

// counters 的第二个返回值为 false 表示读取失败，返回的是降级值
func (s *Sampler) counters(ctx context.Context, pid int32) (model.IOCounters, bool) {
	c, err := s.src.IOCounters(ctx, pid)
	if err == nil {
		return c, true
	}
	kind := model.KindOf(err)
	s.log.Printf("io counters pid %d: %s", pid, kind)
	return degradedIO[kind], false
}

// perSecond 把一个 tick 内的差值换算成每秒；间隔未知时原样返回
func perSecond(delta uint64, elapsed time.Duration) uint64 {
	if elapsed <= 0 {
		return delta
	}
	return uint64(math.Round(float64(delta) / elapsed.Seconds()))
}
