package model

import (
	"fmt"
	"time"
)

// Addr 是一个 IP:端口 对，零值表示"不存在"（例如未连接的监听 socket 没有对端）
type Addr struct {
	IP   string
	Port uint32
}

// IsZero 判断地址是否缺失
func (a Addr) IsZero() bool { return a.IP == "" && a.Port == 0 }

func (a Addr) String() string {
	if a.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s:%d", a.IP, a.Port)
}

// Socket 对应一次连接枚举的原始结果 (enumerate_inet_connections)
// Pid 为 0 表示内核没有报告归属进程
type Socket struct {
	Local  Addr
	Remote Addr
	Status string
	Pid    int32
}

// ProcessInfo 是 resolve_process 的结果
type ProcessInfo struct {
	Name string
	User string
}

// IOCounters 是进程自启动以来的累计读写字节数
type IOCounters struct {
	ReadBytes  uint64
	WriteBytes uint64
}

// Counters 就是 "Counter Store"：上一次采样时每个 PID 的累计值。
// 每个 tick 整体替换，只包含本轮仍有连接的进程，所以大小受当前连接数约束。
type Counters struct {
	Entries map[int32]IOCounters
	// Degraded 记录本轮读取失败、以 (0,0) 代替的 PID，这些值不能当下一轮的基线
	Degraded map[int32]bool
	// At 为采样时刻，零值表示还没有采样过
	At time.Time
}

// Len 返回条目数
func (c Counters) Len() int { return len(c.Entries) }

// Get 查询某个 PID 的上一轮累计值
func (c Counters) Get(pid int32) (IOCounters, bool) {
	v, ok := c.Entries[pid]
	return v, ok
}

// Baseline 返回可以用来做差的上一轮累计值，降级条目视同没有记录
func (c Counters) Baseline(pid int32) (IOCounters, bool) {
	if c.Degraded[pid] {
		return IOCounters{}, false
	}
	return c.Get(pid)
}

// ConnectionRecord 是一个 tick 内的一行数据，构造后不再修改。
// 同一进程的所有连接共享进程级的聚合速率。
type ConnectionRecord struct {
	Pid    int32
	Name   string
	User   string
	Local  Addr
	Remote Addr // 可能为零值
	Status string

	ReadRate  uint64
	WriteRate uint64
	TotalRate uint64
}

// Key 是记录的身份 (pid, laddr, raddr)
type Key struct {
	Pid    int32
	Local  Addr
	Remote Addr
}

func (r ConnectionRecord) Key() Key {
	return Key{Pid: r.Pid, Local: r.Local, Remote: r.Remote}
}

// Snapshot 是一次采样的完整结果
type Snapshot struct {
	Records []ConnectionRecord
	// Elapsed 为距上一轮采样的实际间隔，冷启动时为 0
	Elapsed time.Duration
	Seq     uint64
}

// KillTarget 是进入确认状态时捕获的进程，之后不再随列表刷新变化
type KillTarget struct {
	Pid  int32
	Name string
}
