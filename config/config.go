package config

import (
	"errors"
	"time"
)

// Config 是运行参数。程序不读取文件、命令行或环境变量，全部使用编译期默认值。
type Config struct {
	// TickPeriod 采样刷新周期
	TickPeriod time.Duration
	// StatusTicks 临时状态信息保留的 tick 数
	StatusTicks int
	// NormalizeRates 为 true 时用实际间隔把差值换算成每秒字节数；
	// 默认 false，速率就是相邻两个 tick 的差值
	NormalizeRates bool
	// Sentinel 进程信息查询失败时的占位值
	Sentinel string
	// ConnectionKind 传给连接枚举的类型
	ConnectionKind string
}

func Default() Config {
	return Config{
		TickPeriod:     time.Second,
		StatusTicks:    3,
		NormalizeRates: false,
		Sentinel:       "N/A",
		ConnectionKind: "inet",
	}
}

func (c Config) Validate() error {
	if c.TickPeriod <= 0 {
		return errors.New("tick period must be positive")
	}
	if c.StatusTicks < 1 {
		return errors.New("status ticks must be at least 1")
	}
	if c.ConnectionKind == "" {
		return errors.New("connection kind is empty")
	}
	return nil
}
