package sampler

import "connmon/model"

// 查询失败时的默认值。按失败类别显式列出，测试直接断言这张表。
var degradedIO = map[model.FailureKind]model.IOCounters{
	model.KindNotFound:     {},
	model.KindAccessDenied: {},
	model.KindZombie:       {},
	model.KindOther:        {},
}

func degradedInfo(sentinel string) map[model.FailureKind]model.ProcessInfo {
	na := model.ProcessInfo{Name: sentinel, User: sentinel}
	return map[model.FailureKind]model.ProcessInfo{
		model.KindNotFound:     na,
		model.KindAccessDenied: na,
		model.KindZombie:       na,
		model.KindOther:        na,
	}
}

// rate 计算单个方向的速率，计数器回退（进程重启等）时钳为 0
func rate(prev, cur uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}
