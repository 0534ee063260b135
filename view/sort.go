package view

import (
	"sort"

	"connmon/model"
)

// SortMode 排序方式，按 s 键依次循环
type SortMode int

const (
	SortRate SortMode = iota
	SortPID
	SortName
	numSortModes
)

func (m SortMode) String() string {
	switch m {
	case SortRate:
		return "Rate"
	case SortPID:
		return "PID"
	case SortName:
		return "Name"
	}
	return "?"
}

// Next 返回下一个排序方式，到末尾后回到 Rate
func (m SortMode) Next() SortMode {
	return (m + 1) % numSortModes
}

// Sort 返回排好序的新切片，不修改入参。
// Rate: 总速率降序，相同时 PID 升序；PID: 升序；Name: 按字节序升序，相同时保持原顺序。
func Sort(records []model.ConnectionRecord, mode SortMode) []model.ConnectionRecord {
	out := make([]model.ConnectionRecord, len(records))
	copy(out, records)

	var less func(i, j int) bool
	switch mode {
	case SortPID:
		less = func(i, j int) bool { return out[i].Pid < out[j].Pid }
	case SortName:
		less = func(i, j int) bool { return out[i].Name < out[j].Name }
	default:
		less = func(i, j int) bool {
			if out[i].TotalRate == out[j].TotalRate {
				return out[i].Pid < out[j].Pid
			}
			return out[i].TotalRate > out[j].TotalRate
		}
	}
	sort.SliceStable(out, less)
	return out
}
