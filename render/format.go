package render

import "fmt"

var units = []string{"", "K", "M", "G", "T"}

// 保留一位小数后会显示成 1024.0 的值也要进位到下一个单位
const rollover = 1023.95

// FormatRate 以 1024 为进制格式化速率，保留一位小数，例如 1536 -> "1.5KB/s"
func FormatRate(b uint64) string {
	size := float64(b)
	n := 0
	for size >= rollover && n < len(units)-1 {
		size /= 1024
		n++
	}
	return fmt.Sprintf("%.1f%sB/s", size, units[n])
}

// shortName 超过 17 个字符的进程名截成 15 个字符加 ".."
func shortName(name string) string {
	r := []rune(name)
	if len(r) > 17 {
		return string(r[:15]) + ".."
	}
	return name
}
