package util

import (
	"strconv"
)

// QueryInt 带默认值的查询参数解析
func QueryInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
