package service

import "time"

// Clock 可注入的时钟能力。
// 展开器与满员度分类都只通过它读取"当前时间"，测试中可钉死。
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock 返回走真实时间的时钟
func SystemClock() Clock { return systemClock{} }
