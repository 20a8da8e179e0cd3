package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrCapacityExceeded 容量冲突：写入时名额已满
var ErrCapacityExceeded = errors.New("课程名额已满")
