package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrSessionAlreadyOpen 当前会话已有未签退的打卡记录
var ErrSessionAlreadyOpen = errors.New("当前会话已有未签退的打卡记录")

// ErrSessionNotOpen 当前会话没有可签退的打卡记录
var ErrSessionNotOpen = errors.New("当前会话没有可签退的打卡记录")

// ErrSessionAlreadyClosed 当前会话已完成打卡，盲目重试不应二次签退
var ErrSessionAlreadyClosed = errors.New("当前会话已完成打卡")
