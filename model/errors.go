package model

import (
	"errors"
	"fmt"
)

// FailureKind 区分外部查询失败的原因，降级策略和提示信息都按它来选
type FailureKind int

const (
	KindOther FailureKind = iota
	KindNotFound
	KindAccessDenied
	KindZombie
)

func (k FailureKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindAccessDenied:
		return "access denied"
	case KindZombie:
		return "zombie"
	default:
		return "error"
	}
}

// LookupError 是外部协作方（连接枚举、进程查询、IO 计数、终止进程）返回的错误
type LookupError struct {
	Op   string
	Pid  int32
	Kind FailureKind
	Err  error
}

func (e *LookupError) Error() string {
	if e.Pid == 0 {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s pid %d: %s: %v", e.Op, e.Pid, e.Kind, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// KindOf 取出错误的类别，非 LookupError 一律算 KindOther
func KindOf(err error) FailureKind {
	var le *LookupError
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindOther
}
