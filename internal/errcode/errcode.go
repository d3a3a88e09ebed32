package errcode

import (
	"errors"
	"fmt"
)

// 错误码约定：
// - 0：无错误
// - 4xxx：调用方可恢复的业务错误，仅作用于当前请求
// - 5xxx：系统错误
const (
	OK               = 0
	InvalidInput     = 4000
	PermissionDenied = 4003
	ResourceMissing  = 4004
	Duplicate        = 4009
	SystemError      = 5000
)

// Kind 区分业务错误的类别，API 层据此映射 HTTP 状态码。
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindNotFound
	KindPermission
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindPermission:
		return "permission"
	default:
		return "unknown"
	}
}

// Code 返回该类别对应的数字错误码。
func (k Kind) Code() int {
	switch k {
	case KindValidation:
		return InvalidInput
	case KindConflict:
		return Duplicate
	case KindNotFound:
		return ResourceMissing
	case KindPermission:
		return PermissionDenied
	default:
		return SystemError
	}
}

// Error 是带类别的业务错误。Message 可以直接返回给调用方。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }
func Conflict(msg string) *Error   { return &Error{Kind: KindConflict, Message: msg} }
func NotFound(msg string) *Error   { return &Error{Kind: KindNotFound, Message: msg} }
func Permission(msg string) *Error { return &Error{Kind: KindPermission, Message: msg} }

// Validationf 以格式化字符串构造校验错误。
func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

// Wrap 为底层错误附加业务类别。
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf 返回 err 链上第一个业务错误的类别。
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is 判断 err 是否属于指定类别。
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
