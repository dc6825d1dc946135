package services

import (
	"errors"
	"fmt"
)

// 错误分类。具体错误都归属其中之一，调用方用 errors.Is 判断类别。
var (
	ErrAuth       = errors.New("认证失败")
	ErrValidation = errors.New("数据校验失败")
	ErrNotFound   = errors.New("记录不存在")
	ErrUpstream   = errors.New("数据源请求失败")
	ErrStore      = errors.New("数据库错误")
)

// appError 带分类的业务错误，Error() 即面向用户的提示
type appError struct {
	kind error
	msg  string
}

func (e *appError) Error() string { return e.msg }
func (e *appError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &appError{kind: kind, msg: msg}
}

var (
	ErrDuplicateUsername = newError(ErrAuth, "该用户名已被占用")
	ErrUnknownUser       = newError(ErrAuth, "用户名不存在")
	ErrWrongPassword     = newError(ErrAuth, "密码错误")
	ErrNotAuthenticated  = newError(ErrAuth, "用户未登录")

	ErrEmptyCredentials = newError(ErrValidation, "请输入用户名和密码")
	ErrEmptyBody        = newError(ErrValidation, "评论内容不能为空")
	ErrParentMismatch   = newError(ErrValidation, "回复的评论不属于该事件")
	ErrMalformedPayload = newError(ErrValidation, "数据格式错误")

	ErrCommentNotFound = newError(ErrNotFound, "评论不存在")
	ErrEventNotFound   = newError(ErrNotFound, "事件不存在")
)

// storeErr 把底层数据库错误归入 ErrStore，保留原始错误供日志使用
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStore, op, err)
}

// upstreamErr 把数据源请求中的各种失败归入 ErrUpstream
func upstreamErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUpstream, fmt.Sprintf(format, args...))
}

// Message 将错误转换为面向用户的提示，数据库与数据源的内部细节不直接暴露
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ae *appError
	if errors.As(err, &ae) {
		return ae.msg
	}
	switch {
	case errors.Is(err, ErrStore):
		return "服务暂时不可用，请稍后重试"
	case errors.Is(err, ErrUpstream):
		return "无法获取最新数据"
	case errors.Is(err, ErrAuth), errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
		return err.Error()
	default:
		return "操作失败，请重试"
	}
}
