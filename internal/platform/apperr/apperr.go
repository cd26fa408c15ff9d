// Package apperr 定义了整个应用共享的错误类型。
// 业务层只关心错误的种类(Kind)，HTTP状态码的映射由 httpx 负责。
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind 是错误的分类
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindAlreadyExists
	KindLotteryClosed
	KindInvalidOperation
	KindAlreadyClosed
	KindNoBallotsFound
	KindDuplicateWinner
	KindPersistenceFailure
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindNotFound:           "not_found",
	KindAlreadyExists:      "already_exists",
	KindLotteryClosed:      "lottery_closed",
	KindInvalidOperation:   "invalid_operation",
	KindAlreadyClosed:      "already_closed",
	KindNoBallotsFound:     "no_ballots_found",
	KindDuplicateWinner:    "duplicate_winner",
	KindPersistenceFailure: "persistence_failure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Error 携带错误种类、发生位置(Op)以及用于日志的上下文字段。
type Error struct {
	Kind   Kind
	Op     string
	Msg    string
	Fields map[string]any
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else {
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 创建一个指定种类的错误。
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Newf 与 New 相同，但支持格式化消息。
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap 用指定种类包装一个底层错误。err 为 nil 时返回 nil。
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// With 附加一个上下文字段，返回同一个错误以便链式调用。
func (e *Error) With(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

// KindOf 返回错误链中第一个 *Error 的种类。
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// Is 判断错误链中是否存在给定种类的 *Error。
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message 返回面向用户的消息，内部错误不会暴露底层细节。
func Message(err error) string {
	var ae *Error
	if !errors.As(err, &ae) {
		return "内部错误"
	}
	if ae.Kind == KindPersistenceFailure || ae.Kind == KindUnknown {
		return "内部错误"
	}
	if ae.Msg != "" {
		return ae.Msg
	}
	return ae.Kind.String()
}

// FieldsOf 收集错误链上所有 *Error 的上下文字段，内层优先级较低。
func FieldsOf(err error) map[string]any {
	fields := make(map[string]any)
	var chain []*Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			chain = append(chain, ae)
		}
		err = errors.Unwrap(err)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].Fields {
			fields[k] = v
		}
	}
	return fields
}
