// Package errors 定义面向调用方的错误分类。
//
// 业务层的具体错误通过 %w 包装其中一种分类，接口层只按分类映射 HTTP 状态，
// 不向调用方暴露内部细节。
package errors

import "errors"

var (
	// ErrUnauthenticated 缺少、无效或过期的凭证
	ErrUnauthenticated = errors.New("未认证")
	// ErrForbidden 角色或成员关系校验失败；目标是否存在不对外披露
	ErrForbidden = errors.New("无权限访问")
	// ErrNotFound 引用链上的实体确实不存在
	ErrNotFound = errors.New("资源不存在")
	// ErrInvalidInput 标识符格式错误等输入问题
	ErrInvalidInput = errors.New("参数无效")
	// ErrInternal 存储或传输故障
	ErrInternal = errors.New("服务器内部错误")
)

// Kind 错误分类
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInvalidInput
)

// String 返回分类名称，用于日志与指标标签
func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "internal"
	}
}

// KindOf 判断 err 所属分类，未识别的错误一律归为 Internal
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	default:
		return KindInternal
	}
}
