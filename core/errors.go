package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和模块（Module）
//   - 支持 errors.As 穿透 fmt.Errorf("%w") 包装
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - Model 错误：UNAVAILABLE（无可用模型）, INVALID_INPUT（维度不匹配）
//   - Train 错误：INSUFFICIENT_DATA
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "UNAVAILABLE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "model", "train"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误链中是否有 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound         = "NOT_FOUND"         // 资源不存在
	ErrorCodeNotSupported     = "NOT_SUPPORTED"     // 操作不支持
	ErrorCodeUnavailable      = "UNAVAILABLE"       // 服务不可用
	ErrorCodeInvalidInput     = "INVALID_INPUT"     // 输入无效
	ErrorCodeInternalError    = "INTERNAL_ERROR"    // 内部错误
	ErrorCodeInsufficientData = "INSUFFICIENT_DATA" // 训练样本不足
)

// 模块名称常量
const (
	ModuleStore   = "store"
	ModuleFeature = "feature"
	ModuleHistory = "history"
	ModuleModel   = "model"
	ModuleTrain   = "train"
	ModuleEngine  = "engine"
)

var (
	// ErrSellerNotFound 卖家画像不存在
	ErrSellerNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: seller not found")

	// ErrRequestNotFound 需求不存在
	ErrRequestNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: request not found")

	// ErrModelUnavailable 当前没有已训练的模型
	ErrModelUnavailable = NewDomainError(ModuleModel, ErrorCodeUnavailable, "model: no trained model available")
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	return hasCode(err, ErrorCodeNotSupported)
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	return hasCode(err, ErrorCodeUnavailable)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}
