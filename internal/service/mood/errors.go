package mood

import "net/http"

// Kind 区分分析失败的类别，外层据此选择 HTTP 状态码与重试提示。
type Kind string

const (
	KindValidation    Kind = "validation"
	KindTimeout       Kind = "timeout"
	KindRateLimited   Kind = "rate_limited"
	KindQuotaExceeded Kind = "quota_exceeded"
	KindUpstream      Kind = "upstream"
	KindEmptyResponse Kind = "empty_response"
	KindIncomplete    Kind = "incomplete"
)

// HTTPStatus maps the error kind to the status code exposed to the client.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindQuotaExceeded:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller may usefully try again without
// operator intervention.
func (k Kind) Retryable() bool {
	switch k {
	case KindValidation, KindQuotaExceeded:
		return false
	}
	return true
}

// AnalysisError 携带面向用户的简短信息；上游的原始错误只保留在 cause 里用于日志。
type AnalysisError struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *AnalysisError) Error() string { return e.Message }

func (e *AnalysisError) Unwrap() error { return e.cause }

func newError(kind Kind, message string, cause error) *AnalysisError {
	return &AnalysisError{Kind: kind, Message: message, cause: cause}
}
