package app

import (
	"errors"
	"net/http"

	"qat-ledger/internal/ai"
	"qat-ledger/internal/core"
	"qat-ledger/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/openai/openai-go"
)

// ErrInvalidCredentials is returned by AuthenticateUser for any login failure.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrAssistantUnavailable is returned when no OpenAI key is configured.
var ErrAssistantUnavailable = errors.New("assistant is not configured")

// validate is the shared validator instance for request and payload structs.
var validate = validator.New()

// Validate checks the validate struct tags of v.
func Validate(v any) error {
	return validate.Struct(v)
}

// IsClientError reports whether err was caused by the caller's input rather
// than by this service or an upstream collaborator.
func IsClientError(err error) bool {
	var verrs validator.ValidationErrors
	return errors.Is(err, core.ErrInvalidInput) ||
		errors.Is(err, core.ErrNotFound) ||
		errors.Is(err, storage.ErrUnsupportedType) ||
		errors.Is(err, storage.ErrTooLarge) ||
		errors.As(err, &verrs)
}

// UserMessage translates err into the Arabic message shown to the shop owner.
func UserMessage(err error) string {
	var apiErr *openai.Error
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAssistantUnavailable):
		return "المساعد الذكي غير مفعل، يرجى ضبط مفتاح OpenAI"
	case errors.Is(err, ai.ErrUnreadableAnalysis):
		return "تعذر تحليل الصورة، حاول بصورة أوضح"
	case errors.Is(err, storage.ErrUnsupportedType):
		return "نوع الملف غير مدعوم، استخدم صورة JPG أو PNG أو WEBP"
	case errors.Is(err, storage.ErrTooLarge):
		return "حجم الملف أكبر من المسموح"
	case errors.Is(err, core.ErrNotFound):
		return "السجل المطلوب غير موجود"
	case errors.Is(err, core.ErrInvalidInput), errors.As(err, &verrs):
		return "البيانات المدخلة غير صحيحة: " + err.Error()
	case errors.As(err, &apiErr):
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return "مفتاح الذكاء الاصطناعي غير صالح"
		case http.StatusTooManyRequests:
			return "تم تجاوز حد استخدام الذكاء الاصطناعي، حاول لاحقاً"
		}
		return "خدمة الذكاء الاصطناعي غير متاحة حالياً"
	default:
		return "حدث خطأ في الخادم، حاول مرة أخرى"
	}
}
