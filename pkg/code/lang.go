package code

import (
	"errors"
	"reflect"
	"slices"
	"sync/atomic"
)

// lang holds the English and Chinese text of a code
// lang 存储响应码的英文和中文文本
type lang struct {
	en    string // English // 英文
	zh_cn string // Chinese // 中文
}

// FALLBACK_LNG language used when the selected one has no text
const FALLBACK_LNG = "en"

// current language, empty until SetGlobalDefaultLang // 当前语言，未设置时为英文
var lng atomic.Value

// GetMessage returns the text in the global language, falling back to English
// GetMessage 返回当前全局语言的文本，缺失时回退到英文
func (l lang) GetMessage() string {
	val := reflect.ValueOf(l)
	if field := val.FieldByName(GetGlobalDefaultLang()); field.IsValid() && field.String() != "" {
		return field.String()
	}
	return val.FieldByName(FALLBACK_LNG).String()
}

// GetSupportedLanguages returns the language keys of lang
// GetSupportedLanguages 返回支持的语言
func GetSupportedLanguages() []string {
	typ := reflect.TypeOf(lang{})
	languages := make([]string, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		languages = append(languages, typ.Field(i).Name)
	}
	return languages
}

// SetGlobalDefaultLang sets the global language; unknown values reset it to English
// SetGlobalDefaultLang 设置全局语言，不支持的语言会重置为英文
func SetGlobalDefaultLang(language string) error {
	if slices.Contains(GetSupportedLanguages(), language) {
		lng.Store(language)
		return nil
	}
	lng.Store(FALLBACK_LNG)
	return errors.New("unsupported language type, set defaulting to " + FALLBACK_LNG)
}

// GetGlobalDefaultLang 获取全局语言
// 包级变量（如 Success）在 init 之前构造，此时尚未设置语言
func GetGlobalDefaultLang() string {
	if v, ok := lng.Load().(string); ok {
		return v
	}
	return FALLBACK_LNG
}
