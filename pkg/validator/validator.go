// Package validator plugs go-playground/validator into gin binding with en/zh translations.
// Package validator 将 validator/v10 接入 gin 的参数绑定，并注册中英文翻译
package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	validatorV10 "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// CustomValidator lazily builds one validator/v10 instance for gin
// CustomValidator 延迟初始化的 gin 校验器
type CustomValidator struct {
	once     sync.Once
	validate *validatorV10.Validate
}

func NewCustomValidator() *CustomValidator {
	return &CustomValidator{}
}

// ValidateStruct validates structs and pointers to structs; other values pass
func (v *CustomValidator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}
	value := reflect.ValueOf(obj)
	switch value.Kind() {
	case reflect.Ptr:
		if value.IsNil() {
			return nil
		}
		return v.ValidateStruct(value.Elem().Interface())
	case reflect.Struct:
		v.lazyinit()
		return v.validate.Struct(obj)
	case reflect.Slice, reflect.Array:
		for i := 0; i < value.Len(); i++ {
			if err := v.ValidateStruct(value.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// Engine returns the underlying *validatorV10.Validate
func (v *CustomValidator) Engine() any {
	v.lazyinit()
	return v.validate
}

func (v *CustomValidator) lazyinit() {
	v.once.Do(func() {
		v.validate = validatorV10.New()
		v.validate.SetTagName("binding")
		// 错误信息中使用 json 字段名
		v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

var _ binding.StructValidator = (*CustomValidator)(nil)

var (
	setupOnce sync.Once
	setupUni  *ut.UniversalTranslator
	setupErr  error
)

// Setup installs CustomValidator as gin's binding validator and returns the
// translator set used by the lang middleware. Safe to call more than once.
//
// Setup 替换 gin 默认校验器并注册中英文翻译，可重复调用
func Setup() (*ut.UniversalTranslator, error) {
	setupOnce.Do(func() {
		customValidator := NewCustomValidator()
		binding.Validator = customValidator

		validate := customValidator.Engine().(*validatorV10.Validate)
		uni := ut.New(en.New(), en.New(), zh.New())

		zhTran, _ := uni.GetTranslator("zh")
		enTran, _ := uni.GetTranslator("en")

		if err := zh_translations.RegisterDefaultTranslations(validate, zhTran); err != nil {
			setupErr = err
			return
		}
		if err := en_translations.RegisterDefaultTranslations(validate, enTran); err != nil {
			setupErr = err
			return
		}
		setupUni = uni
	})
	return setupUni, setupErr
}
