// Package validator 为 gin 的请求绑定注册自定义校验规则。
package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	// notBlankTag 字符串去除首尾空白后非空
	notBlankTag = "notblank"
	// userIDTag 外部系统的用户标识：非空白、无内部空白、不超过 64 字符
	userIDTag = "userid"
)

// Register 向 gin 默认校验引擎注册自定义规则，启动时调用一次
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("gin 校验引擎不是 validator/v10")
	}
	return Setup(v)
}

// Setup 在给定的 validator 实例上注册规则与 JSON 字段名
func Setup(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation(notBlankTag, notBlank); err != nil {
		return err
	}
	return v.RegisterValidation(userIDTag, userID)
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func userID(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" || len(s) > 64 {
		return false
	}
	return !strings.ContainsAny(s, " \t\r\n")
}

// Describe 将绑定错误转换为面向调用方的简短说明
// 非校验错误（如 JSON 语法错误）统一返回通用提示
func Describe(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return "请求体格式错误"
	}
	fields := make([]string, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
	}
	return "参数校验失败: " + strings.Join(fields, ", ")
}
