// Package convert 字符串与结构体的转换工具
package convert

import (
	"strconv"

	"github.com/jinzhu/copier"
)

// StrTo 字符串转数值
type StrTo string

func (s StrTo) String() string {
	return string(s)
}

func (s StrTo) Int() (int, error) {
	return strconv.Atoi(s.String())
}

// MustInt 解析失败时返回 0
func (s StrTo) MustInt() int {
	v, _ := s.Int()
	return v
}

func (s StrTo) Int64() (int64, error) {
	return strconv.ParseInt(s.String(), 10, 64)
}

// MustInt64 解析失败时返回 0
func (s StrTo) MustInt64() int64 {
	v, _ := s.Int64()
	return v
}

// StructAssign 把 src 中与 dst 同名的字段复制到 dst，dst 必须是指针
func StructAssign(src any, dst any) error {
	return copier.Copy(dst, src)
}
