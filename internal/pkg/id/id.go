// Package id 实体ID，统一使用 UUID 字符串作为 MongoDB _id
package id

import (
	"github.com/google/uuid"
)

// New 生成新的实体ID
func New() string {
	return uuid.NewString()
}

// Valid 判断路径参数是否可能是实体ID，不合法的ID无需查库
func Valid(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
