// Package domain 定义领域模型和接口
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/haierkeys/content-revision-service/pkg/revision"
)

// Kind content kind, one storage table per kind
// Kind 内容类型，每种类型单独存储
type Kind string

const (
	KindNote        Kind = "note"
	KindTask        Kind = "task"
	KindTransaction Kind = "transaction"
)

// Kinds all supported kinds // 所有支持的内容类型
var Kinds = []Kind{KindNote, KindTask, KindTransaction}

var (
	// ErrContentNotFound 内容不存在
	ErrContentNotFound = errors.New("content not found")
	// ErrUnknownKind 不支持的内容类型
	ErrUnknownKind = errors.New("unknown content kind")
)

// ParseKind validates a kind name
// ParseKind 校验内容类型
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// ContentLedger revision ledger of a text content
// ContentLedger 文本内容的版本账本
type ContentLedger = revision.Ledger[string, string]

// Content 可编辑内容领域模型
type Content struct {
	ID        int64
	Kind      Kind
	ItemID    int64  // Owning item // 所属条目
	Owner     string // Owner identifier // 所有者
	Ledger    ContentLedger
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Text returns the live text
// Text 返回当前文本
func (c *Content) Text() string {
	return c.Ledger.Current
}

// Key returns the serialization key of the content
// Key 返回内容的串行化键
func (c *Content) Key() string {
	return ContentKey(c.Kind, c.ID)
}

// ContentKey builds "<kind>:<id>"
func ContentKey(kind Kind, id int64) string {
	return fmt.Sprintf("%s:%d", kind, id)
}
