package model

import "github.com/haierkeys/content-revision-service/pkg/timex"

// ContentColumns columns shared by every content table
// ContentColumns 各内容表共用的字段
type ContentColumns struct {
	ID             int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"id"`
	ItemID         int64      `gorm:"column:item_id;not null;index" json:"itemId" form:"itemId"`
	Owner          string     `gorm:"column:owner;size:128;not null;default:''" json:"owner" form:"owner"`
	Text           string     `gorm:"column:text" json:"text" form:"text"`
	BaseText       string     `gorm:"column:base_text" json:"baseText" form:"baseText"`
	Revisions      string     `gorm:"column:revisions" json:"revisions" form:"revisions"` // Encoded revision list // 编码后的版本列表
	RevisionCount  int        `gorm:"column:revision_count;not null;default:0" json:"revisionCount" form:"revisionCount"`
	LastRevisionID int64      `gorm:"column:last_revision_id;not null;default:0" json:"lastRevisionId" form:"lastRevisionId"`
	CreatedAt      timex.Time `gorm:"column:created_at;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt      timex.Time `gorm:"column:updated_at;index;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}

// Columns returns the shared columns
func (c *ContentColumns) Columns() *ContentColumns {
	return c
}

// Table names follow the naming strategy: <prefix>note_content, <prefix>task_content, <prefix>transaction_content.
// 表名由命名策略生成，带表前缀

// NoteContent mapped from table <note_content>
type NoteContent struct {
	ContentColumns `gorm:"embedded"`
}

// TaskContent mapped from table <task_content>
type TaskContent struct {
	ContentColumns `gorm:"embedded"`
}

// TransactionContent mapped from table <transaction_content>
type TransactionContent struct {
	ContentColumns `gorm:"embedded"`
}
