// Package model 定义数据模型
package model

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate migrates the table of the given model key
// AutoMigrate 迁移指定模型对应的表
func AutoMigrate(db *gorm.DB, key string) error {
	switch key {
	case "NoteContent":
		return db.AutoMigrate(NoteContent{})
	case "TaskContent":
		return db.AutoMigrate(TaskContent{})
	case "TransactionContent":
		return db.AutoMigrate(TransactionContent{})
	}
	return fmt.Errorf("model: unknown migrate key %q", key)
}
