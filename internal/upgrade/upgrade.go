// Package upgrade 执行有版本号的数据修复脚本，每个脚本只执行一次
package upgrade

import (
	"context"
	"strings"
	"time"

	"github.com/haierkeys/content-revision-service/internal/dao"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/mod/semver"
	"gorm.io/gorm"
)

// SchemaVersion 数据库版本记录表
type SchemaVersion struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Version     string    `gorm:"not null;uniqueIndex;type:varchar(64)" json:"version"`
	Description string    `gorm:"type:text" json:"description"`
	AppliedAt   time.Time `gorm:"not null" json:"appliedAt"`
}

// TableName 指定表名
func (SchemaVersion) TableName() string {
	return "schema_version"
}

// Migration 定义升级接口
type Migration interface {
	Version() string
	Description() string
	Up(ctx context.Context, tx *gorm.DB, codec *dao.LedgerCodec) error
}

// MigrationManager 升级管理器
type MigrationManager struct {
	db         *gorm.DB
	codec      *dao.LedgerCodec
	logger     *zap.Logger
	migrations []Migration
}

// NewMigrationManager 创建升级管理器
func NewMigrationManager(db *gorm.DB, codec *dao.LedgerCodec, logger *zap.Logger) *MigrationManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MigrationManager{
		db:     db,
		codec:  codec,
		logger: logger,
		migrations: []Migration{
			// 在这里注册所有的升级脚本
			&RevisionSummaryBackfill{},
		},
	}
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}

// Run applies every migration not yet recorded whose version is not newer than runningVersion.
// Run 执行所有未记录且版本号不高于当前程序版本的升级脚本
func (m *MigrationManager) Run(ctx context.Context, runningVersion string) (int, error) {
	if err := m.db.WithContext(ctx).AutoMigrate(&SchemaVersion{}); err != nil {
		return 0, errors.Wrap(err, "failed to create schema_version table")
	}

	var versions []SchemaVersion
	if err := m.db.WithContext(ctx).Find(&versions).Error; err != nil {
		return 0, errors.Wrap(err, "failed to get applied versions")
	}
	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[canonical(v.Version)] = true
	}

	running := canonical(runningVersion)
	if !semver.IsValid(running) {
		return 0, errors.Errorf("running version %q is not a valid semver", runningVersion)
	}

	executed := 0
	for _, migration := range m.migrations {
		scriptVersion := canonical(migration.Version())
		if applied[scriptVersion] {
			continue
		}
		// 高于当前程序版本的脚本留给后续版本执行
		if semver.Compare(scriptVersion, running) > 0 {
			m.logger.Info("skip migration newer than running version",
				zap.String("scriptVersion", scriptVersion),
				zap.String("runningVersion", running))
			continue
		}

		m.logger.Info("applying migration",
			zap.String("scriptVersion", scriptVersion),
			zap.String("desc", migration.Description()))

		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(ctx, tx, m.codec); err != nil {
				return errors.Wrap(err, "migration failed")
			}
			record := &SchemaVersion{
				Version:     scriptVersion,
				Description: migration.Description(),
				AppliedAt:   time.Now(),
			}
			return errors.Wrap(tx.Create(record).Error, "failed to record version")
		})
		if err != nil {
			return executed, errors.Wrapf(err, "failed to apply migration %s", scriptVersion)
		}

		m.logger.Info("migration applied successfully", zap.String("scriptVersion", scriptVersion))
		executed++
	}

	if executed == 0 {
		m.logger.Info("database is already up to date")
	} else {
		m.logger.Info("upgrade completed", zap.Int("migrations_applied", executed))
	}
	return executed, nil
}

// Execute 执行升级，供启动流程调用
func Execute(ctx context.Context, db *gorm.DB, codec *dao.LedgerCodec, logger *zap.Logger, runningVersion string) error {
	_, err := NewMigrationManager(db, codec, logger).Run(ctx, runningVersion)
	return err
}
