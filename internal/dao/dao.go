// Package dao 实现数据访问层
package dao

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/haierkeys/content-revision-service/internal/model"
	"github.com/haierkeys/content-revision-service/pkg/fileurl"
	"github.com/haierkeys/content-revision-service/pkg/util"
	"github.com/haierkeys/gormTracing"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// DatabaseConfig 数据库配置（DAO 层使用）
type DatabaseConfig struct {
	Type            string // sqlite, mysql, postgres
	Path            string // SQLite 文件路径
	UserName        string
	Password        string
	Host            string // host 或 host:port
	Name            string
	TablePrefix     string
	AutoMigrate     bool
	Charset         string
	ParseTime       bool
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime string
	ConnMaxIdleTime string
	RunMode         string
}

// Dao 数据访问对象，持有数据库连接与账本编解码器
type Dao struct {
	DB     *gorm.DB
	config *DatabaseConfig
	logger *zap.Logger
	codec  *LedgerCodec

	onceKeys sync.Map // key -> *migrateOnce
}

type migrateOnce struct {
	once sync.Once
	err  error
}

// DaoOption Dao 配置选项
type DaoOption func(*Dao)

// WithConfig 设置数据库配置
func WithConfig(cfg *DatabaseConfig) DaoOption {
	return func(d *Dao) {
		d.config = cfg
	}
}

// WithLogger 设置日志器
func WithLogger(lg *zap.Logger) DaoOption {
	return func(d *Dao) {
		d.logger = lg
	}
}

// WithLedgerCodec 设置账本编解码器
func WithLedgerCodec(codec *LedgerCodec) DaoOption {
	return func(d *Dao) {
		d.codec = codec
	}
}

// New 创建 Dao 实例
func New(db *gorm.DB, opts ...DaoOption) *Dao {
	d := &Dao{DB: db}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.config == nil {
		d.config = &DatabaseConfig{AutoMigrate: true}
	}
	if d.codec == nil {
		d.codec = MustLedgerCodec(false)
	}
	return d
}

// Codec 返回账本编解码器
func (d *Dao) Codec() *LedgerCodec {
	return d.codec
}

// Logger 返回日志器
func (d *Dao) Logger() *zap.Logger {
	return d.logger
}

// MigrateOnce runs model.AutoMigrate for key once per Dao; a failed migration is retried on the next call.
// MigrateOnce 每个 key 只迁移一次，失败时下次调用重试
func (d *Dao) MigrateOnce(key string) error {
	if !d.config.AutoMigrate {
		return nil
	}
	v, _ := d.onceKeys.LoadOrStore(key, &migrateOnce{})
	m := v.(*migrateOnce)
	m.once.Do(func() {
		m.err = model.AutoMigrate(d.DB, key)
		if m.err != nil {
			d.logger.Error("auto migrate failed", zap.String("key", key), zap.Error(m.err))
		}
	})
	if m.err != nil {
		d.onceKeys.CompareAndDelete(key, m)
		return m.err
	}
	return nil
}

// NewDBEngineWithConfig opens the database described by c
// NewDBEngineWithConfig 根据配置创建数据库连接
func NewDBEngineWithConfig(c DatabaseConfig, lg *zap.Logger) (*gorm.DB, error) {
	dialector, err := useDialector(c)
	if err != nil {
		return nil, err
	}

	level := logger.Silent
	if c.RunMode == "debug" {
		level = logger.Info
	}
	if lg == nil {
		lg = zap.NewNop()
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(zap.NewStdLog(lg), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix, // 表名前缀，`NoteContent` 的表名应该是 `t_note_content`
			SingularTable: true,          // 使用单数表名
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", c.Type)
	}

	// SQL span 挂在请求 span 下，未配置 jaeger 时为 noop
	if err := db.Use(&gormTracing.OpentracingPlugin{}); err != nil {
		return nil, errors.Wrap(err, "register tracing plugin")
	}

	// 获取通用数据库对象 sql.DB ，然后使用其提供的功能
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if c.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.Type == "sqlite" || c.Type == "" {
		// SQLite 单写者
		sqlDB.SetMaxOpenConns(1)
	}
	if c.ConnMaxLifetime != "" {
		if d, err := util.ParseDuration(c.ConnMaxLifetime); err == nil {
			sqlDB.SetConnMaxLifetime(d)
		}
	}
	if c.ConnMaxIdleTime != "" {
		if d, err := util.ParseDuration(c.ConnMaxIdleTime); err == nil {
			sqlDB.SetConnMaxIdleTime(d)
		}
	}

	return db, nil
}

func useDialector(c DatabaseConfig) (gorm.Dialector, error) {
	switch c.Type {
	case "mysql":
		charset := c.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=%t&loc=Local",
			c.UserName,
			c.Password,
			c.Host,
			c.Name,
			charset,
			c.ParseTime,
		)), nil
	case "postgres":
		host, port := c.Host, "5432"
		if h, p, err := net.SplitHostPort(c.Host); err == nil {
			host, port = h, p
		}
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			host, c.UserName, c.Password, c.Name, port)), nil
	case "sqlite", "":
		if c.Path != ":memory:" && !fileurl.IsExist(c.Path) {
			if err := fileurl.CreatePath(c.Path, os.ModePerm); err != nil {
				return nil, err
			}
		}
		return sqlite.Open(c.Path), nil
	}
	return nil, fmt.Errorf("unsupported database type %q", c.Type)
}
