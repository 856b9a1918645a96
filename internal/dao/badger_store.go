package dao

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dgraph-io/badger/v4"
	"github.com/haierkeys/content-revision-service/internal/domain"
	"github.com/haierkeys/content-revision-service/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// BadgerConfig embedded key-value storage configuration
// BadgerConfig 嵌入式 KV 存储配置
type BadgerConfig struct {
	Path              string
	InMemory          bool
	SyncWrites        bool
	NumVersionsToKeep int
}

// badgerLogger adapts zap to badger.Logger
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.s.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.s.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.s.Infof(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.s.Debugf(format, args...) }

// BadgerStore 基于 badger 的内容存储，键布局：
//
//	content/<kind>/<id>            内容记录
//	item/<kind>/<itemID>/<id>      条目索引
//	seq/<kind>                     ID 序列
type BadgerStore struct {
	db     *badger.DB
	codec  *LedgerCodec
	logger *zap.Logger

	mu   sync.Mutex
	seqs map[domain.Kind]*badger.Sequence
}

// OpenBadger 打开 badger 存储
func OpenBadger(cfg BadgerConfig, codec *LedgerCodec, lg *zap.Logger) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger path is required for persistent storage")
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	if codec == nil {
		codec = MustLedgerCodec(false)
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, errors.Wrapf(err, "create badger directory %s", cfg.Path)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	if cfg.NumVersionsToKeep < 1 {
		cfg.NumVersionsToKeep = 1
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(cfg.NumVersionsToKeep).
		WithLogger(&badgerLogger{s: lg.Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger database")
	}
	return &BadgerStore{
		db:     db,
		codec:  codec,
		logger: lg,
		seqs:   make(map[domain.Kind]*badger.Sequence),
	}, nil
}

// RunGC 执行一轮 value log GC，没有可回收内容时返回 nil
func (s *BadgerStore) RunGC(discardRatio float64) error {
	err := s.db.RunValueLogGC(discardRatio)
	if err == nil || errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
		return nil
	}
	return err
}

// Ping 检查数据库是否仍可用
func (s *BadgerStore) Ping() error {
	if s.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}

// Close 释放序列并关闭数据库
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	for kind, seq := range s.seqs {
		if err := seq.Release(); err != nil {
			s.logger.Warn("badger sequence release failed", zap.String(logger.FieldKind, string(kind)), zap.Error(err))
		}
	}
	s.seqs = map[domain.Kind]*badger.Sequence{}
	s.mu.Unlock()
	return s.db.Close()
}

func (s *BadgerStore) sequence(kind domain.Kind) (*badger.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq, ok := s.seqs[kind]; ok {
		return seq, nil
	}
	seq, err := s.db.GetSequence([]byte("seq/"+string(kind)), 100)
	if err != nil {
		return nil, errors.Wrapf(err, "badger sequence %s", kind)
	}
	s.seqs[kind] = seq
	return seq, nil
}

// Repositories 创建全部内容类型的 badger 仓储
func (s *BadgerStore) Repositories() domain.RepositorySet {
	set := domain.RepositorySet{}
	for _, kind := range domain.Kinds {
		set[kind] = &badgerContentRepository{store: s, kind: kind}
	}
	return set
}

// badgerRecord 存储在 content/<kind>/<id> 下的记录
type badgerRecord struct {
	ID        int64  `json:"id"`
	ItemID    int64  `json:"itemId"`
	Owner     string `json:"owner"`
	Text      string `json:"text"`
	BaseText  string `json:"baseText"`
	Revisions string `json:"revisions"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// badgerContentRepository 实现 domain.ContentRepository 接口
type badgerContentRepository struct {
	store *BadgerStore
	kind  domain.Kind
}

func (r *badgerContentRepository) Kind() domain.Kind {
	return r.kind
}

func (r *badgerContentRepository) contentPrefix() []byte {
	return []byte(fmt.Sprintf("content/%s/", r.kind))
}

func (r *badgerContentRepository) contentKey(id int64) []byte {
	return []byte(fmt.Sprintf("content/%s/%020d", r.kind, id))
}

func (r *badgerContentRepository) itemPrefix(itemID int64) []byte {
	return []byte(fmt.Sprintf("item/%s/%020d/", r.kind, itemID))
}

func (r *badgerContentRepository) itemKey(itemID, id int64) []byte {
	return []byte(fmt.Sprintf("item/%s/%020d/%020d", r.kind, itemID, id))
}

func (r *badgerContentRepository) toRecord(c *domain.Content) (*badgerRecord, error) {
	encoded, err := r.store.codec.Encode(c.Ledger.Revisions)
	if err != nil {
		return nil, err
	}
	return &badgerRecord{
		ID:        c.ID,
		ItemID:    c.ItemID,
		Owner:     c.Owner,
		Text:      c.Ledger.Current,
		BaseText:  c.Ledger.Base,
		Revisions: encoded,
		CreatedAt: c.CreatedAt.UnixMilli(),
		UpdatedAt: c.UpdatedAt.UnixMilli(),
	}, nil
}

func (r *badgerContentRepository) toDomain(rec *badgerRecord) (*domain.Content, error) {
	revs, err := r.store.codec.Decode(rec.Revisions)
	if err != nil {
		return nil, errors.Wrapf(err, "%s content %d", r.kind, rec.ID)
	}
	return &domain.Content{
		ID:     rec.ID,
		Kind:   r.kind,
		ItemID: rec.ItemID,
		Owner:  rec.Owner,
		Ledger: domain.ContentLedger{
			Current:   rec.Text,
			Base:      rec.BaseText,
			Revisions: revs,
		},
		CreatedAt: time.UnixMilli(rec.CreatedAt),
		UpdatedAt: time.UnixMilli(rec.UpdatedAt),
	}, nil
}

// get 在事务内读取记录
func (r *badgerContentRepository) get(txn *badger.Txn, id int64) (*badgerRecord, error) {
	item, err := txn.Get(r.contentKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.ErrContentNotFound
		}
		return nil, err
	}
	rec := &badgerRecord{}
	err = item.Value(func(val []byte) error {
		return sonic.Unmarshal(val, rec)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s content %d", r.kind, id)
	}
	return rec, nil
}

func (r *badgerContentRepository) put(txn *badger.Txn, rec *badgerRecord) error {
	data, err := sonic.Marshal(rec)
	if err != nil {
		return err
	}
	return txn.Set(r.contentKey(rec.ID), data)
}

// GetByID 根据ID获取内容
func (r *badgerContentRepository) GetByID(ctx context.Context, id int64) (*domain.Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec *badgerRecord
	err := r.store.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = r.get(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.toDomain(rec)
}

// Create 创建内容
func (r *badgerContentRepository) Create(ctx context.Context, c *domain.Content) (*domain.Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seq, err := r.store.sequence(r.kind)
	if err != nil {
		return nil, err
	}
	next, err := seq.Next()
	if err != nil {
		return nil, errors.Wrap(err, "next content id")
	}

	out := *c
	out.ID = int64(next) + 1
	out.Kind = r.kind
	now := time.Now()
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.UpdatedAt = now

	rec, err := r.toRecord(&out)
	if err != nil {
		return nil, err
	}
	err = r.store.db.Update(func(txn *badger.Txn) error {
		if err := r.put(txn, rec); err != nil {
			return err
		}
		return txn.Set(r.itemKey(rec.ItemID, rec.ID), nil)
	})
	if err != nil {
		r.store.logger.Error("content create failed",
			zap.String(logger.FieldMethod, "badgerContentRepository.Create"),
			zap.String(logger.FieldKind, string(r.kind)),
			zap.Error(err))
		return nil, err
	}
	c.CreatedAt, c.UpdatedAt = out.CreatedAt, out.UpdatedAt
	return &out, nil
}

// Save 保存文本与账本
func (r *badgerContentRepository) Save(ctx context.Context, c *domain.Content) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.UpdatedAt = time.Now()
	rec, err := r.toRecord(c)
	if err != nil {
		return err
	}
	return r.store.db.Update(func(txn *badger.Txn) error {
		old, err := r.get(txn, c.ID)
		if err != nil {
			return err
		}
		// 条目与创建时间不随保存变化
		rec.ItemID = old.ItemID
		rec.CreatedAt = old.CreatedAt
		return r.put(txn, rec)
	})
}

// Delete 删除内容及条目索引
func (r *badgerContentRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.store.db.Update(func(txn *badger.Txn) error {
		rec, err := r.get(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(r.itemKey(rec.ItemID, id)); err != nil {
			return err
		}
		return txn.Delete(r.contentKey(id))
	})
}

// ListByItem 分页获取条目下的内容，按更新时间倒序
func (r *badgerContentRepository) ListByItem(ctx context.Context, itemID int64, page, pageSize int) ([]*domain.Content, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	var recs []*badgerRecord
	err := r.store.db.View(func(txn *badger.Txn) error {
		prefix := r.itemPrefix(itemID)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id, err := strconv.ParseInt(string(it.Item().Key()[len(prefix):]), 10, 64)
			if err != nil {
				return errors.Wrapf(err, "parse item index key %q", it.Item().Key())
			}
			rec, err := r.get(txn, id)
			if err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].UpdatedAt != recs[j].UpdatedAt {
			return recs[i].UpdatedAt > recs[j].UpdatedAt
		}
		return recs[i].ID > recs[j].ID
	})

	total := int64(len(recs))
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start > len(recs) {
		start = len(recs)
	}
	end := min(start+pageSize, len(recs))

	list := make([]*domain.Content, 0, end-start)
	for _, rec := range recs[start:end] {
		c, err := r.toDomain(rec)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, c)
	}
	return list, total, nil
}

// ListIDs 按ID升序获取 afterID 之后的内容ID
func (r *badgerContentRepository) ListIDs(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var ids []int64
	err := r.store.db.View(func(txn *badger.Txn) error {
		prefix := r.contentPrefix()
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(r.contentKey(afterID + 1)); it.ValidForPrefix(prefix) && len(ids) < limit; it.Next() {
			id, err := strconv.ParseInt(string(it.Item().Key()[len(prefix):]), 10, 64)
			if err != nil {
				return errors.Wrapf(err, "parse content key %q", it.Item().Key())
			}
			ids = append(ids, id)
		}
		return nil
	})
	return ids, err
}
