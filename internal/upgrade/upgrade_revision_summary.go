package upgrade

import (
	"context"

	"github.com/haierkeys/content-revision-service/internal/dao"
	"github.com/haierkeys/content-revision-service/internal/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// RevisionSummaryBackfill fills revision_count and last_revision_id of rows
// written before those columns existed.
//
// RevisionSummaryBackfill 为旧数据补齐版本数与最新版本号字段
type RevisionSummaryBackfill struct{}

func (m *RevisionSummaryBackfill) Version() string { return "0.1.0" }

func (m *RevisionSummaryBackfill) Description() string {
	return "backfill revision_count and last_revision_id from encoded ledgers"
}

func (m *RevisionSummaryBackfill) Up(ctx context.Context, tx *gorm.DB, codec *dao.LedgerCodec) error {
	if err := backfill[model.NoteContent](ctx, tx, codec); err != nil {
		return err
	}
	if err := backfill[model.TaskContent](ctx, tx, codec); err != nil {
		return err
	}
	return backfill[model.TransactionContent](ctx, tx, codec)
}

type contentModel[T any] interface {
	*T
	Columns() *model.ContentColumns
}

func backfill[T any, PT contentModel[T]](ctx context.Context, tx *gorm.DB, codec *dao.LedgerCodec) error {
	tx = tx.WithContext(ctx)
	if !tx.Migrator().HasTable(PT(new(T))) {
		return nil
	}

	var rows []T
	var updateErr error
	res := tx.Model(PT(new(T))).
		Where("revision_count = ? AND revisions <> ?", 0, "").
		FindInBatches(&rows, 200, func(batch *gorm.DB, _ int) error {
			for i := range rows {
				cols := PT(&rows[i]).Columns()
				revs, err := codec.Decode(cols.Revisions)
				if err != nil {
					updateErr = errors.Wrapf(err, "decode ledger of row %d", cols.ID)
					return updateErr
				}
				if len(revs) == 0 {
					continue
				}
				err = tx.Model(PT(new(T))).Where("id = ?", cols.ID).UpdateColumns(map[string]any{
					"revision_count":   len(revs),
					"last_revision_id": revs[len(revs)-1].ID,
				}).Error
				if err != nil {
					updateErr = errors.Wrapf(err, "update row %d", cols.ID)
					return updateErr
				}
			}
			return nil
		})
	if updateErr != nil {
		return updateErr
	}
	return res.Error
}
