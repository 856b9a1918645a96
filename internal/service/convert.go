package service

import (
	"github.com/haierkeys/content-revision-service/internal/domain"
	"github.com/haierkeys/content-revision-service/internal/dto"
	"github.com/haierkeys/content-revision-service/pkg/convert"
	"github.com/haierkeys/content-revision-service/pkg/revision"
	"github.com/haierkeys/content-revision-service/pkg/timex"

	"github.com/pkg/errors"
)

// contentToDTO 将领域模型转换为 DTO
func contentToDTO(c *domain.Content) (*dto.ContentDTO, error) {
	if c == nil {
		return nil, nil
	}
	out := &dto.ContentDTO{}
	if err := convert.StructAssign(c, out); err != nil {
		return nil, errors.Wrap(err, "copy content")
	}
	out.Kind = string(c.Kind)
	out.Text = c.Ledger.Current
	out.RevisionCount = c.Ledger.Len()
	out.LastRevisionID = c.Ledger.LastID()
	out.CreatedAt = timex.Time(c.CreatedAt)
	out.UpdatedAt = timex.Time(c.UpdatedAt)
	return out, nil
}

// contentToNoTextDTO 将领域模型转换为不含文本的 DTO
func contentToNoTextDTO(c *domain.Content) (*dto.ContentNoTextDTO, error) {
	full, err := contentToDTO(c)
	if err != nil {
		return nil, err
	}
	out := &dto.ContentNoTextDTO{}
	if err := convert.StructAssign(full, out); err != nil {
		return nil, errors.Wrap(err, "copy content summary")
	}
	return out, nil
}

func metaToDTO(m revision.Meta) dto.RevisionDTO {
	return dto.RevisionDTO{
		ID:        m.ID,
		Author:    m.Author,
		CreatedAt: timex.FromUnixMilli(m.CreatedAt),
		Timestamp: m.CreatedAt,
	}
}
