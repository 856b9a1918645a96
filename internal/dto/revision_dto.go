package dto

import "github.com/haierkeys/content-revision-service/pkg/timex"

// RevisionDTO revision metadata
// RevisionDTO 版本元信息
type RevisionDTO struct {
	ID        int64      `json:"id"`
	Author    string     `json:"author"`
	CreatedAt timex.Time `json:"createdAt"`
	Timestamp int64      `json:"timestamp"` // Unix milliseconds // 毫秒时间戳
}

// RevisionTextDTO a reconstructed revision
// RevisionTextDTO 重建后的历史版本
type RevisionTextDTO struct {
	RevisionDTO
	ContentID int64  `json:"contentId"`
	Kind      string `json:"kind"`
	Text      string `json:"text"`   // Text right after this revision // 该版本应用后的文本
	Latest    bool   `json:"latest"` // Newest revision // 是否为最新版本
}

// RevisionListRequest 获取版本列表的请求参数
type RevisionListRequest struct {
	ID int64 `json:"id" form:"id" binding:"required,gt=0"`
}

// RevisionGetRequest 获取历史版本的请求参数
type RevisionGetRequest struct {
	ID         int64 `json:"id" form:"id" binding:"required,gt=0"`
	RevisionID int64 `json:"revisionId" form:"revisionId" binding:"required,gt=0"`
}

// RevisionRestoreRequest 恢复历史版本的请求参数
type RevisionRestoreRequest struct {
	ID         int64  `json:"id" form:"id" binding:"required,gt=0"`
	RevisionID int64  `json:"revisionId" form:"revisionId" binding:"required,gt=0"`
	Author     string `json:"author" form:"author" binding:"required,max=128"`
}

// VerifyReportDTO ledger audit result
// VerifyReportDTO 账本巡检结果
type VerifyReportDTO struct {
	Kind    string  `json:"kind"`
	Checked int     `json:"checked"`
	Corrupt []int64 `json:"corrupt"` // Content ids whose ledger failed verification // 校验失败的内容 ID
}
