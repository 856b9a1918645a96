package dto

import "github.com/haierkeys/content-revision-service/pkg/timex"

// ContentDTO content data transfer object
// ContentDTO 内容数据传输对象
type ContentDTO struct {
	ID             int64      `json:"id"`
	Kind           string     `json:"kind"`
	ItemID         int64      `json:"itemId"`
	Owner          string     `json:"owner"`
	Text           string     `json:"text"`
	RevisionCount  int        `json:"revisionCount"`  // Retained revisions // 保留的版本数
	LastRevisionID int64      `json:"lastRevisionId"` // Newest revision id // 最新版本号
	CreatedAt      timex.Time `json:"createdAt"`
	UpdatedAt      timex.Time `json:"updatedAt"`
}

// ContentNoTextDTO content without text, used in lists
// ContentNoTextDTO 不含文本的内容 DTO，用于列表
type ContentNoTextDTO struct {
	ID             int64      `json:"id"`
	Kind           string     `json:"kind"`
	ItemID         int64      `json:"itemId"`
	Owner          string     `json:"owner"`
	RevisionCount  int        `json:"revisionCount"`
	LastRevisionID int64      `json:"lastRevisionId"`
	CreatedAt      timex.Time `json:"createdAt"`
	UpdatedAt      timex.Time `json:"updatedAt"`
}

// ContentCreateRequest 创建内容的请求参数
type ContentCreateRequest struct {
	ItemID int64  `json:"itemId" form:"itemId" binding:"required,gt=0"`
	Owner  string `json:"owner" form:"owner" binding:"required,max=128"`
	Text   string `json:"text" form:"text"`
}

// ContentGetRequest 获取或删除内容的请求参数
type ContentGetRequest struct {
	ID int64 `json:"id" form:"id" binding:"required,gt=0"`
}

// ContentListRequest 获取条目下内容列表的请求参数
type ContentListRequest struct {
	ItemID int64 `json:"itemId" form:"itemId" binding:"required,gt=0"`
}

// ContentUpdateRequest 修改内容文本的请求参数，Text 可以为空字符串
type ContentUpdateRequest struct {
	ID     int64  `json:"id" form:"id" binding:"required,gt=0"`
	Text   string `json:"text" form:"text"`
	Author string `json:"author" form:"author" binding:"required,max=128"`
}
