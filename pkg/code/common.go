package code

import "net/http"

var (
	Success        = NewSuss(1, lang{en: "Success", zh_cn: "成功"})
	SuccessCreate  = NewSuss(2, lang{en: "Created", zh_cn: "创建成功"})
	SuccessUpdate  = NewSuss(3, lang{en: "Updated", zh_cn: "更新成功"})
	SuccessDelete  = NewSuss(4, lang{en: "Deleted", zh_cn: "删除成功"})
	SuccessRestore = NewSuss(5, lang{en: "Restored", zh_cn: "恢复成功"})

	Failed              = NewError(400, http.StatusBadRequest, lang{en: "Failed", zh_cn: "失败"})
	ErrorServerInternal = NewError(500, http.StatusInternalServerError, lang{en: "Server internal error", zh_cn: "服务器内部错误"})
	ErrorNotFound       = NewError(404, http.StatusNotFound, lang{en: "Resource not found", zh_cn: "资源不存在"})
	ErrorTooManyRequest = NewError(429, http.StatusTooManyRequests, lang{en: "Too many requests", zh_cn: "请求过多"})
	ErrorInvalidParams  = NewError(505, http.StatusBadRequest, lang{en: "Invalid params", zh_cn: "参数验证失败"})
	ErrorDBQuery        = NewError(506, http.StatusInternalServerError, lang{en: "Database query error", zh_cn: "数据库查询错误"})
	ErrorRequestTimeout = NewError(507, http.StatusGatewayTimeout, lang{en: "Request timeout", zh_cn: "请求超时"})

	ErrorContentNotFound     = NewError(1001, http.StatusNotFound, lang{en: "Content not found", zh_cn: "内容不存在"})
	ErrorContentKindInvalid  = NewError(1002, http.StatusBadRequest, lang{en: "Unsupported content kind", zh_cn: "不支持的内容类型"})
	ErrorContentCreateFailed = NewError(1003, http.StatusInternalServerError, lang{en: "Content create failed", zh_cn: "内容创建失败"})
	ErrorContentUpdateFailed = NewError(1004, http.StatusInternalServerError, lang{en: "Content update failed", zh_cn: "内容更新失败"})
	ErrorContentDeleteFailed = NewError(1005, http.StatusInternalServerError, lang{en: "Content delete failed", zh_cn: "内容删除失败"})
	ErrorContentBusy         = NewError(1006, http.StatusServiceUnavailable, lang{en: "Content is busy, try again later", zh_cn: "内容正在被修改，请稍后重试"})

	ErrorRevisionNotFound  = NewError(1101, http.StatusNotFound, lang{en: "Revision not found", zh_cn: "版本不存在"})
	ErrorRevisionCorrupted = NewError(1102, http.StatusInternalServerError, lang{en: "Revision history is corrupted", zh_cn: "版本历史已损坏"})
)
