package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldAction 操作类型字段
	FieldAction = "action"

	// FieldKind 内容类型字段
	FieldKind = "kind"

	// FieldContentID 内容 ID 字段
	FieldContentID = "contentId"

	// FieldItemID 所属条目 ID 字段
	FieldItemID = "itemId"

	// FieldRevisionID 版本号字段
	FieldRevisionID = "revisionId"

	// FieldAuthor 作者字段
	FieldAuthor = "author"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldMethod 方法名称字段
	FieldMethod = "method"

	// FieldError 错误信息字段
	FieldError = "error"

	// FieldSize 大小字段
	FieldSize = "size"
)
