// Package revision keeps a bounded, replayable edit history for a text value.
//
// A Ledger stores a base snapshot plus an ordered chain of patches. Replaying
// every patch from the base yields the current text. When the chain reaches its
// capacity the oldest patch is folded into the base, so the ledger never holds
// more than the configured number of revisions while revision ids keep growing.
//
// revision 包为文本内容维护有上限、可回放的编辑历史。
package revision

// Revision is one recorded edit inside the retention window.
// Revision 保留窗口内的一次编辑记录
type Revision[P any] struct {
	ID        int64  `json:"id"`        // Revision id, starts at 1 // 版本号，从 1 开始
	Patch     P      `json:"patch"`     // Patch from the previous text // 相对上一版本的补丁
	CreatedAt int64  `json:"createdAt"` // Unix milliseconds // 毫秒时间戳
	Author    string `json:"author"`    // Author identifier // 作者标识
}

// Ledger is the revision state of one content value.
// Ledger 单个内容的版本状态
type Ledger[T comparable, P any] struct {
	Current   T             `json:"current"`   // Live text // 当前文本
	Base      T             `json:"base"`      // Checkpoint before the oldest retained patch // 最早补丁之前的快照
	Revisions []Revision[P] `json:"revisions"` // Oldest first // 从旧到新
}

// NewLedger returns an empty ledger whose base and current text are text.
func NewLedger[T comparable, P any](text T) *Ledger[T, P] {
	return &Ledger[T, P]{Current: text, Base: text}
}

// Len returns the number of retained revisions.
func (l *Ledger[T, P]) Len() int {
	return len(l.Revisions)
}

// Last returns the newest revision, or false when the ledger is empty.
// Last 返回最新版本
func (l *Ledger[T, P]) Last() (Revision[P], bool) {
	if len(l.Revisions) == 0 {
		return Revision[P]{}, false
	}
	return l.Revisions[len(l.Revisions)-1], true
}

// LastID returns the newest revision id, 0 when the ledger is empty.
func (l *Ledger[T, P]) LastID() int64 {
	if last, ok := l.Last(); ok {
		return last.ID
	}
	return 0
}

// Clone returns a copy that shares no revision slice with l.
// Clone 复制账本，返回的切片与原账本互不影响
func (l *Ledger[T, P]) Clone() *Ledger[T, P] {
	c := &Ledger[T, P]{Current: l.Current, Base: l.Base}
	if l.Revisions != nil {
		c.Revisions = make([]Revision[P], len(l.Revisions))
		copy(c.Revisions, l.Revisions)
	}
	return c
}

// Meta is revision metadata without text.
// Meta 版本元信息（不含文本）
type Meta struct {
	ID        int64  `json:"id"`
	CreatedAt int64  `json:"createdAt"`
	Author    string `json:"author"`
}

// Reconstructed is a historical revision together with the text right after it was applied.
// Reconstructed 历史版本及其应用后的文本
type Reconstructed[T any] struct {
	Meta
	Text T `json:"text"`
}

// Patcher computes and applies patches between text values.
// Apply(old, Diff(old, new)) must return new.
//
// Patcher 计算并应用文本补丁
type Patcher[T, P any] interface {
	Diff(oldText, newText T) (P, error)
	Apply(text T, patch P) (T, error)
}
