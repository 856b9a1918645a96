// Package diff provides the text patch provider used by the revision ledger.
// Patches are diff-match-patch patches in their textual form.
//
// diff 包提供版本账本使用的文本补丁实现（diff-match-patch 文本格式）
package diff

import (
	"errors"
	"fmt"

	"github.com/haierkeys/content-revision-service/pkg/revision"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// ErrPatchRejected returned when a hunk of the patch does not apply
// ErrPatchRejected 补丁中有片段无法应用时返回
var ErrPatchRejected = errors.New("patch rejected")

// Patcher computes and applies textual diff-match-patch patches.
// Patcher 计算并应用 diff-match-patch 文本补丁
type Patcher struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// New creates a Patcher
// New 创建 Patcher
func New() *Patcher {
	return &Patcher{dmp: diffmatchpatch.New()}
}

// Diff returns the patch text turning oldText into newText.
// Diff 返回由 oldText 变为 newText 的补丁文本
func (p *Patcher) Diff(oldText, newText string) (patch string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("diff panic: %v", r)
		}
	}()
	if oldText == newText {
		return "", nil
	}
	diffs := p.dmp.DiffMain(oldText, newText, false)
	return p.dmp.PatchToText(p.dmp.PatchMake(oldText, diffs)), nil
}

// Apply applies patch to text. Every hunk must apply.
// Apply 将补丁应用到文本，所有片段都必须成功
func (p *Patcher) Apply(text, patch string) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("patch panic: %v", r)
		}
	}()
	if patch == "" {
		return text, nil
	}
	patches, err := p.dmp.PatchFromText(patch)
	if err != nil {
		return "", fmt.Errorf("parse patch: %w", err)
	}
	result, applied := p.dmp.PatchApply(patches, text)
	for i, ok := range applied {
		if !ok {
			return "", fmt.Errorf("%w: hunk %d of %d", ErrPatchRejected, i+1, len(applied))
		}
	}
	return result, nil
}

var _ revision.Patcher[string, string] = (*Patcher)(nil)
