package revision_test

import (
	"testing"

	"github.com/haierkeys/content-revision-service/pkg/diff"
	"github.com/haierkeys/content-revision-service/pkg/revision"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestLedgerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	patcher := diff.New()

	// 每次记录后回放结果等于当前文本，版本数不超过上限，版本号连续递增
	properties.Property("replay equals current, cap holds, ids increase by one", prop.ForAll(
		func(maxRevisions int, edits []string) bool {
			e := revision.NewEngine[string, string](patcher, revision.WithMaxRevisions(maxRevisions))
			l := revision.NewLedger[string, string]("")

			for i, text := range edits {
				if err := e.Record(l, text, "prop"); err != nil {
					return false
				}
				if l.Len() > maxRevisions || l.LastID() != int64(i+1) {
					return false
				}
				if err := e.Verify(l); err != nil {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 6),
		gen.SliceOf(gen.AlphaString()),
	))

	// 每个保留的版本都能重建为该次编辑后的文本
	properties.Property("retained revisions reconstruct to the text after their edit", prop.ForAll(
		func(maxRevisions int, edits []string) bool {
			e := revision.NewEngine[string, string](patcher, revision.WithMaxRevisions(maxRevisions))
			l := revision.NewLedger[string, string]("")

			for _, text := range edits {
				if err := e.Record(l, text, "prop"); err != nil {
					return false
				}
			}
			for _, rev := range l.Revisions {
				got, err := e.Reconstruct(l, rev.ID)
				if err != nil || got.Text != edits[rev.ID-1] {
					return false
				}
			}
			// evicted ids are gone
			for id := int64(1); id <= int64(len(edits))-int64(l.Len()); id++ {
				if _, err := e.Reconstruct(l, id); err == nil {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 6),
		gen.SliceOf(gen.AlphaString()),
	))

	// 压缩前后，仍保留的版本重建结果一致
	properties.Property("compaction does not change retained history", prop.ForAll(
		func(maxRevisions int, edits []string, next string) bool {
			e := revision.NewEngine[string, string](patcher, revision.WithMaxRevisions(maxRevisions))
			l := revision.NewLedger[string, string]("")
			for _, text := range edits {
				if err := e.Record(l, text, "prop"); err != nil {
					return false
				}
			}

			before := map[int64]string{}
			for _, rev := range l.Revisions {
				got, err := e.Reconstruct(l, rev.ID)
				if err != nil {
					return false
				}
				before[rev.ID] = got.Text
			}

			if err := e.Record(l, next, "prop"); err != nil {
				return false
			}

			for _, rev := range l.Revisions[:l.Len()-1] {
				got, err := e.Reconstruct(l, rev.ID)
				if err != nil || got.Text != before[rev.ID] {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 5),
		gen.SliceOfN(8, gen.AlphaString()),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
