package incremental

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// EditsFromDiff computes edits that turn oldText into newText. The edits
// are ordered by ascending StartByte and their offsets refer to oldText,
// so they can be applied together as an EditSet, or one at a time in
// reverse order.
func EditsFromDiff(oldText, newText string) []Edit {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(oldText, newText, false))

	var edits []Edit
	var pending *Edit
	offset := 0
	flush := func() {
		if pending != nil {
			edits = append(edits, *pending)
			pending = nil
		}
	}
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			offset += len(d.Text)
		case diffmatchpatch.DiffDelete:
			if pending == nil {
				pending = &Edit{StartByte: offset, OldEndByte: offset}
			}
			offset += len(d.Text)
			pending.OldEndByte = offset
		case diffmatchpatch.DiffInsert:
			if pending == nil {
				pending = &Edit{StartByte: offset, OldEndByte: offset}
			}
			pending.NewText += d.Text
		}
	}
	flush()
	return edits
}
