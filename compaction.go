// Best-effort regrouping of edits into compaction episodes.
//
// The manifest does not record compactions as such; a compaction merely
// shows up as a record that deletes input files and adds output files,
// prefixed by the usual bookkeeping triplet. This heuristic matches that
// shape. It is a convenience report: misses and false positives are
// acceptable, and nothing downstream depends on it.
package manifest

import (
	"fmt"
	"strings"
)

// Compaction is one matched episode within a single record.
type Compaction struct {
	Record         int // index of the record within the decoded stream
	PrevLogNumber  uint64
	NextFileNumber uint64
	LastSequence   uint64
	Deleted        []DeletedFile
	Added          []FileMetaData
	ColumnFamily   uint32
}

// FindCompactions scans decoded records for the compaction shape: a
// PrevLogNumber/NextFileNumber/LastSequence triplet, followed by deletions
// and additions, closed by a ColumnFamilyID edit. Episodes without both
// deletions and additions are discarded — a flush adds files without
// deleting any, and is not a compaction.
func FindCompactions(records [][]Edit) []Compaction {
	var found []Compaction
	for position, edits := range records {
		// The minimal shape is the triplet plus one deletion and one
		// addition; shorter records cannot match.
		if len(edits) < 4 {
			continue
		}

		var current *Compaction
		for i := 0; i < len(edits); i++ {
			switch e := edits[i].(type) {
			case PrevLogNumber:
				current = nil
				if i+2 >= len(edits) {
					continue
				}
				next, ok1 := edits[i+1].(NextFileNumber)
				last, ok2 := edits[i+2].(LastSequence)
				if ok1 && ok2 {
					current = &Compaction{
						Record:         position,
						PrevLogNumber:  e.Number,
						NextFileNumber: next.Number,
						LastSequence:   last.Sequence,
					}
					i += 2
				}
			case DeletedFile:
				if current != nil {
					current.Deleted = append(current.Deleted, e)
				}
			case NewFile:
				if current != nil {
					current.Added = append(current.Added, e.Meta)
				}
			case ColumnFamilyID:
				if current != nil {
					current.ColumnFamily = e.ID
					if len(current.Deleted) > 0 && len(current.Added) > 0 {
						found = append(found, *current)
					}
					current = nil
				}
			}
		}
	}
	return found
}

func (c Compaction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Compaction at record %d {\n", c.Record)
	fmt.Fprintf(&b, "  PrevLogNumber: %d\n", c.PrevLogNumber)
	fmt.Fprintf(&b, "  NextFileNumber: %d\n", c.NextFileNumber)
	fmt.Fprintf(&b, "  LastSequence: %d\n", c.LastSequence)
	b.WriteString("  Deleted files:\n")
	for _, d := range c.Deleted {
		fmt.Fprintf(&b, "    Level %d: File %d\n", d.Level, d.FileNumber)
	}
	b.WriteString("  New files:\n")
	for _, f := range c.Added {
		fmt.Fprintf(&b, "    File %d (level %d, %d bytes)\n", f.FileNumber, f.Level, f.FileSize)
	}
	fmt.Fprintf(&b, "  ColumnFamily: %d\n", c.ColumnFamily)
	b.WriteString("}")
	return b.String()
}
