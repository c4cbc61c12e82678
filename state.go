// Projection of an edit stream onto a live view of the database state.
//
// The manifest is incremental: the current file set only exists as the fold
// of every edit since the file began. State performs that fold — files are
// inserted on NewFile and marked on DeletedFile rather than dropped, so a
// dump can show what a compaction consumed. Bookkeeping counters keep their
// last written value.
package manifest

import (
	"github.com/google/btree"
	"github.com/rs/zerolog"
)

// LiveFile is a projected data file. Deleted files stay in the projection
// with the mark set.
type LiveFile struct {
	FileMetaData
	Deleted bool `json:"deleted,omitempty"`
}

// State is the fold of a manifest's edit stream. Zero counters mean the
// manifest never wrote the corresponding edit.
type State struct {
	Comparator         string
	LogNumber          uint64
	PrevLogNumber      uint64
	NextFileNumber     uint64
	LastSequence       uint64
	MinLogNumberToKeep uint64
	MaxColumnFamily    uint32

	files *btree.BTreeG[*LiveFile]
	log   zerolog.Logger
}

// NewState returns an empty projection.
func NewState() *State {
	return &State{
		files: btree.NewG(16, func(a, b *LiveFile) bool {
			return a.FileNumber < b.FileNumber
		}),
		log: zerolog.Nop(),
	}
}

// WithLogger sets the logger used to report deletions of unknown files and
// returns the State for chaining.
func (s *State) WithLogger(log zerolog.Logger) *State {
	s.log = log
	return s
}

// Apply folds one record's edits into the projection, in order.
func (s *State) Apply(edits []Edit) {
	for _, e := range edits {
		switch e := e.(type) {
		case Comparator:
			s.Comparator = e.Name
		case LogNumber:
			s.LogNumber = e.Number
		case PrevLogNumber:
			s.PrevLogNumber = e.Number
		case NextFileNumber:
			s.NextFileNumber = e.Number
		case LastSequence:
			s.LastSequence = e.Sequence
		case MinLogNumberToKeep:
			s.MinLogNumberToKeep = e.Number
		case MaxColumnFamily:
			s.MaxColumnFamily = e.ID
		case NewFile:
			s.files.ReplaceOrInsert(&LiveFile{FileMetaData: e.Meta})
		case DeletedFile:
			pivot := &LiveFile{FileMetaData: FileMetaData{FileNumber: e.FileNumber}}
			if f, ok := s.files.Get(pivot); ok {
				f.Deleted = true
			} else {
				s.log.Warn().
					Uint64("file", e.FileNumber).
					Uint32("level", e.Level).
					Msg("deletion of unknown file")
			}
		}
	}
}

// Files returns every projected file in ascending file-number order,
// deleted files included.
func (s *State) Files() []*LiveFile {
	out := make([]*LiveFile, 0, s.files.Len())
	s.files.Ascend(func(f *LiveFile) bool {
		out = append(out, f)
		return true
	})
	return out
}

// Len returns the number of projected files, deleted files included.
func (s *State) Len() int {
	return s.files.Len()
}
