package manifest

import "testing"

func TestStateProjectsFiles(t *testing.T) {
	state := NewState()
	state.Apply([]Edit{
		NewFile{Meta: FileMetaData{FileNumber: 9, Level: 0}},
		NewFile{Meta: FileMetaData{FileNumber: 3, Level: 1}},
		NewFile{Meta: FileMetaData{FileNumber: 12, Level: 2}},
	})

	files := state.Files()
	if len(files) != 3 {
		t.Fatalf("got %d files, want 3", len(files))
	}
	// Ascending file-number order regardless of insertion order.
	for i, want := range []uint64{3, 9, 12} {
		if files[i].FileNumber != want {
			t.Errorf("file %d: number = %d, want %d", i, files[i].FileNumber, want)
		}
	}
}

func TestStateMarksDeleted(t *testing.T) {
	state := NewState()
	state.Apply([]Edit{
		NewFile{Meta: FileMetaData{FileNumber: 5}},
		NewFile{Meta: FileMetaData{FileNumber: 6}},
	})
	state.Apply([]Edit{
		DeletedFile{Level: 0, FileNumber: 5},
	})

	files := state.Files()
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2 (deletion marks, it does not remove)", len(files))
	}
	if !files[0].Deleted {
		t.Error("file 5 not marked deleted")
	}
	if files[1].Deleted {
		t.Error("file 6 wrongly marked deleted")
	}
}

func TestStateDeleteUnknownFile(t *testing.T) {
	state := NewState()
	// Must not panic or invent a file.
	state.Apply([]Edit{DeletedFile{Level: 1, FileNumber: 99}})

	if state.Len() != 0 {
		t.Errorf("Len = %d, want 0", state.Len())
	}
}

func TestStateReaddedFileReplacesOld(t *testing.T) {
	state := NewState()
	state.Apply([]Edit{NewFile{Meta: FileMetaData{FileNumber: 5, Level: 0}}})
	state.Apply([]Edit{DeletedFile{Level: 0, FileNumber: 5}})
	// Trivial move: the same file number re-added at the next level.
	state.Apply([]Edit{NewFile{Meta: FileMetaData{FileNumber: 5, Level: 1}}})

	files := state.Files()
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	if files[0].Level != 1 || files[0].Deleted {
		t.Errorf("re-added file = level %d deleted %v, want level 1 live", files[0].Level, files[0].Deleted)
	}
}

func TestStateCounters(t *testing.T) {
	state := NewState()
	state.Apply([]Edit{
		Comparator{Name: "bytewise"},
		LogNumber{Number: 10},
		PrevLogNumber{Number: 9},
		NextFileNumber{Number: 20},
		LastSequence{Sequence: 1000},
		MinLogNumberToKeep{Number: 8},
		MaxColumnFamily{ID: 3},
	})
	// Later records overwrite.
	state.Apply([]Edit{
		LogNumber{Number: 11},
		LastSequence{Sequence: 2000},
	})

	if state.Comparator != "bytewise" {
		t.Errorf("Comparator = %q", state.Comparator)
	}
	if state.LogNumber != 11 || state.PrevLogNumber != 9 || state.NextFileNumber != 20 {
		t.Errorf("log counters = %d/%d/%d", state.LogNumber, state.PrevLogNumber, state.NextFileNumber)
	}
	if state.LastSequence != 2000 || state.MinLogNumberToKeep != 8 || state.MaxColumnFamily != 3 {
		t.Errorf("counters = %d/%d/%d", state.LastSequence, state.MinLogNumberToKeep, state.MaxColumnFamily)
	}
}
