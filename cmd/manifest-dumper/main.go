// Command manifest-dumper prints the contents of a RocksDB MANIFEST file:
// every version edit in log order, the projected data file set, and a
// best-effort reconstruction of compaction episodes. Compressed manifest
// copies (zstd, gzip) are decompressed transparently.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fulldump/goconfig"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	manifest "github.com/neunhoef/manifest-dumper"
)

var VERSION = "dev"

type config struct {
	Manifest    string `usage:"path to MANIFEST file (plain, zstd or gzip)"`
	JSON        bool   `usage:"emit records as JSON lines instead of text"`
	Files       bool   `usage:"print the projected data file listing"`
	Compactions bool   `usage:"print the best-effort compaction report"`
	Verbose     bool   `usage:"log every record's offset and length"`
	Version     bool   `usage:"show version and exit"`
}

func main() {
	c := config{
		Files:       true,
		Compactions: true,
	}
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", VERSION)
		return
	}

	level := zerolog.WarnLevel
	if c.Verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	if c.Manifest == "" {
		log.Fatal().Msg("no manifest given, use -manifest")
	}

	if fp, err := manifest.Fingerprint(c.Manifest); err == nil {
		log.Debug().Str("path", c.Manifest).Hex("fingerprint", u64be(fp)).Msg("dumping manifest")
	}

	r, err := manifest.Open(c.Manifest)
	if err != nil {
		log.Fatal().Err(err).Str("path", c.Manifest).Msg("cannot open manifest")
	}
	defer r.Close()
	r.WithLogger(log)

	state := manifest.NewState().WithLogger(log)
	enc := json.NewEncoder(os.Stdout)

	var records [][]manifest.Edit
	var pos int64
	for {
		edits, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Fatal().Err(err).Int64("offset", r.Offset()).Msg("manifest decode failed")
		}

		offset, length := pos, r.Offset()-pos
		pos = r.Offset()
		log.Debug().Int64("offset", offset).Int64("length", length).Int("edits", len(edits)).
			Msg("decoded record")

		if c.JSON {
			rec := map[string]any{
				"offset": offset,
				"length": length,
				"edits":  editsJSON(edits),
			}
			if err := enc.Encode(rec); err != nil {
				log.Fatal().Err(err).Msg("cannot encode record")
			}
		} else {
			fmt.Printf("New edits: %x %x\n", offset, length)
			for _, e := range edits {
				fmt.Printf("  %s\n", e)
			}
		}

		state.Apply(edits)
		records = append(records, edits)
	}

	if n := r.Corruptions(); n > 0 {
		log.Warn().Int("fragments", n).Msg("checksum mismatches while decoding")
	}

	if c.Files {
		printFiles(c, enc, state, log)
	}
	if c.Compactions {
		printCompactions(c, enc, records, log)
	}
}

func printFiles(c config, enc *json.Encoder, state *manifest.State, log zerolog.Logger) {
	files := state.Files()
	if c.JSON {
		if err := enc.Encode(map[string]any{"files": files}); err != nil {
			log.Fatal().Err(err).Msg("cannot encode file listing")
		}
		return
	}
	fmt.Println("List of data files:")
	for i, f := range files {
		suffix := ""
		if f.Deleted {
			suffix = " (deleted)"
		}
		fmt.Printf("File #%d: %s%s\n", i, f.FileMetaData, suffix)
	}
}

func printCompactions(c config, enc *json.Encoder, records [][]manifest.Edit, log zerolog.Logger) {
	compactions := manifest.FindCompactions(records)
	if c.JSON {
		if err := enc.Encode(map[string]any{"compactions": compactionsJSON(compactions)}); err != nil {
			log.Fatal().Err(err).Msg("cannot encode compaction report")
		}
		return
	}
	fmt.Printf("\nFound %d potential compactions:\n", len(compactions))
	for i, comp := range compactions {
		fmt.Printf("\nCompaction #%d\n%s\n", i+1, comp)
	}
}

// editsJSON renders each edit as a {"type": ..., ...} object. The text form
// goes through Edit.String; this is its structured counterpart.
func editsJSON(edits []manifest.Edit) []any {
	out := make([]any, 0, len(edits))
	for _, e := range edits {
		switch e := e.(type) {
		case manifest.Comparator:
			out = append(out, obj("comparator", "name", e.Name))
		case manifest.LogNumber:
			out = append(out, obj("log_number", "number", e.Number))
		case manifest.NextFileNumber:
			out = append(out, obj("next_file_number", "number", e.Number))
		case manifest.LastSequence:
			out = append(out, obj("last_sequence", "sequence", e.Sequence))
		case manifest.PrevLogNumber:
			out = append(out, obj("prev_log_number", "number", e.Number))
		case manifest.MinLogNumberToKeep:
			out = append(out, obj("min_log_number_to_keep", "number", e.Number))
		case manifest.NewFile:
			out = append(out, map[string]any{"type": "new_file", "file": e.Meta})
		case manifest.DeletedFile:
			out = append(out, map[string]any{
				"type": "deleted_file", "level": e.Level, "file_number": e.FileNumber,
			})
		case manifest.CompactCursor:
			out = append(out, map[string]any{
				"type": "compact_cursor", "level": e.Level,
				"key": fmt.Sprintf("%x", []byte(e.Key)),
			})
		case manifest.ColumnFamilyID:
			out = append(out, obj("column_family", "id", e.ID))
		case manifest.ColumnFamilyAdd:
			out = append(out, obj("column_family_add", "name", e.Name))
		case manifest.ColumnFamilyDrop:
			out = append(out, map[string]any{"type": "column_family_drop"})
		case manifest.MaxColumnFamily:
			out = append(out, obj("max_column_family", "id", e.ID))
		}
	}
	return out
}

func compactionsJSON(compactions []manifest.Compaction) []any {
	out := make([]any, 0, len(compactions))
	for _, comp := range compactions {
		deleted := make([]any, 0, len(comp.Deleted))
		for _, d := range comp.Deleted {
			deleted = append(deleted, map[string]any{"level": d.Level, "file_number": d.FileNumber})
		}
		out = append(out, map[string]any{
			"record":           comp.Record,
			"prev_log_number":  comp.PrevLogNumber,
			"next_file_number": comp.NextFileNumber,
			"last_sequence":    comp.LastSequence,
			"deleted":          deleted,
			"added":            comp.Added,
			"column_family":    comp.ColumnFamily,
		})
	}
	return out
}

func obj(typ, field string, value any) map[string]any {
	return map[string]any{"type": typ, field: value}
}

func u64be(v uint64) []byte {
	return []byte{
		byte(v >> 56), byte(v >> 48), byte(v >> 40), byte(v >> 32),
		byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v),
	}
}
