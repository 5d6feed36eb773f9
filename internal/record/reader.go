package record

import (
	"bytes"
	"fmt"

	"github.com/franz/sparkify-etl/internal/util"
	"github.com/goccy/go-json"
	"github.com/spf13/afero"
)

// validator is implemented by every record type the reader produces.
type validator interface {
	Validate() error
}

// ReadSongs reads every song object in the file at path.
func ReadSongs(fs afero.Fs, path string) ([]Song, error) {
	return readFile[Song](fs, path)
}

// ReadEvents reads every event object in the file at path, in file order.
func ReadEvents(fs afero.Fs, path string) ([]Event, error) {
	return readFile[Event](fs, path)
}

// readFile loads the whole file into memory and decodes one JSON object per
// non-blank line. The first bad line aborts the read.
func readFile[T any, PT interface {
	*T
	validator
}](fs afero.Fs, path string) ([]T, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var out []T
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var rec T
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %v", util.ErrMalformedRecord, path, i+1, err)
		}
		if err := PT(&rec).Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %v", util.ErrMalformedRecord, path, i+1, err)
		}
		out = append(out, rec)
	}

	util.DebugLog("Read %d records from %s", len(out), path)
	return out, nil
}
