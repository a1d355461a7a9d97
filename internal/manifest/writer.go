package manifest

import (
	"bytes"
	"os"

	"github.com/rs/zerolog/log"
)

const (
	LineEndingLF   = "\n"
	LineEndingCRLF = "\r\n"
)

// DetectLineEnding returns the dominant line ending of data: CRLF when it
// outnumbers bare LF, LF otherwise, and "" when data has no line break at all
func DetectLineEnding(data []byte) string {
	crlf := bytes.Count(data, []byte(LineEndingCRLF))
	lf := bytes.Count(data, []byte(LineEndingLF)) - crlf
	if crlf == 0 && lf == 0 {
		return ""
	}
	if crlf > lf {
		return LineEndingCRLF
	}
	return LineEndingLF
}

// Render serialises the manifest followed by one trailing line ending, using
// ending for every line break
func (m *Manifest) Render(ending string) ([]byte, error) {
	data, err := m.Marshal()
	if err != nil {
		return nil, err
	}
	data = append(data, '\n')
	if ending != LineEndingLF {
		data = bytes.ReplaceAll(data, []byte(LineEndingLF), []byte(ending))
	}
	return data, nil
}

// WriteIfChanged persists the manifest when its rendering differs from the
// bytes on disk. Files without any line break are left alone because their
// line ending cannot be preserved. It reports whether a write happened.
func WriteIfChanged(m *Manifest) (bool, error) {
	ending := DetectLineEnding(m.original)
	if ending == "" {
		log.Warn().Str("path", m.Path).Msg("Could not detect line ending, skipping write")
		return false, nil
	}

	data, err := m.Render(ending)
	if err != nil {
		return false, &WriteError{Path: m.Path, Err: err}
	}

	if bytes.Equal(data, m.original) {
		log.Debug().Str("path", m.Path).Msg("Manifest unchanged, not writing")
		return false, nil
	}

	if err := os.WriteFile(m.Path, data, m.mode); err != nil {
		return false, &WriteError{Path: m.Path, Err: err}
	}

	log.Debug().
		Str("path", m.Path).
		Int("bytes", len(data)).
		Msg("Wrote manifest")

	m.original = data
	return true, nil
}
