package ingest

import (
	"bufio"
	"io"
)

// Usage records are a few hundred bytes of JSON each; a record past
// maxRecordLen is assumed corrupt and dropped wholesale.
const (
	scanBufSize  = 32 * 1024
	maxRecordLen = 512 * 1024
)

// recordScanner walks a JSONL stream one record at a time. Blank
// lines are skipped and over-length lines are dropped without
// aborting the stream, so one corrupt record cannot sink a whole
// drop file.
type recordScanner struct {
	br  *bufio.Reader
	max int
	buf []byte
}

func newRecordScanner(r io.Reader, max int) *recordScanner {
	return &recordScanner{
		br:  bufio.NewReaderSize(r, scanBufSize),
		max: max,
		buf: make([]byte, 0, scanBufSize),
	}
}

// next returns the following non-blank record, or ("", false) once
// the stream is exhausted.
func (s *recordScanner) next() (string, bool) {
	for {
		rec, err := s.scan()
		if err != nil {
			return "", false
		}
		if rec != "" {
			return rec, true
		}
	}
}

// scan assembles one physical line. Blank and over-length lines
// come back as ""; a non-nil error means EOF or a read failure.
func (s *recordScanner) scan() (string, error) {
	s.buf = s.buf[:0]
	dropping := false

	for {
		chunk, more, err := s.br.ReadLine()
		if err != nil {
			if err == io.EOF && len(s.buf) > 0 {
				return string(s.buf), nil
			}
			return "", err
		}

		if dropping {
			if !more {
				return "", nil
			}
			continue
		}

		s.buf = append(s.buf, chunk...)
		if len(s.buf) > s.max {
			s.buf = s.buf[:0]
			dropping = true
			if !more {
				return "", nil
			}
			continue
		}

		if !more {
			return string(s.buf), nil
		}
	}
}
