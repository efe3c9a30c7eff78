package ingesting

import (
	"bufio"
	"bytes"
	"io"

	"emperror.dev/errors"
)

// ErrLineTooLong reports a line longer than the configured maximum. The line is
// consumed, so reading can continue with the next one.
const ErrLineTooLong = errors.Sentinel("line too long")

// lineReader splits input on '\n' without holding more than max bytes of one line.
type lineReader struct {
	r   *bufio.Reader
	max int
	buf []byte
}

func newLineReader(r io.Reader, max int) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, initialBufferSize), max: max}
}

// next returns the following line without its terminator, ErrLineTooLong for a line
// over the limit, or io.EOF once the input is exhausted.
func (l *lineReader) next() (string, error) {
	l.buf = l.buf[:0]
	over := false
	for {
		chunk, err := l.r.ReadSlice('\n')
		if !over {
			l.buf = append(l.buf, chunk...)
			if len(bytes.TrimSuffix(l.buf, []byte{'\n'})) > l.max {
				over = true
				l.buf = l.buf[:0]
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if !over && len(l.buf) == 0 {
				return "", io.EOF
			}
		case err != nil:
			return "", err
		}

		if over {
			return "", ErrLineTooLong
		}
		return string(bytes.TrimSuffix(l.buf, []byte{'\n'})), nil
	}
}
