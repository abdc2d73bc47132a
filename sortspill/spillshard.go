package sortspill

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/golang/snappy"
)

// spillBufSize sizes the buffered writer/reader wrapping each spill file's
// snappy frame stream.
const spillBufSize = 1 << 20

// writeSpill sorts records in place by the Metadata total order and streams
// them, snappy-framed, to a uniquely named file under dir. The sort is the
// in-memory half of the external sort; records is consumed (and may be
// reordered) by this call.
//
// Filenames are random (os.CreateTemp's suffix) so concurrent runs sharing a
// tmp dir never collide.
func writeSpill(records []Metadata, dir string) (path string, err error) {
	sort.Slice(records, func(i, j int) bool { return records[i].Less(records[j]) })

	f, err := os.CreateTemp(dir, "markdup-*.sz")
	if err != nil {
		return "", fmt.Errorf("sortspill: create spill file: %w", err)
	}
	path = f.Name()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("sortspill: close spill file %s: %w", path, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	bw := bufio.NewWriterSize(f, spillBufSize)
	sw := snappy.NewBufferedWriter(bw)

	var scratch []byte
	for _, m := range records {
		scratch = m.Encode(scratch[:0])
		if _, werr := sw.Write(scratch); werr != nil {
			return path, fmt.Errorf("sortspill: write spill record: %w", werr)
		}
	}
	if cerr := sw.Close(); cerr != nil {
		return path, fmt.Errorf("sortspill: finalize spill stream: %w", cerr)
	}
	if ferr := bw.Flush(); ferr != nil {
		return path, fmt.Errorf("sortspill: flush spill file: %w", ferr)
	}
	return path, nil
}

// spillReader reads Metadata records, in the order they were written, from
// one spill file produced by writeSpill.
type spillReader struct {
	path string
	f    *os.File
	r    *bufio.Reader
}

func openSpillReader(path string) (*spillReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sortspill: open spill file %s: %w", path, err)
	}
	return &spillReader{
		path: path,
		f:    f,
		r:    bufio.NewReaderSize(snappy.NewReader(f), spillBufSize),
	}, nil
}

// next returns the next Metadata record, or io.EOF once the file is
// exhausted.
func (s *spillReader) next() (Metadata, error) {
	return Decode(s.r)
}

func (s *spillReader) Close() error {
	return s.f.Close()
}

var _ io.Closer = (*spillReader)(nil)
