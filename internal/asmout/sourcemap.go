package asmout

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"sixc/internal/isa"
)

// SourceMap records, for every emitted instruction that carried a
// source position, the mapping from its machine-code address back to
// the file and line that produced it. It is written as a compact
// binary sidecar next to the label listing when full debug output is
// requested, so a debugger can resolve a crash address to a source
// line without re-running the compiler.
type SourceMap struct {
	Origin int
	Size   int
	Files  []string
	Lines  []MappedLine
}

// MappedLine is one address-to-source mapping. FileIndex indexes
// SourceMap.Files.
type MappedLine struct {
	Address   int
	FileIndex int
	Line      int
}

const (
	sourceMapSignature = "sxmp"
	sourceMapVersion   = 1
)

// Add appends a mapping for addr to pos, interning pos.File into the
// file table. Positions without a line number are ignored, since most
// lines the compiler synthesizes have none.
func (s *SourceMap) Add(addr int, pos isa.Pos) {
	if !pos.IsValid() {
		return
	}
	fileIndex := -1
	for i, f := range s.Files {
		if f == pos.File {
			fileIndex = i
			break
		}
	}
	if fileIndex < 0 {
		fileIndex = len(s.Files)
		s.Files = append(s.Files, pos.File)
	}
	s.Lines = append(s.Lines, MappedLine{Address: addr, FileIndex: fileIndex, Line: pos.Line})
}

// Find resolves addr to the source file and line that produced the
// instruction at that address.
func (s *SourceMap) Find(addr int) (file string, line int, ok bool) {
	i := sort.Search(len(s.Lines), func(i int) bool {
		return s.Lines[i].Address >= addr
	})
	if i < len(s.Lines) && s.Lines[i].Address == addr {
		return s.Files[s.Lines[i].FileIndex], s.Lines[i].Line, true
	}
	return "", 0, false
}

// WriteTo serializes the map: a fixed header, the file table as
// NUL-terminated strings, then each line as three zigzag varints
// holding the deltas from the previous line (addresses are emitted
// sorted, so the address delta is almost always a small positive
// number that fits one byte).
func (s *SourceMap) WriteTo(w io.Writer) (int64, error) {
	sort.Slice(s.Lines, func(i, j int) bool { return s.Lines[i].Address < s.Lines[j].Address })

	var buf bytes.Buffer
	buf.WriteString(sourceMapSignature)
	buf.WriteByte(sourceMapVersion)
	var hdr [8]byte
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(s.Origin))
	binary.LittleEndian.PutUint32(hdr[2:6], uint32(s.Size))
	binary.LittleEndian.PutUint16(hdr[6:8], uint16(len(s.Files)))
	buf.Write(hdr[:])
	buf.Write(binary.AppendUvarint(nil, uint64(len(s.Lines))))

	for _, f := range s.Files {
		buf.WriteString(f)
		buf.WriteByte(0)
	}

	var prev MappedLine
	for _, l := range s.Lines {
		buf.Write(binary.AppendVarint(nil, int64(l.Address-prev.Address)))
		buf.Write(binary.AppendVarint(nil, int64(l.FileIndex-prev.FileIndex)))
		buf.Write(binary.AppendVarint(nil, int64(l.Line-prev.Line)))
		prev = l
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// ReadFrom deserializes a map written by WriteTo.
func (s *SourceMap) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingReader{r: bufio.NewReader(r)}

	var hdr [13]byte
	if _, err := io.ReadFull(cr, hdr[:]); err != nil {
		return cr.n, err
	}
	if string(hdr[0:4]) != sourceMapSignature {
		return cr.n, errors.New("sourcemap: bad signature")
	}
	if hdr[4] != sourceMapVersion {
		return cr.n, fmt.Errorf("sourcemap: unsupported version %d", hdr[4])
	}
	s.Origin = int(binary.LittleEndian.Uint16(hdr[5:7]))
	s.Size = int(binary.LittleEndian.Uint32(hdr[7:11]))
	fileCount := int(binary.LittleEndian.Uint16(hdr[11:13]))
	lineCount, err := binary.ReadUvarint(cr)
	if err != nil {
		return cr.n, err
	}

	s.Files = make([]string, fileCount)
	for i := range s.Files {
		name, err := cr.readString()
		if err != nil {
			return cr.n, err
		}
		s.Files[i] = name
	}

	s.Lines = make([]MappedLine, 0, lineCount)
	var prev MappedLine
	for i := uint64(0); i < lineCount; i++ {
		da, err := binary.ReadVarint(cr)
		if err != nil {
			return cr.n, err
		}
		df, err := binary.ReadVarint(cr)
		if err != nil {
			return cr.n, err
		}
		dl, err := binary.ReadVarint(cr)
		if err != nil {
			return cr.n, err
		}
		prev = MappedLine{
			Address:   prev.Address + int(da),
			FileIndex: prev.FileIndex + int(df),
			Line:      prev.Line + int(dl),
		}
		s.Lines = append(s.Lines, prev)
	}
	return cr.n, nil
}

type countingReader struct {
	r *bufio.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

func (c *countingReader) readString() (string, error) {
	s, err := c.r.ReadString(0)
	c.n += int64(len(s))
	if err != nil {
		return "", err
	}
	return s[:len(s)-1], nil
}
