// Package report encodes fatal fault reports as small framed packets that
// firmware writes to its serial port on the way down, and decodes them on
// the desktop side.
//
// Frame layout, little endian:
//
//	0x7E 'T' 'B' len | code task(int16) tick(uint32) name... | crc16
//
// len counts the payload bytes. The CRC-16/XMODEM covers len and payload.
package report

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"ember/kernel"

	"github.com/sigurn/crc16"
)

const (
	syncByte = 0x7E
	magic0   = 'T'
	magic1   = 'B'

	// MaxName is the longest task name carried in a frame.
	MaxName = 32

	headerLen  = 4
	fixedLen   = 7
	trailerLen = 2

	// MaxFrame is the size of the largest frame.
	MaxFrame = headerLen + fixedLen + MaxName + trailerLen
)

var (
	ErrBadCRC = errors.New("report: bad checksum")
	ErrFrame  = errors.New("report: malformed frame")
)

var table = crc16.MakeTable(crc16.CRC16_XMODEM)

// Report is the wire form of a kernel fault.
type Report struct {
	Code kernel.FaultCode
	// Task is the task index, -1 for none or the main stack.
	Task int16
	Tick uint32
	Name string
}

// FromFault converts a fault raised by the scheduler.
func FromFault(f kernel.Fault) Report {
	task := f.Task
	switch {
	case task > math.MaxInt16:
		task = math.MaxInt16
	case task < -1:
		task = -1
	}
	return Report{
		Code: f.Code,
		Task: int16(task),
		Tick: uint32(f.Tick),
		Name: f.Name,
	}
}

func (r Report) String() string {
	s := fmt.Sprintf("fault %q (%d)", r.Code.String(), uint8(r.Code))
	switch {
	case r.Name != "":
		s += fmt.Sprintf(" task %d %q", r.Task, r.Name)
	case r.Task >= 0:
		s += fmt.Sprintf(" task %d", r.Task)
	}
	return s + fmt.Sprintf(" at tick %d", r.Tick)
}

// Append appends the frame for r to dst. Names longer than MaxName bytes
// are cut.
func Append(dst []byte, r Report) []byte {
	name := r.Name
	if len(name) > MaxName {
		name = name[:MaxName]
	}
	start := len(dst)
	dst = append(dst, syncByte, magic0, magic1, byte(fixedLen+len(name)), byte(r.Code))
	dst = binary.LittleEndian.AppendUint16(dst, uint16(r.Task))
	dst = binary.LittleEndian.AppendUint32(dst, r.Tick)
	dst = append(dst, name...)
	sum := crc16.Checksum(dst[start+3:], table)
	return binary.LittleEndian.AppendUint16(dst, sum)
}

// Encode returns the frame for r.
func Encode(r Report) []byte {
	return Append(make([]byte, 0, MaxFrame), r)
}

// Write writes the frame for r to w.
func Write(w io.Writer, r Report) error {
	var buf [MaxFrame]byte
	if _, err := w.Write(Append(buf[:0], r)); err != nil {
		return fmt.Errorf("report: write: %w", err)
	}
	return nil
}

// Decode parses exactly one frame.
func Decode(frame []byte) (Report, error) {
	if len(frame) < headerLen+fixedLen+trailerLen ||
		frame[0] != syncByte || frame[1] != magic0 || frame[2] != magic1 {
		return Report{}, ErrFrame
	}
	n := int(frame[3])
	if n < fixedLen || n > fixedLen+MaxName || len(frame) != headerLen+n+trailerLen {
		return Report{}, ErrFrame
	}
	body := frame[3 : headerLen+n]
	if crc16.Checksum(body, table) != binary.LittleEndian.Uint16(frame[headerLen+n:]) {
		return Report{}, ErrBadCRC
	}
	p := body[1:]
	return Report{
		Code: kernel.FaultCode(p[0]),
		Task: int16(binary.LittleEndian.Uint16(p[1:])),
		Tick: binary.LittleEndian.Uint32(p[3:]),
		Name: string(p[fixedLen:]),
	}, nil
}

// Decoder reads reports from a byte stream that may carry other traffic,
// such as log lines, between frames.
type Decoder struct {
	r       *bufio.Reader
	dropped int
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReaderSize(r, 256)}
}

// Dropped returns how many frames were skipped for a bad checksum.
func (d *Decoder) Dropped() int { return d.dropped }

// Next returns the next valid report. Stray bytes are skipped; on a bad
// frame only its sync byte is consumed, so a real frame overlapping it is
// still found.
func (d *Decoder) Next() (Report, error) {
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return Report{}, err
		}
		if b != syncByte {
			continue
		}
		hdr, err := d.r.Peek(headerLen - 1)
		if err != nil {
			return Report{}, unexpected(err)
		}
		if hdr[0] != magic0 || hdr[1] != magic1 {
			continue
		}
		n := int(hdr[2])
		if n < fixedLen || n > fixedLen+MaxName {
			continue
		}
		rest, err := d.r.Peek(headerLen - 1 + n + trailerLen)
		if err != nil {
			return Report{}, unexpected(err)
		}
		frame := make([]byte, 0, headerLen+n+trailerLen)
		frame = append(append(frame, syncByte), rest...)
		r, err := Decode(frame)
		if errors.Is(err, ErrBadCRC) {
			d.dropped++
			continue
		}
		if err != nil {
			continue
		}
		d.r.Discard(len(rest))
		return r, nil
	}
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
