// Package trace replays text address traces against a cache model and
// records the outcome of every access.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// An Op distinguishes reads from writes in a trace.
type Op int

// The trace operations.
const (
	OpRead Op = iota
	OpWrite
)

func (o Op) String() string {
	if o == OpWrite {
		return "W"
	}

	return "R"
}

// An Access is one line of an address trace.
type Access struct {
	Op      Op
	Address uint64
	Value   uint32 // writes only
}

// A Reader parses text address traces. Each line is one access:
//
//	R 0x401000
//	W 0x401004 0xdeadbeef
//	0x401008
//
// A bare address is a read. Blank lines and lines starting with # are
// skipped.
type Reader struct {
	scanner *bufio.Scanner
	lineNum int
}

// NewReader creates a Reader that parses the given stream.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next access in the trace. It returns io.EOF after the last
// access.
func (r *Reader) Next() (Access, error) {
	for r.scanner.Scan() {
		r.lineNum++

		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		access, err := r.parseLine(line)
		if err != nil {
			return Access{}, err
		}

		return access, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Access{}, err
	}

	return Access{}, io.EOF
}

func (r *Reader) parseLine(line string) (Access, error) {
	fields := strings.Fields(line)

	switch strings.ToUpper(fields[0]) {
	case "R":
		if len(fields) != 2 {
			return Access{}, r.errorf("read takes one address, got %q", line)
		}

		addr, err := parseAddr(fields[1])
		if err != nil {
			return Access{}, r.errorf("%v", err)
		}

		return Access{Op: OpRead, Address: addr}, nil
	case "W":
		if len(fields) != 3 {
			return Access{}, r.errorf(
				"write takes an address and a value, got %q", line)
		}

		addr, err := parseAddr(fields[1])
		if err != nil {
			return Access{}, r.errorf("%v", err)
		}

		value, err := strconv.ParseUint(fields[2], 0, 32)
		if err != nil {
			return Access{}, r.errorf("bad value %q", fields[2])
		}

		return Access{Op: OpWrite, Address: addr, Value: uint32(value)}, nil
	default:
		if len(fields) != 1 {
			return Access{}, r.errorf("cannot parse %q", line)
		}

		addr, err := parseAddr(fields[0])
		if err != nil {
			return Access{}, r.errorf("%v", err)
		}

		return Access{Op: OpRead, Address: addr}, nil
	}
}

func (r *Reader) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", r.lineNum, fmt.Sprintf(format, args...))
}

func parseAddr(field string) (uint64, error) {
	addr, err := strconv.ParseUint(field, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad address %q", field)
	}

	return addr, nil
}

// ReadAll parses a whole trace stream into a slice of accesses.
func ReadAll(r io.Reader) ([]Access, error) {
	reader := NewReader(r)

	var accesses []Access

	for {
		access, err := reader.Next()
		if err == io.EOF {
			return accesses, nil
		}

		if err != nil {
			return nil, err
		}

		accesses = append(accesses, access)
	}
}
