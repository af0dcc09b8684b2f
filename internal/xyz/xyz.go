// Package xyz reads molecules from XYZ files.
//
// Each frame is an atom count line, a comment line and one line per atom:
//
//	3
//	water
//	O  0.0000  0.0000  0.1173
//	H  0.0000  0.7572 -0.4692
//	H  0.0000 -0.7572 -0.4692
//
// Columns after the coordinates are ignored. The element may be given as a
// symbol or as an atomic number.
package xyz

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/cfconv/internal/elements"
	"github.com/born-ml/cfconv/internal/schnet"
)

// Frame is one molecule of an XYZ file.
type Frame struct {
	Comment       string
	AtomicNumbers []int64
	Positions     [][3]float64
}

// ReadFile reads every frame of the file at path.
func ReadFile(path string) ([]Frame, error) {
	//nolint:gosec // G304: File path comes from user input
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	frames, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frames, nil
}

// maxPrealloc caps the capacity reserved from a frame's atom count.
const maxPrealloc = 4096

// Read parses frames until EOF. Blank lines between frames are skipped.
func Read(r io.Reader) ([]Frame, error) {
	sc := bufio.NewScanner(r)
	line := 0
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		line++
		return sc.Text(), true
	}

	var frames []Frame
	for {
		header, ok := next()
		if !ok {
			break
		}
		if strings.TrimSpace(header) == "" {
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(header))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("line %d: invalid atom count %q", line, header)
		}
		comment, ok := next()
		if !ok {
			return nil, fmt.Errorf("line %d: missing comment line", line)
		}

		// The count is untrusted: grow with the lines actually read.
		frame := Frame{
			Comment:       strings.TrimSpace(comment),
			AtomicNumbers: make([]int64, 0, min(n, maxPrealloc)),
			Positions:     make([][3]float64, 0, min(n, maxPrealloc)),
		}
		for i := range n {
			text, ok := next()
			if !ok {
				return nil, fmt.Errorf("frame %d: expected %d atoms, got %d", len(frames), n, i)
			}
			z, pos, err := parseAtom(text)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			frame.AtomicNumbers = append(frame.AtomicNumbers, z)
			frame.Positions = append(frame.Positions, pos)
		}
		frames = append(frames, frame)
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}

func parseAtom(text string) (int64, [3]float64, error) {
	var pos [3]float64
	fields := strings.Fields(text)
	if len(fields) < 4 {
		return 0, pos, fmt.Errorf("expected element and 3 coordinates, got %q", text)
	}

	z, err := element(fields[0])
	if err != nil {
		return 0, pos, err
	}
	for d := range 3 {
		v, err := strconv.ParseFloat(fields[1+d], 64)
		if err != nil {
			return 0, pos, fmt.Errorf("invalid coordinate %q", fields[1+d])
		}
		pos[d] = v
	}
	return z, pos, nil
}

func element(s string) (int64, error) {
	if z, err := strconv.ParseInt(s, 10, 64); err == nil {
		if !elements.Valid(z) {
			return 0, fmt.Errorf("atomic number %d out of range", z)
		}
		return z, nil
	}
	// Accept lower or upper case symbols such as "CL" or "cl".
	if len(s) > 0 {
		s = strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	}
	return elements.Lookup(s)
}

// System batches frames into one system; frame i becomes molecule i.
func System(frames []Frame) schnet.System {
	var sys schnet.System
	for i, f := range frames {
		sys.AtomicNumbers = append(sys.AtomicNumbers, f.AtomicNumbers...)
		sys.Positions = append(sys.Positions, f.Positions...)
		for range f.AtomicNumbers {
			sys.Molecules = append(sys.Molecules, int64(i))
		}
	}
	return sys
}
