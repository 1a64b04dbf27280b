package svgpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	errParamMismatch  = errors.New("param mismatch")
	errNumberBeforeOp = errors.New("number before any path command")
)

// ParsePath reads a path "d" attribute. A byte above '@' starts a new
// command; space, comma and '-' separate numbers, '-' also starting the
// next one. A malformed string gives an empty path and an error.
func ParsePath(d string) (Path, error) {
	var (
		out  Path
		cur  *PathCommand
		num  []byte
		seen bool // a command letter has been read
	)
	flushNum := func() error {
		if len(num) == 0 {
			return nil
		}
		if !seen {
			return errNumberBeforeOp
		}
		f, err := strconv.ParseFloat(string(num), 64)
		num = num[:0]
		if err != nil {
			return err
		}
		cur.Args = append(cur.Args, f)
		return nil
	}
	for i := 0; i < len(d); i++ {
		c := d[i]
		var err error
		switch {
		case c > '@':
			if err = flushNum(); err != nil {
				break
			}
			out = append(out, PathCommand{Op: c})
			cur = &out[len(out)-1]
			seen = true
		case c <= ' ' || c == ',':
			err = flushNum()
		case c == '-':
			err = flushNum()
			num = append(num, c)
		case c == '.' && strings.IndexByte(string(num), '.') >= 0:
			// "0.5.5" is two numbers
			err = flushNum()
			num = append(num, c)
		default:
			num = append(num, c)
		}
		if err != nil {
			return Path{}, fmt.Errorf("invalid path %q: %w", d, err)
		}
	}
	if err := flushNum(); err != nil {
		return Path{}, fmt.Errorf("invalid path %q: %w", d, err)
	}
	return out, nil
}

// splitNumbers reads a list of numbers separated by spaces, commas,
// or a '-' sign not following an exponent marker.
func splitNumbers(s string) ([]float64, error) {
	var (
		out []float64
		num []byte
	)
	flush := func() error {
		if len(num) == 0 {
			return nil
		}
		f, err := strconv.ParseFloat(string(num), 64)
		num = num[:0]
		if err != nil {
			return err
		}
		out = append(out, f)
		return nil
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c <= ' ' || c == ',':
			if err := flush(); err != nil {
				return nil, err
			}
		case c == '-' && !(len(num) > 0 && (num[len(num)-1] == 'e' || num[len(num)-1] == 'E')):
			if err := flush(); err != nil {
				return nil, err
			}
			num = append(num, c)
		default:
			num = append(num, c)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}
