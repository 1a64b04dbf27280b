// Package diag defines the closed set of failure kinds reported while
// turning a raster style into a colour scale bar, and the soft
// diagnostics collected along the way.
package diag

import (
	"errors"
	"fmt"
	"log/slog"
)

// Kind classifies a hard failure.
type Kind uint8

const (
	// ParseFailure is also the kind reported for errors not built by this package.
	ParseFailure Kind = iota
	UnsupportedFormat
	MultiBandUnsupported
	NotStyled
	TooFewColors
	BadColorItem
	SaveFailed
)

func (k Kind) String() string {
	switch k {
	case ParseFailure:
		return "ParseFailure"
	case UnsupportedFormat:
		return "UnsupportedFormat"
	case MultiBandUnsupported:
		return "MultiBandUnsupported"
	case NotStyled:
		return "NotStyled"
	case TooFewColors:
		return "TooFewColors"
	case BadColorItem:
		return "BadColorItem"
	case SaveFailed:
		return "SaveFailed"
	default:
		return fmt.Sprintf("<unknown Kind %d>", uint8(k))
	}
}

// Error is the error type returned by every stage of the pipeline.
// Two errors match under errors.Is when their kinds are equal.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // optional cause
}

func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.Err == nil:
		return e.Kind.String()
	case e.Err == nil:
		return e.Kind.String() + ": " + e.Msg
	case e.Msg == "":
		return e.Kind.String() + ": " + e.Err.Error()
	default:
		return e.Kind.String() + ": " + e.Msg + ": " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels, to be used with errors.Is.
var (
	ErrParseFailure         = &Error{Kind: ParseFailure}
	ErrUnsupportedFormat    = &Error{Kind: UnsupportedFormat}
	ErrMultiBandUnsupported = &Error{Kind: MultiBandUnsupported}
	ErrNotStyled            = &Error{Kind: NotStyled}
	ErrTooFewColors         = &Error{Kind: TooFewColors}
	ErrBadColorItem         = &Error{Kind: BadColorItem}
	ErrSaveFailed           = &Error{Kind: SaveFailed}
)

// New returns an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to err. A nil err gives nil.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain,
// or ParseFailure if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ParseFailure
}

// ErrorMode determines how soft problems met while reading a
// document are handled.
type ErrorMode uint8

const (
	// IgnoreErrorMode only records the diagnostic.
	IgnoreErrorMode ErrorMode = iota
	// WarnErrorMode records the diagnostic and logs it at warn level.
	WarnErrorMode
	// StrictErrorMode turns the diagnostic into an error where the caller supports it,
	// and otherwise logs it as WarnErrorMode does.
	StrictErrorMode
)

// Diagnostic is a soft, non-fatal problem.
type Diagnostic struct {
	Where string // element id, attribute or item index
	Msg   string
}

func (d Diagnostic) String() string {
	if d.Where == "" {
		return d.Msg
	}
	return d.Where + ": " + d.Msg
}

// Diagnostics accumulates soft problems. The zero value is ready to use.
type Diagnostics struct {
	Mode   ErrorMode
	Logger *slog.Logger // nil means slog.Default()

	list []Diagnostic
}

// Addf records a diagnostic, logging it unless the mode is IgnoreErrorMode.
func (ds *Diagnostics) Addf(where, format string, args ...interface{}) {
	d := Diagnostic{Where: where, Msg: fmt.Sprintf(format, args...)}
	ds.list = append(ds.list, d)
	if ds.Mode != IgnoreErrorMode {
		logger := ds.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn(d.Msg, "where", d.Where)
	}
}

// List returns the recorded diagnostics, in order.
func (ds *Diagnostics) List() []Diagnostic {
	if ds == nil {
		return nil
	}
	return ds.list
}

// Len returns the number of recorded diagnostics.
func (ds *Diagnostics) Len() int {
	if ds == nil {
		return 0
	}
	return len(ds.list)
}
