// Package logger is the diagnostic channel described in §6/§7: every
// program error, possible-violation warning, configuration error and
// internal-invariant failure produced anywhere in the core flows through a
// logger.Log value. Nothing in this package touches a terminal directly
// except the StderrOptions-driven renderer, which external collaborators
// may or may not use.
package logger

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

type Log struct {
	AddMsg    func(Msg)
	HasErrors func() bool
	Done      func() []Msg
}

type LogLevel int8

const (
	LevelNone LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelSilent
)

type MsgKind uint8

const (
	Error MsgKind = iota
	Warning
	Debug
	Verbose
	// Internal marks a fatal "internal compiler error" per §7: change-verifier
	// audit failures, impossible type-lattice states, malformed mutations.
	// A compilation that emits one is always considered failed regardless of
	// LogLevel.
	Internal
)

func (k MsgKind) String() string {
	switch k {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Debug:
		return "debug"
	case Verbose:
		return "verbose"
	case Internal:
		return "internal error"
	default:
		return "unknown"
	}
}

// Msg is one diagnostic. Possible distinguishes a spec-definite violation
// from one that only holds under a loose/inferred type (§7): possible
// warnings are always MsgKind Warning but are rendered and can be filtered
// separately by consulting Possible.
type Msg struct {
	Kind     MsgKind
	ID       MsgID
	Text     string
	Possible bool
	Location *MsgLocation
	Notes    []Msg
}

type MsgLocation struct {
	File     string
	Line     int // 1-based, per §6
	Column   int // 0-based, in bytes, per §6
	Length   int // in bytes
	LineText string
}

type Loc struct {
	// This is the 0-based index of this location from the start of the file, in bytes
	Start int32
}

type Range struct {
	Loc Loc
	Len int32
}

func (r Range) End() int32 {
	return r.Loc.Start + r.Len
}

type msgsArray []Msg

func (a msgsArray) Len() int          { return len(a) }
func (a msgsArray) Swap(i int, j int) { a[i], a[j] = a[j], a[i] }

func (a msgsArray) Less(i int, j int) bool {
	ai := a[i]
	aj := a[j]

	li := ai.Location
	lj := aj.Location

	if li == nil && lj != nil {
		return true
	}
	if li != nil && lj == nil {
		return false
	}

	if li != nil && lj != nil {
		if li.File != lj.File {
			return li.File < lj.File
		}
		if li.Line != lj.Line {
			return li.Line < lj.Line
		}
		if li.Column != lj.Column {
			return li.Column < lj.Column
		}
		if li.Length != lj.Length {
			return li.Length < lj.Length
		}
	}

	if ai.Kind != aj.Kind {
		return ai.Kind < aj.Kind
	}
	return ai.Text < aj.Text
}

// Source is the identity a Node's location is resolved against (§3 "a
// pointer to a source input identity"). The core never reads or writes the
// backing file; Contents is handed in by the external collaborator that did
// the parsing.
type Source struct {
	Index uint32

	// Opaque identity, never shown to the user.
	KeyPath string

	// Platform-independent path for diagnostics.
	PrettyPath string

	Contents string
}

func (s *Source) TextForRange(r Range) string {
	return s.Contents[r.Loc.Start : r.Loc.Start+r.Len]
}

func computeLineAndColumn(contents string, offset int) (lineCount int, columnCount int, lineStart int, lineEnd int) {
	var prevCodePoint rune
	if offset > len(contents) {
		offset = len(contents)
	}

	for i, codePoint := range contents[:offset] {
		switch codePoint {
		case '\n':
			lineStart = i + 1
			if prevCodePoint != '\r' {
				lineCount++
			}
		case '\r':
			lineStart = i + 1
			lineCount++
		case ' ', ' ':
			lineStart = i + 3
			lineCount++
		}
		prevCodePoint = codePoint
	}

	lineEnd = len(contents)
loop:
	for i, codePoint := range contents[offset:] {
		switch codePoint {
		case '\r', '\n', ' ', ' ':
			lineEnd = offset + i
			break loop
		}
	}

	columnCount = offset - lineStart
	return
}

func LocationOrNil(source *Source, r Range) *MsgLocation {
	if source == nil {
		return nil
	}

	lineCount, columnCount, lineStart, lineEnd := computeLineAndColumn(source.Contents, int(r.Loc.Start))

	return &MsgLocation{
		File:     source.PrettyPath,
		Line:     lineCount + 1,
		Column:   columnCount,
		Length:   int(r.Len),
		LineText: source.Contents[lineStart:lineEnd],
	}
}

func plural(prefix string, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, prefix)
	}
	return fmt.Sprintf("%d %ss", count, prefix)
}

func errorAndWarningSummary(errors int, warnings int) string {
	switch {
	case errors == 0:
		return plural("warning", warnings)
	case warnings == 0:
		return plural("error", errors)
	default:
		return fmt.Sprintf("%s and %s", plural("warning", warnings), plural("error", errors))
	}
}

type TerminalInfo struct {
	IsTTY           bool
	UseColorEscapes bool
}

type StderrColor uint8

const (
	ColorIfTerminal StderrColor = iota
	ColorNever
	ColorAlways
)

type StderrOptions struct {
	ErrorLimit int
	Color      StderrColor
	LogLevel   LogLevel
}

// NewStderrLog is the reference sink used by cmd/tccompile. Nothing in
// internal/passes, internal/infer, internal/conformance or internal/verify
// ever constructs one of these directly -- they only see the Log interface.
func NewStderrLog(options StderrOptions) Log {
	var mutex sync.Mutex
	var msgs msgsArray
	terminalInfo := GetTerminalInfo(os.Stderr)
	errors := 0
	warnings := 0
	errorLimitWasHit := false

	switch options.Color {
	case ColorNever:
		terminalInfo.UseColorEscapes = false
	case ColorAlways:
		terminalInfo.UseColorEscapes = SupportsColorEscapes
	}

	return Log{
		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			msgs = append(msgs, msg)

			if errorLimitWasHit {
				return
			}

			switch msg.Kind {
			case Error, Internal:
				errors++
				if options.LogLevel <= LevelError {
					writeStringWithColor(os.Stderr, msg.String(options, terminalInfo))
				}
			case Warning:
				warnings++
				if options.LogLevel <= LevelWarning {
					writeStringWithColor(os.Stderr, msg.String(options, terminalInfo))
				}
			default:
				if options.LogLevel <= LevelInfo {
					writeStringWithColor(os.Stderr, msg.String(options, terminalInfo))
				}
			}

			if options.ErrorLimit != 0 && errors >= options.ErrorLimit {
				errorLimitWasHit = true
				if options.LogLevel <= LevelError {
					writeStringWithColor(os.Stderr, fmt.Sprintf(
						"%s reached (disable error limit with --error-limit=0)\n", errorAndWarningSummary(errors, warnings)))
				}
			}
		},
		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return errors > 0
		},
		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()
			if !errorLimitWasHit && options.LogLevel <= LevelInfo && (warnings != 0 || errors != 0) {
				writeStringWithColor(os.Stderr, fmt.Sprintf("%s\n", errorAndWarningSummary(errors, warnings)))
			}
			sort.Stable(msgs)
			return msgs
		},
	}
}

// NewDeferLog buffers everything and never writes to a terminal. This is
// what the pass manager and the conformance engine use internally, and what
// tests use to assert on the produced Msg slice (§8 boundary behaviors).
func NewDeferLog() Log {
	var msgs msgsArray
	var mutex sync.Mutex
	var hasErrors bool

	return Log{
		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			if msg.Kind == Error || msg.Kind == Internal {
				hasErrors = true
			}
			msgs = append(msgs, msg)
		},
		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return hasErrors
		},
		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()
			sort.Stable(msgs)
			return msgs
		},
	}
}

const colorReset = "\033[0m"
const colorRed = "\033[31m"
const colorMagenta = "\033[35m"
const colorYellow = "\033[33m"
const colorBold = "\033[1m"
const colorResetBold = "\033[0;1m"

// String renders one diagnostic line as "path:line:col: kind: text",
// matching what LocationOrNil computed from computeLineAndColumn. Only this
// path/line/col form is rendered -- reconstructing the surrounding source
// line as a caret-pointed excerpt is final-text-emission tooling this core
// has no printer to support (§7 Non-goals), so String never needs the
// source text carried on MsgLocation beyond its Line/Column themselves.
func (msg Msg) String(options StderrOptions, terminalInfo TerminalInfo) string {
	kind := msg.Kind.String()
	kindColor := colorRed
	switch msg.Kind {
	case Warning:
		kindColor = colorMagenta
	case Debug, Verbose:
		kindColor = colorYellow
	}

	if msg.Location == nil {
		if terminalInfo.UseColorEscapes {
			return fmt.Sprintf("%s%s%s: %s%s%s\n", colorBold, kindColor, kind, colorResetBold, msg.Text, colorReset)
		}
		return fmt.Sprintf("%s: %s\n", kind, msg.Text)
	}

	if terminalInfo.UseColorEscapes {
		return fmt.Sprintf("%s%s:%d:%d: %s%s: %s%s%s\n",
			colorBold, msg.Location.File, msg.Location.Line, msg.Location.Column,
			kindColor, kind, colorResetBold, msg.Text, colorReset)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s\n", msg.Location.File, msg.Location.Line, msg.Location.Column, kind, msg.Text)
}

func (log Log) AddError(source *Source, loc Loc, id MsgID, text string) {
	log.AddMsg(Msg{Kind: Error, ID: id, Text: text, Location: LocationOrNil(source, Range{Loc: loc})})
}

func (log Log) AddWarning(source *Source, loc Loc, id MsgID, text string) {
	log.AddMsg(Msg{Kind: Warning, ID: id, Text: text, Location: LocationOrNil(source, Range{Loc: loc})})
}

// AddPossibleWarning is used by the type inference engine when a violation
// can only be proven against a loose/inferred type (§7).
func (log Log) AddPossibleWarning(source *Source, loc Loc, id MsgID, text string) {
	log.AddMsg(Msg{Kind: Warning, ID: id, Text: text, Possible: true, Location: LocationOrNil(source, Range{Loc: loc})})
}

func (log Log) AddInternalError(source *Source, loc Loc, text string) {
	log.AddMsg(Msg{Kind: Internal, ID: MsgID_None, Text: text, Location: LocationOrNil(source, Range{Loc: loc})})
}

func (log Log) AddRangeError(source *Source, r Range, id MsgID, text string) {
	log.AddMsg(Msg{Kind: Error, ID: id, Text: text, Location: LocationOrNil(source, r)})
}

func (log Log) AddRangeWarning(source *Source, r Range, id MsgID, text string) {
	log.AddMsg(Msg{Kind: Warning, ID: id, Text: text, Location: LocationOrNil(source, r)})
}
