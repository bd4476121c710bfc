//go:build windows
// +build windows

package logger

import (
	"os"
	"strings"
	"syscall"
	"unsafe"
)

const SupportsColorEscapes = true

var kernel32 = syscall.NewLazyDLL("kernel32.dll")
var getConsoleMode = kernel32.NewProc("GetConsoleMode")
var setConsoleTextAttribute = kernel32.NewProc("SetConsoleTextAttribute")

func GetTerminalInfo(file *os.File) TerminalInfo {
	fd := file.Fd()

	// Is this file descriptor a terminal?
	var unused uint32
	isTTY, _, _ := syscall.Syscall(getConsoleMode.Addr(), 2, fd, uintptr(unsafe.Pointer(&unused)), 0)

	return TerminalInfo{
		IsTTY:           isTTY != 0,
		UseColorEscapes: isTTY != 0,
	}
}

// writeStringWithColor translates the ANSI escapes Msg.String emits
// (colorReset/colorRed/colorMagenta/colorYellow/colorBold/colorResetBold)
// into SetConsoleTextAttribute calls, since cmd.exe does not interpret them
// itself the way every other terminal this package targets does.
func writeStringWithColor(file *os.File, text string) {
	const FOREGROUND_BLUE = 1
	const FOREGROUND_GREEN = 2
	const FOREGROUND_RED = 4
	const FOREGROUND_INTENSITY = 8
	const plain = FOREGROUND_RED | FOREGROUND_GREEN | FOREGROUND_BLUE

	fd := file.Fd()
	i := 0

	for i < len(text) {
		var attributes uintptr
		end := i

		switch {
		case text[i] != 033:
			i++
			continue

		case strings.HasPrefix(text[i:], colorReset):
			i += len(colorReset)
			attributes = plain

		case strings.HasPrefix(text[i:], colorResetBold):
			i += len(colorResetBold)
			attributes = plain | FOREGROUND_INTENSITY

		case strings.HasPrefix(text[i:], colorRed):
			i += len(colorRed)
			attributes = FOREGROUND_RED

		case strings.HasPrefix(text[i:], colorMagenta):
			i += len(colorMagenta)
			attributes = FOREGROUND_RED | FOREGROUND_BLUE

		case strings.HasPrefix(text[i:], colorYellow):
			i += len(colorYellow)
			attributes = FOREGROUND_RED | FOREGROUND_GREEN

		case strings.HasPrefix(text[i:], colorBold):
			i += len(colorBold)
			attributes = plain | FOREGROUND_INTENSITY

		default:
			i++
			continue
		}

		file.WriteString(text[:end])
		text = text[i:]
		i = 0
		setConsoleTextAttribute.Call(fd, attributes)
	}

	file.WriteString(text)
}
