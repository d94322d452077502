package at

import (
	"bufio"
	"bytes"
	"strings"
)

// Splitter is a bufio.SplitFunc for the modem output stream. Tokens are CRLF
// terminated lines, with the payload prompt ("> ") as a token of its own
// since the module sends it without a line ending.
//
// Echo must be off (ATE0); an echoed command would be returned as a data
// line ahead of the response.
//
// At EOF whatever is left is returned as the last token.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	switch {
	case atEOF && len(data) == 0:
		return 0, nil, nil
	case bytes.HasPrefix(data, []byte(Prompt)):
		return len(Prompt), data[:len(Prompt)], nil
	}

	if i := bytes.Index(data, []byte(CRLF)); i >= 0 {
		return i + len(CRLF), data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	// Request more data.
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// urcPrefixes are the unsolicited lines the module emits for sockets and
// power state.
var urcPrefixes = []string{
	UrcSocketRing,
	UrcSocketClosed,
	UrcSysStart,
	UrcShutdown,
}

// Classify reports what kind of line a token is.
func Classify(line string) ResponseType {
	switch line {
	case Prompt:
		return TypePrompt
	case OK, ERROR, NoCarrier:
		return TypeFinal
	}
	if strings.HasPrefix(line, CmeError) || strings.HasPrefix(line, CmsError) {
		return TypeFinal
	}
	for _, prefix := range urcPrefixes {
		if strings.HasPrefix(line, prefix) {
			return TypeURC
		}
	}
	return TypeData
}

// Field returns the value of an information response after its prefix,
// for example "2,1" for "+CEREG: 2,1". ok is false when line does not start
// with prefix.
func Field(line, prefix string) (value string, ok bool) {
	rest, ok := strings.CutPrefix(line, prefix)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(rest), true
}
