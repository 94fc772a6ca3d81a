package execute

import (
	"bytes"
	"io"
)

const maxPrefixLen = 16

// prefixWriter marks every output line with a short command tag, e.g. "{pip install} ".
// Lines split between writes get the tag once.
type prefixWriter struct {
	dst     io.Writer
	tag     []byte
	midLine bool
}

func newPrefixWriter(dst io.Writer, command string) *prefixWriter {
	if len(command) > maxPrefixLen {
		command = command[:maxPrefixLen] + "..."
	}
	return &prefixWriter{dst: dst, tag: []byte("{" + command + "} ")}
}

// Write returns the number of bytes consumed from p, the tags are not counted.
func (w *prefixWriter) Write(p []byte) (int, error) {
	var buf bytes.Buffer
	for rest := p; len(rest) > 0; {
		if !w.midLine {
			buf.Write(w.tag)
		}
		line := rest
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			line = rest[:i+1]
		}
		buf.Write(line)
		rest = rest[len(line):]
		w.midLine = line[len(line)-1] != '\n'
	}
	if _, err := w.dst.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}
