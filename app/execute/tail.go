package execute

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
)

// tail keeps the last non-empty lines written to it in a fixed ring.
type tail struct {
	mu      sync.Mutex
	ring    []string
	next    int // position for the next line
	full    bool
	dropped int
}

func newTail(size int) *tail {
	return &tail{ring: make([]string, size)}
}

func (t *tail) Write(p []byte) (int, error) {
	if len(t.ring) == 0 {
		return len(p), nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for line := range bytes.SplitSeq(p, []byte{'\n'}) {
		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 {
			continue
		}
		if t.full {
			t.dropped++
		}
		t.ring[t.next] = string(line)
		t.next = (t.next + 1) % len(t.ring)
		if t.next == 0 {
			t.full = true
		}
	}
	return len(p), nil
}

// String returns kept lines in write order, noting how many earlier lines were skipped.
func (t *tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	lines := t.ring[:t.next]
	if t.full {
		lines = append(append([]string{}, t.ring[t.next:]...), t.ring[:t.next]...)
	}
	res := strings.Join(lines, "\n")
	if t.dropped > 0 {
		res = fmt.Sprintf("... %d lines skipped\n%s", t.dropped, res)
	}
	return res
}
