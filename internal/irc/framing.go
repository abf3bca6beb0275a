package irc

import "strings"

// LineBuffer reassembles CRLF-terminated protocol lines out of arbitrarily
// chunked reads. A trailing partial line is kept until the next push.
type LineBuffer struct {
	rest string
}

// Push appends a chunk and returns every complete line it closes, without
// the CRLF.
func (b *LineBuffer) Push(chunk string) []string {
	b.rest += chunk
	var lines []string
	for {
		i := strings.Index(b.rest, "\r\n")
		if i < 0 {
			return lines
		}
		lines = append(lines, b.rest[:i])
		b.rest = b.rest[i+2:]
	}
}
