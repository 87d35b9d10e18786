package normalize

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// delimiterPriority is the order in which candidate delimiters are tested.
// The first one present on the line wins even if a later one also appears.
var delimiterPriority = []rune{'|', ',', ' '}

// SniffDelimiter reads up to the first non-blank line of r and returns the
// highest-priority delimiter it contains. ok is false when the line holds
// none of them (or the input is empty). The line is returned without its
// terminator for logging.
func SniffDelimiter(r io.Reader) (delim rune, ok bool, line string) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line = strings.TrimRight(sc.Text(), "\r")
		if line != "" {
			break
		}
	}
	for _, d := range delimiterPriority {
		if strings.ContainsRune(line, d) {
			return d, true, line
		}
	}
	return 0, false, line
}

// SniffFile opens path and runs [SniffDelimiter] on it.
func SniffFile(path string) (delim rune, ok bool, line string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false, "", err
	}
	defer f.Close()
	delim, ok, line = SniffDelimiter(f)
	return delim, ok, line, nil
}
