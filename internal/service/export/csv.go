package export

import (
	"io"
	"strings"
)

// Characters that can start a spreadsheet formula. Cells beginning with one
// are defused: the leading run is stripped and the remainder quoted, so
// `=2+5` downloads as `"2+5"`.
const formulaChars = "=+-@"

func defuse(cell string) (string, bool) {
	trimmed := strings.TrimLeft(cell, formulaChars)
	return trimmed, trimmed != cell
}

// writeRow emits one CRLF-terminated CSV row. The standard csv writer only
// quotes when the dialect requires it, which would leave defused cells
// unquoted, so quoting is handled here.
func writeRow(w io.Writer, cells []string) error {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		cell, defused := defuse(cell)
		if defused || strings.ContainsAny(cell, ",\"\r\n") {
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(cell, `"`, `""`))
			b.WriteByte('"')
		} else {
			b.WriteString(cell)
		}
	}
	b.WriteString("\r\n")
	_, err := io.WriteString(w, b.String())
	return err
}
