package node

import (
	"strings"
	"unicode/utf8"
)

// Preview 压缩空白并按字符数截断，超出时以省略号结尾
func Preview(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	r := []rune(s)
	return string(r[:maxRunes]) + "…"
}
