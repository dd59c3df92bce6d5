package export

import (
	"strings"
	"unicode"
)

// FileName builds a download name such as "nifty_50_heatmap.xlsx"
func FileName(index, format string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(index) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}

	name := strings.TrimSuffix(b.String(), "_")
	if name == "" {
		name = "index"
	}
	return name + "_heatmap." + format
}
