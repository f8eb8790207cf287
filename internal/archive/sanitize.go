package archive

import "strings"

// FallbackName replaces names that sanitize to nothing usable.
const FallbackName = "Unknown"

var pathReplacer = strings.NewReplacer(
	"/", "-", `\`, "-", "?", "-", "%", "-", "*", "-",
	":", "-", "|", "-", `"`, "-", "<", "-", ">", "-",
)

// Sanitize makes name safe for use as a single path segment. Characters
// illegal in file names become '-'; a result made only of placeholders,
// dots or spaces collapses to FallbackName.
func Sanitize(name string) string {
	s := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return '-'
		}
		return r
	}, name)
	s = strings.TrimSpace(pathReplacer.Replace(s))
	if strings.Trim(s, "-. ") == "" {
		return FallbackName
	}
	return s
}
