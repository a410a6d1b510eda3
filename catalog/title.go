package catalog

import (
	"strings"

	"github.com/johnstarich/go/regext"
)

var (
	titleSeparators = regext.MustCompile(`
		[ _ . , \- ]+   # underscores, dots, commas and dashes act like spaces
	`)
	copyCounters = regext.MustCompile(`
		\( \d+ \)       # download counters like "(1)" or "(25)"
	`)
	trailingBylines = regext.MustCompile(`
		(?i)
		\s+ (?: from | by | at | via ) \s* $
	`)
	spaceRuns = regext.MustCompile(`\s+`)
)

// CleanTitle suggests a readable title from a raw file name, keeping its extension.
// i.e. "Echocardiography_in_Pediatric_Heart_Disease_From.pdf" -> "Echocardiography in Pediatric Heart Disease.pdf"
func CleanTitle(fileName string) string {
	if fileName == "" {
		return ""
	}
	name := strings.Replace(fileName, "_", " ", -1)

	base, ext := name, ""
	if extIndex := strings.LastIndex(name, "."); extIndex > 0 {
		base, ext = name[:extIndex], name[extIndex:]
	}

	base = titleSeparators.ReplaceAllString(base, " ")
	base = copyCounters.ReplaceAllString(base, "")
	base = trailingBylines.ReplaceAllString(base, "")
	base = strings.TrimSpace(spaceRuns.ReplaceAllString(base, " "))
	return base + ext
}
