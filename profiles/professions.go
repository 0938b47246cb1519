package profiles

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/text/cases"
)

// Professions lists the values offered by the profile form in display order
var Professions = []string{
	"Housewife",
	"IT",
	"Lecturer",
	"Part-time worker",
	"Private shops and business",
	"Doctor",
	"Employee",
	"Other (Student)",
}

var (
	professionSet = mapset.NewSet[string](Professions...)
	foldedIndex   = foldProfessions()
)

func foldProfessions() map[string]string {
	fold := cases.Fold()
	index := make(map[string]string, len(Professions))
	for _, p := range Professions {
		index[fold.String(p)] = p
	}
	return index
}

func IsProfession(value string) bool {
	return professionSet.Contains(value)
}

// CanonicalProfession returns the listed profession matching value regardless of case and
// surrounding whitespace. Unknown values are returned unchanged.
func CanonicalProfession(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if canonical, ok := foldedIndex[cases.Fold().String(value)]; ok {
		return canonical
	}
	return value
}
