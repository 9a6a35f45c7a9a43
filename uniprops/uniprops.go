// Package uniprops carries the Unicode property-name table used when
// parsing \p{...} escapes, plus the slugging and normalization rules
// Oniguruma applies to property names.
package uniprops

import (
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
)

var (
	separatorRun  = regexp2.MustCompile(`[-_ ]+`, regexp2.None)
	camelBoundary = regexp2.MustCompile(`([\p{Ll}\d])(\p{Lu})`, regexp2.None)
)

// Slug lowercases a property name and strips separator runs, producing
// the lookup key used by property maps.
func Slug(name string) string {
	s, err := separatorRun.Replace(strings.TrimSpace(name), "", -1, -1)
	if err != nil {
		s = strings.TrimSpace(name)
	}
	return strings.ToLower(s)
}

// Normalize canonicalizes an unknown property name: trims, collapses
// separator runs to a single underscore, splits CamelCase on word
// boundaries and title-cases each word.
func Normalize(name string) string {
	s := strings.TrimSpace(name)
	if out, err := separatorRun.Replace(s, "_", -1, -1); err == nil {
		s = out
	}
	if out, err := camelBoundary.Replace(s, "$1_$2", -1, -1); err == nil {
		s = out
	}
	parts := strings.Split(s, "_")
	for i, part := range parts {
		parts[i] = titleCase(part)
	}
	return strings.Join(parts, "_")
}

func titleCase(word string) string {
	if word == "" {
		return word
	}
	runes := []rune(strings.ToLower(word))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// generalCategories maps each category's short alias to its canonical
// long name. Both spellings slug to the same canonical entry.
var generalCategories = map[string]string{
	"C":  "Other",
	"Cc": "Control",
	"Cf": "Format",
	"Cn": "Unassigned",
	"Co": "Private_Use",
	"Cs": "Surrogate",
	"L":  "Letter",
	"LC": "Cased_Letter",
	"Lu": "Uppercase_Letter",
	"Ll": "Lowercase_Letter",
	"Lt": "Titlecase_Letter",
	"Lm": "Modifier_Letter",
	"Lo": "Other_Letter",
	"M":  "Mark",
	"Mn": "Nonspacing_Mark",
	"Mc": "Spacing_Mark",
	"Me": "Enclosing_Mark",
	"N":  "Number",
	"Nd": "Decimal_Number",
	"Nl": "Letter_Number",
	"No": "Other_Number",
	"P":  "Punctuation",
	"Pc": "Connector_Punctuation",
	"Pd": "Dash_Punctuation",
	"Ps": "Open_Punctuation",
	"Pe": "Close_Punctuation",
	"Pi": "Initial_Punctuation",
	"Pf": "Final_Punctuation",
	"Po": "Other_Punctuation",
	"S":  "Symbol",
	"Sm": "Math_Symbol",
	"Sc": "Currency_Symbol",
	"Sk": "Modifier_Symbol",
	"So": "Other_Symbol",
	"Z":  "Separator",
	"Zs": "Space_Separator",
	"Zl": "Line_Separator",
	"Zp": "Paragraph_Separator",
}

// binaryProperties maps binary-property short aliases to canonical
// names.
var binaryProperties = map[string]string{
	"AHex":   "ASCII_Hex_Digit",
	"Alpha":  "Alphabetic",
	"CI":     "Case_Ignorable",
	"DI":     "Default_Ignorable_Code_Point",
	"Hex":    "Hex_Digit",
	"IDC":    "ID_Continue",
	"IDS":    "ID_Start",
	"Lower":  "Lowercase",
	"Upper":  "Uppercase",
	"WSpace": "White_Space",
}

// noAliasBinaries are binary properties whose canonical name is also
// their only spelling.
var noAliasBinaries = []string{
	"Any", "ASCII", "Assigned", "Cased", "Dash", "Emoji",
	"Grapheme_Base", "Grapheme_Extend", "Math", "Word",
}

// scripts in common use; canonical script names are their own spelling.
var scripts = []string{
	"Arabic", "Armenian", "Bengali", "Cherokee", "Common", "Cyrillic",
	"Devanagari", "Ethiopic", "Georgian", "Greek", "Han", "Hangul",
	"Hebrew", "Hiragana", "Inherited", "Katakana", "Khmer", "Lao",
	"Latin", "Mongolian", "Myanmar", "Tamil", "Thai", "Tibetan",
}

// posixNames are accepted through \p{...} as well as [[:...:]]; their
// canonical spelling stays lowercase.
var posixNames = []string{
	"alnum", "alpha", "ascii", "blank", "cntrl", "digit", "graph",
	"lower", "print", "punct", "space", "upper", "word", "xdigit",
}

// DefaultPropertyMap maps slugs to canonical property names. It covers
// general categories (short and long spellings), common binary
// properties, common scripts and the POSIX names.
var DefaultPropertyMap = buildDefaultMap()

// shortAliases maps canonical names back to their standard short alias.
var shortAliases = buildShortAliases()

func buildDefaultMap() map[string]string {
	m := make(map[string]string)
	for short, long := range generalCategories {
		m[Slug(short)] = long
		m[Slug(long)] = long
	}
	for short, long := range binaryProperties {
		m[Slug(short)] = long
		m[Slug(long)] = long
	}
	for _, name := range noAliasBinaries {
		m[Slug(name)] = name
	}
	for _, name := range scripts {
		m[Slug(name)] = name
	}
	for _, name := range posixNames {
		m[Slug(name)] = name
	}
	return m
}

func buildShortAliases() map[string]string {
	m := make(map[string]string)
	for short, long := range generalCategories {
		m[long] = short
	}
	for short, long := range binaryProperties {
		m[long] = short
	}
	return m
}

// ShortAlias returns the standard short alias for a canonical property
// name, if one exists.
func ShortAlias(canonical string) (string, bool) {
	alias, ok := shortAliases[canonical]
	return alias, ok
}

// Canonical looks a name up in the default table.
func Canonical(name string) (string, bool) {
	value, ok := DefaultPropertyMap[Slug(name)]
	return value, ok
}
