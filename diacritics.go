package slugs

const (
	diacriticsFirst = 'À'
	diacriticsLast  = 'ſ'
	diacriticsCount = diacriticsLast - diacriticsFirst + 1
)

// diacriticsTable mirrors U+00C0..U+017F without the marks. The few runes
// with no 7-bit base letter (×, Ø, ß, ð, ÷, ø, þ) map to themselves.
var diacriticsTable = [...]rune{
	// U+00C0
	'A', 'A', 'A', 'A', 'A', 'A', 'A', 'C', 'E', 'E', 'E', 'E', 'I', 'I', 'I', 'I',
	'D', 'N', 'O', 'O', 'O', 'O', 'O', '×', 'Ø', 'U', 'U', 'U', 'U', 'Y', 'I', 'ß',
	'a', 'a', 'a', 'a', 'a', 'a', 'a', 'c', 'e', 'e', 'e', 'e', 'i', 'i', 'i', 'i',
	'ð', 'n', 'o', 'o', 'o', 'o', 'o', '÷', 'ø', 'u', 'u', 'u', 'u', 'y', 'þ', 'y',
	// U+0100
	'A', 'a', 'A', 'a', 'A', 'a', 'C', 'c', 'C', 'c', 'C', 'c', 'C', 'c', 'D', 'd',
	'D', 'd', 'E', 'e', 'E', 'e', 'E', 'e', 'E', 'e', 'E', 'e', 'G', 'g', 'G', 'g',
	'G', 'g', 'G', 'g', 'H', 'h', 'H', 'h', 'I', 'i', 'I', 'i', 'I', 'i', 'I', 'i',
	'I', 'i', 'J', 'j', 'J', 'j', 'K', 'k', 'k', 'L', 'l', 'L', 'l', 'L', 'l', 'L',
	'l', 'L', 'l', 'N', 'n', 'N', 'n', 'N', 'n', 'n', 'N', 'n', 'O', 'o', 'O', 'o',
	'O', 'o', 'O', 'o', 'R', 'r', 'R', 'r', 'R', 'r', 'S', 's', 'S', 's', 'S', 's',
	'S', 's', 'T', 't', 'T', 't', 'T', 't', 'U', 'u', 'U', 'u', 'U', 'u', 'U', 'u',
	'U', 'u', 'U', 'u', 'W', 'w', 'Y', 'y', 'Y', 'Z', 'z', 'Z', 'z', 'Z', 'z', 'F',
}

// The table must cover the whole range, no more and no less.
var _ [diacriticsCount]rune = diacriticsTable

func isDiacritic(r rune) bool {
	return r >= diacriticsFirst && r <= diacriticsLast
}

// RemoveDiacritics returns a 7-bit approximation of source: every rune in
// the Latin-1 Supplement and Latin Extended-A letter range is replaced with
// its base letter. Other runes are kept as is, so the result always has the
// same number of runes as source.
func RemoveDiacritics(source string) string {
	result := []rune(source)
	for i, r := range result {
		if isDiacritic(r) {
			result[i] = diacriticsTable[r-diacriticsFirst]
		}
	}
	return string(result)
}
