package zstring

import "github.com/pmcgill/zvm/zcore"

// DefaultUnicodeTranslationTable maps the standard high ZSCII range (155..251)
// used for accented and non-Latin characters. Stories can replace it via the
// header extension table.
var DefaultUnicodeTranslationTable = map[rune]uint8{
	'ä': 155,
	'ö': 156,
	'ü': 157,
	'Ä': 158,
	'Ö': 159,
	'Ü': 160,
	'ß': 161,
	'»': 162,
	'«': 163,
	'ë': 164,
	'ï': 165,
	'ÿ': 166,
	'Ë': 167,
	'Ï': 168,
	'á': 169,
	'é': 170,
	'í': 171,
	'ó': 172,
	'ú': 173,
	'ý': 174,
	'Á': 175,
	'É': 176,
	'Í': 177,
	'Ó': 178,
	'Ú': 179,
	'Ý': 180,
	'à': 181,
	'è': 182,
	'ì': 183,
	'ò': 184,
	'ù': 185,
	'À': 186,
	'È': 187,
	'Ì': 188,
	'Ò': 189,
	'Ù': 190,
	'â': 191,
	'ê': 192,
	'î': 193,
	'ô': 194,
	'û': 195,
	'Â': 196,
	'Ê': 197,
	'Î': 198,
	'Ô': 199,
	'Û': 200,
	'å': 201,
	'Å': 202,
	'ø': 203,
	'Ø': 204,
	'ã': 205,
	'ñ': 206,
	'õ': 207,
	'Ã': 208,
	'Ñ': 209,
	'Õ': 210,
	'æ': 211,
	'Æ': 212,
	'ç': 213,
	'Ç': 214,
	'þ': 215,
	'ð': 216,
	'Þ': 217,
	'Ð': 218,
	'£': 219,
	'œ': 220,
	'Œ': 221,
	'¡': 222,
	'¿': 223,
}

// zsciiToRune maps a ZSCII code to a printable rune. Printable ZSCII is
// 32..126 (plain ASCII), 13 is newline, and 155..251 goes through the
// translation table. Anything else renders as a placeholder.
func zsciiToRune(code uint16, core *zcore.Core) rune {
	switch {
	case code == 13:
		return '\n'
	case code >= 32 && code <= 126:
		return rune(code)
	case code >= 155 && code <= 251:
		table := unicodeTranslationTable(core)
		for r, zscii := range table {
			if uint16(zscii) == code {
				return r
			}
		}
		return '@'
	default:
		return '@'
	}
}

// ZsciiToRune is the exported form used by print_char.
func ZsciiToRune(code uint16, core *zcore.Core) rune {
	return zsciiToRune(code, core)
}

// runeToZscii maps a rune back to a ZSCII code for the encoder's escapes.
// The bool is false for characters with no ZSCII form.
func runeToZscii(r rune, core *zcore.Core) (uint16, bool) {
	if r == '\n' {
		return 13, true
	}
	if r >= 32 && r <= 126 {
		return uint16(r), true
	}
	if code, ok := unicodeTranslationTable(core)[r]; ok {
		return uint16(code), true
	}
	return 0, false
}

func unicodeTranslationTable(core *zcore.Core) map[rune]uint8 {
	if core != nil && core.UnicodeExtensionTableBaseAddress != 0 {
		return parseUnicodeTranslationTable(core)
	}
	return DefaultUnicodeTranslationTable
}

func parseUnicodeTranslationTable(core *zcore.Core) map[rune]uint8 {
	table := make(map[rune]uint8)

	count := core.ReadByte(uint32(core.UnicodeExtensionTableBaseAddress))
	start := uint32(core.UnicodeExtensionTableBaseAddress) + 1
	for i := uint32(0); i < uint32(count); i++ {
		table[rune(core.ReadHalfWord(start+2*i))] = uint8(155 + i)
	}

	return table
}
