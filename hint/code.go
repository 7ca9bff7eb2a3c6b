// Package hint assigns short letter codes to interactive page elements and
// narrows them down from keystrokes.
package hint

import "strings"

// Alphabet is the set of letters hint codes are built from.
const Alphabet = "abcdefghijklmnopqrstuvwxyz"

// Code returns the hint code for the element at index in assignment order.
//
// The first 26 indices get single letters. After that come all two-letter
// codes ("aa" through "zz"), then three-letter codes, so codes are unique for
// any number of elements. Index 26 is "aa", not "ba": numbering the
// two-letter block by (index/26, index%26) would skip the "a" row and run
// out of letters at index 676.
func Code(index int) string {
	if index < 0 {
		return ""
	}
	n := len(Alphabet)
	length := 1
	span := n
	for index >= span {
		index -= span
		length++
		span *= n
	}

	buf := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		buf[i] = Alphabet[index%n]
		index /= n
	}
	return string(buf)
}

// Codes returns count consecutive codes starting at index start.
func Codes(start, count int) []string {
	codes := make([]string, 0, count)
	for i := 0; i < count; i++ {
		codes = append(codes, Code(start+i))
	}
	return codes
}

// Label splits a badge label into the part already typed and the remainder,
// both uppercased. If prefix does not match, everything is remainder.
func Label(code, prefix string) (matched, rest string) {
	prefix = strings.ToLower(prefix)
	if !strings.HasPrefix(code, prefix) {
		return "", strings.ToUpper(code)
	}
	return strings.ToUpper(code[:len(prefix)]), strings.ToUpper(code[len(prefix):])
}
