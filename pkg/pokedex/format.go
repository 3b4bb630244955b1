package pokedex

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FormatID renders an id as a catalogue number padded to three digits: #025.
func FormatID(id int) string {
	return fmt.Sprintf("#%03d", id)
}

// FormatName splits on "-" and capitalizes each word: "mr-mime" -> "Mr Mime".
func FormatName(name string) string {
	words := strings.Split(name, "-")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// FormatHeight converts decimetres to metres with one decimal: 4 -> "0.4m".
func FormatHeight(decimetres int) string {
	return fmt.Sprintf("%.1fm", float64(decimetres)/10)
}

// FormatWeight converts hectograms to kilograms with one decimal: 60 -> "6.0kg".
func FormatWeight(hectograms int) string {
	return fmt.Sprintf("%.1fkg", float64(hectograms)/10)
}

// StatLabel turns a stat name into its display label: "special-attack" ->
// "special attack". Only the first hyphen is replaced.
func StatLabel(name string) string {
	return strings.Replace(name, "-", " ", 1)
}
