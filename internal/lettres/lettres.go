// Package lettres spells amounts out in French words for the printed
// documents ("sept cent quatre-vingt-dix mille francs CFA").
package lettres

import "strings"

var units = []string{
	"zéro", "un", "deux", "trois", "quatre", "cinq", "six", "sept", "huit", "neuf",
	"dix", "onze", "douze", "treize", "quatorze", "quinze", "seize",
}

var tens = []string{"", "dix", "vingt", "trente", "quarante", "cinquante", "soixante"}

func underHundred(n int64) string {
	switch {
	case n < 17:
		return units[n]
	case n < 20:
		return "dix-" + units[n-10]
	case n < 70:
		d, u := n/10, n%10
		base := tens[d]
		if u == 1 {
			return base + " et un"
		}
		if u != 0 {
			return base + "-" + units[u]
		}
		return base
	case n < 80:
		if n == 71 {
			return "soixante et onze"
		}
		return "soixante-" + underHundred(n-60)
	case n == 80:
		return "quatre-vingts"
	default:
		return "quatre-vingt-" + strings.Replace(underHundred(n-80), "dix-un", "onze", 1)
	}
}

// underThousand spells a three-digit group. Vingt and cent take an s
// only when multiplied and not followed by the numeral "mille"; final
// is false for the thousands group.
func underThousand(n int64, final bool) string {
	var s string
	if n < 100 {
		s = underHundred(n)
	} else {
		c, r := n/100, n%100
		cent := "cent"
		if c != 1 {
			cent = units[c] + " cent"
		}
		switch {
		case r != 0:
			s = cent + " " + underHundred(r)
		case c != 1 && final:
			s = cent + "s"
		default:
			s = cent
		}
	}
	if !final && strings.HasSuffix(s, "quatre-vingts") {
		s = strings.TrimSuffix(s, "s")
	}
	return s
}

// EnLettres spells a whole number out in French.
func EnLettres(n int64) string {
	if n == 0 {
		return "zéro"
	}
	if n < 0 {
		return "moins " + EnLettres(-n)
	}

	var parts []string
	milliards := n / 1_000_000_000
	n %= 1_000_000_000
	millions := n / 1_000_000
	n %= 1_000_000
	milliers := n / 1000
	reste := n % 1000

	if milliards != 0 {
		if milliards == 1 {
			parts = append(parts, "un milliard")
		} else {
			parts = append(parts, underThousand(milliards, true)+" milliards")
		}
	}
	if millions != 0 {
		if millions == 1 {
			parts = append(parts, "un million")
		} else {
			parts = append(parts, underThousand(millions, true)+" millions")
		}
	}
	if milliers != 0 {
		if milliers == 1 {
			parts = append(parts, "mille")
		} else {
			parts = append(parts, underThousand(milliers, false)+" mille")
		}
	}
	if reste != 0 {
		parts = append(parts, underThousand(reste, true))
	}

	return strings.Join(parts, " ")
}

// Montant spells an amount out with the currency suffix, singularizing
// "franc" when the amount ends in "un".
func Montant(montant int64) string {
	return strings.Replace(EnLettres(montant)+" francs CFA", "un francs", "un franc", 1)
}
