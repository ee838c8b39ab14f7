package normalize

import "regexp"

// rule is a single substitution applied to the whole working text.
type rule struct {
	pattern *regexp.Regexp
	replace string
}

func lit(pattern, replace string) rule {
	return rule{pattern: regexp.MustCompile(regexp.QuoteMeta(pattern)), replace: replace}
}

func re(pattern, replace string) rule {
	return rule{pattern: regexp.MustCompile(pattern), replace: replace}
}

// rules is evaluated strictly in order over the entire text. Compound units
// containing symbol characters come first: the slash rule below would
// otherwise consume them before the unit pass could match. Everything else
// follows the category order symbols, exponents, abbreviations, units. Every
// replacement is chosen so no rule can match its own output, keeping the
// whole pass idempotent.
var rules = []rule{
	// Units that overlap the symbol table.
	lit("m/s²", " meters per second squared "),
	re(`\bm/s\b`, " meters per second "),
	re(`\bkm/h\b`, " kilometers per hour "),

	// Mathematical and Greek symbols.
	lit("+", " plus "),
	lit("-", " minus "),
	lit("*", " times "),
	lit("/", " divided by "),
	lit("=", " equals "),
	lit("≠", " not equals "),
	lit("≈", " approximately "),
	lit("≤", " less than or equal to "),
	lit("≥", " greater than or equal to "),
	lit("<", " less than "),
	lit(">", " greater than "),
	lit("∞", " infinity "),
	lit("π", " pi "),
	lit("∑", " sum "),
	lit("∫", " integral "),
	lit("∂", " partial "),
	lit("∇", " del "),
	lit("Δ", " delta "),
	lit("α", " alpha "),
	lit("β", " beta "),
	lit("γ", " gamma "),
	lit("θ", " theta "),
	lit("λ", " lambda "),
	lit("μ", " mu "),
	lit("σ", " sigma "),
	lit("ω", " omega "),
	lit("Ω", " ohm "),

	// Exponents and subscripts. The squared/cubed literals must win over
	// the generic power rule.
	lit("x^2", "x squared"),
	lit("x^3", "x cubed"),
	re(`\^(\d+)`, " to the power of $1"),
	re(`_(\d+)`, " subscript $1"),

	// Domain abbreviations, whole-word and case-sensitive.
	re(`\bCO2\b`, "C O 2"),
	re(`\bH2O\b`, "H 2 O"),
	re(`\bO2\b`, "O 2"),
	re(`\bN2\b`, "N 2"),
	re(`\bpH\b`, "P H"),
	re(`\bDNA\b`, "D N A"),
	re(`\bRNA\b`, "R N A"),
	re(`\bATP\b`, "A T P"),
	re(`\bNaCl\b`, "sodium chloride"),

	// Remaining units.
	re(`\bkg\b`, "kilograms"),
	re(`\bmg\b`, "milligrams"),
	re(`\bml\b`, "milliliters"),
	re(`\bmm\b`, "millimeters"),
	re(`\bcm\b`, "centimeters"),
	re(`\bkm\b`, "kilometers"),
	lit("°C", " degrees Celsius"),
	lit("°F", " degrees Fahrenheit"),
	re(`\bK\b`, "Kelvin"),
}
