package normalize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "physics formula with temperature",
			input:    "E=mc^2 at 20°C",
			expected: "E equals mc to the power of 2 at 20 degrees Celsius",
		},
		{
			name:     "squared and cubed literals",
			input:    "x^2 and x^3",
			expected: "x squared and x cubed",
		},
		{
			name:     "generic exponent",
			input:    "2^10 values",
			expected: "2 to the power of 10 values",
		},
		{
			name:     "subscript",
			input:    "a_1 and a_23",
			expected: "a subscript 1 and a subscript 23",
		},
		{
			name:     "greek letters",
			input:    "Δ θ and π",
			expected: "delta theta and pi",
		},
		{
			name:     "abbreviations spelled out",
			input:    "DNA and RNA carry ATP",
			expected: "D N A and R N A carry A T P",
		},
		{
			name:     "chemical names",
			input:    "NaCl in H2O releases O2",
			expected: "sodium chloride in H 2 O releases O 2",
		},
		{
			name:     "compound units survive the slash rule",
			input:    "9.8 m/s² at 30 km/h",
			expected: "9.8 meters per second squared at 30 kilometers per hour",
		},
		{
			name:     "plain slash is division",
			input:    "a/b",
			expected: "a divided by b",
		},
		{
			name:     "simple units",
			input:    "5 kg of salt in 100 ml",
			expected: "5 kilograms of salt in 100 milliliters",
		},
		{
			name:     "comparison symbols",
			input:    "x<y and y≥z",
			expected: "x less than y and y greater than or equal to z",
		},
		{
			name:     "kelvin is case sensitive",
			input:    "300 K but keep kale",
			expected: "300 Kelvin but keep kale",
		},
		{
			name:     "no matches pass through",
			input:    "nothing special here",
			expected: "nothing special here",
		},
		{
			name:     "whitespace collapsed and trimmed",
			input:    "  spaced   out  ",
			expected: "spaced out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.expected {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTextIdempotent(t *testing.T) {
	inputs := []string{
		"E=mc^2 at 20°C",
		"9.8 m/s² at 30 km/h",
		"DNA + RNA ≈ ATP / NaCl",
		"α β γ θ λ μ σ ω Ω",
		"x^2 x^3 2^10 a_1",
		"∑ ∫ ∂ ∇ π ∞",
		"5 kg 10 mg 3 ml 2 mm 7 cm 1 km 300 K °F",
		"plain text with no substitutions",
		"",
	}

	for _, in := range inputs {
		once := Text(in)
		twice := Text(once)
		if once != twice {
			t.Errorf("not idempotent for %q:\n once: %q\ntwice: %q", in, once, twice)
		}
	}
}

func TestTextEmpty(t *testing.T) {
	if got := Text("   "); got != "" {
		t.Errorf("Text of whitespace = %q, want empty", got)
	}
}
