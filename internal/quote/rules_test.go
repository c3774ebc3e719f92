package quote

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCeilToEven(t *testing.T) {
	for n := int64(0); n <= 40; n++ {
		got := ceilToEven(decimal.NewFromInt(n))
		want := n + n%2
		if !got.Equal(decimal.NewFromInt(want)) {
			t.Fatalf("%d: got %s want %d", n, got, want)
		}
	}

	two := decimal.NewFromInt(2)
	for _, x := range []string{"0.01", "0.5", "1.2", "2.0001", "7.1428", "13.99", "101.3", "10000000000000000001", "123456789012345678901.5"} {
		got := ceilToEven(dec(x))
		if !got.Mod(two).IsZero() {
			t.Fatalf("%s: got odd %s", x, got)
		}
		if got.LessThan(dec(x)) {
			t.Fatalf("%s: rounded down to %s", x, got)
		}
		if got.Sub(dec(x)).GreaterThanOrEqual(two) {
			t.Fatalf("%s: overshot to %s", x, got)
		}
	}

	for _, x := range []string{"0", "-0.5", "-1", "-3.7"} {
		if got := ceilToEven(dec(x)); !got.IsZero() {
			t.Fatalf("%s: got %s want 0", x, got)
		}
	}
}

func TestParseRule(t *testing.T) {
	cases := []struct {
		tag  string
		want RuleKind
	}{
		{tag: "MT_ANCHO_X_MULT", want: RuleLengthTimesMultiplier},
		{tag: "length_width_times_mult", want: RuleLengthTimesMultiplier},
		{tag: " und_ojales_par ", want: RuleEyeletPairs},
		{tag: "COUNT_BUTTON_PAIR", want: RuleButtonPairs},
		{tag: "FIJO", want: RuleFixed},
		{tag: "FIXED", want: RuleFixed},
	}
	for _, tc := range cases {
		rule, err := ParseRule(tc.tag, "")
		if err != nil {
			t.Fatalf("%s: %v", tc.tag, err)
		}
		if rule.Kind() != tc.want {
			t.Fatalf("%s: got %s want %s", tc.tag, rule.Kind(), tc.want)
		}
	}

	if _, err := ParseRule("MT_ALTO", ""); !errors.Is(err, ErrUnknownRule) {
		t.Fatalf("expected ErrUnknownRule, got %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name       string
		rule       QuantityRule
		width      string
		multiplier string
		want       string
	}{
		{name: "length default factor", rule: LengthTimesMultiplier{}, width: "1.0", multiplier: "2.0", want: "2"},
		{name: "length with factor", rule: LengthTimesMultiplier{Factor: "1,1"}, width: "1.5", multiplier: "2", want: "3.3"},
		{name: "eyelets default spacing", rule: EyeletPairs{}, width: "0.5", multiplier: "2", want: "8"},
		{name: "eyelets exact multiple", rule: EyeletPairs{}, width: "0.28", multiplier: "1", want: "2"},
		{name: "eyelets custom spacing", rule: EyeletPairs{Spacing: "0.10"}, width: "1.1", multiplier: "1", want: "12"},
		{name: "buttons default spacing", rule: ButtonPairs{}, width: "1.05", multiplier: "1", want: "6"},
		{name: "buttons odd ceiling", rule: ButtonPairs{}, width: "0.9", multiplier: "1", want: "6"},
		{name: "fixed", rule: Fixed{Quantity: "3"}, width: "7", multiplier: "2.5", want: "3"},
		{name: "fixed decimal comma", rule: Fixed{Quantity: "1,5"}, width: "1", multiplier: "1", want: "1.5"},
		{name: "eyelets zero padded comma spacing", rule: EyeletPairs{Spacing: "0,140"}, width: "1.05", multiplier: "1", want: "8"},
		{name: "eyelets zero padded dot spacing", rule: EyeletPairs{Spacing: "0.140"}, width: "1.05", multiplier: "1", want: "8"},
		{name: "buttons zero padded spacing", rule: ButtonPairs{Spacing: "0,200"}, width: "1.05", multiplier: "1", want: "6"},
		{name: "fixed zero padded half", rule: Fixed{Quantity: "0,500"}, width: "1", multiplier: "1", want: "0.5"},
		{name: "length three digit comma factor", rule: LengthTimesMultiplier{Factor: "1,100"}, width: "1", multiplier: "2", want: "2.2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Evaluate(tc.rule, dec(tc.width), dec(tc.multiplier))
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestEvaluateMalformedParameters(t *testing.T) {
	rules := []QuantityRule{
		Fixed{Quantity: "abc"},
		Fixed{Quantity: ""},
		Fixed{Quantity: "-2"},
		LengthTimesMultiplier{Factor: "x2"},
		EyeletPairs{Spacing: "0"},
		ButtonPairs{Spacing: "-0.2"},
	}
	for _, rule := range rules {
		if _, err := Evaluate(rule, dec("1"), dec("2")); !errors.Is(err, ErrMalformedParameter) {
			t.Fatalf("%#v: expected ErrMalformedParameter, got %v", rule, err)
		}
	}
}
