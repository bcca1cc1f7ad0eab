package price

import (
	"regexp"
	"testing"
)

func TestSimplify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"月額10万円〜200万円（経験に応じて応相談）", "10-200万"},
		{"¥500,000", "50万"},
		{"200万-300万", "200-300万"},
		{"800000円", "80万"},
		{"面談", ""},
		{"時給5000円", ""},
		{"年俸1500万〜1800万円", "1500-1800万"},
		{"1500万〜1800万円", "1500-1800万"},
		{"月給80万円", "80万"},
		{"要相談", ""},
		{"15000円", "1万"}, // truncates, not rounds
		{"給与: 100万円 + インセンティブ", "100万"},
		{"給与範囲: 50万-80万円", "50-80万"},
		{"月額50万円(能力に応じて優遇)", "50万"},
		{"日給8000円", ""},
		{"1万円", "1万"},
		{"9999万円", "9999万"},
		{"給与50000円", "5万"},
		{"60000-80000円", "6-8万"},
		{"給与: 1,200,000円", "120万"},
		{"60万～80万", "60-80万"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Simplify(tt.in); got != tt.want {
			t.Errorf("Simplify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSimplifyOutputShape(t *testing.T) {
	shape := regexp.MustCompile(`^$|^\d+万$|^\d+-\d+万$`)

	inputs := []string{
		"", "要相談", "時給5000円", "15000円", "60000-80000円",
		"月給80万円", "単価：～60万", "１００万円", "相談-応相談",
		"999999999999999999999999999円", "abc-def", "¥¥¥",
	}
	for _, in := range inputs {
		got := Simplify(in)
		if !shape.MatchString(got) {
			t.Errorf("Simplify(%q) = %q, not a canonical token", in, got)
		}
	}
}

func TestSimplifyExcludesHourlyEvenWithRange(t *testing.T) {
	if got := Simplify("時給2000円〜3000円"); got != "" {
		t.Errorf("hourly range should be excluded, got %q", got)
	}
}
