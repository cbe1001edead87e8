package symbols

import (
	"reflect"
	"strings"
	"testing"

	"SellBreakout/internal/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"1120 2380 1050", []string{"1120.SR", "2380.SR", "1050.SR"}},
		{"1120\n2380\r\n\t1050 ", []string{"1120.SR", "2380.SR", "1050.SR"}},
		{"1120,2380 1120", []string{"1120.SR", "2380.SR"}},
		{"1120.SR 1120", []string{"1120.SR"}},
		{"1120.sr", []string{"1120.SR"}},
		{"   ", []string{}},
	}
	for _, tt := range tests {
		got := Parse(tt.input, ".SR")
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Parse(%q): expected %v, got %v", tt.input, tt.want, got)
		}
	}
}

func TestParse_NoSuffix(t *testing.T) {
	got := Parse("aapl msft", "")
	if !reflect.DeepEqual(got, []string{"AAPL", "MSFT"}) {
		t.Errorf("unexpected %v", got)
	}
}

func TestCode(t *testing.T) {
	if got := Code("1120.SR", ".SR"); got != "1120" {
		t.Errorf("expected 1120, got %s", got)
	}
	if got := Code("AAPL", ""); got != "AAPL" {
		t.Errorf("expected AAPL, got %s", got)
	}
}

func TestChartURL(t *testing.T) {
	got := ChartURL("TADAWUL", "1120", model.IntervalDaily)
	want := "https://s.tradingview.com/widgetembed/?symbol=TADAWUL%3A1120&interval=D&theme=light"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if got := ChartURL("TADAWUL", "1120", model.IntervalMonthly); !strings.Contains(got, "interval=M&") {
		t.Errorf("expected monthly interval, got %s", got)
	}
}
