package pipeline

import (
	"testing"

	"signal-enginev1/internal/model"
)

func TestDerivers(t *testing.T) {
	cases := []struct {
		name      string
		indicator string
		tuple     string
		close     float64
		want      int
	}{
		{"zlema rising above", "zlema", "100,105,90,0", 110, model.SignalLong},
		{"zlema falling below", "zlema", "105,100,90,0", 95, model.SignalShort},
		{"zlema rising but close under", "zlema", "100,105,90,0", 103, model.SignalNone},
		{"kdj k over d", "kdj", "60,40,100,90,0", 0, model.SignalLong},
		{"kdj overbought blocks long", "kdj", "85,80,95,90,0", 0, model.SignalNone},
		{"kdj k under d", "kdj", "40,60,0,90,0", 0, model.SignalShort},
		{"kdj oversold blocks short", "kdj", "15,20,5,90,0", 0, model.SignalNone},
		{"bbands below band", "bbands", "-0.1,0.5,0.5,0.04,0.04,0.04,90,0", 0, model.SignalLong},
		{"bbands above band", "bbands", "1.1,0.5,0.5,0.04,0.04,0.04,90,0", 0, model.SignalShort},
		{"bbands inside band", "bbands", "0.6,0.5,0.5,0.04,0.04,0.04,90,0", 0, model.SignalNone},
		{"ichimoku passes cross through", "ichimoku", "2,100,101,0,0,0,90,0", 0, model.SignalShort},
		{"ichimoku no cross", "ichimoku", "0,100,101,0,0,0,90,0", 0, model.SignalNone},
		{"volume profile breakout up", "volume_profile", "110,90,100,0.2", 115, model.SignalLong},
		{"volume profile breakdown", "volume_profile", "110,90,100,0.2", 85, model.SignalShort},
		{"volume profile inside value area", "volume_profile", "110,90,100,0.2", 100, model.SignalNone},
		{"andean bulls dominant", "andean", "5,2,3", 0, model.SignalLong},
		{"andean bears dominant", "andean", "2,5,3", 0, model.SignalShort},
		{"andean under signal line", "andean", "3,2,5", 0, model.SignalNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			derive, ok := derivers[tc.indicator]
			if !ok {
				t.Fatalf("no deriver for %s", tc.indicator)
			}
			fields, ok := parseTuple(tc.tuple)
			if !ok {
				t.Fatalf("unparsable tuple %q", tc.tuple)
			}
			if got := derive(fields, tc.close); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestDerivers_ATRHasNoDirection(t *testing.T) {
	if _, ok := derivers["atr"]; ok {
		t.Fatal("atr must not derive a direction")
	}
}

func TestParseTuple_RejectsGarbage(t *testing.T) {
	if _, ok := parseTuple("1,abc,3"); ok {
		t.Fatal("expected parse failure")
	}
}
