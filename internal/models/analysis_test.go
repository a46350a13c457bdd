package models

import "testing"

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input string
		want  Direction
		ok    bool
	}{
		{"BUY", DirectionBuy, true},
		{" sell ", DirectionSell, true},
		{"hold", DirectionHold, true},
		{"WAIT", DirectionWait, true},
		{"LONG", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseDirection(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseDirection(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseSwingPotentialFallsBackToMedium(t *testing.T) {
	if got := ParseSwingPotential("high"); got != SwingHigh {
		t.Errorf("ParseSwingPotential(high) = %q", got)
	}
	if got := ParseSwingPotential("EXTREME"); got != SwingMedium {
		t.Errorf("ParseSwingPotential(EXTREME) = %q, want MEDIUM", got)
	}
}

func TestAnalysisTypeValid(t *testing.T) {
	for _, typ := range []AnalysisType{AnalysisTypeChartImage, AnalysisTypeValueScreening, AnalysisTypeAssetScreening, AnalysisTypeNewsSentiment} {
		if !typ.Valid() {
			t.Errorf("%q should be valid", typ)
		}
	}
	if AnalysisType("portfolio").Valid() {
		t.Error("unexpected valid type")
	}
}

func TestUserFirstName(t *testing.T) {
	if got := (User{FullName: "Asha Rao"}).FirstName(); got != "Asha" {
		t.Errorf("FirstName() = %q", got)
	}
	if got := (User{}).FirstName(); got != "Trader" {
		t.Errorf("FirstName() of empty name = %q, want Trader", got)
	}
}

func TestParseAssetType(t *testing.T) {
	if got, ok := ParseAssetType("Stocks"); !ok || got != AssetTypeStock {
		t.Errorf("ParseAssetType(Stocks) = %q, %v", got, ok)
	}
	if _, ok := ParseAssetType("bonds"); ok {
		t.Error("bonds should not parse")
	}
}
