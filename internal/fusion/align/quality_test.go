package align

import "testing"

func TestAssessFit(t *testing.T) {
	tests := []struct {
		rmse   float64
		want   FitQuality
		usable bool
	}{
		{-1, FitQualityUnknown, false},
		{0, FitQualityExcellent, true},
		{0.49, FitQualityExcellent, true},
		{0.5, FitQualityGood, true},
		{1.5, FitQualityFair, true},
		{2.0, FitQualityPoor, false},
		{10, FitQualityPoor, false},
	}
	for _, tt := range tests {
		got := AssessFit(tt.rmse)
		if got != tt.want {
			t.Errorf("AssessFit(%v) = %s, want %s", tt.rmse, got, tt.want)
		}
		if got.IsUsableForScoring() != tt.usable {
			t.Errorf("AssessFit(%v).IsUsableForScoring() = %v, want %v", tt.rmse, got.IsUsableForScoring(), tt.usable)
		}
		if got.String() == "" {
			t.Errorf("FitQuality(%q).String() is empty", got)
		}
	}
}
