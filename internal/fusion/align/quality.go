package align

// FitQuality represents the assessed quality of a spatial fit.
type FitQuality string

const (
	// FitQualityExcellent indicates RMSE < 0.5 - residual is within typical radar range noise
	FitQualityExcellent FitQuality = "excellent"
	// FitQualityGood indicates RMSE 0.5-1.0 - good for association scoring
	FitQualityGood FitQuality = "good"
	// FitQualityFair indicates RMSE 1.0-2.0 - usable but inspect the gated candidates
	FitQualityFair FitQuality = "fair"
	// FitQualityPoor indicates RMSE > 2.0 - the transform is unlikely to be trustworthy
	FitQualityPoor FitQuality = "poor"
	// FitQualityUnknown indicates no fit was produced
	FitQualityUnknown FitQuality = "unknown"
)

// Fit quality RMSE thresholds (distance units, meters for the reference dataset)
const (
	RMSEThresholdExcellent = 0.5
	RMSEThresholdGood      = 1.0
	RMSEThresholdFair      = 2.0
)

// AssessFit grades a fit by its root mean square residual.
func AssessFit(rmse float64) FitQuality {
	switch {
	case rmse < 0:
		return FitQualityUnknown
	case rmse < RMSEThresholdExcellent:
		return FitQualityExcellent
	case rmse < RMSEThresholdGood:
		return FitQualityGood
	case rmse < RMSEThresholdFair:
		return FitQualityFair
	default:
		return FitQualityPoor
	}
}

// IsUsableForScoring reports whether corrected ground truth from a fit of
// this quality should be fed to association scoring without review.
func (q FitQuality) IsUsableForScoring() bool {
	return q == FitQualityExcellent || q == FitQualityGood || q == FitQualityFair
}

// String returns a human-readable description of the quality level.
func (q FitQuality) String() string {
	switch q {
	case FitQualityExcellent:
		return "excellent (RMSE < 0.5)"
	case FitQualityGood:
		return "good (RMSE 0.5-1.0)"
	case FitQualityFair:
		return "fair (RMSE 1.0-2.0)"
	case FitQualityPoor:
		return "poor (RMSE > 2.0)"
	default:
		return "unknown"
	}
}
