package diagnosis

// Band names, mildest first. A feature's band is the first whose threshold
// it does not cross.
const (
	BandNormal   = "normal"
	BandMild     = "mild"
	BandModerate = "moderate"
	BandMarked   = "marked"
	BandSevere   = "severe"
)

var bandNames = [5]string{BandNormal, BandMild, BandModerate, BandMarked, BandSevere}

// Thresholds holds one cut-off per band, normal through severe.
type Thresholds [5]float64

// scoreFeature maps value onto a continuous 0-4 score. Up to the normal
// threshold it scores 0; inside band k it rises linearly from k-1 to k;
// past the severe threshold it stays at 4. inverse flips the comparisons
// for features where lower values are worse.
func scoreFeature(value float64, t Thresholds, inverse bool) (float64, string) {
	worse := func(a, b float64) bool { return a > b }
	if inverse {
		worse = func(a, b float64) bool { return a < b }
	}

	if !worse(value, t[0]) {
		return 0, BandNormal
	}
	for k := 1; k < len(t); k++ {
		if worse(value, t[k]) {
			continue
		}
		frac := (value - t[k-1]) / (t[k] - t[k-1])
		return min(float64(k-1)+frac, float64(k)), bandNames[k]
	}
	return 4.0, BandSevere
}
