package signal

import (
	"fmt"

	"github.com/pconstantinou/savitzkygolay"
)

// Smooth applies a Savitzky-Golay filter (quadratic fit) to the magnitude
// before peak detection. window must be odd; 0 returns the signal unchanged,
// as does a signal shorter than the window.
func Smooth(sig []float64, window int) ([]float64, error) {
	if window == 0 || len(sig) < window {
		return sig, nil
	}
	if window < 3 || window%2 == 0 {
		return nil, fmt.Errorf("smoothing window must be odd and >= 3, got %d", window)
	}

	filter, err := savitzkygolay.NewFilter(window, 0, 2)
	if err != nil {
		return nil, fmt.Errorf("savitzky-golay filter: %w", err)
	}

	xs := make([]float64, len(sig))
	for i := range xs {
		xs[i] = float64(i)
	}
	out, err := filter.Process(sig, xs)
	if err != nil {
		return nil, fmt.Errorf("savitzky-golay smoothing: %w", err)
	}
	return out, nil
}
