package signal

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// PeakParams selects which local maxima count as repetitions.
// A zero Height, Prominence or Width disables that filter.
type PeakParams struct {
	Height     float64 // minimum peak value
	Distance   int     // minimum spacing between peaks, in samples (<1 means 1)
	Prominence float64 // minimum drop on both flanks before a higher sample
	Width      float64 // minimum width, in samples, at half prominence
	MaxPeaks   int     // keep at most this many, by prominence; 0 keeps all
}

// ProminenceConfig scales prominence to each signal's dynamic range.
type ProminenceConfig struct {
	Floor  float64
	Factor float64
}

// DefaultProminenceConfig returns max(0.2, 0.25*range).
func DefaultProminenceConfig() ProminenceConfig {
	return ProminenceConfig{Floor: 0.2, Factor: 0.25}
}

// AdaptiveProminence returns max(Floor, Factor*(max-min)) for the signal, or
// Floor when the signal is empty.
func AdaptiveProminence(sig []float64, cfg ProminenceConfig) float64 {
	if len(sig) == 0 {
		return cfg.Floor
	}
	return math.Max(cfg.Floor, cfg.Factor*(floats.Max(sig)-floats.Min(sig)))
}

type peak struct {
	idx        int
	height     float64
	prominence float64
	leftBase   int
	rightBase  int
}

// DetectPeaks returns the indices of repetition peaks in temporal order.
// Filters apply in the order height, distance, prominence, width. When
// MaxPeaks is set and exceeded, the most prominent peaks are retained.
func DetectPeaks(sig []float64, p PeakParams) []int {
	peaks := localMaxima(sig)

	if p.Height > 0 {
		peaks = filterPeaks(peaks, func(pk peak) bool { return pk.height >= p.Height })
	}

	peaks = selectByDistance(peaks, max(p.Distance, 1))

	useProminence := p.Prominence > 0 || p.Width > 0
	if useProminence {
		for i := range peaks {
			computeProminence(sig, &peaks[i])
		}
	}
	if p.Prominence > 0 {
		peaks = filterPeaks(peaks, func(pk peak) bool { return pk.prominence >= p.Prominence })
	}
	if p.Width > 0 {
		peaks = filterPeaks(peaks, func(pk peak) bool { return peakWidth(sig, pk, 0.5) >= p.Width })
	}

	if p.MaxPeaks > 0 && len(peaks) > p.MaxPeaks {
		rank := func(pk peak) float64 {
			if useProminence {
				return pk.prominence
			}
			return pk.height
		}
		sort.SliceStable(peaks, func(i, j int) bool { return rank(peaks[i]) > rank(peaks[j]) })
		peaks = peaks[:p.MaxPeaks]
		sort.Slice(peaks, func(i, j int) bool { return peaks[i].idx < peaks[j].idx })
	}

	out := make([]int, len(peaks))
	for i, pk := range peaks {
		out[i] = pk.idx
	}
	return out
}

// localMaxima finds samples strictly higher than their left neighbour and
// not lower than their right one; flat tops resolve to their middle sample.
func localMaxima(sig []float64) []peak {
	var peaks []peak
	last := len(sig) - 1
	for i := 1; i < last; i++ {
		if sig[i-1] >= sig[i] {
			continue
		}
		ahead := i + 1
		for ahead < last && sig[ahead] == sig[i] {
			ahead++
		}
		if sig[ahead] < sig[i] {
			mid := (i + ahead - 1) / 2
			peaks = append(peaks, peak{idx: mid, height: sig[mid]})
			i = ahead
		}
	}
	return peaks
}

func filterPeaks(peaks []peak, keep func(peak) bool) []peak {
	out := peaks[:0]
	for _, pk := range peaks {
		if keep(pk) {
			out = append(out, pk)
		}
	}
	return out
}

// selectByDistance visits peaks from highest to lowest and discards any
// neighbour closer than distance samples to a peak already kept.
func selectByDistance(peaks []peak, distance int) []peak {
	if distance <= 1 || len(peaks) < 2 {
		return peaks
	}

	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return peaks[order[a]].height < peaks[order[b]].height })

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}
	for i := len(order) - 1; i >= 0; i-- {
		j := order[i]
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && peaks[j].idx-peaks[k].idx < distance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(peaks) && peaks[k].idx-peaks[j].idx < distance; k++ {
			keep[k] = false
		}
	}

	out := make([]peak, 0, len(peaks))
	for i, pk := range peaks {
		if keep[i] {
			out = append(out, pk)
		}
	}
	return out
}

// computeProminence walks each flank until a strictly higher sample (or the
// signal edge) and measures the drop to the higher of the two flank minima.
func computeProminence(sig []float64, pk *peak) {
	top := sig[pk.idx]

	leftMin := top
	pk.leftBase = pk.idx
	for i := pk.idx; i >= 0 && sig[i] <= top; i-- {
		if sig[i] < leftMin {
			leftMin, pk.leftBase = sig[i], i
		}
	}

	rightMin := top
	pk.rightBase = pk.idx
	for i := pk.idx; i < len(sig) && sig[i] <= top; i++ {
		if sig[i] < rightMin {
			rightMin, pk.rightBase = sig[i], i
		}
	}

	pk.prominence = top - math.Max(leftMin, rightMin)
}

// peakWidth measures the peak at relHeight of its prominence below the top,
// interpolating linearly between samples.
func peakWidth(sig []float64, pk peak, relHeight float64) float64 {
	h := sig[pk.idx] - pk.prominence*relHeight

	i := pk.idx
	for pk.leftBase < i && h < sig[i] {
		i--
	}
	left := float64(i)
	if sig[i] < h {
		left += (h - sig[i]) / (sig[i+1] - sig[i])
	}

	i = pk.idx
	for i < pk.rightBase && h < sig[i] {
		i++
	}
	right := float64(i)
	if sig[i] < h {
		right -= (h - sig[i]) / (sig[i-1] - sig[i])
	}

	return right - left
}
