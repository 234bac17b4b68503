package spectral

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	NumMels = 128
	NumMFCC = 13

	amin  = 1e-10
	topDB = 80.0
)

func hzToMel(f float64) float64 { return 2595 * math.Log10(1+f/700) }
func melToHz(m float64) float64 { return 700 * (math.Pow(10, m/2595) - 1) }

// melFilter is one triangular filter stored as a dense run of bin weights.
type melFilter struct {
	start   int
	weights []float64
}

// melFilterBank builds numMels triangular filters evenly spaced on the mel
// scale between 0 Hz and Nyquist. Each triangle is scaled to unit area so
// wide high-frequency bands do not dominate.
func melFilterBank(numMels int, freqs []float64, nyquist float64) []melFilter {
	maxMel := hzToMel(nyquist)
	edges := make([]float64, numMels+2)
	for i := range edges {
		edges[i] = melToHz(maxMel * float64(i) / float64(numMels+1))
	}

	bank := make([]melFilter, numMels)
	for m := range bank {
		lo, centre, hi := edges[m], edges[m+1], edges[m+2]
		norm := 2 / (hi - lo)
		f := melFilter{start: -1}
		for k, freq := range freqs {
			w := math.Min((freq-lo)/(centre-lo), (hi-freq)/(hi-centre))
			if w <= 0 {
				if f.start >= 0 {
					break
				}
				continue
			}
			if f.start < 0 {
				f.start = k
			}
			f.weights = append(f.weights, w*norm)
		}
		if f.start < 0 {
			f.start = 0
		}
		bank[m] = f
	}
	return bank
}

// dctMatrix returns the first numCoeffs rows of an orthonormal DCT-II of size n.
func dctMatrix(numCoeffs, n int) [][]float64 {
	basis := make([][]float64, numCoeffs)
	for k := range basis {
		scale := math.Sqrt(2 / float64(n))
		if k == 0 {
			scale = math.Sqrt(1 / float64(n))
		}
		basis[k] = make([]float64, n)
		for i := range basis[k] {
			basis[k][i] = scale * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n)))
		}
	}
	return basis
}

// melPowerDB applies the filter bank to the power spectrum of every frame and
// converts to decibels, flooring everything at topDB below the loudest cell.
func melPowerDB(spectrogram [][]float64, bank []melFilter) [][]float64 {
	out := make([][]float64, len(spectrogram))
	peak := math.Inf(-1)
	for t, mag := range spectrogram {
		row := make([]float64, len(bank))
		for m, f := range bank {
			var e float64
			for j, w := range f.weights {
				v := mag[f.start+j]
				e += w * v * v
			}
			row[m] = 10 * math.Log10(math.Max(amin, e))
		}
		peak = math.Max(peak, floats.Max(row))
		out[t] = row
	}
	floor := peak - topDB
	for _, row := range out {
		for m, v := range row {
			if v < floor {
				row[m] = floor
			}
		}
	}
	return out
}

// mfcc decorrelates log-mel frames into a coefficient-major matrix:
// result[coefficient][frame].
func mfcc(melDB [][]float64, basis [][]float64) [][]float64 {
	out := make([][]float64, len(basis))
	for k, b := range basis {
		out[k] = make([]float64, len(melDB))
		for t, row := range melDB {
			out[k][t] = floats.Dot(b, row)
		}
	}
	return out
}
