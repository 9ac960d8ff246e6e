/*
 * convolve.go, part of gopdfgui.
 * 
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 * 
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as 
 * published by the Free Software Foundation; either version 2.1 of the 
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General 
 * Public License along with this program.  If not, see 
 * <http://www.gnu.org/licenses/>.
 * 
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package mpdf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

func cmplxMul(dst, b []complex128) {
	if len(dst) != len(b) {
		panic(fmt.Sprintf("complex multiplication of slices: Both slices should have the same len %d, %d", len(dst), len(b)))
	}
	for i, v := range b {
		dst[i] *= v
	}
}

//nextPow2 returns the smallest power of 2 not smaller than n.
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

//convolveSame returns the linear convolution of a with an odd-length kernel
//centered on its middle element, cut to the length of a.
func convolveSame(a, kernel []float64) []float64 {
	if len(kernel)%2 != 1 {
		panic(fmt.Sprintf("convolution kernel must have odd length, got %d", len(kernel)))
	}
	if len(a) == 0 {
		return nil
	}
	full := len(a) + len(kernel) - 1
	n := nextPow2(full)
	apad := make([]complex128, n)
	kpad := make([]complex128, n)
	for i, v := range a {
		apad[i] = complex(v, 0)
	}
	for i, v := range kernel {
		kpad[i] = complex(v, 0)
	}
	f := fourier.NewCmplxFFT(n)
	f.Coefficients(apad, apad)
	f.Coefficients(kpad, kpad)
	cmplxMul(apad, kpad)
	f.Sequence(apad, apad)
	start := len(kernel) / 2
	ret := make([]float64, len(a))
	for i := range ret {
		ret[i] = real(apad[start+i]) / float64(n) //normalization of the FFT
	}
	return ret
}

//gaussianKernel samples a unit-area gaussian of width sigma on a grid of
//spacing step, truncated at ±3σ.
func gaussianKernel(sigma, step float64) []float64 {
	m := int(math.Ceil(3 * sigma / step))
	k := make([]float64, 2*m+1)
	norm := step / (sigma * math.Sqrt(2*math.Pi))
	for i := range k {
		x := float64(i-m) * step
		k[i] = math.Exp(-x*x/(2*sigma*sigma)) * norm
	}
	return k
}

//terminationKernel samples (sin(qmax x) - sin(qmin x))/(π x) for
//|x| <= half·step.
func terminationKernel(qmin, qmax, step float64, half int) []float64 {
	k := make([]float64, 2*half+1)
	for i := range k {
		x := float64(i-half) * step
		if x == 0 {
			k[i] = (qmax - qmin) / math.Pi
			continue
		}
		k[i] = (math.Sin(qmax*x) - math.Sin(qmin*x)) / (math.Pi * x)
	}
	return k
}

//l1 returns the sum of absolute values of x.
func l1(x []float64) float64 {
	return floats.Norm(x, 1)
}
