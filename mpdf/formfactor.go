/*
 * formfactor.go, part of gopdfgui.
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
	"math"
	"sort"

	pdfgui "github.com/rmera/gopdfgui"
)

//j0 coefficients A, a, B, b, C, c, D of the spin-only <j0> magnetic form
//factor, <j0>(s) = A exp(-a s²) + B exp(-b s²) + C exp(-c s²) + D with
//s = q/4π.
var j0Coeffs = map[string][7]float64{
	"Mn2": {0.4220, 17.684, 0.5948, 6.005, 0.0043, -0.609, -0.0219},
	"Fe2": {0.0263, 34.960, 0.3668, 15.943, 0.6188, 5.594, -0.0119},
	"Fe3": {0.3972, 13.2442, 0.6295, 4.9034, -0.0314, 0.3496, 0.0044},
	"Co2": {0.4332, 14.355, 0.5857, 4.608, -0.0382, 0.1338, 0.0179},
	"Ni2": {0.0163, 35.883, 0.3916, 13.223, 0.6052, 4.339, -0.0133},
	"Cu2": {0.0232, 34.969, 0.4023, 11.564, 0.5882, 3.843, -0.0137},
	"Cr3": {-0.3094, 0.0274, 0.3680, 17.0355, 0.6559, 6.5236, 0.2856},
}

//FormFactorKeys lists the ions with a tabulated form factor.
func FormFactorKeys() []string {
	ret := make([]string, 0, len(j0Coeffs))
	for k := range j0Coeffs {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

//FormFactor evaluates the magnetic form factor of the ion key on the q
//grid. An empty key gives a form factor of 1 everywhere.
func FormFactor(key string, q []float64) ([]float64, error) {
	ff := make([]float64, len(q))
	if key == "" {
		for i := range ff {
			ff[i] = 1
		}
		return ff, nil
	}
	c, ok := j0Coeffs[key]
	if !ok {
		return nil, pdfgui.NewError(pdfgui.KeyError, "no form factor for %q", key)
	}
	for i, v := range q {
		s2 := (v / (4 * math.Pi)) * (v / (4 * math.Pi))
		ff[i] = c[0]*math.Exp(-c[1]*s2) + c[2]*math.Exp(-c[3]*s2) + c[4]*math.Exp(-c[5]*s2) + c[6]
	}
	return ff, nil
}

//QGrid returns an evenly spaced grid from 0 to qmax.
func QGrid(qmax, qstep float64) []float64 {
	n := int(math.Floor(qmax/qstep+1e-9)) + 1
	q := make([]float64, n)
	for i := range q {
		q[i] = float64(i) * qstep
	}
	return q
}

//cosineTransform returns S(r) = (1/π) ∫ ff(q)² cos(q r) dq, and its
//derivative with respect to r, on the points r.
func cosineTransform(q, ff, r []float64) (sr, dsr []float64) {
	sr = make([]float64, len(r))
	dsr = make([]float64, len(r))
	if len(q) < 2 {
		return sr, dsr
	}
	qstep := q[1] - q[0]
	for i, x := range r {
		var s, d float64
		for j, v := range q {
			w := ff[j] * ff[j] * qstep
			//trapezoid ends
			if j == 0 || j == len(q)-1 {
				w /= 2
			}
			s += w * math.Cos(v*x)
			d -= w * v * math.Sin(v*x)
		}
		sr[i] = s / math.Pi
		dsr[i] = d / math.Pi
	}
	return sr, dsr
}
