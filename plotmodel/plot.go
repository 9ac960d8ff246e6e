/*
 * plot.go, part of gopdfgui.
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

package plotmodel

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	pdfgui "github.com/rmera/gopdfgui"
	"gonum.org/v1/plot/plotter"
)

//Plot is a titled set of curves that follows the changes of the entities
//the curves are taken from.
type Plot struct {
	mu     sync.Mutex
	title  string
	curves []*Curve
	closed bool
	//OnChange, when set, is called with every curve updated by Notify.
	OnChange func(*Curve)
}

//New returns an empty plot.
func New(title string) *Plot {
	return &Plot{title: title}
}

func (P *Plot) Title() string {
	P.mu.Lock()
	defer P.mu.Unlock()
	return P.title
}

//AddCurve computes the data of C and adds it to the plot.
func (P *Plot) AddCurve(C *Curve) error {
	if err := C.Update(); err != nil {
		return err
	}
	P.mu.Lock()
	defer P.mu.Unlock()
	if P.closed {
		return pdfgui.NewError(pdfgui.StatusError, "plot %q is closed", P.title)
	}
	P.curves = append(P.curves, C)
	return nil
}

//RemoveCurve takes C out of the plot.
func (P *Plot) RemoveCurve(C *Curve) {
	P.mu.Lock()
	defer P.mu.Unlock()
	for i, c := range P.curves {
		if c == C {
			P.curves = append(P.curves[:i], P.curves[i+1:]...)
			return
		}
	}
}

//Curves returns the curves of the plot.
func (P *Plot) Curves() []*Curve {
	P.mu.Lock()
	defer P.mu.Unlock()
	return append([]*Curve(nil), P.curves...)
}

//Notify updates, in place, the curves that take data from entity and
//returns them. Curves that cannot be updated keep their data.
func (P *Plot) Notify(entity any) []*Curve {
	P.mu.Lock()
	if P.closed {
		P.mu.Unlock()
		return nil
	}
	var hit []*Curve
	for _, c := range P.curves {
		if c.Refers(entity) && c.Update() == nil {
			hit = append(hit, c)
		}
	}
	cb := P.OnChange
	P.mu.Unlock()
	if cb != nil {
		for _, c := range hit {
			cb(c)
		}
	}
	return hit
}

//Close drops the curves. A closed plot ignores notifications.
func (P *Plot) Close() {
	P.mu.Lock()
	P.curves = nil
	P.closed = true
	P.mu.Unlock()
}

//series is a y column with its label.
type series struct {
	label string
	xy    plotter.XYs
}

type block struct {
	xname string
	x     []float64
	ys    []series
}

func sameX(x []float64, xy plotter.XYs) bool {
	if len(x) != len(xy) {
		return false
	}
	for i := range x {
		if x[i] != xy[i].X {
			return false
		}
	}
	return true
}

//Export writes the data of the plot as text blocks. Each block starts with
//"#S n" and a "#L" line naming its tab separated columns. Series that share
//their x values go into one block.
func (P *Plot) Export(w io.Writer) error {
	var blocks []*block
	for ci, c := range P.Curves() {
		for k, xy := range c.Data {
			label := c.YNames[k]
			if len(c.IDs) == 1 {
				label = entityName(c.IDs[0]) + "." + label
			} else {
				label = strconv.Itoa(ci+1) + "." + label
			}
			var b *block
			for _, bb := range blocks {
				if bb.xname == c.XName && sameX(bb.x, xy) {
					b = bb
					break
				}
			}
			if b == nil {
				x := make([]float64, len(xy))
				for i := range xy {
					x[i] = xy[i].X
				}
				b = &block{xname: c.XName, x: x}
				blocks = append(blocks, b)
			}
			b.ys = append(b.ys, series{label: label, xy: xy})
		}
	}
	bw := bufio.NewWriter(w)
	for n, b := range blocks {
		if n > 0 {
			fmt.Fprintln(bw)
		}
		labels := []string{b.xname}
		for _, s := range b.ys {
			labels = append(labels, s.label)
		}
		fmt.Fprintf(bw, "#S %d\n", n+1)
		fmt.Fprintf(bw, "#L %s\n", strings.Join(labels, " "))
		row := make([]string, len(b.ys)+1)
		for i, x := range b.x {
			row[0] = strconv.FormatFloat(x, 'g', -1, 64)
			for k, s := range b.ys {
				row[k+1] = strconv.FormatFloat(s.xy[i].Y, 'g', -1, 64)
			}
			fmt.Fprintln(bw, strings.Join(row, "\t"))
		}
	}
	return bw.Flush()
}

type named interface {
	Name() string
}

func entityName(e any) string {
	if n, ok := e.(named); ok {
		return strings.ReplaceAll(n.Name(), " ", "_")
	}
	return "?"
}
