/*
 * read.go, part of gopdfgui.
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

package pdfdata

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	pdfgui "github.com/rmera/gopdfgui"
)

const (
	startData = "### start data"
	endData   = "### end data"
)

var headerKeys = regexp.MustCompile(`\b(stype|qmax|qdamp|qbroad|dscale|temperature|doping)\s*=\s*(\S*)`)

//ReadFile reads a PDF data file. The dataset is named after the file.
func ReadFile(path string) (*DataSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pdfgui.WrapError(pdfgui.FileError, err, "cannot open data file").WithFile(path)
	}
	defer f.Close()
	D, err := Read(f, filepath.Base(path))
	if err != nil {
		if e, ok := err.(*pdfgui.Error); ok {
			e.WithFile(path)
		}
		return nil, pdfgui.ErrDecorate(err, "ReadFile")
	}
	D.Filename = path
	return D, nil
}

//Read parses the PDF data format: free-text header lines with key=value
//settings, then 2 to 4 numeric columns: r G, r G dG or r G dr dG. The data
//may be fenced by "### start data" and "### end data" lines.
func Read(r io.Reader, name string) (*DataSet, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, pdfgui.WrapError(pdfgui.FileError, err, "reading data")
	}
	header, data := splitHeader(lines)
	D := NewDataSet(name)
	if err := D.parseHeader(header); err != nil {
		return nil, err
	}
	var cols [4][]float64
	ncol := 0
	for n, l := range data {
		t := strings.TrimSpace(l)
		if t == "" || strings.HasPrefix(t, "#") {
			continue
		}
		fields := strings.Fields(t)
		if ncol == 0 {
			ncol = len(fields)
			if ncol < 2 {
				return nil, pdfgui.NewError(pdfgui.FileError, "data line %q has fewer than 2 columns", t)
			}
			if ncol > 4 {
				ncol = 4
			}
		}
		if len(fields) < ncol {
			return nil, pdfgui.NewError(pdfgui.FileError, "data line %d has %d columns, expected %d", n+1, len(fields), ncol)
		}
		for c := 0; c < ncol; c++ {
			v, err := strconv.ParseFloat(fields[c], 64)
			if err != nil {
				return nil, pdfgui.NewError(pdfgui.FileError, "invalid number %q in data", fields[c])
			}
			cols[c] = append(cols[c], v)
		}
	}
	var dr, dg []float64
	switch ncol {
	case 3:
		dg = cols[2]
	case 4:
		dr, dg = cols[2], cols[3]
	}
	if err := D.SetObserved(cols[0], cols[1], dr, dg); err != nil {
		return nil, pdfgui.WrapError(pdfgui.FileError, err, "invalid data in %s", name)
	}
	return D, nil
}

//splitHeader separates header lines from data lines, using the fences if
//present, or the first all-numeric line otherwise.
func splitHeader(lines []string) (header, data []string) {
	start := -1
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), startData) {
			start = i
			break
		}
	}
	if start >= 0 {
		header = lines[:start]
		data = lines[start+1:]
		for i, l := range data {
			if strings.HasPrefix(strings.TrimSpace(l), endData) {
				data = data[:i]
				break
			}
		}
		return header, data
	}
	for i, l := range lines {
		if numericLine(l) {
			return lines[:i], lines[i:]
		}
	}
	return lines, nil
}

func numericLine(l string) bool {
	f := strings.Fields(l)
	if len(f) < 2 {
		return false
	}
	for _, v := range f {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return false
		}
	}
	return true
}

func (D *DataSet) parseHeader(header []string) error {
	for _, l := range header {
		for _, m := range headerKeys.FindAllStringSubmatch(l, -1) {
			key, val := m[1], strings.TrimRight(m[2], ",;")
			if key == "stype" {
				if val != "N" && val != "X" {
					return pdfgui.NewError(pdfgui.FileError, "invalid header stype=%q", val)
				}
				D.Stype = val
				continue
			}
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return pdfgui.NewError(pdfgui.FileError, "invalid header %s=%q", key, val)
			}
			switch key {
			case "qmax":
				D.Qmax = v
			case "qdamp":
				D.Qdamp = v
			case "qbroad":
				D.Qbroad = v
			case "dscale":
				D.Dscale = v
			default:
				D.Metadata[key] = v
			}
		}
	}
	return nil
}

//Write writes the dataset in the format read by Read: a header with the
//instrument settings and metadata, then the r G dr dG columns.
func (D *DataSet) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s\n", D.name)
	fmt.Fprintf(bw, "# stype=%s qmax=%s qdamp=%s qbroad=%s dscale=%s\n", D.Stype, ftoa(D.Qmax), ftoa(D.Qdamp), ftoa(D.Qbroad), ftoa(D.Dscale))
	for _, k := range sortedKeys(D.Metadata) {
		fmt.Fprintf(bw, "# %s=%s\n", k, ftoa(D.Metadata[k]))
	}
	fmt.Fprintln(bw, startData)
	if err := writeColumns(bw, []string{"r", "G", "dr", "dG"}, D.Robs, D.Gobs, D.DRobs, D.DGobs); err != nil {
		return err
	}
	fmt.Fprintln(bw, endData)
	return bw.Flush()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

//writeColumns writes equally long columns, with a #L line naming them.
func writeColumns(w io.Writer, names []string, cols ...[]float64) error {
	if _, err := fmt.Fprintf(w, "#L %s\n", strings.Join(names, " ")); err != nil {
		return err
	}
	if len(cols) == 0 {
		return nil
	}
	row := make([]string, len(cols))
	for i := range cols[0] {
		for c, col := range cols {
			row[c] = ftoa(col[i])
		}
		if _, err := fmt.Fprintln(w, strings.Join(row, " ")); err != nil {
			return err
		}
	}
	return nil
}

//ReadArrays reads ncol numeric columns in the format written by WriteArrays.
func ReadArrays(r io.Reader, ncol int) ([][]float64, error) {
	cols := make([][]float64, ncol)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		t := strings.TrimSpace(sc.Text())
		if t == "" || strings.HasPrefix(t, "#") {
			continue
		}
		f := strings.Fields(t)
		if len(f) != ncol {
			return nil, pdfgui.NewError(pdfgui.FileError, "expected %d columns, got %d", ncol, len(f))
		}
		for c := range f {
			v, err := strconv.ParseFloat(f[c], 64)
			if err != nil {
				return nil, pdfgui.NewError(pdfgui.FileError, "invalid number %q", f[c])
			}
			cols[c] = append(cols[c], v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, pdfgui.WrapError(pdfgui.FileError, err, "reading columns")
	}
	return cols, nil
}

//WriteArrays writes equally long columns in the text format read by ReadArrays.
func WriteArrays(w io.Writer, names []string, cols ...[]float64) error {
	if len(cols) == 0 {
		return pdfgui.NewError(pdfgui.ConfigError, "no columns to write")
	}
	for _, c := range cols[1:] {
		if len(c) != len(cols[0]) {
			return pdfgui.NewError(pdfgui.ConfigError, "columns of different lengths")
		}
	}
	bw := bufio.NewWriter(w)
	if err := writeColumns(bw, names, cols...); err != nil {
		return err
	}
	return bw.Flush()
}
