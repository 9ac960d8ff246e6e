/*
 * format.go, part of gopdfgui.
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

package structure

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	pdfgui "github.com/rmera/gopdfgui"
)

//Format names a structure file format.
type Format string

const (
	STRU Format = "pdffit"
	XYZ  Format = "xyz"
)

//FormatOf guesses the format from a file name. Unknown extensions are read
//as STRU.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xyz") {
		return XYZ
	}
	return STRU
}

//Read parses a structure in the given format.
func Read(r io.Reader, f Format) (*Structure, error) {
	switch f {
	case STRU:
		return ReadSTRU(r)
	case XYZ:
		return ReadXYZ(r)
	}
	return nil, pdfgui.NewError(pdfgui.ConfigError, "unknown structure format %q", f)
}

//Write serializes a structure in the given format.
func Write(S *Structure, w io.Writer, f Format) error {
	switch f {
	case STRU:
		return WriteSTRU(S, w)
	case XYZ:
		return WriteXYZ(S, w)
	}
	return pdfgui.NewError(pdfgui.ConfigError, "unknown structure format %q", f)
}

//ReadFile reads a structure file, guessing the format from its extension.
func ReadFile(path string) (*Structure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pdfgui.WrapError(pdfgui.FileError, err, "cannot open structure file").WithFile(path)
	}
	defer f.Close()
	S, err := Read(f, FormatOf(path))
	if err != nil {
		return nil, pdfgui.ErrDecorate(err, "structure.ReadFile "+path)
	}
	return S, nil
}

//Marshal returns the STRU text of the structure.
func Marshal(S *Structure) ([]byte, error) {
	var b bytes.Buffer
	if err := WriteSTRU(S, &b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
