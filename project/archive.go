/*
 * archive.go, part of gopdfgui.
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

package project

import (
	"bytes"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/fitting"
	"github.com/rmera/gopdfgui/pdfdata"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//Compression is the method used for the entries of saved archives.
type Compression string

const (
	Deflate Compression = "deflate"
	Zstd    Compression = "zstd"
)

//ParseCompression returns the compression named s.
func ParseCompression(s string) (Compression, error) {
	switch Compression(strings.ToLower(s)) {
	case Deflate, "":
		return Deflate, nil
	case Zstd:
		return Zstd, nil
	}
	return "", pdfgui.NewError(pdfgui.ConfigError, "unknown archive compression %q", s)
}

func (c Compression) method() uint16 {
	if c == Zstd {
		return zstd.ZipMethodWinZip
	}
	return zip.Deflate
}

//Archive entry names.
const (
	fitsIndex    = "fits"
	journalFile  = "journal"
	projectFile  = "project.yaml"
	fitFile      = "fit.yaml"
	phaseFile    = "phase.yaml"
	dataSetFile  = "dataset.yaml"
	calcFile     = "calculation.yaml"
	observedFile = "observed"
	calcdFile    = "calculated"

	structureDir   = "structure"
	dataSetDir     = "dataset"
	calculationDir = "calculation"
)

type projectRecord struct {
	Host *Host `yaml:"host,omitempty"`
}

//archiveWriter writes entries under a root directory.
type archiveWriter struct {
	z      *zip.Writer
	method uint16
	err    error
}

func (A *archiveWriter) write(data []byte, segments ...string) {
	if A.err != nil {
		return
	}
	esc := make([]string, len(segments))
	for i, s := range segments {
		esc[i] = url.PathEscape(s)
	}
	w, err := A.z.CreateHeader(&zip.FileHeader{Name: strings.Join(esc, "/"), Method: A.method})
	if err != nil {
		A.err = err
		return
	}
	_, A.err = w.Write(data)
}

func (A *archiveWriter) yaml(v any, segments ...string) {
	if A.err != nil {
		return
	}
	b, err := yaml.Marshal(v)
	if err != nil {
		A.err = err
		return
	}
	A.write(b, segments...)
}

func (A *archiveWriter) arrays(names []string, cols [][]float64, segments ...string) {
	if A.err != nil {
		return
	}
	var buf bytes.Buffer
	if err := pdfdata.WriteArrays(&buf, names, cols...); err != nil {
		A.err = err
		return
	}
	A.write(buf.Bytes(), segments...)
}

//archiveMode is the permission of newly saved archives.
const archiveMode = 0o644

//Save writes the project to an archive at path. The archive is written to
//a temporary file in the same directory that then replaces path.
func (P *Project) Save(path string) error {
	fits := P.Fits()
	P.mu.RLock()
	name := P.name
	journal := P.journal
	host := P.host
	compression := P.compression
	P.mu.RUnlock()
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return pdfgui.WrapError(pdfgui.FileError, err, "cannot create archive").WithFile(path)
	}
	defer os.Remove(tmp.Name())
	z := zip.NewWriter(tmp)
	z.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor())
	A := &archiveWriter{z: z, method: compression.method()}

	names := make([]string, len(fits))
	for i, f := range fits {
		names[i] = f.Name()
	}
	A.write([]byte(strings.Join(names, "\n")), name, fitsIndex)
	if journal != "" {
		A.write([]byte(journal), name, journalFile)
	}
	if host != nil {
		A.yaml(projectRecord{Host: host}, name, projectFile)
	}
	for _, f := range fits {
		writeFit(A, name, f)
	}
	if A.err == nil {
		A.err = z.Close()
	}
	//the temporary file is private; the archive takes the mode of the file
	//it replaces, or archiveMode
	mode := os.FileMode(archiveMode)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if A.err == nil {
		A.err = tmp.Chmod(mode)
	}
	if A.err == nil {
		A.err = tmp.Close()
	} else {
		tmp.Close()
	}
	if A.err != nil {
		return pdfgui.WrapError(pdfgui.FileError, A.err, "cannot write archive").WithFile(path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return pdfgui.WrapError(pdfgui.FileError, err, "cannot write archive").WithFile(path)
	}
	P.mu.Lock()
	P.path = path
	P.altered = false
	P.mu.Unlock()
	P.logger.Info("project saved", zap.String("path", path), zap.Int("fits", len(fits)))
	return nil
}

func writeFit(A *archiveWriter, root string, f *fitting.Fitting) {
	fn := f.Name()
	A.yaml(fitToRecord(f), root, fn, fitFile)
	if j := f.Journal(); j != "" {
		A.write([]byte(j), root, fn, journalFile)
	}
	for _, s := range f.Phases() {
		A.yaml(phaseToRecord(s), root, fn, structureDir, s.Name(), phaseFile)
	}
	for _, d := range f.DataSets() {
		dir := []string{root, fn, dataSetDir, d.Name()}
		A.yaml(dataSetToRecord(d), append(dir, dataSetFile)...)
		A.arrays([]string{"r", "G", "dr", "dG"}, [][]float64{d.Robs, d.Gobs, d.DRobs, d.DGobs}, append(dir, observedFile)...)
		if len(d.Gcalc) > 0 && len(d.Gcalc) == len(d.Rcalc) {
			dg := d.DGcalc
			if len(dg) != len(d.Gcalc) {
				dg = make([]float64, len(d.Gcalc))
			}
			A.arrays([]string{"r", "Gcalc", "dGcalc"}, [][]float64{d.Rcalc, d.Gcalc, dg}, append(dir, calcdFile)...)
		}
	}
	for _, c := range f.Calculations() {
		dir := []string{root, fn, calculationDir, c.Name()}
		A.yaml(calculationToRecord(c), append(dir, calcFile)...)
		if len(c.Gcalc) > 0 && len(c.Gcalc) == len(c.Rcalc) {
			A.arrays([]string{"r", "Gcalc"}, [][]float64{c.Rcalc, c.Gcalc}, append(dir, calcdFile)...)
		}
	}
}

//archive is an opened project archive, indexed by unescaped paths.
type archive struct {
	root  string
	files map[string]*zip.File
	//paths in archive order
	order [][]string
}

func openArchive(r *zip.Reader) (*archive, error) {
	A := &archive{files: make(map[string]*zip.File)}
	for _, f := range r.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		raw := strings.Split(f.Name, "/")
		seg := make([]string, len(raw))
		for i, s := range raw {
			u, err := url.PathUnescape(s)
			if err != nil {
				return nil, pdfgui.WrapError(pdfgui.FileError, err, "invalid entry name %q", f.Name)
			}
			seg[i] = u
		}
		if len(seg) < 2 {
			return nil, pdfgui.NewError(pdfgui.FileError, "entry %q is outside the project directory", f.Name)
		}
		if A.root == "" {
			A.root = seg[0]
		} else if seg[0] != A.root {
			return nil, pdfgui.NewError(pdfgui.FileError, "archive has more than one project directory")
		}
		A.files[strings.Join(seg[1:], "\x00")] = f
		A.order = append(A.order, seg[1:])
	}
	if A.root == "" {
		return nil, pdfgui.NewError(pdfgui.FileError, "empty archive")
	}
	return A, nil
}

//read returns the content of an entry, and false if it does not exist.
func (A *archive) read(segments ...string) ([]byte, bool, error) {
	f, ok := A.files[strings.Join(segments, "\x00")]
	if !ok {
		return nil, false, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, true, pdfgui.WrapError(pdfgui.FileError, err, "cannot open %s", strings.Join(segments, "/"))
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, true, pdfgui.WrapError(pdfgui.FileError, err, "cannot read %s", strings.Join(segments, "/"))
	}
	return b, true, nil
}

func (A *archive) yaml(v any, segments ...string) (bool, error) {
	b, ok, err := A.read(segments...)
	if !ok || err != nil {
		return ok, err
	}
	if err := yaml.Unmarshal(b, v); err != nil {
		return true, pdfgui.WrapError(pdfgui.FileError, err, "malformed %s", strings.Join(segments, "/"))
	}
	return true, nil
}

func (A *archive) arrays(ncol int, segments ...string) ([][]float64, bool, error) {
	b, ok, err := A.read(segments...)
	if !ok || err != nil {
		return nil, ok, err
	}
	cols, err := pdfdata.ReadArrays(bytes.NewReader(b), ncol)
	if err != nil {
		return nil, true, pdfgui.ErrDecorate(err, "archive.arrays")
	}
	return cols, true, nil
}

//children returns, in archive order, the distinct names found right after
//prefix in the entry paths.
func (A *archive) children(prefix ...string) []string {
	seen := make(map[string]bool)
	var ret []string
outer:
	for _, p := range A.order {
		if len(p) <= len(prefix)+1 {
			continue
		}
		for i, s := range prefix {
			if p[i] != s {
				continue outer
			}
		}
		n := p[len(prefix)]
		if !seen[n] {
			seen[n] = true
			ret = append(ret, n)
		}
	}
	return ret
}

//fitNames returns the fits of the archive in project order. Archives without
//an index list the fits in the order their directories appear.
func (A *archive) fitNames() ([]string, error) {
	b, ok, err := A.read(fitsIndex)
	if err != nil {
		return nil, err
	}
	if ok {
		var ret []string
		for _, l := range strings.Split(string(b), "\n") {
			if l = strings.TrimSpace(l); l != "" {
				ret = append(ret, l)
			}
		}
		return ret, nil
	}
	return A.children(), nil
}

//Load replaces the content of the project with the archive at path. The
//project takes the name of the archive root directory.
func (P *Project) Load(path string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return pdfgui.WrapError(pdfgui.FileError, err, "cannot open project").WithFile(path)
	}
	defer r.Close()
	r.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	return P.load(&r.Reader, path)
}

func (P *Project) load(r *zip.Reader, path string) error {
	A, err := openArchive(r)
	if err != nil {
		return err
	}
	names, err := A.fitNames()
	if err != nil {
		return err
	}
	var fits []*fitting.Fitting
	for _, n := range names {
		f, err := readFit(A, n)
		if err != nil {
			return pdfgui.ErrDecorate(withFile(err, path), "Project.Load")
		}
		fits = append(fits, f)
	}
	journal, _, err := A.read(journalFile)
	if err != nil {
		return err
	}
	var pr projectRecord
	if _, err := A.yaml(&pr, projectFile); err != nil {
		return err
	}
	if err := P.Close(false); err != nil {
		return err
	}
	P.mu.Lock()
	P.name = A.root
	P.journal = string(journal)
	P.host = pr.Host
	P.fits = fits
	P.mu.Unlock()
	for _, f := range fits {
		P.adopt(f)
	}
	migrateSpdiameter(fits, P.logger)
	P.mu.Lock()
	P.path = path
	P.altered = false
	P.mu.Unlock()
	P.logger.Info("project loaded", zap.String("path", path), zap.Int("fits", len(fits)))
	P.events().Update(P)
	return nil
}

func withFile(err error, path string) error {
	if e, ok := err.(*pdfgui.Error); ok && e.FileName() == "" {
		return e.WithFile(path)
	}
	return err
}

func readFit(A *archive, name string) (*fitting.Fitting, error) {
	f := fitting.New(name)
	var rec fitRecord
	ok, err := A.yaml(&rec, name, fitFile)
	if err != nil {
		return nil, err
	}
	if !ok {
		rec.Structures = A.children(name, structureDir)
		rec.DataSets = A.children(name, dataSetDir)
		rec.Calculations = A.children(name, calculationDir)
	}
	if rec.ID != "" {
		id, err := uuid.Parse(rec.ID)
		if err != nil {
			return nil, pdfgui.WrapError(pdfgui.FileError, err, "invalid id of fit %s", name)
		}
		f.SetID(id)
	}
	if rec.Status != "" {
		s, err := fitting.ParseStatus(rec.Status)
		if err != nil {
			return nil, pdfgui.WrapError(pdfgui.FileError, err, "fit %s", name)
		}
		//refinements do not survive a save
		if s == fitting.Running || s == fitting.Queued {
			s = fitting.Pending
		}
		if err := f.SetStatus(s); err != nil {
			return nil, err
		}
	}
	for _, pr := range rec.Parameters {
		p, err := paramFromRecord(pr)
		if err != nil {
			return nil, pdfgui.WrapError(pdfgui.FileError, err, "fit %s", name)
		}
		f.AddParameter(p)
	}
	snaps := make([]fitting.Snapshot, 0, len(rec.Snapshots))
	for _, s := range rec.Snapshots {
		snaps = append(snaps, fitting.Snapshot{Step: s.Step, Rw: s.Rw, Values: s.Values})
	}
	f.SetSnapshots(snaps)
	if j, ok, err := A.read(name, journalFile); err != nil {
		return nil, err
	} else if ok {
		f.SetJournal(string(j))
	}
	for _, sn := range rec.Structures {
		var pr phaseRecord
		if ok, err := A.yaml(&pr, name, structureDir, sn, phaseFile); err != nil {
			return nil, err
		} else if !ok {
			return nil, pdfgui.NewError(pdfgui.FileError, "missing phase %s of fit %s", sn, name)
		}
		p, err := phaseFromRecord(sn, pr)
		if err != nil {
			return nil, pdfgui.WrapError(pdfgui.FileError, err, "phase %s of fit %s", sn, name)
		}
		if err := f.Insert(p, -1); err != nil {
			return nil, err
		}
	}
	for _, dn := range rec.DataSets {
		d, err := readDataSet(A, name, dn)
		if err != nil {
			return nil, err
		}
		if err := f.Insert(d, -1); err != nil {
			return nil, err
		}
	}
	for _, cn := range rec.Calculations {
		var cr calculationRecord
		if ok, err := A.yaml(&cr, name, calculationDir, cn, calcFile); err != nil {
			return nil, err
		} else if !ok {
			return nil, pdfgui.NewError(pdfgui.FileError, "missing calculation %s of fit %s", cn, name)
		}
		c, err := calculationFromRecord(cn, cr)
		if err != nil {
			return nil, pdfgui.WrapError(pdfgui.FileError, err, "calculation %s of fit %s", cn, name)
		}
		cols, ok, err := A.arrays(2, name, calculationDir, cn, calcdFile)
		if err != nil {
			return nil, err
		}
		if ok && len(cols[1]) == c.Rlen() {
			c.Gcalc = cols[1]
		}
		if err := f.Insert(c, -1); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func readDataSet(A *archive, fit, name string) (*pdfdata.DataSet, error) {
	var dr dataSetRecord
	if ok, err := A.yaml(&dr, fit, dataSetDir, name, dataSetFile); err != nil {
		return nil, err
	} else if !ok {
		return nil, pdfgui.NewError(pdfgui.FileError, "missing dataset %s of fit %s", name, fit)
	}
	obs, ok, err := A.arrays(4, fit, dataSetDir, name, observedFile)
	if err != nil {
		return nil, err
	}
	if !ok {
		obs = [][]float64{nil, nil, nil, nil}
	}
	d, err := dataSetFromRecord(name, dr, obs)
	if err != nil {
		return nil, pdfgui.WrapError(pdfgui.FileError, err, "dataset %s of fit %s", name, fit)
	}
	cols, ok, err := A.arrays(3, fit, dataSetDir, name, calcdFile)
	if err != nil {
		return nil, err
	}
	if ok && len(cols[1]) == len(d.Rcalc) {
		d.Gcalc, d.DGcalc = cols[1], cols[2]
	}
	return d, nil
}
