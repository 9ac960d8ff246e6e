package fitting

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/param"
	"github.com/rmera/gopdfgui/pdfdata"
	"github.com/rmera/gopdfgui/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//fakeEngine moves every free parameter halfway to target in each step.
type fakeEngine struct {
	target float64
	steps  int
	fail   error
	//block, when set, makes Refine wait for cancellation after started is closed.
	block   bool
	started chan struct{}
	calls   int
	mu      sync.Mutex
}

func (E *fakeEngine) Refine(ctx context.Context, P *Problem, progress func(Progress)) (*Result, error) {
	E.mu.Lock()
	E.calls++
	E.mu.Unlock()
	if E.block {
		close(E.started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if E.fail != nil {
		return nil, E.fail
	}
	x := P.Initial()
	for s := 1; s <= E.steps; s++ {
		for i := range x {
			x[i] += (E.target - x[i]) / 2
		}
		progress(Progress{Step: s, Rw: 1 / float64(s+1), Values: P.Values(x)})
	}
	vals := P.Values(x)
	if err := P.Apply(vals); err != nil {
		return nil, err
	}
	res := &Result{Values: vals, Rw: 1 / float64(E.steps+1)}
	for _, s := range P.Phases {
		res.Phases = append(res.Phases, s.Initial)
	}
	for _, d := range P.DataSets {
		d.Gcalc = make([]float64, len(d.Rcalc))
		res.DataSets = append(res.DataSets, d)
	}
	return res, nil
}

func (E *fakeEngine) Calculate(ctx context.Context, phases []*structure.FitStructure, c *pdfdata.Calculation) ([]float64, error) {
	g := make([]float64, c.Rlen())
	for i := range g {
		g[i] = phases[0].Current().Lattice.A
	}
	return g, nil
}

type recSink struct {
	mu      sync.Mutex
	updates int
	errs    []string
}

func (R *recSink) Update(any) {
	R.mu.Lock()
	R.updates++
	R.mu.Unlock()
}

func (R *recSink) Error(msg string) {
	R.mu.Lock()
	R.errs = append(R.errs, msg)
	R.mu.Unlock()
}

//fits is a minimal link resolver.
type fits []*Fitting

func (F fits) FitByName(name string) (param.Owner, bool) {
	for _, f := range F {
		if f.Name() == name {
			return f, true
		}
	}
	return nil, false
}

func (F fits) FitByID(id uuid.UUID) (param.Owner, bool) {
	for _, f := range F {
		if f.ID() == id {
			return f, true
		}
	}
	return nil, false
}

func dataset(name string) *pdfdata.DataSet {
	D := pdfdata.NewDataSet(name)
	r := make([]float64, 51)
	g := make([]float64, 51)
	for i := range r {
		r[i] = 1 + 0.1*float64(i)
		g[i] = math.Sin(r[i])
	}
	if err := D.SetObserved(r, g, nil, nil); err != nil {
		panic(err)
	}
	return D
}

func nickel(Te *testing.T) *structure.FitStructure {
	S := structure.NewStructure()
	S.Lattice = structure.CubicLattice(3.52)
	S.Atoms = append(S.Atoms, structure.NewAtom("Ni", [3]float64{0, 0, 0}, 0.005, 1))
	return structure.NewFitStructure("Ni", S)
}

func simpleFit(Te *testing.T, E Engine, opts ...Option) *Fitting {
	F := New("fit-1", append([]Option{WithEngine(E)}, opts...)...)
	P := nickel(Te)
	require.NoError(Te, P.SetConstraint("lat(1)", "@1"))
	require.NoError(Te, F.Insert(P, -1))
	require.NoError(Te, F.Insert(dataset("data"), -1))
	_, err := F.SetParameter(1, 3.52)
	require.NoError(Te, err)
	return F
}

func TestStatus(Te *testing.T) {
	for s := Pending; s <= Cancelled; s++ {
		p, err := ParseStatus(s.String())
		require.NoError(Te, err)
		assert.Equal(Te, s, p)
	}
	assert.Equal(Te, "UNKNOWN", Status(42).String())
	assert.True(Te, Completed.Finished())
	assert.False(Te, Queued.Finished())
	_, err := ParseStatus("DONE")
	assert.True(Te, errors.Is(err, pdfgui.ConfigError))
}

func TestEntities(Te *testing.T) {
	F := New("fit")
	require.NoError(Te, F.Insert(nickel(Te), -1))
	require.NoError(Te, F.Insert(dataset("d2"), -1))
	require.NoError(Te, F.Insert(dataset("d1"), 0))
	assert.True(Te, errors.Is(F.Insert(dataset("Ni"), -1), pdfgui.ConfigError), "names are unique across kinds")
	assert.True(Te, errors.Is(F.Insert(42, -1), pdfgui.TypeError))
	require.NoError(Te, F.Insert(pdfdata.NewCalculation("calc"), -1))

	ds := F.DataSets()
	require.Len(Te, ds, 2)
	assert.Equal(Te, "d1", ds[0].Name())
	assert.Equal(Te, "Ni-1", F.UniqueName("Ni"))

	require.NoError(Te, F.RenameEntity("d2", "other"))
	assert.True(Te, errors.Is(F.RenameEntity("other", "Ni"), pdfgui.ConfigError))
	assert.True(Te, errors.Is(F.RenameEntity("nope", "x"), pdfgui.KeyError))
	e, ok := F.Entity("other")
	require.True(Te, ok)
	assert.IsType(Te, &pdfdata.DataSet{}, e)

	_, err := F.Remove("calc")
	require.NoError(Te, err)
	assert.Empty(Te, F.Calculations())
	_, err = F.Remove("calc")
	assert.True(Te, errors.Is(err, pdfgui.KeyError))
}

func TestParameters(Te *testing.T) {
	F := New("fit")
	P := nickel(Te)
	require.NoError(Te, P.SetConstraint("lat(1)", "@3"))
	require.NoError(Te, P.SetConstraint("u11(1)", "@5*2"))
	require.NoError(Te, F.Insert(P, -1))
	assert.Equal(Te, []int{3, 5}, F.UsedParameters())
	added := F.UpdateParameters()
	assert.Equal(Te, []int{3, 5}, added)
	p3, ok := F.Parameter(3)
	require.True(Te, ok)
	v, err := p3.InitialValue()
	require.NoError(Te, err)
	assert.Equal(Te, 3.52, v)
	p5, _ := F.Parameter(5)
	v, _ = p5.InitialValue()
	assert.InDelta(Te, 0.0025, v, 1e-12)
	assert.Empty(Te, F.UpdateParameters())

	require.NoError(Te, F.RenumberParameters(map[int]int{3: 1}))
	c, _ := P.Constraint("lat(1)")
	assert.Equal(Te, "@1", c.Formula())
	_, ok = F.Parameter(1)
	assert.True(Te, ok)
	assert.True(Te, errors.Is(F.RenumberParameters(map[int]int{1: 5}), pdfgui.ConfigError))

	_, err = F.SetParameter(0, 1.0)
	assert.True(Te, errors.Is(err, pdfgui.ConfigError))
	_, err = F.SetParameter(2, struct{}{})
	assert.True(Te, errors.Is(err, pdfgui.TypeError))
}

func TestRefine(Te *testing.T) {
	E := &fakeEngine{target: 4, steps: 3}
	sink := &recSink{}
	F := simpleFit(Te, E, WithSink(sink))
	require.NoError(Te, F.Refine(context.Background()))
	assert.Equal(Te, Completed, F.Status())
	assert.InDelta(Te, 0.25, F.Rw(), 1e-12)

	snaps := F.Snapshots()
	require.Len(Te, snaps, 3)
	assert.Equal(Te, 1, snaps[0].Step)
	v, err := F.GetData("@1", 0)
	require.NoError(Te, err)
	assert.InDelta(Te, 3.76, v, 1e-12)
	last, err := F.GetData("@1", -1)
	require.NoError(Te, err)
	assert.InDelta(Te, 3.94, last, 1e-12)
	rw, _ := F.GetData("rw", -1)
	assert.InDelta(Te, 0.25, rw, 1e-12)
	_, err = F.GetData("@1", 3)
	assert.True(Te, errors.Is(err, pdfgui.KeyError))
	_, err = F.GetData("@9", 0)
	assert.True(Te, errors.Is(err, pdfgui.KeyError))
	_, err = F.GetData("chi", 0)
	assert.True(Te, errors.Is(err, pdfgui.ConfigError))

	p, _ := F.Parameter(1)
	r, ok := p.Refined()
	require.True(Te, ok)
	assert.InDelta(Te, 3.94, r, 1e-12)
	P := F.Phases()[0]
	require.NotNil(Te, P.Refined)
	assert.InDelta(Te, 3.94, P.Refined.Lattice.A, 1e-12)
	assert.Equal(Te, 3.52, P.Initial.Lattice.A)
	D := F.DataSets()[0]
	assert.Len(Te, D.Gcalc, len(D.Rcalc))
	assert.Contains(Te, D.Refined, "dscale")
	assert.GreaterOrEqual(Te, sink.updates, 5)
	assert.Empty(Te, sink.errs)
}

func TestRefineErrors(Te *testing.T) {
	F := New("empty", WithEngine(&fakeEngine{}))
	err := F.Refine(context.Background())
	assert.True(Te, errors.Is(err, pdfgui.ConfigError))
	assert.Equal(Te, Failed, F.Status())

	err = New("noengine").Refine(context.Background())
	assert.True(Te, errors.Is(err, pdfgui.ConfigError))

	sink := &recSink{}
	E := &fakeEngine{fail: pdfgui.NewError(pdfgui.RuntimeError, "diverged")}
	F = simpleFit(Te, E, WithSink(sink))
	err = F.Refine(context.Background())
	assert.True(Te, errors.Is(err, pdfgui.RuntimeError))
	assert.Equal(Te, Failed, F.Status())
	assert.Len(Te, sink.errs, 1)

	F = simpleFit(Te, &fakeEngine{steps: 1})
	P := F.Phases()[0]
	require.NoError(Te, P.SetConstraint("lat(2)", "@7"))
	err = F.Refine(context.Background())
	assert.True(Te, errors.Is(err, pdfgui.KeyError))
}

func TestStop(Te *testing.T) {
	E := &fakeEngine{block: true, started: make(chan struct{})}
	F := simpleFit(Te, E)
	done := make(chan error)
	go func() { done <- F.Refine(context.Background()) }()
	<-E.started
	assert.Equal(Te, Running, F.Status())
	assert.True(Te, errors.Is(F.Refine(context.Background()), pdfgui.StatusError))
	assert.True(Te, errors.Is(F.SetStatus(Pending), pdfgui.StatusError))
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			F.Stop()
		}()
	}
	wg.Wait()
	select {
	case err := <-done:
		assert.NoError(Te, err)
	case <-time.After(5 * time.Second):
		Te.Fatal("refinement did not stop")
	}
	assert.Equal(Te, Cancelled, F.Status())
	F.Stop()
	assert.Equal(Te, Cancelled, F.Status())
}

func TestStopQueued(Te *testing.T) {
	E := &fakeEngine{target: 4, steps: 2}
	sink := &recSink{}
	F := simpleFit(Te, E, WithSink(sink))
	require.NoError(Te, F.SetStatus(Queued))
	F.Stop()
	assert.Equal(Te, Queued, F.Status())
	require.NoError(Te, F.Refine(context.Background()))
	assert.Equal(Te, Cancelled, F.Status())
	assert.Equal(Te, 0, E.calls)
	assert.Empty(Te, F.Snapshots())

	//queueing again drops the old request
	require.NoError(Te, F.SetStatus(Queued))
	require.NoError(Te, F.Refine(context.Background()))
	assert.Equal(Te, Completed, F.Status())
	assert.Equal(Te, 1, E.calls)

	//a pending fit ignores Stop
	F.Stop()
	require.NoError(Te, F.Refine(context.Background()))
	assert.Equal(Te, Completed, F.Status())
	assert.Equal(Te, 2, E.calls)
}

func TestCopyWhileRefining(Te *testing.T) {
	F := simpleFit(Te, &fakeEngine{target: 4, steps: 20})
	done := make(chan error)
	go func() { done <- F.Refine(context.Background()) }()
	var err error
	for finished := false; !finished; {
		select {
		case err = <-done:
			finished = true
		default:
			C := F.Copy("copy", false)
			D := C.DataSets()[0]
			if len(D.Gcalc) > 0 {
				assert.Len(Te, D.Gcalc, len(D.Rcalc))
			}
		}
	}
	require.NoError(Te, err)
	D := F.Copy("copy", false).DataSets()[0]
	assert.Len(Te, D.Gcalc, len(D.Rcalc))
	assert.Contains(Te, D.Refined, "dscale")
}

func TestLinkedParameters(Te *testing.T) {
	var all fits
	E := &fakeEngine{target: 4, steps: 1}
	A := simpleFit(Te, E, WithResolver(&all))
	B := simpleFit(Te, E, WithResolver(&all))
	B.SetName("fit-2")
	all = append(all, A, B)
	A.Configure(WithResolver(all))
	B.Configure(WithResolver(all))
	_, err := B.SetParameter(1, "=fit-1")
	require.NoError(Te, err)
	p, _ := B.Parameter(1)
	v, err := p.InitialValue()
	require.NoError(Te, err)
	assert.Equal(Te, 3.52, v)

	require.NoError(Te, A.Refine(context.Background()))
	v, _ = p.InitialValue()
	assert.InDelta(Te, 3.76, v, 1e-12)

	A.SetName("renamed")
	assert.Equal(Te, 1, B.RenameLinks("fit-1", "renamed"))
	assert.Equal(Te, "=renamed:1", p.InitialStr())
	require.NoError(Te, B.Refine(context.Background()))
	r, _ := p.Refined()
	assert.InDelta(Te, 3.88, r, 1e-12)

	_, err = A.SetParameter(1, "=fit-2")
	require.NoError(Te, err)
	pa, _ := A.Parameter(1)
	pa.ClearRefined()
	p.ClearRefined()
	_, err = pa.InitialValue()
	assert.True(Te, errors.Is(err, pdfgui.RuntimeError))
}

func TestCopy(Te *testing.T) {
	F := simpleFit(Te, &fakeEngine{target: 4, steps: 2})
	require.NoError(Te, F.Insert(pdfdata.NewCalculation("calc"), -1))
	require.NoError(Te, F.Refine(context.Background()))

	C := F.Copy("copy", false)
	assert.NotEqual(Te, F.ID(), C.ID())
	assert.Equal(Te, Completed, C.Status())
	assert.Len(Te, C.Snapshots(), 2)
	C.Phases()[0].Initial.Lattice.A = 1
	assert.Equal(Te, 3.52, F.Phases()[0].Initial.Lattice.A)

	S := F.Copy("stripped", true)
	assert.Equal(Te, Pending, S.Status())
	assert.Empty(Te, S.Snapshots())
	assert.Nil(Te, S.Phases()[0].Refined)
	assert.Nil(Te, S.DataSets()[0].Gcalc)
	p, _ := S.Parameter(1)
	_, ok := p.Refined()
	assert.False(Te, ok)
	assert.Equal(Te, 1000, S.Calculations()[0].Rlen())
}

func TestCalculateAll(Te *testing.T) {
	F := simpleFit(Te, &fakeEngine{target: 4, steps: 1})
	require.NoError(Te, F.Insert(pdfdata.NewCalculation("calc"), -1))
	require.NoError(Te, F.CalculateAll(context.Background()))
	c := F.Calculations()[0]
	require.Len(Te, c.Gcalc, c.Rlen())
	assert.Equal(Te, 3.52, c.Gcalc[0])
	require.NoError(Te, F.Refine(context.Background()))
	require.NoError(Te, F.CalculateAll(context.Background()))
	assert.InDelta(Te, 3.76, F.Calculations()[0].Gcalc[0], 1e-12)

	assert.True(Te, errors.Is(New("x", WithEngine(&fakeEngine{})).CalculateAll(context.Background()), pdfgui.ConfigError))
}
