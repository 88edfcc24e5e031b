package optimize

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
)

// Default range for Randomize if a parameter has no finite bounds.
const (
	MIN = -10
	MAX = +10
)

// FloatParameter is a named scalar optimization parameter bound to a
// model field.
type FloatParameter interface {
	Name() string
	Get() float64
	Set(float64)
	SetMin(float64)
	SetMax(float64)
	GetMin() float64
	GetMax() float64
	SetOnChange(func())
	SetProposalFunc(func(float64) float64)
	SetPriorFunc(func(float64) float64)
	Prior() float64
	OldPrior() float64
	Propose()
	Accept(int)
	Reject()
	InRange() bool
	ValueInRange(float64) bool
	String() string
}

// FloatParameterGenerator creates a FloatParameter bound to a float64
// field of a model.
type FloatParameterGenerator func(*float64, string) FloatParameter

// FloatParameters is a collection of model parameters.
type FloatParameters []FloatParameter

// Append adds a parameter to the collection.
func (p *FloatParameters) Append(par FloatParameter) {
	*p = append(*p, par)
}

// Names returns parameter names, reusing is if provided.
func (p *FloatParameters) Names(is []string) (s []string) {
	if is == nil {
		s = make([]string, len(*p))
	} else {
		s = is
	}
	for i, par := range *p {
		s[i] = par.Name()
	}
	return
}

// Values returns parameter values, reusing iv if provided.
func (p *FloatParameters) Values(iv []float64) (v []float64) {
	if iv == nil {
		v = make([]float64, len(*p))
	} else {
		v = iv
	}
	for i, par := range *p {
		v[i] = par.Get()
	}
	return
}

// SetValues sets all parameter values from a slice.
func (p *FloatParameters) SetValues(v []float64) {
	if len(v) != len(*p) {
		panic("incorrect number of parameters")
	}
	for i, par := range *p {
		par.Set(v[i])
	}
}

// ValuesInRange checks that every value is within its parameter's
// bounds.
func (p *FloatParameters) ValuesInRange(vals []float64) bool {
	if len(vals) != len(*p) {
		panic("incorrect number of parameters")
	}
	for i, par := range *p {
		if !par.ValueInRange(vals[i]) {
			return false
		}
	}
	return true
}

// InRange checks that every current value is within bounds.
func (p *FloatParameters) InRange() bool {
	for _, par := range *p {
		if !par.InRange() {
			return false
		}
	}
	return true
}

// Update copies values from another parameter collection.
func (p *FloatParameters) Update(pSrc *FloatParameters) {
	for i := range *p {
		(*p)[i].Set((*pSrc)[i].Get())
	}
}

// Randomize sets every parameter to a uniform value within its bounds
// (clipped to [MIN, MAX] for unbounded parameters).
func (p *FloatParameters) Randomize() {
	for _, par := range *p {
		min := math.Max(MIN, par.GetMin())
		max := math.Min(MAX, par.GetMax())
		par.Set(min + rand.Float64()*(max-min))
	}
}

// NamesString returns tab-separated parameter names.
func (p *FloatParameters) NamesString() string {
	var b strings.Builder
	for i, par := range *p {
		if i != 0 {
			b.WriteByte('\t')
		}
		b.WriteString(par.Name())
	}
	return b.String()
}

// ValuesString returns tab-separated parameter values.
func (p *FloatParameters) ValuesString() string {
	var b strings.Builder
	for i, par := range *p {
		if i != 0 {
			b.WriteByte('\t')
		}
		b.WriteString(par.String())
	}
	return b.String()
}

// BasicFloatParameter is the default FloatParameter implementation.
type BasicFloatParameter struct {
	*float64
	old          float64
	name         string
	priorFunc    func(float64) float64
	proposalFunc func(float64) float64
	min          float64
	max          float64
	onChange     func()
}

// NewBasicFloatParameter creates a parameter bound to par.
func NewBasicFloatParameter(par *float64, name string) *BasicFloatParameter {
	return &BasicFloatParameter{
		float64:      par,
		name:         name,
		priorFunc:    UniformPrior(-1, 1, true, true),
		proposalFunc: NormalProposal(1),
		min:          math.Inf(-1),
		max:          math.Inf(+1),
	}
}

// BasicFloatParameterGenerator is a FloatParameterGenerator for
// BasicFloatParameter.
func BasicFloatParameterGenerator(par *float64, name string) FloatParameter {
	return NewBasicFloatParameter(par, name)
}

// Name returns the parameter name.
func (p *BasicFloatParameter) Name() string {
	return p.name
}

// Get returns the current value.
func (p *BasicFloatParameter) Get() float64 {
	return *p.float64
}

// Set changes the value and triggers the OnChange hook.
func (p *BasicFloatParameter) Set(v float64) {
	if *p.float64 == v {
		return
	}
	*p.float64 = v
	if p.onChange != nil {
		p.onChange()
	}
}

// SetMin sets the lower bound.
func (p *BasicFloatParameter) SetMin(min float64) {
	p.min = min
}

// SetMax sets the upper bound.
func (p *BasicFloatParameter) SetMax(max float64) {
	p.max = max
}

// GetMin returns the lower bound.
func (p *BasicFloatParameter) GetMin() float64 {
	return p.min
}

// GetMax returns the upper bound.
func (p *BasicFloatParameter) GetMax() float64 {
	return p.max
}

// SetOnChange sets a hook called after every value change.
func (p *BasicFloatParameter) SetOnChange(f func()) {
	p.onChange = f
}

// SetPriorFunc sets the log-prior density (used by MH).
func (p *BasicFloatParameter) SetPriorFunc(f func(float64) float64) {
	p.priorFunc = f
}

// SetProposalFunc sets the proposal function (used by MH).
func (p *BasicFloatParameter) SetProposalFunc(f func(float64) float64) {
	p.proposalFunc = f
}

// Prior returns the log-prior at the current value.
func (p *BasicFloatParameter) Prior() float64 {
	return p.priorFunc(*p.float64)
}

// OldPrior returns the log-prior at the pre-proposal value.
func (p *BasicFloatParameter) OldPrior() float64 {
	return p.priorFunc(p.old)
}

// reflect mirrors an out-of-bounds value back into [min, max].
func (p *BasicFloatParameter) reflect() {
	for *p.float64 < p.min || *p.float64 > p.max {
		if *p.float64 < p.min {
			*p.float64 = p.min + (p.min - *p.float64)
		}
		if *p.float64 > p.max {
			*p.float64 = p.max - (*p.float64 - p.max)
		}
	}
}

// Propose replaces the value with a proposal, remembering the old
// value for Reject.
func (p *BasicFloatParameter) Propose() {
	p.old, *p.float64 = *p.float64, p.proposalFunc(*p.float64)
	p.reflect()
	if p.onChange != nil {
		p.onChange()
	}
}

// Accept accepts the proposed value.
func (p *BasicFloatParameter) Accept(iter int) {
}

// Reject restores the pre-proposal value.
func (p *BasicFloatParameter) Reject() {
	*p.float64, p.old = p.old, *p.float64
	if p.onChange != nil {
		p.onChange()
	}
}

// InRange checks the current value against the bounds.
func (p *BasicFloatParameter) InRange() bool {
	return *p.float64 >= p.min && *p.float64 <= p.max
}

// ValueInRange checks a value against the bounds.
func (p *BasicFloatParameter) ValueInRange(v float64) bool {
	return v >= p.min && v <= p.max
}

// String formats the current value.
func (p *BasicFloatParameter) String() string {
	return strconv.FormatFloat(*p.float64, 'f', 6, 64)
}
