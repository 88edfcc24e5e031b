package optimize

// None is an optimizer which evaluates the likelihood at the starting
// point and exits. Useful for computing the likelihood at fixed
// parameter values through the same interface.
type None struct {
	BaseOptimizer
}

// NewNone creates an evaluate-only optimizer.
func NewNone() *None {
	return &None{}
}

// Run computes the likelihood once.
func (n *None) Run(iterations int) error {
	n.l = n.Likelihood()
	n.calls++
	n.maxL = n.l
	n.maxLPar = n.parameters.Values(n.maxLPar)
	n.converged = true
	n.PrintHeader(n.parameters)
	n.PrintLine(n.parameters, n.l)
	return nil
}
