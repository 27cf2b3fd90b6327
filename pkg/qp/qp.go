// Package qp solves dense strictly convex quadratic programs
//
//	minimize    ½ xᵀPx + qᵀx
//	subject to  A x ≥ b
//
// with the dual active-set method of Goldfarb and Idnani. The method starts
// from the unconstrained minimum and adds violated constraints one at a time,
// so no feasible starting point is needed. P must be symmetric positive
// definite; callers holding a semi-definite matrix add a small multiple of
// the identity first.
//
// Linearly dependent constraints are detected when they would enter the
// active set and are skipped, so over-determined systems (for example two
// bounds on the same variable) are handled without special casing.
package qp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNotPositiveDefinite is returned when the Cholesky factorization of P fails.
	ErrNotPositiveDefinite = errors.New("qp: matrix is not positive definite")

	// ErrInfeasible is returned when the constraints admit no solution.
	ErrInfeasible = errors.New("qp: constraints are infeasible")

	// ErrIterationLimit is returned when the active set does not settle.
	ErrIterationLimit = errors.New("qp: iteration limit exceeded")

	// ErrDimensionMismatch is returned for inconsistent argument shapes.
	ErrDimensionMismatch = errors.New("qp: dimension mismatch")
)

// Result holds the solution of a quadratic program.
type Result struct {
	X          []float64 // Optimal point
	Value      float64   // Objective value at X
	Active     []int     // Indices of the constraints active at X
	Iterations int       // Number of outer iterations
}

// Solve minimizes ½xᵀPx + qᵀx subject to Ax ≥ b. P is n×n, q has length n
// (nil means zero), A is m×n and b has length m. A may be nil when m is 0.
//
// The arguments are not modified.
func Solve(P mat.Symmetric, q []float64, A mat.Matrix, b []float64) (*Result, error) {
	n := P.SymmetricDim()
	if q == nil {
		q = make([]float64, n)
	}
	if len(q) != n {
		return nil, fmt.Errorf("%w: q has length %d, want %d", ErrDimensionMismatch, len(q), n)
	}
	m := 0
	if A != nil {
		var c int
		m, c = A.Dims()
		if c != n {
			return nil, fmt.Errorf("%w: A has %d columns, want %d", ErrDimensionMismatch, c, n)
		}
	}
	if len(b) != m {
		return nil, fmt.Errorf("%w: b has length %d, want %d", ErrDimensionMismatch, len(b), m)
	}

	s, err := newSolver(P, q, A, b)
	if err != nil {
		return nil, err
	}
	if err := s.run(); err != nil {
		return nil, err
	}

	active := make([]int, s.iq)
	copy(active, s.act[:s.iq])
	return &Result{X: s.x, Value: s.f, Active: active, Iterations: s.iter}, nil
}

// solver carries the state of one Goldfarb-Idnani run. The primal step
// direction is z = J₂J₂ᵀn and the dual one r = R⁻¹J₁ᵀn, where J = L⁻ᵀQ and
// R come from the QR factorization of L⁻¹N for the active normals N.
type solver struct {
	n, m int
	cons [][]float64 // constraint normals (rows of A)
	rhs  []float64

	J *mat.Dense // n×n
	R *mat.Dense // n×n, upper triangular in its first iq columns

	x, s, z, r, d []float64
	u             []float64 // Lagrange multipliers of the active set
	act           []int     // active constraint indices
	iq            int       // size of the active set
	f             float64
	rNorm         float64
	c1, c2        float64
	iter, maxIter int
}

func newSolver(P mat.Symmetric, q []float64, A mat.Matrix, b []float64) (*solver, error) {
	n := P.SymmetricDim()
	m := len(b)

	s := &solver{
		n:       n,
		m:       m,
		cons:    make([][]float64, m),
		rhs:     append([]float64(nil), b...),
		J:       mat.NewDense(n, n, nil),
		R:       mat.NewDense(n, n, nil),
		x:       make([]float64, n),
		s:       make([]float64, m),
		z:       make([]float64, n),
		r:       make([]float64, m+1),
		d:       make([]float64, n),
		u:       make([]float64, m+1),
		act:     make([]int, m+1),
		rNorm:   1,
		maxIter: 50 * (m + n + 1),
	}
	for i := 0; i < m; i++ {
		s.cons[i] = mat.Row(nil, i, A)
	}

	for i := 0; i < n; i++ {
		s.c1 += P.At(i, i)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(P); !ok {
		return nil, ErrNotPositiveDefinite
	}

	// J = L⁻ᵀ
	var L, Linv mat.TriDense
	chol.LTo(&L)
	if err := Linv.InverseTri(&L); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPositiveDefinite, err)
	}
	s.J.Copy(Linv.T())
	for i := 0; i < n; i++ {
		s.c2 += s.J.At(i, i)
	}

	// Unconstrained minimum x = -P⁻¹q.
	var xv mat.VecDense
	if err := chol.SolveVecTo(&xv, mat.NewVecDense(n, append([]float64(nil), q...))); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPositiveDefinite, err)
	}
	for i := 0; i < n; i++ {
		s.x[i] = -xv.AtVec(i)
	}
	s.f = 0.5 * floats.Dot(q, s.x)
	return s, nil
}

// slack returns aᵢᵀx - bᵢ.
func (s *solver) slack(i int) float64 {
	return floats.Dot(s.cons[i], s.x) - s.rhs[i]
}

func (s *solver) run() error {
	if s.m == 0 {
		return nil
	}

	inactive := make([]bool, s.m) // iai in the paper: candidate for entering
	excluded := make([]bool, s.m) // dropped as linearly dependent this round
	xOld := make([]float64, s.n)
	uOld := make([]float64, s.m+1)
	actOld := make([]int, s.m+1)
	tol := float64(s.m) * epsilon * s.c1 * s.c2 * 100

	for i := range inactive {
		inactive[i] = true
	}

	for {
		// Step 1: pick the most violated constraint.
		s.iter++
		if s.iter > s.maxIter {
			return ErrIterationLimit
		}
		for i := 0; i < s.iq; i++ {
			inactive[s.act[i]] = false
		}
		psi := 0.0
		for i := 0; i < s.m; i++ {
			excluded[i] = false
			s.s[i] = s.slack(i)
			psi += math.Min(0, s.s[i])
		}
		if math.Abs(psi) <= tol {
			return nil
		}
		copy(uOld, s.u[:s.iq])
		copy(actOld, s.act[:s.iq])
		copy(xOld, s.x)

	chooseConstraint:
		// Step 2: check feasibility and choose the new constraint.
		ip, ss := -1, 0.0
		for i := 0; i < s.m; i++ {
			if inactive[i] && !excluded[i] && s.s[i] < ss {
				ss = s.s[i]
				ip = i
			}
		}
		if ip < 0 {
			return nil
		}
		np := s.cons[ip]
		s.u[s.iq] = 0
		s.act[s.iq] = ip

		for {
			// Step 2a: step directions in primal (z) and dual (r) space.
			s.computeD(np)
			s.updateZ()
			s.updateR()

			// Step 2b: partial step length t1 keeps the duals feasible.
			t1, l := math.Inf(1), -1
			for k := 0; k < s.iq; k++ {
				if s.r[k] > 0 {
					if v := s.u[k] / s.r[k]; v < t1 {
						t1 = v
						l = s.act[k]
					}
				}
			}
			// Full step length t2 makes constraint ip feasible.
			t2 := math.Inf(1)
			if floats.Dot(s.z, s.z) > epsilon {
				t2 = -s.s[ip] / floats.Dot(s.z, np)
				if t2 < 0 {
					t2 = math.Inf(1)
				}
			}
			t := math.Min(t1, t2)

			// Step 2c.
			if math.IsInf(t, 1) {
				return ErrInfeasible
			}
			if math.IsInf(t2, 1) {
				// Dual step only: drop constraint l.
				for k := 0; k < s.iq; k++ {
					s.u[k] -= t * s.r[k]
				}
				s.u[s.iq] += t
				inactive[l] = true
				s.deleteConstraint(l)
				continue
			}

			floats.AddScaled(s.x, t, s.z)
			s.f += t * floats.Dot(s.z, np) * (0.5*t + s.u[s.iq])
			for k := 0; k < s.iq; k++ {
				s.u[k] -= t * s.r[k]
			}
			s.u[s.iq] += t

			if math.Abs(t-t2) < epsilon {
				// Full step: ip joins the active set.
				if !s.addConstraint() {
					excluded[ip] = true
					s.deleteConstraint(ip)
					for i := range inactive {
						inactive[i] = true
					}
					for i := 0; i < s.iq; i++ {
						s.act[i] = actOld[i]
						s.u[i] = uOld[i]
						inactive[s.act[i]] = false
					}
					copy(s.x, xOld)
					goto chooseConstraint
				}
				inactive[ip] = false
				break
			}

			// Partial step: drop constraint l and retry ip.
			inactive[l] = true
			s.deleteConstraint(l)
			s.s[ip] = s.slack(ip)
		}
	}
}

// epsilon is the machine epsilon for float64.
const epsilon = 2.220446049250313e-16

// computeD sets d = Jᵀnp.
func (s *solver) computeD(np []float64) {
	for i := 0; i < s.n; i++ {
		sum := 0.0
		for j := 0; j < s.n; j++ {
			sum += s.J.At(j, i) * np[j]
		}
		s.d[i] = sum
	}
}

// updateZ sets z = J₂d₂, the columns of J beyond the active set.
func (s *solver) updateZ() {
	for i := 0; i < s.n; i++ {
		sum := 0.0
		for j := s.iq; j < s.n; j++ {
			sum += s.J.At(i, j) * s.d[j]
		}
		s.z[i] = sum
	}
}

// updateR solves R r = d₁ by back substitution.
func (s *solver) updateR() {
	for i := s.iq - 1; i >= 0; i-- {
		sum := 0.0
		for j := i + 1; j < s.iq; j++ {
			sum += s.R.At(i, j) * s.r[j]
		}
		s.r[i] = (s.d[i] - sum) / s.R.At(i, i)
	}
}

// addConstraint appends the column d to R, using Givens rotations to zero
// d below position iq and applying the same rotations to J. It reports false
// when the new constraint is linearly dependent on the active set; iq is
// incremented in either case so deleteConstraint can undo the addition.
func (s *solver) addConstraint() bool {
	for j := s.n - 1; j >= s.iq+1; j-- {
		cc, ss := s.d[j-1], s.d[j]
		h := math.Hypot(cc, ss)
		if math.Abs(h) < epsilon {
			continue
		}
		s.d[j] = 0
		ss /= h
		cc /= h
		if cc < 0 {
			cc, ss = -cc, -ss
			s.d[j-1] = -h
		} else {
			s.d[j-1] = h
		}
		xny := ss / (1 + cc)
		for k := 0; k < s.n; k++ {
			t1, t2 := s.J.At(k, j-1), s.J.At(k, j)
			nj1 := t1*cc + t2*ss
			s.J.Set(k, j-1, nj1)
			s.J.Set(k, j, xny*(t1+nj1)-t2)
		}
	}
	s.iq++
	for i := 0; i < s.iq; i++ {
		s.R.Set(i, s.iq-1, s.d[i])
	}
	if math.Abs(s.d[s.iq-1]) <= epsilon*s.rNorm {
		return false
	}
	s.rNorm = math.Max(s.rNorm, math.Abs(s.d[s.iq-1]))
	return true
}

// deleteConstraint removes constraint l from the active set and restores
// the triangular form of R with Givens rotations, updating J alongside.
func (s *solver) deleteConstraint(l int) {
	qq := -1
	for i := 0; i < s.iq; i++ {
		if s.act[i] == l {
			qq = i
			break
		}
	}
	if qq < 0 {
		return
	}
	for i := qq; i < s.iq-1; i++ {
		s.act[i] = s.act[i+1]
		s.u[i] = s.u[i+1]
		for j := 0; j < s.n; j++ {
			s.R.Set(j, i, s.R.At(j, i+1))
		}
	}
	s.act[s.iq-1] = s.act[s.iq]
	s.u[s.iq-1] = s.u[s.iq]
	s.act[s.iq] = 0
	s.u[s.iq] = 0
	for j := 0; j < s.iq; j++ {
		s.R.Set(j, s.iq-1, 0)
	}
	s.iq--
	if s.iq == 0 {
		return
	}

	for j := qq; j < s.iq; j++ {
		cc, ss := s.R.At(j, j), s.R.At(j+1, j)
		h := math.Hypot(cc, ss)
		if math.Abs(h) < epsilon {
			continue
		}
		cc /= h
		ss /= h
		s.R.Set(j+1, j, 0)
		if cc < 0 {
			s.R.Set(j, j, -h)
			cc, ss = -cc, -ss
		} else {
			s.R.Set(j, j, h)
		}
		xny := ss / (1 + cc)
		for k := j + 1; k < s.iq; k++ {
			t1, t2 := s.R.At(j, k), s.R.At(j+1, k)
			nk := t1*cc + t2*ss
			s.R.Set(j, k, nk)
			s.R.Set(j+1, k, xny*(t1+nk)-t2)
		}
		for k := 0; k < s.n; k++ {
			t1, t2 := s.J.At(k, j), s.J.At(k, j+1)
			nk := t1*cc + t2*ss
			s.J.Set(k, j, nk)
			s.J.Set(k, j+1, xny*(nk+t1)-t2)
		}
	}
}
