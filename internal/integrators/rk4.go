package integrators

import (
	"sync"

	"github.com/san-kum/bugsim/internal/dynamo"
)

// RK4 is the classic fourth-order Runge-Kutta stepper. Scratch states come
// from per-dimension pools, so one RK4 may be shared between goroutines.
type RK4 struct {
	mu    sync.Mutex
	pools map[int]*dynamo.StatePool
}

func NewRK4() *RK4 {
	return &RK4{pools: make(map[int]*dynamo.StatePool)}
}

func (r *RK4) pool(n int) *dynamo.StatePool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pools[n]
	if !ok {
		p = dynamo.NewStatePool(n)
		r.pools[n] = p
	}
	return p
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	pool := r.pool(n)
	scratch := pool.Get()
	defer pool.Put(scratch)

	k1 := sys.Derive(x, t)

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*0.5*k1[i]
	}
	k2 := sys.Derive(scratch, t+dt*0.5)

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*0.5*k2[i]
	}
	k3 := sys.Derive(scratch, t+dt*0.5)

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*k3[i]
	}
	k4 := sys.Derive(scratch, t+dt)

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}

	return result
}
