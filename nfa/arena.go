package nfa

// noRegisters is the handle of threads that carry no register array.
// Lookbehind automata never report positions, so their threads use it.
const noRegisters = -1

// undefined is the value of a register that has not been set.
const undefined = -1

// arena hands out fixed-width register arrays from one slab and recycles
// released arrays, so peak memory depends on the number of simultaneously
// live threads rather than on input length.
type arena struct {
	width int
	slab  []int
	free  []int
	live  int
	peak  int
}

func newArena(width int) arena {
	return arena{width: width}
}

// allocate returns the handle of an array with unspecified contents.
func (a *arena) allocate() int {
	var h int
	if n := len(a.free); n > 0 {
		h = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		h = len(a.slab) / a.width
		a.slab = append(a.slab, make([]int, a.width)...)
	}
	a.live++
	a.peak = max(a.peak, a.live)
	return h
}

// allocateUndefined returns the handle of an array with every register
// undefined.
func (a *arena) allocateUndefined() int {
	h := a.allocate()
	regs := a.get(h)
	for i := range regs {
		regs[i] = undefined
	}
	return h
}

// clone returns a new array holding a copy of h.
func (a *arena) clone(h int) int {
	if h == noRegisters {
		return noRegisters
	}
	n := a.allocate()
	copy(a.get(n), a.get(h))
	return n
}

func (a *arena) release(h int) {
	if h == noRegisters {
		return
	}
	a.free = append(a.free, h)
	a.live--
}

// get returns the registers of h. The slice is only valid until the next
// allocate.
func (a *arena) get(h int) []int {
	return a.slab[h*a.width : (h+1)*a.width]
}
