package engine

// These constructors are the seam between blueprint's registration API and
// the closed set of TaskKind implementors in this package: blueprint picks
// an arity and a kind, the engine builds and type-checks the closure.

func NewGather0[R any](fn func(ctx *ExecContext) (R, error)) TaskKind {
	return &gatherTask0[R]{fn: fn}
}

func NewGather1[A, R any](dep Dependency[A], fn func(ctx *ExecContext, a A) (R, error)) TaskKind {
	return &gatherTask1[A, R]{dep: dep, fn: fn}
}

func NewGather2[A, B, R any](depA Dependency[A], depB Dependency[B], fn func(ctx *ExecContext, a A, b B) (R, error)) TaskKind {
	return &gatherTask2[A, B, R]{depA: depA, depB: depB, fn: fn}
}

func NewScatter0[R any](fn func(ctx *ExecContext) ([]Pair[R], error)) TaskKind {
	return &scatterTask0[R]{fn: fn}
}

func NewScatter1[A, R any](dep Dependency[A], fn func(ctx *ExecContext, a A) ([]Pair[R], error)) TaskKind {
	return &scatterTask1[A, R]{dep: dep, fn: fn}
}

func NewMap0[T, R any](primary Many[T], fn func(ctx *ExecContext, key string, value T) (R, error)) TaskKind {
	return &mapTask0[T, R]{primary: primary, fn: fn}
}

func NewMap1[T, D, R any](primary Many[T], secondary Dependency[D], fn func(ctx *ExecContext, key string, value T, secondary D) (R, error)) TaskKind {
	return &mapTask1[T, D, R]{primary: primary, secondary: secondary, fn: fn}
}

func NewGlob[R any](patterns []string, source GlobSource, fn func(ctx *ExecContext, path string, data []byte) (R, error)) TaskKind {
	return &globTask[R]{patterns: patterns, source: source, fn: fn}
}
