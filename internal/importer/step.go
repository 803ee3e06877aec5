package importer

import "fmt"

// StepResult to wynik jednego kroku potoku: Ok(Value) albo Failed(Err).
// Błąd kroku nigdy nie przerywa kolejnych kroków.
type StepResult[T any] struct {
	Step  string
	Value T
	Err   error
}

func runStep[T any](step string, fn func() (T, error)) StepResult[T] {
	v, err := fn()
	if err != nil {
		var zero T
		return StepResult[T]{Step: step, Value: zero, Err: err}
	}
	return StepResult[T]{Step: step, Value: v}
}

func (r StepResult[T]) OK() bool { return r.Err == nil }

// count: liczba wierszy kroku albo 0, gdy krok się nie udał (wszystko albo nic).
func count[T any](r StepResult[[]T]) int {
	if !r.OK() {
		return 0
	}
	return len(r.Value)
}

type errorList []string

func (l *errorList) add(step string, err error) {
	if err == nil {
		return
	}
	*l = append(*l, fmt.Sprintf("%s: %v", step, err))
}
