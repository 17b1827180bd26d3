package models

// SliceStatus is the lifecycle state of one independently loaded list or
// count. Within one fetch it only moves Loading -> Empty|Error|Complete.
type SliceStatus int

const (
	// SliceInitial means nothing was requested, e.g. after sign-out.
	SliceInitial SliceStatus = iota
	SliceLoading
	SliceEmpty
	SliceError
	SliceComplete
)

func (s SliceStatus) String() string {
	switch s {
	case SliceLoading:
		return "loading"
	case SliceEmpty:
		return "empty"
	case SliceError:
		return "error"
	case SliceComplete:
		return "complete"
	default:
		return "initial"
	}
}

// Slice pairs a value with its load status. Err carries the failure message
// verbatim when Status is SliceError.
type Slice[T any] struct {
	Status SliceStatus
	Value  T
	Err    string
}

func Loading[T any]() Slice[T] {
	return Slice[T]{Status: SliceLoading}
}

func Failed[T any](err error) Slice[T] {
	return Slice[T]{Status: SliceError, Err: err.Error()}
}

// Loaded settles a slice: Empty when empty reports true, Complete otherwise.
func Loaded[T any](v T, empty bool) Slice[T] {
	if empty {
		return Slice[T]{Status: SliceEmpty, Value: v}
	}
	return Slice[T]{Status: SliceComplete, Value: v}
}
