package insights

import "github.com/daviddao/piv/internal/api"

// Status is the presentation class of a fetched resource.
type Status int

const (
	StatusLoading Status = iota
	StatusError
	StatusEmpty
	StatusPopulated
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusEmpty:
		return "empty"
	case StatusPopulated:
		return "populated"
	}
	return "?"
}

// User-facing failure messages. Only a missing resource points at the
// identifier; everything else is worth retrying.
const (
	MsgNotFound = "Nothing found for that identifier. Check the identifier and search again."
	MsgRetry    = "Failed to fetch data. Please try again."
)

// ViewState is the tagged union {Loading, Error, Empty, Populated} for one
// resource. The zero value is Loading.
type ViewState[T any] struct {
	status  Status
	data    T
	message string
	err     error
}

// Status returns the state's tag.
func (v ViewState[T]) Status() Status { return v.status }

// Data returns the payload; ok is false unless the state is Populated.
func (v ViewState[T]) Data() (data T, ok bool) {
	return v.data, v.status == StatusPopulated
}

// Message returns the user-facing error message of an Error state.
func (v ViewState[T]) Message() string { return v.message }

// Err returns the underlying failure of an Error state.
func (v ViewState[T]) Err() error { return v.err }

type signalKind int

const (
	signalStart signalKind = iota
	signalSuccess
	signalFailure
)

// Signal is one event of a fetch lifecycle: start, success or failure.
type Signal[T any] struct {
	kind    signalKind
	payload T
	err     error
}

// Started is the signal emitted when a fetch is issued.
func Started[T any]() Signal[T] { return Signal[T]{kind: signalStart} }

// Succeeded is the signal for a fetch that returned payload.
func Succeeded[T any](payload T) Signal[T] {
	return Signal[T]{kind: signalSuccess, payload: payload}
}

// Failed is the signal for a fetch that returned err.
func Failed[T any](err error) Signal[T] {
	return Signal[T]{kind: signalFailure, err: err}
}

// Classify derives the state of a primary resource. Any successful payload
// is Populated, whatever optional fields it carries.
func Classify[T any](sig Signal[T]) ViewState[T] {
	switch sig.kind {
	case signalSuccess:
		return ViewState[T]{status: StatusPopulated, data: sig.payload}
	case signalFailure:
		return errorState[T](sig.err)
	}
	return ViewState[T]{status: StatusLoading}
}

// ClassifyItems derives the state of a collection. A successful but empty
// sequence is Empty, not Populated.
func ClassifyItems[T any](sig Signal[[]T]) ViewState[[]T] {
	if sig.kind == signalSuccess && len(sig.payload) == 0 {
		return ViewState[[]T]{status: StatusEmpty}
	}
	return Classify(sig)
}

// ErrorMessage maps a failure onto the message shown to the user.
func ErrorMessage(err error) string {
	if api.IsNotFound(err) {
		return MsgNotFound
	}
	return MsgRetry
}

func errorState[T any](err error) ViewState[T] {
	return ViewState[T]{status: StatusError, message: ErrorMessage(err), err: err}
}
