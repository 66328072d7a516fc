package rba

import "github.com/pkg/errors"

// UsageError marks a fatal usage error per spec.md §4.9 / §7: invalid KF ID,
// an observation referencing a nonexistent KF, or an Edge Creation Policy
// that produced zero edges for a non-initial keyframe. CreateKF2KFEdge and
// InsertObservation check their arguments before mutating anything, so they
// leave the state unchanged when they return one. DefineNewKeyframe does not
// roll back: when it returns one, the new keyframe and the observations it
// already inserted stay in the state.
type UsageError struct {
	msg string
}

func (e *UsageError) Error() string { return e.msg }

func newUsageError(format string, args ...interface{}) *UsageError {
	return &UsageError{msg: errors.Errorf(format, args...).Error()}
}

// errIsolatedKeyframe builds the *UsageError returned when the Edge
// Creation Policy could not attach a new, non-initial keyframe to the rest
// of the graph.
func errIsolatedKeyframe(kf KeyframeID, minObs int) error {
	return newUsageError(
		"keyframe %d has no suitable linking keyframe with at least %d shared observations: it would become isolated from the graph",
		kf, minObs,
	)
}

// ErrIsolatedKeyframe is the exported constructor for errIsolatedKeyframe,
// for use by Edge Creation Policy implementations in package rba/ecp, which
// cannot reach the unexported one directly.
func ErrIsolatedKeyframe(kf KeyframeID, minObs int) error {
	return errIsolatedKeyframe(kf, minObs)
}

func errUnknownKeyframe(kf KeyframeID) error {
	return newUsageError("observation references keyframe %d, which does not exist", kf)
}

func errDuplicateEdge(from, to KeyframeID) error {
	return newUsageError("a kf2kf edge between %d and %d already exists", from, to)
}
