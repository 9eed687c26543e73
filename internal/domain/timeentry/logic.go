package timeentry

import (
	"errors"
	"fmt"
	"math"
	"time"

	"worktrack/internal/auth"
)

const clockLayout = "15:04"

// ComputeHours returns the decimal hours between two HH:MM clock times.
// Precision is whole minutes (the inputs carry no seconds); a time_out
// earlier than time_in is treated as an overnight shift. The result is
// rounded half-up to two decimals.
func ComputeHours(timeIn, timeOut string) (float64, error) {
	if timeIn == "" || timeOut == "" {
		return 0, errors.New("both clock times required")
	}
	in, err := time.Parse(clockLayout, timeIn)
	if err != nil {
		return 0, fmt.Errorf("invalid time_in %q: %w", timeIn, err)
	}
	out, err := time.Parse(clockLayout, timeOut)
	if err != nil {
		return 0, fmt.Errorf("invalid time_out %q: %w", timeOut, err)
	}

	minutes := int(out.Sub(in).Minutes())
	if minutes < 0 {
		minutes += 24 * 60
	}
	return math.Round(float64(minutes)/60*100) / 100, nil
}

// ResolveHours applies the hours invariant: explicitly entered hours win
// over a clock pair; otherwise hours are derived from the pair; otherwise
// nil (the entry stays editable in draft).
func ResolveHours(hoursWorked *float64, timeIn, timeOut string) (*float64, error) {
	if hoursWorked != nil {
		return hoursWorked, nil
	}
	if timeIn != "" && timeOut != "" {
		computed, err := ComputeHours(timeIn, timeOut)
		if err != nil {
			return nil, err
		}
		return &computed, nil
	}
	return nil, nil
}

// CanSubmit checks the draft→submitted guards.
func CanSubmit(e Entry) error {
	if e.Status != StatusDraft {
		return fmt.Errorf("%w: cannot submit from %s", ErrInvalidTransition, e.Status)
	}
	if !e.Assigned() {
		return ErrMissingAssignment
	}
	if e.Hours() <= 0 {
		return ErrMissingHours
	}
	return nil
}

// CanVerify checks the submitted→verified guards.
func CanVerify(e Entry, actor auth.UserContext) error {
	if !actor.CanManage() {
		return ErrPermissionDenied
	}
	if e.Status != StatusSubmitted {
		return fmt.Errorf("%w: cannot verify from %s", ErrInvalidTransition, e.Status)
	}
	return nil
}

// CanReject checks the submitted→draft rejection guards.
func CanReject(e Entry, actor auth.UserContext, reason string) error {
	if !actor.CanManage() {
		return ErrPermissionDenied
	}
	if e.Status != StatusSubmitted {
		return fmt.Errorf("%w: cannot reject from %s", ErrInvalidTransition, e.Status)
	}
	if reason == "" {
		return ErrReasonRequired
	}
	return nil
}

// CanModify reports whether the actor may edit or delete the entry.
// Technicians touch only their own drafts; managers touch any draft.
func CanModify(e Entry, actor auth.UserContext) error {
	if e.Status != StatusDraft {
		return ErrNotDraft
	}
	if !actor.CanManage() && e.TechID != actor.TechID {
		return ErrPermissionDenied
	}
	return nil
}
