package engine

import (
	"errors"
	"fmt"
)

// actionQuota bounds the number of actions one run may reduce.
//
// Epics can feed each other: an epic that answers an action with an action
// that triggers it again never lets the queue drain. The quota turns that
// into a terminal error instead of an endless loop.
type actionQuota struct {
	limit int64
	used  int64
}

// check counts one action and reports whether the limit is exceeded.
func (q *actionQuota) check(session string) error {
	q.used++
	if q.used > q.limit {
		return &QuotaExceededError{Session: session, Actions: q.used, Limit: q.limit}
	}
	return nil
}

// QuotaExceededError is returned by Run when a session reduces more actions
// than allowed by WithMaxActions. The action that crossed the limit is not
// reduced.
type QuotaExceededError struct {
	Session string
	Actions int64
	Limit   int64
}

// Error implements the error interface.
func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("session %s exceeded action quota: %d actions > %d limit",
		e.Session, e.Actions, e.Limit)
}

// IsQuotaExceeded reports whether err is a QuotaExceededError.
// Uses errors.As to handle wrapped errors.
func IsQuotaExceeded(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}
