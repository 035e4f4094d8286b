package models

import (
	"fmt"
	"strings"
)

// RoleType defines the user role type carried in access tokens
type RoleType string

const (
	RoleAdmin      RoleType = "ADMIN"
	RoleInstructor RoleType = "INSTRUCTOR"
	RoleStudent    RoleType = "STUDENT"
)

// Term represents a semester term
type Term string

// Term constants
const (
	TermFall   Term = "FALL"
	TermSpring Term = "SPRING"
	TermSummer Term = "SUMMER"
)

// Terms lists every schedulable term in calendar order.
var Terms = []Term{TermSpring, TermSummer, TermFall}

// ParseTerm accepts "Fall", "FALL", " spring " etc.
func ParseTerm(s string) (Term, error) {
	t := Term(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case TermFall, TermSpring, TermSummer:
		return t, nil
	}
	return "", fmt.Errorf("unknown semester %q", s)
}

// TermRef identifies one (semester, year) schedule.
type TermRef struct {
	Term Term `json:"term"`
	Year int  `json:"year"`
}

// LockKey is the name of the per-term exclusive lease.
func (r TermRef) LockKey() string {
	return fmt.Sprintf("schedule:%s:%d", r.Term, r.Year)
}

func (r TermRef) String() string {
	return fmt.Sprintf("%s %d", r.Term, r.Year)
}
