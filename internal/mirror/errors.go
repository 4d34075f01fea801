package mirror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfig indicates the mirror list could not be parsed
	ErrInvalidConfig = errors.New("invalid mirror configuration")
	// ErrMirrorsBlocked indicates at least one mirror served a block page
	ErrMirrorsBlocked = errors.New("mirrors blocked")
	// ErrNoMirrorReachable indicates no mirror in a group answered
	ErrNoMirrorReachable = errors.New("couldn't reach mirrors")
)

// ProbeError is returned when a probe batch does not yield usable mirrors.
// Blocked lists the hosts that served a block page, in catalog order.
type ProbeError struct {
	Group   Group
	Blocked []string
}

func (e *ProbeError) Error() string {
	if len(e.Blocked) > 0 {
		return fmt.Sprintf("the following %s mirrors were blocked: %s", e.Group, strings.Join(e.Blocked, ", "))
	}
	return fmt.Sprintf("couldn't reach any %s mirror", e.Group)
}

func (e *ProbeError) Unwrap() error {
	if len(e.Blocked) > 0 {
		return ErrMirrorsBlocked
	}
	return ErrNoMirrorReachable
}
