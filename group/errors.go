package group

import "errors"

var errMapToGroupExhausted = errors.New("group: map-to-group did not converge")
