package memchain

import "github.com/pkg/errors"

// ErrOutOfRange is the error returned when a slice or copy names a position outside
// the allocation it was requested from
var ErrOutOfRange error = errors.New("position lies outside the allocation")

// ErrTypeMismatch is the error returned when an erased allocation is recovered as an
// element type other than the one it was created with
var ErrTypeMismatch error = errors.New("allocation element type does not match the requested type")

// ErrDestinationTooSmall is the error returned from CopyTo when the destination cannot
// hold every element of the allocation
var ErrDestinationTooSmall error = errors.New("destination cannot hold the full allocation")

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")
