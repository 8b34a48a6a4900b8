package memchain

import (
	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint
}

func CheckPow2[T Number](number T, name string) error {
	if number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// NextPow2 returns the smallest power of two that is >= value. Values below 1
// round up to 1.
func NextPow2(value int) int {
	capacity := 1
	for capacity < value {
		capacity <<= 1
	}
	return capacity
}
