package handler

import "time"

func SetTimeNow(f func() time.Time) func() {
	orig := timeNow
	timeNow = f
	return func() { timeNow = orig }
}

func SetIntN(f func(int) int) func() {
	orig := intN
	intN = f
	return func() { intN = orig }
}
