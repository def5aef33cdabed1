//go:build debug

// Package debug provides assertions that are compiled in only under the
// "debug" build tag, mirroring the zero-cost-in-production pattern used
// throughout this module's ancestor.
package debug

import (
	"fmt"
)

func Assert(cond bool, a ...interface{}) {
	if !cond {
		panic(fmt.Sprint("assertion failed: ", fmt.Sprint(a...)))
	}
}

func Assertf(cond bool, f string, a ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("assertion failed: "+f, a...))
	}
}

func AssertNoErr(err error) {
	if err != nil {
		panic(err)
	}
}

func Func(f func()) { f() }
