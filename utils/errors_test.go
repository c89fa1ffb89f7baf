package utils

import (
	"testing"

	"go.viam.com/test"
)

type someStruct struct{}

func TestUnexpectedTypeError(t *testing.T) {
	err := NewUnexpectedTypeError[someStruct](3)
	test.That(t, err.Error(), test.ShouldEqual, "expected utils.someStruct but got int")

	err = NewUnexpectedTypeError[*someStruct](nil)
	test.That(t, err.Error(), test.ShouldEqual, "expected *utils.someStruct but got <nil>")
}
