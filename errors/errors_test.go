package errors_test

import (
	"fmt"
	"testing"

	"github.com/mcoppeta/junior-design-1337-sub000/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrors(t *testing.T) {
	t.Run("Is", func(t *testing.T) {
		uncoded := newUncoded("uncoded error")
		nsnf := newErrNodeSetNotFound(50)
		ssnf := newErrSideSetNotFound(7)
		nsnfCustom := errors.New(errNodeSetNotFound, "custom node set message")

		tests := []struct {
			err    error
			target errors.Code
			exp    bool
		}{
			{
				err:    uncoded,
				target: errUncoded,
				exp:    true,
			},
			{
				err:    uncoded,
				target: errNodeSetNotFound,
				exp:    false,
			},
			{
				err:    nsnf,
				target: errNodeSetNotFound,
				exp:    true,
			},
			{
				err:    nsnf,
				target: errSideSetNotFound,
				exp:    false,
			},
			{
				err:    errors.Wrap(ssnf, "with message"),
				target: errSideSetNotFound,
				exp:    true,
			},
			{
				err:    nsnfCustom,
				target: errNodeSetNotFound,
				exp:    true,
			},
			{
				err:    nil,
				target: errUncoded,
				exp:    false,
			},
		}

		for i, test := range tests {
			t.Run(fmt.Sprintf("test-%d", i), func(t *testing.T) {
				got := errors.Is(test.err, test.target)
				assert.Equal(t, test.exp, got)
			})
		}
	})
}

// Test error codes.

const (
	errUncoded         errors.Code = "Uncoded"
	errNodeSetNotFound errors.Code = "NodeSetNotFound"
	errSideSetNotFound errors.Code = "SideSetNotFound"
)

func newUncoded(message string) error {
	return errors.New(
		errUncoded,
		message,
	)
}

func newErrNodeSetNotFound(id int64) error {
	return errors.New(
		errNodeSetNotFound,
		fmt.Sprintf("node set %d not found", id),
	)
}

func newErrSideSetNotFound(id int64) error {
	return errors.New(
		errSideSetNotFound,
		fmt.Sprintf("side set %d not found", id),
	)
}
