package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{ErrNotFound, "not_found"},
		{fmt.Errorf("load account: %w", ErrDuplicateName), "duplicate_name"},
		{ErrCannotEditInitialTransaction, "cannot_edit_initial_transaction"},
		{errors.New("socket closed"), "error"},
	}
	for _, c := range cases {
		if got := Code(c.err); got != c.want {
			t.Fatalf("Code(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}
