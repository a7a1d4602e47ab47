package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validationf("bad input"), http.StatusBadRequest},
		{ErrInvalidTransition, http.StatusBadRequest},
		{fmt.Errorf("%w: in_transit -> delivered", ErrInvalidTransition), http.StatusBadRequest},
		{Authorizationf("wrong company"), http.StatusForbidden},
		{NotFoundf("load %d", 9), http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusCode(tc.err), tc.err.Error())
	}
}

func TestWrappersKeepSentinel(t *testing.T) {
	err := NotFoundf("driver %d", 3)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "driver 3")
}
