package httperr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zintix-labs/quadlab/errs"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errs.InvalidArgument("n_slices", "n_slices must be >= 1"), http.StatusBadRequest},
		{errs.Warnf("division by zero"), http.StatusBadRequest},
		{errs.NewFatal("boom"), http.StatusInternalServerError},
		{errs.Wrap(context.DeadlineExceeded, "integrate canceled/timeout"), http.StatusGatewayTimeout},
		{fmt.Errorf("x: %w", context.Canceled), http.StatusRequestTimeout},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
		{errs.Wrap(errs.InvalidArgument("n_slices", "too many"), "integrate"), http.StatusBadRequest},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, StatusCode(c.err), c.err.Error())
	}
}

func TestErrs(t *testing.T) {
	rec := httptest.NewRecorder()
	Errs(rec, errs.InvalidArgument("expr", "unexpected end of input"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	b := new(Body)
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), b))
	assert.Equal(t, "expr", b.Param)
	assert.Equal(t, "invalid argument", b.Kind)
	assert.Equal(t, http.StatusBadRequest, b.Status)
	assert.Contains(t, b.Error, "unexpected end of input")

	rec = httptest.NewRecorder()
	Errs(rec, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
