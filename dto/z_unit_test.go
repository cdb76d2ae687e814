package dto

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/quadlab"
	"github.com/zintix-labs/quadlab/errs"
	"github.com/zintix-labs/quadlab/sdk/rule"
)

func TestDecodeIntegrateRequestGET(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/integrate?expr=x%5E2&from=0&to=2&n=1000&rule=trapezoid&policy=strict&digits=4&exact=2.5&points=true", nil)
	req, err := DecodeIntegrateRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "x^2", req.Expr)
	require.NotNil(t, req.From)
	require.NotNil(t, req.To)
	assert.Equal(t, 0.0, *req.From)
	assert.Equal(t, 2.0, *req.To)
	assert.Equal(t, 1000, req.Slices)
	assert.Equal(t, "trapezoid", req.Rule)
	assert.Equal(t, "strict", req.Policy)
	require.NotNil(t, req.Digits)
	assert.Equal(t, 4, *req.Digits)
	require.NotNil(t, req.Exact)
	assert.Equal(t, 2.5, *req.Exact)
	assert.True(t, req.Points)
	assert.False(t, req.Areas)

	ir, err := req.Parse()
	require.NoError(t, err)
	assert.Equal(t, &quadlab.IntegrateRequest{
		Expr: "x^2", From: 0, To: 2, Slices: 1000, Rule: "trapezoid", Policy: "strict",
		Digits: req.Digits, Exact: req.Exact, Points: true,
	}, ir)
}

func TestDecodeIntegrateRequestGETSlicesWins(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/integrate?expr=x&from=0&to=1&slices=7&n=3", nil)
	req, err := DecodeIntegrateRequest(r)
	require.NoError(t, err)
	assert.Equal(t, 7, req.Slices)
}

func TestDecodeIntegrateRequestGETBadParams(t *testing.T) {
	cases := map[string]string{
		"a":        "from=zero&to=1",
		"b":        "from=0&to=one",
		"n_slices": "from=0&to=1&n=1.5",
		"digits":   "from=0&to=1&digits=x",
		"points":   "from=0&to=1&points=maybe",
	}
	for param, query := range cases {
		r := httptest.NewRequest(http.MethodGet, "/v1/integrate?expr=x&"+query, nil)
		_, err := DecodeIntegrateRequest(r)
		e, ok := errs.AsErr(err)
		require.True(t, ok, param)
		assert.Equal(t, param, e.Param)
		assert.True(t, errs.IsInvalidArgument(err))
	}
}

func TestDecodeIntegrateRequestPOST(t *testing.T) {
	body := `{"expr":"sin(x)","from":0,"to":3.141592653589793,"slices":100,"rule":"simpson_1_3","areas":true}`
	r := httptest.NewRequest(http.MethodPost, "/v1/integrate", strings.NewReader(body))
	req, err := DecodeIntegrateRequest(r)
	require.NoError(t, err)
	assert.Equal(t, 100, req.Slices)
	assert.True(t, req.Areas)
	assert.Nil(t, req.Digits)

	ir, err := req.Parse()
	require.NoError(t, err)
	assert.Equal(t, 3.141592653589793, ir.To)
}

func TestDecodeIntegrateRequestRejectsUnknownFields(t *testing.T) {
	data := []byte(`{"expr":"x","from":0,"to":1,"slices":1,"unknown":true}`)
	r := httptest.NewRequest(http.MethodPost, "/v1/integrate", bytes.NewReader(data))
	_, err := DecodeIntegrateRequest(r)
	require.Error(t, err)
	e, ok := errs.AsErr(err)
	require.True(t, ok)
	assert.Equal(t, errs.Warn, e.ErrLv)
}

func TestDecodeIntegrateRequestMethod(t *testing.T) {
	r := httptest.NewRequest(http.MethodPut, "/v1/integrate", nil)
	_, err := DecodeIntegrateRequest(r)
	assert.Error(t, err)
	_, err = DecodeIntegrateRequest(nil)
	assert.Error(t, err)
}

func TestIntegrateRequestParseRequired(t *testing.T) {
	zero := 0.0
	cases := map[string]*IntegrateRequest{
		"expr": {From: &zero, To: &zero},
		"a":    {Expr: "x", To: &zero},
		"b":    {Expr: "x", From: &zero},
	}
	for param, req := range cases {
		_, err := req.Parse()
		e, ok := errs.AsErr(err)
		require.True(t, ok, param)
		assert.Equal(t, param, e.Param)
	}
}

func TestDecodeBatchRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/batch?name=cubic,sine&name=square&workers=3", nil)
	req, err := DecodeBatchRequest(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"cubic", "sine", "square"}, req.Names)
	assert.Equal(t, 3, req.Workers)

	r = httptest.NewRequest(http.MethodPost, "/v1/batch", strings.NewReader(`{"names":["runge"]}`))
	req, err = DecodeBatchRequest(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"runge"}, req.Names)
	assert.Equal(t, 0, req.Workers)

	r = httptest.NewRequest(http.MethodGet, "/v1/batch?workers=x", nil)
	_, err = DecodeBatchRequest(r)
	assert.True(t, errs.IsInvalidArgument(err))
}

func TestDecodeConvergeRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/converge?name=square", nil)
	req, err := DecodeConvergeRequest(r)
	require.NoError(t, err)
	assert.Equal(t, &ConvergeRequest{Name: "square", Start: 4, Rounds: 6}, req)

	for _, q := range []string{"", "name=a&start=0", "name=a&rounds=1", "name=a&rounds=x"} {
		r := httptest.NewRequest(http.MethodGet, "/v1/converge?"+q, nil)
		_, err := DecodeConvergeRequest(r)
		assert.True(t, errs.IsInvalidArgument(err), q)
	}
}

func TestResponses(t *testing.T) {
	rr := NewRulesResponse([]rule.Key{rule.KeyTrapezoid})
	assert.Equal(t, []string{"trapezoid"}, rr.Rules)
	assert.Contains(t, rr.Named, "cubic")
	assert.Contains(t, rr.Functions, "sin")

	br := NewBatchResponse([]quadlab.BatchResult{{Name: "a"}, {Name: "b", Err: errs.NewWarn("x")}}, 1500*time.Millisecond)
	assert.Equal(t, 1, br.Failed)
	assert.Equal(t, int64(1500), br.UsedTime)
}
