package mux

import (
	"net/http"
	"net/url"
	"testing"

	"gamingterminal-server/internal/jwt"

	"github.com/stretchr/testify/assert"
)

func Test_authRouter(t *testing.T) {
	ts, _ := newTestServer(floorOptions)
	defer ts.Close()

	var errObj errorResponse
	assertGet(t, ts, "/machine", &errObj, 401)
	assert.Equal(t, "Unauthorized", errObj.Message)

	assertGet(t, ts, "/machine", &errObj, 401, "garbage")

	token, _ := jwt.Sign("pitboss@casino.example")

	// test using auth header
	resp := assertGetWithResp(t, ts, "/machine", nil, 200, token)
	assert.Equal(t, "pitboss@casino.example", resp.Header.Get("GamingTerminal-Operator"))

	// test using query parameter
	resp = assertGetWithResp(t, ts, "/machine?access_token="+url.QueryEscape(token), nil, 200)
	assert.Equal(t, "pitboss@casino.example", resp.Header.Get("GamingTerminal-Operator"))
}

func Test_terminalMiddleware(t *testing.T) {
	ts, f := newTestServer(floorOptions)
	defer ts.Close()

	j := operator()
	term := f.AddTerminal("Lucky Sevens")

	var errObj errorResponse
	assertGet(t, ts, "/machine/00000000-0000-0000-0000-000000000000", &errObj, 404, j)
	assert.Equal(t, "Not Found", errObj.Message)

	// only UUIDs are routed
	assertGet(t, ts, "/machine/lucky-sevens", nil, http.StatusNotFound, j)

	var respObj struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	assertGet(t, ts, "/machine/"+term.ID(), &respObj, 200, j)
	assert.Equal(t, term.ID(), respObj.ID)
	assert.Equal(t, "Lucky Sevens", respObj.Name)
}
