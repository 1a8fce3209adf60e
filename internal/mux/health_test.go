package mux

import (
	"net/http/httptest"
	"testing"

	"gamingterminal-server/pkg/floor"
	"gamingterminal-server/pkg/ledger"

	"github.com/bmizerany/assert"
)

func TestHealthHandler(t *testing.T) {
	ts := httptest.NewServer(NewMux("v1.2.3", floor.NewFloor(ledger.NewMemory(), floor.Options{})))
	defer ts.Close()

	var expects healthResponse
	assertGet(t, ts, "/health", &expects, 200)
	assert.Equal(t, "OK", expects.Status)
	assert.Equal(t, "v1.2.3", expects.Version)
}
