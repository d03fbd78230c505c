package metrics

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics("test").(*metrics)

	m.ObserveTurn(OutcomeOK)
	m.ObserveTurn(OutcomeOK)
	m.ObserveTurn(OutcomeError)
	m.ObserveLLMCall(StageSelect, OutcomeOK)
	m.ObserveToolCall("alpha_echo", OutcomeToolError)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.turnsTotal.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.turnsTotal.WithLabelValues(OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmCallsTotal.WithLabelValues(StageSelect, OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCallsTotal.WithLabelValues("alpha_echo", OutcomeToolError)))
}

func TestMetrics_Gauges(t *testing.T) {
	m := NewMetrics("test").(*metrics)

	m.SetConnectedServers(2)
	m.SetFailedServers(1)
	m.SetRegisteredTools(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.connectedServers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failedServers))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.registeredTools))
}

func TestServer_ServesMetrics(t *testing.T) {
	m := NewMetrics("test")
	m.SetRegisteredTools(3)

	srv := NewServer("127.0.0.1:0", m)
	require.NoError(t, srv.Run())
	t.Cleanup(func() { _ = srv.Shutdown() })

	resp, err := http.Get("http://" + srv.Addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "mcpchat_mcp_registered_tools 3"))
}
