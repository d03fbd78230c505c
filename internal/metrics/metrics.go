package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	MetricsNamespace       = "mcpchat"
	MetricsSubsystemSystem = "system"
	MetricsSubsystemMCP    = "mcp"
	MetricsSubsystemLLM    = "llm"
	MetricsSubsystemTurn   = "turn"

	MetricsVersionLabel = "version"

	StageSelect = "select"
	StageFormat = "format"

	OutcomeOK           = "ok"
	OutcomeError        = "error"
	OutcomeToolError    = "tool_error"
	OutcomeRoutingError = "routing_error"
	OutcomeNoTool       = "no_tool"
)

// Metrics records what the assistant does. All methods are safe to call
// concurrently.
type Metrics interface {
	GetRegistry() *prometheus.Registry

	ObserveTurn(outcome string)
	ObserveLLMCall(stage, outcome string)
	ObserveToolCall(tool, outcome string)

	SetConnectedServers(n int)
	SetFailedServers(n int)
	SetRegisteredTools(n int)
}

// metrics used to instrumentate metrics in prometheus.
type metrics struct {
	registry *prometheus.Registry

	startTime prometheus.Gauge
	info      prometheus.Gauge

	turnsTotal     *prometheus.CounterVec
	llmCallsTotal  *prometheus.CounterVec
	toolCallsTotal *prometheus.CounterVec

	connectedServers prometheus.Gauge
	failedServers    prometheus.Gauge
	registeredTools  prometheus.Gauge
}

// NewMetrics Factory method to create a new metrics collector.
func NewMetrics(version string) Metrics {
	m := &metrics{}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
		Namespace: MetricsNamespace,
	}))
	m.registry.MustRegister(collectors.NewGoCollector())

	m.startTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemSystem,
		Name:      "start_timestamp_seconds",
		Help:      "The time the assistant started.",
	})
	m.startTime.SetToCurrentTime()
	m.registry.MustRegister(m.startTime)

	m.info = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   MetricsNamespace,
		Subsystem:   MetricsSubsystemSystem,
		Name:        "info",
		Help:        "The assistant version.",
		ConstLabels: map[string]string{MetricsVersionLabel: version},
	})
	m.info.Set(1)
	m.registry.MustRegister(m.info)

	m.turnsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemTurn,
		Name:      "total",
		Help:      "The total number of conversation turns, by outcome.",
	}, []string{"outcome"})
	m.registry.MustRegister(m.turnsTotal)

	m.llmCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemLLM,
		Name:      "calls_total",
		Help:      "The total number of LLM calls, by stage and outcome.",
	}, []string{"stage", "outcome"})
	m.registry.MustRegister(m.llmCallsTotal)

	m.toolCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemMCP,
		Name:      "tool_calls_total",
		Help:      "The total number of MCP tool calls, by tool and outcome.",
	}, []string{"tool", "outcome"})
	m.registry.MustRegister(m.toolCallsTotal)

	m.connectedServers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemMCP,
		Name:      "connected_servers",
		Help:      "The number of MCP servers connected at startup.",
	})
	m.registry.MustRegister(m.connectedServers)

	m.failedServers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemMCP,
		Name:      "failed_servers",
		Help:      "The number of MCP servers that failed to connect.",
	})
	m.registry.MustRegister(m.failedServers)

	m.registeredTools = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemMCP,
		Name:      "registered_tools",
		Help:      "The number of tools offered to the LLM.",
	})
	m.registry.MustRegister(m.registeredTools)

	return m
}

func (m *metrics) GetRegistry() *prometheus.Registry {
	return m.registry
}

func (m *metrics) ObserveTurn(outcome string) {
	m.turnsTotal.With(prometheus.Labels{"outcome": outcome}).Inc()
}

func (m *metrics) ObserveLLMCall(stage, outcome string) {
	m.llmCallsTotal.With(prometheus.Labels{"stage": stage, "outcome": outcome}).Inc()
}

func (m *metrics) ObserveToolCall(tool, outcome string) {
	m.toolCallsTotal.With(prometheus.Labels{"tool": tool, "outcome": outcome}).Inc()
}

func (m *metrics) SetConnectedServers(n int) { m.connectedServers.Set(float64(n)) }
func (m *metrics) SetFailedServers(n int)    { m.failedServers.Set(float64(n)) }
func (m *metrics) SetRegisteredTools(n int)  { m.registeredTools.Set(float64(n)) }
