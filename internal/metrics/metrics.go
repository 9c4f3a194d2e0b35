package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/0xsj/overwatch-nickserv/internal/port/outbound/notification"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics provides observability for the bot.
// Each instance owns its registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	CommandsTotal      *prometheus.CounterVec
	CommandDuration    *prometheus.HistogramVec
	NotificationsTotal *prometheus.CounterVec
	IRCConnected       prometheus.Gauge
}

// New creates a new Metrics instance with all bot metrics registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nickserv_commands_total",
			Help: "Total number of handled private-message commands",
		}, []string{"command", "outcome"}),
		CommandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nickserv_command_duration_seconds",
			Help:    "Duration of command handling including storage and mail",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"command"}),
		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nickserv_notifications_total",
			Help: "Total number of confirmation mails attempted",
		}, []string{"outcome"}),
		IRCConnected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "nickserv_irc_connected",
			Help: "1 while the IRC connection is registered, 0 otherwise",
		}),
	}
}

// ObserveCommand records one handled command.
// Call with time.Now() at the start of the command.
func (m *Metrics) ObserveCommand(command, outcome string, start time.Time) {
	m.CommandsTotal.WithLabelValues(command, outcome).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
}

// SetIRCConnected records the IRC connection state.
func (m *Metrics) SetIRCConnected(connected bool) {
	if connected {
		m.IRCConnected.Set(1)
		return
	}
	m.IRCConnected.Set(0)
}

// InstrumentMailer counts delivery outcomes of next.
func (m *Metrics) InstrumentMailer(next notification.Mailer) notification.Mailer {
	return &instrumentedMailer{next: next, metrics: m}
}

type instrumentedMailer struct {
	next    notification.Mailer
	metrics *Metrics
}

func (im *instrumentedMailer) Send(ctx context.Context, mail notification.Mail) error {
	err := im.next.Send(ctx, mail)
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	im.metrics.NotificationsTotal.WithLabelValues(outcome).Inc()
	return err
}
