package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the clinic scheduler.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	AppointmentsBooked    prometheus.Counter
	AppointmentsCancelled prometheus.Counter
	BookingConflicts      *prometheus.CounterVec
	BookingFailures       *prometheus.CounterVec
	Registrations         *prometheus.CounterVec
	AppointmentsActive    prometheus.Gauge
}

// New creates the collectors on a dedicated registry so tests can build
// as many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		AppointmentsBooked: f.NewCounter(prometheus.CounterOpts{
			Name: "clinic_appointments_booked_total",
			Help: "Total number of appointments booked",
		}),
		AppointmentsCancelled: f.NewCounter(prometheus.CounterOpts{
			Name: "clinic_appointments_cancelled_total",
			Help: "Total number of appointments cancelled",
		}),
		BookingConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_booking_conflicts_total",
			Help: "Bookings rejected because the interval overlapped an existing appointment",
		}, []string{"party"}),
		BookingFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_booking_failures_total",
			Help: "Bookings rejected for any reason, by error kind",
		}, []string{"kind"}),
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_registrations_total",
			Help: "Successful registrations by entity type",
		}, []string{"entity"}),
		AppointmentsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "clinic_appointments_active",
			Help: "Appointments currently booked",
		}),
	}
}

// Registry exposes the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the collected metrics in the Prometheus text format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) ObserveBooked(active int) {
	if m == nil {
		return
	}
	m.AppointmentsBooked.Inc()
	m.AppointmentsActive.Set(float64(active))
}

func (m *Metrics) ObserveCancelled(active int) {
	if m == nil {
		return
	}
	m.AppointmentsCancelled.Inc()
	m.AppointmentsActive.Set(float64(active))
}

// ObserveBookingFailure counts a rejected booking; party is empty unless
// the failure was a schedule conflict.
func (m *Metrics) ObserveBookingFailure(kind, party string) {
	if m == nil {
		return
	}
	m.BookingFailures.WithLabelValues(kind).Inc()
	if party != "" {
		m.BookingConflicts.WithLabelValues(party).Inc()
	}
}

func (m *Metrics) ObserveRegistration(entity string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(entity).Inc()
}

// SetActive sets the active appointments gauge, e.g. after a restore.
func (m *Metrics) SetActive(active int) {
	if m == nil {
		return
	}
	m.AppointmentsActive.Set(float64(active))
}
