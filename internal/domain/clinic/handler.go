package clinic

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinic/scheduler/internal/platform/auth"
	"github.com/clinic/scheduler/pkg/pagination"
)

type Handler struct {
	svc *Service
	loc *time.Location
}

// NewHandler creates a Handler. Dates given as DD/MM/YYYY + HH:MM are
// interpreted in loc (time.Local when nil).
func NewHandler(svc *Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{svc: svc, loc: loc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePhysician, auth.RoleReceptionist))
	readGroup.GET("/clinic", h.GetClinic)
	readGroup.GET("/patients", h.ListPatients)
	readGroup.GET("/patients/:id", h.GetPatient)
	readGroup.GET("/patients/:id/appointments", h.ListPatientAppointments)
	readGroup.GET("/physicians", h.ListPhysicians)
	readGroup.GET("/physicians/:license", h.GetPhysician)
	readGroup.GET("/physicians/:license/appointments", h.ListPhysicianAppointments)
	readGroup.GET("/physicians/:license/patient-profile", h.GetPatientProfile)
	readGroup.GET("/appointments", h.ListAppointments)
	readGroup.GET("/appointments/:id", h.GetAppointment)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleReceptionist))
	writeGroup.POST("/patients", h.RegisterPatient)
	writeGroup.POST("/physicians", h.RegisterPhysician)
	writeGroup.PUT("/physicians/:license/patient-profile", h.LinkPatientProfile)
	writeGroup.POST("/appointments", h.BookAppointment)
	writeGroup.DELETE("/appointments/:id", h.CancelAppointment)
}

// -- Request / response shapes --

// bookingBody accepts either an RFC 3339 start or the DD/MM/YYYY + HH:MM
// pair used at the front desk.
type bookingBody struct {
	PatientID        string     `json:"patient_id"`
	PhysicianLicense string     `json:"physician_license"`
	Start            *time.Time `json:"start,omitempty"`
	Date             string     `json:"date,omitempty"`
	Time             string     `json:"time,omitempty"`
	DurationMinutes  int        `json:"duration_minutes"`
	Location         string     `json:"location,omitempty"`
	Note             string     `json:"note,omitempty"`
}

type linkBody struct {
	PatientID string `json:"patient_id"`
}

type appointmentResponse struct {
	Appointment
	PatientName   string `json:"patient_name,omitempty"`
	PhysicianName string `json:"physician_name,omitempty"`
	Summary       string `json:"summary"`
}

type clinicResponse struct {
	Name  string `json:"name"`
	Stats Stats  `json:"stats"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Party Party  `json:"party,omitempty"`
}

// -- Clinic --

func (h *Handler) GetClinic(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, clinicResponse{Name: h.svc.Registry().Name(), Stats: h.svc.Stats(ctx)})
}

// -- Patients --

func (h *Handler) RegisterPatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.Name = strings.TrimSpace(p.Name)
	p.NationalID = strings.TrimSpace(p.NationalID)
	p.InsurancePlan = strings.TrimSpace(p.InsurancePlan)
	if err := h.svc.RegisterPatient(c.Request().Context(), p); err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.svc.GetPatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	items := h.svc.ListPatients(c.Request().Context())
	lo, hi := pg.Bounds(len(items))
	page := items[lo:hi]
	return c.JSON(http.StatusOK, pagination.NewResponse(page, len(items), pg.Limit, pg.Offset).WithLinks(c.Request().URL.Path))
}

func (h *Handler) ListPatientAppointments(c echo.Context) error {
	ctx := c.Request().Context()
	appts, err := h.svc.ListAppointmentsByPatient(ctx, c.Param("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, h.describeAll(c, appts))
}

// -- Physicians --

func (h *Handler) RegisterPhysician(c echo.Context) error {
	var ph Physician
	if err := c.Bind(&ph); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ph.Name = strings.TrimSpace(ph.Name)
	ph.NationalID = strings.TrimSpace(ph.NationalID)
	ph.License = strings.TrimSpace(ph.License)
	ph.Specialty = strings.TrimSpace(ph.Specialty)
	ph.PatientProfileID = ""
	if err := h.svc.RegisterPhysician(c.Request().Context(), ph); err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, ph)
}

func (h *Handler) GetPhysician(c echo.Context) error {
	ph, err := h.svc.GetPhysician(c.Request().Context(), c.Param("license"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, ph)
}

func (h *Handler) ListPhysicians(c echo.Context) error {
	pg := pagination.FromContext(c)
	items := h.svc.ListPhysicians(c.Request().Context())
	lo, hi := pg.Bounds(len(items))
	page := items[lo:hi]
	return c.JSON(http.StatusOK, pagination.NewResponse(page, len(items), pg.Limit, pg.Offset).WithLinks(c.Request().URL.Path))
}

func (h *Handler) ListPhysicianAppointments(c echo.Context) error {
	ctx := c.Request().Context()
	appts, err := h.svc.ListAppointmentsByPhysician(ctx, c.Param("license"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, h.describeAll(c, appts))
}

func (h *Handler) LinkPatientProfile(c echo.Context) error {
	var body linkBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	license := c.Param("license")
	if err := h.svc.LinkPhysicianToPatient(ctx, license, strings.TrimSpace(body.PatientID)); err != nil {
		return domainError(c, err)
	}
	ph, err := h.svc.GetPhysician(ctx, license)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, ph)
}

func (h *Handler) GetPatientProfile(c echo.Context) error {
	p, linked, err := h.svc.GetPhysicianPatientProfile(c.Request().Context(), c.Param("license"))
	if err != nil {
		return domainError(c, err)
	}
	if !linked {
		return c.JSON(http.StatusNotFound, errorResponse{
			Error: "physician has no patient profile",
			Kind:  KindNotFound.String(),
		})
	}
	return c.JSON(http.StatusOK, p)
}

// -- Appointments --

func (h *Handler) BookAppointment(c echo.Context) error {
	var body bookingBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	start, err := h.startOf(body)
	if err != nil {
		return domainError(c, err)
	}
	req := BookingRequest{
		PatientID:        strings.TrimSpace(body.PatientID),
		PhysicianLicense: strings.TrimSpace(body.PhysicianLicense),
		Start:            start,
		DurationMinutes:  body.DurationMinutes,
		Location:         strings.TrimSpace(body.Location),
		Note:             body.Note,
	}
	appt, err := h.svc.Book(c.Request().Context(), req)
	if err != nil {
		return domainError(c, err)
	}
	c.Response().Header().Set("Location", fmt.Sprintf("/api/v1/appointments/%d", appt.ID))
	return c.JSON(http.StatusCreated, h.describe(c, appt))
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	appt, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, h.describe(c, appt))
}

func (h *Handler) ListAppointments(c echo.Context) error {
	pg := pagination.FromContext(c)
	items := h.svc.ListAppointments(c.Request().Context())
	lo, hi := pg.Bounds(len(items))
	page := h.describeAll(c, items[lo:hi])
	return c.JSON(http.StatusOK, pagination.NewResponse(page, len(items), pg.Limit, pg.Offset).WithLinks(c.Request().URL.Path))
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Cancel(c.Request().Context(), id); err != nil {
		return domainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- helpers --

func (h *Handler) startOf(body bookingBody) (time.Time, error) {
	if body.Start != nil {
		return *body.Start, nil
	}
	return ParseStart(body.Date, body.Time, h.loc)
}

func (h *Handler) describe(c echo.Context, a Appointment) appointmentResponse {
	ctx := c.Request().Context()
	resp := appointmentResponse{Appointment: a}
	p, perr := h.svc.GetPatient(ctx, a.PatientID)
	if perr == nil {
		resp.PatientName = p.Name
	}
	ph, pherr := h.svc.GetPhysician(ctx, a.PhysicianLicense)
	if pherr == nil {
		resp.PhysicianName = ph.Name
	}
	resp.Summary = Summary(a, p, ph, h.loc)
	return resp
}

func (h *Handler) describeAll(c echo.Context, appts []Appointment) []appointmentResponse {
	out := make([]appointmentResponse, len(appts))
	for i, a := range appts {
		out[i] = h.describe(c, a)
	}
	return out
}

// Summary renders the one-line front-desk view of an appointment, e.g.
// "#1 | 10/01 09:00-09:30 | Dra. Carla(CRM-SP-12345) → Ana Souza(111) @ Sala 1".
func Summary(a Appointment, p Patient, ph Physician, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	start, end := a.Start.In(loc), a.End.In(loc)
	return fmt.Sprintf("#%d | %s-%s | %s(%s) → %s(%s) @ %s",
		a.ID, start.Format("02/01 15:04"), end.Format("15:04"),
		ph.Name, a.PhysicianLicense, p.Name, a.PatientID, a.Location)
}

// domainError maps registry failures onto HTTP responses.
func domainError(c echo.Context, err error) error {
	var status int
	switch KindOf(err) {
	case KindInvalidInput:
		status = http.StatusBadRequest
	case KindNotFound:
		status = http.StatusNotFound
	case KindDuplicateKey, KindScheduleConflict:
		status = http.StatusConflict
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	party, _ := ConflictParty(err)
	return c.JSON(status, errorResponse{Error: err.Error(), Kind: KindOf(err).String(), Party: party})
}
