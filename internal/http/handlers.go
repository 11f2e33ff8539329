package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"korexdash/internal/core"
	"korexdash/internal/log"
	"korexdash/internal/pipeline"
	"korexdash/internal/services"
	"korexdash/internal/session"
	"korexdash/internal/upstream"
)

// queryParam returns the first non-empty value among the given names. The
// frontend and the legacy proxy disagreed on casings, so both are accepted.
func queryParam(r *http.Request, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(r.URL.Query().Get(name)); v != "" {
			return v
		}
	}
	return ""
}

// parseDay reads a YYYY-MM-DD date parameter, defaulting to today.
func parseDay(r *http.Request) (time.Time, error) {
	v := queryParam(r, "date", "Fecha", "fecha")
	if v == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	}
	day, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", core.ErrValidation, v)
	}
	return day, nil
}

// subject resolves the acting user: an explicit query parameter wins,
// otherwise the stored session identity is used.
func (s *Server) subject(r *http.Request, names ...string) (string, error) {
	if user := queryParam(r, names...); user != "" {
		return user, nil
	}
	if user := s.sessions.Identity(); user != "" {
		return user, nil
	}
	return "", fmt.Errorf("%w: no user parameter and no active session", core.ErrAuthRequired)
}

type loginRequest struct {
	Username string `json:"usuario"`
	Password string `json:"clave"`
	Remember bool   `json:"recordar"`
}

func parseLoginRequest(r *http.Request) (loginRequest, error) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("%w: invalid JSON body", core.ErrValidation)
		}
		return req, nil
	}
	if err := r.ParseForm(); err != nil {
		return req, fmt.Errorf("%w: invalid form body", core.ErrValidation)
	}
	req.Username = strings.TrimSpace(r.Form.Get("usuario"))
	req.Password = r.Form.Get("clave")
	req.Remember = r.Form.Get("recordar") == "true" || r.Form.Get("recordar") == "1"
	return req, nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := parseLoginRequest(r)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Usuario y clave son obligatorios")
		return
	}

	profile, err := s.dashboard.Login(ctx, upstream.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "login rejected",
			log.FieldUser, req.Username, log.FieldError, err)
		respondMappedError(w, err)
		return
	}

	rec := session.Record{
		Email:      profile.Email,
		Username:   req.Username,
		FullName:   profile.FullName,
		Status:     profile.Status,
		LastAccess: profile.LastAccess,
	}
	if err := s.sessions.Save(rec, req.Remember); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "session not persisted",
			log.FieldUser, profile.Email, log.FieldError, err)
		respondError(w, http.StatusInternalServerError, "No se pudo guardar la sesión")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login exitoso",
		"data": map[string]any{
			"correoUsuaWeb":       profile.Email,
			"nombreUsuaWeb":       profile.FullName,
			"estadoUsuaWeb":       profile.Status,
			"ultimoAccesoUsuaWeb": profile.LastAccess,
		},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear()
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Sesión cerrada",
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	rec := s.sessions.Load()
	if rec == nil || !rec.IsLoggedIn {
		respondJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          rec,
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	user, err := s.subject(r, "usuarioWeb", "UsuarioWeb")
	if err != nil {
		respondMappedError(w, err)
		return
	}

	records, err := s.dashboard.Logs(r.Context(), upstream.LogQuery{
		Date:     day,
		User:     user,
		DeviceID: queryParam(r, "idDispositivo", "IdDispositivo"),
	})
	if err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    records,
		"count":   len(records),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	user, err := s.subject(r, "usuarioWeb", "UsuarioWeb")
	if err != nil {
		respondMappedError(w, err)
		return
	}

	summary, err := s.dashboard.Summary(r.Context(), upstream.LogQuery{
		Date:     day,
		User:     user,
		DeviceID: queryParam(r, "idDispositivo", "IdDispositivo"),
	})
	if err != nil {
		respondMappedError(w, err)
		return
	}
	respondData(w, http.StatusOK, summary)
}

func (s *Server) handleDevicePayments(w http.ResponseWriter, r *http.Request) {
	user, err := s.subject(r, "usuarioWeb", "CorreoUsuaWeb")
	if err != nil {
		respondMappedError(w, err)
		return
	}

	accounts, err := s.dashboard.DevicePayments(r.Context(), user)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	respondData(w, http.StatusOK, accounts)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	page, _ := strconv.Atoi(queryParam(r, "page"))
	limit, _ := strconv.Atoi(queryParam(r, "limit"))

	result, err := s.dashboard.Transactions(r.Context(), services.TransactionQuery{
		Day: day,
		Criteria: pipeline.Criteria{
			Type:          queryParam(r, "type"),
			PaymentMethod: queryParam(r, "paymentMethod"),
			SearchTerm:    queryParam(r, "search"),
		},
		Page:     page,
		PageSize: limit,
	})
	if err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleOverview runs the three dashboard fetches in one round trip. The
// response is 200 as long as the fan-out itself ran; each slot carries its
// own data or error so one degraded upstream call never blanks the page.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	user, err := s.subject(r, "usuarioWeb", "UsuarioWeb")
	if err != nil {
		respondMappedError(w, err)
		return
	}

	ov, err := s.dashboard.Overview(r.Context(), upstream.LogQuery{
		Date:     day,
		User:     user,
		DeviceID: queryParam(r, "idDispositivo", "IdDispositivo"),
	})
	if err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"logs":     overviewSlot(ov.Logs, ov.LogsErr),
		"summary":  overviewSlot(ov.Summary, ov.SummaryErr),
		"payments": overviewSlot(ov.Payments, ov.PaymentsErr),
	})
}

func overviewSlot(data any, err error) map[string]any {
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return map[string]any{"data": data}
}

func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("id")

	rec, err := s.dashboard.Transaction(r.Context(), key)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	if rec == nil {
		respondJSON(w, http.StatusNotFound, map[string]any{"error": "Transaction not found"})
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// kpiResponse mirrors the KPI shape the dashboard charts consume: absolute
// counts plus per-type percentages over the full (unfiltered) day.
type kpiResponse struct {
	TotalTransactions int                 `json:"totalTransactions"`
	TransactionTypes  map[string]kpiSlice `json:"transactionTypes"`
	PaymentMethods    map[string]int      `json:"paymentMethods"`
	AvgDuration       float64             `json:"avgDurationSeconds"`
}

type kpiSlice struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	kpi, err := s.dashboard.KPIs(r.Context(), day)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	resp := kpiResponse{
		TotalTransactions: kpi.Total,
		TransactionTypes: map[string]kpiSlice{
			"normal":              {kpi.Normal, core.Percentage(kpi.Normal, kpi.Total)},
			"anomalous":           {kpi.Anomalies, core.Percentage(kpi.Anomalies, kpi.Total)},
			"unrecognizedPattern": {kpi.UnrecognizedPattern, core.Percentage(kpi.UnrecognizedPattern, kpi.Total)},
			"noPaymentMethod":     {kpi.NoPaymentMethod, core.Percentage(kpi.NoPaymentMethod, kpi.Total)},
			"openTillNoPayment":   {kpi.OpenTillNoPayment, core.Percentage(kpi.OpenTillNoPayment, kpi.Total)},
		},
		PaymentMethods: map[string]int{
			"pago_tarjeta":  kpi.CardPayments,
			"pago_efectivo": kpi.CashPayments,
			"otros_metodos": kpi.OtherPayments,
		},
		AvgDuration: kpi.AvgDurationSeconds,
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.dashboard.Health(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "health check failed", log.FieldError, err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"status": "ERROR"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}
