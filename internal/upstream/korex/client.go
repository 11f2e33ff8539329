// Package korex implements the outbound ports against the Korex cloud API.
//
// The API has some quirks that are preserved here: the log and summary
// endpoints are GET requests that carry a form-urlencoded body, the
// validator takes multipart form data, and the payment endpoint is a POST
// with the user passed in the query string. Dates go over the wire as
// "YYYY-MM-DD 00:00:00".
package korex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"korexdash/internal/core"
	"korexdash/internal/log"
	"korexdash/internal/upstream"
)

// DefaultBaseURL is the production cloud endpoint.
const DefaultBaseURL = "https://cloud.korex.cl"

// maxResponseBytes caps how much of an upstream response is read.
const maxResponseBytes = 8 << 20

// Client talks to the Korex cloud API. It implements upstream.Gateway.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// New returns a Client for baseURL. An empty baseURL selects production.
func New(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.WithComponent(log.ComponentGateway),
	}
}

// WireDate formats a day the way the cloud API expects it.
func WireDate(day time.Time) string {
	return day.Format("2006-01-02") + " 00:00:00"
}

// ValidateUser proxies a credential check to the cloud validator. Rejected
// credentials surface as core.ErrAuthRequired carrying the upstream message.
func (c *Client) ValidateUser(ctx context.Context, creds upstream.Credentials) (*core.UserProfile, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: usuario and clave are required", core.ErrValidation)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	form.WriteField("usuario", creds.Username)
	form.WriteField("clave", creds.Password)
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("build login form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/Public/ValidarUsuario", &body)
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	data, err := c.call(ctx, "validate_user", req)
	if err != nil {
		var ue *core.UpstreamError
		// Envelope rejections become auth failures; transport and 5xx
		// errors stay upstream errors.
		if errors.As(err, &ue) && ue.Err == nil && ue.StatusCode < http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: %s", core.ErrAuthRequired, ue.Message)
		}
		return nil, err
	}

	m, _ := data.(map[string]any)
	profile := core.DecodeUserProfile(m)
	if profile.Email == "" {
		profile.Email = creds.Username
	}
	return &profile, nil
}

// FetchLogs retrieves the transaction log list for one user and day.
func (c *Client) FetchLogs(ctx context.Context, q upstream.LogQuery) ([]core.TransactionRecord, error) {
	data, err := c.formGet(ctx, "fetch_logs", "/api/camera/getLog", q)
	if err != nil {
		return nil, err
	}
	raw, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: log payload is not a list", core.ErrMalformedResponse)
	}
	records := core.DecodeRecords(raw)
	c.logger.InfoContext(ctx, "fetched transaction logs",
		log.FieldUser, q.User,
		log.FieldDate, WireDate(q.Date),
		log.FieldRecords, len(records))
	return records, nil
}

// FetchSummary retrieves the precomputed KPI summary for one user and day.
func (c *Client) FetchSummary(ctx context.Context, q upstream.LogQuery) (*core.UpstreamSummary, error) {
	data, err := c.formGet(ctx, "fetch_summary", "/api/camera/summary/", q)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedResponse, err)
	}
	var summary core.UpstreamSummary
	if err := json.Unmarshal(encoded, &summary); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedResponse, err)
	}
	return &summary, nil
}

// FetchDevicePayments retrieves the DVR billing list for a user.
func (c *Client) FetchDevicePayments(ctx context.Context, user string) ([]core.DeviceAccount, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: user is required", core.ErrValidation)
	}

	endpoint := c.baseURL + "/Api/Job/SolicitarDvrListaPago?CorreoUsuaWeb=" + url.QueryEscape(user)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := c.call(ctx, "fetch_device_payments", req)
	if err != nil {
		return nil, err
	}
	raw, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: payment payload is not a list", core.ErrMalformedResponse)
	}
	return core.DecodeDeviceAccounts(raw), nil
}

// formGet issues one of the GET-with-body calls shared by logs and summary.
func (c *Client) formGet(ctx context.Context, operation, path string, q upstream.LogQuery) (any, error) {
	if q.User == "" {
		return nil, fmt.Errorf("%w: user is required", core.ErrValidation)
	}
	if q.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", core.ErrValidation)
	}

	form := url.Values{}
	form.Set("Fecha", WireDate(q.Date))
	form.Set("UsuarioWeb", q.User)
	if q.DeviceID != "" {
		form.Set("IdDispositivo", q.DeviceID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.call(ctx, operation, req)
}

// call performs the request and unwraps the Success/Data response envelope.
func (c *Client) call(ctx context.Context, operation string, req *http.Request) (any, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Korex-Dashboard/1.0")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &core.UpstreamError{Operation: operation, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &core.UpstreamError{Operation: operation, StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}

	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.logger.ErrorContext(ctx, "unparseable upstream response",
			log.FieldOperation, operation,
			log.FieldUpstream, resp.StatusCode)
		return nil, fmt.Errorf("%s: %w: %v", operation, core.ErrMalformedResponse, err)
	}

	success, data, message := unwrapEnvelope(envelope)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices || !success {
		if message == "" {
			message = resp.Status
		}
		c.logger.WarnContext(ctx, "upstream reported failure",
			log.FieldOperation, operation,
			log.FieldUpstream, resp.StatusCode,
			log.FieldError, message)
		return nil, &core.UpstreamError{Operation: operation, StatusCode: resp.StatusCode, Message: message}
	}
	return data, nil
}

// unwrapEnvelope tolerates both casings the API is known to emit.
func unwrapEnvelope(m map[string]any) (success bool, data any, message string) {
	for _, key := range []string{"Success", "success"} {
		if v, ok := m[key].(bool); ok {
			success = v
			break
		}
	}
	for _, key := range []string{"Data", "data"} {
		if v, ok := m[key]; ok && v != nil {
			data = v
			break
		}
	}
	for _, key := range []string{"Message", "message", "Mensaje"} {
		if v, ok := m[key].(string); ok && v != "" {
			message = v
			break
		}
	}
	return success, data, message
}
