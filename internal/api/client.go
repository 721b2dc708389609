// Package api is the REST client for the driver backend. All authenticated
// requests carry the bearer token set after login/bootstrap; failures map to
// the NetworkError/APIError taxonomy so callers can tell transient transport
// faults from business rejections.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/opencourier/driverd/internal/models"
)

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken sets or clears the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type LoginResult struct {
	Message string        `json:"message"`
	Token   string        `json:"token"`
	Driver  models.Driver `json:"driver"`
}

type RegisterRequest struct {
	Name          string
	Email         string
	Phone         string
	Password      string
	VehicleType   string
	VehicleNumber string
	LicenseNumber string
	LicenseImage  string // local file path, optional
	IDProofImage  string // local file path, optional
}

type RegisterResult struct {
	Message string `json:"message"`
	Phone   string `json:"phone"`
	OTP     string `json:"otp,omitempty"`
}

func (c *Client) Login(ctx context.Context, phone, password string) (LoginResult, error) {
	var out LoginResult
	if phone == "" {
		return out, &ValidationError{Field: "phone", Message: "required"}
	}
	if password == "" {
		return out, &ValidationError{Field: "password", Message: "required"}
	}
	err := c.post(ctx, "/driver/auth/login", map[string]any{
		"phone":    phone,
		"password": password,
	}, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (RegisterResult, error) {
	var out RegisterResult
	if req.Phone == "" {
		return out, &ValidationError{Field: "phone", Message: "required"}
	}

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	fields := map[string]string{
		"name":          req.Name,
		"email":         req.Email,
		"phone":         req.Phone,
		"password":      req.Password,
		"vehicleType":   req.VehicleType,
		"vehicleNumber": req.VehicleNumber,
		"licenseNumber": req.LicenseNumber,
	}
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return out, err
		}
	}
	for field, path := range map[string]string{
		"licenseImage": req.LicenseImage,
		"idProofImage": req.IDProofImage,
	} {
		if path == "" {
			continue
		}
		if err := attachFile(form, field, path); err != nil {
			return out, err
		}
	}
	if err := form.Close(); err != nil {
		return out, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/driver/auth/register", body)
	if err != nil {
		return out, err
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	return out, c.send(httpReq, &out)
}

func attachFile(form *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", field, err)
	}
	defer f.Close()
	part, err := form.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

func (c *Client) VerifyOTP(ctx context.Context, phone, otp string) (LoginResult, error) {
	var out LoginResult
	if otp == "" {
		return out, &ValidationError{Field: "otp", Message: "required"}
	}
	err := c.post(ctx, "/driver/auth/verify-otp", map[string]any{
		"phone": phone,
		"otp":   otp,
	}, &out)
	return out, err
}

type ordersResponse struct {
	Orders []any `json:"orders"`
}

// PendingOrders returns the raw pending order payloads. Normalization happens
// at the lifecycle boundary, not here.
func (c *Client) PendingOrders(ctx context.Context) ([]any, error) {
	var out ordersResponse
	if err := c.get(ctx, "/driver/orders/pending", &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *Client) AcceptedOrders(ctx context.Context) ([]any, error) {
	var out ordersResponse
	if err := c.get(ctx, "/driver/orders/accepted", &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// AcceptOrder claims a pending order and returns the raw order payload from
// the backend's confirmation.
func (c *Client) AcceptOrder(ctx context.Context, orderID string) (map[string]any, error) {
	var out struct {
		Order map[string]any `json:"order"`
	}
	err := c.post(ctx, "/driver/accept-order", map[string]any{
		"orderId": wireOrderID(orderID),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Order, nil
}

func (c *Client) UpdateStatus(ctx context.Context, orderID string, status models.Status) error {
	return c.post(ctx, "/driver/update-status", map[string]any{
		"orderId": wireOrderID(orderID),
		"status":  status,
	}, nil)
}

func (c *Client) SetOnline(ctx context.Context, isOnline bool) (bool, error) {
	var out struct {
		IsOnline bool `json:"isOnline"`
	}
	err := c.post(ctx, "/driver/online", map[string]any{"isOnline": isOnline}, &out)
	if err != nil {
		return false, err
	}
	return out.IsOnline, nil
}

func (c *Client) UpdateLocation(ctx context.Context, lat, lng float64) error {
	return c.post(ctx, "/driver/update-location", map[string]any{
		"lat": lat,
		"lng": lng,
	}, nil)
}

func (c *Client) Dashboard(ctx context.Context, driverID string) (models.Dashboard, error) {
	var out struct {
		Data models.Dashboard `json:"data"`
	}
	err := c.get(ctx, "/driver/dashboard/"+driverID, &out)
	return out.Data, err
}

// wireOrderID sends integer ids as numbers, the way the backend expects, and
// anything else as-is.
func wireOrderID(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.send(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	if tok := c.bearer(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

// errorMessage pulls the backend's message or error field out of a failure
// body, tolerating bodies that are not JSON at all.
func errorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &parsed) == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
