package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitehrm/internal/app/server"
	"sitehrm/internal/domain/apperr"
	"sitehrm/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type journey struct {
	t      *testing.T
	client *http.Client
	base   string
	token  string
}

func newJourney(t *testing.T) *journey {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Config{
		DatabaseURL:           dbURL,
		JWTSecret:             "test-secret",
		Environment:           "test",
		MigrationsDir:         filepath.Join("..", "..", "..", "..", "migrations"),
		SeedTenantName:        "Test Tenant",
		SeedAdminEmail:        "admin@test.local",
		SeedAdminPassword:     "ChangeMe123!",
		RunMigrations:         true,
		RunSeed:               true,
		MaxBodyBytes:          1048576,
		RateLimitPerMinute:    1000,
		PayslipLockPaid:       true,
		BulkConcurrency:       2,
		ExportDir:             t.TempDir(),
		DefaultPTJurisdiction: "MH",
	}

	app, err := server.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)

	j := &journey{t: t, client: ts.Client(), base: ts.URL}
	var login struct {
		Token string `json:"token"`
	}
	j.call(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": cfg.SeedAdminEmail, "password": cfg.SeedAdminPassword}, http.StatusOK, &login)
	require.NotEmpty(t, login.Token)
	j.token = login.Token
	return j
}

func (j *journey) send(method, path string, payload any) (*http.Response, []byte) {
	j.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(j.t, err)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, j.base+path, body)
	require.NoError(j.t, err)
	req.Header.Set("Content-Type", "application/json")
	if j.token != "" {
		req.Header.Set("Authorization", "Bearer "+j.token)
	}
	resp, err := j.client.Do(req)
	require.NoError(j.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(j.t, err)
	return resp, raw
}

func (j *journey) call(method, path string, payload any, wantStatus int, out any) envelope {
	j.t.Helper()
	resp, raw := j.send(method, path, payload)
	require.Equal(j.t, wantStatus, resp.StatusCode, "%s %s: %s", method, path, raw)
	var env envelope
	require.NoError(j.t, json.Unmarshal(raw, &env))
	if out != nil && len(env.Data) > 0 {
		require.NoError(j.t, json.Unmarshal(env.Data, out))
	}
	return env
}

type idOnly struct {
	ID string `json:"id"`
}

func (j *journey) createEmployee(code, siteID string) string {
	j.t.Helper()
	var emp idOnly
	j.call(http.MethodPost, "/api/v1/employees", map[string]string{
		"employeeCode": code,
		"firstName":    "Worker",
		"lastName":     code,
		"designation":  "Mason",
		"siteId":       siteID,
		"status":       "ACTIVE",
		"bankAccount":  "000111222333",
		"bankIfsc":     "SBIN0000001",
	}, http.StatusCreated, &emp)
	return emp.ID
}

func (j *journey) createStructure(employeeID string) {
	j.t.Helper()
	j.call(http.MethodPost, "/api/v1/salaries/", map[string]any{
		"employeeId":         employeeID,
		"basicSalary":        "20000",
		"hra":                "6000",
		"incentiveAllowance": "2800",
		"pfDeduction":        "2400",
		"professionalTax":    "200",
		"mediclaimDeduction": "303",
		"advanceDeduction":   "500",
		"effectiveFrom":      "2024-01-01",
	}, http.StatusCreated, nil)
}

func TestSitePayrollJourney(t *testing.T) {
	j := newJourney(t)
	suffix := time.Now().UnixNano() % 1_000_000_000

	var site idOnly
	j.call(http.MethodPost, "/api/v1/sites", map[string]string{
		"code":       fmt.Sprintf("S%d", suffix),
		"name":       "Tower B",
		"clientName": "Acme Infra",
	}, http.StatusCreated, &site)

	first := j.createEmployee(fmt.Sprintf("A%d", suffix), site.ID)
	second := j.createEmployee(fmt.Sprintf("B%d", suffix), site.ID)
	noStructure := j.createEmployee(fmt.Sprintf("C%d", suffix), site.ID)
	j.createStructure(first)
	j.createStructure(second)
	j.createStructure(first)

	var history []struct {
		ID     string `json:"salaryId"`
		Status string `json:"status"`
	}
	j.call(http.MethodGet, "/api/v1/salaries/employee/"+first+"?history=true", nil, http.StatusOK, &history)
	require.Len(t, history, 2)
	active := 0
	for _, row := range history {
		if row.Status == "ACTIVE" {
			active++
		}
	}
	assert.Equal(t, 1, active)

	var saved struct {
		Saved    []json.RawMessage `json:"saved"`
		Rejected []json.RawMessage `json:"rejected"`
	}
	j.call(http.MethodPost, "/api/v1/attendance/save", map[string]any{
		"month": "2024-06",
		"records": []map[string]any{
			{"employeeId": first, "daysPresent": 13},
			{"employeeId": second, "daysPresent": 30},
			{"employeeId": noStructure, "daysPresent": 20},
			{"employeeId": first, "daysPresent": 31},
		},
	}, http.StatusOK, &saved)
	assert.Len(t, saved.Saved, 3)
	assert.Len(t, saved.Rejected, 1)

	var payslip struct {
		ID              string          `json:"payslipId"`
		GrossSalary     decimal.Decimal `json:"grossSalary"`
		TotalDeductions decimal.Decimal `json:"totalDeductions"`
		NetSalary       decimal.Decimal `json:"netSalary"`
	}
	j.call(http.MethodPost, "/api/v1/payslips/generate", map[string]any{
		"employeeId": first,
		"month":      6,
		"year":       2024,
	}, http.StatusOK, &payslip)
	assert.Equal(t, "12480", payslip.GrossSalary.String())
	assert.Equal(t, "1475", payslip.TotalDeductions.String())
	assert.Equal(t, "11005", payslip.NetSalary.String())

	var preflight struct {
		Count int `json:"count"`
	}
	j.call(http.MethodGet, "/api/v1/payslips/preflight?siteId="+site.ID, nil, http.StatusOK, &preflight)
	assert.Equal(t, 1, preflight.Count)

	var finalized struct {
		Finalized int `json:"finalized"`
	}
	j.call(http.MethodPost, "/api/v1/attendance/finalize", map[string]string{"month": "2024-06"}, http.StatusOK, &finalized)
	assert.GreaterOrEqual(t, finalized.Finalized, 3)

	var resaved struct {
		Saved    []json.RawMessage `json:"saved"`
		Rejected []struct {
			EmployeeID string `json:"employeeId"`
			Code       string `json:"code"`
		} `json:"rejected"`
	}
	j.call(http.MethodPost, "/api/v1/attendance/save", map[string]any{
		"month":   "2024-06",
		"records": []map[string]any{{"employeeId": second, "daysPresent": 1}},
	}, http.StatusOK, &resaved)
	assert.Empty(t, resaved.Saved)
	require.Len(t, resaved.Rejected, 1)
	assert.Equal(t, second, resaved.Rejected[0].EmployeeID)
	assert.Equal(t, apperr.CodeAlreadyFinalized, resaved.Rejected[0].Code)

	env := j.call(http.MethodPost, "/api/v1/attendance/finalize", map[string]string{"month": "2024-06"}, http.StatusConflict, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperr.CodeAlreadyFinalized, env.Error.Code)

	env = j.call(http.MethodGet, "/api/v1/attendance/employee/"+second+"?from=2023-01&to=2023-02", nil, http.StatusOK, nil)
	assert.JSONEq(t, "[]", string(env.Data))

	env = j.call(http.MethodGet, "/api/v1/attendance/employee/not-a-uuid?from=2024-01&to=2024-12", nil, http.StatusNotFound, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperr.CodeNotFound, env.Error.Code)

	j.call(http.MethodPut, "/api/v1/payslips/"+payslip.ID+"/payment-status", map[string]string{"status": "PAID", "method": "NEFT"}, http.StatusOK, nil)

	var batch struct {
		Total     int `json:"total"`
		Successes []struct {
			EmployeeID string `json:"employeeId"`
		} `json:"successes"`
		Failures []struct {
			EmployeeID string `json:"employeeId"`
			Code       string `json:"code"`
		} `json:"failures"`
		Aborted bool     `json:"aborted"`
		Exports []string `json:"exports"`
	}
	j.call(http.MethodPost, "/api/v1/payslips/generate/bulk", map[string]any{
		"month":      "2024-06",
		"siteId":     site.ID,
		"regenerate": true,
	}, http.StatusOK, &batch)
	assert.False(t, batch.Aborted)
	assert.Equal(t, 3, batch.Total)
	require.Len(t, batch.Successes, 1)
	assert.Equal(t, second, batch.Successes[0].EmployeeID)

	codes := map[string]string{}
	for _, f := range batch.Failures {
		codes[f.EmployeeID] = f.Code
	}
	assert.Equal(t, apperr.CodePayslipLocked, codes[first])
	assert.Equal(t, apperr.CodeNoSalaryStructure, codes[noStructure])
	assert.NotEmpty(t, batch.Exports)

	var totals struct {
		Count     int             `json:"count"`
		Paid      int             `json:"paid"`
		NetSalary decimal.Decimal `json:"netSalary"`
	}
	j.call(http.MethodGet, "/api/v1/payslips/month/2024-06/totals?siteId="+site.ID, nil, http.StatusOK, &totals)
	assert.Equal(t, 2, totals.Count)
	assert.Equal(t, 1, totals.Paid)
	assert.Equal(t, "36402", totals.NetSalary.String())

	resp, raw := j.send(http.MethodGet, "/api/v1/payslips/month/2024-06/export.xlsx?siteId="+site.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, bytes.HasPrefix(raw, []byte("PK")))

	resp, raw = j.send(http.MethodGet, "/api/v1/payslips/"+payslip.ID+"/pdf", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
}

func TestUnauthenticatedPayrollAccess(t *testing.T) {
	j := newJourney(t)
	j.token = ""
	env := j.call(http.MethodPost, "/api/v1/payslips/generate", map[string]any{"employeeId": "x", "month": 6, "year": 2024}, http.StatusUnauthorized, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, "unauthorized", env.Error.Code)
}
