package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"demand-studio/internal/models"
	"demand-studio/internal/observability"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(srv.URL+"/", WithHTTPClient(srv.Client()), WithLogger(logger))
}

func TestNew_TrimsBaseURL(t *testing.T) {
	c := New("http://127.0.0.1:8000///")
	if c.BaseURL() != "http://127.0.0.1:8000" {
		t.Errorf("BaseURL() = %q", c.BaseURL())
	}
}

func TestClient_Upload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != uploadPath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		if header.Filename != "demand.csv" {
			t.Errorf("filename = %q", header.Filename)
		}
		if !strings.HasPrefix(string(body), "date,product_name,demand") {
			t.Errorf("file content = %q", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"dataset_id":"ds-1","rows":50}`))
	})

	ds, err := c.Upload(context.Background(), "demand.csv", strings.NewReader("date,product_name,demand\n2024-01-01,widget,4\n"))
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}
	if ds.ID != "ds-1" || ds.Rows != 50 {
		t.Errorf("Upload() = %+v", ds)
	}
}

func TestClient_Upload_DefaultFileName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
			return
		}
		if header.Filename != defaultFileName {
			t.Errorf("filename = %q, want %q", header.Filename, defaultFileName)
		}
		w.Write([]byte(`{"dataset_id":"ds-2","rows":0}`))
	})

	if _, err := c.Upload(context.Background(), "", strings.NewReader("x")); err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}
}

func TestClient_StatusErrorDetail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{"string detail", http.StatusBadRequest, `{"detail":"bad columns"}`, "bad columns"},
		{"missing detail", http.StatusInternalServerError, `{}`, ""},
		{"empty detail", http.StatusBadRequest, `{"detail":""}`, ""},
		{"list detail", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body"],"msg":"field required"}]}`, ""},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.Upload(context.Background(), "a.csv", strings.NewReader("x"))
			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected *StatusError, got %v", err)
			}
			if se.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", se.StatusCode, tt.status)
			}
			if se.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", se.Detail, tt.wantDetail)
			}
		})
	}
}

func TestClient_Forecast(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != forecastPath {
			t.Errorf("path = %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["dataset_id"] != "ds-1" || req["model"] != "xgboost" || req["horizon"] != float64(30) {
			t.Errorf("request body = %v", req)
		}
		w.Write([]byte(`{"model":"xgboost","dates":["2024-02-01","2024-02-02"],"forecast":[10,11],"lower":[8,9],"upper":[12,13],"metrics":{"MAE":1.25}}`))
	})

	res, err := c.Forecast(context.Background(), models.ForecastRequest{DatasetID: "ds-1", Model: models.ModelXGBoost, Horizon: 30})
	if err != nil {
		t.Fatalf("Forecast() failed: %v", err)
	}
	if res.Model != models.ModelXGBoost || len(res.Dates) != 2 {
		t.Errorf("Forecast() = %+v", res)
	}
	if res.Metrics == nil || res.Metrics.MAE == nil || *res.Metrics.MAE != 1.25 {
		t.Fatalf("metrics = %+v", res.Metrics)
	}
	if res.Metrics.RMSE != nil {
		t.Error("RMSE should be absent")
	}
}

func TestClient_Forecast_FillsMissingModel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"dates":["2024-02-01"],"forecast":[1],"lower":[0],"upper":[2]}`))
	})

	res, err := c.Forecast(context.Background(), models.ForecastRequest{DatasetID: "ds-1", Model: models.ModelArima, Horizon: 1})
	if err != nil {
		t.Fatalf("Forecast() failed: %v", err)
	}
	if res.Model != models.ModelArima {
		t.Errorf("Model = %q, want arima", res.Model)
	}
}

func TestClient_Forecast_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"length mismatch", `{"model":"arima","dates":["a","b"],"forecast":[1],"lower":[0,0],"upper":[2,2]}`},
		{"not json", `nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			_, err := c.Forecast(context.Background(), models.ForecastRequest{DatasetID: "ds-1", Model: models.ModelArima, Horizon: 2})
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	before := testutil.ToFloat64(observability.BackendRequests.WithLabelValues(forecastPath, "transport"))

	c := New(base, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	_, err := c.Forecast(context.Background(), models.ForecastRequest{DatasetID: "ds-1", Model: models.ModelArima, Horizon: 1})
	if err == nil {
		t.Fatal("expected transport error")
	}
	var se *StatusError
	if errors.As(err, &se) {
		t.Errorf("transport failure should not be a StatusError: %v", err)
	}

	after := testutil.ToFloat64(observability.BackendRequests.WithLabelValues(forecastPath, "transport"))
	if after != before+1 {
		t.Errorf("transport counter = %v, want %v", after, before+1)
	}
}

func TestClient_ReorderAndSimulate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case reorderPath:
			var req models.ReorderRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.LeadTimeDays != 7 || req.ServiceLevel != 0.95 {
				t.Errorf("reorder request = %+v", req)
			}
			w.Write([]byte(`{"reorder_point":120,"safety_stock":20,"recommended_order_qty":70}`))
		case simulatePath:
			w.Write([]byte(`{"stockout_probability":0.25,"expected_stockout_days":12.5,"risk_level":"MEDIUM"}`))
		default:
			http.NotFound(w, r)
		}
	})

	rec, err := c.Reorder(context.Background(), models.ReorderRequest{DatasetID: "ds-1", LeadTimeDays: 7, ServiceLevel: 0.95, CurrentInventory: 50})
	if err != nil {
		t.Fatalf("Reorder() failed: %v", err)
	}
	if rec.RecommendedOrderQty != 70 {
		t.Errorf("Reorder() = %+v", rec)
	}

	out, err := c.Simulate(context.Background(), models.SimulationRequest{DatasetID: "ds-1", CurrentInventory: 50, Simulations: 1000})
	if err != nil {
		t.Fatalf("Simulate() failed: %v", err)
	}
	if out.RiskLevel != "MEDIUM" {
		t.Errorf("Simulate() = %+v", out)
	}
}

func TestClient_Ping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"status":"API is running"}`))
	})
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping() = %v", err)
	}
}
