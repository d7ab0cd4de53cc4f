package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"weather_relay/internal/models"
	"weather_relay/internal/service"
)

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSensorData_IngestThenLatest(t *testing.T) {
	s := &service.Service{Readings: service.NewReadingService(nil, nil)}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/latest", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("latest before ingest: status=%d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, postJSON("/sensor-data", `{"light":1200,"temp":28.5,"humidity":55}`))
	if w.Code != http.StatusOK {
		t.Fatalf("ingest status=%d, body=%s", w.Code, w.Body.String())
	}
	var ack map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &ack)
	if ack["message"] == "" {
		t.Fatalf("expected message in ack, got %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/latest", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("latest status=%d, body=%s", w.Code, w.Body.String())
	}
	var got models.Reading
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := models.Reading{Light: 1200, Temp: 28.5, Humidity: 55}
	if got != want {
		t.Fatalf("latest = %+v, want %+v", got, want)
	}
}

func TestSensorData_RejectsInvalidAndKeepsStore(t *testing.T) {
	s := &service.Service{Readings: service.NewReadingService(nil, nil)}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postJSON("/sensor-data", `{"light":10,"temp":20,"humidity":40}`))
	if w.Code != http.StatusOK {
		t.Fatalf("seed ingest status=%d", w.Code)
	}

	bodies := map[string]string{
		"missing humidity": `{"light":1,"temp":2}`,
		"non numeric":      `{"light":"bright","temp":2,"humidity":3}`,
		"not json":         `light=1`,
		"empty object":     `{}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, postJSON("/sensor-data", body))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d, want 400, body=%s", w.Code, w.Body.String())
			}
			var out map[string]string
			_ = json.Unmarshal(w.Body.Bytes(), &out)
			if out["message"] == "" {
				t.Fatalf("expected message field, got %s", w.Body.String())
			}
		})
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/latest", nil))
	var got models.Reading
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got != (models.Reading{Light: 10, Temp: 20, Humidity: 40}) {
		t.Fatalf("store changed after rejected ingest: %+v", got)
	}
}

func TestSensorData_StoreFailure(t *testing.T) {
	s := &service.Service{Readings: &mockReadings{ingestErr: errors.New("boom")}}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postJSON("/sensor-data", `{"light":1,"temp":2,"humidity":3}`))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}
}

func TestStatusPage(t *testing.T) {
	t.Run("placeholder before first reading", func(t *testing.T) {
		r := newTestRouter(&service.Service{Readings: &mockReadings{err: service.ErrNoReading}})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "No sensor data yet") {
			t.Fatalf("expected placeholder, got %s", w.Body.String())
		}
	})

	t.Run("reading with labels", func(t *testing.T) {
		snap := models.Snapshot{
			Reading:    models.Reading{Light: 1200, Temp: 28, Humidity: 55},
			ReceivedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		}
		readings := &mockReadings{snap: snap}
		r := newTestRouter(&service.Service{Readings: readings})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		body := w.Body.String()
		labels := readings.Labels(snap.Reading)
		for _, want := range []string{"1200", "2025-03-01 09:00:00 UTC", labels.Temperature.Label} {
			if !strings.Contains(body, want) {
				t.Fatalf("status page missing %q:\n%s", want, body)
			}
		}
	})
}
