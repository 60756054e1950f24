package handler

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrolbot/hub/internal/domain"
	"github.com/patrolbot/hub/internal/events"
	"github.com/patrolbot/hub/internal/store"
)

func newAlertApp(t *testing.T) (*AlertHandler, *events.Bus, string) {
	t.Helper()

	bus := events.NewBus()
	storagePath := t.TempDir()
	h := NewAlertHandler(newTestStore(t), bus, storagePath, testLogger())
	return h, bus, storagePath
}

func TestAlertHandler_Create(t *testing.T) {
	h, bus, storagePath := newAlertApp(t)
	app := testApp(t)
	app.Post("/alert", h.Create)

	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	body, contentType := multipartBody(t,
		map[string]string{
			"payload": `{"status":"suspicious","identity":"unknown_person","confidence":0.87}`,
		},
		map[string][]byte{"snapshot": []byte("jpegbytes")},
	)

	req := httptest.NewRequest("POST", "/alert", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var created struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &created)
	require.NotEmpty(t, created.ID)

	// Stored with the snapshot ref and defaults filled in.
	stored, err := h.store.GetAlertByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "suspicious", stored.Status)
	require.NotNil(t, stored.SnapshotPath)
	assert.Equal(t, "static/snapshots/"+created.ID+".jpg", *stored.SnapshotPath)
	assert.False(t, stored.Acknowledged)
	assert.Greater(t, stored.Timestamp, 0.0)

	// Snapshot bytes landed on disk.
	data, err := os.ReadFile(filepath.Join(storagePath, "snapshots", created.ID+".jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpegbytes"), data)

	// Subscribers got the alert event.
	event, ok := sub.Receive(time.Second)
	require.True(t, ok)
	alertEvent, ok := event.(domain.AlertEvent)
	require.True(t, ok)
	assert.Equal(t, created.ID, alertEvent.Alert.ID)
}

func TestAlertHandler_Create_InvalidPayload(t *testing.T) {
	h, _, _ := newAlertApp(t)
	app := testApp(t)
	app.Post("/alert", h.Create)

	tests := []struct {
		name    string
		payload string
	}{
		{name: "missing payload", payload: ""},
		{name: "malformed json", payload: "{not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := map[string]string{}
			if tt.payload != "" {
				fields["payload"] = tt.payload
			}
			body, contentType := multipartBody(t, fields, nil)

			req := httptest.NewRequest("POST", "/alert", body)
			req.Header.Set("Content-Type", contentType)

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, 400, resp.StatusCode)

			// Nothing persisted.
			alerts, err := h.store.QueryAlerts(context.Background(), queryAll())
			require.NoError(t, err)
			assert.Empty(t, alerts)
		})
	}
}

func TestAlertHandler_List_Filters(t *testing.T) {
	h, _, _ := newAlertApp(t)
	app := testApp(t)
	app.Get("/alerts", h.List)

	ctx := context.Background()
	for _, status := range []string{"friendly", "suspicious", "suspicious", "unknown"} {
		_, err := h.store.InsertAlert(ctx, &domain.Alert{Status: status})
		require.NoError(t, err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/alerts?status=suspicious", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var page struct {
		Alerts []domain.Alert `json:"alerts"`
		Count  int            `json:"count"`
	}
	decodeJSON(t, resp, &page)
	assert.Equal(t, 2, page.Count)
	for _, alert := range page.Alerts {
		assert.Equal(t, "suspicious", alert.Status)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/alerts?acknowledged=maybe", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestAlertHandler_Get_NotFound(t *testing.T) {
	h, _, _ := newAlertApp(t)
	app := testApp(t)
	app.Get("/alerts/:id", h.Get)

	resp, err := app.Test(httptest.NewRequest("GET", "/alerts/alert_none", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestAlertHandler_Acknowledge(t *testing.T) {
	h, bus, _ := newAlertApp(t)
	app := testApp(t)
	app.Post("/alerts/:id/ack", h.Acknowledge)

	id, err := h.store.InsertAlert(context.Background(), &domain.Alert{Status: "unknown"})
	require.NoError(t, err)

	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	// First ack succeeds and broadcasts.
	resp, err := app.Test(httptest.NewRequest("POST", "/alerts/"+id+"/ack", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var acked struct {
		Status  string `json:"status"`
		AlertID string `json:"alert_id"`
	}
	decodeJSON(t, resp, &acked)
	assert.Equal(t, "acknowledged", acked.Status)
	assert.Equal(t, id, acked.AlertID)

	event, ok := sub.Receive(time.Second)
	require.True(t, ok)
	assert.Equal(t, domain.AckEvent{AlertID: id}, event)

	// Repeat ack is still 200 but silent.
	resp, err = app.Test(httptest.NewRequest("POST", "/alerts/"+id+"/ack", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	_, ok = sub.Receive(100 * time.Millisecond)
	assert.False(t, ok, "second ack must not broadcast")

	// Unknown id is a 404.
	resp, err = app.Test(httptest.NewRequest("POST", "/alerts/alert_none/ack", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func queryAll() store.QueryFilter {
	return store.QueryFilter{Limit: 100}
}
