package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ad-placement-service/internal/app/service"
	"ad-placement-service/internal/domain"
	"ad-placement-service/internal/transport/httpserver/dto"
	"ad-placement-service/internal/validator"
)

func newTrackingApp(tracker *stubTracker) *fiber.App {
	h := NewTrackingHandler(tracker, validator.New(), zap.NewNop())

	app := fiber.New()
	app.Post("/ads/:id/impression", h.Impression)
	app.Post("/ads/:id/click", h.Click)
	app.Post("/ads/:id/view-duration", h.ViewDuration)
	return app
}

func TestTrackingHandler_Accepts(t *testing.T) {
	tracker := &stubTracker{}
	app := newTrackingApp(tracker)
	ua := map[string]string{fiber.HeaderUserAgent: testUA}

	resp := doRequest(t, app, http.MethodPost, "/ads/"+testAdID+"/impression", "", ua)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "accepted", decode[dto.AcceptedResponse](t, resp).Status)

	resp = doRequest(t, app, http.MethodPost, "/ads/"+testAdID+"/click", `{"context":"cart"}`, ua)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/ads/"+testAdID+"/view-duration", `{"duration_ms":1500}`, ua)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Len(t, tracker.events, 3)

	assert.Equal(t, domain.TrackImpression, tracker.events[0].Kind)
	assert.Equal(t, testAdID, tracker.events[0].AdID)
	assert.Equal(t, domain.DeviceDesktop, tracker.events[0].Device)

	assert.Equal(t, domain.TrackClick, tracker.events[1].Kind)
	assert.Equal(t, domain.PageCart, tracker.events[1].Context)

	assert.Equal(t, domain.TrackViewDuration, tracker.events[2].Kind)
	assert.Equal(t, 1500*time.Millisecond, tracker.events[2].Duration)
}

func TestTrackingHandler_Rejects(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		code string
	}{
		{"non uuid id", "/ads/not-a-uuid/impression", "", "INVALID_ID"},
		{"bad json", "/ads/" + testAdID + "/click", `{"context":`, "INVALID_BODY"},
		{"unknown context", "/ads/" + testAdID + "/click", `{"context":"casino"}`, "VALIDATION_ERROR"},
		{"negative duration", "/ads/" + testAdID + "/view-duration", `{"duration_ms":-5}`, "VALIDATION_ERROR"},
		{"missing duration body", "/ads/" + testAdID + "/view-duration", "", "INVALID_BODY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := &stubTracker{}
			app := newTrackingApp(tracker)

			resp := doRequest(t, app, http.MethodPost, tt.path, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.code, decode[dto.ErrorResponse](t, resp).Code)
			assert.Empty(t, tracker.events)
		})
	}
}

func TestTrackingHandler_Stopped(t *testing.T) {
	app := newTrackingApp(&stubTracker{err: service.ErrTrackingStopped})

	resp := doRequest(t, app, http.MethodPost, "/ads/"+testAdID+"/impression", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "UNAVAILABLE", decode[dto.ErrorResponse](t, resp).Code)
}
