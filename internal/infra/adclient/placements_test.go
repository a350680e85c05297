package adclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ad-placement-service/internal/domain"
)

const (
	testBaseURL            = "https://ads.example.com"
	testPlacementsEndpoint = testBaseURL + PlacementsEndpoint
	testAdminEndpoint      = testBaseURL + AdminAdsEndpoint
)

func newTestConfig() ClientConfig {
	return ClientConfig{
		BaseURL: testBaseURL,
		Timeout: 5 * time.Second,
		Retry: RetryConfig{
			MaxAttempts: 3,
			WaitTime:    10 * time.Millisecond,
			MaxWaitTime: 50 * time.Millisecond,
		},
		CB: CBConfig{
			MaxRequests:  5,
			Interval:     60 * time.Second,
			Timeout:      15 * time.Second,
			FailureRatio: 0.6,
		},
		CacheTTL: time.Minute,
	}
}

func newTestClient(cfg ClientConfig) *Client {
	client := New(cfg, zap.NewNop())

	// Activate httpmock for this client's HTTP transport
	httpmock.ActivateNonDefault(client.client.GetClient())

	return client
}

func rankedItem(id string, frequency int, score float64) RankedItem {
	return RankedItem{
		Ad: AdItem{
			ID:            id,
			Title:         "Ad " + id,
			Position:      "home",
			Type:          "banner",
			TargetContext: []string{"all"},
			TargetDevice:  []string{"all"},
			Frequency:     frequency,
			IsActive:      true,
		},
		Relevance:  score,
		FinalScore: score * 0.7,
	}
}

func mockPlacementResponse() PlacementResponse {
	items := []RankedItem{
		rankedItem("a", 10, 90),
		rankedItem("b", 20, 80),
		rankedItem("c", 30, 70),
	}

	return PlacementResponse{
		Ads:    items[:2],
		Ranked: items,
		Rotation: RotationInfo{
			Enabled:    true,
			IntervalMs: 15000,
			Positions:  2,
			Limit:      2,
		},
		Context: "home",
		Device:  "desktop",
	}
}

func testQuery() domain.PlacementQuery {
	return domain.PlacementQuery{
		Position:       "home",
		Limit:          2,
		Context:        domain.PageHome,
		Device:         domain.DeviceDesktop,
		EnableRotation: true,
		Interests:      domain.RecentInterests{"tea", "coffee"},
	}
}

func TestClient_Placement_Success(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	var gotQuery map[string][]string
	var gotVisitor string
	httpmock.RegisterResponder("GET", testPlacementsEndpoint,
		func(req *http.Request) (*http.Response, error) {
			gotQuery = req.URL.Query()
			gotVisitor = req.Header.Get(VisitorHeader)

			return httpmock.NewJsonResponse(200, mockPlacementResponse())
		})

	client := newTestClient(newTestConfig())
	placement, err := client.Placement(context.Background(), testQuery(), "visitor-1")

	require.NoError(t, err)
	require.Len(t, placement.Ranked, 3)
	assert.False(t, placement.Cached)
	assert.True(t, placement.CanRotate)
	assert.Equal(t, 2, placement.Limit)
	assert.Equal(t, "a", placement.Displayed[0].Ad.ID)
	assert.Equal(t, "b", placement.Displayed[1].Ad.ID)
	assert.Equal(t, 15*time.Second, placement.Interval)
	assert.Equal(t, 90.0, placement.Ranked[0].Relevance)

	assert.Equal(t, "visitor-1", gotVisitor)
	assert.Equal(t, []string{"home"}, gotQuery["position"])
	assert.Equal(t, []string{"2"}, gotQuery["limit"])
	assert.Equal(t, []string{"true"}, gotQuery["rotation"])
	assert.Equal(t, []string{"desktop"}, gotQuery["device"])
	assert.Equal(t, []string{"tea,coffee"}, gotQuery["interests"])
}

func TestClient_Placement_UsesClientCache(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testPlacementsEndpoint,
		httpmock.NewJsonResponderOrPanic(200, mockPlacementResponse()))

	client := newTestClient(newTestConfig())
	ctx := context.Background()

	_, err := client.Placement(ctx, testQuery(), "")
	require.NoError(t, err)

	// Same key, different viewer: re-ranked locally from the cached pool.
	query := testQuery()
	query.Interests = nil
	placement, err := client.Placement(ctx, query, "")
	require.NoError(t, err)

	assert.True(t, placement.Cached)
	assert.Len(t, placement.Ranked, 3)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	// A different context is a different key.
	other := testQuery()
	other.Context = domain.PageCart
	_, err = client.Placement(ctx, other, "")
	require.NoError(t, err)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestClient_Placement_CacheExpires(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testPlacementsEndpoint,
		httpmock.NewJsonResponderOrPanic(200, mockPlacementResponse()))

	client := newTestClient(newTestConfig())
	now := time.Now()
	client.cache.now = func() time.Time { return now }

	_, err := client.Placement(context.Background(), testQuery(), "")
	require.NoError(t, err)

	now = now.Add(61 * time.Second)
	placement, err := client.Placement(context.Background(), testQuery(), "")
	require.NoError(t, err)

	assert.False(t, placement.Cached)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestClient_Placement_CacheDisabled(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testPlacementsEndpoint,
		httpmock.NewJsonResponderOrPanic(200, mockPlacementResponse()))

	cfg := newTestConfig()
	cfg.CacheTTL = 0
	client := newTestClient(cfg)

	for i := 0; i < 2; i++ {
		_, err := client.Placement(context.Background(), testQuery(), "")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestClient_Placement_InvalidateCache(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testPlacementsEndpoint,
		httpmock.NewJsonResponderOrPanic(200, mockPlacementResponse()))

	client := newTestClient(newTestConfig())

	_, err := client.Placement(context.Background(), testQuery(), "")
	require.NoError(t, err)
	client.InvalidateCache()
	_, err = client.Placement(context.Background(), testQuery(), "")
	require.NoError(t, err)

	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestClient_Placement_HTTPError_4xx(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	tests := []struct {
		name       string
		statusCode int
	}{
		{"400 Bad Request", 400},
		{"404 Not Found", 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpmock.Reset()
			httpmock.RegisterResponder("GET", testPlacementsEndpoint,
				httpmock.NewJsonResponderOrPanic(tt.statusCode, ErrorBody{Error: "bad", Code: "INVALID_PARAMS"}))

			client := newTestClient(newTestConfig())
			placement, err := client.Placement(context.Background(), testQuery(), "")

			require.Error(t, err)
			assert.Nil(t, placement)
			assert.Contains(t, err.Error(), fmt.Sprintf("status %d", tt.statusCode))
		})
	}
}

func TestClient_Placement_RetriesServerErrors(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	callCount := 0
	httpmock.RegisterResponder("GET", testPlacementsEndpoint,
		func(_ *http.Request) (*http.Response, error) {
			callCount++
			if callCount < 3 {
				return httpmock.NewStringResponse(503, "unavailable"), nil
			}
			return httpmock.NewJsonResponse(200, mockPlacementResponse())
		})

	client := newTestClient(newTestConfig())
	placement, err := client.Placement(context.Background(), testQuery(), "")

	require.NoError(t, err)
	assert.Len(t, placement.Ranked, 3)
	assert.Equal(t, 3, callCount)
}

func TestClient_Placement_NetworkError(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testPlacementsEndpoint,
		httpmock.NewErrorResponder(fmt.Errorf("connection refused")))

	client := newTestClient(newTestConfig())
	placement, err := client.Placement(context.Background(), testQuery(), "")

	require.Error(t, err)
	assert.Nil(t, placement)
	assert.Contains(t, err.Error(), "fetching placement")
}

func TestClient_CircuitBreaker_Opens(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testPlacementsEndpoint,
		httpmock.NewStringResponder(500, "Internal Server Error"))

	cfg := newTestConfig()
	cfg.Retry.MaxAttempts = 0
	client := newTestClient(cfg)

	for i := 0; i < 3; i++ {
		_, err := client.Placement(context.Background(), testQuery(), "")
		require.Error(t, err)
	}

	calls := httpmock.GetTotalCallCount()
	_, err := client.Placement(context.Background(), testQuery(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, calls, httpmock.GetTotalCallCount(), "open breaker must not reach the API")
}

func TestPlacement_Rotation(t *testing.T) {
	items := mockPlacementResponse().Ranked
	ranked := make([]domain.RankedAd, len(items))
	for i := range items {
		ranked[i] = items[i].ToDomain()
	}

	placement := newPlacement(ranked, 2, true)
	placement.Cursor = 1

	rotation := placement.Rotation()
	assert.Equal(t, 1, rotation.Cursor())
	window := rotation.Window()
	require.Len(t, window, 2)
	assert.Equal(t, "b", window[0].Ad.ID)

	rotation.Advance()
	assert.Equal(t, 0, rotation.Cursor())
}

func TestClient_CreateAd(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	var got AdSpec
	httpmock.RegisterResponder("POST", testAdminEndpoint,
		func(req *http.Request) (*http.Response, error) {
			if err := jsonDecode(req, &got); err != nil {
				return httpmock.NewStringResponse(400, "bad json"), nil
			}
			return httpmock.NewJsonResponse(201, AdItem{
				ID:       "new-id",
				Title:    got.Title,
				Position: got.Position,
				Type:     got.Type,
				IsActive: true,
			})
		})

	client := newTestClient(newTestConfig())
	ad, err := client.CreateAd(context.Background(), AdSpec{
		Title:    "Spring sale",
		Position: "home",
		Type:     "banner",
		Keywords: []string{"sale"},
	})

	require.NoError(t, err)
	assert.Equal(t, "new-id", ad.ID)
	assert.Equal(t, domain.AdTypeBanner, ad.Type)
	assert.Equal(t, []string{"sale"}, got.Keywords)
}

func TestClient_CreateAd_Rejected(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", testAdminEndpoint,
		httpmock.NewJsonResponderOrPanic(400, ErrorBody{Error: "validation failed", Code: "VALIDATION_ERROR"}))

	client := newTestClient(newTestConfig())
	ad, err := client.CreateAd(context.Background(), AdSpec{Title: "x"})

	require.Error(t, err)
	assert.Nil(t, ad)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestClient_RecordInterests(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	var got InterestsBody
	httpmock.RegisterResponder("POST", testBaseURL+VisitorsEndpoint+"/v-1/interests",
		func(req *http.Request) (*http.Response, error) {
			if err := jsonDecode(req, &got); err != nil {
				return httpmock.NewStringResponse(400, "bad json"), nil
			}
			return httpmock.NewJsonResponse(200, InterestsBody{
				VisitorID: "v-1",
				Interests: append(got.Interests, "books"),
			})
		})

	client := newTestClient(newTestConfig())
	interests, err := client.RecordInterests(context.Background(), "v-1", []string{"tea"})

	require.NoError(t, err)
	assert.Equal(t, []string{"tea"}, got.Interests)
	assert.Equal(t, []string{"tea", "books"}, interests)
}

func TestClient_HealthCheck(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", testBaseURL+HealthEndpoint,
		httpmock.NewStringResponder(200, "OK"))

	client := newTestClient(newTestConfig())
	assert.NoError(t, client.HealthCheck(context.Background()))

	httpmock.Reset()
	httpmock.RegisterResponder("GET", testBaseURL+HealthEndpoint,
		httpmock.NewStringResponder(503, "down"))
	assert.Error(t, client.HealthCheck(context.Background()))
}

func jsonDecode(req *http.Request, v any) error {
	defer req.Body.Close()
	return json.NewDecoder(req.Body).Decode(v)
}
