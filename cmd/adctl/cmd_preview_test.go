package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ad-placement-service/internal/domain"
	"ad-placement-service/internal/infra/adclient"
)

// fakeAPI serves one placement and records tracking calls.
type fakeAPI struct {
	mu          sync.Mutex
	query       map[string]string
	visitor     string
	impressions map[string]int
	durations   map[string]int
	ads         []adclient.RankedItem
	rotate      bool
}

func newFakeAPI(rotate bool, ids ...string) *fakeAPI {
	api := &fakeAPI{
		impressions: map[string]int{},
		durations:   map[string]int{},
		rotate:      rotate,
	}
	for i, id := range ids {
		api.ads = append(api.ads, adclient.RankedItem{
			Ad: adclient.AdItem{
				ID:            id,
				Title:         "Ad " + id,
				Position:      "home",
				Type:          "banner",
				TargetContext: []string{"all"},
				TargetDevice:  []string{"all"},
				Frequency:     15,
				IsActive:      true,
			},
			FinalScore: float64(10 - i),
		})
	}
	return api
}

func (a *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == adclient.PlacementsEndpoint:
		a.query = map[string]string{}
		for k, v := range r.URL.Query() {
			a.query[k] = v[0]
		}
		a.visitor = r.Header.Get(adclient.VisitorHeader)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(adclient.PlacementResponse{
			Ads:      a.ads[:1],
			Ranked:   a.ads,
			Rotation: adclient.RotationInfo{Enabled: a.rotate, Limit: 1},
		})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/impression"):
		a.impressions[adIDFromPath(r.URL.Path)]++
		w.WriteHeader(http.StatusAccepted)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/view-duration"):
		a.durations[adIDFromPath(r.URL.Path)]++
		w.WriteHeader(http.StatusAccepted)
	default:
		http.NotFound(w, r)
	}
}

func adIDFromPath(path string) string {
	parts := strings.Split(path, "/")
	return parts[len(parts)-2]
}

func runPreview(t *testing.T, api *fakeAPI, args ...string) string {
	t.Helper()

	srv := httptest.NewServer(api)
	defer srv.Close()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(append([]string{
		"--server", srv.URL,
		"--interests-file", filepath.Join(t.TempDir(), "interests.yaml"),
		"preview",
	}, args...))
	require.NoError(t, root.Execute())

	return out.String()
}

func TestPreview_RotatesAndTracks(t *testing.T) {
	api := newFakeAPI(true, "a", "b", "c")

	out := runPreview(t, api,
		"--position", "home", "--path", "/cart", "--device", "mobile",
		"--interval", "20ms", "--duration", "110ms")

	assert.Contains(t, out, "3 ads ranked for home (context cart, device mobile)")
	assert.GreaterOrEqual(t, strings.Count(out, "window at"), 3)

	api.mu.Lock()
	defer api.mu.Unlock()

	assert.Equal(t, "home", api.query["position"])
	assert.Equal(t, "cart", api.query["context"])
	assert.Equal(t, "mobile", api.query["device"])
	assert.Equal(t, "true", api.query["rotation"])
	assert.Len(t, api.visitor, 36, "visitor id from the interest file")

	for _, id := range []string{"a", "b", "c"} {
		assert.GreaterOrEqual(t, api.impressions[id], 1, "impression for %s", id)
	}
	assert.NotEmpty(t, api.durations, "hidden ads report view duration")
}

func TestPreview_WithoutRotationHoldsWindow(t *testing.T) {
	api := newFakeAPI(false, "a", "b")

	out := runPreview(t, api, "--position", "home", "--rotation=false", "--duration", "30ms")

	assert.Contains(t, out, "rotation off")
	assert.Equal(t, 1, strings.Count(out, "window at"))

	api.mu.Lock()
	defer api.mu.Unlock()

	assert.Equal(t, 1, api.impressions["a"])
	assert.Zero(t, api.impressions["b"])
	assert.Equal(t, 1, api.durations["a"], "exit on shutdown reports the view")
}

func TestPreviewOptions_Query(t *testing.T) {
	o := previewOptions{position: "home", path: "/blog/post-1", device: "tablet", limit: 2, rotate: true}

	q := o.query(domain.RecentInterests{"tea"})
	assert.Equal(t, domain.PageBlog, q.Context)
	assert.Equal(t, domain.DeviceTablet, q.Device)
	assert.Equal(t, domain.RecentInterests{"tea"}, q.Interests)

	o.context = "checkout"
	assert.Equal(t, domain.PageCheckout, o.query(nil).Context)

	o.context, o.path = "", ""
	assert.Equal(t, domain.PageOther, o.query(nil).Context)
}

func TestPreview_RejectsBadFlags(t *testing.T) {
	for _, args := range [][]string{
		{"preview"},
		{"preview", "--position", "home", "--device", "watch"},
		{"preview", "--position", "home", "--limit", "0"},
	} {
		root := newRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(args)
		assert.Error(t, root.Execute(), args)
	}
}
