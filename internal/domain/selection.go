package domain

import (
	"slices"
	"sort"
	"time"
)

// RankedAd is an advertisement with the scores that placed it in the ranking.
type RankedAd struct {
	Ad         *Advertisement `json:"ad"`
	Relevance  float64        `json:"relevance"`
	FinalScore float64        `json:"final_score"`
}

// TraceStep records which ads survived a selection stage.
type TraceStep struct {
	Stage string   `json:"stage"`
	AdIDs []string `json:"ad_ids"`
}

// SelectionTrace captures the ordered list of stages performed by Rank.
type SelectionTrace struct {
	Steps []TraceStep `json:"steps"`
}

// AddStep appends a stage with the IDs of the given ads. Safe on a nil trace.
func (t *SelectionTrace) AddStep(stage string, ads []*Advertisement) {
	if t == nil {
		return
	}
	ids := make([]string, len(ads))
	for i, ad := range ads {
		ids[i] = ad.ID
	}
	t.Steps = append(t.Steps, TraceStep{Stage: stage, AdIDs: ids})
}

// Selection stage names.
const (
	StageFetched        = "fetched"
	StageDeviceFiltered = "device_filtered"
	StageRanked         = "ranked"
	StageDisplayed      = "displayed"
)

// TargetsDevice reports whether the ad may be shown on the device.
// An empty device list targets everything.
func (a *Advertisement) TargetsDevice(device DeviceClass) bool {
	if len(a.TargetDevice) == 0 {
		return true
	}
	return slices.Contains(a.TargetDevice, TargetAll) || slices.Contains(a.TargetDevice, string(device))
}

// FilterByDevice drops ads that do not target the viewer's device. Order is preserved.
func FilterByDevice(ads []*Advertisement, device DeviceClass) []*Advertisement {
	out := make([]*Advertisement, 0, len(ads))
	for _, ad := range ads {
		if ad != nil && ad.TargetsDevice(device) {
			out = append(out, ad)
		}
	}
	return out
}

// FilterServable drops ads that are inactive or outside their date range at now.
func FilterServable(ads []*Advertisement, now time.Time) []*Advertisement {
	out := make([]*Advertisement, 0, len(ads))
	for _, ad := range ads {
		if ad != nil && ad.IsServable(now) {
			out = append(out, ad)
		}
	}
	return out
}

// Rank filters ads by device, scores them for the viewer and sorts them by
// final score descending. Ties keep fetch order.
func Rank(ads []*Advertisement, viewer ViewerContext, now time.Time, trace *SelectionTrace) []RankedAd {
	trace.AddStep(StageFetched, ads)

	eligible := FilterByDevice(ads, viewer.Device)
	trace.AddStep(StageDeviceFiltered, eligible)

	ranked := make([]RankedAd, len(eligible))
	for i, ad := range eligible {
		relevance := CalculateRelevance(ad, viewer.Page, viewer.Interests, now)
		ranked[i] = RankedAd{
			Ad:         ad,
			Relevance:  relevance,
			FinalScore: FinalScore(relevance, ad.RotationSettings.RotationPriority),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})

	trace.AddStep(StageRanked, Ads(ranked))

	return ranked
}

// Ads unwraps the advertisements of a ranked list.
func Ads(ranked []RankedAd) []*Advertisement {
	out := make([]*Advertisement, len(ranked))
	for i, r := range ranked {
		out[i] = r.Ad
	}
	return out
}
