package domain

import (
	"math"
	"slices"
	"strings"
	"time"
)

// Relevance score weights.
const (
	BaseRelevance = 50.0

	PlacementMatchBonus = 15.0
	ContextMatchBonus   = 20.0

	MaxPriorityBonus  = 10.0
	PriorityBonusStep = 2.0

	MaxOverlapBonus  = 15.0
	OverlapBonusStep = 5.0

	MaxFreshnessBonus = 5.0
	DaysPerWeek       = 7.0

	MaxPerformanceBonus = 10.0
	CTRDivisor          = 2.0

	MinRelevance = 0.0
	MaxRelevance = 100.0
)

// Final score blend of relevance and configured rotation priority.
const (
	RelevanceWeight        = 0.7
	RotationPriorityWeight = 0.3
	RotationPriorityScale  = 10.0
)

// CalculateRelevance scores how well an ad fits a page context and a viewer's
// recent interests.
//
// Formula:
//
//	Score = clamp(50 + placement + context + priority + keywords + interests + freshness + performance, 0, 100)
//
// Signals:
//   - Placement: +15 when position is "global" or equals the page context
//   - Context: +20 when target contexts contain "all" or the page context
//   - Priority: min(10, priority*2) when priority > 0
//   - Keywords: min(15, 5*matches) over recent interests
//   - Interests: min(15, 5*matches) over recent interests
//   - Freshness: max(0, 5 - min(5, ageDays/7)) when created_at is set
//   - Performance: min(10, ctr/2) when ctr > 0
//
// The function is pure; now is supplied by the caller.
func CalculateRelevance(ad *Advertisement, ctx PageContext, interests []string, now time.Time) float64 {
	if ad == nil {
		return 0
	}

	score := BaseRelevance
	score += placementScore(ad, ctx)
	score += contextScore(ad, ctx)
	score += priorityScore(ad)
	score += overlapScore(ad.Keywords, interests)
	score += overlapScore(ad.TargetAudience.Interests, interests)
	score += freshnessScore(ad, now)
	score += performanceScore(ad)

	return clamp(score, MinRelevance, MaxRelevance)
}

// FinalScore blends relevance with the ad's rotation priority (0-10).
//
//	Final = 0.7*relevance + 0.3*(rotationPriority*10)
func FinalScore(relevance float64, rotationPriority int) float64 {
	return RelevanceWeight*relevance + RotationPriorityWeight*(float64(rotationPriority)*RotationPriorityScale)
}

func placementScore(ad *Advertisement, ctx PageContext) float64 {
	if ad.Position == PositionGlobal || ad.Position == string(ctx) {
		return PlacementMatchBonus
	}
	return 0
}

// contextScore treats an empty TargetContext like "all", as TargetsDevice does.
func contextScore(ad *Advertisement, ctx PageContext) float64 {
	if len(ad.TargetContext) == 0 || slices.Contains(ad.TargetContext, TargetAll) || slices.Contains(ad.TargetContext, string(ctx)) {
		return ContextMatchBonus
	}
	return 0
}

func priorityScore(ad *Advertisement) float64 {
	if ad.Priority <= 0 {
		return 0
	}
	return math.Min(MaxPriorityBonus, float64(ad.Priority)*PriorityBonusStep)
}

// overlapScore counts terms that substring-match any interest in either
// direction, case-insensitively.
func overlapScore(terms, interests []string) float64 {
	matches := countOverlap(terms, interests)
	if matches == 0 {
		return 0
	}
	return math.Min(MaxOverlapBonus, OverlapBonusStep*float64(matches))
}

func countOverlap(terms, interests []string) int {
	if len(terms) == 0 || len(interests) == 0 {
		return 0
	}

	lowered := make([]string, 0, len(interests))
	for _, i := range interests {
		if i = strings.ToLower(strings.TrimSpace(i)); i != "" {
			lowered = append(lowered, i)
		}
	}

	count := 0
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		for _, interest := range lowered {
			if strings.Contains(term, interest) || strings.Contains(interest, term) {
				count++
				break
			}
		}
	}
	return count
}

// freshnessScore gives a brand-new ad 5 points, decaying linearly to 0 over five weeks.
func freshnessScore(ad *Advertisement, now time.Time) float64 {
	if ad.CreatedAt.IsZero() {
		return 0
	}
	weeks := ad.AgeDays(now) / DaysPerWeek
	return math.Max(0, MaxFreshnessBonus-math.Min(MaxFreshnessBonus, weeks))
}

func performanceScore(ad *Advertisement) float64 {
	if ad.Analytics.CTR <= 0 {
		return 0
	}
	return math.Min(MaxPerformanceBonus, ad.Analytics.CTR/CTRDivisor)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
