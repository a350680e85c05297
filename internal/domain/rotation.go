package domain

import "time"

// MaxIntervalSample is the number of displayed ads averaged for the rotation interval.
const MaxIntervalSample = 5

// Rotation is a sliding window over a ranked list of ads.
//
// The window is ranked[cursor : cursor+limit]; advancing moves the cursor one
// step modulo max(1, total-limit+1), so the window slides rather than shuffles.
// Rotation is not safe for concurrent use; see rotation.Carousel for a
// synchronized, timer-driven wrapper.
type Rotation struct {
	ranked  []RankedAd
	limit   int
	enabled bool
	cursor  int
}

// NewRotation creates a rotation positioned at the top of the ranked list.
// A limit below 1 is treated as 1.
func NewRotation(ranked []RankedAd, limit int, enabled bool) *Rotation {
	if limit < 1 {
		limit = 1
	}
	return &Rotation{
		ranked:  ranked,
		limit:   limit,
		enabled: enabled,
	}
}

// Total returns the size of the candidate pool.
func (r *Rotation) Total() int {
	return len(r.ranked)
}

// Ranked returns the full ranked list the window slides over.
func (r *Rotation) Ranked() []RankedAd {
	return r.ranked
}

// Limit returns the window size.
func (r *Rotation) Limit() int {
	return r.limit
}

// Cursor returns the current window start.
func (r *Rotation) Cursor() int {
	return r.cursor
}

// Positions returns the number of distinct window positions.
func (r *Rotation) Positions() int {
	return max(1, len(r.ranked)-r.limit+1)
}

// CanRotate reports whether advancing can change the window.
// It is false when rotation is disabled or the pool fits in one window.
func (r *Rotation) CanRotate() bool {
	return r.enabled && len(r.ranked) > r.limit
}

// Window returns the ads currently displayed.
func (r *Rotation) Window() []RankedAd {
	return window(r.ranked, r.cursor, r.limit)
}

// Advance moves the cursor one step and returns the new window.
// It is a no-op when the rotation cannot run.
func (r *Rotation) Advance() []RankedAd {
	if r.CanRotate() {
		r.cursor = (r.cursor + 1) % r.Positions()
	}
	return r.Window()
}

// Seek places the cursor at position (wrapped into range) and returns the window.
func (r *Rotation) Seek(position int) []RankedAd {
	n := r.Positions()
	r.cursor = ((position % n) + n) % n
	return r.Window()
}

// Interval is the average configured frequency of the displayed set,
// sampled over at most MaxIntervalSample ads. Unset frequencies count as the default.
func (r *Rotation) Interval() time.Duration {
	return RotationInterval(Ads(r.Window()))
}

// RotationInterval averages the frequency of up to MaxIntervalSample ads.
func RotationInterval(ads []*Advertisement) time.Duration {
	if len(ads) > MaxIntervalSample {
		ads = ads[:MaxIntervalSample]
	}
	if len(ads) == 0 {
		return DefaultFrequency * time.Second
	}

	var total time.Duration
	for _, ad := range ads {
		total += ad.Frequency()
	}
	return total / time.Duration(len(ads))
}

func window(ranked []RankedAd, cursor, limit int) []RankedAd {
	if cursor >= len(ranked) {
		return []RankedAd{}
	}
	end := min(cursor+limit, len(ranked))
	return ranked[cursor:end]
}
