package domain

import (
	"regexp"
	"strings"
)

// PageContext is the coarse classification of the page an ad is shown on.
type PageContext string

const (
	PageHome     PageContext = "home"
	PageShop     PageContext = "shop"
	PageProduct  PageContext = "product"
	PageCategory PageContext = "category"
	PageBlog     PageContext = "blog"
	PageBlogPost PageContext = "blog_post"
	PageCart     PageContext = "cart"
	PageCheckout PageContext = "checkout"
	PageAccount  PageContext = "account"
	PageShipping PageContext = "shipping"
	PageOther    PageContext = "other"
)

// PageContexts lists every page context in display order.
var PageContexts = []PageContext{
	PageHome, PageShop, PageProduct, PageCategory, PageBlog, PageBlogPost,
	PageCart, PageCheckout, PageAccount, PageShipping, PageOther,
}

// ParsePageContext maps a raw value onto the enumeration. Unknown values become "other".
func ParsePageContext(s string) PageContext {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, pc := range PageContexts {
		if string(pc) == s {
			return pc
		}
	}
	return PageOther
}

// PageContextFromPath classifies a storefront URL path.
func PageContextFromPath(path string) PageContext {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(strings.ToLower(path), "/")
	if path == "" {
		return PageHome
	}

	segments := strings.Split(path, "/")
	switch segments[0] {
	case "shop", "products":
		if len(segments) > 1 {
			return PageProduct
		}
		return PageShop
	case "product":
		return PageProduct
	case "category", "categories":
		return PageCategory
	case "blog":
		if len(segments) > 1 {
			return PageBlogPost
		}
		return PageBlog
	case "cart":
		return PageCart
	case "checkout":
		return PageCheckout
	case "account", "profile", "orders":
		return PageAccount
	case "shipping":
		return PageShipping
	default:
		return PageOther
	}
}

// DeviceClass is the viewer's device category.
type DeviceClass string

const (
	DeviceDesktop DeviceClass = "desktop"
	DeviceTablet  DeviceClass = "tablet"
	DeviceMobile  DeviceClass = "mobile"
)

// IsValid reports whether d is a known device class.
func (d DeviceClass) IsValid() bool {
	return d == DeviceDesktop || d == DeviceTablet || d == DeviceMobile
}

var (
	tabletPattern  = regexp.MustCompile(`(?i)ipad|tablet|playbook|silk`)
	androidPattern = regexp.MustCompile(`(?i)android`)
	mobiPattern    = regexp.MustCompile(`(?i)mobi`)
	mobilePattern  = regexp.MustCompile(`(?i)mobile|iphone|ipod|iemobile|blackberry|kindle|webos|opera m(obi|ini)`)
)

// DetectDevice sniffs the device class from a User-Agent header.
// Tablet patterns win over mobile ones; Android without "mobi" is a tablet.
func DetectDevice(userAgent string) DeviceClass {
	if userAgent == "" {
		return DeviceDesktop
	}
	if tabletPattern.MatchString(userAgent) ||
		(androidPattern.MatchString(userAgent) && !mobiPattern.MatchString(userAgent)) {
		return DeviceTablet
	}
	if mobilePattern.MatchString(userAgent) || androidPattern.MatchString(userAgent) {
		return DeviceMobile
	}
	return DeviceDesktop
}

// MaxRecentInterests caps the recent-interest list.
const MaxRecentInterests = 10

// RecentInterests is a most-recent-first, deduplicated, capped list of
// category and tag strings inferred from browsing.
type RecentInterests []string

// Add pushes values to the front. Later arguments end up more recent.
// Duplicates (case-insensitive) move to the front instead of repeating.
func (r RecentInterests) Add(values ...string) RecentInterests {
	out := append(RecentInterests(nil), r...)
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		next := make(RecentInterests, 0, len(out)+1)
		next = append(next, v)
		for _, existing := range out {
			if !strings.EqualFold(existing, v) {
				next = append(next, existing)
			}
		}
		out = next
	}
	if len(out) > MaxRecentInterests {
		out = out[:MaxRecentInterests]
	}
	return out
}

// Merge returns r with the given list placed in front (most recent first).
func (r RecentInterests) Merge(recent []string) RecentInterests {
	out := r
	for i := len(recent) - 1; i >= 0; i-- {
		out = out.Add(recent[i])
	}
	return out
}

// ViewerContext is the ephemeral description of who is looking at which page.
type ViewerContext struct {
	Page      PageContext
	Device    DeviceClass
	Interests RecentInterests
}
