package domain

import (
	"fmt"
	"reflect"
	"testing"
)

func TestDetectDevice(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		expected  DeviceClass
	}{
		{"empty", "", DeviceDesktop},
		{"desktop chrome", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36", DeviceDesktop},
		{"mac safari", "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_2) AppleWebKit/605.1.15 Version/17.2 Safari/605.1.15", DeviceDesktop},
		{"iphone", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148", DeviceMobile},
		{"android phone", "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 Chrome/120.0 Mobile Safari/537.36", DeviceMobile},
		{"android tablet", "Mozilla/5.0 (Linux; Android 13; SM-X700) AppleWebKit/537.36 Chrome/120.0 Safari/537.36", DeviceTablet},
		{"ipad", "Mozilla/5.0 (iPad; CPU OS 17_2 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148", DeviceTablet},
		{"kindle silk", "Mozilla/5.0 (Linux; U; Android 4.0.3; KFTT) AppleWebKit/535.19 Silk/3.4 Mobile Safari/535.19", DeviceTablet},
		{"opera mini", "Opera/9.80 (J2ME/MIDP; Opera Mini/9.80) Presto/2.12.423 Version/12.16", DeviceMobile},
		{"blackberry", "BlackBerry9700/5.0.0.862 Profile/MIDP-2.1", DeviceMobile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDevice(tt.userAgent); got != tt.expected {
				t.Errorf("DetectDevice() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParsePageContext(t *testing.T) {
	tests := []struct {
		input    string
		expected PageContext
	}{
		{"home", PageHome},
		{" Blog_Post ", PageBlogPost},
		{"shipping", PageShipping},
		{"", PageOther},
		{"landing", PageOther},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParsePageContext(tt.input); got != tt.expected {
				t.Errorf("ParsePageContext(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPageContextFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected PageContext
	}{
		{"/", PageHome},
		{"", PageHome},
		{"/shop", PageShop},
		{"/shop/blue-mug", PageProduct},
		{"/product/42?ref=ad", PageProduct},
		{"/category/kitchen", PageCategory},
		{"/blog", PageBlog},
		{"/blog/how-to-brew", PageBlogPost},
		{"/cart", PageCart},
		{"/checkout/payment", PageCheckout},
		{"/account/orders", PageAccount},
		{"/shipping", PageShipping},
		{"/about-us", PageOther},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := PageContextFromPath(tt.path); got != tt.expected {
				t.Errorf("PageContextFromPath(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestRecentInterests_Add(t *testing.T) {
	tests := []struct {
		name     string
		initial  RecentInterests
		add      []string
		expected RecentInterests
	}{
		{
			name:     "push to front",
			initial:  RecentInterests{"tea"},
			add:      []string{"coffee"},
			expected: RecentInterests{"coffee", "tea"},
		},
		{
			name:     "later argument is more recent",
			add:      []string{"a", "b"},
			expected: RecentInterests{"b", "a"},
		},
		{
			name:     "duplicate moves to front",
			initial:  RecentInterests{"mugs", "tea", "coffee"},
			add:      []string{"Coffee"},
			expected: RecentInterests{"Coffee", "mugs", "tea"},
		},
		{
			name:     "blank ignored",
			initial:  RecentInterests{"tea"},
			add:      []string{"  ", ""},
			expected: RecentInterests{"tea"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.initial.Add(tt.add...)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Add() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRecentInterests_Capped(t *testing.T) {
	var interests RecentInterests
	for i := 0; i < 15; i++ {
		interests = interests.Add(fmt.Sprintf("tag-%d", i))
	}

	if len(interests) != MaxRecentInterests {
		t.Fatalf("len = %d, want %d", len(interests), MaxRecentInterests)
	}
	if interests[0] != "tag-14" || interests[9] != "tag-5" {
		t.Errorf("unexpected order: %v", interests)
	}
}

func TestRecentInterests_AddDoesNotMutateReceiver(t *testing.T) {
	original := RecentInterests{"tea", "coffee"}
	_ = original.Add("mugs")

	if !reflect.DeepEqual(original, RecentInterests{"tea", "coffee"}) {
		t.Errorf("receiver mutated: %v", original)
	}
}

func TestRecentInterests_Merge(t *testing.T) {
	stored := RecentInterests{"tea", "coffee"}
	got := stored.Merge([]string{"mugs", "tea"})

	expected := RecentInterests{"mugs", "tea", "coffee"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Merge() = %v, want %v", got, expected)
	}
}
