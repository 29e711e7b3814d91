package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseListParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?category=mezcal&featured=true&limit=10&cursor=abc", nil)
	params, err := parseListParams(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Category == nil || *params.Category != "mezcal" {
		t.Fatalf("expected category filter, got %+v", params.Category)
	}
	if params.Featured == nil || !*params.Featured {
		t.Fatalf("expected featured filter, got %+v", params.Featured)
	}
	if params.Limit != 10 {
		t.Fatalf("expected limit 10, got %d", params.Limit)
	}
	if params.Cursor != "abc" {
		t.Fatalf("expected cursor abc, got %q", params.Cursor)
	}
}

func TestParseListParamsRejectsBadFeatured(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?featured=maybe", nil)
	if _, err := parseListParams(req); err == nil {
		t.Fatalf("expected error for bad featured value")
	}
}

func TestParseListParamsRejectsBadLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?limit=ten", nil)
	if _, err := parseListParams(req); err == nil {
		t.Fatalf("expected error for bad limit value")
	}
}
