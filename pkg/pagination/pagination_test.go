package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestFromContext_Defaults(t *testing.T) {
	p := FromContext(newContext("/"))

	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected default offset 0, got %d", p.Offset)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	p := FromContext(newContext("/?limit=50&offset=10"))

	if p.Limit != 50 {
		t.Errorf("expected limit 50, got %d", p.Limit)
	}
	if p.Offset != 10 {
		t.Errorf("expected offset 10, got %d", p.Offset)
	}
}

func TestFromContext_MaxLimit(t *testing.T) {
	p := FromContext(newContext("/?limit=500"))

	if p.Limit != MaxLimit {
		t.Errorf("expected limit capped at %d, got %d", MaxLimit, p.Limit)
	}
}

func TestFromContext_NegativeOffset(t *testing.T) {
	p := FromContext(newContext("/?offset=-5"))

	if p.Offset != 0 {
		t.Errorf("expected offset 0 for negative input, got %d", p.Offset)
	}
}

func TestFromContext_GarbageIgnored(t *testing.T) {
	p := FromContext(newContext("/?limit=abc&offset=xyz"))

	if p.Limit != DefaultLimit || p.Offset != 0 {
		t.Errorf("expected defaults for unparsable input, got %+v", p)
	}
}

func TestParams_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		total  int
		lo, hi int
	}{
		{"first page", Params{Limit: 10, Offset: 0}, 25, 0, 10},
		{"last partial page", Params{Limit: 10, Offset: 20}, 25, 20, 25},
		{"offset past end", Params{Limit: 10, Offset: 40}, 25, 25, 25},
		{"empty collection", Params{Limit: 10, Offset: 0}, 0, 0, 0},
		{"negative offset", Params{Limit: 5, Offset: -3}, 8, 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.params.Bounds(tt.total)
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("Bounds(%d) = [%d, %d), want [%d, %d)", tt.total, lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestNewResponse(t *testing.T) {
	data := []string{"a", "b", "c"}
	r := NewResponse(data, 10, 3, 0)

	if r.Total != 10 {
		t.Errorf("expected total 10, got %d", r.Total)
	}
	if !r.HasMore {
		t.Error("expected has_more to be true when offset+limit < total")
	}

	r2 := NewResponse(data, 3, 3, 0)
	if r2.HasMore {
		t.Error("expected has_more to be false when offset+limit >= total")
	}
}

func TestParams_HasNext(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		total  int
		want   bool
	}{
		{"more results", Params{Limit: 10, Offset: 0}, 25, true},
		{"exact end", Params{Limit: 10, Offset: 15}, 25, false},
		{"past end", Params{Limit: 10, Offset: 30}, 25, false},
		{"no results", Params{Limit: 10, Offset: 0}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.HasNext(tt.total); got != tt.want {
				t.Errorf("HasNext(%d) = %v, want %v", tt.total, got, tt.want)
			}
		})
	}
}

func TestParams_PreviousOffset(t *testing.T) {
	if got := (Params{Limit: 10, Offset: 5}).PreviousOffset(); got != 0 {
		t.Errorf("expected previous offset clamped to 0, got %d", got)
	}
	if got := (Params{Limit: 10, Offset: 30}).PreviousOffset(); got != 20 {
		t.Errorf("expected previous offset 20, got %d", got)
	}
}

func TestParams_Links_FirstPage(t *testing.T) {
	p := Params{Limit: 10, Offset: 0}
	links := p.Links("/api/v1/appointments", 25)

	if len(links) != 2 {
		t.Fatalf("expected self and next links, got %d", len(links))
	}
	if links[0].Rel != "self" || links[0].Href != "/api/v1/appointments?offset=0&limit=10" {
		t.Errorf("unexpected self link: %+v", links[0])
	}
	if links[1].Rel != "next" || links[1].Href != "/api/v1/appointments?offset=10&limit=10" {
		t.Errorf("unexpected next link: %+v", links[1])
	}
}

func TestParams_Links_LastPage(t *testing.T) {
	p := Params{Limit: 10, Offset: 20}
	links := p.Links("/api/v1/patients", 25)

	if len(links) != 2 {
		t.Fatalf("expected self and previous links, got %d", len(links))
	}
	if links[1].Rel != "previous" || links[1].Href != "/api/v1/patients?offset=10&limit=10" {
		t.Errorf("unexpected previous link: %+v", links[1])
	}
}

func TestResponse_WithLinks(t *testing.T) {
	r := NewResponse([]int{1}, 1, 20, 0).WithLinks("/api/v1/physicians")
	if len(r.Links) != 1 || r.Links[0].Rel != "self" {
		t.Errorf("expected only a self link, got %+v", r.Links)
	}
}
