package pagination

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "/", DefaultLimit, 0},
		{"custom", "/?limit=50&offset=10", 50, 10},
		{"max limit", "/?limit=500", MaxLimit, 0},
		{"negative offset", "/?offset=-5", DefaultLimit, 0},
		{"garbage", "/?limit=abc&offset=xyz", DefaultLimit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(tt.target)
			p := FromContext(c)
			if p.Limit != tt.wantLimit || p.Offset != tt.wantOffset {
				t.Errorf("got limit %d offset %d, want %d %d", p.Limit, p.Offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestNewResponse(t *testing.T) {
	resp := NewResponse([]string{"a", "b"}, 10, 2, 0)
	if resp.Total != 10 || resp.Limit != 2 || resp.Offset != 0 {
		t.Errorf("unexpected response %+v", resp)
	}
	if !resp.HasMore {
		t.Error("expected HasMore=true")
	}
	if NewResponse(nil, 10, 5, 5).HasMore {
		t.Error("expected HasMore=false on last page")
	}
}

func TestParams_Offsets(t *testing.T) {
	p := Params{Limit: 10, Offset: 5}
	if p.NextOffset() != 15 {
		t.Errorf("expected next offset 15, got %d", p.NextOffset())
	}
	if p.PreviousOffset() != 0 {
		t.Errorf("expected previous offset clamped to 0, got %d", p.PreviousOffset())
	}
	if !p.HasPrevious() || !p.HasNext(16) || p.HasNext(15) {
		t.Errorf("unexpected HasPrevious/HasNext for %+v", p)
	}
}

func TestParams_LinkHeader(t *testing.T) {
	base, _ := url.Parse("/api/v1/practitioners?active=true")

	tests := []struct {
		name  string
		p     Params
		total int
		want  []string
	}{
		{"first page", Params{Limit: 10, Offset: 0}, 25, []string{`offset=10`, `rel="next"`}},
		{"middle page", Params{Limit: 10, Offset: 10}, 25, []string{`offset=20`, `rel="next"`, `offset=0`, `rel="prev"`}},
		{"last page", Params{Limit: 10, Offset: 20}, 25, []string{`offset=10`, `rel="prev"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.p.LinkHeader(base, tt.total)
			for _, w := range tt.want {
				if !strings.Contains(h, w) {
					t.Errorf("expected %q in %q", w, h)
				}
			}
			if !strings.Contains(h, "active=true") {
				t.Errorf("expected filters preserved in %q", h)
			}
		})
	}

	if h := (Params{Limit: 10}).LinkHeader(base, 3); h != "" {
		t.Errorf("expected no links for a single page, got %q", h)
	}
}

func TestWrite(t *testing.T) {
	c, rec := newContext("/items?limit=1")
	p := FromContext(c)
	if err := Write(c, http.StatusOK, []int{1}, p, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Header().Get("Link"), `rel="next"`) {
		t.Errorf("expected next link, got %q", rec.Header().Get("Link"))
	}
	var body Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 2 || !body.HasMore {
		t.Errorf("unexpected body %+v", body)
	}
}
