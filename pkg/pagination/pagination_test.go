package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(query string) Params {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext(t *testing.T) {
	cases := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", DefaultLimit, 0},
		{"?limit=50&offset=10", 50, 10},
		{"?limit=0", DefaultLimit, 0},
		{"?limit=-5", DefaultLimit, 0},
		{"?limit=500", MaxLimit, 0},
		{"?offset=-3", DefaultLimit, 0},
		{"?limit=abc&offset=xyz", DefaultLimit, 0},
	}
	for _, tc := range cases {
		got := paramsFor(tc.query)
		if got.Limit != tc.wantLimit || got.Offset != tc.wantOffset {
			t.Errorf("%q: got %+v, want limit=%d offset=%d", tc.query, got, tc.wantLimit, tc.wantOffset)
		}
	}
}

func TestNewResponse(t *testing.T) {
	resp := NewResponse([]string{"a", "b"}, 10, 2, 0)
	if resp.Total != 10 || !resp.HasMore {
		t.Errorf("unexpected response: %+v", resp)
	}

	resp = NewResponse([]string{"a"}, 1, 20, 0)
	if resp.HasMore {
		t.Errorf("expected no more pages: %+v", resp)
	}
}

func TestParams_Paging(t *testing.T) {
	p := Params{Limit: 20, Offset: 40}
	if !p.HasNext(100) {
		t.Error("expected next page")
	}
	if p.HasNext(60) {
		t.Error("expected no next page")
	}
	if p.NextOffset() != 60 {
		t.Errorf("next offset: %d", p.NextOffset())
	}
}
