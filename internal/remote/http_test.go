package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"lab-radar.klederson.com/internal/geo"
	"lab-radar.klederson.com/internal/logger"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(srv.URL+"/data?token=abc", srv.Client(), logger.Discard())
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	return c
}

func TestFetchLabs(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("special") != "labs" || q.Get("token") != "abc" {
			t.Errorf("unexpected query %v", q)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"l1","title":"Dom","latitude":0,"longitude":0.001,"key_image_url":"http://img/1.jpg"}]`))
	})

	got, err := c.FetchLabs(context.Background(), geo.Coordinate{})
	if err != nil {
		t.Fatalf("FetchLabs: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d labs, want 1", len(got))
	}
	if got[0].ID != "l1" || got[0].KeyImageURL != "http://img/1.jpg" {
		t.Fatalf("lab = %+v", got[0])
	}
	if got[0].Distance < 111 || got[0].Distance > 112 {
		t.Fatalf("distance = %.2f, want ~111", got[0].Distance)
	}
}

func TestSubmitAnswerDecodesJournal(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("special") != "log" || q.Get("id") != "l1" || q.Get("code") != "42" {
			t.Errorf("unexpected query %v", q)
		}
		_, _ = w.Write([]byte(`{"Result":3,"JournalMessage":"well\ndone","rating":{"max":5}}`))
	})

	res, err := c.SubmitAnswer(context.Background(), "l1", "42")
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if res.Code != ResultCorrectAlt {
		t.Fatalf("code = %d, want 3", res.Code)
	}
	if !res.HasJournal() || res.JournalMessage != "well\ndone" {
		t.Fatalf("journal = %+v", res)
	}
	if !res.HasRating() {
		t.Fatal("rating not detected")
	}
}

func TestFetchDetailKeepsRawPayload(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"question":"How many towers?","extra":1}`))
	})

	d, err := c.FetchDetail(context.Background(), "l9")
	if err != nil {
		t.Fatalf("FetchDetail: %v", err)
	}
	if d.ID != "l9" || d.Question != "How many towers?" {
		t.Fatalf("detail = %+v", d)
	}
	if string(d.Raw) == "" {
		t.Fatal("raw payload missing")
	}
}

func TestSubmitReviewParams(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("special") != "ratings" || q.Get("id") != "adv-1" || q.Get("block_size") != "4" || q.Get("code") != "nice" {
			t.Errorf("unexpected query %v", q)
		}
		_, _ = w.Write([]byte(`{}`))
	})

	if err := c.SubmitReview(context.Background(), Review{AdventureID: "adv-1", Rating: 4, Text: "nice"}); err != nil {
		t.Fatalf("SubmitReview: %v", err)
	}
}

func TestStatusErrorIsRemoteError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})

	_, err := c.FetchUser(context.Background())
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %v, want *RemoteError", err)
	}
	if rerr.Status != http.StatusServiceUnavailable || rerr.Op != "fetch_user" {
		t.Fatalf("remote error = %+v", rerr)
	}
}

func TestNewHTTPClientRejectsRelativeURL(t *testing.T) {
	if _, err := NewHTTPClient("/data", nil, logger.Discard()); err == nil {
		t.Fatal("expected error for relative url")
	}
}
