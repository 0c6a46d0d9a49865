package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cagomez/forecastbot/internal/models"
)

const successBody = `{
	"response": {"version": "0.1"},
	"forecast": {
		"simpleforecast": {
			"forecastday": [
				{
					"date": {"weekday_short": "Mon", "month": 6, "day": 30, "year": 2014},
					"conditions": "Clear",
					"high": {"fahrenheit": "88"},
					"low": {"fahrenheit": "65"}
				},
				{
					"date": {"weekday_short": "Tue", "month": 7, "day": 1, "year": 2014},
					"conditions": "Thunderstorm",
					"high": {"fahrenheit": 91},
					"low": {"fahrenheit": 70}
				}
			]
		}
	}
}`

const notFoundBody = `{
	"response": {
		"version": "0.1",
		"error": {"type": "querynotfound", "description": "No cities match your search query"}
	}
}`

const ambiguousBody = `{
	"response": {
		"version": "0.1",
		"results": [{"city": "Springfield", "state": "IL"}, {"city": "Springfield", "state": "MA"}]
	}
}`

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient("testkey")
	client.baseURL = srv.URL
	return client
}

func TestFetch_Success(t *testing.T) {
	var gotPath string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(successBody))
	})

	loc := models.Location{City: "Austin", State: "TX", Resolved: true}
	outcome, err := client.Fetch(context.Background(), loc)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if gotPath != "/api/testkey/forecast10day/q/TX/Austin.json" {
		t.Errorf("request path = %q", gotPath)
	}
	if outcome.Kind != models.OutcomeSuccess {
		t.Fatalf("Kind = %v, want OutcomeSuccess", outcome.Kind)
	}
	if len(outcome.Days) != 2 {
		t.Fatalf("len(Days) = %d, want 2", len(outcome.Days))
	}

	first := outcome.Days[0]
	if first.Weekday != "Mon" || first.Month != 6 || first.Day != 30 || first.Year != 2014 {
		t.Errorf("first day date = %+v", first)
	}
	if first.Conditions != "Clear" {
		t.Errorf("Conditions = %q, want Clear", first.Conditions)
	}
	if first.HighF != 88 || first.LowF != 65 {
		t.Errorf("string temps parsed as %d/%d, want 88/65", first.HighF, first.LowF)
	}

	// Second day carries numeric temps; both encodings must decode.
	second := outcome.Days[1]
	if second.HighF != 91 || second.LowF != 70 {
		t.Errorf("numeric temps parsed as %d/%d, want 91/70", second.HighF, second.LowF)
	}
}

func TestFetch_NotFound(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(notFoundBody))
	})

	loc := models.Location{City: "Nowhere", State: "KS", Resolved: true}
	outcome, err := client.Fetch(context.Background(), loc)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if outcome.Kind != models.OutcomeNotFound {
		t.Errorf("Kind = %v, want OutcomeNotFound", outcome.Kind)
	}
	if len(outcome.Days) != 0 {
		t.Errorf("Days = %v, want empty", outcome.Days)
	}
}

func TestFetch_Ambiguous(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ambiguousBody))
	})

	loc := models.Location{City: "Springfield", State: "IL", Resolved: true}
	outcome, err := client.Fetch(context.Background(), loc)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if outcome.Kind != models.OutcomeAmbiguous {
		t.Errorf("Kind = %v, want OutcomeAmbiguous", outcome.Kind)
	}
}

func TestFetch_CityWithSpacesIsEscaped(t *testing.T) {
	var gotPath string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(successBody))
	})

	loc := models.Location{City: "New York", State: "NY", Resolved: true}
	if _, err := client.Fetch(context.Background(), loc); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(gotPath, "New%20York.json") {
		t.Errorf("city not path-escaped: %q", gotPath)
	}
}

func TestFetch_HTTPError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	})

	loc := models.Location{City: "Austin", State: "TX", Resolved: true}
	if _, err := client.Fetch(context.Background(), loc); err == nil {
		t.Fatal("Fetch on 401 succeeded, want error")
	}
}

func TestFetch_MalformedJSON(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	loc := models.Location{City: "Austin", State: "TX", Resolved: true}
	if _, err := client.Fetch(context.Background(), loc); err == nil {
		t.Fatal("Fetch on malformed body succeeded, want error")
	}
}

func TestFetch_CapsAtTenDays(t *testing.T) {
	// Build a response with 12 forecast days.
	day := `{"date": {"weekday_short": "Mon", "month": 1, "day": 1, "year": 2015},
		"conditions": "Clear", "high": {"fahrenheit": "50"}, "low": {"fahrenheit": "30"}}`
	days := make([]string, 12)
	for i := range days {
		days[i] = day
	}
	body := `{"response": {}, "forecast": {"simpleforecast": {"forecastday": [` + strings.Join(days, ",") + `]}}}`

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	loc := models.Location{City: "Austin", State: "TX", Resolved: true}
	outcome, err := client.Fetch(context.Background(), loc)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(outcome.Days) != 10 {
		t.Errorf("len(Days) = %d, want 10", len(outcome.Days))
	}
}

func TestFlexInt(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{`"88"`, 88},
		{`88`, 88},
		{`"88.0"`, 88},
		{`""`, 0},
		{`null`, 0},
	}

	for _, tt := range tests {
		var f flexInt
		if err := f.UnmarshalJSON([]byte(tt.input)); err != nil {
			t.Errorf("UnmarshalJSON(%s): %v", tt.input, err)
			continue
		}
		if int(f) != tt.want {
			t.Errorf("UnmarshalJSON(%s) = %d, want %d", tt.input, int(f), tt.want)
		}
	}
}
