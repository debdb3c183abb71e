package listing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	logx "visawatch/pkg/logx"
)

func strp(s string) *string { return &s }

func defaultCriteria() Criteria {
	return Criteria{
		SourceCountry:    "Turkiye",
		MissionCountries: []string{"Austria", "Germany", "Italy"},
		Keywords:         []string{"turizm", "tourism", "touristic", "tourist", "short term standard"},
	}
}

func TestCriteriaMatch(t *testing.T) {
	t.Parallel()
	base := Entry{SourceCountry: "Turkiye", MissionCountry: "Austria", AppointmentDate: "2024-05-01", VisaSubcategory: strp("Tourism"), CenterName: "X"}
	tests := []struct {
		name string
		mod  func(e *Entry)
		want bool
	}{
		{name: "match", mod: func(*Entry) {}, want: true},
		{name: "case insensitive keyword", mod: func(e *Entry) { e.VisaSubcategory = strp("TURIZM VIZESI") }, want: true},
		{name: "short term standard", mod: func(e *Entry) { e.VisaSubcategory = strp("Short Term Standard Visa") }, want: true},
		{name: "other source", mod: func(e *Entry) { e.SourceCountry = "Greece" }, want: false},
		{name: "mission not allowed", mod: func(e *Entry) { e.MissionCountry = "France" }, want: false},
		{name: "empty date", mod: func(e *Entry) { e.AppointmentDate = "" }, want: false},
		{name: "nil subcategory", mod: func(e *Entry) { e.VisaSubcategory = nil }, want: false},
		{name: "business", mod: func(e *Entry) { e.VisaSubcategory = strp("Business") }, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := base
			tt.mod(&e)
			if got := defaultCriteria().Match(e); got != tt.want {
				t.Fatalf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterEmpty(t *testing.T) {
	t.Parallel()
	if got := defaultCriteria().Filter(nil); len(got) != 0 {
		t.Fatalf("Filter(nil) = %v", got)
	}
	if got := defaultCriteria().Filter([]Entry{}); len(got) != 0 {
		t.Fatalf("Filter([]) = %v", got)
	}
}

func TestFilterSortsStableByMissionCountry(t *testing.T) {
	t.Parallel()
	in := []Entry{
		{SourceCountry: "Turkiye", MissionCountry: "Italy", AppointmentDate: "d1", VisaSubcategory: strp("tourist"), CenterName: "i1"},
		{SourceCountry: "Turkiye", MissionCountry: "Austria", AppointmentDate: "d2", VisaSubcategory: strp("tourism"), CenterName: "a1"},
		{SourceCountry: "Turkiye", MissionCountry: "Germany", AppointmentDate: "d3", VisaSubcategory: strp("Business"), CenterName: "g0"},
		{SourceCountry: "Turkiye", MissionCountry: "Germany", AppointmentDate: "d4", VisaSubcategory: strp("touristic"), CenterName: "g1"},
		{SourceCountry: "Turkiye", MissionCountry: "Austria", AppointmentDate: "d5", VisaSubcategory: strp("Turizm"), CenterName: "a2"},
	}
	got := defaultCriteria().Filter(in)

	var names []string
	for _, e := range got {
		names = append(names, e.CenterName)
		if !defaultCriteria().Match(e) {
			t.Fatalf("non-matching entry in output: %+v", e)
		}
	}
	if strings.Join(names, ",") != "a1,a2,g1,i1" {
		t.Fatalf("order = %v", names)
	}
	if !sort.SliceIsSorted(got, func(i, j int) bool { return got[i].MissionCountry < got[j].MissionCountry }) {
		t.Fatal("output not sorted by mission country")
	}
	if in[0].CenterName != "i1" {
		t.Fatal("input slice was modified")
	}
}

func TestRender(t *testing.T) {
	t.Parallel()
	if got := Render(nil); got != "" {
		t.Fatalf("Render(nil) = %q", got)
	}
	got := Render([]Entry{
		{MissionCountry: "Austria", AppointmentDate: "2024-05-01", CenterName: "X"},
		{MissionCountry: "Germany", AppointmentDate: "2024-06-02", CenterName: "Y"},
	})
	want := "Austria, on date: 2024-05-01 X opened a tourist appointment\n" +
		"Germany, on date: 2024-06-02 Y opened a tourist appointment\n"
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func newTestFetcher(url string) *Fetcher {
	return NewFetcher(FetcherConfig{Endpoint: url, Timeout: 2 * time.Second}, nil, logx.Nop())
}

func TestFetchDecodesEntries(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"source_country":"Turkiye","mission_country":"Austria","appointment_date":"2024-05-01","visa_subcategory":"Tourism","center_name":"X","id":7},
			{"source_country":"Turkiye","mission_country":"Austria","appointment_date":null,"visa_subcategory":null,"center_name":"Y"}
		]`))
	}))
	defer srv.Close()

	got, err := newTestFetcher(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Subcategory() != "Tourism" || got[0].CenterName != "X" {
		t.Fatalf("entry 0 = %+v", got[0])
	}
	if got[1].VisaSubcategory != nil || got[1].AppointmentDate != "" {
		t.Fatalf("entry 1 nulls not preserved: %+v", got[1])
	}
}

func TestFetchFailuresYieldEmpty(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "status 500", handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{name: "bad json", handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"oops":`)) }},
		{name: "object not array", handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"a":1}`)) }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			got, err := newTestFetcher(srv.URL).Fetch(context.Background())
			if err == nil {
				t.Fatal("Fetch: expected error")
			}
			if got == nil || len(got) != 0 {
				t.Fatalf("Fetch() = %v, want empty non-nil slice", got)
			}
		})
	}
}

func TestFetchNetworkError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	got, err := newTestFetcher(url).Fetch(context.Background())
	if err == nil || len(got) != 0 {
		t.Fatalf("Fetch() = %v, %v", got, err)
	}
}
