package googleplaces

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextSearchRequiresKey(t *testing.T) {
	_, err := New("").TextSearch(context.Background(), "plumbers in Melbourne", 20)
	require.ErrorIs(t, err, ErrNoCredential)
}

func TestTextSearchSinglePage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/maps/api/place/textsearch/json", r.URL.Path)
		require.Equal(t, "plumbers in Melbourne", r.URL.Query().Get("query"))
		require.Equal(t, "test-key", r.URL.Query().Get("key"))
		io.WriteString(w, `{"status":"OK","results":[
			{"place_id":"p1","name":"Acme Plumbing","website":"https://acme.example",
			 "rating":4.5,"user_ratings_total":120,
			 "geometry":{"location":{"lat":-37.8,"lng":144.9}}},
			{"place_id":"p2","name":"No Site Plumbing"}
		]}`)
	}))
	defer ts.Close()

	places, err := NewWithBaseURL("test-key", ts.URL).TextSearch(context.Background(), "plumbers in Melbourne", 20)
	require.NoError(t, err)
	require.Len(t, places, 2)

	require.Equal(t, "p1", places[0].PlaceID)
	require.Equal(t, "https://acme.example", *places[0].Website)
	require.Equal(t, 4.5, *places[0].Rating)
	require.Equal(t, -37.8, *places[0].Lat)
	require.Equal(t, 144.9, *places[0].Lng)

	require.Nil(t, places[1].Website)
	require.Nil(t, places[1].Lat)
}

func TestTextSearchPagination(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch r.URL.Query().Get("pagetoken") {
		case "":
			io.WriteString(w, `{"status":"OK","next_page_token":"page2","results":[
				{"place_id":"p1","name":"One"}]}`)
		case "page2":
			require.Empty(t, r.URL.Query().Get("query"))
			io.WriteString(w, `{"status":"OK","results":[{"place_id":"p2","name":"Two"}]}`)
		default:
			t.Errorf("unexpected pagetoken %q", r.URL.Query().Get("pagetoken"))
		}
	}))
	defer ts.Close()

	places, err := NewWithBaseURL("test-key", ts.URL).TextSearch(context.Background(), "plumbers", 20)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Len(t, places, 2)
	require.Equal(t, "p2", places[1].PlaceID)
}

func TestTextSearchStopsAtMaxResults(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprintf(w, `{"status":"OK","next_page_token":"more","results":[
			{"place_id":"p%d-1","name":"a"},{"place_id":"p%d-2","name":"b"}]}`, calls, calls)
	}))
	defer ts.Close()

	places, err := NewWithBaseURL("test-key", ts.URL).TextSearch(context.Background(), "plumbers", 3)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Len(t, places, 3)
}

func TestTextSearchZeroResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"ZERO_RESULTS","results":[]}`)
	}))
	defer ts.Close()

	places, err := NewWithBaseURL("test-key", ts.URL).TextSearch(context.Background(), "nothing here", 20)
	require.NoError(t, err)
	require.Empty(t, places)
}

func TestTextSearchRequestDenied(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"REQUEST_DENIED","error_message":"billing disabled"}`)
	}))
	defer ts.Close()

	_, err := NewWithBaseURL("test-key", ts.URL).TextSearch(context.Background(), "plumbers", 20)
	require.Error(t, err)
	require.Contains(t, err.Error(), "request denied")
	require.Contains(t, err.Error(), "billing disabled")
}

func TestDetails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/maps/api/place/details/json", r.URL.Path)
		require.Equal(t, "p1", r.URL.Query().Get("place_id"))
		require.Equal(t, detailsFields, r.URL.Query().Get("fields"))
		io.WriteString(w, `{"status":"OK","result":
			{"place_id":"p1","name":"Acme Plumbing","formatted_phone_number":"03 9000 0000"}}`)
	}))
	defer ts.Close()

	place, err := NewWithBaseURL("test-key", ts.URL).Details(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "Acme Plumbing", place.Name)
	require.Equal(t, "03 9000 0000", *place.Phone)
}

func TestDetailsNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"NOT_FOUND"}`)
	}))
	defer ts.Close()

	_, err := NewWithBaseURL("test-key", ts.URL).Details(context.Background(), "missing")
	require.Error(t, err)
}
