package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"glasscast/internal/weather"
)

type staticToken string

func (s staticToken) Token() (string, bool) {
	return string(s), s != ""
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New(ts.Client(), ts.URL, staticToken("test-token"))
}

func TestFetchWeatherDecodesSnapshot(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/data/weather/42", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{
			"reference_time": 1737370800,
			"sunrise_time": 1737350000,
			"clouds": 90,
			"wind": {"speed": 3.6, "deg": 200, "gust": 7.2},
			"humidity": 81,
			"pressure": {"press": 1016, "sea_level": 1016},
			"temperature": {"temp": 290.0, "temp_max": 292.0, "temp_min": 288.0, "feels_like": 289.4},
			"status": "Clouds",
			"detailed_status": "overcast clouds",
			"weather_code": 804,
			"weather_icon_name": "04d",
			"visibility_distance": 10000
		}`))
	})

	snapshot, err := c.FetchWeather(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, 290.0, snapshot.Temperature.Temp)
	require.Equal(t, "Clouds", snapshot.Status)
	require.Equal(t, 81, snapshot.Humidity)
	require.NotNil(t, snapshot.Wind.Gust)
	require.Equal(t, 7.2, *snapshot.Wind.Gust)
}

func TestFetchForecastEmptyBodyIsValid(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/data/forecast/42", r.URL.Path)
		w.Write([]byte(`[]`))
	})

	forecast, err := c.FetchForecast(context.Background(), 42)
	require.NoError(t, err)
	require.Empty(t, forecast)
}

func TestSearchCitiesDecodesPositionalTuples(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/data/search/New%20York", r.URL.EscapedPath())
		w.Write([]byte(`[["New York", 5128581], ["Newark", 5101798]]`))
	})

	candidates, err := c.SearchCities(context.Background(), "New York")
	require.NoError(t, err)
	require.Equal(t, []weather.CitySearchCandidate{
		{Name: "New York", CityID: 5128581},
		{Name: "Newark", CityID: 5101798},
	}, candidates)
}

func TestMarkFavoriteHitsAddFavoriteEndpoint(t *testing.T) {
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`true`))
	})

	require.NoError(t, c.MarkFavorite(context.Background(), 7))
	require.Equal(t, "/data/add_favorite/7", path)
}

func TestListFavoriteIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/data/favorites", r.URL.Path)
		w.Write([]byte(`[7, 42]`))
	})

	ids, err := c.ListFavoriteIDs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{7, 42}, ids)
}

func TestMissingCredentialFailsWithoutNetworkCall(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	c.creds = staticToken("")

	_, err := c.FetchWeather(context.Background(), 42)
	require.ErrorIs(t, err, errNoCredential)
	require.False(t, called)
}

func TestServerErrorSurfacesStatusAndBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	})

	_, err := c.FetchWeather(context.Background(), 42)
	require.ErrorIs(t, err, errUnexpected)
	require.Contains(t, err.Error(), "token expired")
}
