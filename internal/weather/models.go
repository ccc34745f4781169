package weather

import (
	"encoding/json"
	"errors"
	"time"
)

// WeatherSnapshot is a single immutable observation as returned by the
// backend. All values are stored as received (absolute units); unit
// conversion is a presentation concern.
type WeatherSnapshot struct {
	ReferenceTime      int64              `json:"reference_time"`
	SunsetTime         *int64             `json:"sunset_time,omitempty"`
	SunriseTime        int64              `json:"sunrise_time"`
	Clouds             int                `json:"clouds"`
	Rain               map[string]float64 `json:"rain,omitempty"`
	Snow               map[string]float64 `json:"snow,omitempty"`
	Wind               Wind               `json:"wind"`
	Humidity           int                `json:"humidity"`
	Pressure           Pressure           `json:"pressure"`
	Temperature        Temperature        `json:"temperature"`
	Status             string             `json:"status"`
	DetailedStatus     string             `json:"detailed_status"`
	WeatherCode        int                `json:"weather_code"`
	WeatherIconName    string             `json:"weather_icon_name"`
	VisibilityDistance int                `json:"visibility_distance"`
	Dewpoint           *float64           `json:"dewpoint,omitempty"`
	Humidex            *float64           `json:"humidex,omitempty"`
	HeatIndex          *float64           `json:"heat_index,omitempty"`
	UTCOffset          *int               `json:"utc_offset,omitempty"`
	UVI                *float64           `json:"uvi,omitempty"`
	PrecipProbability  *float64           `json:"precipitation_probability,omitempty"`
}

// Wind holds wind speed and direction.
type Wind struct {
	Speed float64  `json:"speed"`
	Deg   int      `json:"deg"`
	Gust  *float64 `json:"gust,omitempty"`
}

// Pressure holds surface and sea-level pressure.
type Pressure struct {
	Press    int `json:"press"`
	SeaLevel int `json:"sea_level"`
}

// Temperature is the temperature envelope of a snapshot.
type Temperature struct {
	Temp      float64  `json:"temp"`
	TempKF    *float64 `json:"temp_kf,omitempty"`
	TempMax   float64  `json:"temp_max"`
	TempMin   float64  `json:"temp_min"`
	FeelsLike float64  `json:"feels_like"`
}

// CityRecord is the unit of cache and sync: one city's latest fetched
// weather and forecast plus the favorite flag. A record is replaced
// wholesale on every successful fetch for the same id; fields are never
// merged individually.
type CityRecord struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	Weather     *WeatherSnapshot  `json:"weather,omitempty"`
	Forecast    []WeatherSnapshot `json:"forecast,omitempty"`
	LastUpdated time.Time         `json:"lastUpdated"`
	IsFavorite  bool              `json:"isFavorite"`
}

// CitySearchCandidate is one ranked result of a free-text city search.
// Transient: consumed immediately to drive a fetch or render suggestions,
// never persisted.
type CitySearchCandidate struct {
	Name   string
	CityID int
}

// The backend encodes search results as positional [name, cityId] tuples
// rather than keyed objects.
func (c *CitySearchCandidate) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) < 2 {
		return errors.New("city search candidate: expected [name, cityId] tuple")
	}
	if err := json.Unmarshal(tuple[0], &c.Name); err != nil {
		return err
	}
	return json.Unmarshal(tuple[1], &c.CityID)
}

func (c CitySearchCandidate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{c.Name, c.CityID})
}
