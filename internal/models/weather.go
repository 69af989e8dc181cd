package models

import "time"

// WeatherReading is one parsed snapshot of current conditions for a city.
// It is built fresh for every lookup and replaced wholesale by the next one.
type WeatherReading struct {
	CityName        string    `json:"cityName"`
	TemperatureF    float64   `json:"temperatureF"`
	FeelsLikeF      float64   `json:"feelsLikeF"`
	Condition       string    `json:"condition"`
	HumidityPercent int       `json:"humidityPercent"`
	WindSpeedMph    float64   `json:"windSpeedMph"`
	RetrievedAt     time.Time `json:"retrievedAt"`
}

// UnknownCondition is shown when the provider returns no descriptions.
const UnknownCondition = "Unknown"
