package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/williamchen0301-sh/my-weather-portfolio/internal/models"
)

var errFieldMissing = errors.New("field missing")

type section struct {
	name   string
	fields map[string]json.RawMessage
}

// Parse extracts a WeatherReading from the "current" and "location" sections of raw.
// A missing or mistyped required key yields a *SchemaError naming that key.
func Parse(raw RawResponse, retrievedAt time.Time) (models.WeatherReading, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(raw, &root); err != nil {
		return models.WeatherReading{}, &SchemaError{Key: "response", Path: "response", Err: fmt.Errorf("parse response: %w", err)}
	}

	current, err := lookupSection(root, "current")
	if err != nil {
		return models.WeatherReading{}, err
	}
	location, err := lookupSection(root, "location")
	if err != nil {
		return models.WeatherReading{}, err
	}

	reading := models.WeatherReading{RetrievedAt: retrievedAt}
	if err := current.decode("temperature", &reading.TemperatureF); err != nil {
		return models.WeatherReading{}, err
	}
	if err := current.decode("feelslike", &reading.FeelsLikeF); err != nil {
		return models.WeatherReading{}, err
	}

	var descriptions []string
	if err := current.decode("weather_descriptions", &descriptions); err != nil {
		return models.WeatherReading{}, err
	}
	reading.Condition = models.UnknownCondition
	if len(descriptions) > 0 {
		reading.Condition = descriptions[0]
	}

	var humidity float64
	if err := current.decode("humidity", &humidity); err != nil {
		return models.WeatherReading{}, err
	}
	h := int(math.Round(humidity))
	if h < 0 || h > 100 {
		return models.WeatherReading{}, current.schemaError("humidity", fmt.Errorf("out of range: %v", humidity))
	}
	reading.HumidityPercent = h

	if err := current.decode("wind_speed", &reading.WindSpeedMph); err != nil {
		return models.WeatherReading{}, err
	}
	if err := location.decode("name", &reading.CityName); err != nil {
		return models.WeatherReading{}, err
	}
	return reading, nil
}

func lookupSection(root map[string]json.RawMessage, name string) (*section, error) {
	raw, ok := root[name]
	if !ok || isNull(raw) {
		return nil, &SchemaError{Key: name, Path: name, Err: errFieldMissing}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &SchemaError{Key: name, Path: name, Err: fmt.Errorf("expected object: %w", err)}
	}
	return &section{name: name, fields: fields}, nil
}

func (s *section) decode(key string, dst any) error {
	raw, ok := s.fields[key]
	if !ok || isNull(raw) {
		return s.schemaError(key, errFieldMissing)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return s.schemaError(key, fmt.Errorf("decode: %w", err))
	}
	return nil
}

func (s *section) schemaError(key string, err error) *SchemaError {
	return &SchemaError{Key: key, Path: s.name + "." + key, Err: err}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
