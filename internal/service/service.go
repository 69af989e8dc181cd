package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/williamchen0301-sh/my-weather-portfolio/internal/client"
	"github.com/williamchen0301-sh/my-weather-portfolio/internal/models"
	"github.com/williamchen0301-sh/my-weather-portfolio/internal/observability"
	"github.com/williamchen0301-sh/my-weather-portfolio/internal/validation"
)

// WeatherService runs one lookup: resolve the city input, fetch from the provider,
// parse the reading. It holds no state between lookups.
type WeatherService struct {
	fetcher       client.WeatherFetcher
	defaultCity   string
	cityMaxLength int
	logger        *zap.Logger
	now           func() time.Time
}

// NewWeatherService creates a WeatherService. Blank city input is replaced by defaultCity.
// A nil logger is replaced by a no-op logger.
func NewWeatherService(fetcher client.WeatherFetcher, defaultCity string, cityMaxLength int, logger *zap.Logger) *WeatherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeatherService{
		fetcher:       fetcher,
		defaultCity:   defaultCity,
		cityMaxLength: cityMaxLength,
		logger:        logger,
		now:           time.Now,
	}
}

// Lookup fetches and parses current conditions for cityInput. It issues exactly one
// provider request for any non-blank input; only a configured maximum length can reject
// input first. Returned errors are the typed errors of package client, or
// validation.ErrCityTooLong when that limit is set.
func (s *WeatherService) Lookup(ctx context.Context, cityInput string) (models.WeatherReading, error) {
	start := s.now()

	city, err := validation.ResolveCity(cityInput, s.defaultCity, s.cityMaxLength)
	if err != nil {
		observability.RecordLookup("invalid_input")
		return models.WeatherReading{}, err
	}

	raw, err := s.fetcher.Fetch(ctx, city)
	if err != nil {
		return models.WeatherReading{}, s.fail(city, err)
	}

	reading, err := client.Parse(raw, s.now())
	if err != nil {
		return models.WeatherReading{}, s.fail(city, err)
	}

	observability.RecordLookup("success")
	s.logger.Debug("weather lookup",
		zap.String("query", city),
		zap.String("city", reading.CityName),
		zap.Duration("duration", s.now().Sub(start)))
	return reading, nil
}

// fail counts and logs err. Failures are reported to the user by the UI, so they are
// only logged at debug level.
func (s *WeatherService) fail(city string, err error) error {
	category := client.CategorizeError(err)
	observability.RecordLookup(string(category))
	if !errors.Is(err, context.Canceled) {
		s.logger.Debug("weather lookup failed",
			zap.String("query", city),
			zap.String("category", string(category)),
			zap.Error(err))
	}
	return fmt.Errorf("lookup %q: %w", city, err)
}
