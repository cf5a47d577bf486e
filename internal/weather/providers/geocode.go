package providers

import (
	"fmt"

	"github.com/kelvins/geocoder"
)

// SpotAddress locates a forecast spot by postal address.
type SpotAddress struct {
	Street  string
	City    string
	Country string
}

// ResolveSpot geocodes addr with the Google geocoding API and returns its coordinates.
func ResolveSpot(apiKey string, addr SpotAddress) (lat, lon float64, err error) {
	geocoder.ApiKey = apiKey

	location, err := geocoder.Geocoding(geocoder.Address{
		Street:  addr.Street,
		City:    addr.City,
		Country: addr.Country,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("geocode %s, %s: %w", addr.City, addr.Country, err)
	}
	return location.Latitude, location.Longitude, nil
}
