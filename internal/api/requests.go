package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/unklstewy/whatdatplane/internal/apperr"
	"github.com/unklstewy/whatdatplane/pkg/coordinates"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator. Field names in messages come from the
// query tag.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			if name := f.Tag.Get("query"); name != "" {
				return name
			}
			return f.Name
		})
	})
	return validate
}

type pointQuery struct {
	Lat float64 `query:"lat" validate:"latitude"`
	Lon float64 `query:"lon" validate:"longitude"`
}

func (q pointQuery) point() coordinates.GeoPoint {
	return coordinates.GeoPoint{Latitude: q.Lat, Longitude: q.Lon}
}

type geocodeQuery struct {
	Address string `query:"address" validate:"required,max=512"`
}

type trackQuery struct {
	ICAO24 string `query:"icao24" validate:"required,hexadecimal,len=6"`
}

type photoQuery struct {
	ICAO24       string `query:"icao24" validate:"omitempty,hexadecimal,len=6"`
	Registration string `query:"registration" validate:"omitempty,max=16"`
}

func parsePointQuery(r *http.Request) (pointQuery, error) {
	q := r.URL.Query()
	rawLat, rawLon := strings.TrimSpace(q.Get("lat")), strings.TrimSpace(q.Get("lon"))
	if rawLat == "" || rawLon == "" {
		return pointQuery{}, apperr.Validation("lat and lon are required")
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return pointQuery{}, apperr.Validation("lat must be a number")
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return pointQuery{}, apperr.Validation("lon must be a number")
	}

	req := pointQuery{Lat: lat, Lon: lon}
	return req, validateStruct(req)
}

func parseGeocodeQuery(r *http.Request) (geocodeQuery, error) {
	req := geocodeQuery{Address: strings.TrimSpace(r.URL.Query().Get("address"))}
	return req, validateStruct(req)
}

func parseTrackQuery(r *http.Request) (trackQuery, error) {
	req := trackQuery{ICAO24: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("icao24")))}
	return req, validateStruct(req)
}

func parsePhotoQuery(r *http.Request) (photoQuery, error) {
	q := r.URL.Query()
	req := photoQuery{
		ICAO24:       strings.ToLower(strings.TrimSpace(q.Get("icao24"))),
		Registration: strings.ToUpper(strings.TrimSpace(q.Get("registration"))),
	}
	if req.ICAO24 == "" && req.Registration == "" {
		return req, apperr.Validation("icao24 or registration is required")
	}
	return req, validateStruct(req)
}

// validateStruct runs the validator and folds its field errors into one
// apperr.KindValidation error.
func validateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Validation("invalid request")
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperr.Validation("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "latitude":
		return fmt.Sprintf("%s must be between -90 and 90", fe.Field())
	case "longitude":
		return fmt.Sprintf("%s must be between -180 and 180", fe.Field())
	case "hexadecimal":
		return fmt.Sprintf("%s must be hexadecimal", fe.Field())
	case "len":
		return fmt.Sprintf("%s must be %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
