package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/fanpulse/internal/domain/model"
)

var (
	errMissingFields = errors.New("id and sport are required")
	errPartialAnchor = errors.New("lat and lng must be given together")
)

func nowParam(r *http.Request, clock func() time.Time) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("now"))
	if raw == "" {
		return clock(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid now %q; must be RFC3339", raw)
	}
	return t, nil
}

func durationParam(r *http.Request, name string) (*time.Duration, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return &d, nil
}

// intParam returns def when name is absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q; must be an integer", name, raw)
	}
	return v, nil
}

func floatParam(r *http.Request, name string) (float64, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s %q; must be a number", name, raw)
	}
	return v, true, nil
}

// scopeParam reads date, region, city and competition. With defaultToday
// set, a missing date becomes the local date of now.
func scopeParam(r *http.Request, deps Dependencies, now time.Time, defaultToday bool) model.Scope {
	q := r.URL.Query()
	scope := model.Scope{
		Date:        strings.TrimSpace(q.Get("date")),
		Region:      strings.TrimSpace(q.Get("region")),
		City:        strings.TrimSpace(q.Get("city")),
		Competition: strings.TrimSpace(q.Get("competition")),
	}
	if scope.Date == "" && defaultToday {
		scope.Date = deps.DateKey(scope.Region, now)
	}
	return scope
}

func anchorParam(r *http.Request) (*model.Location, error) {
	lat, hasLat, err := floatParam(r, "lat")
	if err != nil {
		return nil, err
	}
	lng, hasLng, err := floatParam(r, "lng")
	if err != nil {
		return nil, err
	}
	switch {
	case !hasLat && !hasLng:
		return nil, nil
	case hasLat != hasLng:
		return nil, errPartialAnchor
	}
	return &model.Location{Lat: lat, Lng: lng}, nil
}
