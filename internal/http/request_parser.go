// Package http provides the JSON API server.
//
// This file implements helpers for decoding request bodies and query
// parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"propcrm/internal/core"
)

const (
	maxJSONBody  = 1 << 20
	maxPhotoBody = 10 << 20
)

var errEmptyBody = errors.New("request body is empty")

// DecodeJSON reads a single JSON object from the request body into dst.
// Unknown fields are rejected so typos in edit forms do not silently vanish.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON body: trailing data")
	}
	return nil
}

// QueueFilterFromQuery reads view, type and status. Unknown views fall back
// to all; an unknown type or status is an error.
func QueueFilterFromQuery(q url.Values) (core.QueueFilter, error) {
	f := core.QueueFilter{View: core.ParseView(strings.TrimSpace(q.Get("view")))}
	if v := strings.TrimSpace(q.Get("type")); v != "" && v != "all" {
		t, err := core.ParseListingType(v)
		if err != nil {
			return core.QueueFilter{}, err
		}
		f.Type = t
	}
	if v := strings.TrimSpace(q.Get("status")); v != "" && v != "all" {
		st, err := core.ParseStatus(v)
		if err != nil {
			return core.QueueFilter{}, err
		}
		f.Status = st
	}
	return f, nil
}

// TypeFromQuery returns the optional listing type filter.
func TypeFromQuery(q url.Values) (core.ListingType, error) {
	v := strings.TrimSpace(q.Get("type"))
	if v == "" || v == "all" {
		return "", nil
	}
	return core.ParseListingType(v)
}

// DateRangeFromQuery parses the required from/to calendar dates.
func DateRangeFromQuery(q url.Values) (core.Date, core.Date, error) {
	from, err := requiredDate(q, "from")
	if err != nil {
		return core.Date{}, core.Date{}, err
	}
	to, err := requiredDate(q, "to")
	if err != nil {
		return core.Date{}, core.Date{}, err
	}
	return from, to, nil
}

func requiredDate(q url.Values, key string) (core.Date, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return core.Date{}, fmt.Errorf("missing %s date", key)
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
