package backend

import (
	"encoding/json"
	"fmt"
	"strings"

	"movie-quiz-service/internal/domain"
)

// movieWire accepts the movie shapes seen from the backend and from TMDB.
type movieWire struct {
	Title          string            `json:"title"`
	Overview       string            `json:"overview"`
	ReleaseDate    string            `json:"release_date"`
	Year           json.RawMessage   `json:"year"`
	VoteAverage    *float64          `json:"vote_average"`
	PosterPath     string            `json:"poster_path"`
	Genres         []json.RawMessage `json:"genres"`
	WatchProviders *providersWire    `json:"watch_providers"`
}

type providersWire struct {
	Flatrate []json.RawMessage `json:"flatrate"`
	Rent     []json.RawMessage `json:"rent"`
	Buy      []json.RawMessage `json:"buy"`
}

func (w movieWire) record() domain.MovieRecord {
	rec := domain.MovieRecord{
		Title:       w.Title,
		Overview:    w.Overview,
		ReleaseDate: w.ReleaseDate,
		VoteAverage: w.VoteAverage,
		PosterPath:  w.PosterPath,
	}
	if rec.ReleaseDate == "" && !isNull(w.Year) {
		rec.ReleaseDate = strings.Trim(string(w.Year), `" `)
	}
	for _, raw := range w.Genres {
		if name := nameOf(raw, "name"); name != "" {
			rec.Genres = append(rec.Genres, name)
		}
	}
	if w.WatchProviders != nil {
		providers := domain.WatchProviders{
			Flatrate: providerEntries(w.WatchProviders.Flatrate),
			Rent:     providerEntries(w.WatchProviders.Rent),
			Buy:      providerEntries(w.WatchProviders.Buy),
		}
		if len(providers.Flatrate)+len(providers.Rent)+len(providers.Buy) > 0 {
			rec.WatchProviders = &providers
		}
	}
	return rec
}

// nameOf reads either a bare JSON string or the given field of an object.
func nameOf(raw json.RawMessage, field string) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	if v, ok := obj[field]; ok {
		_ = json.Unmarshal(v, &s)
	}
	return s
}

func providerEntries(raws []json.RawMessage) []domain.ProviderEntry {
	var out []domain.ProviderEntry
	for _, raw := range raws {
		var entry domain.ProviderEntry
		if err := json.Unmarshal(raw, &entry); err != nil || entry.Name == "" {
			entry = domain.ProviderEntry{Name: nameOf(raw, "provider_name")}
		}
		if entry.Name != "" {
			out = append(out, entry)
		}
	}
	return out
}

// decodeRecommendation turns a response into the movie variant: either a
// "recommendation" object or the movie fields at the top level.
func decodeRecommendation(op string, fields map[string]json.RawMessage) (domain.MovieRecord, error) {
	var wire movieWire
	if raw, ok := fields["recommendation"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &wire); err != nil {
			return domain.MovieRecord{}, &domain.CollaboratorError{Op: op, Kind: domain.ErrorKindDecode, Err: err}
		}
	} else {
		top, err := json.Marshal(fields)
		if err != nil {
			return domain.MovieRecord{}, &domain.CollaboratorError{Op: op, Kind: domain.ErrorKindDecode, Err: err}
		}
		if err := json.Unmarshal(top, &wire); err != nil {
			return domain.MovieRecord{}, &domain.CollaboratorError{Op: op, Kind: domain.ErrorKindDecode, Err: err}
		}
	}
	if wire.Title == "" {
		return domain.MovieRecord{}, &domain.CollaboratorError{Op: op, Kind: domain.ErrorKindDecode, Message: "response has no movie title"}
	}
	return wire.record(), nil
}

// decodeSearch reads the "movies" (or TMDB-style "results") list.
func decodeSearch(op string, fields map[string]json.RawMessage) ([]domain.MovieRecord, error) {
	raw, ok := fields["movies"]
	if !ok {
		raw, ok = fields["results"]
	}
	if !ok {
		return nil, &domain.CollaboratorError{Op: op, Kind: domain.ErrorKindDecode, Message: "response has no movie list"}
	}
	if isNull(raw) {
		return nil, nil
	}
	var wires []movieWire
	if err := json.Unmarshal(raw, &wires); err != nil {
		return nil, &domain.CollaboratorError{Op: op, Kind: domain.ErrorKindDecode, Err: fmt.Errorf("movie list: %w", err)}
	}
	out := make([]domain.MovieRecord, 0, len(wires))
	for _, w := range wires {
		if w.Title == "" {
			continue
		}
		out = append(out, w.record())
	}
	return out, nil
}
