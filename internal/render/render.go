// Package render turns movie records into display cards.
package render

import (
	"strconv"
	"strings"

	"movie-quiz-service/internal/domain"
)

// PosterBaseURL prefixes relative poster paths.
const PosterBaseURL = "https://image.tmdb.org/t/p/w500"

const notAvailable = "N/A"

// Card is the display model of a movie.
type Card struct {
	Title     string          `json:"title"`
	Year      string          `json:"year"`
	Rating    string          `json:"rating"`
	Overview  string          `json:"overview"`
	PosterURL string          `json:"posterUrl,omitempty"`
	Genres    []string        `json:"genres,omitempty"`
	Providers []ProviderGroup `json:"providers,omitempty"`
}

// ProviderGroup lists providers offering the movie the same way.
type ProviderGroup struct {
	Kind  string   `json:"kind"`
	Label string   `json:"label"`
	Names []string `json:"names"`
}

func Render(m domain.MovieRecord) Card {
	card := Card{
		Title:     m.Title,
		Year:      year(m.ReleaseDate),
		Rating:    notAvailable,
		Overview:  strings.TrimSpace(m.Overview),
		PosterURL: posterURL(m.PosterPath),
		Genres:    m.Genres,
	}
	if m.VoteAverage != nil && *m.VoteAverage != 0 {
		card.Rating = "★ " + strconv.FormatFloat(*m.VoteAverage, 'f', 1, 64)
	}
	if card.Overview == "" {
		card.Overview = "No overview available"
	}
	if p := m.WatchProviders; p != nil {
		card.Providers = appendGroup(card.Providers, "flatrate", "Stream", p.Flatrate)
		card.Providers = appendGroup(card.Providers, "rent", "Rent", p.Rent)
		card.Providers = appendGroup(card.Providers, "buy", "Buy", p.Buy)
	}
	return card
}

func RenderAll(movies []domain.MovieRecord) []Card {
	cards := make([]Card, 0, len(movies))
	for _, m := range movies {
		cards = append(cards, Render(m))
	}
	return cards
}

// year takes the leading four-digit year of a release date.
func year(releaseDate string) string {
	releaseDate = strings.TrimSpace(releaseDate)
	if len(releaseDate) < 4 {
		return notAvailable
	}
	for i := 0; i < 4; i++ {
		if releaseDate[i] < '0' || releaseDate[i] > '9' {
			return notAvailable
		}
	}
	return releaseDate[:4]
}

func posterURL(path string) string {
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	case strings.HasPrefix(path, "/"):
		return PosterBaseURL + path
	}
	return PosterBaseURL + "/" + path
}

func appendGroup(groups []ProviderGroup, kind, label string, entries []domain.ProviderEntry) []ProviderGroup {
	if len(entries) == 0 {
		return groups
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return append(groups, ProviderGroup{Kind: kind, Label: label, Names: names})
}
