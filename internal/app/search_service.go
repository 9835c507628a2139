package app

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"movie-quiz-service/internal/domain"
)

// MaxSearchResults caps the records returned to the page.
const MaxSearchResults = 5

// Searcher is the external search collaborator.
type Searcher interface {
	Search(ctx context.Context, query string) ([]domain.MovieRecord, error)
}

// SearchService serves the free-text search path.
type SearchService struct {
	searcher Searcher
	logger   *zap.Logger
}

func NewSearchService(searcher Searcher, logger *zap.Logger) *SearchService {
	return &SearchService{searcher: searcher, logger: logger}
}

// Search trims the query, asks the collaborator and caps the result list.
func (s *SearchService) Search(ctx context.Context, query string) ([]domain.MovieRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	movies, err := s.searcher.Search(ctx, query)
	if err != nil {
		s.logger.Warn("search failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	if len(movies) > MaxSearchResults {
		movies = movies[:MaxSearchResults]
	}
	return movies, nil
}

// GoogleSearchURL builds the web-search link-out for a query. suffix is appended
// to the query text, e.g. "movie".
func GoogleSearchURL(query, suffix string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", domain.ErrEmptyQuery
	}
	if suffix != "" {
		query += " " + suffix
	}
	return "https://www.google.com/search?q=" + url.QueryEscape(query), nil
}
