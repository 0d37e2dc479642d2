package tmdb

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/filmdeck/filmdeck/internal/media"
)

const (
	defaultBaseUrl = "https://api.themoviedb.org/3"
	posterBaseUrl  = "https://image.tmdb.org/t/p/w500"

	tmdbSearchMovieTemplate  = "%s/search/movie?query=%s&api_key=%s&language=%s"
	tmdbSearchSeriesTemplate = "%s/search/tv?query=%s&api_key=%s&language=%s"

	tmdbGetMovieTemplate   = "%s/movie/%s?api_key=%s&language=%s"
	tmdbGetSeriesTemplate  = "%s/tv/%s?api_key=%s&language=%s"
	tmdbGetEpisodeTemplate = "%s/tv/%s/season/%d/episode/%d?api_key=%s&language=%s"
	tmdbGenreListTemplate  = "%s/genre/movie/list?api_key=%s&language=%s"
)

type (
	Date struct{ time.Time }

	Config struct {
		ApiKey   string `yaml:"api_key" env:"TMDB_API_KEY"`
		Language string `yaml:"language" env:"TMDB_LANGUAGE" env-default:"en-US"`

		// BaseUrl overrides the TMDB API endpoint; tests point this at a
		// local server.
		BaseUrl string `yaml:"base_url" env:"TMDB_BASE_URL"`
	}

	SearchResult struct {
		Results      []SearchResultItem
		TotalPages   int `json:"total_pages"`
		TotalResults int `json:"total_results"`
	}

	SearchResultItem struct {
		Id            json.Number `json:"id"`
		Title         string      `json:"title"`
		Name          string      `json:"name"`
		OriginalTitle string      `json:"original_title"`
		Overview      string      `json:"overview"`
		PosterPath    string      `json:"poster_path"`
		VoteAverage   float64     `json:"vote_average"`
		GenreIds      []int64     `json:"genre_ids"`
		FirstAirDate  *Date       `json:"first_air_date"`
		ReleaseDate   *Date       `json:"release_date"`
	}

	Movie struct {
		Id            json.Number `json:"id"`
		Title         string      `json:"title"`
		OriginalTitle string      `json:"original_title"`
		Overview      string      `json:"overview"`
		ReleaseDate   string      `json:"release_date"`
		PosterPath    string      `json:"poster_path"`
		VoteAverage   float64     `json:"vote_average"`
		GenreIds      []int64     `json:"-"`
	}

	Episode struct {
		Id       json.Number `json:"id"`
		Name     string      `json:"name"`
		Overview string      `json:"overview"`
	}

	Series struct {
		Id       json.Number `json:"id"`
		Name     string      `json:"name"`
		Overview string      `json:"overview"`
	}

	Genre struct {
		Id   int64  `json:"id"`
		Name string `json:"name"`
	}

	genreListResult struct {
		Genres []Genre `json:"genres"`
	}

	// tmdbSearcher resolves scraped file metadata against the TMDB API.
	// See https://developer.themoviedb.org/reference/intro/getting-started
	// for information on the TMDB API.
	tmdbSearcher struct {
		config Config
	}
)

func NewSearcher(config Config) *tmdbSearcher {
	if config.BaseUrl == "" {
		config.BaseUrl = defaultBaseUrl
	}
	if config.Language == "" {
		config.Language = "en-US"
	}

	return &tmdbSearcher{config}
}

// SearchForMovie will search the TMDB API for a match using the
// provided file metadata. An error will be raised if:
//   - A query to TMDB fails
//   - A search returns zero results
//   - A search returns multiple results and the searcher cannot decide which is correct
func (searcher *tmdbSearcher) SearchForMovie(metadata *media.FileMetadata) (*Movie, error) {
	if metadata.Episodic {
		return nil, &IllegalRequestError{"metadata provided claims media is episodic, but request is searching for a movie"}
	}

	path := fmt.Sprintf(tmdbSearchMovieTemplate, searcher.config.BaseUrl, url.QueryEscape(metadata.Title), searcher.config.ApiKey, searcher.config.Language)
	var searchResult SearchResult
	if err := httpGetJsonResponse(path, &searchResult); err != nil {
		return nil, err
	}

	result, err := searcher.handleSearchResults(searchResult.Results, metadata)
	if err != nil {
		return nil, err
	}

	return result.toMovie(), nil
}

// SearchForSeries will search the TMDB API for the series matching the
// provided episodic file metadata.
func (searcher *tmdbSearcher) SearchForSeries(metadata *media.FileMetadata) (*Series, error) {
	if !metadata.Episodic {
		return nil, &IllegalRequestError{"metadata provided claims media is not-episodic, but request is searching for a series"}
	}

	path := fmt.Sprintf(tmdbSearchSeriesTemplate, searcher.config.BaseUrl, url.QueryEscape(metadata.Title), searcher.config.ApiKey, searcher.config.Language)
	var searchResult SearchResult
	if err := httpGetJsonResponse(path, &searchResult); err != nil {
		return nil, err
	}

	result, err := searcher.handleSearchResults(searchResult.Results, metadata)
	if err != nil {
		return nil, err
	}

	return &Series{Id: result.Id, Name: result.effectiveTitle(), Overview: result.Overview}, nil
}

// GetMovie will query the TMDB API for the movie with the provided string ID. This ID
// must be a valid TMDB ID, or else an error will be returned.
func (searcher *tmdbSearcher) GetMovie(movieId string) (*Movie, error) {
	path := fmt.Sprintf(tmdbGetMovieTemplate, searcher.config.BaseUrl, movieId, searcher.config.ApiKey, searcher.config.Language)
	var movie Movie
	if err := httpGetJsonResponse(path, &movie); err != nil {
		return nil, err
	}

	return &movie, nil
}

// GetSeries will query TMDB API for the series with the provided string ID. This ID
// must be a valid TMDB ID, or else an error will be returned.
func (searcher *tmdbSearcher) GetSeries(seriesId string) (*Series, error) {
	path := fmt.Sprintf(tmdbGetSeriesTemplate, searcher.config.BaseUrl, seriesId, searcher.config.ApiKey, searcher.config.Language)
	var series Series
	if err := httpGetJsonResponse(path, &series); err != nil {
		return nil, err
	}

	return &series, nil
}

// GetEpisode queries TMDB using the seriesID combined with the season and episode number. It is expected
// that the seriesID provided is a valid TMDB ID, else the request will fail.
func (searcher *tmdbSearcher) GetEpisode(seriesId string, seasonNumber int, episodeNumber int) (*Episode, error) {
	path := fmt.Sprintf(tmdbGetEpisodeTemplate, searcher.config.BaseUrl, seriesId, seasonNumber, episodeNumber, searcher.config.ApiKey, searcher.config.Language)
	var episode Episode
	if err := httpGetJsonResponse(path, &episode); err != nil {
		return nil, err
	}

	return &episode, nil
}

// ListGenres fetches the full movie genre table for the configured
// language.
func (searcher *tmdbSearcher) ListGenres() ([]Genre, error) {
	path := fmt.Sprintf(tmdbGenreListTemplate, searcher.config.BaseUrl, searcher.config.ApiKey, searcher.config.Language)
	var result genreListResult
	if err := httpGetJsonResponse(path, &result); err != nil {
		return nil, err
	}

	return result.Genres, nil
}

// handleSearchResults accepts a list of search stubs from TMDB and attempts
// to whittle them down to a singular result. To do so, the year and the
// title similarity of the results is taken in to consideration.
func (searcher *tmdbSearcher) handleSearchResults(results []SearchResultItem, metadata *media.FileMetadata) (*SearchResultItem, error) {
	if metadata.Year != nil {
		if metadata.Episodic {
			filterResultsInPlace(&results, metadata, func(resultDate time.Time, metadataDate time.Time) bool {
				return resultDate.Compare(metadataDate) >= 0
			})
		} else {
			filterResultsInPlace(&results, metadata, func(resultDate time.Time, metadataDate time.Time) bool {
				return resultDate.Compare(metadataDate) == 0
			})
		}
	}

	if len(results) == 1 {
		return &results[0], nil
	} else if len(results) == 0 {
		return nil, &NoResultError{}
	}

	metric := &metrics.Hamming{CaseSensitive: false}
	stringSimilarity := make([]float64, len(results))
	for i, res := range results {
		stringSimilarity[i] = strutil.Similarity(res.effectiveTitle(), metadata.Title, metric)
	}

	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return stringSimilarity[order[i]] > stringSimilarity[order[j]] })

	// Only accept the best match when it is a clear winner.
	if stringSimilarity[order[0]] > stringSimilarity[order[1]]+0.25 {
		return &results[order[0]], nil
	}

	return nil, &MultipleResultError{Results: results}
}

func (entry *SearchResultItem) effectiveTitle() string {
	if entry.Title != "" {
		return entry.Title
	}

	return entry.Name
}

func (entry *SearchResultItem) effectiveDate() *Date {
	if entry.FirstAirDate != nil {
		return entry.FirstAirDate
	}

	return entry.ReleaseDate
}

func (entry *SearchResultItem) toMovie() *Movie {
	releaseDate := ""
	if entry.ReleaseDate != nil {
		releaseDate = entry.ReleaseDate.Format(time.DateOnly)
	}

	return &Movie{
		Id:            entry.Id,
		Title:         entry.effectiveTitle(),
		OriginalTitle: entry.OriginalTitle,
		Overview:      entry.Overview,
		ReleaseDate:   releaseDate,
		PosterPath:    entry.PosterPath,
		VoteAverage:   entry.VoteAverage,
		GenreIds:      entry.GenreIds,
	}
}

// PosterURL resolves the relative poster path of this movie against the
// TMDB image host. An empty path yields an empty URL.
func (movie *Movie) PosterURL() string {
	if movie.PosterPath == "" {
		return ""
	}

	return posterBaseUrl + movie.PosterPath
}

// UnmarshalJSON parses the TMDB date format, treating the empty string
// the API uses for unreleased content as an absent date.
func (date *Date) UnmarshalJSON(dateBytes []byte) error {
	trimmedDateString := string(dateBytes[1 : len(dateBytes)-1])
	if trimmedDateString == "" {
		*date = Date{}
		return nil
	}

	parsed, err := time.Parse(time.DateOnly, trimmedDateString)
	if err != nil {
		return fmt.Errorf("cannot unmarshal Date due to error: %s", err.Error())
	}

	*date = Date{parsed}
	return nil
}

// filterResultsInPlace will filter the given array of results IN PLACE by modifying
// the provided slice and returning
func filterResultsInPlace(results *[]SearchResultItem, metadata *media.FileMetadata, filterFn func(dateFromResult time.Time, dateFromMetadata time.Time) bool) {
	timeFromYear := func(year int) time.Time {
		return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	yearFromMetadata := timeFromYear(*metadata.Year)
	insertionIndex := 0
	for _, v := range *results {
		date := v.effectiveDate()
		if date == nil {
			continue
		}

		if filterFn(timeFromYear(date.Year()), yearFromMetadata) {
			(*results)[insertionIndex] = v
			insertionIndex++
		}
	}

	*results = (*results)[:insertionIndex]
}

func httpGetJsonResponse(urlPath string, targetInterface interface{}) error {
	resp, err := http.Get(urlPath)
	if err != nil {
		return &UnknownRequestError{fmt.Sprintf("failed to perform GET(%s) to TMDB: %s", urlPath, err.Error())}
	}

	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		var tmdbError tmdbError
		if err := json.Unmarshal(respBody, &tmdbError); err != nil {
			return &FailedRequestError{httpCode: resp.StatusCode, message: "non-OK response could not be unmarshalled", tmdbCode: -1}
		}

		return &FailedRequestError{httpCode: resp.StatusCode, message: tmdbError.StatusMessage, tmdbCode: tmdbError.StatusCode}
	}

	if err != nil {
		return &UnknownRequestError{fmt.Sprintf("failed to read response body: %s", err.Error())}
	}

	if err := json.Unmarshal(respBody, targetInterface); err != nil {
		return &UnknownRequestError{fmt.Sprintf("response JSON could not be unmarshalled: %s", err.Error())}
	}

	return nil
}
