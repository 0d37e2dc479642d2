package videos

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/filmdeck/filmdeck/internal/media"
	"github.com/filmdeck/filmdeck/internal/subtitle"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	// UpdateRequest is the PATCH body for a video; absent fields keep
	// their stored value.
	UpdateRequest struct {
		Title           *string `json:"title" validate:"omitempty,min=1"`
		DisplayTitle    *string `json:"display_title"`
		Thumbnail       *string `json:"thumbnail" validate:"omitempty,url"`
		Category        *string `json:"category"`
		Description     *string `json:"description"`
		Favorite        *bool   `json:"favorite"`
		Tags            *string `json:"tags"`
		Episodic        *bool   `json:"episodic"`
		SeriesTitle     *string `json:"series_title"`
		Season          *int    `json:"season" validate:"omitempty,min=0"`
		Episode         *int    `json:"episode" validate:"omitempty,min=0"`
		EpisodeOverview *string `json:"episode_overview"`
	}

	SubtitleDto struct {
		Path string `json:"path"`
	}

	DurationDto struct {
		Runtime string `json:"runtime"`
	}

	Store interface {
		ListVideos() ([]*media.Video, error)
		GetVideo(id string) (*media.Video, error)
		UpdateVideo(id string, update media.VideoUpdate) (*media.Video, error)
		DeleteVideo(id string) error
		RecordPlayback(id string) error
		ProbeRuntime(path string) (string, error)
	}

	Player interface {
		Play(path string) error
	}

	SubtitleFinder interface {
		FindForVideo(*media.Video) (string, error)
	}

	// Controller is responsible for defining the routes under the
	// videos group: the library listing and everything operating on a
	// single entry.
	Controller struct {
		validate  *validator.Validate
		store     Store
		player    Player
		subtitles SubtitleFinder
	}
)

func New(validate *validator.Validate, store Store, player Player, subtitles SubtitleFinder) *Controller {
	return &Controller{validate: validate, store: store, player: player, subtitles: subtitles}
}

// SetRoutes accepts the Echo group for the video endpoints and sets the
// routes on them.
func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.GET("/", controller.list)
	eg.GET("/:id/", controller.get)
	eg.PATCH("/:id/", controller.update)
	eg.DELETE("/:id/", controller.delete)
	eg.POST("/:id/play/", controller.play)
	eg.GET("/:id/duration/", controller.duration)
	eg.GET("/:id/subtitle/", controller.subtitle)
}

func (controller *Controller) list(ec echo.Context) error {
	videos, err := controller.store.ListVideos()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return ec.JSON(http.StatusOK, videos)
}

func (controller *Controller) get(ec echo.Context) error {
	video, err := controller.fetchVideo(ec)
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, video)
}

func (controller *Controller) update(ec echo.Context) error {
	id := ec.Param("id")

	var request UpdateRequest
	if err := ec.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("JSON body illegal: %v", err))
	}
	if err := controller.validate.Struct(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	video, err := controller.store.UpdateVideo(id, media.VideoUpdate{
		Title:           request.Title,
		DisplayTitle:    request.DisplayTitle,
		Thumbnail:       request.Thumbnail,
		Category:        request.Category,
		Description:     request.Description,
		Favorite:        request.Favorite,
		Tags:            request.Tags,
		Episodic:        request.Episodic,
		SeriesTitle:     request.SeriesTitle,
		Season:          request.Season,
		Episode:         request.Episode,
		EpisodeOverview: request.EpisodeOverview,
	})
	if err != nil {
		if errors.Is(err, media.ErrVideoNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return ec.JSON(http.StatusOK, video)
}

func (controller *Controller) delete(ec echo.Context) error {
	if err := controller.store.DeleteVideo(ec.Param("id")); err != nil {
		if errors.Is(err, media.ErrVideoNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return ec.NoContent(http.StatusOK)
}

// play launches the video in the configured player and records the
// playback against the entry.
func (controller *Controller) play(ec echo.Context) error {
	video, err := controller.fetchVideo(ec)
	if err != nil {
		return err
	}

	if err := controller.player.Play(video.Path); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := controller.store.RecordPlayback(video.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return ec.NoContent(http.StatusOK)
}

// duration re-reads the runtime from the file on disk, bypassing the
// stored value.
func (controller *Controller) duration(ec echo.Context) error {
	video, err := controller.fetchVideo(ec)
	if err != nil {
		return err
	}

	runtime, err := controller.store.ProbeRuntime(video.Path)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	return ec.JSON(http.StatusOK, DurationDto{Runtime: runtime})
}

func (controller *Controller) subtitle(ec echo.Context) error {
	video, err := controller.fetchVideo(ec)
	if err != nil {
		return err
	}

	path, err := controller.subtitles.FindForVideo(video)
	if err != nil {
		if errors.Is(err, subtitle.ErrNoSubtitleFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return ec.JSON(http.StatusOK, SubtitleDto{Path: path})
}

func (controller *Controller) fetchVideo(ec echo.Context) (*media.Video, error) {
	video, err := controller.store.GetVideo(ec.Param("id"))
	if err != nil {
		if errors.Is(err, media.ErrVideoNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound)
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return video, nil
}
