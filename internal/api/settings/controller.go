package settings

import (
	"fmt"
	"net/http"

	"github.com/filmdeck/filmdeck/internal/player"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	PlayerSettingsDto struct {
		PlayerPath string `json:"player_path" validate:"omitempty"`
		PlayerType string `json:"player_type" validate:"required,oneof=system custom"`
	}

	SettingsService interface {
		Current() player.Settings
		Update(player.Settings) error
	}

	// Controller is responsible for the routes exposing the mutable
	// application settings.
	Controller struct {
		validate *validator.Validate
		service  SettingsService
	}
)

func New(validate *validator.Validate, service SettingsService) *Controller {
	return &Controller{validate: validate, service: service}
}

// SetRoutes accepts the Echo group for the settings endpoints and sets
// the routes on them.
func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.GET("/player/", controller.getPlayer)
	eg.PUT("/player/", controller.updatePlayer)
}

func (controller *Controller) getPlayer(ec echo.Context) error {
	current := controller.service.Current()

	return ec.JSON(http.StatusOK, PlayerSettingsDto{
		PlayerPath: current.PlayerPath,
		PlayerType: current.PlayerType,
	})
}

func (controller *Controller) updatePlayer(ec echo.Context) error {
	var request PlayerSettingsDto
	if err := ec.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("JSON body illegal: %v", err))
	}
	if err := controller.validate.Struct(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if request.PlayerType == "custom" && request.PlayerPath == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "player_path is mandatory when player_type is 'custom'")
	}

	if err := controller.service.Update(player.Settings{
		PlayerPath: request.PlayerPath,
		PlayerType: request.PlayerType,
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return ec.JSON(http.StatusOK, request)
}
