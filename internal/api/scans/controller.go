package scans

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/filmdeck/filmdeck/internal/media"
	"github.com/filmdeck/filmdeck/internal/scan"
	"github.com/filmdeck/filmdeck/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type (
	ResolutionTypeWrapper struct{ Value scan.ResolutionType }
	ResolveTroubleRequest struct {
		Method  *ResolutionTypeWrapper `json:"method"`
		Context map[string]string      `json:"context"`
	}

	// ScanItemDto is the response used by endpoints that return
	// the items being scanned (e.g., list, get)
	ScanItemDto struct {
		Id       uuid.UUID           `json:"id"`
		Path     string              `json:"source_path"`
		State    ScanItemStateDto    `json:"state"`
		Trouble  *TroubleDto         `json:"trouble"`
		Metadata *media.FileMetadata `json:"file_metadata"`
	}

	ScanItemStateDto string
	TroubleTypeDto   string

	TroubleDto struct {
		Type                   TroubleTypeDto          `json:"type"`
		Message                string                  `json:"message"`
		Context                map[string]any          `json:"context"`
		AllowedResolutionTypes []ResolutionTypeWrapper `json:"allowed_resolution_types"`
	}

	ScanService interface {
		GetAllItems() []*scan.ScanItem
		GetItem(uuid.UUID) *scan.ScanItem
		RemoveItem(uuid.UUID) error
		DiscoverNewFiles()
		ResolveTroubledItem(itemID uuid.UUID, method scan.ResolutionType, context map[string]string) error
	}

	// Controller is the struct which is responsible for defining the
	// routes for this controller. Additionally, it holds the reference to
	// the service used to retrieve information about in-flight scans
	Controller struct {
		service ScanService
	}
)

var controllerLogger = logger.Get("ScansController")

const (
	IDLE        ScanItemStateDto = "IDLE"
	IMPORT_HOLD ScanItemStateDto = "IMPORT_HOLD"
	PROCESSING  ScanItemStateDto = "PROCESSING"
	TROUBLED    ScanItemStateDto = "TROUBLED"
	COMPLETE    ScanItemStateDto = "COMPLETE"

	METADATA_FAILURE     TroubleTypeDto = "METADATA_FAILURE"
	TMDB_FAILURE_UNKNOWN TroubleTypeDto = "TMDB_FAILURE_UNKNOWN"
	TMDB_FAILURE_MULTI   TroubleTypeDto = "TMDB_FAILURE_MULTI_RESULT"
	TMDB_FAILURE_NONE    TroubleTypeDto = "TMDB_FAILURE_NO_RESULT"
	DATABASE_FAILURE     TroubleTypeDto = "DATABASE_FAILURE"
	GENERIC_FAILURE      TroubleTypeDto = "GENERIC_FAILURE"
)

func New(validate *validator.Validate, serv ScanService) *Controller {
	return &Controller{service: serv}
}

// SetRoutes accepts the Echo group for the scan endpoints
// and sets the routes on them.
func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.GET("/", controller.list)
	eg.POST("/poll/", controller.performPoll)
	eg.GET("/:id/", controller.get)
	eg.DELETE("/:id/", controller.delete)
	eg.POST("/:id/trouble-resolution/", controller.postTroubleResolution)
}

// list returns all the scan items - represented as DTOs - from the underlying service.
func (controller *Controller) list(ec echo.Context) error {
	items := controller.service.GetAllItems()
	dtos := make([]*ScanItemDto, len(items))
	for k, v := range items {
		dtos[k] = NewDto(v)
	}

	return ec.JSON(http.StatusOK, dtos)
}

// get uses the 'id' path param from the context and retrieves the scan item from the
// underlying service. If found, a DTO representing the item is returned
func (controller *Controller) get(ec echo.Context) error {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Scan item ID is not a valid UUID")
	}

	item := controller.service.GetItem(id)
	if item == nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	return ec.JSON(http.StatusOK, NewDto(item))
}

// delete uses the 'id' path param from the context and retrieves the scan item from the
// underlying service. If found, the item is cancelled.
func (controller *Controller) delete(ec echo.Context) error {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Scan item ID is not a valid UUID")
	}

	if err := controller.service.RemoveItem(id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return ec.NoContent(http.StatusOK)
}

// postTroubleResolution uses the 'id' path param from the context and retrieves the scan
// item from the underlying service. If found, then an attempt to resolve the trouble will
// be made.
func (controller *Controller) postTroubleResolution(ec echo.Context) error {
	id, err := uuid.Parse(ec.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Scan item ID is not a valid UUID")
	}

	var request ResolveTroubleRequest
	if err := ec.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("JSON body illegal: %v", err))
	} else if request.Method == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "JSON body missing mandatory 'method' field")
	}

	if err := controller.service.ResolveTroubledItem(id, request.Method.Value, request.Context); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return ec.NoContent(http.StatusOK)
}

func (controller *Controller) performPoll(ec echo.Context) error {
	controller.service.DiscoverNewFiles()

	return ec.NoContent(http.StatusOK)
}

func (wrapper *ResolutionTypeWrapper) UnmarshalJSON(data []byte) error {
	var strValue string
	if err := json.Unmarshal(data, &strValue); err != nil {
		return err
	}

	switch strValue {
	case "abort":
		wrapper.Value = scan.ABORT
	case "specify_tmdb_id":
		wrapper.Value = scan.SPECIFY_TMDB_ID
	case "retry":
		wrapper.Value = scan.RETRY
	default:
		return fmt.Errorf("invalid enum value: %s for resolution method", strValue)
	}

	return nil
}

func (wrapper *ResolutionTypeWrapper) MarshalJSON() ([]byte, error) {
	switch wrapper.Value {
	case scan.ABORT:
		return json.Marshal("abort")
	case scan.SPECIFY_TMDB_ID:
		return json.Marshal("specify_tmdb_id")
	case scan.RETRY:
		return json.Marshal("retry")
	}

	return nil, fmt.Errorf("invalid enum value: %v for resolution method has no known marshalling", wrapper.Value)
}

// NewDto creates a ScanItemDto using the ScanItem model.
func NewDto(item *scan.ScanItem) *ScanItemDto {
	var trbl *TroubleDto = nil
	if item.Trouble != nil {
		context, err := ExtractTroubleContext(item.Trouble)
		if err != nil {
			context = map[string]any{
				"_error": "Context for this trouble may be missing. Consult server logs for more information",
			}
			controllerLogger.Emit(logger.ERROR, "Error whilst creating DTO of scan trouble: %v\n", err)
		}

		trbl = &TroubleDto{
			Type:                   TroubleTypeModelToDto(item.Trouble.Type()),
			Message:                item.Trouble.Error(),
			Context:                context,
			AllowedResolutionTypes: ExtractTroubleResolutionTypes(item.Trouble),
		}
	}

	return &ScanItemDto{
		Id:       item.ID,
		Path:     item.Path,
		State:    ScanItemStateModelToDto(item.State),
		Trouble:  trbl,
		Metadata: item.ScrapedMetadata,
	}
}

type TmdbChoiceDTO struct {
	TmdbId     json.Number `json:"tmdb_id"`
	Title      string      `json:"name"`
	Plot       string      `json:"overview"`
	PosterPath string      `json:"poster_url_path"`
}

func ExtractTroubleContext(trouble *scan.Trouble) (map[string]any, error) {
	switch trouble.Type() {
	case scan.TMDB_FAILURE_MULTI:
		// Return a context which contains the choices we could make. The client will be expected
		// to use the unique TMDB ID of the choice when resolving this trouble.
		modelChoices := trouble.GetTmdbChoices()
		if modelChoices == nil {
			return nil, fmt.Errorf("failed to extract trouble context for %s. Type mandates presence of context which is not present, resulting trouble context will be missing expected information", trouble)
		}
		dtoChoices := make([]TmdbChoiceDTO, 0)
		for _, v := range modelChoices {
			title := v.Title
			if title == "" {
				title = v.Name
			}
			dtoChoices = append(dtoChoices, TmdbChoiceDTO{TmdbId: v.Id, Title: title, Plot: v.Overview, PosterPath: v.PosterPath})
		}

		context := map[string]any{"choices": dtoChoices}
		return context, nil
	default:
		// Only multi-choice TMDB errors have context, all other scan errors are (at the moment)
		// context-free (i.e. the message and allowed actions alone should suffice).
		return map[string]any{}, nil
	}
}

func ExtractTroubleResolutionTypes(trouble *scan.Trouble) []ResolutionTypeWrapper {
	modelResTypes := trouble.AllowedResolutionTypes()
	dtoResTypes := make([]ResolutionTypeWrapper, len(modelResTypes))
	for k, v := range modelResTypes {
		dtoResTypes[k] = ResolutionTypeWrapper{Value: v}
	}

	return dtoResTypes
}

func TroubleTypeModelToDto(troubleType scan.TroubleType) TroubleTypeDto {
	switch troubleType {
	case scan.METADATA_FAILURE:
		return METADATA_FAILURE
	case scan.TMDB_FAILURE_UNKNOWN:
		return TMDB_FAILURE_UNKNOWN
	case scan.TMDB_FAILURE_NONE:
		return TMDB_FAILURE_NONE
	case scan.TMDB_FAILURE_MULTI:
		return TMDB_FAILURE_MULTI
	case scan.DATABASE_FAILURE:
		return DATABASE_FAILURE
	case scan.GENERIC_FAILURE:
		return GENERIC_FAILURE
	}

	panic(fmt.Sprintf("scan trouble type %s is not recognized by API layer, DTO cannot be created. Please report this error.", troubleType))
}

func ScanItemStateModelToDto(modelType scan.ScanItemState) ScanItemStateDto {
	switch modelType {
	case scan.IDLE:
		return IDLE
	case scan.IMPORT_HOLD:
		return IMPORT_HOLD
	case scan.PROCESSING:
		return PROCESSING
	case scan.TROUBLED:
		return TROUBLED
	case scan.COMPLETE:
		return COMPLETE
	}

	panic(fmt.Sprintf("scan state %s is not recognized by API layer, DTO cannot be created. Please report this error.", modelType))
}
