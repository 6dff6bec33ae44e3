package resource

import (
	"net/http"
	"tahaworld/infras/otel"
	"tahaworld/internal/domains/resource/model"
	"tahaworld/internal/domains/resource/model/dto"
	"tahaworld/internal/domains/resource/service"
	"tahaworld/shared"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/failure"
	"tahaworld/shared/validator"
	"tahaworld/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Resource
	otel    otel.Otel
}

func New(service service.Resource, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/resources", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateResource)
		routerGroup.Get("/", handler.GetResources)
		routerGroup.Get("/{id}", handler.GetResourceByID)
		routerGroup.Patch("/{id}", handler.UpdateResource)
		routerGroup.Delete("/{id}", handler.DeleteResource)
	})
}

// CreateResource attaches a file, link or video to a consultation.
// @Summary Create a resource
// @Tags Resource
// @Accept multipart/form-data
// @Produce json
// @Param consultation_id formData string true "Consultation ID"
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param type formData string true "file, link or video"
// @Param url formData string false "Target of a link or video"
// @Param is_public formData boolean false "Visible without a booking"
// @Param file formData file false "Upload for the file type (max 20 MB)"
// @Success 201 {object} response.Data[dto.ResourceResponse]
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/resources [post]
// @Security BearerAuth
func (handler *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateResource")
	defer scope.End()

	if err := r.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse multipart form")
		response.WithError(w, failure.BadRequest(err))

		return
	}

	req := dto.CreateResourceRequest{
		ConsultationID: r.FormValue(model.FieldConsultationID),
		Title:          r.FormValue(model.FieldTitle),
		Description:    r.FormValue(model.FieldDescription),
		Type:           r.FormValue(model.FieldType),
		URL:            r.FormValue(model.FieldURL),
	}

	if public := shared.ConvertStringToBool(r.FormValue(model.FieldIsPublic)); public != nil {
		req.IsPublic = *public
	}

	file, fileHeader, err := r.FormFile(constant.FormFile)
	if err == nil {
		req.File = fileHeader
		req.FileData = file

		defer file.Close()
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create resource")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Resource created")

	response.WithJSON(w, http.StatusCreated, res)
}

// GetResources lists the resources of a consultation. Private ones need a confirmed booking.
// @Summary Get resources of a consultation
// @Tags Resource
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param consultation_id query string true "Consultation ID"
// @Success 200 {object} gDto.Page[dto.ResourceResponse]
// @Failure 400 {object} response.Error
// @Router /v1/resources [get]
func (handler *Handler) GetResources(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetResources")
	defer scope.End()

	consultationID := r.URL.Query().Get(model.FieldConsultationID)
	if consultationID == constant.Empty {
		response.WithError(w, failure.BadRequestFromString("consultation_id is required"))

		return
	}

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	res, err := handler.service.GetAll(ctx, queryParams, consultationID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get resources")

		response.WithError(w, err)

		return
	}

	response.WithPage(w, http.StatusOK, res)
}

// GetResourceByID retrieves a resource.
// @Summary Get a resource by ID
// @Tags Resource
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Data[dto.ResourceResponse]
// @Failure 404 {object} response.Error
// @Router /v1/resources/{id} [get]
func (handler *Handler) GetResourceByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetResourceByID")
	defer scope.End()

	res, err := handler.service.Get(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get resource by ID")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// UpdateResource changes the metadata of a resource.
// @Summary Update a resource
// @Tags Resource
// @Accept json
// @Produce json
// @Param id path string true "Resource ID"
// @Param request body dto.UpdateResourceRequest true "Fields to change"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/resources/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateResource")
	defer scope.End()

	req := dto.UpdateResourceRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Update(ctx, req, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update resource")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Resource updated successfully")
}

// DeleteResource removes a resource and its stored file.
// @Summary Delete a resource
// @Tags Resource
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.Error
// @Router /v1/resources/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteResource")
	defer scope.End()

	if err := handler.service.Delete(ctx, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete resource")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Resource deleted successfully")
}
