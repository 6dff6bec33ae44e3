package consultation

import (
	"net/http"
	"tahaworld/infras/otel"
	"tahaworld/internal/domains/consultation/model/dto"
	"tahaworld/internal/domains/consultation/service"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/validator"
	"tahaworld/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Consultation
	otel    otel.Otel
}

func New(service service.Consultation, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/consultations", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateConsultation)
		routerGroup.Get("/", handler.GetConsultations)
		routerGroup.Get("/{id}", handler.GetConsultationByID)
		routerGroup.Patch("/{id}", handler.UpdateConsultation)
		routerGroup.Delete("/{id}", handler.DeleteConsultation)
	})
}

// CreateConsultation handles the creation of a new consultation offering.
// @Summary Create a consultation
// @Description Create a bookable consultation with titles in Arabic and English. Prices are in minor units.
// @Tags Consultation
// @Accept json
// @Produce json
// @Param request body dto.CreateConsultationRequest true "Consultation"
// @Success 201 {object} response.Data[dto.ConsultationResponse]
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/consultations [post]
// @Security BearerAuth
func (handler *Handler) CreateConsultation(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateConsultation")
	defer scope.End()

	req := dto.CreateConsultationRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create consultation")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Consultation created")

	response.WithJSON(w, http.StatusCreated, res)
}

// GetConsultations lists consultations. Inactive ones are only listed for admins.
// @Summary Get all consultations
// @Tags Consultation
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param title query string false "Filter by title in either language"
// @Param type query string false "Filter by type"
// @Param currency query string false "Filter by currency"
// @Param active query boolean false "Filter by active status"
// @Success 200 {object} gDto.Page[dto.ConsultationResponse]
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/consultations [get]
func (handler *Handler) GetConsultations(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetConsultations")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	res, err := handler.service.GetAll(ctx, queryParams, dto.FilterFromQuery(r.URL.Query()))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get consultations")

		response.WithError(w, err)

		return
	}

	response.WithPage(w, http.StatusOK, res)
}

// GetConsultationByID retrieves a consultation.
// @Summary Get a consultation by ID
// @Tags Consultation
// @Produce json
// @Param id path string true "Consultation ID"
// @Success 200 {object} response.Data[dto.ConsultationResponse]
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/consultations/{id} [get]
func (handler *Handler) GetConsultationByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetConsultationByID")
	defer scope.End()

	res, err := handler.service.Get(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get consultation by ID")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// UpdateConsultation changes the given fields of a consultation.
// @Summary Update a consultation
// @Tags Consultation
// @Accept json
// @Produce json
// @Param id path string true "Consultation ID"
// @Param request body dto.UpdateConsultationRequest true "Fields to change"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/consultations/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateConsultation(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateConsultation")
	defer scope.End()

	req := dto.UpdateConsultationRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Update(ctx, req, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update consultation")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Consultation updated successfully")
}

// DeleteConsultation removes a consultation, or deactivates it when it has bookings.
// @Summary Delete a consultation
// @Tags Consultation
// @Produce json
// @Param id path string true "Consultation ID"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.Error
// @Router /v1/consultations/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteConsultation(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteConsultation")
	defer scope.End()

	softDeleted, err := handler.service.Delete(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete consultation")

		response.WithError(w, err)

		return
	}

	if softDeleted {
		response.WithMessage(w, http.StatusOK, "Consultation has bookings and was deactivated")

		return
	}

	response.WithMessage(w, http.StatusOK, "Consultation deleted successfully")
}
