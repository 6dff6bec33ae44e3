package feedback

import (
	"net/http"
	"tahaworld/infras/otel"
	"tahaworld/internal/domains/feedback/model"
	"tahaworld/internal/domains/feedback/model/dto"
	"tahaworld/internal/domains/feedback/service"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/failure"
	"tahaworld/shared/validator"
	"tahaworld/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Feedback
	otel    otel.Otel
}

func New(service service.Feedback, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/feedback", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateFeedback)
		routerGroup.Get("/", handler.GetFeedback)
		routerGroup.Get("/summary", handler.GetSummary)
		routerGroup.Patch("/{id}", handler.UpdateFeedback)
		routerGroup.Delete("/{id}", handler.DeleteFeedback)
	})
}

// CreateFeedback rates a completed booking. Each booking can be rated once.
// @Summary Leave feedback
// @Tags Feedback
// @Accept json
// @Produce json
// @Param request body dto.CreateFeedbackRequest true "Rating and comment"
// @Success 201 {object} response.Data[dto.FeedbackResponse]
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Booking not completed or already rated"
// @Router /v1/feedback [post]
// @Security BearerAuth
func (handler *Handler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateFeedback")
	defer scope.End()

	req := dto.CreateFeedbackRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create feedback")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusCreated, res)
}

// GetFeedback lists feedback, newest first unless sorted otherwise.
// @Summary Get feedback
// @Tags Feedback
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param consultation_id query string false "Filter by consultation"
// @Param user_id query string false "Filter by author"
// @Param rating query integer false "Filter by rating"
// @Success 200 {object} gDto.Page[dto.FeedbackResponse]
// @Failure 400 {object} response.Error
// @Router /v1/feedback [get]
func (handler *Handler) GetFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetFeedback")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	res, err := handler.service.GetAll(ctx, queryParams, dto.FilterFromQuery(r.URL.Query()))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get feedback")

		response.WithError(w, err)

		return
	}

	response.WithPage(w, http.StatusOK, res)
}

// GetSummary returns the average rating of a consultation.
// @Summary Get rating summary
// @Tags Feedback
// @Produce json
// @Param consultation_id query string true "Consultation ID"
// @Success 200 {object} response.Data[dto.SummaryResponse]
// @Failure 400 {object} response.Error
// @Router /v1/feedback/summary [get]
func (handler *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetFeedbackSummary")
	defer scope.End()

	consultationID := r.URL.Query().Get(model.FieldConsultationID)
	if consultationID == constant.Empty {
		response.WithError(w, failure.BadRequestFromString("consultation_id is required"))

		return
	}

	res, err := handler.service.Summary(ctx, consultationID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get feedback summary")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// UpdateFeedback lets the author change their rating or comment.
// @Summary Update feedback
// @Tags Feedback
// @Accept json
// @Produce json
// @Param id path string true "Feedback ID"
// @Param request body dto.UpdateFeedbackRequest true "Fields to change"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/feedback/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateFeedback")
	defer scope.End()

	req := dto.UpdateFeedbackRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Update(ctx, req, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update feedback")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Feedback updated successfully")
}

// DeleteFeedback removes feedback. Authors and admins may delete.
// @Summary Delete feedback
// @Tags Feedback
// @Produce json
// @Param id path string true "Feedback ID"
// @Success 200 {object} response.Message
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/feedback/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteFeedback")
	defer scope.End()

	if err := handler.service.Delete(ctx, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete feedback")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Feedback deleted successfully")
}
