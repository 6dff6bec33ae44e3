package timeslot

import (
	"net/http"
	"tahaworld/infras/otel"
	"tahaworld/internal/domains/timeslot/model"
	"tahaworld/internal/domains/timeslot/model/dto"
	"tahaworld/internal/domains/timeslot/service"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/failure"
	"tahaworld/shared/timezone"
	"tahaworld/shared/validator"
	"tahaworld/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.TimeSlot
	otel    otel.Otel
}

func New(service service.TimeSlot, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/slots", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateSlot)
		routerGroup.Post("/generate", handler.GenerateSlots)
		routerGroup.Get("/", handler.GetSlots)
		routerGroup.Get("/available", handler.GetAvailableSlots)
		routerGroup.Get("/{id}", handler.GetSlotByID)
		routerGroup.Patch("/{id}", handler.UpdateSlot)
		routerGroup.Delete("/{id}", handler.DeleteSlot)
	})
}

// CreateSlot opens a single slot. The end time follows from the consultation duration.
// @Summary Create a time slot
// @Tags TimeSlot
// @Accept json
// @Produce json
// @Param request body dto.CreateTimeSlotRequest true "Slot"
// @Success 201 {object} response.Data[dto.TimeSlotResponse]
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Overlaps an existing slot"
// @Router /v1/slots [post]
// @Security BearerAuth
func (handler *Handler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateSlot")
	defer scope.End()

	req := dto.CreateTimeSlotRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create time slot")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusCreated, res)
}

// GenerateSlots opens every slot of a recurring weekly schedule.
// @Summary Generate time slots
// @Description Slots colliding with existing ones are skipped and counted.
// @Tags TimeSlot
// @Accept json
// @Produce json
// @Param request body dto.GenerateTimeSlotsRequest true "Schedule"
// @Success 201 {object} response.Data[dto.GenerateTimeSlotsResponse]
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/slots/generate [post]
// @Security BearerAuth
func (handler *Handler) GenerateSlots(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GenerateSlots")
	defer scope.End()

	req := dto.GenerateTimeSlotsRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.Generate(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to generate time slots")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusCreated, res)
}

// GetSlots lists slots for administration, booked ones included.
// @Summary Get all time slots
// @Tags TimeSlot
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param consultation_id query string false "Filter by consultation"
// @Param is_available query boolean false "Filter by availability"
// @Success 200 {object} gDto.Page[dto.TimeSlotResponse]
// @Failure 400 {object} response.Error
// @Router /v1/slots [get]
// @Security BearerAuth
func (handler *Handler) GetSlots(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSlots")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	res, err := handler.service.GetAll(ctx, queryParams, dto.FilterFromQuery(r.URL.Query()))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get time slots")

		response.WithError(w, err)

		return
	}

	response.WithPage(w, http.StatusOK, res)
}

// GetAvailableSlots lists the open slots of a consultation in a date window.
// @Summary Get available time slots
// @Tags TimeSlot
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param consultation_id query string true "Consultation ID"
// @Param from query string false "First day, YYYY-MM-DD. Defaults to today"
// @Param to query string false "Last day, YYYY-MM-DD. Defaults to 30 days after from"
// @Success 200 {object} gDto.Page[dto.TimeSlotResponse]
// @Failure 400 {object} response.Error
// @Router /v1/slots/available [get]
func (handler *Handler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAvailableSlots")
	defer scope.End()

	query := r.URL.Query()

	consultationID := query.Get(model.FieldConsultationID)
	if consultationID == constant.Empty {
		response.WithError(w, failure.BadRequestFromString("consultation_id is required"))

		return
	}

	from, to, err := dto.AvailabilityWindow(query, timezone.Now())
	if err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	res, err := handler.service.GetAvailable(ctx, queryParams, consultationID, from, to)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get available time slots")

		response.WithError(w, err)

		return
	}

	response.WithPage(w, http.StatusOK, res)
}

// GetSlotByID retrieves a time slot.
// @Summary Get a time slot by ID
// @Tags TimeSlot
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Data[dto.TimeSlotResponse]
// @Failure 404 {object} response.Error
// @Router /v1/slots/{id} [get]
func (handler *Handler) GetSlotByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSlotByID")
	defer scope.End()

	res, err := handler.service.Get(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get time slot by ID")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// UpdateSlot moves an open slot to a new start time.
// @Summary Move a time slot
// @Tags TimeSlot
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param request body dto.UpdateTimeSlotRequest true "New start"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error "Slot is booked or would overlap"
// @Router /v1/slots/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateSlot")
	defer scope.End()

	req := dto.UpdateTimeSlotRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Update(ctx, req, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update time slot")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Time slot updated successfully")
}

// DeleteSlot removes an open slot.
// @Summary Delete a time slot
// @Tags TimeSlot
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Slot is booked"
// @Router /v1/slots/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteSlot")
	defer scope.End()

	if err := handler.service.Delete(ctx, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete time slot")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Time slot deleted successfully")
}
