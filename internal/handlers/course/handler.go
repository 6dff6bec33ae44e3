package course

import (
	"net/http"
	"tahaworld/infras/otel"
	"tahaworld/internal/domains/course/model"
	"tahaworld/internal/domains/course/model/dto"
	"tahaworld/internal/domains/course/service"
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
	service service.Course
	otel    otel.Otel
}

func New(service service.Course, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/courses", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateCourse)
		routerGroup.Get("/", handler.GetCourses)
		routerGroup.Get("/{id}", handler.GetCourseByID)
		routerGroup.Patch("/{id}", handler.UpdateCourse)
		routerGroup.Delete("/{id}", handler.DeleteCourse)
	})
}

// CreateCourse handles the creation of a new course.
// @Summary Create a course
// @Description Courses start as drafts unless published is set.
// @Tags Course
// @Accept multipart/form-data
// @Produce json
// @Param title_ar formData string true "Arabic title"
// @Param title_en formData string true "English title"
// @Param description_ar formData string false "Arabic description"
// @Param description_en formData string false "English description"
// @Param level formData string true "beginner, intermediate or advanced"
// @Param price formData integer false "Price in minor units"
// @Param currency formData string true "ISO 4217 currency"
// @Param published formData boolean false "Publish immediately"
// @Param thumbnail formData file false "Thumbnail image"
// @Success 201 {object} response.Data[dto.CourseResponse]
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/courses [post]
// @Security BearerAuth
func (handler *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateCourse")
	defer scope.End()

	if err := r.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse multipart form")
		response.WithError(w, failure.BadRequest(err))

		return
	}

	req := dto.CreateCourseRequest{
		TitleAr:       r.FormValue(model.FieldTitleAr),
		TitleEn:       r.FormValue(model.FieldTitleEn),
		DescriptionAr: r.FormValue(model.FieldDescriptionAr),
		DescriptionEn: r.FormValue(model.FieldDescriptionEn),
		Level:         r.FormValue(model.FieldLevel),
		Currency:      r.FormValue(model.FieldCurrency),
		Published:     shared.ConvertStringToBool(r.FormValue(model.FieldPublished)),
	}

	if price := shared.ConvertStringToInt64(r.FormValue(model.FieldPrice)); price != nil {
		req.Price = *price
	}

	file, fileHeader, err := r.FormFile(model.FieldThumbnail)
	if err == nil {
		req.Thumbnail = fileHeader
		req.ThumbnailFile = file

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
		log.Error().Err(err).Msg("failed to create course")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Course created by user " + user)

	response.WithJSON(w, http.StatusCreated, res)
}

// GetCourses lists courses. Drafts are only listed for admins.
// @Summary Get all courses
// @Tags Course
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param level query string false "Filter by level"
// @Param currency query string false "Filter by currency"
// @Success 200 {object} gDto.Page[dto.CourseResponse]
// @Failure 400 {object} response.Error
// @Router /v1/courses [get]
func (handler *Handler) GetCourses(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetCourses")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	res, err := handler.service.GetAll(ctx, queryParams, dto.FilterFromQuery(r.URL.Query()))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get courses")

		response.WithError(w, err)

		return
	}

	response.WithPage(w, http.StatusOK, res)
}

// GetCourseByID retrieves a course.
// @Summary Get a course by ID
// @Tags Course
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Data[dto.CourseResponse]
// @Failure 404 {object} response.Error
// @Router /v1/courses/{id} [get]
func (handler *Handler) GetCourseByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetCourseByID")
	defer scope.End()

	res, err := handler.service.Get(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get course by ID")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// UpdateCourse changes the submitted fields of a course. A new thumbnail replaces the stored one.
// @Summary Update a course
// @Tags Course
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Course ID"
// @Param title_ar formData string false "Arabic title"
// @Param title_en formData string false "English title"
// @Param description_ar formData string false "Arabic description"
// @Param description_en formData string false "English description"
// @Param level formData string false "beginner, intermediate or advanced"
// @Param price formData integer false "Price in minor units"
// @Param currency formData string false "ISO 4217 currency"
// @Param published formData boolean false "Published state"
// @Param thumbnail formData file false "Thumbnail image"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/courses/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateCourse")
	defer scope.End()

	if err := r.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse multipart form")
		response.WithError(w, failure.BadRequest(err))

		return
	}

	req := dto.UpdateCourseRequest{
		TitleAr:       formValue(r, model.FieldTitleAr),
		TitleEn:       formValue(r, model.FieldTitleEn),
		DescriptionAr: formValue(r, model.FieldDescriptionAr),
		DescriptionEn: formValue(r, model.FieldDescriptionEn),
		Level:         formValue(r, model.FieldLevel),
		Currency:      formValue(r, model.FieldCurrency),
		Price:         shared.ConvertStringToInt64(r.FormValue(model.FieldPrice)),
		Published:     shared.ConvertStringToBool(r.FormValue(model.FieldPublished)),
	}

	file, fileHeader, err := r.FormFile(model.FieldThumbnail)
	if err == nil {
		req.Thumbnail = fileHeader
		req.ThumbnailFile = file

		defer file.Close()
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Update(ctx, req, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update course")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Course updated successfully")
}

// DeleteCourse removes a course that has no issued certificates.
// @Summary Delete a course
// @Tags Course
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Course has issued certificates"
// @Router /v1/courses/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteCourse")
	defer scope.End()

	if err := handler.service.Delete(ctx, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete course")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Course deleted successfully")
}

// formValue returns nil for fields the form did not send.
func formValue(r *http.Request, key string) *string {
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}

	return &values[0]
}
