package certificate

import (
	"net/http"
	"tahaworld/infras/otel"
	"tahaworld/internal/domains/certificate/model/dto"
	"tahaworld/internal/domains/certificate/service"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/validator"
	"tahaworld/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Certificate
	otel    otel.Otel
}

func New(service service.Certificate, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/certificates", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.IssueCertificate)
		routerGroup.Get("/", handler.GetCertificates)
		routerGroup.Get("/mine", handler.GetMyCertificates)
		routerGroup.Get("/verify/{code}", handler.VerifyCertificate)
		routerGroup.Post("/{id}/revoke", handler.RevokeCertificate)
	})
}

// IssueCertificate awards a course certificate to a user.
// @Summary Issue a certificate
// @Tags Certificate
// @Accept json
// @Produce json
// @Param request body dto.IssueCertificateRequest true "Holder and course"
// @Success 201 {object} response.Data[dto.CertificateResponse]
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Already issued"
// @Router /v1/certificates [post]
// @Security BearerAuth
func (handler *Handler) IssueCertificate(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".IssueCertificate")
	defer scope.End()

	req := dto.IssueCertificateRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.Issue(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to issue certificate")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Certificate issued " + res.VerificationCode)

	response.WithJSON(w, http.StatusCreated, res)
}

// GetCertificates lists every issued certificate.
// @Summary Get all certificates
// @Tags Certificate
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param user_id query string false "Filter by holder"
// @Param course_id query string false "Filter by course"
// @Success 200 {object} gDto.Page[dto.CertificateResponse]
// @Router /v1/certificates [get]
// @Security BearerAuth
func (handler *Handler) GetCertificates(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetCertificates")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	res, err := handler.service.GetAll(ctx, queryParams, dto.FilterFromQuery(r.URL.Query()))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get certificates")

		response.WithError(w, err)

		return
	}

	response.WithPage(w, http.StatusOK, res)
}

// GetMyCertificates
// @Summary Get my certificates
// @Tags Certificate
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} gDto.Page[dto.CertificateResponse]
// @Router /v1/certificates/mine [get]
// @Security BearerAuth
func (handler *Handler) GetMyCertificates(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMyCertificates")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	res, err := handler.service.GetMine(ctx, queryParams)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get my certificates")

		response.WithError(w, err)

		return
	}

	response.WithPage(w, http.StatusOK, res)
}

// VerifyCertificate checks a verification code. Anyone holding the code may verify it.
// @Summary Verify a certificate
// @Tags Certificate
// @Produce json
// @Param code path string true "Verification code"
// @Success 200 {object} response.Data[dto.VerificationResponse]
// @Failure 404 {object} response.Error
// @Failure 410 {object} response.Error "Revoked"
// @Router /v1/certificates/verify/{code} [get]
func (handler *Handler) VerifyCertificate(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".VerifyCertificate")
	defer scope.End()

	res, err := handler.service.Verify(ctx, chi.URLParam(r, constant.RequestParamCode))
	if err != nil {
		scope.TraceError(err)
		log.Warn().Err(err).Msg("certificate verification failed")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// RevokeCertificate
// @Summary Revoke a certificate
// @Tags Certificate
// @Accept json
// @Produce json
// @Param id path string true "Certificate ID"
// @Param request body dto.RevokeCertificateRequest false "Reason"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Already revoked"
// @Router /v1/certificates/{id}/revoke [post]
// @Security BearerAuth
func (handler *Handler) RevokeCertificate(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RevokeCertificate")
	defer scope.End()

	req := dto.RevokeCertificateRequest{}

	if err := validator.ValidateOptional(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Revoke(ctx, req, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to revoke certificate")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Certificate revoked")
}
