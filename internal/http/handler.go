package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"surveillance-service/internal/http/middleware"
	"surveillance-service/internal/model"
	"surveillance-service/internal/repository"
	"surveillance-service/internal/service"
)

type Handler struct {
	cameraService *service.CameraService
	alertService  *service.AlertService
	userService   *service.UserService
	feedService   *service.FeedService
	log           zerolog.Logger
}

func NewHandler(
	cameraService *service.CameraService,
	alertService *service.AlertService,
	userService *service.UserService,
	feedService *service.FeedService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		cameraService: cameraService,
		alertService:  alertService,
		userService:   userService,
		feedService:   feedService,
		log:           log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	api := r.Group("/api/v1")
	api.Use(authMiddleware)

	cameras := api.Group("/cameras")
	{
		cameras.GET("", h.listCameras)
		cameras.GET("/near", h.findCamerasNear)
		cameras.GET("/:id", h.getCamera)
		cameras.POST("", h.createCamera)
		cameras.PATCH("/:id", h.updateCamera)
		cameras.PUT("/:id/status", h.setCameraStatus)
		cameras.DELETE("/:id", h.deleteCamera)
	}

	alerts := api.Group("/alerts")
	{
		alerts.GET("", h.listAlerts)
		alerts.GET("/:id", h.getAlert)
		alerts.POST("", h.createAlert)
		alerts.PATCH("/:id", h.updateAlert)
		alerts.PUT("/:id/resolve", h.resolveAlert)
		alerts.DELETE("/:id", h.deleteAlert)
	}

	users := api.Group("/users")
	{
		users.GET("", h.listUsers)
		users.GET("/:id", h.getUser)
		users.POST("", h.createUser)
	}

	feed := api.Group("/feed")
	{
		feed.GET("/cameras", h.listFeedCameras)
		feed.GET("/cameras/:id/status", h.getFeedCameraStatus)
		feed.GET("/cameras/:id/video", h.streamFeedVideo)
	}
}

func (h *Handler) createCamera(c *gin.Context) {
	var req struct {
		Name      string   `json:"name" binding:"required"`
		BankName  string   `json:"bank_name" binding:"required"`
		District  string   `json:"district" binding:"required"`
		Province  string   `json:"province" binding:"required"`
		Branch    string   `json:"branch" binding:"required"`
		Address   string   `json:"address" binding:"required"`
		Latitude  *float64 `json:"latitude" binding:"required"`
		Longitude *float64 `json:"longitude" binding:"required"`
		Status    *string  `json:"status"`
		StreamURL *string  `json:"stream_url"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.CreateCameraInput{
		Name:      req.Name,
		BankName:  req.BankName,
		District:  req.District,
		Province:  req.Province,
		Branch:    req.Branch,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		StreamURL: req.StreamURL,
	}
	if req.Status != nil {
		status := model.CameraStatus(*req.Status)
		input.Status = &status
	}

	camera, err := h.cameraService.Create(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(camera))
}

func (h *Handler) getCamera(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid camera id"))
		return
	}

	camera, err := h.cameraService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(camera))
}

func (h *Handler) listCameras(c *gin.Context) {
	cameras, err := h.cameraService.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(cameras))
}

func (h *Handler) findCamerasNear(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid latitude"))
		return
	}
	lng, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid longitude"))
		return
	}

	radius := 0.0
	if raw := c.Query("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid radius"))
			return
		}
	}

	cameras, err := h.cameraService.FindNear(c.Request.Context(), lat, lng, radius)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(cameras))
}

func (h *Handler) updateCamera(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid camera id"))
		return
	}

	var req struct {
		Name      *string  `json:"name"`
		BankName  *string  `json:"bank_name"`
		District  *string  `json:"district"`
		Province  *string  `json:"province"`
		Branch    *string  `json:"branch"`
		Address   *string  `json:"address"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		StreamURL *string  `json:"stream_url"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	camera, err := h.cameraService.Update(c.Request.Context(), id, service.UpdateCameraInput{
		Name:      req.Name,
		BankName:  req.BankName,
		District:  req.District,
		Province:  req.Province,
		Branch:    req.Branch,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		StreamURL: req.StreamURL,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(camera))
}

func (h *Handler) setCameraStatus(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid camera id"))
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	camera, err := h.cameraService.SetStatus(c.Request.Context(), id, model.CameraStatus(req.Status))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(camera))
}

func (h *Handler) deleteCamera(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid camera id"))
		return
	}

	if err := h.cameraService.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"deleted": id}))
}

func (h *Handler) createAlert(c *gin.Context) {
	var req struct {
		Type        string   `json:"type" binding:"required"`
		CameraID    string   `json:"camera_id" binding:"required"`
		Severity    *string  `json:"severity"`
		Description string   `json:"description"`
		Confidence  *float64 `json:"confidence"`
		ImagePath   *string  `json:"image_path"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.CreateAlertInput{
		Type:        model.AlertType(req.Type),
		CameraID:    req.CameraID,
		Description: req.Description,
		Confidence:  req.Confidence,
		ImagePath:   req.ImagePath,
	}
	if req.Severity != nil {
		severity := model.AlertSeverity(*req.Severity)
		input.Severity = &severity
	}

	alert, err := h.alertService.Create(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(alert))
}

func (h *Handler) getAlert(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid alert id"))
		return
	}

	alert, err := h.alertService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(alert))
}

func (h *Handler) listAlerts(c *gin.Context) {
	var filter repository.AlertListFilter

	if raw := c.Query("status"); raw != "" {
		status := model.AlertStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("type"); raw != "" {
		alertType := model.AlertType(raw)
		filter.Type = &alertType
	}
	if raw := c.Query("severity"); raw != "" {
		severity := model.AlertSeverity(raw)
		filter.Severity = &severity
	}
	if raw := c.Query("camera_id"); raw != "" {
		filter.CameraID = &raw
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, errorResponse("invalid limit"))
			return
		}
		filter.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, errorResponse("invalid offset"))
			return
		}
		filter.Offset = offset
	}

	alerts, err := h.alertService.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(alerts))
}

func (h *Handler) updateAlert(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid alert id"))
		return
	}

	var req struct {
		Type        *string  `json:"type"`
		Severity    *string  `json:"severity"`
		Description *string  `json:"description"`
		Confidence  *float64 `json:"confidence"`
		ImagePath   *string  `json:"image_path"`
		Status      *string  `json:"status"`
		ResolvedBy  *string  `json:"resolved_by"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.UpdateAlertInput{
		Description: req.Description,
		Confidence:  req.Confidence,
		ImagePath:   req.ImagePath,
		ResolvedBy:  req.ResolvedBy,
	}
	if req.Type != nil {
		alertType := model.AlertType(*req.Type)
		input.Type = &alertType
	}
	if req.Severity != nil {
		severity := model.AlertSeverity(*req.Severity)
		input.Severity = &severity
	}
	if req.Status != nil {
		status := model.AlertStatus(*req.Status)
		input.Status = &status
	}

	alert, err := h.alertService.Update(c.Request.Context(), id, input, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(alert))
}

func (h *Handler) resolveAlert(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid alert id"))
		return
	}

	alert, err := h.alertService.Resolve(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(alert))
}

func (h *Handler) deleteAlert(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}
	if !principal.IsAdmin() {
		c.JSON(http.StatusForbidden, errorResponse("admin role required"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid alert id"))
		return
	}

	if err := h.alertService.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"deleted": id}))
}

func (h *Handler) createUser(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Name     string `json:"name" binding:"required"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	user, err := h.userService.Create(c.Request.Context(), service.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(user))
}

func (h *Handler) getUser(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid user id"))
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(user))
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(users))
}

func (h *Handler) listFeedCameras(c *gin.Context) {
	cameras := h.feedService.ListCameras(c.Request.Context())
	c.JSON(http.StatusOK, successResponse(cameras))
}

func (h *Handler) getFeedCameraStatus(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid camera id"))
		return
	}

	status, err := h.feedService.CameraStatus(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(status))
}

// streamFeedVideo pipes the upstream video response through unmodified:
// every upstream header is copied over and bytes flow straight from the upstream
// body to the client. The request context carries client disconnects to the
// upstream request, and mid-stream upstream errors end the copy without a
// retry.
func (h *Handler) streamFeedVideo(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid camera id"))
		return
	}

	resp, err := h.feedService.OpenVideo(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer resp.Body.Close()

	for header, values := range resp.Header {
		for _, value := range values {
			c.Writer.Header().Add(header, value)
		}
	}
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		h.log.Debug().Err(err).Str("camera_id", id).Msg("video stream ended")
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidConfidence):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
	case errors.Is(err, service.ErrDuplicateIdentity):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrStorageUnavailable),
		errors.Is(err, service.ErrServiceUnavailable):
		c.JSON(http.StatusServiceUnavailable, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
