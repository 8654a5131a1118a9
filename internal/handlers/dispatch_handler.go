package handlers

import (
	"strconv"

	"medidispatch/internal/models"
	"medidispatch/internal/services"
	"medidispatch/internal/utils"
	"medidispatch/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DispatchHandler struct {
	dispatchService *services.DispatchService
}

func NewDispatchHandler(dispatchService *services.DispatchService) *DispatchHandler {
	return &DispatchHandler{
		dispatchService: dispatchService,
	}
}

// CreateEmergency registers a new emergency call
func (h *DispatchHandler) CreateEmergency(c *gin.Context) {
	var request validators.CreateEmergencyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateCreateEmergency(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	priority, err := models.ParseEmergencyPriority(request.Priority)
	if err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}
	hospitalID, err := primitive.ObjectIDFromHex(request.HospitalID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid hospital ID")
		return
	}

	emergency := &models.Emergency{
		CallerName:     request.CallerName,
		CallerPhone:    request.CallerPhone,
		Description:    request.Description,
		Priority:       priority,
		PatientLat:     request.PatientLat,
		PatientLng:     request.PatientLng,
		PatientAddress: request.PatientAddress,
		HospitalID:     hospitalID,
	}

	if err := h.dispatchService.CreateEmergency(c.Request.Context(), emergency); err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Emergency created", emergency)
}

// GetEmergency retrieves one emergency
func (h *DispatchHandler) GetEmergency(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid emergency ID")
		return
	}

	emergency, err := h.dispatchService.GetEmergency(c.Request.Context(), id)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Emergency retrieved", emergency)
}

// ListHospitalEmergencies lists a hospital's emergencies with pagination
func (h *DispatchHandler) ListHospitalEmergencies(c *gin.Context) {
	hospitalID, err := primitive.ObjectIDFromHex(c.Param("hospital_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid hospital ID")
		return
	}

	params := utils.GetPaginationParams(c)
	emergencies, total, err := h.dispatchService.ListHospitalEmergencies(c.Request.Context(), hospitalID, params)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, "Emergencies retrieved", emergencies, params, total)
}

// FindCandidates ranks available ambulances for an emergency
func (h *DispatchHandler) FindCandidates(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid emergency ID")
		return
	}

	candidates, err := h.dispatchService.FindCandidates(c.Request.Context(), id)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Candidates ranked", candidates)
}

// Assign dispatches an ambulance to an emergency
func (h *DispatchHandler) Assign(c *gin.Context) {
	emergencyID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid emergency ID")
		return
	}

	var request validators.AssignRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateAssign(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	input := &services.AssignInput{
		EmergencyID: emergencyID,
		ActorID:     request.ActorID,
		ActorName:   request.ActorName,
		Source:      request.Source,
	}
	if request.AmbulanceID != "" {
		ambulanceID, err := primitive.ObjectIDFromHex(request.AmbulanceID)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid ambulance ID")
			return
		}
		input.AmbulanceID = ambulanceID
	}
	if request.DriverID != "" {
		driverID, err := primitive.ObjectIDFromHex(request.DriverID)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid driver ID")
			return
		}
		input.DriverID = driverID
	}

	result, err := h.dispatchService.Assign(c.Request.Context(), input)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Ambulance assigned", result)
}

// Cancel aborts an emergency
func (h *DispatchHandler) Cancel(c *gin.Context) {
	emergencyID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid emergency ID")
		return
	}

	var request validators.CancelRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateCancel(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	emergency, err := h.dispatchService.Cancel(c.Request.Context(), &services.CancelInput{
		EmergencyID: emergencyID,
		Reason:      request.Reason,
		ActorID:     request.ActorID,
		ActorName:   request.ActorName,
		Source:      request.Source,
	})
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Emergency cancelled", emergency)
}

// Complete closes an emergency
func (h *DispatchHandler) Complete(c *gin.Context) {
	emergencyID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid emergency ID")
		return
	}

	var request validators.CompleteRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateComplete(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	emergency, err := h.dispatchService.Complete(c.Request.Context(), &services.CompleteInput{
		EmergencyID:       emergencyID,
		CompletedBy:       request.CompletedBy,
		CompletedByName:   request.CompletedByName,
		Notes:             request.Notes,
		IsDriverInitiated: request.IsDriverInitiated,
	})
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Emergency completed", emergency)
}

// GetAuditTrail lists the audit entries for an emergency
func (h *DispatchHandler) GetAuditTrail(c *gin.Context) {
	emergencyID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid emergency ID")
		return
	}

	logs, err := h.dispatchService.GetEmergencyAuditTrail(c.Request.Context(), emergencyID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Audit trail retrieved", logs)
}

// GetRoute retrieves one route
func (h *DispatchHandler) GetRoute(c *gin.Context) {
	routeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid route ID")
		return
	}

	route, err := h.dispatchService.GetRoute(c.Request.Context(), routeID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	viewer := models.ActorRole(c.DefaultQuery("role", string(models.RoleDriver)))
	utils.SuccessResponse(c, "Route retrieved", gin.H{
		"route":        route,
		"status_label": route.Status.Describe(viewer),
	})
}

// UpdateRouteStatus applies a route lifecycle transition
func (h *DispatchHandler) UpdateRouteStatus(c *gin.Context) {
	routeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid route ID")
		return
	}

	var request validators.UpdateRouteStatusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateUpdateRouteStatus(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	status, err := models.ParseRouteStatus(request.Status)
	if err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	route, err := h.dispatchService.UpdateRouteStatus(c.Request.Context(), &services.UpdateRouteStatusInput{
		RouteID:     routeID,
		NewStatus:   status,
		ActorRole:   models.ActorRole(request.Role),
		OfficerID:   request.OfficerID,
		OfficerName: request.OfficerName,
		Notes:       request.Notes,
	})
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Route status updated", gin.H{
		"route":        route,
		"status_label": route.Status.Describe(models.ActorRole(request.Role)),
	})
}

// GetHospitalActiveRoutes lists routes the hospital dashboard tracks
func (h *DispatchHandler) GetHospitalActiveRoutes(c *gin.Context) {
	hospitalID, err := primitive.ObjectIDFromHex(c.Param("hospital_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid hospital ID")
		return
	}

	views, err := h.dispatchService.GetHospitalActiveRoutes(c.Request.Context(), hospitalID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Active routes retrieved", views)
}

// GetPolicePendingRoutes lists routes awaiting clearance
func (h *DispatchHandler) GetPolicePendingRoutes(c *gin.Context) {
	hospitalID, err := primitive.ObjectIDFromHex(c.Param("hospital_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid hospital ID")
		return
	}

	views, err := h.dispatchService.GetPolicePendingRoutes(c.Request.Context(), hospitalID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Pending clearance routes retrieved", views)
}

// GetPoliceActiveRoutes lists routes police cleared and are monitoring
func (h *DispatchHandler) GetPoliceActiveRoutes(c *gin.Context) {
	hospitalID, err := primitive.ObjectIDFromHex(c.Param("hospital_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid hospital ID")
		return
	}

	views, err := h.dispatchService.GetPoliceActiveRoutes(c.Request.Context(), hospitalID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Cleared routes retrieved", views)
}

// ListHospitalAmbulances lists a hospital's fleet with location staleness
func (h *DispatchHandler) ListHospitalAmbulances(c *gin.Context) {
	hospitalID, err := primitive.ObjectIDFromHex(c.Param("hospital_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid hospital ID")
		return
	}

	ambulances, err := h.dispatchService.ListHospitalAmbulances(c.Request.Context(), hospitalID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Ambulances retrieved", ambulances)
}

// GetDispatchQueue lists a hospital's unassigned emergencies in dispatch order
func (h *DispatchHandler) GetDispatchQueue(c *gin.Context) {
	hospitalID, err := primitive.ObjectIDFromHex(c.Param("hospital_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid hospital ID")
		return
	}

	emergencies, err := h.dispatchService.GetDispatchQueue(c.Request.Context(), hospitalID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Dispatch queue retrieved", emergencies)
}

// GetHospitalActiveEmergencies lists a hospital's open emergencies
func (h *DispatchHandler) GetHospitalActiveEmergencies(c *gin.Context) {
	hospitalID, err := primitive.ObjectIDFromHex(c.Param("hospital_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid hospital ID")
		return
	}

	emergencies, err := h.dispatchService.GetHospitalActiveEmergencies(c.Request.Context(), hospitalID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Active emergencies retrieved", emergencies)
}

// ListEmergenciesByStatus lists emergencies across hospitals filtered by status
func (h *DispatchHandler) ListEmergenciesByStatus(c *gin.Context) {
	status, err := models.ParseEmergencyStatus(c.Query("status"))
	if err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	params := utils.GetPaginationParams(c)
	emergencies, total, err := h.dispatchService.ListEmergenciesByStatus(c.Request.Context(), status, params)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, "Emergencies retrieved", emergencies, params, total)
}

// GetAmbulanceRoutes lists a unit's route history
func (h *DispatchHandler) GetAmbulanceRoutes(c *gin.Context) {
	ambulanceID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid ambulance ID")
		return
	}

	routesForUnit, err := h.dispatchService.GetAmbulanceRoutes(c.Request.Context(), ambulanceID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Routes retrieved", routesForUnit)
}

// GetAmbulanceAuditTrail lists recent audit entries involving a unit
func (h *DispatchHandler) GetAmbulanceAuditTrail(c *gin.Context) {
	ambulanceID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid ambulance ID")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, err := h.dispatchService.GetAmbulanceAuditTrail(c.Request.Context(), ambulanceID, limit)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Audit trail retrieved", logs)
}

// UpdateAmbulanceLocation refreshes a unit's GPS position
func (h *DispatchHandler) UpdateAmbulanceLocation(c *gin.Context) {
	ambulanceID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid ambulance ID")
		return
	}

	var request validators.LocationUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateLocationUpdate(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	if err := h.dispatchService.UpdateAmbulanceLocation(c.Request.Context(), ambulanceID, request.Latitude, request.Longitude); err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Location updated", nil)
}
