package services

import (
	"context"
	"fmt"
	"time"

	"medidispatch/internal/config"
	"medidispatch/internal/matching"
	"medidispatch/internal/models"
	"medidispatch/internal/repositories/interfaces"
	"medidispatch/internal/utils"
	"medidispatch/pkg/logger"
	"medidispatch/pkg/maps"
	"medidispatch/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DispatchService owns the assignment and route lifecycle. Every mutation of
// emergency, ambulance, and route state runs through a single storage
// transaction; routing-provider calls and notifications happen after commit
// and can only degrade the experience, never the booking.
type DispatchService struct {
	emergencyRepo interfaces.EmergencyRepository
	ambulanceRepo interfaces.AmbulanceRepository
	routeRepo     interfaces.RouteRepository
	auditRepo     interfaces.AuditLogRepository
	txRunner      interfaces.TxRunner
	routeProvider maps.RouteProvider
	notifier      Notifier
	hub           *websocket.Hub
	logger        *logger.Logger
	cfg           *config.DispatchConfig
}

func NewDispatchService(
	emergencyRepo interfaces.EmergencyRepository,
	ambulanceRepo interfaces.AmbulanceRepository,
	routeRepo interfaces.RouteRepository,
	auditRepo interfaces.AuditLogRepository,
	txRunner interfaces.TxRunner,
	routeProvider maps.RouteProvider,
	notifier Notifier,
	hub *websocket.Hub,
	log *logger.Logger,
	cfg *config.DispatchConfig,
) *DispatchService {
	return &DispatchService{
		emergencyRepo: emergencyRepo,
		ambulanceRepo: ambulanceRepo,
		routeRepo:     routeRepo,
		auditRepo:     auditRepo,
		txRunner:      txRunner,
		routeProvider: routeProvider,
		notifier:      notifier,
		hub:           hub,
		logger:        log,
		cfg:           cfg,
	}
}

type AssignInput struct {
	EmergencyID primitive.ObjectID
	// AmbulanceID pins the unit to dispatch. Zero means auto-select the best
	// candidate for the emergency's priority.
	AmbulanceID primitive.ObjectID
	// DriverID, when set, must match the unit's bound driver.
	DriverID  primitive.ObjectID
	ActorID   string
	ActorName string
	Source    string
}

type AssignResult struct {
	Emergency *models.Emergency `json:"emergency"`
	Ambulance *models.Ambulance `json:"ambulance"`
	Route     *models.Route     `json:"route"`
}

type CancelInput struct {
	EmergencyID primitive.ObjectID
	Reason      string
	ActorID     string
	ActorName   string
	Source      string
}

type CompleteInput struct {
	EmergencyID       primitive.ObjectID
	CompletedBy       string
	CompletedByName   string
	Notes             string
	IsDriverInitiated bool
}

type UpdateRouteStatusInput struct {
	RouteID     primitive.ObjectID
	NewStatus   models.RouteStatus
	ActorRole   models.ActorRole
	OfficerID   string
	OfficerName string
	Notes       string
}

// CreateEmergency registers a new incoming call as a pending emergency.
func (s *DispatchService) CreateEmergency(ctx context.Context, emergency *models.Emergency) error {
	emergency.Status = models.EmergencyStatusPending
	if err := s.emergencyRepo.Create(ctx, emergency); err != nil {
		return utils.NewInternalError("failed to create emergency", err)
	}

	s.logger.LogDispatchEvent(emergency.ID, "emergency_created", map[string]interface{}{
		"priority": emergency.Priority,
	})

	return nil
}

func (s *DispatchService) GetEmergency(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error) {
	return s.emergencyRepo.GetByID(ctx, id)
}

func (s *DispatchService) ListHospitalEmergencies(ctx context.Context, hospitalID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Emergency, int64, error) {
	return s.emergencyRepo.GetByHospitalID(ctx, hospitalID, params)
}

// FindCandidates ranks the hospital's available fleet against the patient
// location. Units without a live position, a bound driver, or a recent
// location report are excluded.
func (s *DispatchService) FindCandidates(ctx context.Context, emergencyID primitive.ObjectID) ([]matching.Candidate, error) {
	emergency, err := s.emergencyRepo.GetByID(ctx, emergencyID)
	if err != nil {
		return nil, err
	}
	if emergency.Status.IsTerminal() {
		return nil, utils.NewResourceUnavailableError("emergency is already closed")
	}

	ambulances, err := s.loadDispatchableAmbulances(ctx, emergency.HospitalID)
	if err != nil {
		return nil, err
	}

	return matching.Rank(emergency.PatientLat, emergency.PatientLng, ambulances), nil
}

// loadDispatchableAmbulances returns the hospital's available units with a
// fresh location report. A unit we cannot place on the map gets no ETA, so it
// never enters ranking.
func (s *DispatchService) loadDispatchableAmbulances(ctx context.Context, hospitalID primitive.ObjectID) ([]*models.Ambulance, error) {
	ambulances, err := s.ambulanceRepo.GetAvailableByHospitalID(ctx, hospitalID, s.cfg.CandidateLimit)
	if err != nil {
		return nil, utils.NewInternalError("failed to load available ambulances", err)
	}

	fresh := make([]*models.Ambulance, 0, len(ambulances))
	for _, amb := range ambulances {
		if amb.LocationStale(s.cfg.LocationStaleAfter) {
			continue
		}
		fresh = append(fresh, amb)
	}
	return fresh, nil
}

// Assign binds an ambulance to a pending emergency and flips it to on_duty in
// one transaction. Availability is re-checked inside the transaction; two
// dispatchers racing for the same unit cannot both win. The route document is
// materialized after commit, and only if the routing provider answers; a
// degraded provider leaves the binding standing with no route.
func (s *DispatchService) Assign(ctx context.Context, input *AssignInput) (*AssignResult, error) {
	ambulanceID := input.AmbulanceID
	if ambulanceID.IsZero() {
		selected, err := s.autoSelect(ctx, input.EmergencyID)
		if err != nil {
			return nil, err
		}
		ambulanceID = selected
	}

	result := &AssignResult{}

	err := s.txRunner.RunTransaction(ctx, func(ctx context.Context, tx interfaces.Tx) error {
		emergency, err := tx.GetEmergency(ctx, input.EmergencyID)
		if err != nil {
			return err
		}
		if emergency.Status.HasAssignment() {
			return utils.NewAlreadyAssignedError("emergency already has an assigned ambulance")
		}
		if emergency.Status.IsTerminal() {
			return utils.NewResourceUnavailableError("emergency is already closed")
		}

		ambulance, err := tx.GetAmbulance(ctx, ambulanceID)
		if err != nil {
			return err
		}
		if ambulance.Status != models.AmbulanceStatusAvailable || !ambulance.IsActive {
			return utils.NewResourceUnavailableError(
				fmt.Sprintf("ambulance %s is not available", ambulance.LicensePlate))
		}
		if !ambulance.HasDriver() {
			return utils.NewResourceUnavailableError(
				fmt.Sprintf("ambulance %s has no driver on duty", ambulance.LicensePlate))
		}
		if !ambulance.HasLocation() {
			return utils.NewResourceUnavailableError(
				fmt.Sprintf("ambulance %s has no known location", ambulance.LicensePlate))
		}
		if !input.DriverID.IsZero() && *ambulance.CurrentDriverID != input.DriverID {
			return utils.NewResourceUnavailableError(
				fmt.Sprintf("ambulance %s is bound to a different driver", ambulance.LicensePlate))
		}

		now := time.Now()
		distance := utils.CalculateDistanceMeters(
			emergency.PatientLat, emergency.PatientLng,
			*ambulance.Latitude, *ambulance.Longitude)
		etaMinutes := utils.EstimateETAMinutes(distance)
		estimatedArrival := now.Add(time.Duration(etaMinutes) * time.Minute)

		if err := tx.UpdateEmergency(ctx, emergency.ID, map[string]interface{}{
			"status":                   models.EmergencyStatusAssigned,
			"assigned_ambulance_id":    ambulance.ID,
			"assigned_driver_id":       ambulance.CurrentDriverID,
			"assigned_at":              now,
			"estimated_arrival":        estimatedArrival,
			"dispatch_distance_meters": distance,
			"dispatch_eta_minutes":     etaMinutes,
		}); err != nil {
			return err
		}

		if err := tx.UpdateAmbulance(ctx, ambulance.ID, map[string]interface{}{
			"status": models.AmbulanceStatusOnDuty,
		}); err != nil {
			return err
		}

		if err := tx.CreateAuditLog(ctx, &models.AuditLog{
			Action:      models.AuditActionAssign,
			EmergencyID: emergency.ID,
			AmbulanceID: ambulance.ID,
			DriverID:    ambulance.CurrentDriverID,
			ActorID:     input.ActorID,
			ActorName:   input.ActorName,
			Source:      input.Source,
		}); err != nil {
			return err
		}

		emergency.Status = models.EmergencyStatusAssigned
		emergency.AssignedAmbulance = &ambulance.ID
		emergency.AssignedDriver = ambulance.CurrentDriverID
		emergency.AssignedAt = &now
		emergency.EstimatedArrival = &estimatedArrival
		emergency.DispatchDistanceMeters = distance
		emergency.DispatchETAMinutes = etaMinutes

		result.Emergency = emergency
		result.Ambulance = ambulance
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Route = s.createRoute(ctx, result)

	fields := map[string]interface{}{
		"ambulance_id": result.Ambulance.ID.Hex(),
		"eta_minutes":  result.Emergency.DispatchETAMinutes,
	}
	if result.Route != nil {
		fields["route_id"] = result.Route.ID.Hex()
	}
	s.logger.LogDispatchEvent(result.Emergency.ID, "ambulance_assigned", fields)

	s.notifyAssigned(ctx, result)

	return result, nil
}

func (s *DispatchService) autoSelect(ctx context.Context, emergencyID primitive.ObjectID) (primitive.ObjectID, error) {
	emergency, err := s.emergencyRepo.GetByID(ctx, emergencyID)
	if err != nil {
		return primitive.NilObjectID, err
	}

	ambulances, err := s.loadDispatchableAmbulances(ctx, emergency.HospitalID)
	if err != nil {
		return primitive.NilObjectID, err
	}

	ranked := matching.Rank(emergency.PatientLat, emergency.PatientLng, ambulances)
	selected, err := matching.Select(emergency.Priority, ranked)
	if err != nil {
		return primitive.NilObjectID, utils.NewResourceUnavailableError("no dispatchable ambulance available")
	}

	return selected.Ambulance.ID, nil
}

// Cancel unwinds an assignment: the emergency returns to pending with every
// assignment field cleared, the ambulance goes back to available, and the
// active route is closed carrying the caller's reason. The emergency stays
// dispatchable afterwards.
func (s *DispatchService) Cancel(ctx context.Context, input *CancelInput) (*models.Emergency, error) {
	var (
		emergency      *models.Emergency
		releasedDriver *primitive.ObjectID
	)

	err := s.txRunner.RunTransaction(ctx, func(ctx context.Context, tx interfaces.Tx) error {
		var err error
		emergency, err = tx.GetEmergency(ctx, input.EmergencyID)
		if err != nil {
			return err
		}
		if emergency.Status.IsTerminal() {
			return utils.NewInvalidTransitionError(
				string(emergency.Status), string(models.EmergencyStatusPending))
		}

		if emergency.Status.HasAssignment() {
			reason := fmt.Sprintf("Route cancelled: %s", input.Reason)
			if err := s.releaseAssignment(ctx, tx, emergency, reason); err != nil {
				return err
			}
		}

		auditLog := &models.AuditLog{
			Action:      models.AuditActionCancel,
			EmergencyID: emergency.ID,
			ActorID:     input.ActorID,
			ActorName:   input.ActorName,
			Source:      input.Source,
			Notes:       input.Reason,
		}
		if emergency.AssignedAmbulance != nil {
			auditLog.AmbulanceID = *emergency.AssignedAmbulance
			auditLog.DriverID = emergency.AssignedDriver
		}

		if err := tx.UpdateEmergency(ctx, emergency.ID, map[string]interface{}{
			"status":                models.EmergencyStatusPending,
			"assigned_ambulance_id": nil,
			"assigned_driver_id":    nil,
			"assigned_at":           nil,
			"estimated_arrival":     nil,
			"route_id":              nil,
			"cancellation_reason":   input.Reason,
		}); err != nil {
			return err
		}

		if err := tx.CreateAuditLog(ctx, auditLog); err != nil {
			return err
		}

		releasedDriver = emergency.AssignedDriver

		emergency.Status = models.EmergencyStatusPending
		emergency.AssignedAmbulance = nil
		emergency.AssignedDriver = nil
		emergency.AssignedAt = nil
		emergency.EstimatedArrival = nil
		emergency.RouteID = nil
		emergency.CancellationReason = input.Reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogDispatchEvent(emergency.ID, "assignment_cancelled", map[string]interface{}{
		"reason": input.Reason,
	})

	s.notifyCancelled(ctx, emergency, releasedDriver, input.Reason)

	return emergency, nil
}

// Complete closes an emergency after the patient is delivered. The audit
// entry records who finished the run; driver-initiated completions are the
// normal path, hospital staff and the reconciler are the fallbacks.
func (s *DispatchService) Complete(ctx context.Context, input *CompleteInput) (*models.Emergency, error) {
	var emergency *models.Emergency

	err := s.txRunner.RunTransaction(ctx, func(ctx context.Context, tx interfaces.Tx) error {
		var err error
		emergency, err = tx.GetEmergency(ctx, input.EmergencyID)
		if err != nil {
			return err
		}
		if emergency.Status.IsTerminal() {
			return utils.NewInvalidTransitionError(
				string(emergency.Status), string(models.EmergencyStatusCompleted))
		}

		routeReason := "hospital staff completed"
		if input.IsDriverInitiated {
			routeReason = "driver arrival"
		}
		if emergency.Status.HasAssignment() {
			if err := s.releaseAssignment(ctx, tx, emergency, routeReason); err != nil {
				return err
			}
		}

		now := time.Now()
		if err := tx.UpdateEmergency(ctx, emergency.ID, map[string]interface{}{
			"status":            models.EmergencyStatusCompleted,
			"actual_arrival":    now,
			"completed_by":      input.CompletedBy,
			"completed_by_name": input.CompletedByName,
			"completion_notes":  input.Notes,
		}); err != nil {
			return err
		}

		source := "hospital"
		if input.IsDriverInitiated {
			source = "driver"
		}
		if input.CompletedBy == utils.SystemActorID {
			source = "system"
		}

		auditLog := &models.AuditLog{
			Action:      models.AuditActionComplete,
			EmergencyID: emergency.ID,
			ActorID:     input.CompletedBy,
			ActorName:   input.CompletedByName,
			Source:      source,
			Notes:       input.Notes,
		}
		if emergency.AssignedAmbulance != nil {
			auditLog.AmbulanceID = *emergency.AssignedAmbulance
			auditLog.DriverID = emergency.AssignedDriver
		}
		if err := tx.CreateAuditLog(ctx, auditLog); err != nil {
			return err
		}

		emergency.Status = models.EmergencyStatusCompleted
		emergency.ActualArrival = &now
		emergency.CompletedBy = input.CompletedBy
		emergency.CompletedByName = input.CompletedByName
		emergency.CompletionNotes = input.Notes
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogDispatchEvent(emergency.ID, "emergency_completed", map[string]interface{}{
		"completed_by":     input.CompletedBy,
		"driver_initiated": input.IsDriverInitiated,
	})

	s.notifyCompleted(ctx, emergency)

	return emergency, nil
}

// releaseAssignment returns the ambulance to the pool and closes the active
// route, if any. Called inside the cancel/complete transaction.
func (s *DispatchService) releaseAssignment(ctx context.Context, tx interfaces.Tx, emergency *models.Emergency, reason string) error {
	if emergency.AssignedAmbulance != nil {
		if err := tx.UpdateAmbulance(ctx, *emergency.AssignedAmbulance, map[string]interface{}{
			"status": models.AmbulanceStatusAvailable,
		}); err != nil {
			return err
		}
	}

	route, err := tx.GetActiveRouteForEmergency(ctx, emergency.ID)
	if err != nil {
		if utils.IsCode(err, utils.CodeNotFound) {
			return nil
		}
		return err
	}

	now := time.Now()
	return tx.UpdateRoute(ctx, route.ID, map[string]interface{}{
		"status":            models.RouteStatusCompleted,
		"status_updated_at": now,
		"completed_at":      now,
		"completion_reason": reason,
	})
}

// UpdateRouteStatus applies one transition of the route state machine.
// Invalid transitions are rejected without touching storage.
func (s *DispatchService) UpdateRouteStatus(ctx context.Context, input *UpdateRouteStatusInput) (*models.Route, error) {
	var route *models.Route

	err := s.txRunner.RunTransaction(ctx, func(ctx context.Context, tx interfaces.Tx) error {
		var err error
		route, err = tx.GetRoute(ctx, input.RouteID)
		if err != nil {
			return err
		}
		if !route.Status.CanTransitionTo(input.NewStatus) {
			return utils.NewInvalidTransitionError(string(route.Status), string(input.NewStatus))
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":            input.NewStatus,
			"status_updated_at": now,
		}

		if input.OfficerID != "" {
			updates["police_officer_id"] = input.OfficerID
			updates["police_officer_name"] = input.OfficerName
			route.PoliceOfficerID = input.OfficerID
			route.PoliceOfficerName = input.OfficerName
		}
		if input.Notes != "" {
			updates["police_notes"] = input.Notes
			route.PoliceNotes = input.Notes
		}

		switch input.NewStatus {
		case models.RouteStatusCleared:
			updates["cleared_at"] = now
			route.ClearedAt = &now
		case models.RouteStatusCompleted:
			updates["completed_at"] = now
			updates["completion_reason"] = "arrived"
			route.CompletedAt = &now
			route.CompletionReason = "arrived"
		}

		if err := tx.UpdateRoute(ctx, route.ID, updates); err != nil {
			return err
		}

		route.Status = input.NewStatus
		route.StatusUpdatedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogRouteEvent(route.ID, "status_changed", map[string]interface{}{
		"status":     route.Status,
		"actor_role": input.ActorRole,
	})

	s.broadcastRouteStatus(route, input.ActorRole)

	return route, nil
}

func (s *DispatchService) GetRoute(ctx context.Context, id primitive.ObjectID) (*models.Route, error) {
	return s.routeRepo.GetByID(ctx, id)
}

// RouteView pairs a route with the label its viewer should see. The stored
// status is shared; only the wording differs per role.
type RouteView struct {
	Route       *models.Route `json:"route"`
	StatusLabel string        `json:"status_label"`
}

func buildRouteViews(routes []*models.Route, viewer models.ActorRole) []RouteView {
	views := make([]RouteView, 0, len(routes))
	for _, route := range routes {
		views = append(views, RouteView{
			Route:       route,
			StatusLabel: route.Status.Describe(viewer),
		})
	}
	return views
}

// GetHospitalActiveRoutes lists routes the hospital dashboard tracks: units
// still driving plus units on a cleared corridor.
func (s *DispatchService) GetHospitalActiveRoutes(ctx context.Context, hospitalID primitive.ObjectID) ([]RouteView, error) {
	routes, err := s.routeRepo.GetByStatuses(ctx, hospitalID, models.RouteStatusesActiveForHospital())
	if err != nil {
		return nil, utils.NewInternalError("failed to load hospital routes", err)
	}
	return buildRouteViews(routes, models.RoleHospital), nil
}

// GetPolicePendingRoutes lists routes awaiting traffic clearance.
func (s *DispatchService) GetPolicePendingRoutes(ctx context.Context, hospitalID primitive.ObjectID) ([]RouteView, error) {
	routes, err := s.routeRepo.GetByStatuses(ctx, hospitalID, models.RouteStatusesPendingForPolice())
	if err != nil {
		return nil, utils.NewInternalError("failed to load pending routes", err)
	}
	return buildRouteViews(routes, models.RolePolice), nil
}

// GetPoliceActiveRoutes lists routes police have cleared and are monitoring.
func (s *DispatchService) GetPoliceActiveRoutes(ctx context.Context, hospitalID primitive.ObjectID) ([]RouteView, error) {
	routes, err := s.routeRepo.GetByStatuses(ctx, hospitalID, models.RouteStatusesActiveForPolice())
	if err != nil {
		return nil, utils.NewInternalError("failed to load cleared routes", err)
	}
	return buildRouteViews(routes, models.RolePolice), nil
}

// UpdateAmbulanceLocation refreshes a unit's position and pushes it to the
// hospital dashboard.
func (s *DispatchService) UpdateAmbulanceLocation(ctx context.Context, ambulanceID primitive.ObjectID, lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return utils.NewBadRequestError("coordinates out of range")
	}

	if err := s.ambulanceRepo.UpdateLocation(ctx, ambulanceID, lat, lng, time.Now()); err != nil {
		return err
	}

	if s.hub != nil {
		ambulance, err := s.ambulanceRepo.GetByID(ctx, ambulanceID)
		if err == nil {
			s.hub.SendToHospital(ambulance.HospitalID, websocket.Message{
				Type: "ambulance_location",
				Data: map[string]interface{}{
					"ambulance_id": ambulanceID.Hex(),
					"latitude":     lat,
					"longitude":    lng,
				},
			})
		}
	}

	return nil
}

// AmbulanceView decorates a unit with the staleness of its last position so
// dashboards can grey out units the tracker has lost.
type AmbulanceView struct {
	*models.Ambulance
	LocationStale bool `json:"location_stale"`
}

func (s *DispatchService) ListHospitalAmbulances(ctx context.Context, hospitalID primitive.ObjectID) ([]AmbulanceView, error) {
	ambulances, err := s.ambulanceRepo.GetByHospitalID(ctx, hospitalID)
	if err != nil {
		return nil, err
	}

	views := make([]AmbulanceView, 0, len(ambulances))
	for _, amb := range ambulances {
		views = append(views, AmbulanceView{
			Ambulance:     amb,
			LocationStale: amb.LocationStale(s.cfg.LocationStaleAfter),
		})
	}
	return views, nil
}

// GetDispatchQueue returns a hospital's unassigned emergencies ordered for the
// dispatcher: higher priority first, oldest first within a priority.
func (s *DispatchService) GetDispatchQueue(ctx context.Context, hospitalID primitive.ObjectID) ([]*models.Emergency, error) {
	return s.emergencyRepo.GetPendingByPriority(ctx, hospitalID)
}

// GetHospitalActiveEmergencies lists a hospital's emergencies that are still
// open, regardless of assignment state.
func (s *DispatchService) GetHospitalActiveEmergencies(ctx context.Context, hospitalID primitive.ObjectID) ([]*models.Emergency, error) {
	return s.emergencyRepo.GetActiveByHospitalID(ctx, hospitalID)
}

func (s *DispatchService) ListEmergenciesByStatus(ctx context.Context, status models.EmergencyStatus, params *utils.PaginationParams) ([]*models.Emergency, int64, error) {
	return s.emergencyRepo.GetByStatus(ctx, status, params)
}

// GetAmbulanceRoutes returns a unit's route history, newest first.
func (s *DispatchService) GetAmbulanceRoutes(ctx context.Context, ambulanceID primitive.ObjectID) ([]*models.Route, error) {
	return s.routeRepo.GetByAmbulanceID(ctx, ambulanceID)
}

func (s *DispatchService) GetEmergencyAuditTrail(ctx context.Context, emergencyID primitive.ObjectID) ([]*models.AuditLog, error) {
	return s.auditRepo.GetByEmergencyID(ctx, emergencyID)
}

func (s *DispatchService) GetAmbulanceAuditTrail(ctx context.Context, ambulanceID primitive.ObjectID, limit int) ([]*models.AuditLog, error) {
	return s.auditRepo.GetByAmbulanceID(ctx, ambulanceID, limit)
}

// createRoute asks the routing provider for directions after the assignment
// has committed and, only if the provider answers, persists the route and the
// emergency's back-reference to it. Returns nil when the provider is degraded
// or unconfigured; the assignment already stands either way.
func (s *DispatchService) createRoute(ctx context.Context, assignment *AssignResult) *models.Route {
	if s.routeProvider == nil {
		return nil
	}

	emergency := assignment.Emergency
	ambulance := assignment.Ambulance

	timeout := s.cfg.RouteTimeout
	if timeout <= 0 {
		timeout = utils.DefaultRouteTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	directions, err := s.routeProvider.GetRoute(ctx, &maps.RouteRequest{
		OriginLat:      *ambulance.Latitude,
		OriginLng:      *ambulance.Longitude,
		DestinationLat: emergency.PatientLat,
		DestinationLng: emergency.PatientLng,
	})
	if err != nil {
		s.logger.WithError(err).WithEmergencyID(emergency.ID).
			Warn("Routing provider degraded, assignment stands without a route")
		return nil
	}

	route := &models.Route{
		AmbulanceID:     ambulance.ID,
		EmergencyID:     emergency.ID,
		DriverID:        *ambulance.CurrentDriverID,
		Status:          models.RouteStatusActive,
		HospitalID:      emergency.HospitalID,
		Priority:        emergency.Priority,
		EncodedPolyline: directions.EncodedPolyline,
		Steps:           stepsFromProvider(directions.Steps),
		DistanceMeters:  directions.DistanceMeters,
		DurationSeconds: directions.DurationSeconds,
		ETAMinutes:      emergency.DispatchETAMinutes,
		OriginLat:       *ambulance.Latitude,
		OriginLng:       *ambulance.Longitude,
		DestinationLat:  emergency.PatientLat,
		DestinationLng:  emergency.PatientLng,
	}

	if origin, err := s.routeProvider.ReverseGeocode(ctx, route.OriginLat, route.OriginLng); err == nil {
		route.OriginAddress = origin
	}
	if dest, err := s.routeProvider.ReverseGeocode(ctx, route.DestinationLat, route.DestinationLng); err == nil {
		route.DestinationAddress = dest
	}

	if err := s.routeRepo.Create(ctx, route); err != nil {
		s.logger.WithError(err).WithEmergencyID(emergency.ID).Warn("Failed to persist route")
		return nil
	}

	if err := s.emergencyRepo.Update(ctx, emergency.ID, map[string]interface{}{
		"route_id": route.ID,
	}); err != nil {
		s.logger.WithError(err).WithRouteID(route.ID).Warn("Failed to link route to emergency")
	} else {
		emergency.RouteID = &route.ID
	}

	return route
}

func stepsFromProvider(steps []maps.Step) []models.RouteStep {
	converted := make([]models.RouteStep, 0, len(steps))
	for _, step := range steps {
		converted = append(converted, models.RouteStep{
			Instruction:     step.Instruction,
			DistanceMeters:  step.DistanceMeters,
			DurationSeconds: step.DurationSeconds,
			StartLat:        step.StartLat,
			StartLng:        step.StartLng,
			EndLat:          step.EndLat,
			EndLng:          step.EndLng,
		})
	}
	return converted
}

func (s *DispatchService) notifyAssigned(ctx context.Context, result *AssignResult) {
	if s.notifier != nil && result.Emergency.AssignedDriver != nil {
		data := map[string]string{
			"emergency_id": result.Emergency.ID.Hex(),
		}
		if result.Route != nil {
			data["route_id"] = result.Route.ID.Hex()
		}
		s.notifier.Notify(ctx, &NotificationInput{
			RecipientID: result.Emergency.AssignedDriver.Hex(),
			Type:        models.NotificationTypeAssignment,
			Title:       "New emergency dispatch",
			Message:     fmt.Sprintf("Pick up patient at %s", patientLabel(result.Emergency)),
			Priority:    result.Emergency.Priority,
			Data:        data,
		})
	}

	if s.notifier != nil && result.Emergency.CallerPhone != "" {
		s.notifier.NotifySMS(ctx, result.Emergency.CallerPhone,
			fmt.Sprintf("Ambulance %s is on the way, estimated arrival in %d minutes.",
				result.Ambulance.LicensePlate, result.Emergency.DispatchETAMinutes))
	}

	if s.hub != nil {
		data := map[string]interface{}{
			"emergency_id": result.Emergency.ID.Hex(),
			"ambulance_id": result.Ambulance.ID.Hex(),
			"eta_minutes":  result.Emergency.DispatchETAMinutes,
		}
		if result.Route != nil {
			data["route_id"] = result.Route.ID.Hex()
		}
		s.hub.SendToHospital(result.Emergency.HospitalID, websocket.Message{
			Type: "emergency_assigned",
			Data: data,
		})

		if result.Route != nil {
			s.hub.SendToPolice(result.Emergency.HospitalID, websocket.Message{
				Type: "clearance_requested",
				Data: map[string]interface{}{
					"route_id":     result.Route.ID.Hex(),
					"priority":     string(result.Route.Priority),
					"status_label": result.Route.Status.Describe(models.RolePolice),
				},
			})
		}
	}
}

func (s *DispatchService) notifyCancelled(ctx context.Context, emergency *models.Emergency, releasedDriver *primitive.ObjectID, reason string) {
	if s.notifier != nil && releasedDriver != nil {
		s.notifier.Notify(ctx, &NotificationInput{
			RecipientID: releasedDriver.Hex(),
			Type:        models.NotificationTypeCancellation,
			Title:       "Dispatch cancelled",
			Message:     fmt.Sprintf("Emergency cancelled: %s", reason),
			Priority:    emergency.Priority,
			Data:        map[string]string{"emergency_id": emergency.ID.Hex()},
		})
	}

	if s.hub != nil {
		s.hub.SendToHospital(emergency.HospitalID, websocket.Message{
			Type: "emergency_cancelled",
			Data: map[string]interface{}{
				"emergency_id": emergency.ID.Hex(),
				"reason":       reason,
			},
		})
		s.hub.SendToPolice(emergency.HospitalID, websocket.Message{
			Type: "clearance_withdrawn",
			Data: map[string]interface{}{
				"emergency_id": emergency.ID.Hex(),
			},
		})
	}
}

func (s *DispatchService) notifyCompleted(ctx context.Context, emergency *models.Emergency) {
	if s.notifier != nil && emergency.AssignedDriver != nil {
		s.notifier.Notify(ctx, &NotificationInput{
			RecipientID: emergency.AssignedDriver.Hex(),
			Type:        models.NotificationTypeCompletion,
			Title:       "Run completed",
			Message:     "Emergency closed, unit returned to the pool",
			Priority:    emergency.Priority,
			Data:        map[string]string{"emergency_id": emergency.ID.Hex()},
		})
	}

	if s.hub != nil {
		s.hub.SendToHospital(emergency.HospitalID, websocket.Message{
			Type: "emergency_completed",
			Data: map[string]interface{}{
				"emergency_id": emergency.ID.Hex(),
				"completed_by": emergency.CompletedBy,
			},
		})
	}
}

func (s *DispatchService) broadcastRouteStatus(route *models.Route, actorRole models.ActorRole) {
	if s.hub == nil {
		return
	}

	s.hub.SendRouteUpdate(route.ID, websocket.Message{
		Type: "route_status",
		Data: map[string]interface{}{
			"route_id":   route.ID.Hex(),
			"status":     string(route.Status),
			"changed_by": string(actorRole),
		},
	})
	s.hub.SendToHospital(route.HospitalID, websocket.Message{
		Type: "route_status",
		Data: map[string]interface{}{
			"route_id":     route.ID.Hex(),
			"status":       string(route.Status),
			"status_label": route.Status.Describe(models.RoleHospital),
		},
	})
	s.hub.SendToPolice(route.HospitalID, websocket.Message{
		Type: "route_status",
		Data: map[string]interface{}{
			"route_id":     route.ID.Hex(),
			"status":       string(route.Status),
			"status_label": route.Status.Describe(models.RolePolice),
		},
	})

	if s.notifier != nil && route.Status == models.RouteStatusCleared {
		s.notifier.Notify(context.Background(), &NotificationInput{
			RecipientID: route.DriverID.Hex(),
			Type:        models.NotificationTypeRouteStatus,
			Title:       "Traffic cleared",
			Message:     "Police cleared your corridor, proceed",
			Priority:    route.Priority,
			Data:        map[string]string{"route_id": route.ID.Hex()},
		})
	}
}

func patientLabel(emergency *models.Emergency) string {
	if emergency.PatientAddress != "" {
		return emergency.PatientAddress
	}
	return fmt.Sprintf("%.5f, %.5f", emergency.PatientLat, emergency.PatientLng)
}
