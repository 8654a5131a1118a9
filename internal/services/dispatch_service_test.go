package services

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"medidispatch/internal/config"
	"medidispatch/internal/models"
	"medidispatch/internal/repositories/interfaces"
	"medidispatch/internal/utils"
	"medidispatch/pkg/logger"
	"medidispatch/pkg/maps"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore backs the fake repositories and transaction runner. Tests run
// single-threaded, so there is no locking.
type memStore struct {
	emergencies map[primitive.ObjectID]*models.Emergency
	ambulances  map[primitive.ObjectID]*models.Ambulance
	routes      map[primitive.ObjectID]*models.Route
	audits      []*models.AuditLog
}

func newMemStore() *memStore {
	return &memStore{
		emergencies: make(map[primitive.ObjectID]*models.Emergency),
		ambulances:  make(map[primitive.ObjectID]*models.Ambulance),
		routes:      make(map[primitive.ObjectID]*models.Route),
	}
}

func (s *memStore) addEmergency(e *models.Emergency) *models.Emergency {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	s.emergencies[e.ID] = e
	return e
}

func (s *memStore) addAmbulance(a *models.Ambulance) *models.Ambulance {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	s.ambulances[a.ID] = a
	return a
}

func (s *memStore) addRoute(r *models.Route) *models.Route {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	s.routes[r.ID] = r
	return r
}

func applyEmergencyUpdates(e *models.Emergency, updates map[string]interface{}) {
	for key, value := range updates {
		switch key {
		case "status":
			e.Status = value.(models.EmergencyStatus)
		case "assigned_ambulance_id":
			if value == nil {
				e.AssignedAmbulance = nil
			} else {
				id := value.(primitive.ObjectID)
				e.AssignedAmbulance = &id
			}
		case "assigned_driver_id":
			switch id := value.(type) {
			case nil:
				e.AssignedDriver = nil
			case *primitive.ObjectID:
				e.AssignedDriver = id
			case primitive.ObjectID:
				e.AssignedDriver = &id
			}
		case "assigned_at":
			if value == nil {
				e.AssignedAt = nil
			} else {
				t := value.(time.Time)
				e.AssignedAt = &t
			}
		case "estimated_arrival":
			if value == nil {
				e.EstimatedArrival = nil
			} else {
				t := value.(time.Time)
				e.EstimatedArrival = &t
			}
		case "route_id":
			if value == nil {
				e.RouteID = nil
			} else {
				id := value.(primitive.ObjectID)
				e.RouteID = &id
			}
		case "actual_arrival":
			t := value.(time.Time)
			e.ActualArrival = &t
		case "dispatch_distance_meters":
			e.DispatchDistanceMeters = value.(float64)
		case "dispatch_eta_minutes":
			e.DispatchETAMinutes = value.(int)
		case "cancellation_reason":
			e.CancellationReason = value.(string)
		case "completed_by":
			e.CompletedBy = value.(string)
		case "completed_by_name":
			e.CompletedByName = value.(string)
		case "completion_notes":
			e.CompletionNotes = value.(string)
		}
	}
}

func applyAmbulanceUpdates(a *models.Ambulance, updates map[string]interface{}) {
	for key, value := range updates {
		switch key {
		case "status":
			a.Status = value.(models.AmbulanceStatus)
		case "latitude":
			lat := value.(float64)
			a.Latitude = &lat
		case "longitude":
			lng := value.(float64)
			a.Longitude = &lng
		case "last_location_update":
			t := value.(time.Time)
			a.LastLocationUpdate = &t
		}
	}
}

func applyRouteUpdates(r *models.Route, updates map[string]interface{}) {
	for key, value := range updates {
		switch key {
		case "status":
			r.Status = value.(models.RouteStatus)
		case "status_updated_at":
			t := value.(time.Time)
			r.StatusUpdatedAt = &t
		case "cleared_at":
			t := value.(time.Time)
			r.ClearedAt = &t
		case "completed_at":
			t := value.(time.Time)
			r.CompletedAt = &t
		case "completion_reason":
			r.CompletionReason = value.(string)
		case "police_officer_id":
			r.PoliceOfficerID = value.(string)
		case "police_officer_name":
			r.PoliceOfficerName = value.(string)
		case "police_notes":
			r.PoliceNotes = value.(string)
		case "encoded_polyline":
			r.EncodedPolyline = value.(string)
		case "steps":
			r.Steps = value.([]models.RouteStep)
		case "distance_meters":
			r.DistanceMeters = value.(float64)
		case "duration_seconds":
			r.DurationSeconds = value.(int)
		case "origin_address":
			r.OriginAddress = value.(string)
		case "destination_address":
			r.DestinationAddress = value.(string)
		}
	}
}

// memTx implements interfaces.Tx against the store.
type memTx struct {
	store *memStore
}

func (t *memTx) GetEmergency(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error) {
	e, ok := t.store.emergencies[id]
	if !ok {
		return nil, utils.NewNotFoundError("emergency")
	}
	copied := *e
	return &copied, nil
}

func (t *memTx) UpdateEmergency(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	e, ok := t.store.emergencies[id]
	if !ok {
		return utils.NewNotFoundError("emergency")
	}
	applyEmergencyUpdates(e, updates)
	return nil
}

func (t *memTx) GetAmbulance(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error) {
	a, ok := t.store.ambulances[id]
	if !ok {
		return nil, utils.NewNotFoundError("ambulance")
	}
	copied := *a
	return &copied, nil
}

func (t *memTx) UpdateAmbulance(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	a, ok := t.store.ambulances[id]
	if !ok {
		return utils.NewNotFoundError("ambulance")
	}
	applyAmbulanceUpdates(a, updates)
	return nil
}

func (t *memTx) GetRoute(ctx context.Context, id primitive.ObjectID) (*models.Route, error) {
	r, ok := t.store.routes[id]
	if !ok {
		return nil, utils.NewNotFoundError("route")
	}
	copied := *r
	return &copied, nil
}

func (t *memTx) GetActiveRouteForEmergency(ctx context.Context, emergencyID primitive.ObjectID) (*models.Route, error) {
	for _, r := range t.store.routes {
		if r.EmergencyID == emergencyID && r.Status != models.RouteStatusCompleted {
			copied := *r
			return &copied, nil
		}
	}
	return nil, utils.NewNotFoundError("route")
}

func (t *memTx) CreateRoute(ctx context.Context, route *models.Route) error {
	route.ID = primitive.NewObjectID()
	route.CreatedAt = time.Now()
	route.UpdatedAt = time.Now()
	copied := *route
	t.store.routes[route.ID] = &copied
	return nil
}

func (t *memTx) UpdateRoute(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r, ok := t.store.routes[id]
	if !ok {
		return utils.NewNotFoundError("route")
	}
	applyRouteUpdates(r, updates)
	return nil
}

func (t *memTx) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	log.ID = primitive.NewObjectID()
	log.CreatedAt = time.Now()
	t.store.audits = append(t.store.audits, log)
	return nil
}

type memTxRunner struct {
	store *memStore
}

func (r *memTxRunner) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx interfaces.Tx) error) error {
	return fn(ctx, &memTx{store: r.store})
}

// Repository fakes used outside transactions.
type memEmergencyRepo struct{ store *memStore }

func (r *memEmergencyRepo) Create(ctx context.Context, e *models.Emergency) error {
	e.ID = primitive.NewObjectID()
	e.CreatedAt = time.Now()
	r.store.emergencies[e.ID] = e
	return nil
}

func (r *memEmergencyRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error) {
	return (&memTx{store: r.store}).GetEmergency(ctx, id)
}

func (r *memEmergencyRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return (&memTx{store: r.store}).UpdateEmergency(ctx, id, updates)
}

func (r *memEmergencyRepo) GetByHospitalID(ctx context.Context, hospitalID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Emergency, int64, error) {
	var result []*models.Emergency
	for _, e := range r.store.emergencies {
		if e.HospitalID == hospitalID {
			result = append(result, e)
		}
	}
	return result, int64(len(result)), nil
}

func (r *memEmergencyRepo) GetActiveByHospitalID(ctx context.Context, hospitalID primitive.ObjectID) ([]*models.Emergency, error) {
	var result []*models.Emergency
	for _, e := range r.store.emergencies {
		if e.HospitalID == hospitalID && !e.Status.IsTerminal() {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *memEmergencyRepo) GetByStatus(ctx context.Context, status models.EmergencyStatus, params *utils.PaginationParams) ([]*models.Emergency, int64, error) {
	var result []*models.Emergency
	for _, e := range r.store.emergencies {
		if e.Status == status {
			result = append(result, e)
		}
	}
	return result, int64(len(result)), nil
}

func (r *memEmergencyRepo) GetPendingByPriority(ctx context.Context, hospitalID primitive.ObjectID) ([]*models.Emergency, error) {
	var result []*models.Emergency
	for _, e := range r.store.emergencies {
		if e.HospitalID == hospitalID && e.Status == models.EmergencyStatusPending {
			result = append(result, e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Priority.Rank() != result[j].Priority.Rank() {
			return result[i].Priority.Rank() > result[j].Priority.Rank()
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

type memAmbulanceRepo struct{ store *memStore }

func (r *memAmbulanceRepo) Create(ctx context.Context, a *models.Ambulance) error {
	a.ID = primitive.NewObjectID()
	r.store.ambulances[a.ID] = a
	return nil
}

func (r *memAmbulanceRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error) {
	return (&memTx{store: r.store}).GetAmbulance(ctx, id)
}

func (r *memAmbulanceRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return (&memTx{store: r.store}).UpdateAmbulance(ctx, id, updates)
}

func (r *memAmbulanceRepo) GetByHospitalID(ctx context.Context, hospitalID primitive.ObjectID) ([]*models.Ambulance, error) {
	var result []*models.Ambulance
	for _, a := range r.store.ambulances {
		if a.HospitalID == hospitalID && a.IsActive {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *memAmbulanceRepo) GetAvailableByHospitalID(ctx context.Context, hospitalID primitive.ObjectID, limit int) ([]*models.Ambulance, error) {
	var result []*models.Ambulance
	for _, a := range r.store.ambulances {
		if a.HospitalID == hospitalID && a.IsActive && a.Status == models.AmbulanceStatusAvailable {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *memAmbulanceRepo) UpdateLocation(ctx context.Context, id primitive.ObjectID, lat, lng float64, at time.Time) error {
	return r.Update(ctx, id, map[string]interface{}{
		"latitude":             lat,
		"longitude":            lng,
		"last_location_update": at,
	})
}

type memRouteRepo struct {
	store   *memStore
	changes chan interfaces.RouteChange
}

func (r *memRouteRepo) Create(ctx context.Context, route *models.Route) error {
	return (&memTx{store: r.store}).CreateRoute(ctx, route)
}

func (r *memRouteRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Route, error) {
	return (&memTx{store: r.store}).GetRoute(ctx, id)
}

func (r *memRouteRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return (&memTx{store: r.store}).UpdateRoute(ctx, id, updates)
}

func (r *memRouteRepo) GetActiveByEmergencyID(ctx context.Context, emergencyID primitive.ObjectID) (*models.Route, error) {
	return (&memTx{store: r.store}).GetActiveRouteForEmergency(ctx, emergencyID)
}

func (r *memRouteRepo) GetByStatuses(ctx context.Context, hospitalID primitive.ObjectID, statuses []models.RouteStatus) ([]*models.Route, error) {
	var result []*models.Route
	for _, route := range r.store.routes {
		if !hospitalID.IsZero() && route.HospitalID != hospitalID {
			continue
		}
		for _, status := range statuses {
			if route.Status == status {
				result = append(result, route)
				break
			}
		}
	}
	return result, nil
}

func (r *memRouteRepo) GetByAmbulanceID(ctx context.Context, ambulanceID primitive.ObjectID) ([]*models.Route, error) {
	var result []*models.Route
	for _, route := range r.store.routes {
		if route.AmbulanceID == ambulanceID {
			result = append(result, route)
		}
	}
	return result, nil
}

func (r *memRouteRepo) Watch(ctx context.Context) (<-chan interfaces.RouteChange, error) {
	if r.changes == nil {
		r.changes = make(chan interfaces.RouteChange)
	}
	return r.changes, nil
}

type memAuditRepo struct{ store *memStore }

func (r *memAuditRepo) Create(ctx context.Context, log *models.AuditLog) error {
	return (&memTx{store: r.store}).CreateAuditLog(ctx, log)
}

func (r *memAuditRepo) GetByEmergencyID(ctx context.Context, emergencyID primitive.ObjectID) ([]*models.AuditLog, error) {
	var result []*models.AuditLog
	for _, log := range r.store.audits {
		if log.EmergencyID == emergencyID {
			result = append(result, log)
		}
	}
	return result, nil
}

func (r *memAuditRepo) GetByAmbulanceID(ctx context.Context, ambulanceID primitive.ObjectID, limit int) ([]*models.AuditLog, error) {
	var result []*models.AuditLog
	for _, log := range r.store.audits {
		if log.AmbulanceID == ambulanceID {
			result = append(result, log)
		}
	}
	return result, nil
}

type fakeRouteProvider struct {
	result     *maps.RouteResult
	err        error
	geocodeErr error
	calls      int
}

func (p *fakeRouteProvider) GetRoute(ctx context.Context, request *maps.RouteRequest) (*maps.RouteResult, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

func (p *fakeRouteProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	if p.geocodeErr != nil {
		return "", p.geocodeErr
	}
	return "123 Test Street", nil
}

type recordingNotifier struct {
	inputs []*NotificationInput
	sms    []string
}

func (n *recordingNotifier) Notify(ctx context.Context, input *NotificationInput) {
	n.inputs = append(n.inputs, input)
}

func (n *recordingNotifier) NotifySMS(ctx context.Context, phone, message string) {
	n.sms = append(n.sms, phone)
}

type testEnv struct {
	store    *memStore
	service  *DispatchService
	notifier *recordingNotifier
	provider *fakeRouteProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	store := newMemStore()
	notifier := &recordingNotifier{}
	provider := &fakeRouteProvider{result: &maps.RouteResult{
		EncodedPolyline: "abc123",
		DistanceMeters:  4200,
		DurationSeconds: 360,
		Steps: []maps.Step{
			{Instruction: "Head north", DistanceMeters: 4200, DurationSeconds: 360},
		},
	}}

	service := NewDispatchService(
		&memEmergencyRepo{store: store},
		&memAmbulanceRepo{store: store},
		&memRouteRepo{store: store},
		&memAuditRepo{store: store},
		&memTxRunner{store: store},
		provider,
		notifier,
		nil,
		log,
		&config.DispatchConfig{
			RouteTimeout:       time.Second,
			CandidateLimit:     20,
			LocationStaleAfter: 2 * time.Minute,
		},
	)

	return &testEnv{store: store, service: service, notifier: notifier, provider: provider}
}

func floatPtr(v float64) *float64 { return &v }

func newAvailableAmbulance(hospitalID primitive.ObjectID, lat, lng float64) *models.Ambulance {
	driverID := primitive.NewObjectID()
	now := time.Now()
	return &models.Ambulance{
		LicensePlate:       "AMB-" + primitive.NewObjectID().Hex()[:6],
		HospitalID:         hospitalID,
		Status:             models.AmbulanceStatusAvailable,
		CurrentDriverID:    &driverID,
		Latitude:           floatPtr(lat),
		Longitude:          floatPtr(lng),
		LastLocationUpdate: &now,
		IsActive:           true,
	}
}

func TestAssignAutoSelectsNearest(t *testing.T) {
	env := newTestEnv(t)
	hospitalID := primitive.NewObjectID()

	emergency := env.store.addEmergency(&models.Emergency{
		CallerName:  "Jane Doe",
		CallerPhone: "+15550001",
		Priority:    models.PriorityCritical,
		Status:      models.EmergencyStatusPending,
		PatientLat:  40.0,
		PatientLng:  -74.0,
		HospitalID:  hospitalID,
	})

	far := env.store.addAmbulance(newAvailableAmbulance(hospitalID, 40.2, -74.0))
	near := env.store.addAmbulance(newAvailableAmbulance(hospitalID, 40.01, -74.0))

	result, err := env.service.Assign(context.Background(), &AssignInput{
		EmergencyID: emergency.ID,
		ActorID:     "dispatcher-1",
		ActorName:   "Dispatcher One",
		Source:      "hospital",
	})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if result.Ambulance.ID != near.ID {
		t.Errorf("selected ambulance %s, want nearest %s", result.Ambulance.ID.Hex(), near.ID.Hex())
	}
	if env.store.ambulances[near.ID].Status != models.AmbulanceStatusOnDuty {
		t.Errorf("assigned ambulance status = %s, want on_duty", env.store.ambulances[near.ID].Status)
	}
	if env.store.ambulances[far.ID].Status != models.AmbulanceStatusAvailable {
		t.Errorf("unselected ambulance status changed to %s", env.store.ambulances[far.ID].Status)
	}

	stored := env.store.emergencies[emergency.ID]
	if stored.Status != models.EmergencyStatusAssigned {
		t.Errorf("emergency status = %s, want assigned", stored.Status)
	}
	if stored.AssignedAmbulance == nil || *stored.AssignedAmbulance != near.ID {
		t.Error("emergency not bound to selected ambulance")
	}
	if stored.RouteID == nil {
		t.Fatal("emergency has no route id")
	}

	route := env.store.routes[*stored.RouteID]
	if route == nil {
		t.Fatal("route not created")
	}
	if route.Status != models.RouteStatusActive {
		t.Errorf("route status = %s, want active", route.Status)
	}
	if route.Priority != models.PriorityCritical {
		t.Errorf("route priority = %s, want critical", route.Priority)
	}
	if route.ETAMinutes < utils.MinETAMinutes || route.ETAMinutes > utils.MaxETAMinutes {
		t.Errorf("route ETA %d outside clamp range", route.ETAMinutes)
	}

	if len(env.store.audits) != 1 || env.store.audits[0].Action != models.AuditActionAssign {
		t.Errorf("expected one assign audit entry, got %v", env.store.audits)
	}

	if len(env.notifier.inputs) == 0 {
		t.Error("driver notification not sent")
	}
	if len(env.notifier.sms) != 1 {
		t.Errorf("caller SMS count = %d, want 1", len(env.notifier.sms))
	}
}

func TestAssignPinnedAmbulance(t *testing.T) {
	env := newTestEnv(t)
	hospitalID := primitive.NewObjectID()

	emergency := env.store.addEmergency(&models.Emergency{
		CallerName: "John Doe",
		Priority:   models.PriorityMedium,
		Status:     models.EmergencyStatusPending,
		PatientLat: 40.0,
		PatientLng: -74.0,
		HospitalID: hospitalID,
	})
	env.store.addAmbulance(newAvailableAmbulance(hospitalID, 40.01, -74.0))
	pinned := env.store.addAmbulance(newAvailableAmbulance(hospitalID, 40.1, -74.0))

	result, err := env.service.Assign(context.Background(), &AssignInput{
		EmergencyID: emergency.ID,
		AmbulanceID: pinned.ID,
		ActorID:     "dispatcher-1",
		Source:      "hospital",
	})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if result.Ambulance.ID != pinned.ID {
		t.Errorf("selected %s, want pinned %s", result.Ambulance.ID.Hex(), pinned.ID.Hex())
	}
}

func TestAssignAlreadyAssigned(t *testing.T) {
	env := newTestEnv(t)
	hospitalID := primitive.NewObjectID()

	emergency := env.store.addEmergency(&models.Emergency{
		Priority:   models.PriorityHigh,
		Status:     models.EmergencyStatusAssigned,
		PatientLat: 40.0,
		PatientLng: -74.0,
		HospitalID: hospitalID,
	})
	env.store.addAmbulance(newAvailableAmbulance(hospitalID, 40.01, -74.0))

	_, err := env.service.Assign(context.Background(), &AssignInput{EmergencyID: emergency.ID})
	if !utils.IsCode(err, utils.CodeAlreadyAssigned) {
		t.Errorf("error = %v, want ALREADY_ASSIGNED", err)
	}
}

func TestAssignTerminalEmergency(t *testing.T) {
	env := newTestEnv(t)
	hospitalID := primitive.NewObjectID()

	emergency := env.store.addEmergency(&models.Emergency{
		Priority:   models.PriorityHigh,
		Status:     models.EmergencyStatusCancelled,
		PatientLat: 40.0,
		PatientLng: -74.0,
		HospitalID: hospitalID,
	})
	amb := env.store.addAmbulance(newAvailableAmbulance(hospitalID, 40.01, -74.0))

	_, err := env.service.Assign(context.Background(), &AssignInput{
		EmergencyID: emergency.ID,
		AmbulanceID: amb.ID,
	})
	if !utils.IsCode(err, utils.CodeResourceUnavailable) {
		t.Errorf("error = %v, want RESOURCE_UNAVAILABLE", err)
	}
}

func TestAssignAmbulanceNotAvailable(t *testing.T) {
	env := newTestEnv(t)
	hospitalID := primitive.NewObjectID()

	emergency := env.store.addEmergency(&models.Emergency{
		Priority:   models.PriorityHigh,
		Status:     models.EmergencyStatusPending,
		PatientLat: 40.0,
		PatientLng: -74.0,
		HospitalID: hospitalID,
	})
	busy := newAvailableAmbulance(hospitalID, 40.01, -74.0)
	busy.Status = models.AmbulanceStatusOnDuty
	env.store.addAmbulance(busy)

	_, err := env.service.Assign(context.Background(), &AssignInput{
		EmergencyID: emergency.ID,
		AmbulanceID: busy.ID,
	})
	if !utils.IsCode(err, utils.CodeResourceUnavailable) {
		t.Errorf("error = %v, want RESOURCE_UNAVAILABLE", err)
	}

	if env.store.emergencies[emergency.ID].Status != models.EmergencyStatusPending {
		t.Error("emergency mutated by failed assignment")
	}
}

func TestAssignNoCandidates(t *testing.T) {
	env := newTestEnv(t)
	hospitalID := primitive.NewObjectID()

	emergency := env.store.addEmergency(&models.Emergency{
		Priority:   models.PriorityLow,
		Status:     models.EmergencyStatusPending,
		PatientLat: 40.0,
		PatientLng: -74.0,
		HospitalID: hospitalID,
	})

	// One ambulance with no driver, one with no location. Neither qualifies.
	noDriver := newAvailableAmbulance(hospitalID, 40.01, -74.0)
	noDriver.CurrentDriverID = nil
	env.store.addAmbulance(noDriver)

	noLocation := newAvailableAmbulance(hospitalID, 0, 0)
	noLocation.Latitude = nil
	noLocation.Longitude = nil
	env.store.addAmbulance(noLocation)

	_, err := env.service.Assign(context.Background(), &AssignInput{EmergencyID: emergency.ID})
	if !utils.IsCode(err, utils.CodeResourceUnavailable) {
		t.Errorf("error = %v, want RESOURCE_UNAVAILABLE", err)
	}
}

func TestAssignRejectsDoubleBooking(t *testing.T) {
	env := newTestEnv(t)
	hospitalID := primitive.NewObjectID()

	first := env.store.addEmergency(&models.Emergency{
		Priority:   models.PriorityHigh,
		Status:     models.EmergencyStatusPending,
		PatientLat: 40.0,
		PatientLng: -74.0,
		HospitalID: hospitalID,
	})
	second := env.store.addEmergency(&models.Emergency{
		Priority:   models.PriorityHigh,
		Status:     models.EmergencyStatusPending,
		PatientLat: 40.05,
		PatientLng: -74.0,
		HospitalID: hospitalID,
	})
	amb := env.store.addAmbulance(newAvailableAmbulance(hospitalID, 40.01, -74.0))

	if _, err := env.service.Assign(context.Background(), &AssignInput{
		EmergencyID: first.ID,
		AmbulanceID: amb.ID,
		ActorID:     "dispatcher-1",
		Source:      "hospital",
	}); err != nil {
		t.Fatalf("first Assign: %v", err)
	}

	_, err := env.service.Assign(context.Background(), &AssignInput{
		EmergencyID: second.ID,
		AmbulanceID: amb.ID,
		ActorID:     "dispatcher-2",
		Source:      "hospital",
	})
	if !utils.IsCode(err, utils.CodeResourceUnavailable) {
		t.Fatalf("second Assign error = %v, want RESOURCE_UNAVAILABLE", err)
	}

	winner := env.store.emergencies[first.ID]
	if winner.AssignedAmbulance == nil || *winner.AssignedAmbulance != amb.ID {
		t.Error("winning emergency lost its assignment")
	}
	loser := env.store.emergencies[second.ID]
	if loser.Status != models.EmergencyStatusPending || loser.AssignedAmbulance != nil {
		t.Error("losing emergency should stay pending and unassigned")
	}
	if env.store.ambulances[amb.ID].Status != models.AmbulanceStatusOnDuty {
		t.Error("ambulance should stay bound to the first emergency")
	}
}

func TestAssignDriverMismatch(t *testing.T) {
	env := newTestEnv(t)
	hospitalID := primitive.NewObjectID()

	emergency := env.store.addEmergency(&models.Emergency{
		Priority:   models.PriorityMedium,
		Status:     models.EmergencyStatusPending,
		PatientLat: 40.0,
		PatientLng: -74.0,
		HospitalID: hospitalID,
	})
	amb := env.store.addAmbulance(newAvailableAmbulance(hospitalID, 40.01, -74.0))

	_, err := env.service.Assign(context.Background(), &AssignInput{
		EmergencyID: emergency.ID,
		AmbulanceID: amb.ID,
		DriverID:    primitive.NewObjectID(),
		ActorID:     "dispatcher-1",
		Source:      "hospital",
	})
	if !utils.IsCode(err, utils.CodeResourceUnavailable) {
		t.Fatalf("error = %v, want RESOURCE_UNAVAILABLE", err)
	}
	if env.store.emergencies[emergency.ID].Status != models.EmergencyStatusPending {
		t.Error("emergency mutated by rejected assignment")
	}
	if env.store.ambulances[amb.ID].Status != models.AmbulanceStatusAvailable {
		t.Error("ambulance mutated by rejected assignment")
	}

	result, err := env.service.Assign(context.Background(), &AssignInput{
		EmergencyID: emergency.ID,
		AmbulanceID: amb.ID,
		DriverID:    *amb.CurrentDriverID,
		ActorID:     "dispatcher-1",
		Source:      "hospital",
	})
	if err != nil {
		t.Fatalf("Assign with matching driver: %v", err)
	}
	if result.Emergency.AssignedDriver == nil || *result.Emergency.AssignedDriver != *amb.CurrentDriverID {
		t.Error("emergency not bound to the requested driver")
	}
}

func TestAssignSurvivesProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	env.provider.err = errors.New("directions API down")
	hospitalID := primitive.NewObjectID()

	emergency := env.store.addEmergency(&models.Emergency{
		Priority:   models.PriorityCritical,
		Status:     models.EmergencyStatusPending,
		PatientLat: 40.0,
		PatientLng: -74.0,
		HospitalID: hospitalID,
	})
	env.store.addAmbulance(newAvailableAmbulance(hospitalID, 40.01, -74.0))

	result, err := env.service.Assign(context.Background(), &AssignInput{EmergencyID: emergency.ID})
	if err != nil {
		t.Fatalf("Assign should survive provider failure, got %v", err)
	}

	if result.Route != nil {
		t.Error("no route should exist when the provider fails")
	}
	if len(env.store.routes) != 0 {
		t.Errorf("stored routes = %d, want 0", len(env.store.routes))
	}

	stored := env.store.emergencies[emergency.ID]
	if stored.Status != models.EmergencyStatusAssigned {
		t.Error("assignment rolled back on provider failure")
	}
	if stored.RouteID != nil {
		t.Error("emergency should carry no route reference")
	}
	if stored.DispatchDistanceMeters <= 0 {
		t.Error("straight-line distance missing from emergency")
	}
	if stored.DispatchETAMinutes <= 0 {
		t.Error("dispatch ETA missing from emergency")
	}
}

func TestAssignCreatesRouteFromProvider(t *testing.T) {
	env := newTestEnv(t)
	hospitalID := primitive.NewObjectID()

	emergency := env.store.addEmergency(&models.Emergency{
		Priority:   models.PriorityHigh,
		Status:     models.EmergencyStatusPending,
		PatientLat: 40.0,
		PatientLng: -74.0,
		HospitalID: hospitalID,
	})
	env.store.addAmbulance(newAvailableAmbulance(hospitalID, 40.01, -74.0))

	result, err := env.service.Assign(context.Background(), &AssignInput{EmergencyID: emergency.ID})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	route := env.store.routes[result.Route.ID]
	if route.EncodedPolyline != "abc123" {
		t.Errorf("polyline = %q, want provider value", route.EncodedPolyline)
	}
	if route.DurationSeconds != 360 {
		t.Errorf("duration = %d, want 360", route.DurationSeconds)
	}
	if len(route.Steps) != 1 {
		t.Fatalf("steps = %d, want 1", len(route.Steps))
	}
	if route.OriginAddress == "" || route.DestinationAddress == "" {
		t.Error("addresses not reverse geocoded")
	}

	stored := env.store.emergencies[emergency.ID]
	if stored.RouteID == nil || *stored.RouteID != route.ID {
		t.Error("emergency does not reference the created route")
	}
}

func TestCancelReleasesAssignment(t *testing.T) {
	env := newTestEnv(t)
	hospitalID := primitive.NewObjectID()

	emergency := env.store.addEmergency(&models.Emergency{
		CallerName: "Jane Doe",
		Priority:   models.PriorityHigh,
		Status:     models.EmergencyStatusPending,
		PatientLat: 40.0,
		PatientLng: -74.0,
		HospitalID: hospitalID,
	})
	amb := env.store.addAmbulance(newAvailableAmbulance(hospitalID, 40.01, -74.0))

	result, err := env.service.Assign(context.Background(), &AssignInput{EmergencyID: emergency.ID})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	_, err = env.service.Cancel(context.Background(), &CancelInput{
		EmergencyID: emergency.ID,
		Reason:      "caller resolved",
		ActorID:     "dispatcher-1",
		Source:      "hospital",
	})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	stored := env.store.emergencies[emergency.ID]
	if stored.Status != models.EmergencyStatusPending {
		t.Errorf("emergency status = %s, want pending", stored.Status)
	}
	if stored.AssignedAmbulance != nil || stored.AssignedDriver != nil {
		t.Error("assignment fields not cleared")
	}
	if stored.AssignedAt != nil || stored.EstimatedArrival != nil || stored.RouteID != nil {
		t.Error("assignment timestamps or route reference not cleared")
	}
	if stored.CancellationReason != "caller resolved" {
		t.Errorf("cancellation reason = %q", stored.CancellationReason)
	}
	if env.store.ambulances[amb.ID].Status != models.AmbulanceStatusAvailable {
		t.Error("ambulance not released")
	}

	route := env.store.routes[result.Route.ID]
	if route.Status != models.RouteStatusCompleted {
		t.Errorf("route status = %s, want completed", route.Status)
	}
	if route.CompletionReason != "Route cancelled: caller resolved" {
		t.Errorf("completion reason = %q", route.CompletionReason)
	}

	// The emergency is dispatchable again, including to the released unit.
	redo, err := env.service.Assign(context.Background(), &AssignInput{
		EmergencyID: emergency.ID,
		AmbulanceID: amb.ID,
		ActorID:     "dispatcher-1",
		Source:      "hospital",
	})
	if err != nil {
		t.Fatalf("re-Assign after Cancel: %v", err)
	}
	if redo.Ambulance.ID != amb.ID {
		t.Error("released ambulance not reassignable")
	}
}

func TestCancelPendingEmergency(t *testing.T) {
	env := newTestEnv(t)

	emergency := env.store.addEmergency(&models.Emergency{
		Priority:   models.PriorityLow,
		Status:     models.EmergencyStatusPending,
		HospitalID: primitive.NewObjectID(),
	})

	cancelled, err := env.service.Cancel(context.Background(), &CancelInput{
		EmergencyID: emergency.ID,
		Reason:      "duplicate call",
	})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.CancellationReason != "duplicate call" {
		t.Errorf("reason = %q", cancelled.CancellationReason)
	}
	if cancelled.Status != models.EmergencyStatusPending {
		t.Errorf("status = %s, want pending", cancelled.Status)
	}
}

func TestCancelTerminalEmergency(t *testing.T) {
	env := newTestEnv(t)

	emergency := env.store.addEmergency(&models.Emergency{
		Status:     models.EmergencyStatusCompleted,
		HospitalID: primitive.NewObjectID(),
	})

	_, err := env.service.Cancel(context.Background(), &CancelInput{EmergencyID: emergency.ID})
	if !utils.IsCode(err, utils.CodeInvalidTransition) {
		t.Errorf("error = %v, want INVALID_TRANSITION", err)
	}
}

func TestCompleteDriverInitiated(t *testing.T) {
	env := newTestEnv(t)
	hospitalID := primitive.NewObjectID()

	emergency := env.store.addEmergency(&models.Emergency{
		Priority:   models.PriorityCritical,
		Status:     models.EmergencyStatusPending,
		PatientLat: 40.0,
		PatientLng: -74.0,
		HospitalID: hospitalID,
	})
	amb := env.store.addAmbulance(newAvailableAmbulance(hospitalID, 40.01, -74.0))

	assigned, err := env.service.Assign(context.Background(), &AssignInput{EmergencyID: emergency.ID})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	driverID := amb.CurrentDriverID.Hex()
	completed, err := env.service.Complete(context.Background(), &CompleteInput{
		EmergencyID:       emergency.ID,
		CompletedBy:       driverID,
		CompletedByName:   "Driver",
		IsDriverInitiated: true,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if completed.Status != models.EmergencyStatusCompleted {
		t.Errorf("status = %s, want completed", completed.Status)
	}
	if completed.ActualArrival == nil {
		t.Error("actual arrival not stamped")
	}
	if env.store.emergencies[emergency.ID].ActualArrival == nil {
		t.Error("actual arrival not persisted")
	}
	if env.store.ambulances[amb.ID].Status != models.AmbulanceStatusAvailable {
		t.Error("ambulance not returned to pool")
	}

	route := env.store.routes[assigned.Route.ID]
	if route.Status != models.RouteStatusCompleted {
		t.Errorf("route status = %s, want completed", route.Status)
	}
	if route.CompletionReason != "driver arrival" {
		t.Errorf("route completion reason = %q", route.CompletionReason)
	}

	var completeAudit *models.AuditLog
	for _, log := range env.store.audits {
		if log.Action == models.AuditActionComplete {
			completeAudit = log
		}
	}
	if completeAudit == nil {
		t.Fatal("complete audit entry missing")
	}
	if completeAudit.Source != "driver" {
		t.Errorf("audit source = %q, want driver", completeAudit.Source)
	}
	if completeAudit.ActorID != driverID {
		t.Errorf("audit actor = %q, want %q", completeAudit.ActorID, driverID)
	}
}

func TestCompleteTerminalEmergency(t *testing.T) {
	env := newTestEnv(t)

	emergency := env.store.addEmergency(&models.Emergency{
		Status:     models.EmergencyStatusCompleted,
		HospitalID: primitive.NewObjectID(),
	})

	_, err := env.service.Complete(context.Background(), &CompleteInput{EmergencyID: emergency.ID})
	if !utils.IsCode(err, utils.CodeInvalidTransition) {
		t.Errorf("error = %v, want INVALID_TRANSITION", err)
	}
}

func TestUpdateRouteStatusClearance(t *testing.T) {
	env := newTestEnv(t)

	route := env.store.addRoute(&models.Route{
		AmbulanceID: primitive.NewObjectID(),
		EmergencyID: primitive.NewObjectID(),
		DriverID:    primitive.NewObjectID(),
		HospitalID:  primitive.NewObjectID(),
		Status:      models.RouteStatusActive,
		Priority:    models.PriorityCritical,
	})

	updated, err := env.service.UpdateRouteStatus(context.Background(), &UpdateRouteStatusInput{
		RouteID:     route.ID,
		NewStatus:   models.RouteStatusCleared,
		ActorRole:   models.RolePolice,
		OfficerID:   "officer-7",
		OfficerName: "Officer Seven",
		Notes:       "corridor open",
	})
	if err != nil {
		t.Fatalf("UpdateRouteStatus: %v", err)
	}

	if updated.Status != models.RouteStatusCleared {
		t.Errorf("status = %s, want cleared", updated.Status)
	}
	stored := env.store.routes[route.ID]
	if stored.ClearedAt == nil {
		t.Error("cleared_at not set")
	}
	if stored.PoliceOfficerID != "officer-7" {
		t.Errorf("officer id = %q", stored.PoliceOfficerID)
	}
	if stored.PoliceNotes != "corridor open" {
		t.Errorf("notes = %q", stored.PoliceNotes)
	}

	// Driver gets told the corridor is open.
	found := false
	for _, input := range env.notifier.inputs {
		if input.Type == models.NotificationTypeRouteStatus {
			found = true
		}
	}
	if !found {
		t.Error("driver clearance notification missing")
	}
}

func TestUpdateRouteStatusFullLifecycle(t *testing.T) {
	env := newTestEnv(t)

	route := env.store.addRoute(&models.Route{
		AmbulanceID: primitive.NewObjectID(),
		EmergencyID: primitive.NewObjectID(),
		DriverID:    primitive.NewObjectID(),
		HospitalID:  primitive.NewObjectID(),
		Status:      models.RouteStatusActive,
	})

	steps := []models.RouteStatus{
		models.RouteStatusTimeout,
		models.RouteStatusActive,
		models.RouteStatusCleared,
		models.RouteStatusCompleted,
	}
	for _, next := range steps {
		if _, err := env.service.UpdateRouteStatus(context.Background(), &UpdateRouteStatusInput{
			RouteID:   route.ID,
			NewStatus: next,
			ActorRole: models.RolePolice,
		}); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}

	stored := env.store.routes[route.ID]
	if stored.Status != models.RouteStatusCompleted {
		t.Errorf("final status = %s", stored.Status)
	}
	if stored.CompletedAt == nil {
		t.Error("completed_at not set")
	}
}

func TestUpdateRouteStatusInvalidTransition(t *testing.T) {
	env := newTestEnv(t)

	route := env.store.addRoute(&models.Route{
		AmbulanceID: primitive.NewObjectID(),
		EmergencyID: primitive.NewObjectID(),
		DriverID:    primitive.NewObjectID(),
		Status:      models.RouteStatusActive,
	})

	_, err := env.service.UpdateRouteStatus(context.Background(), &UpdateRouteStatusInput{
		RouteID:   route.ID,
		NewStatus: models.RouteStatusCompleted,
	})
	if !utils.IsCode(err, utils.CodeInvalidTransition) {
		t.Errorf("error = %v, want INVALID_TRANSITION", err)
	}

	if env.store.routes[route.ID].Status != models.RouteStatusActive {
		t.Error("route mutated by rejected transition")
	}
}

func TestUpdateRouteStatusTerminalRoute(t *testing.T) {
	env := newTestEnv(t)

	route := env.store.addRoute(&models.Route{
		AmbulanceID: primitive.NewObjectID(),
		EmergencyID: primitive.NewObjectID(),
		DriverID:    primitive.NewObjectID(),
		Status:      models.RouteStatusCompleted,
	})

	for _, next := range []models.RouteStatus{
		models.RouteStatusActive,
		models.RouteStatusCleared,
		models.RouteStatusTimeout,
	} {
		_, err := env.service.UpdateRouteStatus(context.Background(), &UpdateRouteStatusInput{
			RouteID:   route.ID,
			NewStatus: next,
		})
		if !utils.IsCode(err, utils.CodeInvalidTransition) {
			t.Errorf("completed -> %s: error = %v, want INVALID_TRANSITION", next, err)
		}
	}
}

func TestFindCandidatesFiltersAndRanks(t *testing.T) {
	env := newTestEnv(t)
	hospitalID := primitive.NewObjectID()

	emergency := env.store.addEmergency(&models.Emergency{
		Priority:   models.PriorityMedium,
		Status:     models.EmergencyStatusPending,
		PatientLat: 40.0,
		PatientLng: -74.0,
		HospitalID: hospitalID,
	})

	far := env.store.addAmbulance(newAvailableAmbulance(hospitalID, 40.3, -74.0))
	near := env.store.addAmbulance(newAvailableAmbulance(hospitalID, 40.02, -74.0))
	noDriver := newAvailableAmbulance(hospitalID, 40.001, -74.0)
	noDriver.CurrentDriverID = nil
	env.store.addAmbulance(noDriver)

	candidates, err := env.service.FindCandidates(context.Background(), emergency.ID)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(candidates))
	}
	if candidates[0].Ambulance.ID != near.ID {
		t.Error("nearest candidate not first")
	}
	if candidates[1].Ambulance.ID != far.ID {
		t.Error("farther candidate not second")
	}
	if candidates[0].DistanceMeters >= candidates[1].DistanceMeters {
		t.Error("candidates not ordered by distance")
	}
}

func TestFindCandidatesExcludesStaleLocations(t *testing.T) {
	env := newTestEnv(t)
	hospitalID := primitive.NewObjectID()

	emergency := env.store.addEmergency(&models.Emergency{
		Priority:   models.PriorityHigh,
		Status:     models.EmergencyStatusPending,
		PatientLat: 40.0,
		PatientLng: -74.0,
		HospitalID: hospitalID,
	})

	fresh := env.store.addAmbulance(newAvailableAmbulance(hospitalID, 40.05, -74.0))

	stale := newAvailableAmbulance(hospitalID, 40.001, -74.0)
	old := time.Now().Add(-10 * time.Minute)
	stale.LastLocationUpdate = &old
	env.store.addAmbulance(stale)

	candidates, err := env.service.FindCandidates(context.Background(), emergency.ID)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(candidates))
	}
	if candidates[0].Ambulance.ID != fresh.ID {
		t.Error("stale ambulance should be excluded even when nearest")
	}
}

func TestGetDispatchQueueOrdersByPriorityThenAge(t *testing.T) {
	env := newTestEnv(t)
	hospitalID := primitive.NewObjectID()
	base := time.Now().Add(-time.Hour)

	oldLow := env.store.addEmergency(&models.Emergency{
		Priority:   models.PriorityLow,
		Status:     models.EmergencyStatusPending,
		HospitalID: hospitalID,
		CreatedAt:  base,
	})
	newCritical := env.store.addEmergency(&models.Emergency{
		Priority:   models.PriorityCritical,
		Status:     models.EmergencyStatusPending,
		HospitalID: hospitalID,
		CreatedAt:  base.Add(30 * time.Minute),
	})
	oldCritical := env.store.addEmergency(&models.Emergency{
		Priority:   models.PriorityCritical,
		Status:     models.EmergencyStatusPending,
		HospitalID: hospitalID,
		CreatedAt:  base.Add(10 * time.Minute),
	})
	env.store.addEmergency(&models.Emergency{
		Priority:   models.PriorityCritical,
		Status:     models.EmergencyStatusAssigned,
		HospitalID: hospitalID,
		CreatedAt:  base,
	})

	queue, err := env.service.GetDispatchQueue(context.Background(), hospitalID)
	if err != nil {
		t.Fatalf("GetDispatchQueue: %v", err)
	}

	if len(queue) != 3 {
		t.Fatalf("queue length = %d, want 3 (assigned emergency excluded)", len(queue))
	}
	want := []primitive.ObjectID{oldCritical.ID, newCritical.ID, oldLow.ID}
	for i, id := range want {
		if queue[i].ID != id {
			t.Errorf("queue[%d] = %s, want %s", i, queue[i].ID.Hex(), id.Hex())
		}
	}
}

func TestListHospitalAmbulancesFlagsStaleLocations(t *testing.T) {
	env := newTestEnv(t)
	hospitalID := primitive.NewObjectID()

	fresh := env.store.addAmbulance(newAvailableAmbulance(hospitalID, 40.0, -74.0))
	stale := newAvailableAmbulance(hospitalID, 40.1, -74.0)
	old := time.Now().Add(-time.Hour)
	stale.LastLocationUpdate = &old
	env.store.addAmbulance(stale)

	views, err := env.service.ListHospitalAmbulances(context.Background(), hospitalID)
	if err != nil {
		t.Fatalf("ListHospitalAmbulances: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("views = %d, want 2", len(views))
	}

	for _, view := range views {
		switch view.Ambulance.ID {
		case fresh.ID:
			if view.LocationStale {
				t.Error("fresh unit flagged stale")
			}
		case stale.ID:
			if !view.LocationStale {
				t.Error("stale unit not flagged")
			}
		}
	}
}

func TestHospitalAndPoliceRouteViews(t *testing.T) {
	env := newTestEnv(t)
	hospitalID := primitive.NewObjectID()

	active := env.store.addRoute(&models.Route{
		AmbulanceID: primitive.NewObjectID(),
		EmergencyID: primitive.NewObjectID(),
		DriverID:    primitive.NewObjectID(),
		HospitalID:  hospitalID,
		Status:      models.RouteStatusActive,
	})
	cleared := env.store.addRoute(&models.Route{
		AmbulanceID: primitive.NewObjectID(),
		EmergencyID: primitive.NewObjectID(),
		DriverID:    primitive.NewObjectID(),
		HospitalID:  hospitalID,
		Status:      models.RouteStatusCleared,
	})
	env.store.addRoute(&models.Route{
		AmbulanceID: primitive.NewObjectID(),
		EmergencyID: primitive.NewObjectID(),
		DriverID:    primitive.NewObjectID(),
		HospitalID:  hospitalID,
		Status:      models.RouteStatusCompleted,
	})

	hospitalViews, err := env.service.GetHospitalActiveRoutes(context.Background(), hospitalID)
	if err != nil {
		t.Fatalf("GetHospitalActiveRoutes: %v", err)
	}
	if len(hospitalViews) != 2 {
		t.Errorf("hospital views = %d, want 2 (active + cleared)", len(hospitalViews))
	}
	for _, view := range hospitalViews {
		if view.StatusLabel != view.Route.Status.Describe(models.RoleHospital) {
			t.Errorf("hospital label %q does not match role wording", view.StatusLabel)
		}
	}

	pending, err := env.service.GetPolicePendingRoutes(context.Background(), hospitalID)
	if err != nil {
		t.Fatalf("GetPolicePendingRoutes: %v", err)
	}
	if len(pending) != 1 || pending[0].Route.ID != active.ID {
		t.Error("police pending queue should hold only the active route")
	}
	if pending[0].StatusLabel != "Clearance requested" {
		t.Errorf("pending label = %q", pending[0].StatusLabel)
	}

	policeActive, err := env.service.GetPoliceActiveRoutes(context.Background(), hospitalID)
	if err != nil {
		t.Fatalf("GetPoliceActiveRoutes: %v", err)
	}
	if len(policeActive) != 1 || policeActive[0].Route.ID != cleared.ID {
		t.Error("police active queue should hold only the cleared route")
	}
}

func TestUpdateAmbulanceLocation(t *testing.T) {
	env := newTestEnv(t)
	hospitalID := primitive.NewObjectID()
	amb := env.store.addAmbulance(newAvailableAmbulance(hospitalID, 40.0, -74.0))

	if err := env.service.UpdateAmbulanceLocation(context.Background(), amb.ID, 40.5, -74.2); err != nil {
		t.Fatalf("UpdateAmbulanceLocation: %v", err)
	}

	stored := env.store.ambulances[amb.ID]
	if *stored.Latitude != 40.5 || *stored.Longitude != -74.2 {
		t.Errorf("location = %v,%v", *stored.Latitude, *stored.Longitude)
	}

	if err := env.service.UpdateAmbulanceLocation(context.Background(), amb.ID, 91, 0); err == nil {
		t.Error("out-of-range latitude accepted")
	}
}
