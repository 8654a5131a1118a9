package validators

type CreateEmergencyRequest struct {
	CallerName     string  `json:"caller_name" validate:"required,min=2,max=100"`
	CallerPhone    string  `json:"caller_phone" validate:"omitempty,phone_number"`
	Description    string  `json:"description" validate:"omitempty,max=2000"`
	Priority       string  `json:"priority" validate:"required,oneof=low medium high critical"`
	PatientLat     float64 `json:"patient_lat" validate:"required,latitude"`
	PatientLng     float64 `json:"patient_lng" validate:"required,longitude"`
	PatientAddress string  `json:"patient_address" validate:"omitempty,max=500"`
	HospitalID     string  `json:"hospital_id" validate:"required,object_id"`
}

type AssignRequest struct {
	// AmbulanceID pins a unit. Empty requests auto-selection.
	AmbulanceID string `json:"ambulance_id" validate:"omitempty,object_id"`
	// DriverID, when present, must match the pinned unit's bound driver.
	DriverID    string `json:"driver_id" validate:"omitempty,object_id"`
	ActorID     string `json:"actor_id" validate:"required"`
	ActorName   string `json:"actor_name" validate:"omitempty,max=100"`
	Source      string `json:"source" validate:"required,oneof=driver hospital system"`
}

type CancelRequest struct {
	Reason    string `json:"reason" validate:"required,min=3,max=500"`
	ActorID   string `json:"actor_id" validate:"required"`
	ActorName string `json:"actor_name" validate:"omitempty,max=100"`
	Source    string `json:"source" validate:"required,oneof=driver hospital system"`
}

type CompleteRequest struct {
	CompletedBy       string `json:"completed_by" validate:"required"`
	CompletedByName   string `json:"completed_by_name" validate:"omitempty,max=100"`
	Notes             string `json:"notes" validate:"omitempty,max=2000"`
	IsDriverInitiated bool   `json:"is_driver_initiated"`
}

type UpdateRouteStatusRequest struct {
	Status      string `json:"status" validate:"required,oneof=active cleared timeout completed"`
	Role        string `json:"role" validate:"required,oneof=hospital police driver"`
	OfficerID   string `json:"officer_id" validate:"omitempty,max=100"`
	OfficerName string `json:"officer_name" validate:"omitempty,max=100"`
	Notes       string `json:"notes" validate:"omitempty,max=1000"`
}

type LocationUpdateRequest struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

type DeviceTokenRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=android ios"`
}

func ValidateCreateEmergency(req *CreateEmergencyRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateAssign(req *AssignRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateCancel(req *CancelRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateComplete(req *CompleteRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateUpdateRouteStatus(req *UpdateRouteStatusRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateLocationUpdate(req *LocationUpdateRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateDeviceToken(req *DeviceTokenRequest) ValidationErrors {
	return ValidateStruct(req)
}
