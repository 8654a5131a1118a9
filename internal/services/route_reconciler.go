package services

import (
	"context"
	"time"

	"medidispatch/internal/models"
	"medidispatch/internal/repositories/interfaces"
	"medidispatch/internal/utils"
	"medidispatch/pkg/logger"
)

// emergencyCompleter is the slice of the dispatch service the reconciler
// needs. Narrowed for tests.
type emergencyCompleter interface {
	Complete(ctx context.Context, input *CompleteInput) (*models.Emergency, error)
}

// RouteReconciler watches the route collection and finishes emergencies whose
// route was marked completed. Drivers usually complete the emergency
// themselves; the reconciler covers completions that arrive only through the
// route, such as a police officer closing the corridor after arrival.
type RouteReconciler struct {
	routeRepo     interfaces.RouteRepository
	emergencyRepo interfaces.EmergencyRepository
	completer     emergencyCompleter
	logger        *logger.Logger

	// retryDelay spaces out stream reconnects after an error.
	retryDelay time.Duration
}

func NewRouteReconciler(
	routeRepo interfaces.RouteRepository,
	emergencyRepo interfaces.EmergencyRepository,
	completer emergencyCompleter,
	log *logger.Logger,
) *RouteReconciler {
	return &RouteReconciler{
		routeRepo:     routeRepo,
		emergencyRepo: emergencyRepo,
		completer:     completer,
		logger:        log,
		retryDelay:    5 * time.Second,
	}
}

// Start consumes the route change stream until ctx is cancelled. The stream
// is reopened after transient failures.
func (r *RouteReconciler) Start(ctx context.Context) {
	for {
		changes, err := r.routeRepo.Watch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.WithError(err).Warn("Route watch failed, retrying")
			select {
			case <-time.After(r.retryDelay):
				continue
			case <-ctx.Done():
				return
			}
		}

		for change := range changes {
			r.handleChange(ctx, change)
		}

		if ctx.Err() != nil {
			return
		}
	}
}

func (r *RouteReconciler) handleChange(ctx context.Context, change interfaces.RouteChange) {
	route := change.FullDocument
	if route == nil || route.Status != models.RouteStatusCompleted {
		return
	}

	emergency, err := r.emergencyRepo.GetByID(ctx, route.EmergencyID)
	if err != nil {
		r.logger.WithError(err).WithRouteID(route.ID).Warn("Reconciler could not load emergency")
		return
	}
	if emergency.Status.IsTerminal() {
		return
	}

	completedBy := route.PoliceOfficerID
	completedByName := route.PoliceOfficerName
	if completedBy == "" {
		completedBy = utils.SystemActorID
		completedByName = utils.SystemActorName
	}

	_, err = r.completer.Complete(ctx, &CompleteInput{
		EmergencyID:       emergency.ID,
		CompletedBy:       completedBy,
		CompletedByName:   completedByName,
		Notes:             route.CompletionReason,
		IsDriverInitiated: route.PoliceOfficerID == route.DriverID.Hex(),
	})
	if err != nil {
		// Someone else closed it between our read and the transaction.
		if utils.IsCode(err, utils.CodeInvalidTransition) {
			return
		}
		r.logger.WithError(err).WithRouteID(route.ID).
			WithEmergencyID(emergency.ID).Error("Reconciler failed to complete emergency")
		return
	}

	r.logger.LogDispatchEvent(emergency.ID, "emergency_reconciled", map[string]interface{}{
		"route_id":     route.ID.Hex(),
		"completed_by": completedBy,
	})
}
