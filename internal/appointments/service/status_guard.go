package service

import (
	"fmt"
	"time"

	"medibuddy/pkg/auth"
	apperrors "medibuddy/pkg/errors"
	"medibuddy/pkg/model"
)

var terminal = map[model.AppointmentStatus]bool{
	model.Completed: true,
	model.Cancelled: true,
	model.NoShow:    true,
}

func IsTerminal(status model.AppointmentStatus) bool {
	return terminal[status]
}

// CanAct reports whether actor may mutate a: admins, its doctor or its patient.
func CanAct(a *model.Appointment, actor auth.Identity) bool {
	return actor.IsAdmin() || a.IsParticipant(actor.UserID)
}

// CheckTransition decides whether actor may move a to next at now. Only a
// scheduled appointment moves; cancelling needs at least cutoff before
// dateTime unless the actor is an admin.
func CheckTransition(a *model.Appointment, next model.AppointmentStatus, actor auth.Identity, now time.Time, cutoff time.Duration) error {
	if !CanAct(a, actor) {
		return apperrors.Forbidden("Not authorized to update this appointment")
	}

	switch next {
	case model.Scheduled, model.Completed, model.Cancelled, model.NoShow:
	default:
		return apperrors.InvalidInput(fmt.Sprintf("Unknown appointment status: %s", next))
	}

	if IsTerminal(a.Status) {
		return apperrors.PolicyViolation(fmt.Sprintf("Cannot change status of a %s appointment", a.Status))
	}
	if next == a.Status {
		return apperrors.PolicyViolation(fmt.Sprintf("Appointment is already %s", a.Status))
	}

	if next == model.Cancelled && !actor.IsAdmin() && a.DateTime.Sub(now) < cutoff {
		return apperrors.PolicyViolation(fmt.Sprintf("Cannot cancel appointment less than %s before scheduled time", describe(cutoff)))
	}
	return nil
}

// CheckReschedule applies the cancellation rules to moving a: the current
// slot is given up, so the same cutoff holds for non-admins.
func CheckReschedule(a *model.Appointment, actor auth.Identity, now time.Time, cutoff time.Duration) error {
	if !CanAct(a, actor) {
		return apperrors.Forbidden("Not authorized to update this appointment")
	}
	if a.Status != model.Scheduled {
		return apperrors.PolicyViolation(fmt.Sprintf("Cannot reschedule a %s appointment", a.Status))
	}
	if !actor.IsAdmin() && a.DateTime.Sub(now) < cutoff {
		return apperrors.PolicyViolation(fmt.Sprintf("Cannot reschedule appointment less than %s before scheduled time", describe(cutoff)))
	}
	return nil
}

func describe(d time.Duration) string {
	if d > 0 && d%time.Hour == 0 {
		if h := int(d / time.Hour); h != 1 {
			return fmt.Sprintf("%d hours", h)
		}
		return "1 hour"
	}
	return d.String()
}
