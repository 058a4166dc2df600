package notify

import (
	"fmt"
	"strings"

	"github.com/c-moralesv/lexagenda/internal/model"
)

// ConfirmationMessage builds the client-facing confirmation email.
func ConfirmationMessage(appt model.Appointment, lawyerName, serviceName string) (subject, body string) {
	subject = "Your consultation is confirmed"

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", appt.ClientName)
	fmt.Fprintf(&b, "Your %s consultation with %s is confirmed for %s at %s (%d minutes).\n",
		nonEmpty(serviceName, "legal"), nonEmpty(lawyerName, "our office"), appt.Date, appt.StartTime, appt.DurationMinutes)
	if appt.MeetingLink != "" {
		fmt.Fprintf(&b, "\nJoin online: %s\n", appt.MeetingLink)
	}
	b.WriteString("\nIf you need to change the appointment, reply to this email.\n")
	return subject, b.String()
}

// CancellationMessage builds the client-facing cancellation email.
func CancellationMessage(appt model.Appointment, lawyerName string) (subject, body string) {
	subject = "Your consultation was cancelled"

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", appt.ClientName)
	fmt.Fprintf(&b, "Your consultation with %s on %s at %s has been cancelled.\n",
		nonEmpty(lawyerName, "our office"), appt.Date, appt.StartTime)
	b.WriteString("\nYou can book a new time on our website at any moment.\n")
	return subject, b.String()
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
