package services

import (
	"fmt"

	"github.com/stayloop/stays-service/internal/models"
)

func bookingRequestEmail(b *models.Booking, p *models.Property, guest *models.User) (subject, plain, html string) {
	subject = fmt.Sprintf("New booking request for %s", p.Name)
	plain = fmt.Sprintf(
		"%s requested %s from %s to %s (%d night(s) at %.2f/night, %.2f total). "+
			"Confirm or decline from your dashboard.",
		guest.FullName(), p.Name,
		b.CheckIn.Format("Jan 2, 2006"), b.CheckOut.Format("Jan 2, 2006"),
		b.Nights(), b.LockedNightlyPrice, b.LockedTotal(),
	)
	html = fmt.Sprintf(
		"<p><strong>%s</strong> requested <strong>%s</strong><br>%s &rarr; %s<br>"+
			"%d night(s) at %.2f/night, <strong>%.2f total</strong>.</p>"+
			"<p>Confirm or decline from your dashboard.</p>",
		guest.FullName(), p.Name,
		b.CheckIn.Format("Jan 2, 2006"), b.CheckOut.Format("Jan 2, 2006"),
		b.Nights(), b.LockedNightlyPrice, b.LockedTotal(),
	)
	return subject, plain, html
}

func bookingConfirmedEmail(b *models.Booking, p *models.Property, guest *models.User) (subject, plain, html string) {
	subject = fmt.Sprintf("Your stay at %s is confirmed", p.Name)
	plain = fmt.Sprintf(
		"Hi %s, your booking at %s from %s to %s is confirmed. "+
			"Total due: %.2f (%d night(s) at the locked rate of %.2f/night).",
		guest.FirstName, p.Name,
		b.CheckIn.Format("Jan 2, 2006"), b.CheckOut.Format("Jan 2, 2006"),
		b.LockedTotal(), b.Nights(), b.LockedNightlyPrice,
	)
	html = fmt.Sprintf(
		"<p>Hi %s,</p><p>Your booking at <strong>%s</strong><br>%s &rarr; %s is confirmed.</p>"+
			"<p>Total due: <strong>%.2f</strong> (%d night(s) at the locked rate of %.2f/night).</p>",
		guest.FirstName, p.Name,
		b.CheckIn.Format("Jan 2, 2006"), b.CheckOut.Format("Jan 2, 2006"),
		b.LockedTotal(), b.Nights(), b.LockedNightlyPrice,
	)
	return subject, plain, html
}

func checkInReminderEmail(b *models.Booking, p *models.Property, guest *models.User) (subject, plain, html string) {
	subject = fmt.Sprintf("Reminder: your stay at %s starts tomorrow", p.Name)
	plain = fmt.Sprintf(
		"Hi %s, a reminder that your stay at %s (%s) begins tomorrow, %s. "+
			"Check-out is %s. Have a great trip!",
		guest.FirstName, p.Name, p.Location,
		b.CheckIn.Format("Jan 2, 2006"), b.CheckOut.Format("Jan 2, 2006"),
	)
	html = fmt.Sprintf(
		"<p>Hi %s,</p><p>A reminder that your stay at <strong>%s</strong> (%s) "+
			"begins tomorrow, <strong>%s</strong>.<br>Check-out is %s.</p>"+
			"<p>Have a great trip!</p>",
		guest.FirstName, p.Name, p.Location,
		b.CheckIn.Format("Jan 2, 2006"), b.CheckOut.Format("Jan 2, 2006"),
	)
	return subject, plain, html
}

func newMessageEmail(sender, recipient *models.User, body string) (subject, plain, html string) {
	preview := truncateBody(body, 200)
	subject = fmt.Sprintf("New message from %s", sender.FirstName)
	plain = fmt.Sprintf(
		"Hi %s, you have a new message from %s:\n\n%s\n\nReply from your inbox.",
		recipient.FirstName, sender.FullName(), preview,
	)
	html = fmt.Sprintf(
		"<p>Hi %s,</p><p>You have a new message from <strong>%s</strong>:</p>"+
			"<blockquote>%s</blockquote><p>Reply from your inbox.</p>",
		recipient.FirstName, sender.FullName(), preview,
	)
	return subject, plain, html
}

func truncateBody(body string, max int) string {
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	return string(runes[:max]) + "..."
}

func bookingCanceledEmail(b *models.Booking, p *models.Property) (subject, plain, html string) {
	subject = fmt.Sprintf("Booking canceled: %s", p.Name)
	plain = fmt.Sprintf(
		"The booking at %s from %s to %s has been canceled. The dates are open again.",
		p.Name,
		b.CheckIn.Format("Jan 2, 2006"), b.CheckOut.Format("Jan 2, 2006"),
	)
	html = fmt.Sprintf(
		"<p>The booking at <strong>%s</strong><br>%s &rarr; %s has been canceled.</p>"+
			"<p>The dates are open again.</p>",
		p.Name,
		b.CheckIn.Format("Jan 2, 2006"), b.CheckOut.Format("Jan 2, 2006"),
	)
	return subject, plain, html
}
