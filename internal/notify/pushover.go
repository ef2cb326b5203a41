package notify

import (
	"fmt"

	"github.com/gregdel/pushover"
	"github.com/sirupsen/logrus"
)

const (
	PriorityNormal = 0
	PriorityHigh   = 1
)

type Notifier struct {
	app       *pushover.Pushover
	recipient *pushover.Recipient
	logger    *logrus.Logger
}

func NewNotifier(token, userKey string, logger *logrus.Logger) *Notifier {
	return &Notifier{
		app:       pushover.New(token),
		recipient: pushover.NewRecipient(userKey),
		logger:    logger,
	}
}

func (n *Notifier) Send(title, message string) error {
	return n.SendWithPriority(title, message, PriorityNormal)
}

func (n *Notifier) SendWithPriority(title, message string, priority int) error {
	msg := pushover.NewMessageWithTitle(message, title)
	msg.Priority = priority

	resp, err := n.app.SendMessage(msg, n.recipient)
	if err != nil {
		return fmt.Errorf("sending pushover notification: %w", err)
	}

	n.logger.WithFields(logrus.Fields{
		"title":      title,
		"status":     resp.Status,
		"request_id": resp.ID,
	}).Debug("notification sent")

	return nil
}

func (n *Notifier) SendSameSeat(trainNumber, from, to string, freeSeats int, link string) error {
	title := "Seats Available"
	body := fmt.Sprintf("Train %s from %s to %s has %d free seats for the whole journey.\n%s",
		trainNumber, from, to, freeSeats, link)
	return n.SendWithPriority(title, body, PriorityHigh)
}

func (n *Notifier) SendSeatTransfer(trainNumber, from, to string, legs int) error {
	title := "Seats Available (with seat changes)"
	body := fmt.Sprintf("Train %s from %s to %s is bookable in %d legs; you will need to change seats %d time(s).",
		trainNumber, from, to, legs, legs-1)
	return n.SendWithPriority(title, body, PriorityHigh)
}

func (n *Notifier) SendNoSeats(trainNumber, from, to string) error {
	title := "No Seats Left"
	body := fmt.Sprintf("Train %s from %s to %s no longer has any bookable seats.", trainNumber, from, to)
	return n.Send(title, body)
}
