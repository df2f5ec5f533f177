// Package scheduler drives the periodic event status sweep: upcoming events
// become ongoing at their start instant and completed four hours later, with
// a catch-up rule for events whose day has already passed.
package scheduler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mr-sankar/Sindhuur-backend-latest/database"
	"github.com/mr-sankar/Sindhuur-backend-latest/models"
)

const ongoingWindow = 4 * time.Hour

// StartInstant combines the event date with its "HH:MM" time-of-day.
func StartInstant(ev models.Event) (time.Time, bool) {
	parts := strings.SplitN(ev.Time, ":", 2)
	if len(parts) != 2 {
		return time.Time{}, false
	}
	hours, err1 := strconv.Atoi(parts[0])
	minutes, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return time.Time{}, false
	}
	d := ev.Date
	return time.Date(d.Year(), d.Month(), d.Day(), hours, minutes, 0, 0, d.Location()), true
}

// NextStatus returns the status an upcoming/ongoing event should hold at
// now, and whether it differs from the current one.
func NextStatus(ev models.Event, now time.Time) (string, bool) {
	start, ok := StartInstant(ev)
	if !ok {
		return ev.Status, false
	}

	end := start.Add(ongoingWindow)
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case !now.Before(start) && now.Before(end) && ev.Status != models.EventOngoing:
		return models.EventOngoing, true
	case !now.Before(end) && ev.Status != models.EventCompleted:
		return models.EventCompleted, true
	case start.Before(startOfToday) && ev.Status != models.EventCompleted:
		// Catch-up for sweeps missed while the process was down.
		return models.EventCompleted, true
	}
	return ev.Status, false
}

// Sweep applies NextStatus to every upcoming/ongoing event and reports how
// many were moved. Failures are isolated per event so one broken document
// never blocks the rest.
func Sweep(ctx context.Context) (int, error) {
	now := time.Now()

	cursor, err := database.Events.Find(ctx, bson.M{
		"status": bson.M{"$in": []string{models.EventUpcoming, models.EventOngoing}},
	})
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var events []models.Event
	if err := cursor.All(ctx, &events); err != nil {
		return 0, err
	}

	updated := 0
	for _, ev := range events {
		next, changed := NextStatus(ev, now)
		if !changed {
			continue
		}
		_, err := database.Events.UpdateOne(ctx,
			bson.M{"_id": ev.ID, "status": ev.Status},
			bson.M{"$set": bson.M{"status": next}},
		)
		if err != nil {
			log.WithField("event", ev.Title).Errorf("status update failed: %v", err)
			continue
		}
		updated++
		log.WithFields(log.Fields{"event": ev.Title, "status": next}).Info("event status updated")
	}
	return updated, nil
}

// Start schedules the sweep once per minute and returns the running cron.
func Start() *cron.Cron {
	c := cron.New()
	c.AddFunc("* * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := Sweep(ctx); err != nil {
			log.Errorf("event sweep failed: %v", err)
		}
	})
	c.Start()
	return c
}
