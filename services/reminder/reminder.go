// Package reminder emails approved students who have not filed a weekly log in the last 7 days.
package reminder

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/internship/core"
	"github.com/trezcool/internship/core/portal"
)

const weeklyReminderTemplate = "weekly_reminder"

// Recorder is told about every reminder sent.
type Recorder interface {
	ReminderSent()
}

type Service struct {
	store    *portal.Store
	mailSvc  core.EmailService
	logger   core.Logger
	recorder Recorder
	cron     *cron.Cron

	NowFunc func() time.Time // mockable
}

func NewService(store *portal.Store, mailSvc core.EmailService, logger core.Logger, recorder Recorder) *Service {
	return &Service{
		store:    store,
		mailSvc:  mailSvc,
		logger:   logger,
		recorder: recorder,
		NowFunc:  func() time.Time { return time.Now().UTC() },
	}
}

// Start schedules Run on a standard 5 field cron spec (or a descriptor such as @weekly).
func (svc *Service) Start(schedule string) error {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{svc.logger})))
	if _, err := c.AddFunc(schedule, func() { svc.Run() }); err != nil {
		return errors.Wrapf(err, "parsing reminder schedule %q", schedule)
	}
	svc.cron = c
	c.Start()
	svc.logger.Info(fmt.Sprintf("weekly reminders scheduled: %s", schedule))
	return nil
}

// Stop waits for a running job to finish or ctx to be done.
func (svc *Service) Stop(ctx context.Context) {
	if svc.cron == nil {
		return
	}
	select {
	case <-svc.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Due lists the students a reminder would go to at now.
// Students whose internship has not started yet are left alone.
func (svc *Service) Due(now time.Time) []Due {
	var due []Due
	for _, st := range svc.store.Students() {
		if !st.Approved || st.Email == "" {
			continue
		}
		week := portal.ExpectedWeeks(svc.store.Approvals(st.ID), now)
		if week == 0 || portal.HasLogThisWeek(svc.store.Logs(st.ID), now) {
			continue
		}
		due = append(due, Due{Student: st.Sanitized(), Week: week})
	}
	return due
}

type Due struct {
	Student portal.Student
	Week    int
}

// Run sends one reminder per due student and returns how many were sent.
func (svc *Service) Run() int {
	due := svc.Due(svc.NowFunc())
	if len(due) == 0 {
		return 0
	}
	msgs := make([]*core.EmailMessage, 0, len(due))
	for _, d := range due {
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: d.Student.Name, Address: d.Student.Email}},
			Subject:      "Weekly log reminder",
			TemplateName: weeklyReminderTemplate,
			TemplateData: map[string]interface{}{"Name": d.Student.Name, "Week": d.Week},
		})
		if svc.recorder != nil {
			svc.recorder.ReminderSent()
		}
	}
	svc.mailSvc.SendMessages(msgs...)
	svc.logger.Info(fmt.Sprintf("sent %d weekly log reminders", len(msgs)))
	return len(msgs)
}

// cronLogger routes cron's own logging to core.Logger.
type cronLogger struct {
	logger core.Logger
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{err}, keysAndValues...)...)
}
