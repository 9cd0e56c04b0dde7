package reminder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/internship/core"
	"github.com/trezcool/internship/core/portal"
	"github.com/trezcool/internship/storage/snapshot/memsnap"
)

type mailRecorder struct {
	mu   sync.Mutex
	sent []*core.EmailMessage
}

func (m *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, messages...)
}

type counter int

func (c *counter) ReminderSent() { *c++ }

func approvedStudent(t *testing.T, store *portal.Store, name, email, start string) portal.Student {
	t.Helper()
	st, err := store.CreateStudent(portal.NewStudent{Name: name, Email: email})
	require.NoError(t, err)
	require.NoError(t, store.ApproveStudent(st.ID))
	_, err = store.SubmitApproval(st.ID, portal.ApprovalData{Internship: portal.ApprovalInternship{StartDate: start}})
	require.NoError(t, err)
	return st
}

func TestService_Run(t *testing.T) {
	now := time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)
	defer func(orig func() time.Time) { portal.NowFunc = orig }(portal.NowFunc)

	store, err := portal.NewStore(context.Background(), memsnap.Open(), portal.WithLogger(core.NewNopLogger()))
	require.NoError(t, err)

	lagging := approvedStudent(t, store, "Ali Raza", "ali@cuisahiwal.edu.pk", "2024-03-01")
	onTrack := approvedStudent(t, store, "Sara Khan", "sara@cuisahiwal.edu.pk", "2024-03-01")
	approvedStudent(t, store, "Future Intern", "future@cuisahiwal.edu.pk", "2024-04-01")
	_, err = store.CreateStudent(portal.NewStudent{Name: "Pending", Email: "pending@cuisahiwal.edu.pk"})
	require.NoError(t, err)

	portal.NowFunc = func() time.Time { return now.Add(-48 * time.Hour) }
	_, err = store.SubmitWeeklyLog(onTrack.ID, portal.NewWeeklyLog{Week: 3, Note: "api work"})
	require.NoError(t, err)
	portal.NowFunc = func() time.Time { return now.Add(-10 * 24 * time.Hour) }
	_, err = store.SubmitWeeklyLog(lagging.ID, portal.NewWeeklyLog{Week: 1, Note: "setup"})
	require.NoError(t, err)

	mails := &mailRecorder{}
	var sent counter
	svc := NewService(store, mails, core.NewNopLogger(), &sent)
	svc.NowFunc = func() time.Time { return now }

	due := svc.Due(now)
	require.Len(t, due, 1)
	assert.Equal(t, lagging.ID, due[0].Student.ID)
	assert.Equal(t, 3, due[0].Week)

	assert.Equal(t, 1, svc.Run())
	assert.Equal(t, counter(1), sent)
	require.Len(t, mails.sent, 1)
	msg := mails.sent[0]
	assert.Equal(t, "ali@cuisahiwal.edu.pk", msg.To[0].Address)
	assert.Equal(t, weeklyReminderTemplate, msg.TemplateName)
	assert.Equal(t, map[string]interface{}{"Name": "Ali Raza", "Week": 3}, msg.TemplateData)

	require.NoError(t, msg.Render("Internship Portal", "http://localhost:4200"))
	assert.Contains(t, msg.TextContent, "week 3")
}

func TestService_Start(t *testing.T) {
	store, err := portal.NewStore(context.Background(), memsnap.Open(), portal.WithLogger(core.NewNopLogger()))
	require.NoError(t, err)
	svc := NewService(store, &mailRecorder{}, core.NewNopLogger(), nil)

	assert.Error(t, svc.Start("every tuesday"))
	require.NoError(t, svc.Start("0 8 * * MON"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	svc.Stop(ctx)
	assert.NoError(t, ctx.Err())
}
