package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillswipe/internal/database"
	"skillswipe/internal/tasks"
	"skillswipe/internal/testutil"
)

type published struct {
	channel string
	msg     MatchNotifyMessage
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var msg MatchNotifyMessage
	if data, ok := message.([]byte); ok {
		_ = json.Unmarshal(data, &msg)
	}
	f.sent = append(f.sent, published{channel: channel, msg: msg})
	return redis.NewIntResult(1, nil)
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestMatchNotifyHandler_PublishesToBothUsers(t *testing.T) {
	db := testutil.NewDB(t)
	dev, _ := testutil.CreateDeveloper(t, db)
	owner, company := testutil.CreateCompany(t, db)
	job := testutil.CreateJob(t, db, company, owner)

	u1, u2 := dev.ID, owner.ID
	if u2 < u1 {
		u1, u2 = u2, u1
	}
	match := database.Match{User1ID: u1, User2ID: u2, JobPostID: &job.ID, JobContextKey: job.ID, Status: database.MatchActive}
	require.NoError(t, db.Create(&match).Error)

	task, err := tasks.NewMatchNotifyTask(match, "corr-1")
	require.NoError(t, err)

	pub := &fakePublisher{}
	h := NewMatchNotifyHandler(db, pub, discardLogger())
	require.NoError(t, h.ProcessTask(context.Background(), task))

	require.Len(t, pub.sent, 2)
	byChannel := map[string]MatchNotifyMessage{}
	for _, p := range pub.sent {
		byChannel[p.channel] = p.msg
	}
	devMsg := byChannel[NotifyChannel(dev.ID)]
	assert.Equal(t, owner.ID, devMsg.OtherUserID)
	assert.Equal(t, "match_created", devMsg.Type)
	assert.Equal(t, job.Title, devMsg.JobTitle)
	assert.Equal(t, "corr-1", devMsg.CorrelationID)
	assert.Equal(t, dev.ID, byChannel[NotifyChannel(owner.ID)].OtherUserID)
}

func TestMatchNotifyHandler_MissingMatchIsSkipped(t *testing.T) {
	db := testutil.NewDB(t)
	task, err := tasks.NewMatchNotifyTask(database.Match{ID: "missing"}, "")
	require.NoError(t, err)

	pub := &fakePublisher{}
	require.NoError(t, NewMatchNotifyHandler(db, pub, discardLogger()).ProcessTask(context.Background(), task))
	assert.Empty(t, pub.sent)
}

func TestMatchNotifyHandler_BadPayloadSkipsRetry(t *testing.T) {
	db := testutil.NewDB(t)
	task := asynq.NewTask(tasks.TypeMatchNotify, []byte("{"))
	err := NewMatchNotifyHandler(db, &fakePublisher{}, discardLogger()).ProcessTask(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestMatchNotifyHandler_PublishError(t *testing.T) {
	db := testutil.NewDB(t)
	dev, _ := testutil.CreateDeveloper(t, db)
	owner, _ := testutil.CreateCompany(t, db)
	u1, u2 := dev.ID, owner.ID
	if u2 < u1 {
		u1, u2 = u2, u1
	}
	match := database.Match{User1ID: u1, User2ID: u2, Status: database.MatchActive}
	require.NoError(t, db.Create(&match).Error)
	task, err := tasks.NewMatchNotifyTask(match, "")
	require.NoError(t, err)

	pub := &fakePublisher{err: errors.New("redis down")}
	err = NewMatchNotifyHandler(db, pub, discardLogger()).ProcessTask(context.Background(), task)
	assert.ErrorContains(t, err, "redis down")
}

func TestInactivitySweep(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Now()
	old := now.AddDate(0, 0, -45)

	stale := testutil.CreateUser(t, db, database.RoleDeveloper, func(u *database.User) {
		u.CreatedAt = old
		u.LastActivityAt = old
	})
	recent := testutil.CreateUser(t, db, database.RoleDeveloper, func(u *database.User) {
		u.CreatedAt = old
		u.LastActivityAt = now.AddDate(0, 0, -2)
	})
	fresh := testutil.CreateUser(t, db, database.RoleCompany)

	h := NewInactivitySweepHandler(db, discardLogger(), 30)
	task, err := tasks.NewInactivitySweepTask(30)
	require.NoError(t, err)
	require.NoError(t, h.ProcessTask(context.Background(), task))

	statusOf := func(id string) database.UserStatus {
		var u database.User
		require.NoError(t, db.First(&u, "id = ?", id).Error)
		return u.Status
	}
	assert.Equal(t, database.UserInactive, statusOf(stale.ID))
	assert.Equal(t, database.UserActive, statusOf(recent.ID))
	assert.Equal(t, database.UserActive, statusOf(fresh.ID), "a new account without activity is kept")

	n, err := h.Sweep(context.Background(), 30)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}
