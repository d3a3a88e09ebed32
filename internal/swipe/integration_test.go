//go:build integration

package swipe

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"skillswipe/internal/config"
	"skillswipe/internal/database"
	"skillswipe/internal/errcode"
	"skillswipe/internal/target"
	"skillswipe/internal/testutil"
)

// newPostgresDB 启动一次性的 PostgreSQL 容器并完成迁移。
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("skillswipe"),
		tcpostgres.WithUsername("skillswipe"),
		tcpostgres.WithPassword("skillswipe"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	db, err := database.InitDatabase(config.DatabaseConfig{
		Host:     host,
		Port:     port.Int(),
		Name:     "skillswipe",
		User:     "skillswipe",
		Password: "skillswipe",
		SSLMode:  "disable",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func TestPostgres_ConcurrentDetectMatchCreatesOneRow(t *testing.T) {
	ctx := context.Background()
	db := newPostgresDB(t)
	svc := NewService(db, nil, nil)

	dev, _ := testutil.CreateDeveloper(t, db)
	owner, company := testutil.CreateCompany(t, db)
	job := testutil.CreateJob(t, db, company, owner)

	res, err := svc.Swipe(ctx, dev.ID, target.JobTarget{JobID: job.ID})
	require.NoError(t, err)
	require.False(t, res.MatchCreated)

	reverse := database.SwipeAction{
		SwiperID:   owner.ID,
		SwipedOnID: dev.ID,
		SwipeType:  database.SwipeProfile,
		DedupeKey:  target.ProfileTarget{UserID: dev.ID}.Key(),
	}
	require.NoError(t, db.Create(&reverse).Error)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = map[string]struct{}{}
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sw, role := res.Swipe, database.RoleDeveloper
			if i%2 == 1 {
				sw, role = reverse, database.RoleCompany
			}
			match, ok, err := svc.DetectMatch(ctx, role, sw)
			if !assert.NoError(t, err) || !assert.NotNil(t, match) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if ok {
				created++
			}
			ids[match.ID] = struct{}{}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created, "exactly one caller creates the match")
	assert.Len(t, ids, 1, "every caller sees the same match")
	assert.EqualValues(t, 1, countRows(t, db, &database.Match{}))
}

func TestPostgres_ConcurrentDuplicateSwipe(t *testing.T) {
	ctx := context.Background()
	db := newPostgresDB(t)
	svc := NewService(db, nil, nil)

	dev, _ := testutil.CreateDeveloper(t, db)
	owner, company := testutil.CreateCompany(t, db)
	job := testutil.CreateJob(t, db, company, owner)

	const workers = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Swipe(ctx, dev.ID, target.JobTarget{JobID: job.ID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errcode.Is(err, errcode.KindConflict):
				conflicts++
			default:
				t.Errorf("unexpected swipe error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
	assert.EqualValues(t, 1, countRows(t, db, &database.SwipeAction{}))
}
