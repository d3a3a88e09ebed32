package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillswipe/internal/database"
	"skillswipe/internal/errcode"
)

func TestFromIDs(t *testing.T) {
	tests := []struct {
		name    string
		jobID   string
		userID  string
		want    Target
		wantErr bool
	}{
		{name: "job only", jobID: "j1", want: JobTarget{JobID: "j1"}},
		{name: "user only", userID: "u1", want: ProfileTarget{UserID: "u1"}},
		{name: "both", jobID: "j1", userID: "u1", wantErr: true},
		{name: "neither", wantErr: true},
		{name: "blank strings", jobID: "  ", userID: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromIDs(tt.jobID, tt.userID)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errcode.Is(err, errcode.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestForSwipe(t *testing.T) {
	got, err := ForSwipe(database.SwipeProfile, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, "profile:u1", got.Key())
	assert.Equal(t, database.SwipeProfile, got.SwipeType())

	got, err = ForSwipe(database.SwipeJob, "", "j1")
	require.NoError(t, err)
	assert.Equal(t, "job:j1", got.Key())

	_, err = ForSwipe(database.SwipeJob, "", "")
	assert.True(t, errcode.Is(err, errcode.KindValidation))

	_, err = ForSwipe(database.SwipeProfile, "u1", "j1")
	assert.True(t, errcode.Is(err, errcode.KindValidation))

	_, err = ForSwipe("superlike", "u1", "")
	assert.True(t, errcode.Is(err, errcode.KindValidation))
}
