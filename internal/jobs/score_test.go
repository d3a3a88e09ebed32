package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"

	"skillswipe/internal/database"
	"skillswipe/internal/testutil"
)

func TestMatchScore(t *testing.T) {
	baseJob := func() database.JobPosting {
		return database.JobPosting{
			TechStack:          datatypes.JSONSlice[string]{"python", "go"},
			ExperienceRequired: database.ExperienceMid,
			Location:           "Berlin",
		}
	}
	baseDev := func() *database.DeveloperProfile {
		return &database.DeveloperProfile{
			TopLanguages:    datatypes.JSONSlice[string]{"python"},
			Tools:           datatypes.JSONSlice[string]{},
			ExperienceYears: testutil.IntPtr(3),
			CurrentLocation: "Berlin, Germany",
		}
	}

	tests := []struct {
		name string
		job  func(*database.JobPosting)
		dev  func(*database.DeveloperProfile)
		want int
	}{
		{name: "half tech, bracket, location, no salary", want: 70},
		{
			name: "tools count toward tech",
			dev:  func(d *database.DeveloperProfile) { d.Tools = datatypes.JSONSlice[string]{"Go"} },
			want: 90,
		},
		{
			name: "no languages means no tech score",
			dev: func(d *database.DeveloperProfile) {
				d.TopLanguages = nil
				d.Tools = datatypes.JSONSlice[string]{"go"}
			},
			want: 50,
		},
		{
			name: "one year below bracket",
			dev:  func(d *database.DeveloperProfile) { d.ExperienceYears = testutil.IntPtr(1) },
			want: 55,
		},
		{
			name: "far outside bracket",
			dev:  func(d *database.DeveloperProfile) { d.ExperienceYears = testutil.IntPtr(12) },
			want: 40,
		},
		{
			name: "no experience requirement",
			job:  func(j *database.JobPosting) { j.ExperienceRequired = "" },
			want: 40,
		},
		{
			name: "relocation to a preferred city",
			job:  func(j *database.JobPosting) { j.Location = "Munich, Germany" },
			dev: func(d *database.DeveloperProfile) {
				d.WillingToRelocate = true
				d.TopTwoCities = datatypes.JSONSlice[string]{"munich"}
			},
			want: 60,
		},
		{
			name: "salary meets expectation",
			job:  func(j *database.JobPosting) { j.SalaryMin = testutil.IntPtr(90000) },
			dev:  func(d *database.DeveloperProfile) { d.SalaryExpectationMin = testutil.IntPtr(80000) },
			want: 80,
		},
		{
			name: "salary below expectation",
			job:  func(j *database.JobPosting) { j.SalaryMin = testutil.IntPtr(70000) },
			dev:  func(d *database.DeveloperProfile) { d.SalaryExpectationMin = testutil.IntPtr(80000) },
			want: 70,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := baseJob()
			dev := baseDev()
			if tt.job != nil {
				tt.job(&job)
			}
			if tt.dev != nil {
				tt.dev(dev)
			}
			assert.Equal(t, tt.want, MatchScore(job, dev))
		})
	}
}

func TestMatchScore_NilProfile(t *testing.T) {
	assert.Equal(t, 0, MatchScore(database.JobPosting{}, nil))
}

func TestMatchScore_CappedAt100(t *testing.T) {
	job := database.JobPosting{
		TechStack:          datatypes.JSONSlice[string]{"go"},
		ExperienceRequired: database.ExperienceSenior,
		Location:           "Remote",
		SalaryMin:          testutil.IntPtr(100),
	}
	dev := &database.DeveloperProfile{
		TopLanguages:         datatypes.JSONSlice[string]{"go"},
		ExperienceYears:      testutil.IntPtr(7),
		CurrentLocation:      "remote",
		SalaryExpectationMin: testutil.IntPtr(100),
	}
	assert.Equal(t, 100, MatchScore(job, dev))
}
