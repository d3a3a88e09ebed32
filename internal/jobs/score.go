package jobs

import (
	"strings"

	"skillswipe/internal/database"
)

const (
	techWeight       = 40
	experienceWeight = 30
	nearExperience   = 15
	locationWeight   = 20
	relocationWeight = 10
	salaryWeight     = 10
	maxScore         = 100
)

// MatchScore 计算职位与开发者资料的匹配分（0-100），仅作为展示元数据。
//
//	技术栈重合 40 / 经验区间 30 / 地点 20 / 薪资 10
func MatchScore(job database.JobPosting, dev *database.DeveloperProfile) int {
	if dev == nil {
		return 0
	}
	score := 0.0

	if len(job.TechStack) > 0 && len(dev.TopLanguages) > 0 {
		known := make(map[string]struct{}, len(dev.TopLanguages)+len(dev.Tools))
		for _, s := range dev.TopLanguages {
			known[strings.ToLower(s)] = struct{}{}
		}
		for _, s := range dev.Tools {
			known[strings.ToLower(s)] = struct{}{}
		}
		required := make(map[string]struct{}, len(job.TechStack))
		for _, s := range job.TechStack {
			required[strings.ToLower(s)] = struct{}{}
		}
		common := 0
		for s := range required {
			if _, ok := known[s]; ok {
				common++
			}
		}
		score += float64(common) / float64(len(required)) * techWeight
	}

	if lo, hi, ok := job.ExperienceRequired.YearsRange(); ok && dev.ExperienceYears != nil {
		years := *dev.ExperienceYears
		switch {
		case years >= lo && years <= hi:
			score += experienceWeight
		case abs(years-lo) <= 1:
			score += nearExperience
		}
	}

	if job.Location != "" && dev.CurrentLocation != "" {
		jobLoc := strings.ToLower(job.Location)
		if strings.Contains(strings.ToLower(dev.CurrentLocation), jobLoc) {
			score += locationWeight
		} else if dev.WillingToRelocate {
			for _, city := range dev.TopTwoCities {
				if city != "" && strings.Contains(jobLoc, strings.ToLower(city)) {
					score += relocationWeight
					break
				}
			}
		}
	}

	if job.SalaryMin != nil && dev.SalaryExpectationMin != nil && *job.SalaryMin >= *dev.SalaryExpectationMin {
		score += salaryWeight
	}

	if score > maxScore {
		score = maxScore
	}
	return int(score + 0.5)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
