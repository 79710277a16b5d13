package service

import (
	"compliance_training_backend/internal/model"
	"compliance_training_backend/internal/util"
	"math"
	"time"
)

// percentage 四舍五入（远离零），分母为 0 时返回 0
func percentage(num, den int) int {
	if den <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(num) / float64(den)))
}

// RecordCompletion 把一次测验结果合并进用户记录，返回新的记录，不修改入参。
// 总分与总百分比只统计已完成的模块。
func RecordCompletion(user *model.User, moduleID string, score, totalQuestions int, now time.Time) (*model.User, error) {
	idx := user.FindModule(moduleID)
	if idx < 0 {
		return nil, util.ErrModuleNotAssigned
	}

	updated := user.Clone()
	completedAt := now
	m := &updated.AssignedModules[idx]
	m.Completed = true
	m.Score = score
	m.TotalQuestions = totalQuestions
	m.Percentage = percentage(score, totalQuestions)
	m.CompletedAt = &completedAt

	var completed, totalScore, totalAsked int
	for _, am := range updated.AssignedModules {
		if !am.Completed {
			continue
		}
		completed++
		totalScore += am.Score
		totalAsked += am.TotalQuestions
	}

	updated.OverallScore = totalScore
	updated.OverallPercentage = percentage(totalScore, totalAsked)
	updated.TrainingCompleted = completed == len(updated.AssignedModules)

	return updated, nil
}

// MarkCertificateGenerated 只有培训全部完成后才能标记证书
func MarkCertificateGenerated(user *model.User) (*model.User, error) {
	if !user.TrainingCompleted {
		return nil, util.ErrTrainingIncomplete
	}
	updated := user.Clone()
	updated.CertificateGenerated = true
	return updated, nil
}

// Summarize 计算进度汇总
func Summarize(user *model.User) *model.Progress {
	completed := 0
	for _, m := range user.AssignedModules {
		if m.Completed {
			completed++
		}
	}
	modules := make([]model.AssignedModule, len(user.AssignedModules))
	copy(modules, user.AssignedModules)

	return &model.Progress{
		CompletedModules:     completed,
		TotalModules:         len(user.AssignedModules),
		ProgressPercentage:   percentage(completed, len(user.AssignedModules)),
		OverallScore:         user.OverallScore,
		OverallPercentage:    user.OverallPercentage,
		TrainingCompleted:    user.TrainingCompleted,
		CertificateGenerated: user.CertificateGenerated,
		Modules:              modules,
	}
}
