package services

import (
	"context"

	"github.com/collegelover/college-lover-api/models"
	"github.com/collegelover/college-lover-api/utils"
)

// GroupCount is one bucket of a grouped count. Label holds the grouped value.
type GroupCount struct {
	Label string `gorm:"column:label" json:"_id"`
	Count int64  `gorm:"column:total" json:"count"`
}

type Stats struct {
	TotalMaterials    int64                 `json:"totalMaterials"`
	ApprovedMaterials int64                 `json:"approvedMaterials"`
	PendingMaterials  int64                 `json:"pendingMaterials"`
	TotalUsers        int64                 `json:"totalUsers"`
	TotalDownloads    int64                 `json:"totalDownloads"`
	ByDepartment      []GroupCount          `json:"byDepartment"`
	BySemester        []GroupCount          `json:"bySemester"`
	RecentUploads     []models.MaterialView `json:"recentUploads"`
}

// Stats aggregates moderation and engagement totals for the admin dashboard.
func (s *MaterialService) Stats(ctx context.Context, actor Actor) (*Stats, error) {
	if !actor.IsAdmin() {
		return nil, utils.NewForbiddenError("User role %s is not authorized to access this route", actor.Role)
	}

	db := s.db.WithContext(ctx)
	st := &Stats{}

	if err := db.Model(&models.Material{}).Count(&st.TotalMaterials).Error; err != nil {
		return nil, utils.Internal(err, "could not count materials")
	}
	if err := db.Model(&models.Material{}).Where("approved = ?", true).Count(&st.ApprovedMaterials).Error; err != nil {
		return nil, utils.Internal(err, "could not count approved materials")
	}
	st.PendingMaterials = st.TotalMaterials - st.ApprovedMaterials

	if err := db.Model(&models.User{}).Count(&st.TotalUsers).Error; err != nil {
		return nil, utils.Internal(err, "could not count users")
	}
	if err := db.Model(&models.Material{}).Select("COALESCE(SUM(downloads), 0)").Scan(&st.TotalDownloads).Error; err != nil {
		return nil, utils.Internal(err, "could not sum downloads")
	}

	st.ByDepartment = []GroupCount{}
	err := db.Model(&models.Material{}).
		Select("department AS label, COUNT(*) AS total").
		Group("department").
		Order("total DESC, label ASC").
		Scan(&st.ByDepartment).Error
	if err != nil {
		return nil, utils.Internal(err, "could not group by department")
	}

	st.BySemester = []GroupCount{}
	err = db.Model(&models.Material{}).
		Select("semester AS label, COUNT(*) AS total").
		Group("semester").
		Order("label ASC").
		Scan(&st.BySemester).Error
	if err != nil {
		return nil, utils.Internal(err, "could not group by semester")
	}

	var recent []models.Material
	err = db.Preload("UploadedBy").
		Preload("Subjects", orderSubjects).
		Order("created_at DESC").
		Limit(5).
		Find(&recent).Error
	if err != nil {
		return nil, utils.Internal(err, "could not load recent uploads")
	}
	st.RecentUploads = models.MaterialViews(recent)

	return st, nil
}
