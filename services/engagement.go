package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/collegelover/college-lover-api/models"
	"github.com/collegelover/college-lover-api/utils"
	"github.com/collegelover/college-lover-api/ws"
)

type LikeState struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

type BookmarkState struct {
	Bookmarked bool        `json:"bookmarked"`
	Bookmarks  []uuid.UUID `json:"bookmarks"`
}

// TrackDownload increments the download counter by one and returns the new
// value. Repeated calls are all counted.
func (s *MaterialService) TrackDownload(ctx context.Context, id uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Material{}).
		Where("id = ?", id).
		UpdateColumn("downloads", gorm.Expr("downloads + ?", 1))
	if res.Error != nil {
		return 0, utils.Internal(res.Error, "could not track download")
	}
	if res.RowsAffected == 0 {
		return 0, utils.NewNotFoundError("Material not found")
	}

	var downloads int64
	err := s.db.WithContext(ctx).Model(&models.Material{}).
		Where("id = ?", id).
		Pluck("downloads", &downloads).Error
	if err != nil {
		return 0, utils.Internal(err, "could not read downloads")
	}

	s.publisher.Publish(id.String(), ws.EventDownloadUpdated, map[string]int64{"downloads": downloads})
	return downloads, nil
}

// ToggleLike flips the user's like on a material.
func (s *MaterialService) ToggleLike(ctx context.Context, id, userID uuid.UUID) (*LikeState, error) {
	if _, err := s.find(ctx, s.db, id); err != nil {
		return nil, err
	}

	state := &LikeState{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("material_id = ? AND user_id = ?", id, userID).Delete(&models.MaterialLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			like := models.MaterialLike{MaterialID: id, UserID: userID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return err
			}
			state.Liked = true
		}

		var count int64
		if err := tx.Model(&models.MaterialLike{}).Where("material_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		state.LikeCount = int(count)
		return nil
	})
	if err != nil {
		return nil, utils.Internal(err, "could not toggle like")
	}

	s.publisher.Publish(id.String(), ws.EventLikeUpdated, state)
	return state, nil
}

// ToggleBookmark flips the material's membership in the user's collection.
func (s *MaterialService) ToggleBookmark(ctx context.Context, id, userID uuid.UUID) (*BookmarkState, error) {
	if _, err := s.find(ctx, s.db, id); err != nil {
		return nil, err
	}

	state := &BookmarkState{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND material_id = ?", userID, id).Delete(&models.Bookmark{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			bm := models.Bookmark{UserID: userID, MaterialID: id}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&bm).Error; err != nil {
				return err
			}
			state.Bookmarked = true
		}

		state.Bookmarks = []uuid.UUID{}
		return tx.Model(&models.Bookmark{}).
			Where("user_id = ?", userID).
			Order("created_at ASC").
			Pluck("material_id", &state.Bookmarks).Error
	})
	if err != nil {
		return nil, utils.Internal(err, "could not toggle bookmark")
	}
	return state, nil
}

// AddComment appends a comment and returns the material's full comment list.
func (s *MaterialService) AddComment(ctx context.Context, id, userID uuid.UUID, text string) ([]models.CommentView, error) {
	comment := models.Comment{
		MaterialID: id,
		UserID:     userID,
		Text:       strings.TrimSpace(text),
	}
	if errs := comment.Validate(); len(errs) > 0 {
		return nil, utils.ValidationFailed(errs)
	}
	if _, err := s.find(ctx, s.db, id); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&comment).Error; err != nil {
		return nil, utils.Internal(err, "could not add comment")
	}

	comments, err := s.comments(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		if comments[i].ID == comment.ID {
			s.publisher.Publish(id.String(), ws.EventNewComment, comments[i])
			break
		}
	}
	return comments, nil
}

// DeleteComment removes one comment. Only its author or an admin may do so.
func (s *MaterialService) DeleteComment(ctx context.Context, actor Actor, id, commentID uuid.UUID) error {
	if _, err := s.find(ctx, s.db, id); err != nil {
		return err
	}

	var comment models.Comment
	err := s.db.WithContext(ctx).First(&comment, "id = ? AND material_id = ?", commentID, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NewNotFoundError("Comment not found")
	}
	if err != nil {
		return utils.Internal(err, "could not load comment")
	}
	if !CanModify(actor, comment.UserID) {
		return utils.NewForbiddenError("Not authorized to delete this comment")
	}

	if err := s.db.WithContext(ctx).Delete(&comment).Error; err != nil {
		return utils.Internal(err, "could not delete comment")
	}

	s.publisher.Publish(id.String(), ws.EventDeleteComment, map[string]uuid.UUID{"commentId": commentID})
	return nil
}

func (s *MaterialService) comments(ctx context.Context, id uuid.UUID) ([]models.CommentView, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("material_id = ?", id).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, utils.Internal(err, "could not load comments")
	}
	return models.CommentViews(comments), nil
}
