package store

import (
	"context"
	"errors"
	"fmt"
	"pagenotes/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// translate maps gorm sentinel errors to the store's own.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (s *GormStore) ListCommentsByURL(ctx context.Context, url string, offset, limit int) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("url = ?", url).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&comments).Error
	return comments, translate("list comments", err)
}

func (s *GormStore) CountCommentsByURL(ctx context.Context, url string) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Comment{}).Where("url = ?", url).Count(&total).Error
	return total, translate("count comments", err)
}

func (s *GormStore) GetComment(ctx context.Context, id string) (models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error
	return comment, translate("get comment", err)
}

func (s *GormStore) InsertComment(ctx context.Context, comment *models.Comment) error {
	return translate("insert comment", s.db.WithContext(ctx).Create(comment).Error)
}

func (s *GormStore) UpdateComment(ctx context.Context, comment *models.Comment) error {
	result := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", comment.ID).
		Updates(map[string]interface{}{
			"raw_text":  comment.RawText,
			"text":      comment.Text,
			"edited_at": comment.EditedAt,
		})
	if result.Error != nil {
		return translate("update comment", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update comment: %w", ErrNotFound)
	}
	return nil
}

func (s *GormStore) DeleteCommentTree(ctx context.Context, rootID string) ([]string, error) {
	var removed []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root models.Comment
		if err := tx.Select("id").Where("id = ?", rootID).First(&root).Error; err != nil {
			return err
		}

		removed = []string{root.ID}
		seen := map[string]struct{}{root.ID: {}}
		frontier := []string{root.ID}
		for len(frontier) > 0 {
			var children []string
			if err := tx.Model(&models.Comment{}).
				Where("parent_id IN ?", frontier).
				Order("created_at DESC, id DESC").
				Pluck("id", &children).Error; err != nil {
				return err
			}
			frontier = frontier[:0]
			for _, id := range children {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				removed = append(removed, id)
				frontier = append(frontier, id)
			}
		}

		if err := tx.Where("comment_id IN ?", removed).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", removed).Delete(&models.Comment{}).Error
	})
	if err != nil {
		return nil, translate("delete comment tree", err)
	}
	return removed, nil
}

func (s *GormStore) GetVote(ctx context.Context, commentID, voterID string) (models.Vote, error) {
	var vote models.Vote
	err := s.db.WithContext(ctx).Where("comment_id = ? AND voter_id = ?", commentID, voterID).First(&vote).Error
	return vote, translate("get vote", err)
}

func (s *GormStore) SaveVote(ctx context.Context, vote *models.Vote) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "comment_id"}, {Name: "voter_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "updated_at"}),
	}).Create(vote).Error
	return translate("save vote", err)
}

func (s *GormStore) DeleteVote(ctx context.Context, commentID, voterID string) (bool, error) {
	result := s.db.WithContext(ctx).Where("comment_id = ? AND voter_id = ?", commentID, voterID).Delete(&models.Vote{})
	if result.Error != nil {
		return false, translate("delete vote", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *GormStore) CountVotes(ctx context.Context, commentIDs []string) (map[string]models.Tally, error) {
	tallies := make(map[string]models.Tally, len(commentIDs))
	if len(commentIDs) == 0 {
		return tallies, nil
	}

	type countResult struct {
		CommentID string
		Kind      models.VoteKind
		Count     int
	}
	var results []countResult
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Select("comment_id, kind, COUNT(*) as count").
		Where("comment_id IN ?", commentIDs).
		Group("comment_id, kind").
		Scan(&results).Error
	if err != nil {
		return nil, translate("count votes", err)
	}

	for _, r := range results {
		t := tallies[r.CommentID]
		switch r.Kind {
		case models.VoteUp:
			t.Upvotes = r.Count
		case models.VoteDown:
			t.Downvotes = r.Count
		}
		tallies[r.CommentID] = t
	}
	return tallies, nil
}

func (s *GormStore) InsertNotification(ctx context.Context, n *models.Notification) error {
	return translate("insert notification", s.db.WithContext(ctx).Create(n).Error)
}

func (s *GormStore) GetNotification(ctx context.Context, id string) (models.Notification, error) {
	var n models.Notification
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&n).Error
	return n, translate("get notification", err)
}

func (s *GormStore) ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, translate("list notifications", err)
}

func (s *GormStore) MarkNotificationRead(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("read", true)
	if result.Error != nil {
		return translate("mark notification read", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("mark notification read: %w", ErrNotFound)
	}
	return nil
}

func (s *GormStore) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	return result.RowsAffected, translate("mark all notifications read", result.Error)
}

func (s *GormStore) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, translate("count unread", err)
}

func (s *GormStore) InsertUser(ctx context.Context, user *models.User) error {
	return translate("insert user", s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return user, translate("get user", err)
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	return user, translate("get user by username", err)
}
