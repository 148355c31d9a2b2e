package repository

import (
	"context"
	"errors"

	"github.com/famboard/dispatch-engine/internal/domain"
	"gorm.io/gorm"
)

// MembershipRepository resolves a group's members and their channel
// preferences. Read-only: dispatch never mutates memberships.
type MembershipRepository interface {
	GroupExists(ctx context.Context, groupID string) (bool, error)
	ListRecipients(ctx context.Context, groupID string) ([]domain.Recipient, error)
}

type GormMembershipRepo struct {
	db *gorm.DB
}

func NewGormMembershipRepo(db *gorm.DB) *GormMembershipRepo {
	return &GormMembershipRepo{db: db}
}

func (r *GormMembershipRepo) GroupExists(ctx context.Context, groupID string) (bool, error) {
	var model FamilyGroupModel
	err := r.db.WithContext(ctx).Select("id").First(&model, "id = ?", groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListRecipients returns every member of the group with all of their channel
// preferences. No role filter, no eligibility filter; a group without
// members yields an empty slice, not an error.
func (r *GormMembershipRepo) ListRecipients(ctx context.Context, groupID string) ([]domain.Recipient, error) {
	var users []UserModel
	err := r.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.user_id = users.id").
		Where("memberships.group_id = ?", groupID).
		Order("memberships.joined_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	if len(users) == 0 {
		return []domain.Recipient{}, nil
	}

	userIDs := make([]string, 0, len(users))
	for i := range users {
		userIDs = append(userIDs, users[i].ID)
	}

	var prefs []PreferenceModel
	err = r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("channel ASC").
		Find(&prefs).Error
	if err != nil {
		return nil, err
	}

	prefsByUser := make(map[string][]domain.Preference, len(users))
	for i := range prefs {
		prefsByUser[prefs[i].UserID] = append(prefsByUser[prefs[i].UserID], preferenceModelToDomain(&prefs[i]))
	}

	recipients := make([]domain.Recipient, 0, len(users))
	for i := range users {
		recipients = append(recipients, domain.Recipient{
			User:        userModelToDomain(&users[i]),
			Preferences: prefsByUser[users[i].ID],
		})
	}

	return recipients, nil
}
