package migrations

import (
	"github.com/famboard/dispatch-engine/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		createGroupsAndMembers(),
		createPreferences(),
		createAnnouncements(),
		createEventsAndReminders(),
		createDeliveryAttempts(),
	})

	return m.Migrate()
}

func createGroupsAndMembers() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_groups_and_members",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(
				&repository.FamilyGroupModel{},
				&repository.UserModel{},
				&repository.MembershipModel{},
			); err != nil {
				return err
			}
			return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_memberships_group_user ON memberships (group_id, user_id)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(
				&repository.MembershipModel{},
				&repository.UserModel{},
				&repository.FamilyGroupModel{},
			)
		},
	}
}

func createPreferences() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_channel_preferences",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.PreferenceModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_preferences_user_channel ON channel_preferences (user_id, channel)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.PreferenceModel{})
		},
	}
}

func createAnnouncements() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_announcements",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.AnnouncementModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_announcements_due_publish ON announcements (scheduled_at) WHERE scheduled_at IS NOT NULL AND published_at IS NULL`,
				`CREATE INDEX IF NOT EXISTS idx_announcements_due_resend ON announcements (scheduled_resend_at) WHERE scheduled_resend_at IS NOT NULL`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.AnnouncementModel{})
		},
	}
}

func createEventsAndReminders() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_events_and_reminders",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(
				&repository.EventModel{},
				&repository.EventReminderModel{},
			); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_reminders_due_publish ON event_reminders (scheduled_at) WHERE scheduled_at IS NOT NULL AND published_at IS NULL`,
				`CREATE INDEX IF NOT EXISTS idx_reminders_due_resend ON event_reminders (scheduled_resend_at) WHERE scheduled_resend_at IS NOT NULL`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(
				&repository.EventReminderModel{},
				&repository.EventModel{},
			)
		},
	}
}

func createDeliveryAttempts() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000005_create_delivery_attempts",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.DeliveryAttemptModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_attempts_item ON delivery_attempts (item_type, item_id)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.DeliveryAttemptModel{})
		},
	}
}
