package store

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/model"
)

// CreateUser stores an account whose password is already hashed. A user
// flagged as maintainer also gets a linked Maintainer row in their
// subdivision.
func (s *gormStore) CreateUser(ctx context.Context, u *model.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createUser(ctx, tx, u)
	})
}

// CreateFirstUser creates the bootstrap account. It fails with Forbidden once
// any user exists.
func (s *gormStore) CreateFirstUser(ctx context.Context, u *model.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.User{}).Count(&n).Error; err != nil {
			return apperr.FromDB(err, "user", "count")
		}
		if n > 0 {
			return apperr.Forbidden("system is already initialized")
		}
		return createUser(ctx, tx, u)
	})
}

func createUser(ctx context.Context, tx *gorm.DB, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.FirstName = strings.TrimSpace(u.FirstName)
	if u.FirstName == "" {
		return apperr.Validation("first_name is required")
	}
	if !u.Role.Valid() {
		return apperr.Validation("unknown role %q", u.Role)
	}
	if u.PasswordHash == "" {
		return apperr.Validation("password is required")
	}

	var n int64
	if err := tx.Model(&model.User{}).Where("email = ?", u.Email).Count(&n).Error; err != nil {
		return apperr.FromDB(err, "user", u.Email)
	}
	if n > 0 {
		return apperr.Validation("email %q is already registered", u.Email)
	}

	if u.SubdivisionID != nil {
		sd, err := getActive[model.Subdivision](ctx, tx, *u.SubdivisionID, "subdivision")
		if err != nil {
			return err
		}
		if u.DivisionID != nil && *u.DivisionID != sd.DivisionID {
			return apperr.Validation("subdivision %d does not belong to division %d", sd.ID, *u.DivisionID)
		}
		u.DivisionID = &sd.DivisionID
	} else if u.DivisionID != nil {
		if err := requireActive[model.Division](tx, *u.DivisionID, "division"); err != nil {
			return err
		}
	}
	if u.IsMaintainer && u.SubdivisionID == nil {
		return apperr.Validation("a maintainer account needs a subdivision_id")
	}

	if err := tx.Create(u).Error; err != nil {
		return apperr.FromDB(err, "user", u.Email)
	}
	if !u.IsMaintainer {
		return nil
	}
	m := model.Maintainer{
		Name:          strings.TrimSpace(u.FirstName + " " + u.LastName),
		SubdivisionID: *u.SubdivisionID,
		UserID:        &u.ID,
	}
	return apperr.FromDB(tx.Omit("Subdivision").Create(&m).Error, "maintainer", u.Email)
}

func (s *gormStore) GetUser(ctx context.Context, id uint) (*model.User, error) {
	return getActive[model.User](ctx, s.db, id, "user")
}

func (s *gormStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	if err := s.db.WithContext(ctx).Where("email = ? AND is_active = ?", email, true).First(&u).Error; err != nil {
		return nil, apperr.FromDB(err, "user", email)
	}
	return &u, nil
}

func (s *gormStore) ListUsers(ctx context.Context, role *model.Role) ([]model.User, error) {
	return listActive[model.User](ctx, s.db, eq("role", role))
}
