package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"food-ordering-api/models"
)

const minPasswordLength = 6

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a customer account. Admin accounts are only created by bootstrap or promotion.
func (s *UserService) Register(ctx context.Context, fullName, email, password string) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)
	if fullName == "" || email == "" {
		return nil, validationError("full_name and email are required")
	}
	if len(password) < minPasswordLength {
		return nil, validationError("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleCustomer,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate checks an email/password pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user")
		}
		return nil, err
	}
	return &user, nil
}

// ProfileInput carries the profile fields a customer may change. Nil means unchanged.
type ProfileInput struct {
	FullName       *string
	Contact        *string
	Address        *string
	Latitude       *float64
	Longitude      *float64
	ProfilePicture *string
}

// UpdateProfile applies the given fields in a single UPDATE and returns the refreshed user and
// the picture path it replaced, if any.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*models.User, string, error) {
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, "", validationError("latitude and longitude must be given together")
	}
	if in.Latitude != nil {
		if err := validateCoordinates(*in.Latitude, *in.Longitude); err != nil {
			return nil, "", err
		}
	}

	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	updates := map[string]interface{}{}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, "", validationError("full_name must not be blank")
		}
		updates["full_name"] = name
	}
	if in.Contact != nil {
		updates["contact"] = nullableString(*in.Contact)
	}
	if in.Address != nil {
		updates["delivery_address"] = nullableString(*in.Address)
	}
	if in.Latitude != nil {
		updates["latitude"] = *in.Latitude
		updates["longitude"] = *in.Longitude
	}
	replaced := ""
	if in.ProfilePicture != nil {
		updates["profile_picture"] = *in.ProfilePicture
		if current.ProfilePicture != nil {
			replaced = *current.ProfilePicture
		}
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return nil, "", err
		}
	}
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	return user, replaced, nil
}

func nullableString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if len(next) < minPasswordLength {
		return validationError("new_password must be at least %d characters", minPasswordLength)
	}
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", ErrInvalidCredentials)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("password", string(hash)).Error
}

// DeleteAccount removes the caller's account after re-checking the password. It returns the
// profile picture path so the caller can remove the file once the rows are gone.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint, password string) (string, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("%w: password is incorrect", ErrInvalidCredentials)
	}
	return s.deleteUser(ctx, user)
}

func (s *UserService) deleteUser(ctx context.Context, user *models.User) (string, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orderIDs []uint
		if err := tx.Model(&models.Order{}).Where("user_id = ?", user.ID).Pluck("id", &orderIDs).Error; err != nil {
			return err
		}
		if err := deleteOrders(tx, orderIDs); err != nil {
			return err
		}
		return tx.Delete(&models.User{}, user.ID).Error
	})
	if err != nil {
		return "", err
	}
	if user.ProfilePicture != nil {
		return *user.ProfilePicture, nil
	}
	return "", nil
}

// List returns every account for the admin users page.
func (s *UserService) List(ctx context.Context, role models.UserRole) ([]models.User, error) {
	users := []models.User{}
	query := s.db.WithContext(ctx).Order("id")
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

type AdminUserInput struct {
	FullName string
	Email    string
	Role     models.UserRole
}

// AdminUpdate edits another account's name, email and role.
func (s *UserService) AdminUpdate(ctx context.Context, id uint, in AdminUserInput) (*models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = normalizeEmail(in.Email)
	if in.FullName == "" || in.Email == "" {
		return nil, validationError("full_name and email are required")
	}
	if !in.Role.Valid() {
		return nil, validationError("role must be customer or admin")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("user")
			}
			return err
		}
		var taken int64
		if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", in.Email, id).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return ErrEmailTaken
		}
		return tx.Model(&user).Updates(map[string]interface{}{
			"full_name": in.FullName,
			"email":     in.Email,
			"role":      in.Role,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// AdminDelete removes another account and everything it owns.
func (s *UserService) AdminDelete(ctx context.Context, actorID, id uint) (string, error) {
	if actorID == id {
		return "", validationError("use the account page to delete your own account")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.deleteUser(ctx, user)
}
