package repository

import (
	"context"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rncflow/internal/errs"
	"rncflow/internal/infrastructure/persistence/sqlstore/model"
	"rncflow/internal/ports"
)

// DirectoryRepository backs the identity and supplier collaborator with
// the local users, user_permissions and suppliers tables.
type DirectoryRepository struct {
	db *gorm.DB
}

var _ ports.Directory = (*DirectoryRepository)(nil)

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) GetSupplier(ctx context.Context, id uint64) (ports.Supplier, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Supplier{}, err
	}

	var row model.Supplier
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		return ports.Supplier{}, notFound(err, "directory.get_supplier", "supplier", id)
	}
	return ports.Supplier{ID: row.ID, Name: row.Name, CNPJ: row.CNPJ, CreatedAt: row.CreatedAt}, nil
}

func (r *DirectoryRepository) GetUser(ctx context.Context, id uint64) (ports.User, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.User{}, err
	}

	var row model.User
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		return ports.User{}, notFound(err, "directory.get_user", "user", id)
	}
	perms, err := r.PermissionsOf(ctx, id)
	if err != nil {
		return ports.User{}, err
	}
	return ports.User{
		ID:          row.ID,
		Name:        row.Name,
		Email:       row.Email,
		Permissions: perms,
		CreatedAt:   row.CreatedAt,
	}, nil
}

func (r *DirectoryRepository) PermissionsOf(ctx context.Context, userID uint64) ([]string, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var codes []string
	if err := db.Model(&model.UserPermission{}).
		Where("user_id = ?", userID).
		Order("code asc").
		Pluck("code", &codes).Error; err != nil {
		return nil, errs.Wrap(err, "query user permissions")
	}
	return codes, nil
}

func (r *DirectoryRepository) UserIDsWithAnyPermission(ctx context.Context, codes []string) ([]uint64, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var ids []uint64
	if err := db.Model(&model.UserPermission{}).
		Distinct("user_id").
		Where("code IN ?", codes).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, errs.Wrap(err, "query users by permission")
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *DirectoryRepository) CreateSupplier(ctx context.Context, supplier *ports.Supplier) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(supplier.Name)
	if name == "" {
		return errs.Validationf("directory.create_supplier", "supplier name is required")
	}
	row := model.Supplier{Name: name, CNPJ: strings.TrimSpace(supplier.CNPJ)}
	if err := db.Create(&row).Error; err != nil {
		return writeError(err, "directory.create_supplier", "insert supplier")
	}
	supplier.ID = row.ID
	supplier.Name = row.Name
	supplier.CNPJ = row.CNPJ
	supplier.CreatedAt = row.CreatedAt
	return nil
}

func (r *DirectoryRepository) CreateUser(ctx context.Context, user *ports.User) error {
	const op = "directory.create_user"
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	email := strings.ToLower(strings.TrimSpace(user.Email))
	if email == "" {
		return errs.Validationf(op, "user email is required")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		row := model.User{Name: strings.TrimSpace(user.Name), Email: email}
		if err := tx.Create(&row).Error; err != nil {
			return writeError(err, op, "insert user")
		}

		perms := make([]model.UserPermission, 0, len(user.Permissions))
		for _, code := range user.Permissions {
			code = strings.TrimSpace(code)
			if code == "" {
				continue
			}
			perms = append(perms, model.UserPermission{UserID: row.ID, Code: code})
		}
		if len(perms) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&perms).Error; err != nil {
				return errs.Wrap(err, "insert user permissions")
			}
		}

		user.ID = row.ID
		user.Email = row.Email
		user.CreatedAt = row.CreatedAt
		return nil
	})
}
