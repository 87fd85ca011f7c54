package service

import (
	"context"
	"strings"

	"go-distribution-ws/internal/apperr"
	"go-distribution-ws/internal/model"
	"go-distribution-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxRootAccounts caps top-role accounts that have no creator.
const MaxRootAccounts = 2

const detailListLimit = 5

var (
	ErrEmailExists   = apperr.Conflict("email already exists")
	ErrRootLimit     = apperr.Permission("the maximum of %d root accounts has been reached", MaxRootAccounts)
	ErrNotDirectLine = apperr.Permission("you can only view accounts you created")
)

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required"`
	Tier     string `json:"tier" validate:"omitempty,max=20"`
	Address  string `json:"address"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

// ProfileUpdate edits the caller's own profile; empty fields are left as they are.
type ProfileUpdate struct {
	Username string `json:"username" validate:"omitempty,max=255"`
	Address  string `json:"address"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

// UserDetail is the profile of a directly created account with its recent activity.
type UserDetail struct {
	User         model.UserResponse  `json:"user"`
	Sales        []model.Transaction `json:"penjualan"`
	Purchases    []model.Transaction `json:"pembelian"`
	Hutang       []model.Debt        `json:"hutang"`
	Piutang      []model.Debt        `json:"piutang"`
	TotalHutang  decimal.Decimal     `json:"total_hutang"`
	TotalPiutang decimal.Decimal     `json:"total_piutang"`
	Products     []model.Product     `json:"products"`
}

type UserService interface {
	CreateUser(ctx context.Context, creatorID uuid.UUID, req *CreateUserRequest) (*model.User, error)
	CreateRoot(ctx context.Context, req *CreateUserRequest) (*model.User, error)
	ListVisible(ctx context.Context, viewerID uuid.UUID) ([]model.UserResponse, error)
	Summary(ctx context.Context, viewerID uuid.UUID) (map[model.Role]int, error)
	Detail(ctx context.Context, viewerID, targetID uuid.UUID) (*UserDetail, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *ProfileUpdate) (*model.UserResponse, error)
}

type userService struct {
	userRepo    repository.UserRepository
	txRepo      repository.TransactionRepository
	debtRepo    repository.DebtRepository
	productRepo repository.ProductRepository
}

func NewUserService(userRepo repository.UserRepository, txRepo repository.TransactionRepository, debtRepo repository.DebtRepository, productRepo repository.ProductRepository) UserService {
	return &userService{
		userRepo:    userRepo,
		txRepo:      txRepo,
		debtRepo:    debtRepo,
		productRepo: productRepo,
	}
}

// CreateUser onboards an account exactly one rank below the creator.
func (s *userService) CreateUser(ctx context.Context, creatorID uuid.UUID, req *CreateUserRequest) (*model.User, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	role, ok := model.ParseRole(req.Role)
	if !ok {
		return nil, apperr.Validation("unknown role %q", req.Role)
	}

	creator, err := s.userRepo.FindByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if !model.CanCreate(creator.Role, role) {
		return nil, apperr.InvalidRoleTransition("a %s cannot create a %s account", creator.Role, role)
	}

	return s.create(ctx, req, role, &creator.ID)
}

// CreateRoot onboards a top-role account without a creator.
func (s *userService) CreateRoot(ctx context.Context, req *CreateUserRequest) (*model.User, error) {
	req.Role = string(model.RolePabrik)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	count, err := s.userRepo.CountRoots(ctx)
	if err != nil {
		return nil, err
	}
	if count >= MaxRootAccounts {
		return nil, ErrRootLimit
	}

	return s.create(ctx, req, model.RolePabrik, nil)
}

func (s *userService) create(ctx context.Context, req *CreateUserRequest, role model.Role, creatorID *uuid.UUID) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	tier := req.Tier
	if tier == "" {
		tier = model.DefaultTier
	}
	user := &model.User{
		Username:    strings.TrimSpace(req.Username),
		Email:       email,
		Role:        role,
		Tier:        tier,
		Address:     req.Address,
		Phone:       strings.TrimSpace(req.Phone),
		CreatedByID: creatorID,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *ProfileUpdate) (*model.UserResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Address = strings.TrimSpace(req.Address)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if req.Username != "" {
		changes["username"] = req.Username
	}
	if req.Address != "" {
		changes["address"] = req.Address
	}
	if req.Phone != "" {
		changes["phone"] = req.Phone
	}
	if len(changes) > 0 {
		if err := s.userRepo.Update(ctx, userID, changes); err != nil {
			return nil, err
		}
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) ListVisible(ctx context.Context, viewerID uuid.UUID) ([]model.UserResponse, error) {
	viewer, err := s.userRepo.FindByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.FindVisibleTo(ctx, viewer)
	if err != nil {
		return nil, err
	}
	out := make([]model.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToResponse())
	}
	return out, nil
}

// Summary counts visible accounts per lower role; every lower role is present.
func (s *userService) Summary(ctx context.Context, viewerID uuid.UUID) (map[model.Role]int, error) {
	viewer, err := s.userRepo.FindByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.FindVisibleTo(ctx, viewer)
	if err != nil {
		return nil, err
	}
	counts := make(map[model.Role]int)
	for _, r := range model.LowerRoles(viewer.Role) {
		counts[r] = 0
	}
	for _, u := range users {
		counts[u.Role]++
	}
	return counts, nil
}

func (s *userService) Detail(ctx context.Context, viewerID, targetID uuid.UUID) (*UserDetail, error) {
	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.CreatedByID == nil || *target.CreatedByID != viewerID {
		return nil, ErrNotDirectLine
	}

	detail := &UserDetail{User: target.ToResponse()}
	if detail.Sales, err = s.txRepo.ListBySeller(ctx, target.ID, detailListLimit); err != nil {
		return nil, err
	}
	if detail.Purchases, err = s.txRepo.ListByBuyer(ctx, target.ID, detailListLimit); err != nil {
		return nil, err
	}
	if detail.Hutang, err = s.debtRepo.ListByBuyer(ctx, target.ID, detailListLimit); err != nil {
		return nil, err
	}
	if detail.Piutang, err = s.debtRepo.ListBySeller(ctx, target.ID, detailListLimit); err != nil {
		return nil, err
	}
	if detail.TotalHutang, err = s.debtRepo.TotalOwedBy(ctx, target.ID); err != nil {
		return nil, err
	}
	if detail.TotalPiutang, err = s.debtRepo.TotalOwedTo(ctx, target.ID); err != nil {
		return nil, err
	}
	if detail.Products, err = s.productRepo.ListByOwner(ctx, target.ID, repository.ProductFilter{Limit: detailListLimit}); err != nil {
		return nil, err
	}
	return detail, nil
}
