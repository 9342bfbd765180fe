package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cppla/rsvblog/models"
	"github.com/cppla/rsvblog/repository"
	"github.com/cppla/rsvblog/utils"
)

type MemberService struct{}

func NewMemberService() *MemberService {
	return &MemberService{}
}

// Join registers a member with a bcrypt hashed password.
// Privileged usernames cannot be registered; they are created by EnsureAdmins.
func (s *MemberService) Join(uow *repository.UnitOfWork, username, password, nickname string) (*models.Member, error) {
	username = strings.TrimSpace(username)
	nickname = utils.SanitizeText(nickname)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, utils.Validation(CodeInvalidMember, "username and password are required")
	}
	if models.IsReservedUsername(username) {
		return nil, utils.Validation(CodeReservedName, fmt.Sprintf("username %s is reserved", username))
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	m := &models.Member{Username: username, Password: hash, Nickname: nickname}
	// the unique index on username decides between concurrent joins
	if err := uow.Members().Create(m); err != nil {
		if isDuplicateKey(err) {
			return nil, utils.Conflict(CodeUsernameTaken, fmt.Sprintf("username %s is already taken", username))
		}
		return nil, fmt.Errorf("create member %s: %w", username, err)
	}
	return m, nil
}

// EnsureAdmins creates the privileged accounts that do not exist yet and returns how many were created.
// An empty password gives them a random one, so they hold their names but cannot log in.
func (s *MemberService) EnsureAdmins(uow *repository.UnitOfWork, password string) (int, error) {
	created := 0
	for _, name := range models.AdminUsernames {
		exists, err := uow.Members().ExistsByUsername(name)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}
		pw := password
		if pw == "" {
			pw = uuid.NewString()
		}
		hash, err := utils.HashPassword(pw)
		if err != nil {
			return created, fmt.Errorf("hash password: %w", err)
		}
		if err := uow.Members().Create(&models.Member{Username: name, Password: hash, Nickname: name}); err != nil {
			return created, fmt.Errorf("create member %s: %w", name, err)
		}
		created++
	}
	return created, nil
}

// Login checks credentials and issues an access token.
func (s *MemberService) Login(uow *repository.UnitOfWork, username, password string) (*models.Member, string, error) {
	m, err := uow.Members().FindByUsername(strings.TrimSpace(username))
	if err != nil && !isNotFound(err) {
		return nil, "", err
	}
	if m == nil || !utils.CheckPassword(m.Password, password) {
		return nil, "", utils.Unauthorized(CodeBadCredentials, "invalid username or password")
	}
	token, err := utils.GenerateToken(m.ID, m.Username, utils.TokenTTL())
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	return m, token, nil
}

func (s *MemberService) FindByID(uow *repository.UnitOfWork, id uint) (*models.Member, error) {
	m, err := uow.Members().FindByID(id)
	if isNotFound(err) {
		return nil, utils.NotFound(CodeMemberNotFound, fmt.Sprintf("member #%d not found", id))
	}
	return m, err
}

func (s *MemberService) FindByUsername(uow *repository.UnitOfWork, username string) (*models.Member, error) {
	m, err := uow.Members().FindByUsername(username)
	if isNotFound(err) {
		return nil, utils.NotFound(CodeMemberNotFound, fmt.Sprintf("member %s not found", username))
	}
	return m, err
}
