package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/potatoomann/11code-site/internal/models"
)

// Default admin identity seeded on first access. Change the password with
// cmd/cli as soon as the data dir exists.
const (
	DefaultAdminEmail    = "afras123@gmail.com"
	defaultAdminPassword = "sahil@123"
)

// bcrypt hashes start with $2a$, $2b$ or $2y$.
var bcryptShape = regexp.MustCompile(`^\$2[aby]\$`)

// AdminUserStore persists admin accounts as a flat JSON document keyed by
// email. A legacy plaintext password is upgraded to a bcrypt hash the first
// time it verifies successfully.
type AdminUserStore struct {
	path string
}

func NewAdminUserStore(dataDir string) *AdminUserStore {
	return &AdminUserStore{path: filepath.Join(dataDir, "admin-users.json")}
}

func (s *AdminUserStore) read() (map[string]models.AdminUser, error) {
	if err := ensureDataDir(filepath.Dir(s.path)); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s.seed()
	}
	if err != nil {
		return nil, fmt.Errorf("read admin users: %w", err)
	}
	users := map[string]models.AdminUser{}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("parse admin users: %w", err)
	}
	return users, nil
}

// seed creates the file with the default admin, password hashed.
func (s *AdminUserStore) seed() (map[string]models.AdminUser, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(defaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	users := map[string]models.AdminUser{
		DefaultAdminEmail: {
			Email:     DefaultAdminEmail,
			Password:  string(hashed),
			CreatedAt: time.Now().UTC(),
		},
	}
	if err := s.write(users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *AdminUserStore) write(users map[string]models.AdminUser) error {
	if err := ensureDataDir(filepath.Dir(s.path)); err != nil {
		return err
	}
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write admin users: %w", err)
	}
	return nil
}

func (s *AdminUserStore) Get(email string) (*models.AdminUser, error) {
	users, err := s.read()
	if err != nil {
		return nil, err
	}
	u, ok := users[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// Upsert stores a user with a freshly hashed password. Used by cmd/cli.
func (s *AdminUserStore) Upsert(email, password string) error {
	users, err := s.read()
	if err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	email = strings.ToLower(email)
	u := users[email]
	u.Email = email
	u.Password = string(hashed)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	users[email] = u
	return s.write(users)
}

// Verify checks credentials. It returns (false, nil) on a mismatch or an
// unknown email, and a non-nil error only for storage failures. A matched
// legacy plaintext password is rehashed and persisted before the match is
// reported, so the plaintext never survives a successful login.
func (s *AdminUserStore) Verify(email, password string) (bool, error) {
	users, err := s.read()
	if err != nil {
		return false, err
	}
	user, ok := users[strings.ToLower(email)]
	if !ok {
		return false, nil
	}

	if bcryptShape.MatchString(user.Password) {
		return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil, nil
	}

	// Legacy plaintext record.
	if user.Password != password {
		return false, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	user.Password = string(hashed)
	users[strings.ToLower(email)] = user
	if err := s.write(users); err != nil {
		return false, err
	}
	return true, nil
}
