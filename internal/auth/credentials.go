package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// ErrBadCredentials is returned for an unknown user or a wrong password.
var ErrBadCredentials = errors.New("username/password is incorrect")

// User is one dashboard account. Password holds a bcrypt hash.
type User struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Cookie configures the session cookie and signing key.
type Cookie struct {
	Name       string `yaml:"name"`
	Key        string `yaml:"key"`
	ExpiryDays int    `yaml:"expiry_days"`
}

// Credentials is the dashboard's credentials file.
type Credentials struct {
	Credentials struct {
		Usernames map[string]User `yaml:"usernames"`
	} `yaml:"credentials"`
	Cookie Cookie `yaml:"cookie"`
}

// LoadCredentials reads and checks a credentials YAML file.
func LoadCredentials(path string) (*Credentials, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	return ParseCredentials(raw)
}

// ParseCredentials decodes credentials YAML and fills cookie defaults.
func ParseCredentials(raw []byte) (*Credentials, error) {
	var c Credentials
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if c.Cookie.Key == "" {
		return nil, errors.New("credentials: cookie.key is required to sign sessions")
	}
	if c.Cookie.Name == "" {
		c.Cookie.Name = "staffsuite_session"
	}
	if c.Cookie.ExpiryDays <= 0 {
		c.Cookie.ExpiryDays = 30
	}
	return &c, nil
}

// TTL is how long an issued session stays valid.
func (c *Credentials) TTL() time.Duration {
	return time.Duration(c.Cookie.ExpiryDays) * 24 * time.Hour
}

// Authenticate checks a username and password against the bcrypt hash on file.
func (c *Credentials) Authenticate(username, password string) (User, error) {
	u, ok := c.Credentials.Usernames[username]
	if !ok {
		return User{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return User{}, ErrBadCredentials
	}
	return u, nil
}

// HashPassword produces a bcrypt hash suitable for the credentials file.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
