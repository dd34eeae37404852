package config

import (
	"errors"
	"fmt"

	gokeyring "github.com/zalando/go-keyring"
)

// KeyringService is the service name passwords are stored under.
// The account name is the server id.
const KeyringService = "qbitctl"

// ErrPasswordNotFound is returned when the keyring holds no password for a server
var ErrPasswordNotFound = errors.New("password not found in keyring")

// Keyring reads and writes server passwords in the OS keyring
type Keyring struct{}

// Get returns the stored password for a server id
func (Keyring) Get(id string) (string, error) {
	password, err := gokeyring.Get(KeyringService, id)
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return "", ErrPasswordNotFound
		}
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}
	return password, nil
}

// Set stores the password for a server id
func (Keyring) Set(id, password string) error {
	if id == "" {
		return errors.New("server id cannot be empty")
	}
	if err := gokeyring.Set(KeyringService, id, password); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}

// Delete removes the password for a server id. Missing entries are not an error.
func (Keyring) Delete(id string) error {
	if err := gokeyring.Delete(KeyringService, id); err != nil && !errors.Is(err, gokeyring.ErrNotFound) {
		return fmt.Errorf("failed to delete keyring entry: %w", err)
	}
	return nil
}

// PasswordStore looks up passwords by server id
type PasswordStore interface {
	Get(id string) (string, error)
}

// ResolvePasswords fills empty server passwords from store.
// Servers without a stored password keep an empty one.
func ResolvePasswords(cfg *Config, store PasswordStore) error {
	for i := range cfg.Servers {
		s := &cfg.Servers[i]
		if s.Password != "" {
			continue
		}

		password, err := store.Get(s.ID)
		if errors.Is(err, ErrPasswordNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("server %s: %w", s.DisplayName(), err)
		}

		s.Password = password
		cfg.MarkKeyringPassword(s.ID)
	}
	return nil
}

// MarkKeyringPassword records that a server's password lives in the keyring
// so Save leaves it out of the file.
func (c *Config) MarkKeyringPassword(id string) {
	if c.keyringPass == nil {
		c.keyringPass = make(map[string]bool)
	}
	c.keyringPass[id] = true
}

// PasswordWriter stores and removes passwords by server id
type PasswordWriter interface {
	Set(id, password string) error
	Delete(id string) error
}

// UpdatePassword sets a server's password. With useKeyring the password goes
// to store and stays out of the file. Otherwise it is saved in the file and a
// keyring entry that previously held it is removed.
func (c *Config) UpdatePassword(id, password string, useKeyring bool, store PasswordWriter) error {
	for i := range c.Servers {
		if c.Servers[i].ID == id {
			c.Servers[i].Password = password
		}
	}

	if useKeyring && password != "" {
		if err := store.Set(id, password); err != nil {
			return err
		}
		c.MarkKeyringPassword(id)
		return nil
	}

	if !c.keyringPass[id] {
		return nil
	}
	delete(c.keyringPass, id)
	return store.Delete(id)
}
