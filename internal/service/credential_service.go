package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/ssh"

	"github.com/CloudSihmar/ansible-platform/internal/crypto"
	"github.com/CloudSihmar/ansible-platform/internal/database"
	"github.com/CloudSihmar/ansible-platform/internal/database/models"
)

// CredentialService manages SSH keys and username/password credentials.
// All secret material is encrypted with the system master key before it
// reaches the database; the record ID binds each ciphertext to its row.
type CredentialService struct {
	db    *database.Database
	users *UserService
}

// NewCredentialService creates a new credential service
func NewCredentialService(db *database.Database, users *UserService) *CredentialService {
	return &CredentialService{db: db, users: users}
}

// CreateSSHKeyRequest represents a request to store an SSH key
type CreateSSHKeyRequest struct {
	Name       string
	PrivateKey string
	Passphrase string
}

// CreateSSHKey validates, encrypts and stores an SSH private key
func (s *CredentialService) CreateSSHKey(userID string, req *CreateSSHKeyRequest) (*models.SSHKey, error) {
	if _, err := s.db.GetSSHKeyByName(userID, req.Name); err == nil {
		return nil, fmt.Errorf("SSH key with this name already exists")
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check SSH key name: %w", err)
	}

	publicKey, err := derivePublicKey(req.PrivateKey, req.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("invalid SSH private key: %w", err)
	}

	masterKey, err := s.users.GetMasterKey()
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	privateKeyEnc, err := crypto.Encrypt([]byte(req.PrivateKey), masterKey, id)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt private key: %w", err)
	}
	var passphraseEnc []byte
	if req.Passphrase != "" {
		passphraseEnc, err = crypto.Encrypt([]byte(req.Passphrase), masterKey, id)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt passphrase: %w", err)
		}
	}

	key := &models.SSHKey{
		ID:            id,
		UserID:        userID,
		Name:          req.Name,
		PrivateKeyEnc: privateKeyEnc,
		PublicKey:     publicKey,
		PassphraseEnc: passphraseEnc,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.db.CreateSSHKey(key); err != nil {
		return nil, fmt.Errorf("failed to create SSH key: %w", err)
	}
	return key, nil
}

// GetSSHKey retrieves an SSH key record, enforcing ownership
func (s *CredentialService) GetSSHKey(id, userID string) (*models.SSHKey, error) {
	key, err := s.db.GetSSHKey(id)
	if err != nil {
		return nil, err
	}
	if key.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return key, nil
}

// ListSSHKeys retrieves all SSH keys owned by a user
func (s *CredentialService) ListSSHKeys(userID string) ([]*models.SSHKey, error) {
	return s.db.ListSSHKeys(userID)
}

// SSHKeyData holds decrypted SSH key material
type SSHKeyData struct {
	PrivateKey string
	Passphrase string
}

// GetSSHKeyData decrypts and returns the key material for an SSH key
func (s *CredentialService) GetSSHKeyData(id, userID string) (*SSHKeyData, error) {
	key, err := s.GetSSHKey(id, userID)
	if err != nil {
		return nil, err
	}

	masterKey, err := s.users.GetMasterKey()
	if err != nil {
		return nil, err
	}

	privateKey, err := crypto.Decrypt(key.PrivateKeyEnc, masterKey, key.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt private key: %w", err)
	}
	data := &SSHKeyData{PrivateKey: string(privateKey)}

	if len(key.PassphraseEnc) > 0 {
		passphrase, err := crypto.Decrypt(key.PassphraseEnc, masterKey, key.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt passphrase: %w", err)
		}
		data.Passphrase = string(passphrase)
	}
	return data, nil
}

// DeleteSSHKey deletes an SSH key, enforcing ownership
func (s *CredentialService) DeleteSSHKey(id, userID string) error {
	if _, err := s.GetSSHKey(id, userID); err != nil {
		return err
	}
	return s.db.DeleteSSHKey(id)
}

// CreateCredentialRequest represents a request to store a credential
type CreateCredentialRequest struct {
	Name           string
	Username       string
	Password       string
	CredentialType string
}

// CreateCredential encrypts and stores a username/password credential
func (s *CredentialService) CreateCredential(userID string, req *CreateCredentialRequest) (*models.Credential, error) {
	if _, err := s.db.GetCredentialByName(userID, req.Name); err == nil {
		return nil, fmt.Errorf("credential with this name already exists")
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check credential name: %w", err)
	}

	credentialType := req.CredentialType
	if credentialType == "" {
		credentialType = "password"
	}

	masterKey, err := s.users.GetMasterKey()
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	usernameEnc, err := crypto.Encrypt([]byte(req.Username), masterKey, id)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt username: %w", err)
	}
	passwordEnc, err := crypto.Encrypt([]byte(req.Password), masterKey, id)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt password: %w", err)
	}

	cred := &models.Credential{
		ID:             id,
		UserID:         userID,
		Name:           req.Name,
		UsernameEnc:    usernameEnc,
		PasswordEnc:    passwordEnc,
		CredentialType: credentialType,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.db.CreateCredential(cred); err != nil {
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}
	return cred, nil
}

// GetCredential retrieves a credential record, enforcing ownership
func (s *CredentialService) GetCredential(id, userID string) (*models.Credential, error) {
	cred, err := s.db.GetCredential(id)
	if err != nil {
		return nil, err
	}
	if cred.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return cred, nil
}

// ListCredentials retrieves all credentials owned by a user
func (s *CredentialService) ListCredentials(userID string) ([]*models.Credential, error) {
	return s.db.ListCredentials(userID)
}

// CredentialData holds decrypted credential material
type CredentialData struct {
	Username string
	Password string
}

// GetCredentialData decrypts and returns the secret fields of a credential
func (s *CredentialService) GetCredentialData(id, userID string) (*CredentialData, error) {
	cred, err := s.GetCredential(id, userID)
	if err != nil {
		return nil, err
	}

	masterKey, err := s.users.GetMasterKey()
	if err != nil {
		return nil, err
	}

	username, err := crypto.Decrypt(cred.UsernameEnc, masterKey, cred.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt username: %w", err)
	}
	password, err := crypto.Decrypt(cred.PasswordEnc, masterKey, cred.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt password: %w", err)
	}
	return &CredentialData{Username: string(username), Password: string(password)}, nil
}

// DeleteCredential deletes a credential, enforcing ownership
func (s *CredentialService) DeleteCredential(id, userID string) error {
	if _, err := s.GetCredential(id, userID); err != nil {
		return err
	}
	return s.db.DeleteCredential(id)
}

// derivePublicKey parses a PEM private key and returns its public key in
// authorized_keys format
func derivePublicKey(privateKey, passphrase string) (string, error) {
	var signer ssh.Signer
	var err error
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase([]byte(privateKey), []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey([]byte(privateKey))
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(ssh.MarshalAuthorizedKey(signer.PublicKey()))), nil
}
