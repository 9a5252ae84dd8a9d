package store

import "context"

type CredentialKind string

const (
	// CredentialHeader holds an Authorization header value sent with probes.
	CredentialHeader CredentialKind = "header"
	// CredentialSSH holds an SSH private key for sftp:// schema sources.
	CredentialSSH CredentialKind = "ssh"
)

type Credential struct {
	CredentialID int64          `json:"credential_id" param:"credential_id"`
	Name         string         `json:"name"`
	Kind         CredentialKind `json:"kind"`
	Username     string         `json:"username"`
	Description  string         `json:"description"`
	SecretHash   string         `json:"-"`

	// Secret is the decrypted secret, never persisted in this form.
	Secret []byte `json:"-" db:"-"`
}

type CredentialStore interface {
	CreateCredential(context.Context, string, CredentialKind, string, string, string) (*Credential, error)
	ReadCredentialByID(context.Context, int64) (*Credential, error)
	UpdateCredential(context.Context, int64, string, string, string) error
	DeleteCredential(context.Context, int64) error
	ListCredentials(context.Context) ([]*Credential, error)
}
