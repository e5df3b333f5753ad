// Package registry persists sharing recipients and their bearer
// credentials in SQLite. It is the shipped implementation of the
// RecipientValidator collaborator the serving path consumes; the serving
// path itself never writes here.
package registry

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gear6io/lakeshare/pkg/errors"
	"github.com/gear6io/lakeshare/server/auth"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Package-specific error codes for the recipient registry
var (
	ErrRegistryOpenFailed   = errors.MustNewCode("registry.open_failed")
	ErrRegistrySchemaFailed = errors.MustNewCode("registry.schema_failed")
	ErrRegistryQueryFailed  = errors.MustNewCode("registry.query_failed")
	ErrRecipientExists      = errors.MustNewCode("registry.recipient_exists")
	ErrRecipientNotFound    = errors.MustNewCode("registry.recipient_not_found")
)

// Recipient is a credential subject allowed to read shared tables
type Recipient struct {
	bun.BaseModel `bun:"table:recipients"`

	ID          int64      `bun:"id,pk,autoincrement" json:"id"`
	Identifier  string     `bun:"identifier,notnull,unique" json:"identifier"`
	DisplayName string     `bun:"display_name" json:"display_name"`
	BearerToken string     `bun:"bearer_token,notnull,unique" json:"-"`
	Roles       string     `bun:"roles" json:"roles"`
	IsActive    bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	RotatedAt   *time.Time `bun:"rotated_at" json:"rotated_at,omitempty"`
}

// RoleList splits the comma-separated roles column
func (r *Recipient) RoleList() []string {
	if r.Roles == "" {
		return nil
	}
	return strings.Split(r.Roles, ",")
}

// Store is the SQLite-backed recipient registry
type Store struct {
	db     *bun.DB
	dbPath string
}

// NewStore opens (creating if needed) the registry database
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, errors.New(ErrRegistryOpenFailed, "failed to create registry directory", err).AddContext("path", dbPath)
	}

	sqldb, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, errors.New(ErrRegistryOpenFailed, "failed to open registry database", err).AddContext("path", dbPath)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*Recipient)(nil)).IfNotExists().Exec(ctx); err != nil {
		return errors.New(ErrRegistrySchemaFailed, "failed to create recipients table", err).AddContext("path", s.dbPath)
	}
	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRecipient registers a new recipient and mints its bearer token
func (s *Store) CreateRecipient(ctx context.Context, identifier, displayName string, roles []string) (*Recipient, error) {
	recipient := &Recipient{
		Identifier:  identifier,
		DisplayName: displayName,
		BearerToken: newBearerToken(),
		Roles:       strings.Join(roles, ","),
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := s.db.NewInsert().Model(recipient).Exec(ctx); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, errors.New(ErrRecipientExists, "recipient already exists", err).AddContext("identifier", identifier)
		}
		return nil, errors.New(ErrRegistryQueryFailed, "failed to insert recipient", err).AddContext("identifier", identifier)
	}

	return recipient, nil
}

// RotateToken mints a fresh bearer token for an existing recipient. The old
// credential stops validating immediately.
func (s *Store) RotateToken(ctx context.Context, identifier string) (*Recipient, error) {
	recipient, err := s.GetRecipient(ctx, identifier)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	recipient.BearerToken = newBearerToken()
	recipient.RotatedAt = &now

	if _, err := s.db.NewUpdate().Model(recipient).
		Column("bearer_token", "rotated_at").
		WherePK().
		Exec(ctx); err != nil {
		return nil, errors.New(ErrRegistryQueryFailed, "failed to rotate token", err).AddContext("identifier", identifier)
	}

	return recipient, nil
}

// Deactivate disables a recipient without deleting its audit trail
func (s *Store) Deactivate(ctx context.Context, identifier string) error {
	res, err := s.db.NewUpdate().Model((*Recipient)(nil)).
		Set("is_active = ?", false).
		Where("identifier = ?", identifier).
		Exec(ctx)
	if err != nil {
		return errors.New(ErrRegistryQueryFailed, "failed to deactivate recipient", err).AddContext("identifier", identifier)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(ErrRecipientNotFound, "recipient does not exist", nil).AddContext("identifier", identifier)
	}
	return nil
}

// GetRecipient loads one recipient by identifier
func (s *Store) GetRecipient(ctx context.Context, identifier string) (*Recipient, error) {
	recipient := new(Recipient)
	err := s.db.NewSelect().Model(recipient).Where("identifier = ?", identifier).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New(ErrRecipientNotFound, "recipient does not exist", nil).AddContext("identifier", identifier)
		}
		return nil, errors.New(ErrRegistryQueryFailed, "failed to load recipient", err).AddContext("identifier", identifier)
	}
	return recipient, nil
}

// ListRecipients returns all recipients ordered by identifier
func (s *Store) ListRecipients(ctx context.Context) ([]*Recipient, error) {
	var recipients []*Recipient
	if err := s.db.NewSelect().Model(&recipients).Order("identifier ASC").Scan(ctx); err != nil {
		return nil, errors.New(ErrRegistryQueryFailed, "failed to list recipients", err)
	}
	return recipients, nil
}

// ValidateToken implements auth.RecipientValidator. Unknown and inactive
// credentials both resolve to nil without error; the authenticator turns
// nil into its unauthenticated rejection.
func (s *Store) ValidateToken(ctx context.Context, token string) (*auth.Principal, error) {
	recipient := new(Recipient)
	err := s.db.NewSelect().Model(recipient).
		Where("bearer_token = ?", token).
		Where("is_active = ?", true).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.New(ErrRegistryQueryFailed, "failed to look up credential", err)
	}

	return &auth.Principal{
		ID:          recipient.Identifier,
		DisplayName: recipient.DisplayName,
		Roles:       recipient.RoleList(),
	}, nil
}

// newBearerToken mints an opaque long-lived credential. Two UUIDs give
// 256 bits of material, which is plenty for a secret that is only ever
// compared by equality.
func newBearerToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
