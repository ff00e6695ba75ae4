// Package store is a staging database for imported profile data. It
// implements importer.Sink on top of an sqlite file, so a migration can be
// inspected and re-run: sources are keyed by their content fingerprint, a
// source that was already imported is skipped, and a changed file replaces
// the rows its previous version left.
//
// Cookie values and passwords are sealed with pkg/credman/encryption before
// they reach the database; the file itself is created with 0600 permissions.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/warpdl/prestoimport/internal/cookies"
	"github.com/warpdl/prestoimport/internal/importer"
	"github.com/warpdl/prestoimport/internal/visited"
	"github.com/warpdl/prestoimport/pkg/credman/encryption"
	"github.com/warpdl/prestoimport/pkg/credman/types"
	"github.com/warpdl/prestoimport/pkg/logger"

	_ "modernc.org/sqlite"
)

const fileMode = 0600

// Additional data binding sealed values to their column.
var (
	aadCookieValue   = []byte("cookies.value")
	aadLoginPassword = []byte("logins.password")
)

const schema = `
CREATE TABLE IF NOT EXISTS sources (
	fingerprint TEXT PRIMARY KEY,
	path        TEXT NOT NULL,
	kind        TEXT NOT NULL,
	size        INTEGER NOT NULL,
	imported_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS cookies (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	source    TEXT NOT NULL,
	host      TEXT NOT NULL,
	host_only INTEGER NOT NULL,
	path      TEXT NOT NULL,
	name      TEXT NOT NULL,
	value     BLOB NOT NULL,
	expires   INTEGER NOT NULL DEFAULT 0,
	last_used INTEGER NOT NULL DEFAULT 0,
	secure    INTEGER NOT NULL DEFAULT 0,
	http_only INTEGER NOT NULL DEFAULT 0,
	version   INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS logins (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	source         TEXT NOT NULL,
	kind           TEXT NOT NULL,
	profile        TEXT NOT NULL,
	url            TEXT NOT NULL,
	action_url     TEXT NOT NULL,
	username_field TEXT NOT NULL,
	username       TEXT NOT NULL,
	password_field TEXT NOT NULL,
	password       BLOB
);
CREATE TABLE IF NOT EXISTS visited (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	source       TEXT NOT NULL,
	url          TEXT NOT NULL,
	last_visited INTEGER NOT NULL DEFAULT 0,
	form_query   INTEGER NOT NULL DEFAULT 0,
	relative     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS cookies_source ON cookies(source);
CREATE INDEX IF NOT EXISTS logins_source ON logins(source);
CREATE INDEX IF NOT EXISTS visited_source ON visited(source);
`

// Store is an open staging database.
type Store struct {
	db  *sql.DB
	key []byte
	log logger.Logger
	now func() time.Time
}

var _ importer.Sink = (*Store)(nil)

// Open opens or creates the staging database at path. sealKey must be
// encryption.KeySize bytes.
func Open(path string, sealKey []byte, l logger.Logger) (*Store, error) {
	if len(sealKey) != encryption.KeySize {
		return nil, encryption.ErrKeySize
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, fileMode)
	if err != nil {
		return nil, fmt.Errorf("error: cannot create staging database: %w", err)
	}
	f.Close()

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("error: cannot open staging database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error: cannot create staging tables: %w", err)
	}
	return &Store{
		db:  db,
		key: append([]byte(nil), sealKey...),
		log: logger.OrNop(l),
		now: time.Now,
	}, nil
}

// Close closes the database and drops the sealing key.
func (s *Store) Close() error {
	for i := range s.key {
		s.key[i] = 0
	}
	return s.db.Close()
}

func fingerprint(src importer.Source) string {
	return fmt.Sprintf("%016x", src.Fingerprint)
}

func (s *Store) Seen(src importer.Source) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sources WHERE fingerprint = ?`, fingerprint(src)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("error: failed to query sources: %w", err)
	}
	return n > 0, nil
}

// replace runs fill in a transaction after deleting the rows a previous
// import of src left in table. Rows of any earlier version of the file at
// src.Path go too, so a changed file replaces its old rows.
func (s *Store) replace(table string, src importer.Source, fill func(tx *sql.Tx, fp string) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("error: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	fp := fingerprint(src)
	_, err = tx.Exec(`DELETE FROM `+table+` WHERE source = ?
		OR source IN (SELECT fingerprint FROM sources WHERE path = ? AND path <> '')`, fp, src.Path)
	if err != nil {
		return fmt.Errorf("error: failed to clear %s rows: %w", table, err)
	}
	if err := fill(tx, fp); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error: failed to commit %s rows: %w", table, err)
	}
	return nil
}

func (s *Store) Cookies(src importer.Source, list []cookies.FlatCookie) error {
	return s.replace("cookies", src, func(tx *sql.Tx, fp string) error {
		stmt, err := tx.Prepare(`INSERT INTO cookies
			(source, host, host_only, path, name, value, expires, last_used, secure, http_only, version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("error: failed to prepare cookie insert: %w", err)
		}
		defer stmt.Close()
		for _, c := range list {
			sealed, err := encryption.EncryptValue([]byte(c.Value), s.key, aadCookieValue)
			if err != nil {
				return err
			}
			_, err = stmt.Exec(fp, c.Host, boolInt(c.HostOnly), c.Path, c.Name, sealed,
				unix(c.Expires), unix(c.LastUsed), boolInt(c.Secure), boolInt(c.HTTPOnly), int(c.Version))
			if err != nil {
				return fmt.Errorf("error: failed to insert cookie row: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) Credentials(src importer.Source, list []types.Credential) error {
	return s.replace("logins", src, func(tx *sql.Tx, fp string) error {
		stmt, err := tx.Prepare(`INSERT INTO logins
			(source, kind, profile, url, action_url, username_field, username, password_field, password)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("error: failed to prepare login insert: %w", err)
		}
		defer stmt.Close()
		for _, c := range list {
			var sealed []byte
			if c.HasPassword() {
				if sealed, err = encryption.EncryptValue([]byte(c.Password), s.key, aadLoginPassword); err != nil {
					return err
				}
			}
			_, err = stmt.Exec(fp, c.Kind.String(), c.Profile, c.URL, c.ActionURL,
				c.UsernameField, c.Username, c.PasswordField, sealed)
			if err != nil {
				return fmt.Errorf("error: failed to insert login row: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) Visited(src importer.Source, links []visited.Link) error {
	return s.replace("visited", src, func(tx *sql.Tx, fp string) error {
		stmt, err := tx.Prepare(`INSERT INTO visited (source, url, last_visited, form_query, relative)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("error: failed to prepare visited insert: %w", err)
		}
		defer stmt.Close()
		for _, l := range links {
			if _, err := stmt.Exec(fp, l.URL, unix(l.LastVisited), boolInt(l.FormQuery), 0); err != nil {
				return fmt.Errorf("error: failed to insert visited row: %w", err)
			}
			for _, r := range l.Relative {
				if _, err := stmt.Exec(fp, l.URL+r.Suffix, unix(r.LastVisited), 0, 1); err != nil {
					return fmt.Errorf("error: failed to insert visited row: %w", err)
				}
			}
		}
		return nil
	})
}

// Done records src as imported. It replaces the entry of an earlier
// version of the file at the same path.
func (s *Store) Done(src importer.Source) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("error: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	fp := fingerprint(src)
	if src.Path != "" {
		if _, err := tx.Exec(`DELETE FROM sources WHERE path = ? AND fingerprint <> ?`, src.Path, fp); err != nil {
			return fmt.Errorf("error: failed to clear previous source: %w", err)
		}
	}
	_, err = tx.Exec(`INSERT INTO sources (fingerprint, path, kind, size, imported_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET path = excluded.path, imported_at = excluded.imported_at`,
		fp, src.Path, src.Kind.String(), src.Size, s.now().Unix())
	if err != nil {
		return fmt.Errorf("error: failed to record source: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error: failed to record source: %w", err)
	}
	s.log.Debug("store: recorded %s source %s", src.Kind, fingerprint(src))
	return nil
}

// Counts returns the number of rows per table.
func (s *Store) Counts() (map[string]int, error) {
	out := make(map[string]int, 4)
	for _, table := range []string{"sources", "cookies", "logins", "visited"} {
		var n int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
			return nil, fmt.Errorf("error: failed to count %s: %w", table, err)
		}
		out[table] = n
	}
	return out, nil
}

// ErrSealed means a stored value could not be opened with the store's key.
var ErrSealed = errors.New("store: cannot open sealed value")

// Logins reads back every stored credential with its password opened.
func (s *Store) Logins() ([]types.Credential, error) {
	rows, err := s.db.Query(`SELECT kind, profile, url, action_url, username_field, username, password_field, password
		FROM logins ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error: failed to query logins: %w", err)
	}
	defer rows.Close()

	var out []types.Credential
	for rows.Next() {
		var (
			c      types.Credential
			kind   string
			sealed []byte
		)
		if err := rows.Scan(&kind, &c.Profile, &c.URL, &c.ActionURL, &c.UsernameField, &c.Username, &c.PasswordField, &sealed); err != nil {
			return nil, fmt.Errorf("error: failed to scan login row: %w", err)
		}
		c.Kind = parseKind(kind)
		if len(sealed) > 0 {
			pw, err := encryption.DecryptValue(sealed, s.key, aadLoginPassword)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSealed, err)
			}
			c.Password = string(pw)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error: failed to iterate login rows: %w", err)
	}
	return out, nil
}

func parseKind(s string) types.Kind {
	switch s {
	case types.KindForm.String():
		return types.KindForm
	case types.KindLogin.String():
		return types.KindLogin
	}
	return 0
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
