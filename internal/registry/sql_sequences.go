package registry

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

// #region schema
const sequencesSchema = `
CREATE TABLE IF NOT EXISTS sequences (
	name        TEXT PRIMARY KEY,
	scripts     TEXT NOT NULL,
	components  TEXT NOT NULL
);
`

// #endregion schema

// #region sql-sequences

// SQLSequences is a table-backed SequenceSource.
type SQLSequences struct {
	db *sql.DB
}

// NewSQLSequences creates the sequences table if needed.
func NewSQLSequences(db *sql.DB) (*SQLSequences, error) {
	if _, err := db.Exec(sequencesSchema); err != nil {
		return nil, fmt.Errorf("sequences schema: %w", err)
	}
	return &SQLSequences{db: db}, nil
}

// Save upserts seq.
func (s *SQLSequences) Save(seq Sequence) error {
	scripts, err := json.Marshal(seq.Scripts)
	if err != nil {
		return fmt.Errorf("marshal scripts: %w", err)
	}
	components, err := json.Marshal(seq.Components)
	if err != nil {
		return fmt.Errorf("marshal components: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO sequences (name, scripts, components) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET scripts = excluded.scripts, components = excluded.components`,
		seq.Name, string(scripts), string(components),
	)
	if err != nil {
		return fmt.Errorf("save sequence %s: %w", seq.Name, err)
	}
	return nil
}

// HasSequence implements SequenceSource.
func (s *SQLSequences) HasSequence(name string) bool {
	_, ok := s.ForName(name)
	return ok
}

// ForName implements SequenceSource. Read errors are logged and reported as absent.
func (s *SQLSequences) ForName(name string) (Sequence, bool) {
	var scripts, components string
	err := s.db.QueryRow(
		`SELECT scripts, components FROM sequences WHERE name = ?`, name,
	).Scan(&scripts, &components)
	if errors.Is(err, sql.ErrNoRows) {
		return Sequence{}, false
	}
	if err != nil {
		log.Printf("[REGISTRY] load sequence %s: %v", name, err)
		return Sequence{}, false
	}

	seq := Sequence{Name: name}
	if err := json.Unmarshal([]byte(scripts), &seq.Scripts); err != nil {
		log.Printf("[REGISTRY] decode scripts for %s: %v", name, err)
		return Sequence{}, false
	}
	if err := json.Unmarshal([]byte(components), &seq.Components); err != nil {
		log.Printf("[REGISTRY] decode components for %s: %v", name, err)
		return Sequence{}, false
	}
	return seq, true
}

// Names implements SequenceLister.
func (s *SQLSequences) Names() []string {
	rows, err := s.db.Query(`SELECT name FROM sequences ORDER BY name`)
	if err != nil {
		log.Printf("[REGISTRY] list sequences: %v", err)
		return nil
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			log.Printf("[REGISTRY] scan sequence name: %v", err)
			return names
		}
		names = append(names, name)
	}
	return names
}

// #endregion sql-sequences
