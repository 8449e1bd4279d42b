package pgstore

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mickamy/gaudit"
)

// scanRecords consumes rows into records and closes them.
func scanRecords(rows *sql.Rows) ([]gaudit.Record, error) {
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var out []gaudit.Record
	for rows.Next() {
		var (
			r                         gaudit.Record
			action                    string
			chain, original, modified []byte
		)
		if err := rows.Scan(
			&r.ID,
			&chain,
			&r.Scope,
			&action,
			&r.ModifierID,
			&original,
			&modified,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("pgstore: failed to scan audit record: %w", err)
		}
		r.Action = gaudit.Action(action)
		if err := json.Unmarshal(chain, &r.AssociationChain); err != nil {
			return nil, fmt.Errorf("pgstore: failed to decode association chain: %w", err)
		}
		var err error
		if r.Original, err = decodeMap(original); err != nil {
			return nil, fmt.Errorf("pgstore: failed to decode original: %w", err)
		}
		if r.Modified, err = decodeMap(modified); err != nil {
			return nil, fmt.Errorf("pgstore: failed to decode modified: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgstore: failed to iterate audit records: %w", err)
	}
	return out, nil
}

// decodeMap decodes a JSONB object; SQL NULL becomes an empty map.
func decodeMap(b []byte) (map[string]any, error) {
	m := map[string]any{}
	if len(b) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}
