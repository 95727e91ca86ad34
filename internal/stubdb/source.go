package stubdb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/funvibe/typeobj/internal/stubs"
	"github.com/funvibe/typeobj/internal/typeobject"
)

// Ancestors in breadth-first depth order. Depth is bounded by the number of
// declared types, which is the longest acyclic base chain, so cyclic
// declarations terminate.
const ancestorsQuery = `
WITH RECURSIVE anc(name, depth) AS (
	SELECT ?, 0
	UNION
	SELECT b.base, anc.depth + 1
	FROM bases b JOIN anc ON b.type = anc.name
	WHERE anc.depth < (SELECT COUNT(*) FROM types)
)
SELECT name FROM anc
GROUP BY name
ORDER BY MIN(depth), name`

const protocolQuery = `
SELECT t.protocol OR EXISTS (
	SELECT 1 FROM bases b
	WHERE b.type = t.name AND b.base IN ('typing.Protocol', 'typing_extensions.Protocol')
)
FROM types t WHERE t.name = ?`

func (ix *Index) declared(key typeobject.TypeKey) (name string, protocol bool, err error) {
	name, ok := typeobject.KeyName(key)
	if !ok {
		return "", false, typeobject.ErrUnknownType
	}
	err = ix.db.QueryRow(`SELECT protocol FROM types WHERE name = ?`, name).Scan(&protocol)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, typeobject.ErrUnknownType
	}
	if err != nil {
		return "", false, fmt.Errorf("looking up %s: %w", name, err)
	}
	return name, protocol, nil
}

func (ix *Index) AncestorsOf(key typeobject.TypeKey) ([]typeobject.TypeKey, error) {
	name, protocol, err := ix.declared(key)
	if err != nil {
		return nil, err
	}
	names, err := ix.queryStrings(ancestorsQuery, name)
	if err != nil {
		return nil, fmt.Errorf("ancestors of %s: %w", name, err)
	}

	out := make([]typeobject.TypeKey, 0, len(names)+1)
	out = append(out, key)
	marked := false
	for _, n := range names {
		if n == name {
			continue
		}
		marked = marked || stubs.IsProtocolBase(n)
		out = append(out, ix.resolver(n))
	}
	if protocol && !marked {
		out = append(out, ix.resolver(typeobject.ProtocolName))
	}
	return out, nil
}

func (ix *Index) IsStructuralContract(key typeobject.TypeKey) (bool, error) {
	name, ok := typeobject.KeyName(key)
	if !ok {
		return false, typeobject.ErrUnknownType
	}
	var protocol bool
	err := ix.db.QueryRow(protocolQuery, name).Scan(&protocol)
	if errors.Is(err, sql.ErrNoRows) {
		return false, typeobject.ErrUnknownType
	}
	if err != nil {
		return false, fmt.Errorf("protocol check of %s: %w", name, err)
	}
	return protocol, nil
}

func (ix *Index) AllAttributeNames(key typeobject.TypeKey) ([]string, error) {
	name, _, err := ix.declared(key)
	if err != nil {
		return nil, err
	}
	attrs, err := ix.queryStrings(`SELECT name FROM attributes WHERE type = ? ORDER BY name`, name)
	if err != nil {
		return nil, fmt.Errorf("attributes of %s: %w", name, err)
	}
	return attrs, nil
}

func (ix *Index) queryStrings(query string, args ...any) ([]string, error) {
	rows, err := ix.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var _ typeobject.AncestorSource = (*Index)(nil)
