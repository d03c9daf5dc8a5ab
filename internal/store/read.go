package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no generation matches a lookup.
var ErrNotFound = errors.New("generation not found")

const generationColumns = `seq, id, document_hash, params_hash, profile, run_number, params, document, generator_version, schema_version`

// ListGenerations returns every recorded generation.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the ledger is empty.
func (s *Store) ListGenerations(ctx context.Context) ([]Generation, error) {
	return s.queryGenerations(ctx, `
		SELECT `+generationColumns+`
		FROM generations
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

// ListGenerationsByRun returns the generations recorded for a run number.
func (s *Store) ListGenerationsByRun(ctx context.Context, run int64) ([]Generation, error) {
	return s.queryGenerations(ctx, `
		SELECT `+generationColumns+`
		FROM generations
		WHERE run_number = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, run)
}

// ListGenerationsByParams returns the generations whose parameters hash to
// paramsHash. Different settings or profiles can yield several documents
// for the same parameters.
func (s *Store) ListGenerationsByParams(ctx context.Context, paramsHash string) ([]Generation, error) {
	return s.queryGenerations(ctx, `
		SELECT `+generationColumns+`
		FROM generations
		WHERE params_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, paramsHash)
}

// GetGenerationByHash returns the generation with the given document hash,
// or ErrNotFound.
func (s *Store) GetGenerationByHash(ctx context.Context, hash string) (Generation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+generationColumns+`
		FROM generations
		WHERE document_hash = ?
	`, hash)
	gen, err := scanGeneration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Generation{}, fmt.Errorf("%w: %s", ErrNotFound, hash)
	}
	if err != nil {
		return Generation{}, fmt.Errorf("get generation: %w", err)
	}
	return gen, nil
}

// ListCommands returns the command summaries of a generation in document
// order.
func (s *Store) ListCommands(ctx context.Context, generationID string) ([]CommandRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, command_id, targets
		FROM generation_commands
		WHERE generation_id = ?
		ORDER BY position ASC
	`, generationID)
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}
	defer rows.Close()

	cmds := []CommandRow{}
	for rows.Next() {
		var c CommandRow
		var targets string
		if err := rows.Scan(&c.Position, &c.CommandID, &targets); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		if c.Targets, err = unmarshalTargets(targets); err != nil {
			return nil, err
		}
		cmds = append(cmds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commands: %w", err)
	}
	return cmds, nil
}

func (s *Store) queryGenerations(ctx context.Context, query string, args ...any) ([]Generation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query generations: %w", err)
	}
	defer rows.Close()

	gens := []Generation{}
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		gens = append(gens, gen)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generations: %w", err)
	}
	return gens, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row scanner) (Generation, error) {
	var g Generation
	err := row.Scan(
		&g.Seq,
		&g.ID,
		&g.DocumentHash,
		&g.ParamsHash,
		&g.Profile,
		&g.RunNumber,
		&g.Params,
		&g.Document,
		&g.GeneratorVersion,
		&g.SchemaVersion,
	)
	return g, err
}
