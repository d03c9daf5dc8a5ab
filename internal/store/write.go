package store

import (
	"context"
	"fmt"
	"log/slog"
)

// RecordGeneration appends a document to the ledger.
// Uses ON CONFLICT(document_hash) DO NOTHING for idempotency: recording an
// identical document again returns the existing row and false.
func (s *Store) RecordGeneration(ctx context.Context, in GenerationInput) (Generation, bool, error) {
	gen, rows, err := newGeneration(s.idGen.Generate(), in)
	if err != nil {
		return Generation{}, false, fmt.Errorf("record generation: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Generation{}, false, fmt.Errorf("record generation: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO generations
		(id, document_hash, params_hash, profile, run_number, params, document, generator_version, schema_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_hash) DO NOTHING
	`,
		gen.ID,
		gen.DocumentHash,
		gen.ParamsHash,
		gen.Profile,
		gen.RunNumber,
		gen.Params,
		gen.Document,
		gen.GeneratorVersion,
		gen.SchemaVersion,
	)
	if err != nil {
		return Generation{}, false, fmt.Errorf("record generation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Generation{}, false, fmt.Errorf("record generation: %w", err)
	}
	if n == 0 {
		if err := tx.Rollback(); err != nil {
			return Generation{}, false, fmt.Errorf("record generation: rollback: %w", err)
		}
		existing, err := s.GetGenerationByHash(ctx, gen.DocumentHash)
		if err != nil {
			return Generation{}, false, err
		}
		slog.Debug("generation already recorded", "hash", gen.DocumentHash, "id", existing.ID)
		return existing, false, nil
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return Generation{}, false, fmt.Errorf("record generation: %w", err)
	}
	gen.Seq = seq

	for _, row := range rows {
		targets, err := marshalTargets(row.Targets)
		if err != nil {
			return Generation{}, false, fmt.Errorf("record generation: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO generation_commands (generation_id, position, command_id, targets)
			VALUES (?, ?, ?, ?)
		`, gen.ID, row.Position, row.CommandID, targets); err != nil {
			return Generation{}, false, fmt.Errorf("record command %s: %w", row.CommandID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Generation{}, false, fmt.Errorf("record generation: commit: %w", err)
	}

	slog.Debug("generation recorded", "id", gen.ID, "hash", gen.DocumentHash, "seq", gen.Seq)
	return gen, true, nil
}
