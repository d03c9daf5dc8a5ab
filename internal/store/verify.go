package store

import (
	"context"
	"fmt"

	"github.com/roach88/trigconf/internal/ir"
)

// Verification is the result of re-checking a stored generation.
type Verification struct {
	Generation Generation
	// Recomputed is the hash of the stored document after a decode and
	// canonical re-encode.
	Recomputed string
	// Commands is the number of command rows stored for the generation.
	Commands int
}

// OK reports whether the stored document still matches its hash and its
// command rows.
func (v Verification) OK() bool {
	return v.Recomputed == v.Generation.DocumentHash && v.Commands == len(ir.CommandOrder)
}

// VerifyGeneration reloads a generation, re-encodes its document and
// recomputes the hash.
func (s *Store) VerifyGeneration(ctx context.Context, hash string) (Verification, error) {
	gen, err := s.GetGenerationByHash(ctx, hash)
	if err != nil {
		return Verification{}, err
	}

	doc, err := ir.UnmarshalDocument([]byte(gen.Document))
	if err != nil {
		return Verification{}, fmt.Errorf("verify %s: %w", hash, err)
	}
	canonical, err := ir.MarshalCanonical(doc)
	if err != nil {
		return Verification{}, fmt.Errorf("verify %s: %w", hash, err)
	}

	cmds, err := s.ListCommands(ctx, gen.ID)
	if err != nil {
		return Verification{}, fmt.Errorf("verify %s: %w", hash, err)
	}

	return Verification{
		Generation: gen,
		Recomputed: ir.CanonicalHash(canonical),
		Commands:   len(cmds),
	}, nil
}
