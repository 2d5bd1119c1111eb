package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/resume-memory/internal/types"
)

// ListResumes retrieves a user's resumes, most recently modified first
func (db *DB) ListResumes(ctx context.Context, userID string) ([]types.ResumeDocument, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT document FROM resume_documents
		 WHERE user_id = $1 ORDER BY last_modified DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	resumes := []types.ResumeDocument{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		var doc types.ResumeDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode resume: %w", err)
		}
		resumes = append(resumes, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	return resumes, nil
}

// GetResume retrieves a single resume, or nil if it does not exist
func (db *DB) GetResume(ctx context.Context, userID, resumeID string) (*types.ResumeDocument, error) {
	var raw []byte
	err := db.pool.QueryRow(ctx,
		`SELECT document FROM resume_documents WHERE user_id = $1 AND id = $2`,
		userID, resumeID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}

	var doc types.ResumeDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode resume: %w", err)
	}
	return &doc, nil
}

// SaveResume inserts or replaces a resume by ID
func (db *DB) SaveResume(ctx context.Context, userID string, doc *types.ResumeDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode resume: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO resume_documents (id, user_id, document, last_modified)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, id) DO UPDATE
		 SET document = EXCLUDED.document, last_modified = EXCLUDED.last_modified`,
		doc.ID, userID, raw, doc.LastModified,
	)
	if err != nil {
		return fmt.Errorf("failed to save resume: %w", err)
	}
	return nil
}

// DeleteResume removes a resume
func (db *DB) DeleteResume(ctx context.Context, userID, resumeID string) error {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM resume_documents WHERE user_id = $1 AND id = $2`,
		userID, resumeID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete resume: %w", err)
	}
	if result.RowsAffected() == 0 {
		return &NotFoundError{Kind: "resume", ID: resumeID}
	}
	return nil
}
