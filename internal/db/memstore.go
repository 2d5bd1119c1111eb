package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/jonathan/resume-memory/internal/types"
)

// MemStore is an in-process store with the same semantics as DB. Documents are
// kept encoded so callers never share memory with stored values.
type MemStore struct {
	mu       sync.RWMutex
	profiles map[string]storedProfile
	resumes  map[string]map[string][]byte
}

type storedProfile struct {
	raw     []byte
	version int64
}

// NewMemStore returns an empty MemStore
func NewMemStore() *MemStore {
	return &MemStore{
		profiles: make(map[string]storedProfile),
		resumes:  make(map[string]map[string][]byte),
	}
}

// LoadProfile retrieves a user's profile, or nil if none has been saved
func (m *MemStore) LoadProfile(ctx context.Context, userID string) (*types.MemoryProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	stored, ok := m.profiles[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var profile types.MemoryProfile
	if err := json.Unmarshal(stored.raw, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	profile.Version = stored.version
	return &profile, nil
}

// SaveProfile writes profile if the stored version still equals profile.Version
func (m *MemStore) SaveProfile(ctx context.Context, userID string, profile *types.MemoryProfile) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return 0, fmt.Errorf("failed to encode profile: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profiles[userID].version != profile.Version {
		return 0, &VersionConflictError{UserID: userID, Expected: profile.Version}
	}
	next := profile.Version + 1
	m.profiles[userID] = storedProfile{raw: raw, version: next}
	return next, nil
}

// ListResumes retrieves a user's resumes, most recently modified first
func (m *MemStore) ListResumes(ctx context.Context, userID string) ([]types.ResumeDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	resumes := make([]types.ResumeDocument, 0, len(m.resumes[userID]))
	for _, raw := range m.resumes[userID] {
		var doc types.ResumeDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode resume: %w", err)
		}
		resumes = append(resumes, doc)
	}
	sort.Slice(resumes, func(i, j int) bool {
		if resumes[i].LastModified != resumes[j].LastModified {
			return resumes[i].LastModified > resumes[j].LastModified
		}
		return resumes[i].ID < resumes[j].ID
	})
	return resumes, nil
}

// GetResume retrieves a single resume, or nil if it does not exist
func (m *MemStore) GetResume(ctx context.Context, userID, resumeID string) (*types.ResumeDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	raw, ok := m.resumes[userID][resumeID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var doc types.ResumeDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode resume: %w", err)
	}
	return &doc, nil
}

// SaveResume inserts or replaces a resume by ID
func (m *MemStore) SaveResume(ctx context.Context, userID string, doc *types.ResumeDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode resume: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resumes[userID] == nil {
		m.resumes[userID] = make(map[string][]byte)
	}
	m.resumes[userID][doc.ID] = raw
	return nil
}

// DeleteResume removes a resume
func (m *MemStore) DeleteResume(ctx context.Context, userID, resumeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resumes[userID][resumeID]; !ok {
		return &NotFoundError{Kind: "resume", ID: resumeID}
	}
	delete(m.resumes[userID], resumeID)
	return nil
}
