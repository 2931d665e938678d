package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cvbuilder/backend/internal/models"
)

type snapshotChan chan []*models.CVDocument

// MemoryStore is an in-process DocumentStore. With a data dir it survives
// restarts through a JSONFile.
type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[string]*models.CVDocument
	subs    map[string]map[snapshotChan]struct{} // userID -> subscribers
	persist *JSONFile[[]*models.CVDocument]
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]*models.CVDocument),
		subs: make(map[string]map[snapshotChan]struct{}),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// NewFileStore loads previously saved documents from dataDir/cvs.json.
func NewFileStore(dataDir string) (*MemoryStore, error) {
	file, err := OpenJSONFile[[]*models.CVDocument](dataDir, "cvs.json")
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	saved, _, err := file.Read()
	if err != nil {
		return nil, fmt.Errorf("file store: load: %w", err)
	}

	s := NewMemoryStore()
	s.persist = file
	for _, d := range saved {
		if d != nil && d.ID != "" {
			s.docs[d.ID] = d
		}
	}
	return s, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.CVDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDoc(d), nil
}

func (s *MemoryStore) Insert(ctx context.Context, fields Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	doc := &models.CVDocument{ID: id}
	applyFields(doc, fields, s.stamp)
	s.docs[id] = doc

	if err := s.save(); err != nil {
		delete(s.docs, id)
		return "", err
	}
	s.notify(doc.UserID)
	return id, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.docs[id]
	if !ok {
		return ErrNotFound
	}
	next := cloneDoc(cur)
	applyFields(next, fields, s.stamp)
	s.docs[id] = next

	if err := s.save(); err != nil {
		s.docs[id] = cur
		return err
	}
	s.notify(next.UserID)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.docs[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.docs, id)

	if err := s.save(); err != nil {
		s.docs[id] = cur
		return err
	}
	s.notify(cur.UserID)
	return nil
}

func (s *MemoryStore) ListByOwner(ctx context.Context, userID string) ([]*models.CVDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownerSnapshot(userID), nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, userID string) (<-chan []*models.CVDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := make(snapshotChan, 1)

	s.mu.Lock()
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[snapshotChan]struct{})
	}
	s.subs[userID][ch] = struct{}{}
	ch <- s.ownerSnapshot(userID)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs[userID], ch)
		if len(s.subs[userID]) == 0 {
			delete(s.subs, userID)
		}
		close(ch)
		s.mu.Unlock()
	}()

	return ch, nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) stamp() any {
	return s.now()
}

// ownerSnapshot must be called with s.mu held.
func (s *MemoryStore) ownerSnapshot(userID string) []*models.CVDocument {
	out := make([]*models.CVDocument, 0)
	for _, d := range s.docs {
		if d.UserID == userID {
			out = append(out, cloneDoc(d))
		}
	}
	sortNewestFirst(out)
	return out
}

// notify pushes a fresh snapshot to every subscriber of userID. A reader
// that has not consumed the previous snapshot gets it replaced, since each
// message is a full list. Must be called with s.mu held.
func (s *MemoryStore) notify(userID string) {
	for ch := range s.subs[userID] {
		snap := s.ownerSnapshot(userID)
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// save must be called with s.mu held.
func (s *MemoryStore) save() error {
	if s.persist == nil {
		return nil
	}
	all := make([]*models.CVDocument, 0, len(s.docs))
	for _, d := range s.docs {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if err := s.persist.Write(all); err != nil {
		return fmt.Errorf("file store: save: %w", err)
	}
	return nil
}

func cloneDoc(d *models.CVDocument) *models.CVDocument {
	out := *d
	out.CVForm = d.CVForm.Clone()
	return &out
}
