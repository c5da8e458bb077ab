package diary

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements Store using Google Cloud Firestore, one
// document per date in a single collection. Useful when the service runs
// on ephemeral compute and entries must survive instance churn.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	mu         sync.RWMutex
	closed     bool
}

// FirestoreConfig contains configuration for the Firestore diary store.
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
	// Collection is the Firestore collection name (default: "diary-entries").
	Collection string
}

// firestoreEntry is the document shape stored per date.
type firestoreEntry struct {
	Content   string    `firestore:"content"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// NewFirestoreStore creates a new Firestore-backed diary store.
// Uses Application Default Credentials unless a credentials file is given.
func NewFirestoreStore(ctx context.Context, cfg FirestoreConfig) (*FirestoreStore, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project ID is required")
	}

	collection := cfg.Collection
	if collection == "" {
		collection = "diary-entries"
	}

	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}

	return &FirestoreStore{client: client, collection: collection}, nil
}

func (s *FirestoreStore) doc(date string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(date)
}

// Save creates or fully overwrites the entry at date.
func (s *FirestoreStore) Save(ctx context.Context, date, content string) (string, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return "", ErrStoreClosed
	}
	s.mu.RUnlock()

	if !ValidDate(date) {
		return "", ErrInvalidDate
	}

	ref := s.doc(date)
	if _, err := ref.Set(ctx, firestoreEntry{
		Content:   content,
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		return "", fmt.Errorf("store entry: %w", err)
	}

	return ref.Path, nil
}

// Get returns the stored content for date, or ok=false if none exists.
func (s *FirestoreStore) Get(ctx context.Context, date string) (string, bool, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return "", false, ErrStoreClosed
	}
	s.mu.RUnlock()

	if !ValidDate(date) {
		return "", false, ErrInvalidDate
	}

	snap, err := s.doc(date).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read entry: %w", err)
	}

	var entry firestoreEntry
	if err := snap.DataTo(&entry); err != nil {
		return "", false, fmt.Errorf("decode entry: %w", err)
	}

	return entry.Content, true, nil
}

// Delete removes the entry at date. Firestore deletes are already no-ops
// for missing documents.
func (s *FirestoreStore) Delete(ctx context.Context, date string) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStoreClosed
	}
	s.mu.RUnlock()

	if !ValidDate(date) {
		return ErrInvalidDate
	}

	if _, err := s.doc(date).Delete(ctx); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	return nil
}

// ListMonth projects every calendar day of (year, month) with one batched
// document fetch for the whole month.
func (s *FirestoreStore) ListMonth(ctx context.Context, year, month int) (*MonthProjection, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrStoreClosed
	}
	s.mu.RUnlock()

	if month < 1 || month > 12 || year < 1 {
		return nil, ErrInvalidMonth
	}

	dates := monthDates(year, month)
	refs := make([]*firestore.DocumentRef, len(dates))
	for i, date := range dates {
		refs[i] = s.doc(date)
	}

	snaps, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("list month: %w", err)
	}

	days := make([]DayCell, len(dates))
	for i, date := range dates {
		days[i] = DayCell{Date: date}
		if snaps[i].Exists() {
			var entry firestoreEntry
			if err := snaps[i].DataTo(&entry); err != nil {
				return nil, fmt.Errorf("decode entry: %w", err)
			}
			days[i].HasEntry = true
			days[i].Preview = Preview(entry.Content)
		}
	}

	return &MonthProjection{Year: year, Month: month, Days: days}, nil
}

// Close releases the underlying Firestore client.
func (s *FirestoreStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.client.Close()
}
