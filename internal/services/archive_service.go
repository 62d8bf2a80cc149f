package services

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"astrowell_go_backend/internal/models"
	"astrowell_go_backend/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const savedChatsKey = "savedChats"

// ErrRecordNotFound is returned by Get for an unknown reading id.
// Delete of an unknown id is a no-op, not an error.
var ErrRecordNotFound = errors.New("reading not found")

// ArchiveStats is the summary the history view renders.
type ArchiveStats struct {
	TotalReadings int `json:"totalReadings"`
	TotalMessages int `json:"totalMessages"`
}

// ChatArchive is the upsert-by-id store of saved consultation
// transcripts. The full collection is persisted on every mutation.
type ChatArchive interface {
	Upsert(record models.ChatRecord) (string, error)
	List() ([]models.ChatRecord, error)
	Search(query string) ([]models.ChatRecord, error)
	Get(id string) (*models.ChatRecord, error)
	Delete(id string) error
	Stats() (ArchiveStats, error)
}

// DefaultChatArchive implements ChatArchive on a Store. The mutex
// serializes read-modify-write of the collection; the store itself
// only guarantees last-writer-wins per key.
type DefaultChatArchive struct {
	mu    sync.Mutex
	store store.Store
}

func NewChatArchive(s store.Store) ChatArchive {
	return &DefaultChatArchive{store: s}
}

func (a *DefaultChatArchive) load() ([]models.ChatRecord, error) {
	var records []models.ChatRecord
	if _, err := a.store.Get(savedChatsKey, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Upsert replaces the record with the same id in place, or prepends a
// new one so the collection stays most-recent-first.
func (a *DefaultChatArchive) Upsert(record models.ChatRecord) (string, error) {
	if record.ID == "" {
		record.ID = "chat_" + uuid.New().String()
	}
	record.MessageCount = len(record.Messages)

	a.mu.Lock()
	defer a.mu.Unlock()

	records, err := a.load()
	if err != nil {
		return "", err
	}
	replaced := false
	for i := range records {
		if records[i].ID == record.ID {
			records[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		records = append([]models.ChatRecord{record}, records...)
	}
	if err := a.store.Set(savedChatsKey, records); err != nil {
		return "", err
	}
	log.Info().Str("id", record.ID).Int("messages", record.MessageCount).Bool("replaced", replaced).Msg("reading saved")
	return record.ID, nil
}

// List returns all saved readings, most recently saved first.
func (a *DefaultChatArchive) List() ([]models.ChatRecord, error) {
	records, err := a.load()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SavedAt.After(records[j].SavedAt)
	})
	return records, nil
}

// Search filters by case-insensitive substring over the title, the
// subject's name and the birthplace. An empty query returns everything.
func (a *DefaultChatArchive) Search(query string) ([]models.ChatRecord, error) {
	records, err := a.List()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records, nil
	}
	var matched []models.ChatRecord
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Title), q) ||
			strings.Contains(strings.ToLower(r.BirthProfile.Name), q) ||
			strings.Contains(strings.ToLower(r.BirthProfile.PlaceOfBirth), q) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

func (a *DefaultChatArchive) Get(id string) (*models.ChatRecord, error) {
	records, err := a.load()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}
	return nil, ErrRecordNotFound
}

func (a *DefaultChatArchive) Delete(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	records, err := a.load()
	if err != nil {
		return err
	}
	kept := records[:0]
	for _, r := range records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(records) {
		return nil
	}
	return a.store.Set(savedChatsKey, kept)
}

func (a *DefaultChatArchive) Stats() (ArchiveStats, error) {
	records, err := a.load()
	if err != nil {
		return ArchiveStats{}, err
	}
	stats := ArchiveStats{TotalReadings: len(records)}
	for _, r := range records {
		stats.TotalMessages += r.MessageCount
	}
	return stats, nil
}
