package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	leadsKey      = "offer-oven:leads"
	disposKey     = "offer-oven:dispos"
	dispoLeadsKey = "offer-oven:dispo-leads" // lead id -> dispo id
)

// ErrAlreadyInDispo is returned when a lead has already been pushed to dispo.
var ErrAlreadyInDispo = errors.New("lead is already in dispo")

// Store persists leads and dispos. CreateDispo claims the dispo's lead
// atomically: at most one dispo exists per lead.
type Store interface {
	SaveLead(ctx context.Context, lead Lead) error
	GetLead(ctx context.Context, id string) (Lead, error)
	ListLeads(ctx context.Context) ([]Lead, error)
	DeleteLead(ctx context.Context, id string) error
	CreateDispo(ctx context.Context, dispo Dispo) error
	DeleteDispo(ctx context.Context, id string) error
	ListDispos(ctx context.Context) ([]Dispo, error)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	mu         sync.RWMutex
	leads      map[string]Lead
	dispos     map[string]Dispo
	dispoLeads map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		leads:      make(map[string]Lead),
		dispos:     make(map[string]Dispo),
		dispoLeads: make(map[string]string),
	}
}

func (s *MemoryStore) SaveLead(_ context.Context, lead Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[lead.ID] = lead
	return nil
}

func (s *MemoryStore) GetLead(_ context.Context, id string) (Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.leads[id]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return lead, nil
}

func (s *MemoryStore) ListLeads(_ context.Context) ([]Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	leads := make([]Lead, 0, len(s.leads))
	for _, lead := range s.leads {
		leads = append(leads, lead)
	}
	sortLeads(leads)
	return leads, nil
}

func (s *MemoryStore) DeleteLead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[id]; !ok {
		return ErrNotFound
	}
	delete(s.leads, id)
	return nil
}

func (s *MemoryStore) CreateDispo(_ context.Context, dispo Dispo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dispoLeads[dispo.LeadID]; ok {
		return ErrAlreadyInDispo
	}
	s.dispoLeads[dispo.LeadID] = dispo.ID
	s.dispos[dispo.ID] = dispo
	return nil
}

func (s *MemoryStore) DeleteDispo(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dispo, ok := s.dispos[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.dispos, id)
	delete(s.dispoLeads, dispo.LeadID)
	return nil
}

func (s *MemoryStore) ListDispos(_ context.Context) ([]Dispo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dispos := make([]Dispo, 0, len(s.dispos))
	for _, dispo := range s.dispos {
		dispos = append(dispos, dispo)
	}
	sortDispos(dispos)
	return dispos, nil
}

// RedisStore keeps leads and dispos as JSON values in two Redis hashes keyed
// by record id. A third hash maps each lead to its dispo and is claimed with
// HSETNX.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) SaveLead(ctx context.Context, lead Lead) error {
	return s.put(ctx, leadsKey, lead.ID, lead)
}

func (s *RedisStore) GetLead(ctx context.Context, id string) (Lead, error) {
	raw, err := s.client.HGet(ctx, leadsKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("get lead %s: %w", id, err)
	}
	var lead Lead
	if err := json.Unmarshal([]byte(raw), &lead); err != nil {
		return Lead{}, fmt.Errorf("decode lead %s: %w", id, err)
	}
	return lead, nil
}

func (s *RedisStore) ListLeads(ctx context.Context) ([]Lead, error) {
	values, err := s.client.HVals(ctx, leadsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	leads := make([]Lead, 0, len(values))
	for _, raw := range values {
		var lead Lead
		if err := json.Unmarshal([]byte(raw), &lead); err != nil {
			return nil, fmt.Errorf("decode lead: %w", err)
		}
		leads = append(leads, lead)
	}
	sortLeads(leads)
	return leads, nil
}

func (s *RedisStore) DeleteLead(ctx context.Context, id string) error {
	removed, err := s.client.HDel(ctx, leadsKey, id).Result()
	if err != nil {
		return fmt.Errorf("delete lead %s: %w", id, err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) CreateDispo(ctx context.Context, dispo Dispo) error {
	claimed, err := s.client.HSetNX(ctx, dispoLeadsKey, dispo.LeadID, dispo.ID).Result()
	if err != nil {
		return fmt.Errorf("claim lead %s: %w", dispo.LeadID, err)
	}
	if !claimed {
		return ErrAlreadyInDispo
	}
	if err := s.put(ctx, disposKey, dispo.ID, dispo); err != nil {
		// Release the claim so the lead can be pushed again.
		_ = s.client.HDel(ctx, dispoLeadsKey, dispo.LeadID).Err()
		return err
	}
	return nil
}

func (s *RedisStore) DeleteDispo(ctx context.Context, id string) error {
	raw, err := s.client.HGet(ctx, disposKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get dispo %s: %w", id, err)
	}
	var dispo Dispo
	if err := json.Unmarshal([]byte(raw), &dispo); err != nil {
		return fmt.Errorf("decode dispo %s: %w", id, err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, disposKey, id)
		pipe.HDel(ctx, dispoLeadsKey, dispo.LeadID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete dispo %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) ListDispos(ctx context.Context) ([]Dispo, error) {
	values, err := s.client.HVals(ctx, disposKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list dispos: %w", err)
	}
	dispos := make([]Dispo, 0, len(values))
	for _, raw := range values {
		var dispo Dispo
		if err := json.Unmarshal([]byte(raw), &dispo); err != nil {
			return nil, fmt.Errorf("decode dispo: %w", err)
		}
		dispos = append(dispos, dispo)
	}
	sortDispos(dispos)
	return dispos, nil
}

func (s *RedisStore) put(ctx context.Context, key, id string, record any) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s: %w", id, err)
	}
	if err := s.client.HSet(ctx, key, id, payload).Err(); err != nil {
		return fmt.Errorf("save %s: %w", id, err)
	}
	return nil
}

// Newest first, matching how the pipeline is displayed.
func sortLeads(leads []Lead) {
	sort.SliceStable(leads, func(i, j int) bool {
		if leads[i].DateAdded.Equal(leads[j].DateAdded) {
			return leads[i].ID < leads[j].ID
		}
		return leads[i].DateAdded.After(leads[j].DateAdded)
	})
}

func sortDispos(dispos []Dispo) {
	sort.SliceStable(dispos, func(i, j int) bool {
		if dispos[i].DateAdded.Equal(dispos[j].DateAdded) {
			return dispos[i].ID < dispos[j].ID
		}
		return dispos[i].DateAdded.After(dispos[j].DateAdded)
	})
}
