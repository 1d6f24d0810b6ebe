// Package profile keeps the signed-in user's profile and pets.
//
// Pets of every user live in one document, allProfileData, keyed by user
// id:
//
//	{"<userID>": {"pets": [...], "selectedPet": {...}, "lastUpdated": "..."}}
//
// Users and pets are freeform records; fields the store does not know are
// kept. Entries of other users are written back undecoded.
package profile

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/kennel/internal/mockdata"
	"github.com/mesh-intelligence/kennel/internal/stores"
	"github.com/mesh-intelligence/kennel/pkg/types"
)

// Pet and profile fields the store writes.
const (
	FieldName         = "name"
	FieldSpecies      = "species"
	FieldProfileImage = "profileImage"
)

// DefaultPet returns the pet created for a user who has none yet.
func DefaultPet() types.Record {
	return types.Record{
		FieldName:         "우리 아이",
		FieldSpecies:      "dog",
		FieldProfileImage: "/src/assets/images/profiles/default-pet.svg",
	}
}

// entry is one user's value in allProfileData.
type entry struct {
	Pets        []types.Record `json:"pets"`
	SelectedPet types.Record   `json:"selectedPet"`
	LastUpdated string         `json:"lastUpdated"`
}

// Store is the profile state of the signed-in user. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	storage  types.Storage
	log      *zap.Logger
	clock    mockdata.Clock
	user     types.Record
	key      string
	pets     []types.Record
	selected types.Record
}

type Option func(*Store)

func WithClock(c mockdata.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func New(st types.Storage, log *zap.Logger, opts ...Option) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{storage: st, log: log, clock: mockdata.SystemClock}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetUser switches the store to user and loads their pets, creating the
// default pet when they have none. A nil user clears the state; a user
// without an id is rejected.
func (s *Store) SetUser(ctx context.Context, user types.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user, s.key, s.pets, s.selected = nil, "", nil, nil
	if user == nil {
		return nil
	}
	id, ok := user.ID()
	if !ok {
		return fmt.Errorf("%w: user has no id", types.ErrInvalidID)
	}
	s.user, s.key = user.Clone(), id.String()

	all, err := s.loadAll(ctx)
	if err != nil {
		return err
	}
	if raw, ok := all[s.key]; ok {
		var e entry
		if err := decode(raw, &e); err != nil {
			return fmt.Errorf("decode profile of %s: %w", s.key, err)
		}
		if e.Pets != nil {
			s.pets = e.Pets
			switch {
			case e.SelectedPet != nil:
				s.selected = e.SelectedPet
			case len(e.Pets) > 0:
				s.selected = e.Pets[0].Clone()
			}
			return nil
		}
	}

	pet, err := types.Normalize(DefaultPet().WithID(types.NumberID(s.clock.Now().UnixMilli())))
	if err != nil {
		return err
	}
	s.pets = []types.Record{pet}
	s.selected = pet.Clone()
	s.log.Debug("created default pet", zap.String("user", s.key))
	return s.persist(ctx, all)
}

// Profile returns the profile of the current user.
func (s *Store) Profile() (types.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil, false
	}
	return s.user.Clone(), true
}

// UpdateProfile spreads fields over the in-memory profile.
func (s *Store) UpdateProfile(fields types.Record) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, types.ErrNotAuthenticated
	}
	updated, err := stores.Spread(s.user, fields)
	if err != nil {
		return nil, err
	}
	s.user = updated
	return updated.Clone(), nil
}

// Pets returns a copy of the pet list.
func (s *Store) Pets() []types.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Record, len(s.pets))
	for i, p := range s.pets {
		out[i] = p.Clone()
	}
	return out
}

func (s *Store) SelectedPet() (types.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil, false
	}
	return s.selected.Clone(), true
}

// AddPet appends pet under a new timestamp id. Any id in pet is replaced.
func (s *Store) AddPet(ctx context.Context, pet types.Record) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, types.ErrNotAuthenticated
	}
	added, err := types.Normalize(pet.WithID(s.nextID()))
	if err != nil {
		return nil, err
	}
	s.pets = append(s.pets, added)
	return added.Clone(), s.save(ctx)
}

// UpdatePet spreads fields over the pet with id, and over the selected pet
// when it is the same one.
func (s *Store) UpdatePet(ctx context.Context, id types.ID, fields types.Record) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, types.ErrNotAuthenticated
	}
	i := s.index(id)
	if i < 0 {
		return nil, types.ErrPetNotFound
	}
	updated, err := stores.Spread(s.pets[i], fields)
	if err != nil {
		return nil, err
	}
	if s.selected != nil && sameID(s.selected, id) {
		sel, err := stores.Spread(s.selected, fields)
		if err != nil {
			return nil, err
		}
		s.selected = sel
	}
	s.pets[i] = updated
	return updated.Clone(), s.save(ctx)
}

// DeletePet removes the pet with id. The last pet cannot be removed.
// Removing the selected pet selects the first one left.
func (s *Store) DeletePet(ctx context.Context, id types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return types.ErrNotAuthenticated
	}
	if len(s.pets) <= 1 {
		return types.ErrLastPet
	}
	i := s.index(id)
	if i < 0 {
		return types.ErrPetNotFound
	}
	s.pets = append(s.pets[:i:i], s.pets[i+1:]...)
	if s.selected != nil && sameID(s.selected, id) {
		s.selected = s.pets[0].Clone()
	}
	return s.save(ctx)
}

// SelectPet makes the pet with id the selected one.
func (s *Store) SelectPet(ctx context.Context, id types.ID) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, types.ErrNotAuthenticated
	}
	i := s.index(id)
	if i < 0 {
		return nil, types.ErrPetNotFound
	}
	s.selected = s.pets[i].Clone()
	return s.selected.Clone(), s.save(ctx)
}

// SetProfileImage stores an uploaded image on the profile as a data URL.
// An empty mimeType is sniffed from data.
func (s *Store) SetProfileImage(mimeType string, data []byte) (string, error) {
	url := DataURL(mimeType, data)
	if _, err := s.UpdateProfile(types.Record{FieldProfileImage: url}); err != nil {
		return "", err
	}
	return url, nil
}

// SetPetImage stores an uploaded image on a pet as a data URL.
func (s *Store) SetPetImage(ctx context.Context, id types.ID, mimeType string, data []byte) (string, error) {
	url := DataURL(mimeType, data)
	if _, err := s.UpdatePet(ctx, id, types.Record{FieldProfileImage: url}); err != nil {
		return "", err
	}
	return url, nil
}

// DataURL encodes data as a base64 data URL.
func DataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func sameID(r types.Record, id types.ID) bool {
	rid, ok := r.ID()
	return ok && rid.Equal(id)
}

func (s *Store) index(id types.ID) int {
	for i, p := range s.pets {
		if sameID(p, id) {
			return i
		}
	}
	return -1
}

// nextID is the clock in milliseconds, moved past any pet already using it.
func (s *Store) nextID() types.ID {
	n := s.clock.Now().UnixMilli()
	for s.index(types.NumberID(n)) >= 0 {
		n++
	}
	return types.NumberID(n)
}

// loadAll reads allProfileData with each user's entry left undecoded.
func (s *Store) loadAll(ctx context.Context) (map[string]json.RawMessage, error) {
	all := map[string]json.RawMessage{}
	if _, err := stores.LoadJSON(ctx, s.storage, stores.KeyAllProfileData, &all); err != nil {
		return nil, err
	}
	if all == nil {
		all = map[string]json.RawMessage{}
	}
	return all, nil
}

// save re-reads allProfileData and writes the current user's entry into it.
// Callers hold s.mu.
func (s *Store) save(ctx context.Context) error {
	all, err := s.loadAll(ctx)
	if err != nil {
		return err
	}
	return s.persist(ctx, all)
}

// persist rewrites the current user's entry in all, or removes it when the
// user has no pets. Callers hold s.mu.
func (s *Store) persist(ctx context.Context, all map[string]json.RawMessage) error {
	if len(s.pets) == 0 {
		if _, ok := all[s.key]; !ok {
			return nil
		}
		delete(all, s.key)
	} else {
		raw, err := json.Marshal(entry{
			Pets:        s.pets,
			SelectedPet: s.selected,
			LastUpdated: s.clock.Now().UTC().Format(stores.TimeLayout),
		})
		if err != nil {
			return fmt.Errorf("encode profile of %s: %w", s.key, err)
		}
		all[s.key] = raw
	}
	return stores.SaveJSON(ctx, s.storage, stores.KeyAllProfileData, all)
}

func decode(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}
