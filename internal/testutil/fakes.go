// Package testutil provides in-memory stand-ins for the pgx-backed
// repositories and the SMS sender. The fakes keep the repository
// contracts (single-consumer codes, upsert-by-phone users, hashed
// refresh tokens) so service tests exercise real flow logic.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/pulseline/phone-auth-service/internal/models"
	"github.com/pulseline/phone-auth-service/internal/repositories"
	"github.com/pulseline/phone-auth-service/internal/utils"
)

// ---------------------------------------------------------------------
// OTP repository
// ---------------------------------------------------------------------

type MemOTPRepo struct {
	mu    sync.Mutex
	Codes []*models.OTPCode

	// MarkUsedErr makes MarkUsed fail, to exercise invalidation errors.
	MarkUsedErr error
}

var _ repositories.OTPRepository = (*MemOTPRepo)(nil)

func NewMemOTPRepo() *MemOTPRepo {
	return &MemOTPRepo{}
}

// Seed injects a record directly, bypassing invalidation.
func (f *MemOTPRepo) Seed(rec *models.OTPCode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Codes = append(f.Codes, rec)
}

func (f *MemOTPRepo) Replace(ctx context.Context, phone, code string, ttl time.Duration) (*models.OTPCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.Codes {
		if c.PhoneNumber == phone && !c.IsUsed {
			c.IsUsed = true
		}
	}

	now := time.Now()
	rec := &models.OTPCode{
		ID:          uuid.New(),
		PhoneNumber: phone,
		Code:        code,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	f.Codes = append(f.Codes, rec)

	cp := *rec
	return &cp, nil
}

// Consume serializes callers on the mutex the way the SQL
// implementation serializes them on the row lock.
func (f *MemOTPRepo) Consume(ctx context.Context, phone, code string) (*models.OTPCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	var match *models.OTPCode
	for _, c := range f.Codes {
		if c.PhoneNumber == phone && c.Code == code && c.IsValid(now) {
			if match == nil || c.CreatedAt.After(match.CreatedAt) {
				match = c
			}
		}
	}
	if match == nil {
		return nil, pgx.ErrNoRows
	}

	match.IsUsed = true
	cp := *match
	return &cp, nil
}

func (f *MemOTPRepo) MarkUsed(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.MarkUsedErr != nil {
		return f.MarkUsedErr
	}
	for _, c := range f.Codes {
		if c.ID == id {
			c.IsUsed = true
		}
	}
	return nil
}

func (f *MemOTPRepo) CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var kept []*models.OTPCode
	var removed int64
	for _, c := range f.Codes {
		if c.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	f.Codes = kept
	return removed, nil
}

func (f *MemOTPRepo) Stats(ctx context.Context) (*repositories.OTPStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	s := &repositories.OTPStats{}
	for _, c := range f.Codes {
		s.TotalCodes++
		if c.IsUsed {
			s.UsedCodes++
		} else if now.After(c.ExpiresAt) {
			s.ExpiredCodes++
		}
		if c.CreatedAt.YearDay() == now.YearDay() && c.CreatedAt.Year() == now.Year() {
			s.CodesToday++
		}
	}
	return s, nil
}

func (f *MemOTPRepo) WithDB(db repositories.DB) repositories.OTPRepository {
	return f
}

func (f *MemOTPRepo) snapshot() []models.OTPCode {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := make([]models.OTPCode, len(f.Codes))
	for i, c := range f.Codes {
		snap[i] = *c
	}
	return snap
}

func (f *MemOTPRepo) restore(snap []models.OTPCode) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Codes = make([]*models.OTPCode, len(snap))
	for i := range snap {
		cp := snap[i]
		f.Codes[i] = &cp
	}
}

// LatestCode returns the most recent code stored for phone, used or not.
func (f *MemOTPRepo) LatestCode(phone string) *models.OTPCode {
	f.mu.Lock()
	defer f.mu.Unlock()

	var latest *models.OTPCode
	for _, c := range f.Codes {
		if c.PhoneNumber == phone && (latest == nil || c.CreatedAt.After(latest.CreatedAt)) {
			latest = c
		}
	}
	if latest == nil {
		return nil
	}
	cp := *latest
	return &cp
}

// ---------------------------------------------------------------------
// User repository
// ---------------------------------------------------------------------

type MemUserRepo struct {
	mu    sync.Mutex
	Users map[uuid.UUID]*models.User

	// GetOrCreateErr makes GetOrCreate fail, to exercise rollback paths.
	GetOrCreateErr error
}

var _ repositories.UserRepository = (*MemUserRepo)(nil)

func NewMemUserRepo() *MemUserRepo {
	return &MemUserRepo{Users: make(map[uuid.UUID]*models.User)}
}

func (f *MemUserRepo) Seed(u *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Users[u.ID] = u
}

func (f *MemUserRepo) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Users)
}

func (f *MemUserRepo) GetOrCreate(ctx context.Context, phone string) (*models.User, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.GetOrCreateErr != nil {
		return nil, false, f.GetOrCreateErr
	}

	if u := f.findByPhone(phone); u != nil {
		cp := *u
		return &cp, false, nil
	}

	now := time.Now()
	u := &models.User{
		ID:              uuid.New(),
		Username:        phone,
		PhoneNumber:     phone,
		IsPhoneVerified: true,
		Role:            models.RoleUser,
		DateJoined:      now,
		UpdatedAt:       now,
	}
	f.Users[u.ID] = u

	cp := *u
	return &cp, true, nil
}

func (f *MemUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.Users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (f *MemUserRepo) GetByPhoneNumber(ctx context.Context, phone string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u := f.findByPhone(phone); u != nil {
		cp := *u
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *MemUserRepo) MarkPhoneVerified(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.Users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.IsPhoneVerified = true
	u.UpdatedAt = time.Now()
	return nil
}

func (f *MemUserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, firstName, lastName, email *string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.Users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if firstName != nil {
		u.FirstName = *firstName
	}
	if lastName != nil {
		u.LastName = *lastName
	}
	if email != nil {
		u.Email = *email
	}
	u.UpdatedAt = time.Now()

	cp := *u
	return &cp, nil
}

func (f *MemUserRepo) Stats(ctx context.Context) (*repositories.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	weekAgo := time.Now().Add(-7 * 24 * time.Hour)
	s := &repositories.UserStats{}
	for _, u := range f.Users {
		s.TotalUsers++
		if u.IsPhoneVerified {
			s.VerifiedUsers++
		} else {
			s.UnverifiedUsers++
		}
		if u.DateJoined.After(weekAgo) {
			s.NewThisWeek++
		}
	}
	return s, nil
}

func (f *MemUserRepo) WithDB(db repositories.DB) repositories.UserRepository {
	return f
}

func (f *MemUserRepo) snapshot() map[uuid.UUID]models.User {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := make(map[uuid.UUID]models.User, len(f.Users))
	for id, u := range f.Users {
		snap[id] = *u
	}
	return snap
}

func (f *MemUserRepo) restore(snap map[uuid.UUID]models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Users = make(map[uuid.UUID]*models.User, len(snap))
	for id := range snap {
		cp := snap[id]
		f.Users[id] = &cp
	}
}

func (f *MemUserRepo) findByPhone(phone string) *models.User {
	for _, u := range f.Users {
		if u.PhoneNumber == phone {
			return u
		}
	}
	return nil
}

// ---------------------------------------------------------------------
// Refresh token repository
// ---------------------------------------------------------------------

type MemTokenRepo struct {
	mu     sync.Mutex
	byHash map[string]*models.RefreshToken

	// CreateErr makes Create fail, to exercise rollback paths.
	CreateErr error
}

var _ repositories.RefreshTokenRepository = (*MemTokenRepo)(nil)

func NewMemTokenRepo() *MemTokenRepo {
	return &MemTokenRepo{byHash: make(map[string]*models.RefreshToken)}
}

func (f *MemTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CreateErr != nil {
		return f.CreateErr
	}

	stored := *token
	stored.Token = utils.HashToken(token.Token)
	f.byHash[stored.Token] = &stored
	return nil
}

func (f *MemTokenRepo) GetByRawToken(ctx context.Context, rawToken string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rt, ok := f.byHash[utils.HashToken(rawToken)]
	if !ok {
		return nil, nil
	}
	cp := *rt
	return &cp, nil
}

func (f *MemTokenRepo) Remove(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for k, rt := range f.byHash {
		if rt.ID == id {
			delete(f.byHash, k)
		}
	}
	return nil
}

func (f *MemTokenRepo) RemoveAllByUserID(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for k, rt := range f.byHash {
		if rt.UserID == userID {
			delete(f.byHash, k)
		}
	}
	return nil
}

func (f *MemTokenRepo) CleanupExpired(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	for k, rt := range f.byHash {
		if now.After(rt.ExpiresAt) {
			delete(f.byHash, k)
		}
	}
	return nil
}

func (f *MemTokenRepo) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byHash)
}

func (f *MemTokenRepo) WithDB(db repositories.DB) repositories.RefreshTokenRepository {
	return f
}

func (f *MemTokenRepo) snapshot() map[string]models.RefreshToken {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := make(map[string]models.RefreshToken, len(f.byHash))
	for k, rt := range f.byHash {
		snap[k] = *rt
	}
	return snap
}

func (f *MemTokenRepo) restore(snap map[string]models.RefreshToken) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.byHash = make(map[string]*models.RefreshToken, len(snap))
	for k := range snap {
		cp := snap[k]
		f.byHash[k] = &cp
	}
}

// ---------------------------------------------------------------------
// Transaction manager
// ---------------------------------------------------------------------

// MemTxManager mimics transactional semantics over the in-memory
// repositories: state is snapshotted before fn runs and restored when
// fn fails, so rollback behavior is observable in tests. Transactions
// run one at a time, like serializable isolation.
type MemTxManager struct {
	mu     sync.Mutex
	OTP    *MemOTPRepo
	Users  *MemUserRepo
	Tokens *MemTokenRepo
}

var _ repositories.TxManager = (*MemTxManager)(nil)

func NewMemTxManager(otp *MemOTPRepo, users *MemUserRepo, tokens *MemTokenRepo) *MemTxManager {
	return &MemTxManager{OTP: otp, Users: users, Tokens: tokens}
}

func (m *MemTxManager) InTx(ctx context.Context, fn func(db repositories.DB) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	otpSnap := m.OTP.snapshot()
	userSnap := m.Users.snapshot()
	tokenSnap := m.Tokens.snapshot()

	if err := fn(nil); err != nil {
		m.OTP.restore(otpSnap)
		m.Users.restore(userSnap)
		m.Tokens.restore(tokenSnap)
		return err
	}
	return nil
}

// ---------------------------------------------------------------------
// SMS sender
// ---------------------------------------------------------------------

type SentSMS struct {
	Phone string
	Code  string
}

// CaptureSender records outgoing messages. Result/Err control the
// outcome each Send reports.
type CaptureSender struct {
	mu     sync.Mutex
	Sent   []SentSMS
	Result bool
	Err    error
}

func NewCaptureSender() *CaptureSender {
	return &CaptureSender{Result: true}
}

func (s *CaptureSender) Send(ctx context.Context, phone, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return false, s.Err
	}
	s.Sent = append(s.Sent, SentSMS{Phone: phone, Code: code})
	return s.Result, nil
}

func (s *CaptureSender) LastSent() *SentSMS {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Sent) == 0 {
		return nil
	}
	cp := s.Sent[len(s.Sent)-1]
	return &cp
}
